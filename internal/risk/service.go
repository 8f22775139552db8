// Package risk classifies sender profiles into compliance risk tiers.
package risk

import (
	"strings"

	"afripay/internal/domain"
	"afripay/pkg/config"

	"github.com/shopspring/decimal"
)

// Assessor derives a risk tier from a sender profile. It performs no I/O and
// is safe for concurrent use.
type Assessor struct {
	highRisk  map[string]struct{}
	threshold decimal.Decimal
}

// NewAssessor builds an assessor from the risk configuration.
func NewAssessor(cfg config.RiskConfig) *Assessor {
	highRisk := make(map[string]struct{}, len(cfg.HighRiskCountries))
	for _, c := range cfg.HighRiskCountries {
		highRisk[strings.ToUpper(strings.TrimSpace(c))] = struct{}{}
	}

	return &Assessor{
		highRisk:  highRisk,
		threshold: decimal.NewFromInt(cfg.EnhancedKYCThreshold),
	}
}

// Assess returns the risk tier for a profile:
//   - high:   high-risk country and no identity document
//   - medium: high-risk country with document, or other country without one
//   - low:    other country with document
func (a *Assessor) Assess(profile domain.SenderProfile) domain.RiskTier {
	_, risky := a.highRisk[strings.ToUpper(strings.TrimSpace(profile.Country))]
	documented := profile.HasIdentityDocument()

	switch {
	case risky && !documented:
		return domain.RiskTierHigh
	case risky || !documented:
		return domain.RiskTierMedium
	default:
		return domain.RiskTierLow
	}
}

// RequiresEnhancedKYC reports whether the send amount crosses the threshold
// above which identity document fields become mandatory at intake. The check
// is independent of the tier.
func (a *Assessor) RequiresEnhancedKYC(sendAmount decimal.Decimal) bool {
	return sendAmount.GreaterThan(a.threshold)
}
