// Package balance gates transactions on the settlement account balance.
package balance

import (
	"context"

	"afripay/internal/domain"
	"afripay/internal/partner"
	"afripay/pkg/errors"
	"afripay/pkg/logger"

	"github.com/shopspring/decimal"
)

// Source provides the current settlement account positions.
type Source interface {
	GetBalance(ctx context.Context) ([]partner.Balance, error)
}

// Guard performs a read-through sufficiency check. Results are never cached:
// the balance can change between checks, so the guard runs immediately before
// committing a transaction to settlement.
type Guard struct {
	source Source
	logger logger.Logger
}

func NewGuard(source Source, log logger.Logger) *Guard {
	return &Guard{source: source, logger: log}
}

// EnsureSufficient fails closed: any upstream error is reported as
// ErrBalanceUnavailable, never treated as sufficient. A missing position for
// the currency counts as a zero balance.
func (g *Guard) EnsureSufficient(ctx context.Context, required decimal.Decimal, currency domain.Currency) error {
	balances, err := g.source.GetBalance(ctx)
	if err != nil {
		g.logger.Error("Balance check failed", map[string]interface{}{
			"currency": currency,
			"error":    err.Error(),
		})
		return errors.Wrap(errors.ErrBalanceUnavailable, "balance check failed")
	}

	available := decimal.Zero
	for _, b := range balances {
		if b.Currency == currency {
			available = b.Amount
			break
		}
	}

	if available.LessThan(required) {
		g.logger.Warn("Insufficient settlement balance", map[string]interface{}{
			"currency":  currency,
			"required":  required.String(),
			"available": available.String(),
		})
		return errors.ErrInsufficientBalance
	}

	return nil
}
