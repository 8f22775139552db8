// Package kyc implements the verification workflow gating every transaction.
//
// A submission is created pending, then resolved asynchronously after a
// configured delay. Resolution happens exactly once: high-tier profiles are
// rejected, everything else is approved. Terminal records are never revisited.
package kyc

import (
	"context"
	"time"

	"afripay/internal/domain"
	"afripay/internal/risk"
	"afripay/pkg/config"
	"afripay/pkg/errors"
	"afripay/pkg/logger"
	"afripay/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store persists verification records. Implementations must serialize writes
// per record id.
type Store interface {
	Create(ctx context.Context, v *domain.KYCVerification) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error)
	// Resolve moves a pending record to a terminal status. It reports false
	// when the record was already terminal, in which case nothing changes.
	Resolve(ctx context.Context, id uuid.UUID, status domain.VerificationStatus, at time.Time) (bool, error)
}

type Service struct {
	store     Store
	assessor  *risk.Assessor
	validator *validator.Validator
	logger    logger.Logger

	resolutionDelay time.Duration
	pollInterval    time.Duration
	awaitTimeout    time.Duration
}

// NewService constructs the verifier. The resolution delay is policy, not
// user-controllable.
func NewService(store Store, assessor *risk.Assessor, val *validator.Validator, cfg config.KYCConfig, log logger.Logger) *Service {
	return &Service{
		store:           store,
		assessor:        assessor,
		validator:       val,
		logger:          log,
		resolutionDelay: cfg.ResolutionDelay,
		pollInterval:    cfg.PollInterval,
		awaitTimeout:    cfg.AwaitTimeout,
	}
}

// Submit validates the profile, records a pending verification, and schedules
// its resolution. sendAmount decides whether identity document fields are
// mandatory before the submission is accepted at all.
func (s *Service) Submit(ctx context.Context, profile domain.SenderProfile, sendAmount decimal.Decimal) (uuid.UUID, error) {
	if err := s.validator.Validate(&profile); err != nil {
		return uuid.Nil, err
	}

	if s.assessor.RequiresEnhancedKYC(sendAmount) && !profile.HasIdentityDocument() {
		return uuid.Nil, errors.ErrIdentityRequired
	}

	record := &domain.KYCVerification{
		ID:          uuid.New(),
		Status:      domain.VerificationStatusPending,
		Profile:     profile,
		RiskTier:    s.assessor.Assess(profile),
		SubmittedAt: time.Now(),
	}

	if err := s.store.Create(ctx, record); err != nil {
		return uuid.Nil, errors.Wrap(err, "failed to store verification")
	}

	s.logger.Info("KYC verification submitted", map[string]interface{}{
		"verification_id": record.ID,
		"risk_tier":       record.RiskTier,
		"country":         profile.Country,
	})

	s.scheduleResolution(record.ID, record.RiskTier)

	return record.ID, nil
}

// GetStatus returns the verification record for an id.
func (s *Service) GetStatus(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error) {
	return s.store.FindByID(ctx, id)
}

// Await polls until the verification reaches a terminal status, the context
// expires, or the configured await timeout elapses.
func (s *Service) Await(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error) {
	if s.awaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.awaitTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		record, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if record.Status.Terminal() {
			return record, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// scheduleResolution arms the one-shot assessment timer. Once scheduled it is
// not cancelable.
func (s *Service) scheduleResolution(id uuid.UUID, tier domain.RiskTier) {
	outcome := domain.VerificationStatusApproved
	if tier == domain.RiskTierHigh {
		outcome = domain.VerificationStatusRejected
	}

	time.AfterFunc(s.resolutionDelay, func() {
		applied, err := s.store.Resolve(context.Background(), id, outcome, time.Now())
		if err != nil {
			s.logger.Error("Failed to resolve verification", map[string]interface{}{
				"verification_id": id,
				"error":           err.Error(),
			})
			return
		}
		if !applied {
			return
		}

		s.logger.Info("KYC verification resolved", map[string]interface{}{
			"verification_id": id,
			"status":          outcome,
		})
	})
}
