// Package ledger is the authoritative registry of transaction records. It
// owns creation, status transitions, and lookup; nothing else mutates a
// transaction.
package ledger

import (
	"context"
	"fmt"
	"time"

	"afripay/internal/domain"
	"afripay/pkg/errors"
	"afripay/pkg/logger"

	"github.com/google/uuid"
)

// Repository persists transactions. Mutate must serialize concurrent calls
// for the same id: two in-flight mutations may never race past each other.
type Repository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	FindByReference(ctx context.Context, ref string) (*domain.Transaction, error)
	FindByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.Transaction, error)
	CountByStatus(ctx context.Context, status domain.TransactionStatus) (int, error)
	Mutate(ctx context.Context, id uuid.UUID, fn func(tx *domain.Transaction) error) error
}

type Service struct {
	repo   Repository
	logger logger.Logger
}

func NewService(repo Repository, log logger.Logger) *Service {
	return &Service{repo: repo, logger: log}
}

// legalTransitions is the whole state machine. A failure before processing
// (kyc rejection, balance shortfall) moves pending straight to failed.
var legalTransitions = map[domain.TransactionStatus][]domain.TransactionStatus{
	domain.TransactionStatusPending:    {domain.TransactionStatusProcessing, domain.TransactionStatusFailed},
	domain.TransactionStatusProcessing: {domain.TransactionStatusCompleted, domain.TransactionStatusFailed},
}

func transitionAllowed(from, to domain.TransactionStatus) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Create registers a new pending transaction seeded from a quote.
func (s *Service) Create(ctx context.Context, quote domain.Quote, sender domain.SenderProfile, receiver domain.ReceiverProfile, payment domain.PaymentMethod) (*domain.Transaction, error) {
	now := time.Now()
	tx := &domain.Transaction{
		ID:        uuid.New(),
		Reference: generateReference(),
		Status:    domain.TransactionStatusPending,
		Quote:     quote,
		Sender:    sender,
		Receiver:  receiver,
		Payment:   payment,
		Metadata:  make(domain.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, tx); err != nil {
		return nil, errors.Wrap(err, "failed to create transaction")
	}

	s.logger.Info("Transaction created", map[string]interface{}{
		"transaction_id": tx.ID,
		"reference":      tx.Reference,
		"send_amount":    quote.SendAmount.String(),
		"send_currency":  quote.SendCurrency,
	})

	return tx.Clone(), nil
}

// Get returns the current transaction record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.repo.FindByID(ctx, id)
}

// GetByReference resolves a transaction by its human-facing reference.
func (s *Service) GetByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	return s.repo.FindByReference(ctx, ref)
}

// ListByStatus returns a page of transactions in the given status, oldest
// first, along with the total count for that status.
func (s *Service) ListByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.Transaction, int, error) {
	txs, err := s.repo.FindByStatus(ctx, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.CountByStatus(ctx, status)
	if err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

// Advance moves a transaction to newStatus, enforcing the legal transitions
// only. Terminal states are immutable; anything else is ErrIllegalTransition.
func (s *Service) Advance(ctx context.Context, id uuid.UUID, newStatus domain.TransactionStatus, reason string) error {
	err := s.repo.Mutate(ctx, id, func(tx *domain.Transaction) error {
		if !transitionAllowed(tx.Status, newStatus) {
			return errors.Wrap(errors.ErrIllegalTransition,
				fmt.Sprintf("%s -> %s", tx.Status, newStatus))
		}

		tx.Status = newStatus
		tx.StatusReason = reason
		tx.UpdatedAt = time.Now()
		if newStatus.Terminal() {
			at := tx.UpdatedAt
			tx.CompletedAt = &at
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Transaction advanced", map[string]interface{}{
		"transaction_id": id,
		"status":         newStatus,
		"reason":         reason,
	})
	return nil
}

func generateReference() string {
	return fmt.Sprintf("RMT-%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}
