// Package transfer drives a remittance end to end: quote, ledger record,
// identity verification, liquidity check, then settlement through the payout
// partner. Each step that fails leaves the transaction in an explicit failed
// state with a reason.
package transfer

import (
	"context"

	"afripay/internal/domain"
	"afripay/internal/partner"
	"afripay/pkg/errors"
	"afripay/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quoter prices a conversion.
type Quoter interface {
	Quote(sendAmount decimal.Decimal, from, to domain.Currency) (*domain.Quote, error)
}

// Ledger owns transaction records and their status transitions.
type Ledger interface {
	Create(ctx context.Context, quote domain.Quote, sender domain.SenderProfile, receiver domain.ReceiverProfile, payment domain.PaymentMethod) (*domain.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	GetByReference(ctx context.Context, ref string) (*domain.Transaction, error)
	ListByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.Transaction, int, error)
	Advance(ctx context.Context, id uuid.UUID, status domain.TransactionStatus, reason string) error
}

// Verifier runs identity verification for a sender.
type Verifier interface {
	Submit(ctx context.Context, profile domain.SenderProfile, sendAmount decimal.Decimal) (uuid.UUID, error)
	Await(ctx context.Context, id uuid.UUID) (*domain.KYCVerification, error)
}

// Guard checks the partner float before settlement.
type Guard interface {
	EnsureSufficient(ctx context.Context, required decimal.Decimal, currency domain.Currency) error
}

// Settler executes the payout leg.
type Settler interface {
	Withdraw(ctx context.Context, req partner.WithdrawRequest) (*partner.WithdrawResult, error)
}

// SubmissionRequest is everything needed to initiate one remittance.
type SubmissionRequest struct {
	SendAmount      decimal.Decimal        `json:"send_amount" validate:"required"`
	SendCurrency    domain.Currency        `json:"send_currency" validate:"required"`
	ReceiveCurrency domain.Currency        `json:"receive_currency" validate:"required"`
	Sender          domain.SenderProfile   `json:"sender" validate:"required"`
	Receiver        domain.ReceiverProfile `json:"receiver" validate:"required"`
	Payment         domain.PaymentMethod   `json:"payment" validate:"required"`
}

type Service struct {
	quoter  Quoter
	ledger  Ledger
	kyc     Verifier
	balance Guard
	settler Settler
	logger  logger.Logger
}

func NewService(quoter Quoter, ledger Ledger, kyc Verifier, balance Guard, settler Settler, log logger.Logger) *Service {
	return &Service{
		quoter:  quoter,
		ledger:  ledger,
		kyc:     kyc,
		balance: balance,
		settler: settler,
		logger:  log,
	}
}

// destinationCountry maps the payout currency to the partner's corridor code.
var destinationCountry = map[domain.Currency]string{
	domain.XAF: "CM",
	domain.XOF: "SN",
	domain.NGN: "NG",
	domain.GHS: "GH",
	domain.EUR: "FR",
	domain.USD: "US",
}

// Submit runs the full pipeline. The returned transaction is terminal
// (completed or failed) unless an early validation error prevented the ledger
// record from being created at all.
func (s *Service) Submit(ctx context.Context, req SubmissionRequest) (*domain.Transaction, error) {
	if err := req.Payment.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrIncompletePaymentDetails, err.Error())
	}

	quote, err := s.quoter.Quote(req.SendAmount, req.SendCurrency, req.ReceiveCurrency)
	if err != nil {
		return nil, err
	}

	tx, err := s.ledger.Create(ctx, *quote, req.Sender, req.Receiver, req.Payment)
	if err != nil {
		return nil, err
	}

	verificationID, err := s.kyc.Submit(ctx, req.Sender, quote.SendAmount)
	if err != nil {
		return s.fail(ctx, tx.ID, "kyc_failed", err)
	}

	verification, err := s.kyc.Await(ctx, verificationID)
	if err != nil {
		return s.fail(ctx, tx.ID, "kyc_timeout", err)
	}
	if verification.Status == domain.VerificationStatusRejected {
		return s.fail(ctx, tx.ID, "kyc_rejected", errors.ErrKYCRejected)
	}

	if err := s.balance.EnsureSufficient(ctx, quote.NetAmount, quote.SendCurrency); err != nil {
		reason := "balance_unavailable"
		if errors.Is(err, errors.ErrInsufficientBalance) {
			reason = "insufficient_balance"
		}
		return s.fail(ctx, tx.ID, reason, err)
	}

	if err := s.ledger.Advance(ctx, tx.ID, domain.TransactionStatusProcessing, ""); err != nil {
		return s.fail(ctx, tx.ID, "ledger_error", err)
	}

	result, err := s.settler.Withdraw(ctx, partner.WithdrawRequest{
		Amount:             quote.ReceiveAmount,
		Currency:           quote.ReceiveCurrency,
		ReceiverPhone:      req.Receiver.Phone,
		ReceiverName:       req.Receiver.Name,
		ReceiverEmail:      req.Receiver.Email,
		DestinationCountry: destinationCountry[quote.ReceiveCurrency],
	})
	if err != nil {
		return s.fail(ctx, tx.ID, "settlement_failed", errors.Wrap(errors.ErrSettlementFailed, err.Error()))
	}
	if !result.Success {
		return s.fail(ctx, tx.ID, "settlement_failed", errors.Wrap(errors.ErrSettlementFailed, result.Message))
	}

	if err := s.ledger.Advance(ctx, tx.ID, domain.TransactionStatusCompleted, ""); err != nil {
		// The payout already went through; marking the record failed now
		// would contradict the settled funds. Flag it loudly instead.
		s.logger.Error("Transaction stranded in processing after settlement", map[string]interface{}{
			"transaction_id": tx.ID,
			"reference":      tx.Reference,
			"payout_id":      result.ID,
			"error":          err.Error(),
		})
		record, getErr := s.ledger.Get(ctx, tx.ID)
		if getErr != nil {
			return nil, err
		}
		return record, err
	}

	s.logger.Info("Transfer settled", map[string]interface{}{
		"transaction_id": tx.ID,
		"reference":      tx.Reference,
		"payout_id":      result.ID,
	})

	return s.ledger.Get(ctx, tx.ID)
}

// Get returns the current transaction record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.ledger.Get(ctx, id)
}

// GetByReference resolves a transfer by its human-facing reference.
func (s *Service) GetByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	return s.ledger.GetByReference(ctx, ref)
}

// List returns a page of transfers in the given status plus the total count.
func (s *Service) List(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.Transaction, int, error) {
	return s.ledger.ListByStatus(ctx, status, limit, offset)
}

// Confirm reports the final outcome of a transfer. It does not mutate; a
// transfer still in flight is returned as is.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.ledger.Get(ctx, id)
}

// fail marks the transaction failed with reason and returns the pipeline
// error plus the final record. The record is returned even on failure so
// handlers can show the caller what state the transfer ended in.
func (s *Service) fail(ctx context.Context, id uuid.UUID, reason string, cause error) (*domain.Transaction, error) {
	if err := s.ledger.Advance(ctx, id, domain.TransactionStatusFailed, reason); err != nil {
		s.logger.Error("Failed to mark transaction failed", map[string]interface{}{
			"transaction_id": id,
			"reason":         reason,
			"error":          err.Error(),
		})
	}

	s.logger.Warn("Transfer failed", map[string]interface{}{
		"transaction_id": id,
		"reason":         reason,
		"error":          cause.Error(),
	})

	tx, getErr := s.ledger.Get(ctx, id)
	if getErr != nil {
		return nil, cause
	}
	return tx, cause
}
