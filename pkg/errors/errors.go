// Package errors provides common, reusable error values and helpers.
package errors

import (
	"errors"
	"fmt"
)

// Quote errors
var (
	ErrInvalidCurrency  = errors.New("currency not supported or no conversion rate defined")
	ErrAmountOutOfRange = errors.New("send amount outside the allowed range for this currency")
)

// KYC errors
var (
	ErrVerificationNotFound = errors.New("kyc verification not found")
	ErrKYCRejected          = errors.New("kyc verification rejected")
	ErrIdentityRequired     = errors.New("identity document required for this transaction")
)

// Balance / settlement errors
var (
	ErrInsufficientBalance = errors.New("insufficient settlement account balance")
	ErrBalanceUnavailable  = errors.New("settlement account balance unavailable")
	ErrSettlementFailed    = errors.New("settlement execution failed")
	ErrPartnerTokenMissing = errors.New("partner api token missing")
)

// Transport errors
var (
	ErrDuplicateRequest = errors.New("duplicate request")
)

// Transaction errors
var (
	ErrTransactionNotFound      = errors.New("transaction not found")
	ErrTransactionAlreadyExists = errors.New("transaction already exists")
	ErrIllegalTransition        = errors.New("illegal transaction status transition")
	ErrIncompletePaymentDetails = errors.New("payment method details incomplete")
)

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// New returns a new error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
