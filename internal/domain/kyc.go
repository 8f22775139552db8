package domain

import (
	"time"

	"github.com/google/uuid"
)

// RiskTier is the coarse fraud/compliance classification of a sender profile.
// It is derived, never stored apart from the profile that produced it.
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// VerificationStatus is the lifecycle state of a KYC verification record.
type VerificationStatus string

const (
	VerificationStatusPending  VerificationStatus = "pending"
	VerificationStatusApproved VerificationStatus = "approved"
	VerificationStatusRejected VerificationStatus = "rejected"
)

// Terminal reports whether s is a final state.
func (s VerificationStatus) Terminal() bool {
	return s == VerificationStatusApproved || s == VerificationStatusRejected
}

// KYCVerification is owned by the KYC verifier. It is created pending and
// transitions exactly once to approved or rejected.
type KYCVerification struct {
	ID          uuid.UUID          `json:"id"`
	Status      VerificationStatus `json:"status"`
	Profile     SenderProfile      `json:"profile"`
	RiskTier    RiskTier           `json:"risk_tier"`
	SubmittedAt time.Time          `json:"submitted_at"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}
