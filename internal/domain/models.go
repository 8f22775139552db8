// Package domain holds the shared types of the remittance pipeline.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency represents ISO 4217 currency codes supported by the widget.
type Currency string

const (
	EUR Currency = "EUR" // Euro
	XAF Currency = "XAF" // Central African CFA Franc
	XOF Currency = "XOF" // West African CFA Franc
	NGN Currency = "NGN" // Nigerian Naira
	GHS Currency = "GHS" // Ghanaian Cedi
	USD Currency = "USD" // US Dollar
)

// SupportedCurrencies is the fixed set accepted at every boundary.
var SupportedCurrencies = []Currency{EUR, XAF, XOF, NGN, GHS, USD}

// Valid reports whether c belongs to the supported set.
func (c Currency) Valid() bool {
	for _, s := range SupportedCurrencies {
		if c == s {
			return true
		}
	}
	return false
}

// AmountPrecision is the number of decimal places all monetary amounts are
// rounded to before comparison or display.
const AmountPrecision = 2

// Quote is an immutable snapshot of a proposed conversion. The fee is deducted
// from the send amount before conversion, never added on top.
type Quote struct {
	SendAmount      decimal.Decimal `json:"send_amount" db:"send_amount"`
	SendCurrency    Currency        `json:"send_currency" db:"send_currency"`
	ReceiveAmount   decimal.Decimal `json:"receive_amount" db:"receive_amount"`
	ReceiveCurrency Currency        `json:"receive_currency" db:"receive_currency"`
	FeeAmount       decimal.Decimal `json:"fee_amount" db:"fee_amount"`
	NetAmount       decimal.Decimal `json:"net_amount" db:"net_amount"`
	Rate            decimal.Decimal `json:"rate" db:"rate"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// SenderProfile captures the sender's identity data. IDType and IDNumber are
// required only when the transaction needs enhanced verification.
type SenderProfile struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone" validate:"required,intl_phone"`
	Country  string `json:"country" validate:"required,len=2,alpha"`
	IDType   string `json:"id_type,omitempty" validate:"omitempty,oneof=passport idCard driverLicense"`
	IDNumber string `json:"id_number,omitempty" validate:"omitempty,min=4,max=32"`
}

// HasIdentityDocument reports whether both identity fields are present.
func (p SenderProfile) HasIdentityDocument() bool {
	return p.IDType != "" && p.IDNumber != ""
}

// ReceiverProfile is immutable once captured.
type ReceiverProfile struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,intl_phone"`
}

// PaymentMethodType discriminates the payment variants.
type PaymentMethodType string

const (
	PaymentMethodCard        PaymentMethodType = "card"
	PaymentMethodMobileMoney PaymentMethodType = "mobile_money"
)

// MobileMoneyProvider enumerates supported mobile money operators.
type MobileMoneyProvider string

const (
	ProviderOrange MobileMoneyProvider = "orange"
	ProviderMTN    MobileMoneyProvider = "mtn"
)

// CardDetails carries the card variant fields.
type CardDetails struct {
	CardNumber string `json:"card_number"`
	ExpiryDate string `json:"expiry_date"`
	CVV        string `json:"cvv"`
}

// MobileMoneyDetails carries the mobile money variant fields.
type MobileMoneyDetails struct {
	Provider    MobileMoneyProvider `json:"provider"`
	PhoneNumber string              `json:"phone_number"`
}

// PaymentMethod is a tagged union: exactly one variant is populated, selected
// by Type. Validate rejects anything else.
type PaymentMethod struct {
	Type        PaymentMethodType   `json:"type"`
	Card        *CardDetails        `json:"card,omitempty"`
	MobileMoney *MobileMoneyDetails `json:"mobile_money,omitempty"`
}

// Validate enforces the shape of the selected variant.
func (m PaymentMethod) Validate() error {
	switch m.Type {
	case PaymentMethodCard:
		if m.Card == nil || m.MobileMoney != nil {
			return errors.New("card payment requires exactly the card variant")
		}
		if m.Card.CardNumber == "" || m.Card.ExpiryDate == "" || m.Card.CVV == "" {
			return errors.New("card payment requires number, expiry and cvv")
		}
	case PaymentMethodMobileMoney:
		if m.MobileMoney == nil || m.Card != nil {
			return errors.New("mobile money payment requires exactly the mobile money variant")
		}
		if m.MobileMoney.Provider != ProviderOrange && m.MobileMoney.Provider != ProviderMTN {
			return errors.New("unsupported mobile money provider")
		}
		if m.MobileMoney.PhoneNumber == "" {
			return errors.New("mobile money payment requires a phone number")
		}
	default:
		return errors.New("unknown payment method type")
	}
	return nil
}

// TransactionStatus is the lifecycle state of a remittance transaction.
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusProcessing TransactionStatus = "processing"
	TransactionStatusCompleted  TransactionStatus = "completed"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// Terminal reports whether s is a final state.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Valid reports whether s is a known lifecycle state.
func (s TransactionStatus) Valid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusProcessing, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// Transaction is the ledger-owned record of one remittance. Once terminal it is
// immutable except for audit metadata.
type Transaction struct {
	ID          uuid.UUID         `json:"id" db:"id"`
	Reference   string            `json:"reference" db:"reference"`
	Status      TransactionStatus `json:"status" db:"status"`
	StatusReason string           `json:"status_reason,omitempty" db:"status_reason"`
	Quote       Quote             `json:"quote"`
	Sender      SenderProfile     `json:"sender"`
	Receiver    ReceiverProfile   `json:"receiver"`
	Payment     PaymentMethod     `json:"payment"`
	Metadata    Metadata          `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time         `json:"updated_at" db:"updated_at"`
	CompletedAt *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
}

// Clone returns a deep-enough copy so callers cannot mutate ledger state.
func (t *Transaction) Clone() *Transaction {
	cp := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		cp.CompletedAt = &at
	}
	if t.Metadata != nil {
		cp.Metadata = make(Metadata, len(t.Metadata))
		for k, v := range t.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

// Metadata is a JSON-compatible map
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *Metadata) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, &m)
}
