package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"afripay/internal/domain"
	"afripay/internal/partner"
	"afripay/pkg/validator"

	"github.com/shopspring/decimal"
)

// FinanceClient is the slice of the partner API the finance surface needs.
type FinanceClient interface {
	CashIn(ctx context.Context, req partner.CashInRequest) (*partner.CashInResult, error)
	GetBalance(ctx context.Context) ([]partner.Balance, error)
}

// FinanceHandler exposes settlement float operations: topping it up and
// reading the current positions.
type FinanceHandler struct {
	client    FinanceClient
	validator *validator.Validator
	logger    Logger
}

func NewFinanceHandler(client FinanceClient, val *validator.Validator, log Logger) *FinanceHandler {
	return &FinanceHandler{client: client, validator: val, logger: log}
}

type cashInRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required"`
	Currency      domain.Currency `json:"currency" validate:"required,len=3"`
	PhoneNumber   string          `json:"phone_number" validate:"required,intl_phone"`
	PaymentMethod string          `json:"payment_method" validate:"required"`
	Reference     string          `json:"reference,omitempty" validate:"omitempty,max=64"`
}

// CashIn credits the settlement float through the partner.
func (h *FinanceHandler) CashIn(w http.ResponseWriter, r *http.Request) {
	var req cashInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		h.respondValidationErrors(w, errs)
		return
	}

	if !req.Currency.Valid() {
		h.respondError(w, http.StatusBadRequest, "Unsupported currency")
		return
	}
	if req.Amount.Sign() <= 0 {
		h.respondError(w, http.StatusBadRequest, "Amount must be positive")
		return
	}

	result, err := h.client.CashIn(r.Context(), partner.CashInRequest{
		Amount:        req.Amount,
		Currency:      req.Currency,
		PhoneNumber:   req.PhoneNumber,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
	})
	if err != nil {
		h.logger.Error("Cash-in failed", map[string]interface{}{
			"currency": req.Currency,
			"error":    err.Error(),
		})
		h.respondError(w, http.StatusBadGateway, "Cash-in failed")
		return
	}

	h.logger.Info("Cash-in accepted", map[string]interface{}{
		"transaction_id": result.TransactionID,
		"currency":       req.Currency,
		"amount":         result.Amount.String(),
	})

	h.respondJSON(w, http.StatusOK, result)
}

// GetBalances returns the settlement account positions.
func (h *FinanceHandler) GetBalances(w http.ResponseWriter, r *http.Request) {
	balances, err := h.client.GetBalance(r.Context())
	if err != nil {
		h.logger.Error("Failed to fetch balances", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusBadGateway, "Failed to fetch balances")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{"balances": balances})
}

func (h *FinanceHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *FinanceHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *FinanceHandler) respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}
