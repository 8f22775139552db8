package handler

import (
	"encoding/json"
	"net/http"

	"afripay/internal/domain"
	"afripay/internal/rates"
	"afripay/pkg/errors"
	"afripay/pkg/validator"

	"github.com/shopspring/decimal"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type QuoteHandler struct {
	engine    *rates.Engine
	validator *validator.Validator
	logger    Logger
}

func NewQuoteHandler(engine *rates.Engine, val *validator.Validator, log Logger) *QuoteHandler {
	return &QuoteHandler{engine: engine, validator: val, logger: log}
}

type quoteRequest struct {
	SendAmount      decimal.Decimal `json:"send_amount" validate:"required"`
	SendCurrency    domain.Currency `json:"send_currency" validate:"required,len=3"`
	ReceiveCurrency domain.Currency `json:"receive_currency" validate:"required,len=3"`
}

// CreateQuote prices a conversion without creating any record.
func (h *QuoteHandler) CreateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		h.respondValidationErrors(w, errs)
		return
	}

	quote, err := h.engine.Quote(req.SendAmount, req.SendCurrency, req.ReceiveCurrency)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrInvalidCurrency):
			h.respondError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, errors.ErrAmountOutOfRange):
			h.respondError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("Quote failed", map[string]interface{}{"error": err.Error()})
			h.respondError(w, http.StatusInternalServerError, "Failed to create quote")
		}
		return
	}

	h.respondJSON(w, http.StatusOK, quote)
}

func (h *QuoteHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *QuoteHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *QuoteHandler) respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}
