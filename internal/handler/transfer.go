package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"afripay/internal/domain"
	"afripay/internal/middleware"
	"afripay/internal/transfer"
	"afripay/pkg/errors"
	"afripay/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type TransferHandler struct {
	service   *transfer.Service
	validator *validator.Validator
	logger    Logger
}

func NewTransferHandler(service *transfer.Service, val *validator.Validator, log Logger) *TransferHandler {
	return &TransferHandler{service: service, validator: val, logger: log}
}

// SubmitTransfer runs the full remittance pipeline synchronously. A pipeline
// failure still returns the final transaction record so the caller can see
// which step ended it.
func (h *TransferHandler) SubmitTransfer(w http.ResponseWriter, r *http.Request) {
	var req transfer.SubmissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		h.respondValidationErrors(w, errs)
		return
	}

	fields := map[string]interface{}{
		"send_currency":    req.SendCurrency,
		"receive_currency": req.ReceiveCurrency,
	}
	if userID, ok := middleware.UserIDFromContext(r.Context()); ok {
		fields["user_id"] = userID.String()
	}
	if email, ok := middleware.EmailFromContext(r.Context()); ok {
		fields["email"] = email
	}
	h.logger.Info("Transfer submission received", fields)

	tx, err := h.service.Submit(r.Context(), req)
	if err != nil {
		status := h.statusFor(err)
		if tx != nil {
			h.respondJSON(w, status, map[string]interface{}{
				"error":       err.Error(),
				"transaction": tx,
			})
			return
		}
		h.respondError(w, status, err.Error())
		return
	}

	h.respondJSON(w, http.StatusCreated, tx)
}

// GetTransfer returns the current transaction record.
func (h *TransferHandler) GetTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrTransactionNotFound) {
			h.respondError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.logger.Error("Failed to fetch transaction", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch transaction")
		return
	}

	h.respondJSON(w, http.StatusOK, tx)
}

// GetTransferByReference resolves a transaction by its human-facing reference,
// the identifier printed on customer receipts.
func (h *TransferHandler) GetTransferByReference(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["reference"]
	if ref == "" {
		h.respondError(w, http.StatusBadRequest, "Missing transaction reference")
		return
	}

	tx, err := h.service.GetByReference(r.Context(), ref)
	if err != nil {
		if errors.Is(err, errors.ErrTransactionNotFound) {
			h.respondError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.logger.Error("Failed to fetch transaction by reference", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch transaction")
		return
	}

	h.respondJSON(w, http.StatusOK, tx)
}

// ListTransfers returns a page of transactions in the requested status,
// oldest first.
func (h *TransferHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	status := domain.TransactionStatus(r.URL.Query().Get("status"))
	if !status.Valid() {
		h.respondError(w, http.StatusBadRequest, "Invalid or missing status filter")
		return
	}

	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	txs, total, err := h.service.List(r.Context(), status, limit, offset)
	if err != nil {
		h.logger.Error("Failed to list transactions", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to list transactions")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": txs,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// ConfirmTransfer reports the outcome of a submitted transfer.
func (h *TransferHandler) ConfirmTransfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid transaction ID")
		return
	}

	tx, err := h.service.Confirm(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrTransactionNotFound) {
			h.respondError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.logger.Error("Failed to confirm transaction", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to confirm transaction")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"transaction": tx,
		"final":       tx.Status.Terminal(),
	})
}

func (h *TransferHandler) statusFor(err error) int {
	switch {
	case errors.Is(err, errors.ErrInvalidCurrency),
		errors.Is(err, errors.ErrAmountOutOfRange),
		errors.Is(err, errors.ErrIncompletePaymentDetails),
		errors.Is(err, errors.ErrIdentityRequired):
		return http.StatusBadRequest
	case errors.Is(err, errors.ErrKYCRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, errors.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, errors.ErrBalanceUnavailable),
		errors.Is(err, errors.ErrSettlementFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *TransferHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *TransferHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *TransferHandler) respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}
