package handler

import (
	"encoding/json"
	"net/http"

	"afripay/internal/domain"
	"afripay/internal/kyc"
	"afripay/pkg/errors"
	"afripay/pkg/validator"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

type KYCHandler struct {
	service   *kyc.Service
	validator *validator.Validator
	logger    Logger
}

func NewKYCHandler(service *kyc.Service, val *validator.Validator, log Logger) *KYCHandler {
	return &KYCHandler{service: service, validator: val, logger: log}
}

type submitKYCRequest struct {
	Sender     domain.SenderProfile `json:"sender" validate:"required"`
	SendAmount decimal.Decimal      `json:"send_amount" validate:"required"`
}

// SubmitVerification starts an identity verification for a sender.
func (h *KYCHandler) SubmitVerification(w http.ResponseWriter, r *http.Request) {
	var req submitKYCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if errs := h.validator.ValidateStructured(&req); errs != nil {
		h.respondValidationErrors(w, errs)
		return
	}

	id, err := h.service.Submit(r.Context(), req.Sender, req.SendAmount)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"verification_id": id,
		"status":          domain.VerificationStatusPending,
	})
}

// GetVerification returns the current state of a verification.
func (h *KYCHandler) GetVerification(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid verification ID")
		return
	}

	verification, err := h.service.GetStatus(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrVerificationNotFound) {
			h.respondError(w, http.StatusNotFound, "Verification not found")
			return
		}
		h.logger.Error("Failed to fetch verification", map[string]interface{}{"error": err.Error()})
		h.respondError(w, http.StatusInternalServerError, "Failed to fetch verification")
		return
	}

	h.respondJSON(w, http.StatusOK, verification)
}

func (h *KYCHandler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func (h *KYCHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

func (h *KYCHandler) respondValidationErrors(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{"errors": errs})
}
