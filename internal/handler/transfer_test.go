package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"afripay/internal/domain"
	"afripay/internal/ledger"
	"afripay/internal/transfer"
	"afripay/pkg/logger"
	"afripay/pkg/validator"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTransferFixture wires a handler onto a real in-memory ledger. Lookup
// endpoints never touch the pipeline dependencies, so those stay nil.
func newTransferFixture(t *testing.T) (*ledger.Service, *mux.Router) {
	t.Helper()
	ledgerService := ledger.NewService(ledger.NewMemoryRepository(), logger.NewNop())
	service := transfer.NewService(nil, ledgerService, nil, nil, nil, logger.NewNop())
	h := NewTransferHandler(service, validator.New(), logger.NewNop())

	r := mux.NewRouter()
	transfers := r.PathPrefix("/api/v1/transfers").Subrouter()
	transfers.HandleFunc("", h.ListTransfers).Methods("GET")
	transfers.HandleFunc("/reference/{reference}", h.GetTransferByReference).Methods("GET")
	transfers.HandleFunc("/{id}", h.GetTransfer).Methods("GET")
	return ledgerService, r
}

func seedTransaction(t *testing.T, ledgerService *ledger.Service) *domain.Transaction {
	t.Helper()
	tx, err := ledgerService.Create(context.Background(), domain.Quote{
		SendAmount:      decimal.NewFromInt(100),
		SendCurrency:    domain.EUR,
		ReceiveAmount:   decimal.RequireFromString("64447.78"),
		ReceiveCurrency: domain.XAF,
		FeeAmount:       decimal.RequireFromString("1.75"),
		NetAmount:       decimal.RequireFromString("98.25"),
		Rate:            decimal.RequireFromString("655.957"),
	},
		domain.SenderProfile{Name: "Alice", Email: "alice@example.com", Phone: "+33612345678", Country: "FR"},
		domain.ReceiverProfile{Name: "Jean", Email: "jean@example.com", Phone: "+237691112233"},
		domain.PaymentMethod{
			Type: domain.PaymentMethodMobileMoney,
			MobileMoney: &domain.MobileMoneyDetails{
				Provider:    domain.ProviderOrange,
				PhoneNumber: "+237691112233",
			},
		})
	require.NoError(t, err)
	return tx
}

func TestGetTransferByReference_OK(t *testing.T) {
	ledgerService, router := newTransferFixture(t)
	tx := seedTransaction(t, ledgerService)

	req := httptest.NewRequest("GET", "/api/v1/transfers/reference/"+tx.Reference, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		ID        string `json:"id"`
		Reference string `json:"reference"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, tx.ID.String(), resp.ID)
	assert.Equal(t, tx.Reference, resp.Reference)
}

func TestGetTransferByReference_NotFound(t *testing.T) {
	_, router := newTransferFixture(t)

	req := httptest.NewRequest("GET", "/api/v1/transfers/reference/RMT-0-deadbeef", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTransfers_FiltersByStatus(t *testing.T) {
	ledgerService, router := newTransferFixture(t)
	ctx := context.Background()

	first := seedTransaction(t, ledgerService)
	seedTransaction(t, ledgerService)
	require.NoError(t, ledgerService.Advance(ctx, first.ID, domain.TransactionStatusFailed, "kyc_rejected"))

	req := httptest.NewRequest("GET", "/api/v1/transfers?status=pending&limit=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Transactions []json.RawMessage `json:"transactions"`
		Total        int               `json:"total"`
		Limit        int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Total)
	assert.Len(t, resp.Transactions, 1)
	assert.Equal(t, 10, resp.Limit)
}

func TestListTransfers_UnknownStatus(t *testing.T) {
	_, router := newTransferFixture(t)

	req := httptest.NewRequest("GET", "/api/v1/transfers?status=reversed", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
