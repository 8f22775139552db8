package ledger

import (
	"context"
	"sync"
	"testing"

	"afripay/internal/domain"
	"afripay/pkg/errors"
	"afripay/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testQuote() domain.Quote {
	return domain.Quote{
		SendAmount:      decimal.NewFromInt(100),
		SendCurrency:    domain.EUR,
		ReceiveAmount:   decimal.RequireFromString("64447.78"),
		ReceiveCurrency: domain.XAF,
		FeeAmount:       decimal.RequireFromString("1.75"),
		NetAmount:       decimal.RequireFromString("98.25"),
		Rate:            decimal.RequireFromString("655.957"),
	}
}

func testPayment() domain.PaymentMethod {
	return domain.PaymentMethod{
		Type: domain.PaymentMethodMobileMoney,
		MobileMoney: &domain.MobileMoneyDetails{
			Provider:    domain.ProviderOrange,
			PhoneNumber: "+237691112233",
		},
	}
}

func newTestService() *Service {
	return NewService(NewMemoryRepository(), logger.NewNop())
}

func createTx(t *testing.T, s *Service) *domain.Transaction {
	t.Helper()
	tx, err := s.Create(context.Background(), testQuote(),
		domain.SenderProfile{Name: "Alice", Email: "alice@example.com", Phone: "+33612345678", Country: "FR"},
		domain.ReceiverProfile{Name: "Jean", Email: "jean@example.com", Phone: "+237691112233"},
		testPayment())
	require.NoError(t, err)
	return tx
}

func TestCreate_StartsPendingWithReference(t *testing.T) {
	service := newTestService()
	tx := createTx(t, service)

	assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	assert.NotEqual(t, uuid.Nil, tx.ID)
	assert.Regexp(t, `^RMT-\d+-[0-9a-f]{8}$`, tx.Reference)
	assert.Nil(t, tx.CompletedAt)
}

func TestCreate_UniqueIDsAndReferences(t *testing.T) {
	service := newTestService()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		tx := createTx(t, service)
		assert.False(t, seen[tx.Reference], "duplicate reference %s", tx.Reference)
		seen[tx.Reference] = true
	}
}

func TestGet_NotFound(t *testing.T) {
	service := newTestService()

	_, err := service.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrTransactionNotFound)
}

func TestAdvance_HappyPath(t *testing.T) {
	service := newTestService()
	ctx := context.Background()
	tx := createTx(t, service)

	require.NoError(t, service.Advance(ctx, tx.ID, domain.TransactionStatusProcessing, ""))
	require.NoError(t, service.Advance(ctx, tx.ID, domain.TransactionStatusCompleted, ""))

	got, err := service.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, got.Status)
	assert.NotNil(t, got.CompletedAt)
}

func TestAdvance_FailureBeforeProcessing(t *testing.T) {
	service := newTestService()
	ctx := context.Background()
	tx := createTx(t, service)

	require.NoError(t, service.Advance(ctx, tx.ID, domain.TransactionStatusFailed, "kyc_rejected"))

	got, err := service.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusFailed, got.Status)
	assert.Equal(t, "kyc_rejected", got.StatusReason)
}

func TestAdvance_IllegalTransitions(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	cases := []struct {
		name string
		path []domain.TransactionStatus
		bad  domain.TransactionStatus
	}{
		{"pending to completed directly", nil, domain.TransactionStatusCompleted},
		{"pending to pending", nil, domain.TransactionStatusPending},
		{"completed to failed", []domain.TransactionStatus{domain.TransactionStatusProcessing, domain.TransactionStatusCompleted}, domain.TransactionStatusFailed},
		{"completed to processing", []domain.TransactionStatus{domain.TransactionStatusProcessing, domain.TransactionStatusCompleted}, domain.TransactionStatusProcessing},
		{"failed to processing", []domain.TransactionStatus{domain.TransactionStatusFailed}, domain.TransactionStatusProcessing},
		{"processing to pending", []domain.TransactionStatus{domain.TransactionStatusProcessing}, domain.TransactionStatusPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := createTx(t, service)
			for _, step := range tc.path {
				require.NoError(t, service.Advance(ctx, tx.ID, step, ""))
			}

			err := service.Advance(ctx, tx.ID, tc.bad, "")
			assert.ErrorIs(t, err, errors.ErrIllegalTransition)
		})
	}
}

func TestGet_IdempotentAfterTerminal(t *testing.T) {
	service := newTestService()
	ctx := context.Background()
	tx := createTx(t, service)

	require.NoError(t, service.Advance(ctx, tx.ID, domain.TransactionStatusProcessing, ""))
	require.NoError(t, service.Advance(ctx, tx.ID, domain.TransactionStatusCompleted, ""))

	first, err := service.Get(ctx, tx.ID)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := service.Get(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	// Mutating a returned record must not leak back into the ledger
	first.StatusReason = "tampered"
	again, err := service.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Empty(t, again.StatusReason)
}

func TestAdvance_ConcurrentAdvancesAreSerialized(t *testing.T) {
	service := newTestService()
	ctx := context.Background()
	tx := createTx(t, service)

	// Many goroutines race to move pending -> processing; exactly one wins.
	var wg sync.WaitGroup
	successes := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := service.Advance(ctx, tx.ID, domain.TransactionStatusProcessing, ""); err == nil {
				successes <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(successes)

	count := 0
	for range successes {
		count++
	}
	assert.Equal(t, 1, count)

	got, err := service.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusProcessing, got.Status)
}

func TestGetByReference(t *testing.T) {
	service := newTestService()
	tx := createTx(t, service)

	found, err := service.GetByReference(context.Background(), tx.Reference)
	require.NoError(t, err)
	assert.Equal(t, tx.ID, found.ID)
	assert.Equal(t, tx.Reference, found.Reference)

	_, err = service.GetByReference(context.Background(), "RMT-0-deadbeef")
	assert.ErrorIs(t, err, errors.ErrTransactionNotFound)
}

func TestListByStatus_PagesOldestFirst(t *testing.T) {
	service := newTestService()
	ctx := context.Background()

	var created []*domain.Transaction
	for i := 0; i < 5; i++ {
		created = append(created, createTx(t, service))
	}
	// Two leave the pending pool
	require.NoError(t, service.Advance(ctx, created[1].ID, domain.TransactionStatusFailed, "kyc_rejected"))
	require.NoError(t, service.Advance(ctx, created[3].ID, domain.TransactionStatusProcessing, ""))

	pending, total, err := service.ListByStatus(ctx, domain.TransactionStatusPending, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, pending, 2)
	for _, tx := range pending {
		assert.Equal(t, domain.TransactionStatusPending, tx.Status)
	}
	assert.False(t, pending[1].CreatedAt.Before(pending[0].CreatedAt))

	rest, total, err := service.ListByStatus(ctx, domain.TransactionStatusPending, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, rest, 1)

	none, total, err := service.ListByStatus(ctx, domain.TransactionStatusCompleted, 10, 0)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, none)
}

func TestListByStatus_OffsetPastEnd(t *testing.T) {
	service := newTestService()
	createTx(t, service)

	txs, total, err := service.ListByStatus(context.Background(), domain.TransactionStatusPending, 10, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Empty(t, txs)
}
