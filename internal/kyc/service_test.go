package kyc

import (
	"context"
	"sync"
	"testing"
	"time"

	"afripay/internal/domain"
	"afripay/internal/risk"
	"afripay/pkg/config"
	"afripay/pkg/errors"
	"afripay/pkg/logger"
	"afripay/pkg/validator"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	assessor := risk.NewAssessor(config.RiskConfig{
		HighRiskCountries:    []string{"NG", "CM"},
		EnhancedKYCThreshold: 500,
	})
	cfg := config.KYCConfig{
		ResolutionDelay: 10 * time.Millisecond,
		PollInterval:    5 * time.Millisecond,
	}
	return NewService(NewMemoryStore(), assessor, validator.New(), cfg, logger.NewNop())
}

func validProfile() domain.SenderProfile {
	return domain.SenderProfile{
		Name:    "Alice Mballa",
		Email:   "alice@example.com",
		Phone:   "+237691234567",
		Country: "FR",
		IDType:  "passport",
		IDNumber: "19FR55521",
	}
}

func TestSubmit_ApprovesLowAndMediumTiers(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	id, err := service.Submit(ctx, validProfile(), decimal.NewFromInt(100))
	require.NoError(t, err)

	record, err := service.Await(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.VerificationStatusApproved, record.Status)
	assert.Equal(t, domain.RiskTierLow, record.RiskTier)
	assert.NotNil(t, record.CompletedAt)
}

func TestSubmit_RejectsHighTier(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	profile := validProfile()
	profile.Country = "NG"
	profile.IDType = ""
	profile.IDNumber = ""

	id, err := service.Submit(ctx, profile, decimal.NewFromInt(100))
	require.NoError(t, err)

	record, err := service.Await(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, domain.VerificationStatusRejected, record.Status)
	assert.Equal(t, domain.RiskTierHigh, record.RiskTier)
}

func TestSubmit_EnhancedKYCDemandsIdentityFields(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	profile := validProfile()
	profile.IDType = ""
	profile.IDNumber = ""

	// 600 > threshold of 500: identity fields become mandatory
	_, err := service.Submit(ctx, profile, decimal.NewFromInt(600))
	assert.ErrorIs(t, err, errors.ErrIdentityRequired)

	// At or below the threshold the same profile is accepted
	_, err = service.Submit(ctx, profile, decimal.NewFromInt(500))
	assert.NoError(t, err)
}

func TestSubmit_RejectsMalformedProfile(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	profile := validProfile()
	profile.Email = "not-an-email"

	_, err := service.Submit(ctx, profile, decimal.NewFromInt(100))
	assert.Error(t, err)

	profile = validProfile()
	profile.Country = "France"
	_, err = service.Submit(ctx, profile, decimal.NewFromInt(100))
	assert.Error(t, err)
}

func TestGetStatus_NotFound(t *testing.T) {
	service := newTestService(t)

	_, err := service.GetStatus(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errors.ErrVerificationNotFound)
}

func TestStatus_NeverRegressesFromTerminal(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	record := &domain.KYCVerification{
		ID:          uuid.New(),
		Status:      domain.VerificationStatusPending,
		SubmittedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, record))

	applied, err := store.Resolve(ctx, record.ID, domain.VerificationStatusApproved, time.Now())
	require.NoError(t, err)
	assert.True(t, applied)

	// A second resolution attempt must not change anything
	applied, err = store.Resolve(ctx, record.ID, domain.VerificationStatusRejected, time.Now())
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := store.FindByID(ctx, record.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VerificationStatusApproved, got.Status)
}

func TestSubmit_ConcurrentSubmissionsAreIndependent(t *testing.T) {
	service := newTestService(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	ids := make([]uuid.UUID, 20)

	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			profile := validProfile()
			if i%2 == 0 {
				profile.Country = "NG"
				profile.IDType = ""
				profile.IDNumber = ""
			}
			id, err := service.Submit(ctx, profile, decimal.NewFromInt(100))
			require.NoError(t, err)
			ids[i] = id
		}(i)
	}
	wg.Wait()

	for i, id := range ids {
		record, err := service.Await(ctx, id)
		require.NoError(t, err)
		if i%2 == 0 {
			assert.Equal(t, domain.VerificationStatusRejected, record.Status)
		} else {
			assert.Equal(t, domain.VerificationStatusApproved, record.Status)
		}
	}
}
