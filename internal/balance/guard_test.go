package balance

import (
	"context"
	"testing"

	"afripay/internal/domain"
	"afripay/internal/partner"
	"afripay/pkg/errors"
	"afripay/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockSource struct {
	mock.Mock
}

func (m *MockSource) GetBalance(ctx context.Context) ([]partner.Balance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]partner.Balance), args.Error(1)
}

func TestEnsureSufficient_OK(t *testing.T) {
	source := new(MockSource)
	source.On("GetBalance", mock.Anything).Return([]partner.Balance{
		{Currency: domain.XAF, Amount: decimal.NewFromInt(100000)},
	}, nil)

	guard := NewGuard(source, logger.NewNop())
	err := guard.EnsureSufficient(context.Background(), decimal.NewFromInt(64448), domain.XAF)
	assert.NoError(t, err)
}

func TestEnsureSufficient_Shortfall(t *testing.T) {
	source := new(MockSource)
	source.On("GetBalance", mock.Anything).Return([]partner.Balance{
		{Currency: domain.XAF, Amount: decimal.NewFromInt(50)},
	}, nil)

	guard := NewGuard(source, logger.NewNop())
	err := guard.EnsureSufficient(context.Background(), decimal.NewFromInt(100), domain.XAF)
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
}

func TestEnsureSufficient_MissingPositionIsZero(t *testing.T) {
	source := new(MockSource)
	source.On("GetBalance", mock.Anything).Return([]partner.Balance{
		{Currency: domain.EUR, Amount: decimal.NewFromInt(9999)},
	}, nil)

	guard := NewGuard(source, logger.NewNop())
	err := guard.EnsureSufficient(context.Background(), decimal.NewFromInt(1), domain.NGN)
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
}

func TestEnsureSufficient_FailsClosedOnUpstreamError(t *testing.T) {
	source := new(MockSource)
	source.On("GetBalance", mock.Anything).Return(nil, assert.AnError)

	guard := NewGuard(source, logger.NewNop())
	err := guard.EnsureSufficient(context.Background(), decimal.NewFromInt(1), domain.EUR)
	assert.ErrorIs(t, err, errors.ErrBalanceUnavailable)
}

func TestEnsureSufficient_ExactBalancePasses(t *testing.T) {
	source := new(MockSource)
	source.On("GetBalance", mock.Anything).Return([]partner.Balance{
		{Currency: domain.EUR, Amount: decimal.NewFromInt(100)},
	}, nil)

	guard := NewGuard(source, logger.NewNop())
	err := guard.EnsureSufficient(context.Background(), decimal.NewFromInt(100), domain.EUR)
	assert.NoError(t, err)
}
