package rates

import (
	"testing"

	"afripay/internal/domain"
	"afripay/pkg/errors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote_EURToXAF(t *testing.T) {
	engine := NewEngine(NewTable())

	q, err := engine.Quote(decimal.NewFromInt(100), domain.EUR, domain.XAF)
	require.NoError(t, err)

	assert.Equal(t, "1.75", q.FeeAmount.String())
	assert.Equal(t, "98.25", q.NetAmount.String())
	// 98.25 * 655.957 = 64447.775.. rounded to 2 places
	assert.Equal(t, "64447.78", q.ReceiveAmount.String())
	assert.Equal(t, domain.XAF, q.ReceiveCurrency)
}

func TestQuote_Deterministic(t *testing.T) {
	engine := NewEngine(NewTable())

	pairs := []struct{ from, to domain.Currency }{
		{domain.EUR, domain.XAF},
		{domain.EUR, domain.NGN},
		{domain.XAF, domain.XOF},
		{domain.NGN, domain.EUR},
	}

	for _, pair := range pairs {
		amount := decimal.NewFromInt(7500)
		if pair.from == domain.EUR {
			amount = decimal.NewFromFloat(123.45)
		}

		first, err := engine.Quote(amount, pair.from, pair.to)
		require.NoError(t, err)

		for i := 0; i < 5; i++ {
			again, err := engine.Quote(amount, pair.from, pair.to)
			require.NoError(t, err)
			assert.True(t, first.FeeAmount.Equal(again.FeeAmount))
			assert.True(t, first.ReceiveAmount.Equal(again.ReceiveAmount))
		}
	}
}

func TestQuote_FeeIsAlwaysRoundedPercentage(t *testing.T) {
	engine := NewEngine(NewTable())

	for _, amt := range []string{"10", "33.33", "100", "999.99", "10000"} {
		amount := decimal.RequireFromString(amt)
		q, err := engine.Quote(amount, domain.EUR, domain.XAF)
		require.NoError(t, err)

		expected := amount.Mul(decimal.NewFromFloat(0.0175)).Round(2)
		assert.True(t, q.FeeAmount.Equal(expected), "amount %s: fee %s != %s", amt, q.FeeAmount, expected)
	}
}

func TestQuote_SameCurrency(t *testing.T) {
	engine := NewEngine(NewTable())

	q, err := engine.Quote(decimal.NewFromInt(200), domain.EUR, domain.EUR)
	require.NoError(t, err)

	// receive == send - fee exactly when the rate is 1
	assert.True(t, q.ReceiveAmount.Equal(q.SendAmount.Sub(q.FeeAmount)))
	assert.Equal(t, "1", q.Rate.String())
}

func TestQuote_UnsupportedCurrency(t *testing.T) {
	engine := NewEngine(NewTable())

	_, err := engine.Quote(decimal.NewFromInt(100), "JPY", domain.XAF)
	assert.ErrorIs(t, err, errors.ErrInvalidCurrency)

	_, err = engine.Quote(decimal.NewFromInt(100), domain.EUR, "ZZZ")
	assert.ErrorIs(t, err, errors.ErrInvalidCurrency)
}

func TestQuote_NoRateDefinedForPair(t *testing.T) {
	engine := NewEngine(NewTable())

	// GHS->NGN is in the supported set but has no conversion factor
	_, err := engine.Quote(decimal.NewFromInt(100), domain.GHS, domain.NGN)
	assert.ErrorIs(t, err, errors.ErrInvalidCurrency)
}

func TestQuote_AmountOutOfRange(t *testing.T) {
	engine := NewEngine(NewTable())

	cases := []struct {
		amount   string
		currency domain.Currency
	}{
		{"9.99", domain.EUR},
		{"10001", domain.EUR},
		{"4999", domain.XAF},
		{"5000001", domain.NGN},
	}

	for _, tc := range cases {
		_, err := engine.Quote(decimal.RequireFromString(tc.amount), tc.currency, domain.EUR)
		assert.ErrorIs(t, err, errors.ErrAmountOutOfRange, "amount %s %s", tc.amount, tc.currency)
	}

	// Boundaries are inclusive
	_, err := engine.Quote(decimal.NewFromInt(10), domain.EUR, domain.XAF)
	assert.NoError(t, err)
	_, err = engine.Quote(decimal.NewFromInt(10000), domain.EUR, domain.XAF)
	assert.NoError(t, err)
}

func TestQuote_FractionalInputRoundedBeforeDerivation(t *testing.T) {
	engine := NewEngine(NewTable())

	q, err := engine.Quote(decimal.RequireFromString("100.999"), domain.EUR, domain.XAF)
	require.NoError(t, err)

	// The input rounds to 101.00 before any derivation, so every stored
	// amount stays at 2 places and send = fee + net holds exactly.
	assert.True(t, q.SendAmount.Equal(decimal.RequireFromString("101")), "send: %s", q.SendAmount)
	assert.True(t, q.FeeAmount.Equal(decimal.RequireFromString("1.77")), "fee: %s", q.FeeAmount)
	assert.True(t, q.NetAmount.Equal(decimal.RequireFromString("99.23")), "net: %s", q.NetAmount)
	assert.True(t, q.FeeAmount.Add(q.NetAmount).Equal(q.SendAmount))
	assert.GreaterOrEqual(t, q.NetAmount.Exponent(), int32(-2))
}
