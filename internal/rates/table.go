// Package rates implements the static exchange rate table and quote engine.
package rates

import (
	"afripay/internal/domain"

	"github.com/shopspring/decimal"
)

// FeeRate is the fixed transfer fee applied to every send amount (1.75%).
var FeeRate = decimal.NewFromFloat(0.0175)

// Table holds static bidirectional conversion factors and per-currency send
// limits. Rates are fixed by product, not fed from a live market source.
type Table struct {
	rates  map[domain.Currency]map[domain.Currency]decimal.Decimal
	limits map[domain.Currency]Limit
}

// Limit is the inclusive [Min, Max] send range for a currency.
type Limit struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// NewTable returns the default table used by the widget.
func NewTable() *Table {
	d := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	return &Table{
		rates: map[domain.Currency]map[domain.Currency]decimal.Decimal{
			domain.EUR: {
				domain.XAF: d("655.957"),
				domain.XOF: d("655.957"),
				domain.NGN: d("1050.0"),
				domain.GHS: d("16.5"),
				domain.USD: d("1.08"),
			},
			domain.XAF: {
				domain.EUR: d("0.00152452"),
				domain.XOF: d("1"),
				domain.NGN: d("1.6"),
			},
			domain.XOF: {
				domain.EUR: d("0.00152452"),
				domain.XAF: d("1"),
				domain.NGN: d("1.6"),
			},
			domain.NGN: {
				domain.EUR: d("0.00095238"),
				domain.XAF: d("0.625"),
				domain.XOF: d("0.625"),
			},
			domain.GHS: {
				domain.EUR: d("0.0606"),
			},
			domain.USD: {
				domain.EUR: d("0.9259"),
				domain.XAF: d("607.37"),
			},
		},
		limits: map[domain.Currency]Limit{
			domain.EUR: {Min: d("10"), Max: d("10000")},
			domain.USD: {Min: d("10"), Max: d("10000")},
			domain.GHS: {Min: d("50"), Max: d("50000")},
			domain.XAF: {Min: d("5000"), Max: d("5000000")},
			domain.XOF: {Min: d("5000"), Max: d("5000000")},
			domain.NGN: {Min: d("5000"), Max: d("5000000")},
		},
	}
}

// Rate returns the conversion factor from one currency to another. The
// same-currency rate is exactly 1. The second return is false when no factor
// is defined for the pair.
func (t *Table) Rate(from, to domain.Currency) (decimal.Decimal, bool) {
	if from == to {
		return decimal.NewFromInt(1), true
	}
	row, ok := t.rates[from]
	if !ok {
		return decimal.Decimal{}, false
	}
	rate, ok := row[to]
	return rate, ok
}

// Limits returns the send range for a currency.
func (t *Table) Limits(c domain.Currency) (Limit, bool) {
	l, ok := t.limits[c]
	return l, ok
}
