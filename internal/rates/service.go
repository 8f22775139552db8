package rates

import (
	"time"

	"afripay/internal/domain"
	"afripay/pkg/errors"

	"github.com/shopspring/decimal"
)

// Engine builds transaction quotes from the rate table. It is deterministic,
// side-effect free, and safe for concurrent use.
type Engine struct {
	table *Table
}

// NewEngine constructs a quote engine over the given table.
func NewEngine(table *Table) *Engine {
	return &Engine{table: table}
}

// Quote computes an immutable quote for sending sendAmount of from-currency to
// a to-currency receiver. The fee is deducted from the send amount before
// conversion.
func (e *Engine) Quote(sendAmount decimal.Decimal, from, to domain.Currency) (*domain.Quote, error) {
	if !from.Valid() || !to.Valid() {
		return nil, errors.ErrInvalidCurrency
	}

	// Round once up front; every derived amount must stay at 2 places and
	// satisfy net = send - fee on the stored fields.
	sendAmount = sendAmount.Round(domain.AmountPrecision)

	rate, ok := e.table.Rate(from, to)
	if !ok {
		return nil, errors.ErrInvalidCurrency
	}

	limit, ok := e.table.Limits(from)
	if !ok {
		return nil, errors.ErrInvalidCurrency
	}
	if sendAmount.LessThan(limit.Min) || sendAmount.GreaterThan(limit.Max) {
		return nil, errors.ErrAmountOutOfRange
	}

	fee := sendAmount.Mul(FeeRate).Round(domain.AmountPrecision)
	net := sendAmount.Sub(fee)
	receive := net.Mul(rate).Round(domain.AmountPrecision)

	return &domain.Quote{
		SendAmount:      sendAmount,
		SendCurrency:    from,
		ReceiveAmount:   receive,
		ReceiveCurrency: to,
		FeeAmount:       fee,
		NetAmount:       net,
		Rate:            rate,
		CreatedAt:       time.Now(),
	}, nil
}
