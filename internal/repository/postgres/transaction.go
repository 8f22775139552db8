package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"afripay/internal/domain"
	"afripay/pkg/errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// TransactionRepository is the durable ledger store. Mutate serializes
// concurrent writers on the same id with a row lock.
type TransactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

// transactionRow flattens the quote and keeps the profile blobs as JSONB.
type transactionRow struct {
	ID              uuid.UUID                `db:"id"`
	Reference       string                   `db:"reference"`
	Status          domain.TransactionStatus `db:"status"`
	StatusReason    string                   `db:"status_reason"`
	SendAmount      decimal.Decimal          `db:"send_amount"`
	SendCurrency    domain.Currency          `db:"send_currency"`
	ReceiveAmount   decimal.Decimal          `db:"receive_amount"`
	ReceiveCurrency domain.Currency          `db:"receive_currency"`
	FeeAmount       decimal.Decimal          `db:"fee_amount"`
	NetAmount       decimal.Decimal          `db:"net_amount"`
	Rate            decimal.Decimal          `db:"rate"`
	QuotedAt        time.Time                `db:"quoted_at"`
	Sender          []byte                   `db:"sender"`
	Receiver        []byte                   `db:"receiver"`
	Payment         []byte                   `db:"payment"`
	Metadata        domain.Metadata          `db:"metadata"`
	CreatedAt       time.Time                `db:"created_at"`
	UpdatedAt       time.Time                `db:"updated_at"`
	CompletedAt     *time.Time               `db:"completed_at"`
}

func toRow(tx *domain.Transaction) (*transactionRow, error) {
	sender, err := json.Marshal(tx.Sender)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode sender")
	}
	receiver, err := json.Marshal(tx.Receiver)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode receiver")
	}
	payment, err := json.Marshal(tx.Payment)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payment")
	}

	return &transactionRow{
		ID:              tx.ID,
		Reference:       tx.Reference,
		Status:          tx.Status,
		StatusReason:    tx.StatusReason,
		SendAmount:      tx.Quote.SendAmount,
		SendCurrency:    tx.Quote.SendCurrency,
		ReceiveAmount:   tx.Quote.ReceiveAmount,
		ReceiveCurrency: tx.Quote.ReceiveCurrency,
		FeeAmount:       tx.Quote.FeeAmount,
		NetAmount:       tx.Quote.NetAmount,
		Rate:            tx.Quote.Rate,
		QuotedAt:        tx.Quote.CreatedAt,
		Sender:          sender,
		Receiver:        receiver,
		Payment:         payment,
		Metadata:        tx.Metadata,
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
		CompletedAt:     tx.CompletedAt,
	}, nil
}

func (r *transactionRow) toDomain() (*domain.Transaction, error) {
	tx := &domain.Transaction{
		ID:           r.ID,
		Reference:    r.Reference,
		Status:       r.Status,
		StatusReason: r.StatusReason,
		Quote: domain.Quote{
			SendAmount:      r.SendAmount,
			SendCurrency:    r.SendCurrency,
			ReceiveAmount:   r.ReceiveAmount,
			ReceiveCurrency: r.ReceiveCurrency,
			FeeAmount:       r.FeeAmount,
			NetAmount:       r.NetAmount,
			Rate:            r.Rate,
			CreatedAt:       r.QuotedAt,
		},
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		CompletedAt: r.CompletedAt,
	}

	if err := json.Unmarshal(r.Sender, &tx.Sender); err != nil {
		return nil, errors.Wrap(err, "failed to decode sender")
	}
	if err := json.Unmarshal(r.Receiver, &tx.Receiver); err != nil {
		return nil, errors.Wrap(err, "failed to decode receiver")
	}
	if err := json.Unmarshal(r.Payment, &tx.Payment); err != nil {
		return nil, errors.Wrap(err, "failed to decode payment")
	}

	return tx, nil
}

const transactionColumns = `
	id, reference, status, COALESCE(status_reason, '') AS status_reason,
	send_amount, send_currency, receive_amount, receive_currency,
	fee_amount, net_amount, rate, quoted_at,
	sender, receiver, payment, metadata,
	created_at, updated_at, completed_at
`

func (r *TransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	row, err := toRow(tx)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO transactions (
            id, reference, status, status_reason,
            send_amount, send_currency, receive_amount, receive_currency,
            fee_amount, net_amount, rate, quoted_at,
            sender, receiver, payment, metadata,
            created_at, updated_at, completed_at
        ) VALUES (
            :id, :reference, :status, :status_reason,
            :send_amount, :send_currency, :receive_amount, :receive_currency,
            :fee_amount, :net_amount, :rate, :quoted_at,
            :sender, :receiver, :payment, :metadata,
            :created_at, :updated_at, :completed_at
        )
    `

	_, err = r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" { // unique_violation
			return errors.ErrTransactionAlreadyExists
		}
		return errors.Wrap(err, "failed to create transaction")
	}

	return nil
}

func (r *TransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var row transactionRow
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`

	err := r.db.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find transaction")
	}

	return row.toDomain()
}

func (r *TransactionRepository) FindByReference(ctx context.Context, ref string) (*domain.Transaction, error) {
	var row transactionRow
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`

	err := r.db.GetContext(ctx, &row, query, ref)
	if err == sql.ErrNoRows {
		return nil, errors.ErrTransactionNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find transaction")
	}

	return row.toDomain()
}

// Mutate loads the row under FOR UPDATE, applies fn, and writes the result
// back in the same database transaction. Concurrent mutations of one id
// queue behind the row lock.
func (r *TransactionRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(tx *domain.Transaction) error) error {
	dbTx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer dbTx.Rollback() //nolint:errcheck

	var row transactionRow
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`

	err = dbTx.GetContext(ctx, &row, query, id)
	if err == sql.ErrNoRows {
		return errors.ErrTransactionNotFound
	}
	if err != nil {
		return errors.Wrap(err, "failed to lock transaction")
	}

	record, err := row.toDomain()
	if err != nil {
		return err
	}

	if err := fn(record); err != nil {
		return err
	}

	updated, err := toRow(record)
	if err != nil {
		return err
	}

	update := `
        UPDATE transactions SET
            status = :status, status_reason = :status_reason,
            metadata = :metadata, updated_at = :updated_at,
            completed_at = :completed_at
        WHERE id = :id
    `
	if _, err := dbTx.NamedExecContext(ctx, update, updated); err != nil {
		return errors.Wrap(err, "failed to update transaction")
	}

	return errors.Wrap(dbTx.Commit(), "failed to commit transaction")
}

func (r *TransactionRepository) FindByStatus(ctx context.Context, status domain.TransactionStatus, limit, offset int) ([]*domain.Transaction, error) {
	var rows []transactionRow
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE status = $1
        ORDER BY created_at ASC
        LIMIT $2 OFFSET $3
    `

	if err := r.db.SelectContext(ctx, &rows, query, status, limit, offset); err != nil {
		return nil, errors.Wrap(err, "failed to find transactions by status")
	}

	txs := make([]*domain.Transaction, 0, len(rows))
	for i := range rows {
		tx, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

func (r *TransactionRepository) CountByStatus(ctx context.Context, status domain.TransactionStatus) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM transactions WHERE status = $1`
	if err := r.db.GetContext(ctx, &total, query, status); err != nil {
		return 0, errors.Wrap(err, "failed to count transactions by status")
	}
	return total, nil
}
