package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/finsight-hq/finsight/internal/platform/db"
)

const uniqueViolationCode = "23505"

// PostgresRepository persists transactions and entries in Postgres.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository constructs the repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// WithTx runs fn inside a database transaction; any error rolls back every
// write fn performed.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetTransaction loads one transaction with entries.
func (r *PostgresRepository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(ctx, r.pool, id, false)
}

// ListTransactions returns the most recent transactions without entries.
func (r *PostgresRepository) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, reference, date, memo, created_at, updated_at
		FROM ledger_transactions
		ORDER BY date DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Transaction
	for rows.Next() {
		var txn Transaction
		if err := rows.Scan(&txn.ID, &txn.Reference, &txn.Date, &txn.Memo, &txn.CreatedAt, &txn.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, txn)
	}
	return out, rows.Err()
}

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func scanTransaction(ctx context.Context, q querier, id int64, forUpdate bool) (Transaction, error) {
	query := `
		SELECT id, reference, date, memo, created_at, updated_at
		FROM ledger_transactions
		WHERE id = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}
	var txn Transaction
	err := q.QueryRow(ctx, query, id).Scan(&txn.ID, &txn.Reference, &txn.Date, &txn.Memo, &txn.CreatedAt, &txn.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, ErrNotFound
	}
	if err != nil {
		return Transaction{}, err
	}
	entries, err := scanEntries(ctx, q, id)
	if err != nil {
		return Transaction{}, err
	}
	txn.Entries = entries
	return txn, nil
}

func scanEntries(ctx context.Context, q querier, transactionID int64) ([]Entry, error) {
	rows, err := q.Query(ctx, `
		SELECT id, transaction_id, amount, debit_account_id, credit_account_id, memo, created_at
		FROM ledger_entries
		WHERE transaction_id = $1
		ORDER BY id`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.TransactionID, &entry.Amount, &entry.DebitAccountID, &entry.CreditAccountID, &entry.Memo, &entry.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type txRepository struct {
	tx pgx.Tx
}

func (r *txRepository) InsertTransaction(ctx context.Context, input TransactionInput) (Transaction, error) {
	var txn Transaction
	err := r.tx.QueryRow(ctx, `
		INSERT INTO ledger_transactions (reference, date, memo, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
		RETURNING id, reference, date, memo, created_at, updated_at`,
		input.Reference, input.Date, input.Memo,
	).Scan(&txn.ID, &txn.Reference, &txn.Date, &txn.Memo, &txn.CreatedAt, &txn.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return Transaction{}, ErrDuplicateReference
		}
		return Transaction{}, err
	}
	return txn, nil
}

func (r *txRepository) InsertEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, input := range entries {
		var entry Entry
		err := r.tx.QueryRow(ctx, `
			INSERT INTO ledger_entries (transaction_id, amount, debit_account_id, credit_account_id, memo, created_at)
			VALUES ($1, $2, $3, $4, $5, now())
			RETURNING id, transaction_id, amount, debit_account_id, credit_account_id, memo, created_at`,
			transactionID, input.Amount, input.DebitAccountID, input.CreditAccountID, input.Memo,
		).Scan(&entry.ID, &entry.TransactionID, &entry.Amount, &entry.DebitAccountID, &entry.CreditAccountID, &entry.Memo, &entry.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (r *txRepository) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	return scanTransaction(ctx, r.tx, id, true)
}

func (r *txRepository) UpdateTransaction(ctx context.Context, id int64, date time.Time, memo string) error {
	tag, err := r.tx.Exec(ctx, `
		UPDATE ledger_transactions SET date = $2, memo = $3, updated_at = now()
		WHERE id = $1`, id, date, memo)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) ReplaceEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error) {
	if _, err := r.tx.Exec(ctx, `DELETE FROM ledger_entries WHERE transaction_id = $1`, transactionID); err != nil {
		return nil, err
	}
	return r.InsertEntries(ctx, transactionID, entries)
}
