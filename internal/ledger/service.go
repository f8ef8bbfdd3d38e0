package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository provides transactional access to ledger storage.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]Transaction, error)
}

// TxRepository is the write surface available inside a storage transaction.
// A failed invariant check returns before any of these run, and the host
// transaction rolls back on error, so no partial writes survive.
type TxRepository interface {
	InsertTransaction(ctx context.Context, input TransactionInput) (Transaction, error)
	InsertEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error)
	GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, date time.Time, memo string) error
	ReplaceEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error)
}

// Service coordinates transaction writes behind the balance invariant.
type Service struct {
	repo    Repository
	logger  *slog.Logger
	now     func() time.Time
	onWrite func(ctx context.Context)
}

// NewService constructs a ledger Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// WithNow overrides the clock, for tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// OnWrite registers a hook invoked after every committed write. The
// dashboard uses it to invalidate cached snapshots.
func (s *Service) OnWrite(fn func(ctx context.Context)) {
	s.onWrite = fn
}

func (s *Service) notifyWrite(ctx context.Context) {
	if s.onWrite != nil {
		s.onWrite(ctx)
	}
}

// Create validates and persists a new transaction. Validation runs first:
// an unbalanced entry set is rejected before the storage transaction opens.
func (s *Service) Create(ctx context.Context, input TransactionInput) (Transaction, error) {
	if err := input.Validate(); err != nil {
		return Transaction{}, err
	}
	if input.Reference == uuid.Nil {
		input.Reference = uuid.New()
	}
	if input.Date.IsZero() {
		input.Date = s.now()
	}
	var created Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		inserted, err := tx.InsertTransaction(ctx, input)
		if err != nil {
			return err
		}
		entries, err := tx.InsertEntries(ctx, inserted.ID, input.Entries)
		if err != nil {
			return err
		}
		inserted.Entries = entries
		created = inserted
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	if s.logger != nil {
		s.logger.Info("transaction created",
			slog.Int64("transaction_id", created.ID),
			slog.String("reference", created.Reference.String()),
			slog.Int("entries", len(created.Entries)),
		)
	}
	s.notifyWrite(ctx)
	return created, nil
}

// Update validates and replaces the entry set of an existing transaction.
// The invariant is re-checked against the full replacement set, so a
// mutation can never leave a previously balanced transaction unbalanced.
func (s *Service) Update(ctx context.Context, input UpdateInput) (Transaction, error) {
	if err := input.Validate(); err != nil {
		return Transaction{}, err
	}
	var updated Transaction
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetTransactionForUpdate(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		date := input.Date
		if date.IsZero() {
			date = current.Date
		}
		if err := tx.UpdateTransaction(ctx, current.ID, date, input.Memo); err != nil {
			return err
		}
		entries, err := tx.ReplaceEntries(ctx, current.ID, input.Entries)
		if err != nil {
			return err
		}
		current.Date = date
		current.Memo = input.Memo
		current.Entries = entries
		updated = current
		return nil
	})
	if err != nil {
		return Transaction{}, err
	}
	if s.logger != nil {
		s.logger.Info("transaction updated", slog.Int64("transaction_id", updated.ID))
	}
	s.notifyWrite(ctx)
	return updated, nil
}

// Get returns one transaction with its entries.
func (s *Service) Get(ctx context.Context, id int64) (Transaction, error) {
	return s.repo.GetTransaction(ctx, id)
}

// List returns the most recent transactions.
func (s *Service) List(ctx context.Context, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.repo.ListTransactions(ctx, limit)
}
