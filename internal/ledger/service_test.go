package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	transactions map[int64]*Transaction
	entries      map[int64][]Entry
	references   map[uuid.UUID]struct{}
	nextTxnID    int64
	nextEntryID  int64

	txError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		transactions: make(map[int64]*Transaction),
		entries:      make(map[int64][]Entry),
		references:   make(map[uuid.UUID]struct{}),
		nextTxnID:    1,
		nextEntryID:  1,
	}
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if m.txError != nil {
		return m.txError
	}
	return fn(ctx, &mockTxRepo{mock: m})
}

func (m *mockRepository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	txn, ok := m.transactions[id]
	if !ok {
		return Transaction{}, ErrNotFound
	}
	out := *txn
	out.Entries = m.entries[id]
	return out, nil
}

func (m *mockRepository) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
	out := make([]Transaction, 0, len(m.transactions))
	for id := range m.transactions {
		txn, _ := m.GetTransaction(ctx, id)
		out = append(out, txn)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type mockTxRepo struct {
	mock *mockRepository
}

func (t *mockTxRepo) InsertTransaction(ctx context.Context, input TransactionInput) (Transaction, error) {
	if _, dup := t.mock.references[input.Reference]; dup {
		return Transaction{}, ErrDuplicateReference
	}
	t.mock.references[input.Reference] = struct{}{}
	txn := Transaction{
		ID:        t.mock.nextTxnID,
		Reference: input.Reference,
		Date:      input.Date,
		Memo:      input.Memo,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	t.mock.nextTxnID++
	t.mock.transactions[txn.ID] = &txn
	return txn, nil
}

func (t *mockTxRepo) InsertEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error) {
	out := make([]Entry, 0, len(entries))
	for _, input := range entries {
		entry := Entry{
			ID:              t.mock.nextEntryID,
			TransactionID:   transactionID,
			Amount:          input.Amount,
			DebitAccountID:  input.DebitAccountID,
			CreditAccountID: input.CreditAccountID,
			Memo:            input.Memo,
			CreatedAt:       time.Now(),
		}
		t.mock.nextEntryID++
		out = append(out, entry)
	}
	t.mock.entries[transactionID] = out
	return out, nil
}

func (t *mockTxRepo) GetTransactionForUpdate(ctx context.Context, id int64) (Transaction, error) {
	return t.mock.GetTransaction(ctx, id)
}

func (t *mockTxRepo) UpdateTransaction(ctx context.Context, id int64, date time.Time, memo string) error {
	txn, ok := t.mock.transactions[id]
	if !ok {
		return ErrNotFound
	}
	txn.Date = date
	txn.Memo = memo
	txn.UpdatedAt = time.Now()
	return nil
}

func (t *mockTxRepo) ReplaceEntries(ctx context.Context, transactionID int64, entries []EntryInput) ([]Entry, error) {
	delete(t.mock.entries, transactionID)
	return t.InsertEntries(ctx, transactionID, entries)
}

func balancedInput(amount float64) TransactionInput {
	return TransactionInput{
		Date: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Memo: "office rent",
		Entries: []EntryInput{
			{Amount: amount, DebitAccountID: strPtr("rent-expense")},
			{Amount: amount, CreditAccountID: strPtr("cash")},
		},
	}
}

func TestServiceCreateBalancedTransaction(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), balancedInput(100))
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.NotEqual(t, uuid.Nil, created.Reference)
	require.Len(t, created.Entries, 2)

	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Entries, 2)
}

func TestServiceCreateRejectsUnbalancedBeforePersistence(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	input := balancedInput(100)
	input.Entries[1].Amount = 99

	_, err := svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrUnbalanced)
	// Nothing may reach storage: validation runs before the transaction opens.
	require.Empty(t, repo.transactions)
}

func TestServiceCreateDuplicateReference(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	input := balancedInput(100)
	input.Reference = uuid.New()

	_, err := svc.Create(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), input)
	require.ErrorIs(t, err, ErrDuplicateReference)
}

func TestServiceCreateNotifiesWriteHook(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	var notified int
	svc.OnWrite(func(ctx context.Context) { notified++ })

	_, err := svc.Create(context.Background(), balancedInput(100))
	require.NoError(t, err)
	require.Equal(t, 1, notified)

	// Rejected writes must not invalidate caches.
	bad := balancedInput(100)
	bad.Entries[1].Amount = 50
	_, err = svc.Create(context.Background(), bad)
	require.Error(t, err)
	require.Equal(t, 1, notified)
}

func TestServiceUpdateReValidatesInvariant(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), balancedInput(100))
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), UpdateInput{
		TransactionID: created.ID,
		Memo:          "adjusted",
		Entries: []EntryInput{
			{Amount: 150, DebitAccountID: strPtr("rent-expense")},
			{Amount: 100, CreditAccountID: strPtr("cash")},
		},
	})
	require.ErrorIs(t, err, ErrUnbalanced)

	// The original balanced entry set is untouched.
	stored, err := svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	require.Len(t, stored.Entries, 2)
	require.Equal(t, float64(100), stored.Entries[0].Amount)
}

func TestServiceUpdateReplacesEntries(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), balancedInput(100))
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), UpdateInput{
		TransactionID: created.ID,
		Memo:          "split payment",
		Entries: []EntryInput{
			{Amount: 60, DebitAccountID: strPtr("rent-expense")},
			{Amount: 40, DebitAccountID: strPtr("utilities")},
			{Amount: 100, CreditAccountID: strPtr("cash")},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Entries, 3)
	require.Equal(t, "split payment", updated.Memo)
	// The original date is preserved when the update omits one.
	require.Equal(t, created.Date, updated.Date)
}

func TestServiceUpdateMissingTransaction(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	_, err := svc.Update(context.Background(), UpdateInput{
		TransactionID: 404,
		Entries: []EntryInput{
			{Amount: 10, DebitAccountID: strPtr("a")},
			{Amount: 10, CreditAccountID: strPtr("b")},
		},
	})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestServiceListClampsLimit(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), balancedInput(float64(10 * (i + 1))))
		require.NoError(t, err)
	}

	out, err := svc.List(context.Background(), -1)
	require.NoError(t, err)
	require.Len(t, out, 3)

	out, err = svc.List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
}
