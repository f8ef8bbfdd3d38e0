// Package ledger owns financial transactions and enforces the double-entry
// balance invariant on every create and update.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrUnbalanced rejects a transaction whose debit and credit totals
	// differ by a cent or more. This is checked before any write happens.
	ErrUnbalanced = errors.New("ledger: debits and credits do not balance")
	// ErrNoEntries rejects a transaction without ledger entries.
	ErrNoEntries = errors.New("ledger: at least one entry required")
	// ErrEntryBothSides rejects an entry tagged with both a debit and a
	// credit account.
	ErrEntryBothSides = errors.New("ledger: entry cannot be both debit and credit")
	// ErrNegativeAmount rejects entries with negative amounts.
	ErrNegativeAmount = errors.New("ledger: entry amount cannot be negative")
	// ErrNotFound indicates the transaction does not exist.
	ErrNotFound = errors.New("ledger: transaction not found")
	// ErrDuplicateReference indicates the idempotency reference was reused.
	ErrDuplicateReference = errors.New("ledger: reference already used")
)

// Entry is one leg of a transaction, tagged to a debit account or a credit
// account. Untagged entries are informational and excluded from the balance
// sums.
type Entry struct {
	ID              int64     `json:"id"`
	TransactionID   int64     `json:"transactionId"`
	Amount          float64   `json:"amount"`
	DebitAccountID  *string   `json:"debitAccountId,omitempty"`
	CreditAccountID *string   `json:"creditAccountId,omitempty"`
	Memo            string    `json:"memo,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Transaction owns a set of entries whose debit and credit totals balance.
type Transaction struct {
	ID        int64     `json:"id"`
	Reference uuid.UUID `json:"reference"`
	Date      time.Time `json:"date"`
	Memo      string    `json:"memo,omitempty"`
	Entries   []Entry   `json:"entries"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
