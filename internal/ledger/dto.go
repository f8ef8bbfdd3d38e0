package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// balanceTolerance is the maximum permitted gap between debit and credit
// totals, in currency units.
var balanceTolerance = decimal.NewFromFloat(0.01)

// EntryInput describes one ledger entry of a create or update request.
type EntryInput struct {
	Amount          float64
	DebitAccountID  *string
	CreditAccountID *string
	Memo            string
}

// TransactionInput groups the fields required to create a transaction.
type TransactionInput struct {
	Reference uuid.UUID
	Date      time.Time
	Memo      string
	Entries   []EntryInput
}

// UpdateInput carries a full replacement entry set for an existing
// transaction.
type UpdateInput struct {
	TransactionID int64
	Date          time.Time
	Memo          string
	Entries       []EntryInput
}

// Validate applies the per-entry rules and the balance invariant.
func (in TransactionInput) Validate() error {
	return ValidateEntries(in.Entries)
}

// Validate applies the per-entry rules and the balance invariant.
func (in UpdateInput) Validate() error {
	if in.TransactionID == 0 {
		return ErrNotFound
	}
	return ValidateEntries(in.Entries)
}

// ValidateEntries enforces the double-entry invariant: the sum of
// debit-tagged amounts must equal the sum of credit-tagged amounts within a
// cent. Sums are computed in exact decimal so float drift can never let an
// unbalanced set slip through, or reject a balanced one.
func ValidateEntries(entries []EntryInput) error {
	if len(entries) == 0 {
		return ErrNoEntries
	}
	debits := decimal.Zero
	credits := decimal.Zero
	for _, entry := range entries {
		if entry.Amount < 0 {
			return ErrNegativeAmount
		}
		amount := decimal.NewFromFloat(entry.Amount)
		switch {
		case entry.DebitAccountID != nil && entry.CreditAccountID != nil:
			return ErrEntryBothSides
		case entry.DebitAccountID != nil:
			debits = debits.Add(amount)
		case entry.CreditAccountID != nil:
			credits = credits.Add(amount)
		}
	}
	if debits.Sub(credits).Abs().GreaterThanOrEqual(balanceTolerance) {
		return ErrUnbalanced
	}
	return nil
}
