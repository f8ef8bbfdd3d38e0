// Package aging buckets open receivables and payables by days overdue.
package aging

import (
	"math"
	"time"
)

// OpenItem is an unpaid invoice or bill as supplied by the bookkeeping
// platform. DueDate and TxnDate may both be absent.
type OpenItem struct {
	Balance float64    `json:"balance"`
	DueDate *time.Time `json:"dueDate"`
	TxnDate *time.Time `json:"txnDate"`
}

// Buckets groups open balances by days overdue. Bucket0to30 includes items
// that are not yet due.
type Buckets struct {
	Bucket0to30  float64 `json:"0-30"`
	Bucket31to60 float64 `json:"31-60"`
	Bucket61to90 float64 `json:"61-90"`
	Bucket90Plus float64 `json:"90+"`
	Total        float64 `json:"total"`
}

// Calculate folds open items into overdue buckets relative to now. Items with
// no balance are skipped; items without any usable date are conservatively
// treated as 90+ overdue rather than dropped.
func Calculate(items []OpenItem, now time.Time) Buckets {
	var b Buckets
	for _, item := range items {
		if item.Balance <= 0 {
			continue
		}
		ref := item.DueDate
		if ref == nil {
			ref = item.TxnDate
		}
		if ref == nil {
			b.Bucket90Plus += item.Balance
			continue
		}
		days := int(now.Sub(*ref).Hours() / 24)
		switch {
		case days <= 30:
			b.Bucket0to30 += item.Balance
		case days <= 60:
			b.Bucket31to60 += item.Balance
		case days <= 90:
			b.Bucket61to90 += item.Balance
		default:
			b.Bucket90Plus += item.Balance
		}
	}
	b.Bucket0to30 = roundCents(b.Bucket0to30)
	b.Bucket31to60 = roundCents(b.Bucket31to60)
	b.Bucket61to90 = roundCents(b.Bucket61to90)
	b.Bucket90Plus = roundCents(b.Bucket90Plus)
	b.Total = roundCents(b.Bucket0to30 + b.Bucket31to60 + b.Bucket61to90 + b.Bucket90Plus)
	return b
}

// Overdue61Plus returns the combined balance more than 60 days overdue.
func (b Buckets) Overdue61Plus() float64 {
	return roundCents(b.Bucket61to90 + b.Bucket90Plus)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
