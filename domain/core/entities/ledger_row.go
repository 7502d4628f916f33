package entities

import "time"

// LedgerRow is one append-only ledger record
type LedgerRow struct {
	Timestamp     time.Time
	Source        string
	Category      string
	Content       string
	ForwardedFrom string
	Link          string
}

// Values returns the row cells in the fixed column order
// Timestamp, Source, Category, Content, ForwardedFrom, Link.
func (r LedgerRow) Values(timestampLayout string) []interface{} {
	return []interface{}{
		r.Timestamp.Format(timestampLayout),
		r.Source,
		r.Category,
		r.Content,
		r.ForwardedFrom,
		r.Link,
	}
}
