// Package parse converts raw tabular cells into typed, immutable records using
// a detected column mapping. Amounts are exact decimals end to end; repeated
// summation must never drift by cents.
package parse

import (
	"time"

	"ledger_audit/pkg/core/schema"

	"github.com/shopspring/decimal"
)

// Record is one parsed row. It is immutable once built; fields are reachable
// only through accessors, and a missing optional field is reported as absent,
// never as a zero value. RowIndex is the zero-based position in the original
// data rows and exists for reporting only.
type Record struct {
	RowIndex int

	numbers map[string]decimal.Decimal
	dates   map[string]time.Time
	texts   map[string]string
}

// Amount returns the decimal value of a number field.
func (r *Record) Amount(field string) (decimal.Decimal, bool) {
	v, ok := r.numbers[field]
	return v, ok
}

// Date returns the calendar date of a date field.
func (r *Record) Date(field string) (time.Time, bool) {
	v, ok := r.dates[field]
	return v, ok
}

// Text returns the trimmed text of a text or identifier field. Empty cells are
// absent, not empty strings.
func (r *Record) Text(field string) (string, bool) {
	v, ok := r.texts[field]
	return v, ok
}

// Display renders any field as a string for finding explanations. Findings
// carry only the field values relevant to them, never full-row payloads.
func (r *Record) Display(field string) (string, bool) {
	if v, ok := r.numbers[field]; ok {
		return v.String(), true
	}
	if v, ok := r.dates[field]; ok {
		return v.Format("2006-01-02"), true
	}
	if v, ok := r.texts[field]; ok {
		return v, true
	}
	return "", false
}

// Batch is the ordered record sequence for one run. Insertion order is the
// original row order; "first N" style findings depend on it for
// reproducibility.
type Batch struct {
	Domain      string
	Mapping     *schema.ColumnMapping
	Records     []*Record
	RawRowCount int
}

// Len returns the parsed record count.
func (b *Batch) Len() int { return len(b.Records) }

// DataQualityIssue reports one excluded or degraded row. Issues are
// accumulated, never fatal; excluded rows shrink the denominators used by
// statistical checks rather than inflating them.
type DataQualityIssue struct {
	RowIndex int    `json:"row_index"`
	Field    string `json:"field"`
	Reason   string `json:"reason"`
}
