package parse

import (
	"fmt"
	"strings"
	"time"

	"ledger_audit/pkg/core/schema"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

// DateFormats is the ordered list of accepted date layouts. First successful
// parse wins; a value matching none of them leaves the field null.
var DateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2006-01-02T15:04:05Z07:00",
	"20060102",
}

// currencyRunes are stripped before numeric parsing. Thousands separators and
// surrounding whitespace go with them.
const currencyRunes = "$€£¥₹"

// ParseRows converts raw rows into a Batch using the detected mapping.
//
// A row that lacks a usable value for any required field is excluded from the
// batch and reported as a data-quality issue; it is never kept with a null
// amount. Rows with unusable optional values keep the row, drop the field, and
// still report the issue. Parsed count + excluded count always equals the raw
// row count.
func ParseRows(rows [][]any, mapping *schema.ColumnMapping, cat *schema.Catalog) (*Batch, []DataQualityIssue) {
	batch := &Batch{
		Domain:      cat.Domain,
		Mapping:     mapping,
		RawRowCount: len(rows),
	}
	var issues []DataQualityIssue

	for rowIdx, row := range rows {
		rec := &Record{
			RowIndex: rowIdx,
			numbers:  make(map[string]decimal.Decimal),
			dates:    make(map[string]time.Time),
			texts:    make(map[string]string),
		}

		excluded := false
		for _, field := range cat.Fields {
			col, mapped := mapping.Column(field.ID)
			if !mapped {
				continue
			}

			var raw string
			if col < len(row) {
				raw = strings.TrimSpace(cast.ToString(row[col]))
			}

			if raw == "" {
				if field.Required {
					issues = append(issues, DataQualityIssue{
						RowIndex: rowIdx,
						Field:    field.ID,
						Reason:   "required field is empty",
					})
					excluded = true
				}
				continue
			}
			if excluded {
				continue
			}

			if err := coerce(rec, field, raw); err != nil {
				issues = append(issues, DataQualityIssue{
					RowIndex: rowIdx,
					Field:    field.ID,
					Reason:   err.Error(),
				})
				if field.Required {
					excluded = true
				}
			}
		}

		if !excluded {
			batch.Records = append(batch.Records, rec)
		}
	}

	return batch, issues
}

// coerce parses one raw cell into the record according to the field kind.
func coerce(rec *Record, field schema.FieldSpec, raw string) error {
	switch field.Kind {
	case schema.KindNumber:
		amount, err := ParseAmount(raw)
		if err != nil {
			return fmt.Errorf("not a numeric amount: %q", raw)
		}
		rec.numbers[field.ID] = amount
	case schema.KindDate:
		date, ok := ParseDate(raw)
		if !ok {
			return fmt.Errorf("unrecognized date format: %q", raw)
		}
		rec.dates[field.ID] = date
	case schema.KindText, schema.KindIdentifier:
		rec.texts[field.ID] = raw
	}
	return nil
}

// ParseAmount parses a locale-tolerant monetary string into an exact decimal.
// Currency symbols and thousands separators are stripped; accounting-style
// parentheses and trailing minus both mean negative. Non-numeric text is
// rejected, never silently zeroed.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	if strings.HasSuffix(s, "-") {
		negative = true
		s = s[:len(s)-1]
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r == ',' || r == ' ' || r == ' ':
			// thousands separator
		case strings.ContainsRune(currencyRunes, r):
		default:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())

	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, err
	}
	if negative {
		amount = amount.Neg()
	}
	return amount, nil
}

// ParseDate tries each accepted layout in order and returns the first match.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, layout := range DateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
