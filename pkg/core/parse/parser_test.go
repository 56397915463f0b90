package parse

import (
	"testing"
	"time"

	"ledger_audit/pkg/core/schema"
)

func testCatalog() *schema.Catalog {
	return &schema.Catalog{
		Domain: "accounts_payable",
		Fields: []schema.FieldSpec{
			{ID: "amount", Required: true, Kind: schema.KindNumber, Names: []string{"amount"}},
			{ID: "date", Required: true, Kind: schema.KindDate, Names: []string{"date"}},
			{ID: "entity", Required: true, Kind: schema.KindText, Names: []string{"vendor"}},
			{ID: "memo", Required: false, Kind: schema.KindText, Names: []string{"memo"}},
		},
	}
}

func testMapping(t *testing.T, cat *schema.Catalog, headers []string) *schema.ColumnMapping {
	t.Helper()
	mapping, _, err := schema.DetectColumns(headers, cat)
	if err != nil {
		t.Fatalf("detect columns: %v", err)
	}
	return mapping
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1234.56", "1234.56"},
		{"$1,234.56", "1234.56"},
		{"€2 500,00", "250000"}, // spaces stripped as separators; comma too
		{"(500.00)", "-500"},    // accounting parentheses
		{"250.00-", "-250"},     // trailing minus
		{"-42", "-42"},
		{"0.01", "0.01"},
		{"¥98765", "98765"},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		if err != nil {
			t.Errorf("ParseAmount(%q): unexpected error %v", c.in, err)
			continue
		}
		if got.String() != c.want {
			t.Errorf("ParseAmount(%q) = %s, want %s", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "abc", "12.3.4", "N/A"} {
		if _, err := ParseAmount(bad); err == nil {
			t.Errorf("ParseAmount(%q): expected error", bad)
		}
	}
}

func TestParseDateFormats(t *testing.T) {
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	cases := []string{
		"2024-03-15",
		"2024/03/15",
		"03/15/2024",
		"3/15/2024",
		"15-Mar-2024",
		"Mar 15, 2024",
		"March 15, 2024",
		"20240315",
	}
	for _, in := range cases {
		got, ok := ParseDate(in)
		if !ok {
			t.Errorf("ParseDate(%q): no layout matched", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseDate(%q) = %v, want %v", in, got, want)
		}
	}

	if _, ok := ParseDate("the ides of march"); ok {
		t.Error("expected free text to fail date parsing")
	}
}

func TestParseRowsConservation(t *testing.T) {
	cat := testCatalog()
	headers := []string{"Amount", "Date", "Vendor", "Memo"}
	mapping := testMapping(t, cat, headers)

	rows := [][]any{
		{"100.00", "2024-01-05", "Acme Corp", "office supplies"},
		{"not a number", "2024-01-06", "Acme Corp", ""}, // bad required amount: excluded
		{"250.00", "2024-01-07", "Globex", "consulting"},
		{"", "2024-01-08", "Initech", "rent"},          // empty required amount: excluded
		{"75.50", "garbage date", "Initech", "repair"}, // bad required date: excluded
	}

	batch, issues := ParseRows(rows, mapping, cat)

	// Parsed + excluded must equal raw. 2 rows survive, 3 excluded.
	if batch.RawRowCount != 5 {
		t.Errorf("RawRowCount = %d, want 5", batch.RawRowCount)
	}
	if batch.Len() != 2 {
		t.Errorf("parsed %d records, want 2", batch.Len())
	}
	if excluded := batch.RawRowCount - batch.Len(); excluded != 3 {
		t.Errorf("excluded %d rows, want 3", excluded)
	}

	// Each exclusion is reported with its row and field.
	if len(issues) != 3 {
		t.Fatalf("expected 3 data-quality issues, got %d: %v", len(issues), issues)
	}
	if issues[0].RowIndex != 1 || issues[0].Field != "amount" {
		t.Errorf("first issue: got %+v", issues[0])
	}

	// Surviving records keep their original row indexes.
	if batch.Records[0].RowIndex != 0 || batch.Records[1].RowIndex != 2 {
		t.Errorf("row indexes = %d, %d; want 0, 2", batch.Records[0].RowIndex, batch.Records[1].RowIndex)
	}
}

func TestParseRowsOptionalFailureKeepsRow(t *testing.T) {
	cat := &schema.Catalog{
		Domain: "accounts_payable",
		Fields: []schema.FieldSpec{
			{ID: "amount", Required: true, Kind: schema.KindNumber, Names: []string{"amount"}},
			{ID: "due", Required: false, Kind: schema.KindDate, Names: []string{"due"}},
		},
	}
	mapping := testMapping(t, cat, []string{"Amount", "Due"})

	rows := [][]any{
		{"100.00", "next tuesday"}, // optional date unparseable
	}
	batch, issues := ParseRows(rows, mapping, cat)

	if batch.Len() != 1 {
		t.Fatalf("row with bad optional field must be kept, got %d records", batch.Len())
	}
	if len(issues) != 1 || issues[0].Field != "due" {
		t.Errorf("expected one issue on the optional field, got %v", issues)
	}
	// The failed field is absent, not zeroed.
	if _, ok := batch.Records[0].Date("due"); ok {
		t.Error("unparseable optional date must be absent from the record")
	}
}

func TestParseRowsNonStringCells(t *testing.T) {
	// CSV gives strings, but JSON payloads give numbers; both must coerce.
	cat := testCatalog()
	mapping := testMapping(t, cat, []string{"Amount", "Date", "Vendor"})

	rows := [][]any{
		{1234.56, "2024-01-05", "Acme Corp"},
		{1000, "2024-01-06", "Globex"},
	}
	batch, issues := ParseRows(rows, mapping, cat)
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	a, _ := batch.Records[0].Amount("amount")
	if a.String() != "1234.56" {
		t.Errorf("float cell parsed as %s, want 1234.56", a)
	}
	b, _ := batch.Records[1].Amount("amount")
	if b.String() != "1000" {
		t.Errorf("int cell parsed as %s, want 1000", b)
	}
}

func TestParseRowsShortRow(t *testing.T) {
	// A row shorter than the header list treats the missing cells as empty.
	cat := testCatalog()
	mapping := testMapping(t, cat, []string{"Amount", "Date", "Vendor", "Memo"})

	rows := [][]any{
		{"100.00", "2024-01-05"}, // vendor column missing entirely
	}
	batch, issues := ParseRows(rows, mapping, cat)
	if batch.Len() != 0 {
		t.Errorf("row missing a required column must be excluded, got %d records", batch.Len())
	}
	if len(issues) != 1 || issues[0].Field != "entity" {
		t.Errorf("expected one issue on entity, got %v", issues)
	}
}
