package checks

import (
	"strconv"
	"testing"
)

func TestCheckBenfordInsufficientData(t *testing.T) {
	headers := []string{"Amount", "Vendor"}
	rows := [][]any{
		{"123.00", "A"},
		{"456.00", "B"},
		{"789.00", "C"},
	}
	res := CheckBenfordFirstDigit(makeBatch(t, headers, rows), DefaultConfig())

	// Small batches report insufficient data, never a classification.
	if res.Severity != SeverityInfo {
		t.Errorf("severity = %s, want informational", res.Severity)
	}
	if res.Note == "" {
		t.Error("expected a note naming the minimum sample")
	}
	if len(res.Findings) != 0 {
		t.Errorf("no findings expected below minimum sample, got %d", len(res.Findings))
	}
}

func TestCheckBenfordUniformDistribution(t *testing.T) {
	headers := []string{"Amount", "Vendor"}
	var rows [][]any
	// 12 amounts per leading digit 1-9: uniform, strongly nonconforming.
	for d := 1; d <= 9; d++ {
		for i := 0; i < 12; i++ {
			rows = append(rows, []any{strconv.Itoa(d*10000 + i), "V" + strconv.Itoa(len(rows))})
		}
	}
	res := CheckBenfordFirstDigit(makeBatch(t, headers, rows), DefaultConfig())

	if res.Severity < SeverityHigh {
		t.Errorf("uniform digits graded %s, want at least high", res.Severity)
	}
	if res.Note != "nonconforming" {
		t.Errorf("note = %q, want nonconforming", res.Note)
	}
	// The over-represented digit's records are flagged so the result points
	// at reviewable rows. Digit 9 deviates most above expectation
	// (11.1% observed vs 4.6% expected): its 12 records flag.
	if len(res.Findings) != 12 {
		t.Errorf("expected 12 flagged records, got %d", len(res.Findings))
	}
	if res.FlaggedRatio == 0 {
		t.Error("a deviating batch must contribute a nonzero flagged ratio")
	}
}

func TestCheckGroupZScoreOutliers(t *testing.T) {
	headers := []string{"Amount", "Vendor"}
	var rows [][]any
	// Vendor A: ten routine payments and one wild one.
	// mean 1000, pop std dev ~2846, z(10000) ~ 3.16 > 3.
	for i := 0; i < 10; i++ {
		rows = append(rows, []any{"100.00", "Acme Corp"})
	}
	rows = append(rows, []any{"10000.00", "Acme Corp"})
	// Vendor B: identical amounts, zero variance, never flags.
	for i := 0; i < 5; i++ {
		rows = append(rows, []any{"50.00", "Globex"})
	}
	res := CheckGroupZScoreOutliers(makeBatch(t, headers, rows), DefaultConfig())

	if len(res.Findings) != 1 || res.Findings[0].RowIndex != 10 {
		t.Fatalf("expected only the 10000 payment flagged, got %v", res.Findings)
	}
	if res.Severity != SeverityLow {
		// factor = 3.16/3.0 ~ 1.05: just past the threshold.
		t.Errorf("severity = %s, want low", res.Severity)
	}
}

func TestCheckGroupZScoreSmallGroupsSkipped(t *testing.T) {
	headers := []string{"Amount", "Vendor"}
	rows := [][]any{
		{"100.00", "A"},
		{"99999.00", "A"}, // group of 2, below the minimum of 5
		{"50.00", "B"},
	}
	res := CheckGroupZScoreOutliers(makeBatch(t, headers, rows), DefaultConfig())
	if len(res.Findings) != 0 || res.Note == "" {
		t.Errorf("groups below minimum size must be skipped, got %+v", res)
	}
}

func TestCheckTemporalClusteringWeekend(t *testing.T) {
	headers := []string{"Amount", "Date", "Vendor"}
	rows := [][]any{
		// 2024-06-01 and 2024-06-08 are Saturdays; 2024-06-03 a Monday.
		{"100.00", "2024-06-01", "A"},
		{"200.00", "2024-06-08", "B"},
		{"300.00", "2024-06-01", "C"},
		{"400.00", "2024-06-03", "D"},
	}
	res := CheckTemporalClustering(makeBatch(t, headers, rows), DefaultConfig())

	// 3 of 4 postings on weekends: 75% vs 2/7 baseline is past 2x.
	if len(res.Findings) != 3 {
		t.Fatalf("expected 3 weekend findings, got %d: %v", len(res.Findings), res.Findings)
	}
	for _, f := range res.Findings {
		if f.RowIndex == 3 {
			t.Error("the Monday posting must not be flagged")
		}
	}
}

func TestCheckTemporalClusteringEvenSpread(t *testing.T) {
	headers := []string{"Amount", "Date", "Vendor"}
	rows := [][]any{
		// Mon-Thu mid-month: neither window exceeds its baseline.
		{"100.00", "2024-06-10", "A"},
		{"200.00", "2024-06-11", "B"},
		{"300.00", "2024-06-12", "C"},
		{"400.00", "2024-06-13", "D"},
	}
	res := CheckTemporalClustering(makeBatch(t, headers, rows), DefaultConfig())
	if len(res.Findings) != 0 || res.Severity != SeverityInfo {
		t.Errorf("even spread must not flag, got %+v", res)
	}
}

func TestCheckFrequencyAnomaly(t *testing.T) {
	headers := []string{"Amount", "Vendor"}
	var rows [][]any
	// One vendor posts 7 times, five others once each: mean 2, cutoff 6.
	for i := 0; i < 7; i++ {
		rows = append(rows, []any{"100.00", "Acme Corp"})
	}
	for i := 0; i < 5; i++ {
		rows = append(rows, []any{"100.00", "Vendor " + strconv.Itoa(i)})
	}
	res := CheckFrequencyAnomaly(makeBatch(t, headers, rows), DefaultConfig())

	if len(res.Findings) != 7 {
		t.Fatalf("expected all 7 Acme records flagged, got %d", len(res.Findings))
	}
	for _, f := range res.Findings {
		if f.Fields["entity"] != "Acme Corp" {
			t.Errorf("unexpected entity flagged: %v", f.Fields)
		}
	}
}

func TestCheckFrequencySingleEntity(t *testing.T) {
	headers := []string{"Amount", "Vendor"}
	rows := [][]any{
		{"1.00", "Only Vendor"},
		{"2.00", "Only Vendor"},
	}
	res := CheckFrequencyAnomaly(makeBatch(t, headers, rows), DefaultConfig())
	if len(res.Findings) != 0 || res.Note == "" {
		t.Errorf("a single entity has no peer baseline, got %+v", res)
	}
}
