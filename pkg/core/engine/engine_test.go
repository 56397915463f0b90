package engine

import (
	"context"
	"errors"
	"testing"

	"ledger_audit/pkg/core/checks"
	"ledger_audit/pkg/core/parse"
	"ledger_audit/pkg/core/schema"
	"ledger_audit/pkg/core/score"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalog() *schema.Catalog {
	return &schema.Catalog{
		Domain: "accounts_payable",
		Fields: []schema.FieldSpec{
			{ID: "amount", Required: true, Kind: schema.KindNumber, Names: []string{"amount"}},
			{ID: "date", Required: true, Kind: schema.KindDate, Names: []string{"date"}},
			{ID: "entity", Required: true, Kind: schema.KindText, Names: []string{"vendor"}},
			{ID: "memo", Kind: schema.KindText, Names: []string{"memo"}},
		},
	}
}

func testRows() ([]string, [][]any) {
	headers := []string{"Date", "Vendor", "Amount", "Memo"}
	rows := [][]any{
		{"2024-01-05", "Acme Corp", "1204.17", "office supplies"},
		{"2024-01-08", "Globex", "389.50", "software license"},
		{"2024-01-09", "Initech", "2750.00", "consulting fee"},
		{"2024-01-10", "Acme Corp", "118.03", ""},
		{"2024-01-11", "Umbrella", "not-a-number", "rent"}, // excluded row
		{"2024-01-12", "Globex", "97.25", "shipping"},
	}
	return headers, rows
}

func TestEngineRunEndToEnd(t *testing.T) {
	eng, err := New(testCatalog(), nil, score.DefaultWeights())
	require.NoError(t, err)

	headers, rows := testRows()
	result, err := eng.Run(context.Background(), headers, rows)
	require.NoError(t, err)

	assert.Equal(t, "accounts_payable", result.Domain)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 6, result.RawRowCount)
	assert.Equal(t, 5, result.ParsedRecordCount)
	require.Len(t, result.DataQualityIssues, 1)
	assert.Equal(t, 4, result.DataQualityIssues[0].RowIndex)

	// Every check in the battery reports exactly once.
	assert.Len(t, result.Composite.Results, len(checks.Battery()))

	ids := make(map[string]bool)
	for _, res := range result.Composite.Results {
		ids[res.TestID] = true
	}
	for _, reg := range checks.Battery() {
		assert.True(t, ids[reg.ID], "missing result for %s", reg.ID)
	}
}

func TestEngineRunDeterministic(t *testing.T) {
	// Checks run concurrently, but two runs over the same batch must produce
	// identical composites. Only the run ID differs.
	eng, err := New(testCatalog(), nil, score.DefaultWeights())
	require.NoError(t, err)

	headers, rows := testRows()
	first, err := eng.Run(context.Background(), headers, rows)
	require.NoError(t, err)
	second, err := eng.Run(context.Background(), headers, rows)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.Equal(t, first.Composite, second.Composite)
	assert.Equal(t, first.DataQualityIssues, second.DataQualityIssues)
	assert.Equal(t, first.Mapping, second.Mapping)
}

func TestEngineRunMissingRequiredField(t *testing.T) {
	eng, err := New(testCatalog(), nil, score.DefaultWeights())
	require.NoError(t, err)

	// No header maps to the required amount field.
	headers := []string{"Date", "Vendor", "Memo"}
	_, err = eng.Run(context.Background(), headers, [][]any{{"2024-01-05", "Acme", "x"}})
	require.Error(t, err)

	var missing *schema.MissingRequiredFieldError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"amount"}, missing.Fields)
}

func TestEngineRunCancelledContext(t *testing.T) {
	eng, err := New(testCatalog(), nil, score.DefaultWeights())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	headers, rows := testRows()
	_, err = eng.Run(ctx, headers, rows)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineRejectsBadConfiguration(t *testing.T) {
	var confErr *schema.ConfigurationError

	_, err := New(nil, nil, score.DefaultWeights())
	assert.True(t, errors.As(err, &confErr), "nil catalog must fail construction")

	cfg := checks.DefaultConfig()
	cfg.MinGroupSize = 0
	_, err = New(testCatalog(), cfg, score.DefaultWeights())
	assert.True(t, errors.As(err, &confErr), "bad thresholds must fail construction")

	w := score.DefaultWeights()
	w.Tier[checks.TierFraud] = -1
	_, err = New(testCatalog(), nil, w)
	assert.True(t, errors.As(err, &confErr), "bad weights must fail construction")
}

func TestRunIsolatedRecoversPanic(t *testing.T) {
	eng, err := New(testCatalog(), nil, score.DefaultWeights())
	require.NoError(t, err)

	reg := checks.Registration{
		ID:   "exploding_check",
		Tier: checks.TierStatistical,
		Run: func(_ *parse.Batch, _ *checks.Config) checks.Result {
			panic("index out of range")
		},
	}

	result := eng.runIsolated(reg, nil)
	assert.True(t, result.Skipped)
	assert.Equal(t, "exploding_check", result.TestID)
	assert.Contains(t, result.SkipReason, "index out of range")
	assert.Empty(t, result.Findings)
}
