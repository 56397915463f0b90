// Package engine orchestrates one audit run end to end: detect columns, parse
// records, evaluate the check battery, aggregate the composite score. Every
// run is a stateless computation over an in-memory batch; nothing is persisted
// and no run shares mutable state with another.
package engine

import (
	"context"
	"fmt"
	"sync"

	"ledger_audit/pkg/core/checks"
	"ledger_audit/pkg/core/parse"
	"ledger_audit/pkg/core/schema"
	"ledger_audit/pkg/core/score"

	"github.com/google/uuid"
)

// Engine runs audits for one domain catalog with one calibration. Construct
// once, run many batches; the engine itself is immutable and safe for
// concurrent use.
type Engine struct {
	catalog *schema.Catalog
	cfg     *checks.Config
	weights score.Weights
	battery []checks.Registration
}

// New validates the whole configuration up front. A malformed catalog,
// threshold table, or weight table fails here — before any check ever runs.
func New(catalog *schema.Catalog, cfg *checks.Config, weights score.Weights) (*Engine, error) {
	if catalog == nil {
		return nil, &schema.ConfigurationError{Reason: "no catalog supplied"}
	}
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = checks.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	return &Engine{
		catalog: catalog,
		cfg:     cfg,
		weights: weights,
		battery: checks.Battery(),
	}, nil
}

// RunResult is the serializable outcome of one run. It carries row indexes
// and the field values relevant to each finding, never full-row payloads —
// the caller's in-memory-only guarantee extends through this boundary.
type RunResult struct {
	RunID             string                    `json:"run_id"`
	Domain            string                    `json:"domain"`
	Mapping           *schema.ColumnMapping     `json:"mapping"`
	DetectionWarnings []schema.DetectionWarning `json:"detection_warnings,omitempty"`
	RawRowCount       int                       `json:"raw_row_count"`
	ParsedRecordCount int                       `json:"parsed_record_count"`
	DataQualityIssues []parse.DataQualityIssue  `json:"data_quality_issues,omitempty"`
	Composite         score.CompositeScore      `json:"composite_score"`
}

// Run executes the full audit over one raw batch.
//
// Checks are mutually independent pure functions, so they run concurrently;
// the only synchronization is collecting results, and the composite sort makes
// the output order deterministic regardless of scheduling. A check that
// panics is isolated: it becomes a skipped result with a reason and the rest
// of the battery still runs.
func (e *Engine) Run(ctx context.Context, headers []string, rows [][]any) (*RunResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mapping, warnings, err := schema.DetectColumns(headers, e.catalog)
	if err != nil {
		return nil, err
	}

	batch, issues := parse.ParseRows(rows, mapping, e.catalog)

	results := make([]checks.Result, len(e.battery))
	var wg sync.WaitGroup
	for i, reg := range e.battery {
		wg.Add(1)
		go func(i int, reg checks.Registration) {
			defer wg.Done()
			results[i] = e.runIsolated(reg, batch)
		}(i, reg)
	}
	wg.Wait()

	composite := score.Compute(results, e.weights)

	return &RunResult{
		RunID:             uuid.New().String(),
		Domain:            e.catalog.Domain,
		Mapping:           mapping,
		DetectionWarnings: warnings,
		RawRowCount:       batch.RawRowCount,
		ParsedRecordCount: batch.Len(),
		DataQualityIssues: issues,
		Composite:         composite,
	}, nil
}

// runIsolated evaluates one check and converts an internal fault into a
// skipped result instead of letting it take down the battery.
func (e *Engine) runIsolated(reg checks.Registration, batch *parse.Batch) (result checks.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = checks.Result{
				TestID:     reg.ID,
				Tier:       reg.Tier,
				Severity:   checks.SeverityInfo,
				Skipped:    true,
				SkipReason: fmt.Sprintf("check failed internally: %v", r),
			}
		}
	}()
	return reg.Run(batch, e.cfg)
}
