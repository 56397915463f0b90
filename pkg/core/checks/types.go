// Package checks implements the audit test battery. Every check is a pure
// function over an immutable record batch: no check depends on another, and
// the engine may evaluate them concurrently. A check with no eligible input
// reports zero findings at informational severity — absence of signal is not
// a fault.
package checks

import (
	"encoding/json"
	"fmt"

	"ledger_audit/pkg/core/parse"
)

// Tier is the escalating check category.
type Tier int

const (
	TierStructural  Tier = 1 // deterministic rule checks
	TierStatistical Tier = 2 // whole-batch distribution checks
	TierFraud       Tier = 3 // heuristic fraud-indicator patterns
)

func (t Tier) String() string {
	switch t {
	case TierStructural:
		return "structural"
	case TierStatistical:
		return "statistical"
	case TierFraud:
		return "fraud_indicator"
	default:
		return fmt.Sprintf("tier_%d", int(t))
	}
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "structural":
		*t = TierStructural
	case "statistical":
		*t = TierStatistical
	case "fraud_indicator":
		*t = TierFraud
	default:
		return fmt.Errorf("unknown tier %q", name)
	}
	return nil
}

// Severity is the shared ordered scale used by every check so results are
// comparable across tiers.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityLow
	SeverityModerate
	SeverityHigh
	SeverityCritical
)

var severityNames = map[Severity]string{
	SeverityInfo:     "informational",
	SeverityLow:      "low",
	SeverityModerate: "moderate",
	SeverityHigh:     "high",
	SeverityCritical: "critical",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity_%d", int(s))
}

func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for sev, n := range severityNames {
		if n == name {
			*s = sev
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// Finding references one flagged record. It carries the row index and only
// the field values relevant to the finding — never the full row.
type Finding struct {
	RowIndex    int               `json:"row_index"`
	Fields      map[string]string `json:"fields,omitempty"`
	Explanation string            `json:"explanation"`
}

// Result is the immutable outcome of one check over one batch.
type Result struct {
	TestID       string    `json:"test_id"`
	Tier         Tier      `json:"tier"`
	Severity     Severity  `json:"severity"`
	Metric       float64   `json:"metric"`
	FlaggedRatio float64   `json:"flagged_ratio"`
	Findings     []Finding `json:"findings"`
	Note         string    `json:"note,omitempty"`
	Skipped      bool      `json:"skipped,omitempty"`
	SkipReason   string    `json:"skip_reason,omitempty"`
}

// CheckFunc is the uniform check signature. Implementations must be pure:
// same batch and config always produce the same result.
type CheckFunc func(batch *parse.Batch, cfg *Config) Result

// gradeSeverity converts a deviation factor — the observed measure divided by
// its configured threshold — into the shared severity scale. At or below the
// threshold the finding is informational; escalation bands are fixed so the
// same factor means the same severity in every check.
func gradeSeverity(factor float64) Severity {
	switch {
	case factor <= 1.0:
		return SeverityInfo
	case factor <= 1.5:
		return SeverityLow
	case factor <= 2.0:
		return SeverityModerate
	case factor <= 3.0:
		return SeverityHigh
	default:
		return SeverityCritical
	}
}

// ratio returns flagged/total capped at 1.0. The cap keeps one pathological
// check from dominating the composite score.
func ratio(flagged, total int) float64 {
	if total == 0 {
		return 0
	}
	r := float64(flagged) / float64(total)
	if r > 1.0 {
		return 1.0
	}
	return r
}

// noData builds the uniform "no eligible input" result.
func noData(id string, tier Tier, note string) Result {
	return Result{
		TestID:   id,
		Tier:     tier,
		Severity: SeverityInfo,
		Note:     note,
	}
}
