// Package score aggregates heterogeneous check results into one weighted
// composite and maps it to a discrete risk tier. The mapping is identical for
// every domain caller; weights arrive as an explicit immutable value, never
// module-level state, so per-run overrides stay deterministic.
package score

import (
	"encoding/json"
	"fmt"
	"sort"

	"ledger_audit/pkg/core/checks"
	"ledger_audit/pkg/core/schema"
)

// RiskTier is the ordered overall batch classification.
type RiskTier int

const (
	RiskClean RiskTier = iota
	RiskLow
	RiskModerate
	RiskHigh
)

var riskNames = map[RiskTier]string{
	RiskClean:    "clean",
	RiskLow:      "low",
	RiskModerate: "moderate",
	RiskHigh:     "high",
}

func (r RiskTier) String() string {
	if name, ok := riskNames[r]; ok {
		return name
	}
	return fmt.Sprintf("risk_%d", int(r))
}

func (r RiskTier) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *RiskTier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for tier, n := range riskNames {
		if n == name {
			*r = tier
			return nil
		}
	}
	return fmt.Errorf("unknown risk tier %q", name)
}

// Weights is the published scoring calibration. Fraud-indicator checks weigh
// heaviest, reflecting their audit significance; cut points are fixed so the
// same score always lands in the same tier.
type Weights struct {
	Severity map[checks.Severity]float64 `json:"severity" yaml:"severity"`
	Tier     map[checks.Tier]float64     `json:"tier" yaml:"tier"`

	// Risk-tier cut points on the composite score.
	CleanBelow    float64 `json:"clean_below" yaml:"clean_below"`
	LowBelow      float64 `json:"low_below" yaml:"low_below"`
	ModerateBelow float64 `json:"moderate_below" yaml:"moderate_below"`
}

// DefaultWeights returns the calibrated scoring table.
func DefaultWeights() Weights {
	return Weights{
		Severity: map[checks.Severity]float64{
			checks.SeverityInfo:     0,
			checks.SeverityLow:      1,
			checks.SeverityModerate: 2,
			checks.SeverityHigh:     3,
			checks.SeverityCritical: 5,
		},
		Tier: map[checks.Tier]float64{
			checks.TierStructural:  1.0,
			checks.TierStatistical: 1.5,
			checks.TierFraud:       2.0,
		},
		CleanBelow:    0.10,
		LowBelow:      0.50,
		ModerateBelow: 1.50,
	}
}

// Validate rejects weight tables that would break score ordering.
func (w Weights) Validate() error {
	bad := func(reason string) error {
		return &schema.ConfigurationError{Reason: reason}
	}
	for sev := checks.SeverityInfo; sev <= checks.SeverityCritical; sev++ {
		if _, ok := w.Severity[sev]; !ok {
			return bad(fmt.Sprintf("severity weight for %q missing", sev))
		}
		if w.Severity[sev] < 0 {
			return bad(fmt.Sprintf("severity weight for %q is negative", sev))
		}
		if sev > checks.SeverityInfo && w.Severity[sev] < w.Severity[sev-1] {
			return bad("severity weights must be non-decreasing")
		}
	}
	for _, tier := range []checks.Tier{checks.TierStructural, checks.TierStatistical, checks.TierFraud} {
		if w.Tier[tier] <= 0 {
			return bad(fmt.Sprintf("tier weight for %q must be > 0", tier))
		}
	}
	if !(w.CleanBelow > 0 && w.CleanBelow < w.LowBelow && w.LowBelow < w.ModerateBelow) {
		return bad("risk cut points must be positive and strictly increasing")
	}
	return nil
}

// CompositeScore is the final aggregation of one run. Results are ordered by
// descending severity with test ID as the tie-break, so repeated runs on the
// same batch render byte-identically.
type CompositeScore struct {
	Score    float64         `json:"score"`
	RiskTier RiskTier        `json:"risk_tier"`
	Results  []checks.Result `json:"test_results"`
}

// Compute aggregates check results into the composite score.
//
// Each result contributes severity-weight x tier-weight x flagged-ratio, the
// ratio already capped at 1.0 upstream. Skipped checks contribute nothing.
// The function is pure: same results, same weights, same score.
func Compute(results []checks.Result, w Weights) CompositeScore {
	total := 0.0
	for _, res := range results {
		if res.Skipped {
			continue
		}
		total += w.Severity[res.Severity] * w.Tier[res.Tier] * res.FlaggedRatio
	}

	ordered := make([]checks.Result, len(results))
	copy(ordered, results)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Severity != ordered[j].Severity {
			return ordered[i].Severity > ordered[j].Severity
		}
		return ordered[i].TestID < ordered[j].TestID
	})

	return CompositeScore{
		Score:    total,
		RiskTier: w.tierFor(total),
		Results:  ordered,
	}
}

func (w Weights) tierFor(score float64) RiskTier {
	switch {
	case score < w.CleanBelow:
		return RiskClean
	case score < w.LowBelow:
		return RiskLow
	case score < w.ModerateBelow:
		return RiskModerate
	default:
		return RiskHigh
	}
}
