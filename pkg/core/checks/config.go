package checks

import (
	"fmt"

	"ledger_audit/pkg/core/schema"
)

// Roles names the semantic fields the battery reads. Catalogs map raw headers
// onto these IDs; domains that lack a role simply leave it unmapped and the
// affected checks report no eligible data.
type Roles struct {
	Amount string `json:"amount" yaml:"amount"`
	Debit  string `json:"debit" yaml:"debit"`
	Credit string `json:"credit" yaml:"credit"`
	Date   string `json:"date" yaml:"date"`
	Entity string `json:"entity" yaml:"entity"`
	Memo   string `json:"memo" yaml:"memo"`
}

// DefaultRoles matches the field IDs used by the shipped catalogs.
func DefaultRoles() Roles {
	return Roles{
		Amount: "amount",
		Debit:  "debit",
		Credit: "credit",
		Date:   "date",
		Entity: "entity",
		Memo:   "memo",
	}
}

// Config carries every tuned threshold the battery reads. It is passed
// explicitly into each check — no module-level mutable state — so per-run
// overrides stay deterministic and testable.
type Config struct {
	Roles Roles `json:"roles" yaml:"roles"`

	// Tier 1: structural
	BalanceTolerance     float64 `json:"balance_tolerance" yaml:"balance_tolerance"`           // abs gap allowed between debits and credits
	BalanceAlarm         float64 `json:"balance_alarm" yaml:"balance_alarm"`                   // unbalanced-row ratio that trips the check
	CompletenessAlarm    float64 `json:"completeness_alarm" yaml:"completeness_alarm"`         // missing-optional-value ratio that trips the check
	DuplicateAlarm       float64 `json:"duplicate_alarm" yaml:"duplicate_alarm"`               // duplicate-record ratio that trips the check
	RoundAmountPower     int     `json:"round_amount_power" yaml:"round_amount_power"`         // flag amounts divisible by 10^n
	RoundAmountAlarm     float64 `json:"round_amount_alarm" yaml:"round_amount_alarm"`         // round-amount ratio that trips the check
	MagnitudeMultiple    float64 `json:"magnitude_multiple" yaml:"magnitude_multiple"`         // single-record outlier at n x field median

	// Tier 2: statistical
	ZScoreThreshold   float64 `json:"zscore_threshold" yaml:"zscore_threshold"`       // per-group deviation cutoff in std devs
	MinGroupSize      int     `json:"min_group_size" yaml:"min_group_size"`           // groups smaller than this are skipped
	TemporalMultiple  float64 `json:"temporal_multiple" yaml:"temporal_multiple"`     // observed window share over baseline
	FrequencyMultiple float64 `json:"frequency_multiple" yaml:"frequency_multiple"`   // entity count over mean per-entity count

	// Tier 3: fraud indicator
	SimilarityThreshold  float64  `json:"similarity_threshold" yaml:"similarity_threshold"`     // fuzzy-match cutoff in [0,1]
	AmountTolerancePct   float64  `json:"amount_tolerance_pct" yaml:"amount_tolerance_pct"`     // relative amount gap for fuzzy pairs
	ApprovalLimit        float64  `json:"approval_limit" yaml:"approval_limit"`                 // authorization limit; 0 disables the check
	BelowThresholdWindow float64  `json:"below_threshold_window" yaml:"below_threshold_window"` // fraction under the limit that counts as "just below"
	BelowThresholdAlarm  float64  `json:"below_threshold_alarm" yaml:"below_threshold_alarm"`   // just-below ratio that trips the check
	KeywordAlarm         float64  `json:"keyword_alarm" yaml:"keyword_alarm"`                   // keyword-hit ratio that trips the check
	Keywords             []string `json:"keywords" yaml:"keywords"`
}

// DefaultKeywords is the curated suspicious-memo list. Empirically assembled
// from audit workpapers; extend per engagement through config, not code.
var DefaultKeywords = []string{
	"urgent",
	"consulting fee",
	"miscellaneous",
	"adjustment",
	"correction",
	"reclass",
	"gift",
	"cash advance",
	"write off",
	"override",
	"manual entry",
	"do not mail",
}

// DefaultConfig returns the calibrated defaults. The numeric values encode
// domain calibration; change them per engagement via overrides, not here.
func DefaultConfig() *Config {
	return &Config{
		Roles:                DefaultRoles(),
		BalanceTolerance:     0.01,
		BalanceAlarm:         0.01,
		CompletenessAlarm:    0.10,
		DuplicateAlarm:       0.02,
		RoundAmountPower:     2,
		RoundAmountAlarm:     0.05,
		MagnitudeMultiple:    10.0,
		ZScoreThreshold:      3.0,
		MinGroupSize:         5,
		TemporalMultiple:     2.0,
		FrequencyMultiple:    3.0,
		SimilarityThreshold:  0.85,
		AmountTolerancePct:   0.01,
		ApprovalLimit:        0,
		BelowThresholdWindow: 0.05,
		BelowThresholdAlarm:  0.02,
		KeywordAlarm:         0.02,
		Keywords:             DefaultKeywords,
	}
}

// Validate rejects configurations no check could act on sensibly. Runs before
// any check executes; a bad config fails the whole run.
func (c *Config) Validate() error {
	bad := func(reason string) error {
		return &schema.ConfigurationError{Reason: reason}
	}

	if c.BalanceTolerance < 0 {
		return bad("balance_tolerance must be >= 0")
	}
	if c.RoundAmountPower < 0 {
		return bad("round_amount_power must be >= 0")
	}
	if c.MagnitudeMultiple <= 1 {
		return bad("magnitude_multiple must be > 1")
	}
	if c.ZScoreThreshold <= 0 {
		return bad("zscore_threshold must be > 0")
	}
	if c.MinGroupSize < 2 {
		return bad("min_group_size must be >= 2")
	}
	if c.TemporalMultiple <= 1 {
		return bad("temporal_multiple must be > 1")
	}
	if c.FrequencyMultiple <= 1 {
		return bad("frequency_multiple must be > 1")
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return bad("similarity_threshold must be in (0,1]")
	}
	if c.AmountTolerancePct < 0 || c.AmountTolerancePct >= 1 {
		return bad("amount_tolerance_pct must be in [0,1)")
	}
	if c.ApprovalLimit < 0 {
		return bad("approval_limit must be >= 0")
	}
	if c.BelowThresholdWindow <= 0 || c.BelowThresholdWindow >= 1 {
		return bad("below_threshold_window must be in (0,1)")
	}
	for _, alarm := range []struct {
		name  string
		value float64
	}{
		{"balance_alarm", c.BalanceAlarm},
		{"completeness_alarm", c.CompletenessAlarm},
		{"duplicate_alarm", c.DuplicateAlarm},
		{"round_amount_alarm", c.RoundAmountAlarm},
		{"below_threshold_alarm", c.BelowThresholdAlarm},
		{"keyword_alarm", c.KeywordAlarm},
	} {
		if alarm.value <= 0 || alarm.value > 1 {
			return bad(fmt.Sprintf("%s must be in (0,1]", alarm.name))
		}
	}
	return nil
}
