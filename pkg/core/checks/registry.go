package checks

// Registration binds a check ID and tier to its implementation. Domain engines
// supply catalogs and threshold overrides, never new check logic; the battery
// itself is shared.
type Registration struct {
	ID   string
	Tier Tier
	Run  CheckFunc
}

// Battery returns the full check registry in its canonical order. The order
// only affects log output — the engine runs checks concurrently and sorts
// results deterministically afterward.
func Battery() []Registration {
	return []Registration{
		// Tier 1: structural
		{ID: "balance_integrity", Tier: TierStructural, Run: CheckBalanceIntegrity},
		{ID: "field_completeness", Tier: TierStructural, Run: CheckFieldCompleteness},
		{ID: "exact_duplicates", Tier: TierStructural, Run: CheckExactDuplicates},
		{ID: "round_amounts", Tier: TierStructural, Run: CheckRoundAmounts},
		{ID: "magnitude_outliers", Tier: TierStructural, Run: CheckMagnitudeOutliers},

		// Tier 2: statistical
		{ID: "benford_first_digit", Tier: TierStatistical, Run: CheckBenfordFirstDigit},
		{ID: "group_zscore_outliers", Tier: TierStatistical, Run: CheckGroupZScoreOutliers},
		{ID: "temporal_clustering", Tier: TierStatistical, Run: CheckTemporalClustering},
		{ID: "frequency_anomaly", Tier: TierStatistical, Run: CheckFrequencyAnomaly},

		// Tier 3: fraud indicator
		{ID: "fuzzy_duplicates", Tier: TierFraud, Run: CheckFuzzyDuplicates},
		{ID: "below_approval_threshold", Tier: TierFraud, Run: CheckBelowApprovalThreshold},
		{ID: "suspicious_keywords", Tier: TierFraud, Run: CheckSuspiciousKeywords},
		{ID: "entity_name_variants", Tier: TierFraud, Run: CheckEntityNameVariants},
	}
}
