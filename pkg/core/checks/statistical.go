package checks

import (
	"fmt"
	"sort"
	"time"

	"ledger_audit/pkg/core/parse"
	"ledger_audit/pkg/core/stats"
)

// =============================================================================
// TIER 2 — STATISTICAL CHECKS
// Distribution checks over the whole batch.
// =============================================================================

// CheckBenfordFirstDigit runs leading-digit conformity analysis over all
// positive amounts. Below the minimum sample the check reports insufficient
// data rather than a misleading classification. When the batch deviates, the
// records leading with the most over-represented digit are flagged so the
// finding points at reviewable rows.
func CheckBenfordFirstDigit(batch *parse.Batch, cfg *Config) Result {
	const id = "benford_first_digit"
	amounts, recs := amountColumn(batch, cfg)
	if len(amounts) == 0 {
		return noData(id, TierStatistical, "no amount column in this batch")
	}

	analysis := stats.AnalyzeBenford(amounts)
	if analysis.Level == stats.ConformityInsufficientData {
		return Result{
			TestID:   id,
			Tier:     TierStatistical,
			Severity: SeverityInfo,
			Metric:   analysis.MAD,
			Note:     fmt.Sprintf("insufficient data: %d positive amounts, need %d", analysis.TotalCount, stats.BenfordMinSample),
		}
	}

	var severity Severity
	switch analysis.Level {
	case stats.ConformityConforming:
		severity = SeverityInfo
	case stats.ConformityAcceptable:
		severity = SeverityLow
	case stats.ConformityMarginal:
		severity = SeverityModerate
	default:
		severity = SeverityHigh
		if analysis.MAD > 0.030 {
			severity = SeverityCritical
		}
	}

	var findings []Finding
	if severity >= SeverityModerate {
		digit := dominantDigit(analysis)
		for i, a := range amounts {
			if a.Sign() > 0 && leadingDigitOf(a.Abs().String()) == digit {
				findings = append(findings, Finding{
					RowIndex:    recs[i].RowIndex,
					Fields:      map[string]string{cfg.Roles.Amount: a.String()},
					Explanation: fmt.Sprintf("leads with digit %d, observed %.1f%% vs expected %.1f%%", digit, analysis.DigitFrequencies[digit]*100, stats.BenfordExpected[digit]*100),
				})
			}
		}
	}

	return Result{
		TestID:       id,
		Tier:         TierStatistical,
		Severity:     severity,
		Metric:       analysis.MAD,
		FlaggedRatio: ratio(len(findings), batch.Len()),
		Findings:     findings,
		Note:         string(analysis.Level),
	}
}

// dominantDigit returns the leading digit with the largest positive deviation
// from its expected frequency.
func dominantDigit(a stats.BenfordResult) int {
	best, excess := 1, -1.0
	for d := 1; d <= 9; d++ {
		diff := a.DigitFrequencies[d] - stats.BenfordExpected[d]
		if diff > excess {
			best, excess = d, diff
		}
	}
	return best
}

func leadingDigitOf(s string) int {
	for _, c := range s {
		if c >= '1' && c <= '9' {
			return int(c - '0')
		}
	}
	return 0
}

// CheckGroupZScoreOutliers groups records by entity and flags amounts whose
// deviation from the group mean exceeds the configured number of standard
// deviations. Groups below the minimum sample size are skipped; identical
// amounts (zero variance) never flag.
func CheckGroupZScoreOutliers(batch *parse.Batch, cfg *Config) Result {
	const id = "group_zscore_outliers"
	if !batch.Mapping.Has(cfg.Roles.Entity) || !batch.Mapping.Has(cfg.Roles.Amount) {
		return noData(id, TierStatistical, "needs both entity and amount columns")
	}

	groups := groupByEntity(batch, cfg)
	keys := sortedKeys(groups)

	var findings []Finding
	worst := 0.0
	eligibleGroups := 0

	for _, entity := range keys {
		members := groups[entity]
		if len(members) < cfg.MinGroupSize {
			continue
		}
		eligibleGroups++

		values := make([]float64, len(members))
		for i, rec := range members {
			a, _ := rec.Amount(cfg.Roles.Amount)
			values[i] = a.InexactFloat64()
		}
		moments := stats.ComputeMoments(values)

		for i, rec := range members {
			z := moments.ZScore(values[i])
			absZ := z
			if absZ < 0 {
				absZ = -absZ
			}
			if absZ > cfg.ZScoreThreshold {
				a, _ := rec.Amount(cfg.Roles.Amount)
				findings = append(findings, Finding{
					RowIndex: rec.RowIndex,
					Fields: map[string]string{
						cfg.Roles.Entity: entity,
						cfg.Roles.Amount: a.String(),
					},
					Explanation: fmt.Sprintf("amount %s is %.1f std devs from the %q group mean of %.2f (n=%d)", a, z, entity, moments.Mean, moments.N),
				})
				if absZ/cfg.ZScoreThreshold > worst {
					worst = absZ / cfg.ZScoreThreshold
				}
			}
		}
	}

	if eligibleGroups == 0 {
		return noData(id, TierStatistical, fmt.Sprintf("no entity group reaches the minimum sample size of %d", cfg.MinGroupSize))
	}

	sortFindings(findings)
	return Result{
		TestID:       id,
		Tier:         TierStatistical,
		Severity:     gradeSeverity(worst),
		Metric:       worst,
		FlaggedRatio: ratio(len(findings), batch.Len()),
		Findings:     findings,
	}
}

// CheckTemporalClustering compares the batch's weekend and month-end posting
// shares against their calendar baselines (2/7 and 3/30). A window whose share
// exceeds the configured multiple of baseline flags every record in it. Dates
// come from the records themselves, never the current system clock.
func CheckTemporalClustering(batch *parse.Batch, cfg *Config) Result {
	const id = "temporal_clustering"
	if !batch.Mapping.Has(cfg.Roles.Date) {
		return noData(id, TierStatistical, "no date column in this batch")
	}

	type window struct {
		name     string
		baseline float64
		match    func(time.Time) bool
	}
	windows := []window{
		{"weekend", 2.0 / 7.0, func(t time.Time) bool {
			wd := t.Weekday()
			return wd == time.Saturday || wd == time.Sunday
		}},
		{"month-end", 0.10, func(t time.Time) bool {
			lastDay := time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
			return t.Day() > lastDay-3
		}},
	}

	var dated []*parse.Record
	for _, rec := range batch.Records {
		if _, ok := rec.Date(cfg.Roles.Date); ok {
			dated = append(dated, rec)
		}
	}
	if len(dated) == 0 {
		return noData(id, TierStatistical, "no records carry a parseable date")
	}

	var findings []Finding
	worst := 0.0
	for _, w := range windows {
		var inWindow []*parse.Record
		for _, rec := range dated {
			d, _ := rec.Date(cfg.Roles.Date)
			if w.match(d) {
				inWindow = append(inWindow, rec)
			}
		}
		share := float64(len(inWindow)) / float64(len(dated))
		factor := share / (w.baseline * cfg.TemporalMultiple)
		if factor > worst {
			worst = factor
		}
		if factor > 1.0 {
			for _, rec := range inWindow {
				d, _ := rec.Date(cfg.Roles.Date)
				findings = append(findings, Finding{
					RowIndex:    rec.RowIndex,
					Fields:      map[string]string{cfg.Roles.Date: d.Format("2006-01-02")},
					Explanation: fmt.Sprintf("%s posting; %.0f%% of batch falls on %s days vs %.0f%% baseline", w.name, share*100, w.name, w.baseline*100),
				})
			}
		}
	}

	sortFindings(findings)
	return Result{
		TestID:       id,
		Tier:         TierStatistical,
		Severity:     gradeSeverity(worst),
		Metric:       worst,
		FlaggedRatio: ratio(len(findings), batch.Len()),
		Findings:     findings,
	}
}

// CheckFrequencyAnomaly flags entities that appear far more often than the
// batch's typical per-entity rate.
func CheckFrequencyAnomaly(batch *parse.Batch, cfg *Config) Result {
	const id = "frequency_anomaly"
	if !batch.Mapping.Has(cfg.Roles.Entity) {
		return noData(id, TierStatistical, "no entity column in this batch")
	}

	groups := groupByEntity(batch, cfg)
	if len(groups) < 2 {
		return noData(id, TierStatistical, "fewer than two distinct entities")
	}

	total := 0
	for _, members := range groups {
		total += len(members)
	}
	mean := float64(total) / float64(len(groups))
	cutoff := mean * cfg.FrequencyMultiple

	var findings []Finding
	worst := 0.0
	for _, entity := range sortedKeys(groups) {
		members := groups[entity]
		count := float64(len(members))
		if count > cutoff && len(members) >= cfg.MinGroupSize {
			if count/cutoff > worst {
				worst = count / cutoff
			}
			for _, rec := range members {
				findings = append(findings, Finding{
					RowIndex:    rec.RowIndex,
					Fields:      map[string]string{cfg.Roles.Entity: entity},
					Explanation: fmt.Sprintf("%q appears %d times vs a per-entity mean of %.1f", entity, len(members), mean),
				})
			}
		}
	}

	sortFindings(findings)
	return Result{
		TestID:       id,
		Tier:         TierStatistical,
		Severity:     gradeSeverity(worst),
		Metric:       worst,
		FlaggedRatio: ratio(len(findings), batch.Len()),
		Findings:     findings,
	}
}

// groupByEntity partitions records by their entity text, preserving batch
// order inside each group.
func groupByEntity(batch *parse.Batch, cfg *Config) map[string][]*parse.Record {
	groups := make(map[string][]*parse.Record)
	for _, rec := range batch.Records {
		entity, ok := rec.Text(cfg.Roles.Entity)
		if !ok {
			continue
		}
		groups[entity] = append(groups[entity], rec)
	}
	return groups
}

func sortedKeys(groups map[string][]*parse.Record) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
