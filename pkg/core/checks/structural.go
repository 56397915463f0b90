package checks

import (
	"fmt"
	"sort"
	"strings"

	"ledger_audit/pkg/core/parse"
	"ledger_audit/pkg/core/stats"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TIER 1 — STRUCTURAL CHECKS
// Deterministic rule checks over individual records.
// =============================================================================

// CheckBalanceIntegrity verifies debits equal credits within tolerance on each
// record carrying both sides. Batches without debit/credit columns (AP,
// payroll) report no eligible data.
func CheckBalanceIntegrity(batch *parse.Batch, cfg *Config) Result {
	const id = "balance_integrity"
	if !batch.Mapping.Has(cfg.Roles.Debit) || !batch.Mapping.Has(cfg.Roles.Credit) {
		return noData(id, TierStructural, "debit/credit columns not present in this batch")
	}

	tolerance := decimal.NewFromFloat(cfg.BalanceTolerance)
	var findings []Finding
	eligible := 0

	for _, rec := range batch.Records {
		debit, okD := rec.Amount(cfg.Roles.Debit)
		credit, okC := rec.Amount(cfg.Roles.Credit)
		if !okD || !okC {
			continue
		}
		eligible++

		gap := debit.Sub(credit).Abs()
		if gap.GreaterThan(tolerance) {
			findings = append(findings, Finding{
				RowIndex: rec.RowIndex,
				Fields: map[string]string{
					cfg.Roles.Debit:  debit.String(),
					cfg.Roles.Credit: credit.String(),
				},
				Explanation: fmt.Sprintf("debit %s and credit %s differ by %s", debit, credit, gap),
			})
		}
	}

	if eligible == 0 {
		return noData(id, TierStructural, "no records carry both debit and credit values")
	}

	r := ratio(len(findings), batch.Len())
	return Result{
		TestID:       id,
		Tier:         TierStructural,
		Severity:     gradeSeverity(r / cfg.BalanceAlarm),
		Metric:       r,
		FlaggedRatio: r,
		Findings:     findings,
	}
}

// CheckFieldCompleteness measures how many records are missing values for
// mapped optional fields. Required-field gaps were already excluded by the
// parser; this surfaces degraded-but-kept rows.
func CheckFieldCompleteness(batch *parse.Batch, cfg *Config) Result {
	const id = "field_completeness"
	if batch.Len() == 0 {
		return noData(id, TierStructural, "empty batch")
	}

	var optional []string
	for field := range batch.Mapping.Matches {
		optional = append(optional, field)
	}
	sort.Strings(optional)

	var findings []Finding
	for _, rec := range batch.Records {
		var missing []string
		for _, field := range optional {
			if _, ok := rec.Display(field); !ok {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			findings = append(findings, Finding{
				RowIndex:    rec.RowIndex,
				Explanation: "missing values for: " + strings.Join(missing, ", "),
			})
		}
	}

	r := ratio(len(findings), batch.Len())
	return Result{
		TestID:       id,
		Tier:         TierStructural,
		Severity:     gradeSeverity(r / cfg.CompletenessAlarm),
		Metric:       r,
		FlaggedRatio: r,
		Findings:     findings,
	}
}

// CheckExactDuplicates flags every member of a group of records whose mapped
// field values are all equal. Group membership is keyed on the rendered
// values, so "100.00" and "100" collapse to the same amount first.
func CheckExactDuplicates(batch *parse.Batch, cfg *Config) Result {
	const id = "exact_duplicates"
	if batch.Len() == 0 {
		return noData(id, TierStructural, "empty batch")
	}

	var fields []string
	for field := range batch.Mapping.Matches {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	groups := make(map[string][]*parse.Record)
	for _, rec := range batch.Records {
		var parts []string
		for _, field := range fields {
			v, _ := rec.Display(field)
			parts = append(parts, v)
		}
		key := strings.Join(parts, "\x1f")
		groups[key] = append(groups[key], rec)
	}

	var keys []string
	for key, members := range groups {
		if len(members) > 1 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	var findings []Finding
	for _, key := range keys {
		members := groups[key]
		for _, rec := range members {
			findings = append(findings, Finding{
				RowIndex:    rec.RowIndex,
				Explanation: fmt.Sprintf("identical to %d other record(s) across all mapped fields", len(members)-1),
			})
		}
	}
	sortFindings(findings)

	r := ratio(len(findings), batch.Len())
	return Result{
		TestID:       id,
		Tier:         TierStructural,
		Severity:     gradeSeverity(r / cfg.DuplicateAlarm),
		Metric:       r,
		FlaggedRatio: r,
		Findings:     findings,
	}
}

// CheckRoundAmounts flags amounts exactly divisible by the configured power of
// ten. Genuine invoices rarely land on round hundreds; a high share suggests
// estimates or fabrication.
func CheckRoundAmounts(batch *parse.Batch, cfg *Config) Result {
	const id = "round_amounts"
	amounts, recs := amountColumn(batch, cfg)
	if len(amounts) == 0 {
		return noData(id, TierStructural, "no amount column in this batch")
	}

	divisor := decimal.New(1, int32(cfg.RoundAmountPower))
	var findings []Finding
	for i, amount := range amounts {
		if amount.IsZero() {
			continue
		}
		if amount.Mod(divisor).IsZero() {
			findings = append(findings, Finding{
				RowIndex:    recs[i].RowIndex,
				Fields:      map[string]string{cfg.Roles.Amount: amount.String()},
				Explanation: fmt.Sprintf("amount %s is an exact multiple of %s", amount, divisor),
			})
		}
	}

	r := ratio(len(findings), len(amounts))
	return Result{
		TestID:       id,
		Tier:         TierStructural,
		Severity:     gradeSeverity(r / cfg.RoundAmountAlarm),
		Metric:       r,
		FlaggedRatio: ratio(len(findings), batch.Len()),
		Findings:     findings,
	}
}

// CheckMagnitudeOutliers flags single records whose absolute amount exceeds a
// fixed multiple of the column's observed median. Severity scales with the
// worst offender's distance beyond that cutoff.
func CheckMagnitudeOutliers(batch *parse.Batch, cfg *Config) Result {
	const id = "magnitude_outliers"
	amounts, recs := amountColumn(batch, cfg)
	if len(amounts) == 0 {
		return noData(id, TierStructural, "no amount column in this batch")
	}

	abs := make([]float64, len(amounts))
	for i, a := range amounts {
		abs[i] = a.Abs().InexactFloat64()
	}
	median := stats.Median(abs)
	if median == 0 {
		return noData(id, TierStructural, "median amount is zero")
	}

	cutoff := median * cfg.MagnitudeMultiple
	var findings []Finding
	worst := 0.0
	for i, v := range abs {
		if v > cutoff {
			findings = append(findings, Finding{
				RowIndex:    recs[i].RowIndex,
				Fields:      map[string]string{cfg.Roles.Amount: amounts[i].String()},
				Explanation: fmt.Sprintf("amount %s is %.1fx the batch median of %.2f", amounts[i], v/median, median),
			})
			if v/cutoff > worst {
				worst = v / cutoff
			}
		}
	}

	return Result{
		TestID:       id,
		Tier:         TierStructural,
		Severity:     gradeSeverity(worst),
		Metric:       worst,
		FlaggedRatio: ratio(len(findings), batch.Len()),
		Findings:     findings,
	}
}

// amountColumn collects the primary amount for every record that has one,
// in batch order, paired with its record.
func amountColumn(batch *parse.Batch, cfg *Config) ([]decimal.Decimal, []*parse.Record) {
	if !batch.Mapping.Has(cfg.Roles.Amount) {
		return nil, nil
	}
	var amounts []decimal.Decimal
	var recs []*parse.Record
	for _, rec := range batch.Records {
		if a, ok := rec.Amount(cfg.Roles.Amount); ok {
			amounts = append(amounts, a)
			recs = append(recs, rec)
		}
	}
	return amounts, recs
}

func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].RowIndex < findings[j].RowIndex
	})
}
