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
// TIER 3 — FRAUD-INDICATOR CHECKS
// Heuristic pattern checks. Weighted highest by the composite scorer.
// =============================================================================

// CheckFuzzyDuplicates finds record pairs that are not byte-identical but
// whose entity names are highly similar and whose amounts match within a small
// relative tolerance. Similarity alone never triggers a finding — the amount
// condition must hold too.
//
// Candidates are pre-bucketed by the first letters of the normalized entity
// name, keeping the pairwise similarity work bounded instead of quadratic over
// the whole batch.
func CheckFuzzyDuplicates(batch *parse.Batch, cfg *Config) Result {
	const id = "fuzzy_duplicates"
	if !batch.Mapping.Has(cfg.Roles.Entity) || !batch.Mapping.Has(cfg.Roles.Amount) {
		return noData(id, TierFraud, "needs both entity and amount columns")
	}

	type candidate struct {
		rec    *parse.Record
		name   string
		amount decimal.Decimal
	}

	buckets := make(map[string][]candidate)
	for _, rec := range batch.Records {
		name, okN := rec.Text(cfg.Roles.Entity)
		amount, okA := rec.Amount(cfg.Roles.Amount)
		if !okN || !okA {
			continue
		}
		key := bucketKey(name)
		buckets[key] = append(buckets[key], candidate{rec: rec, name: name, amount: amount})
	}
	if len(buckets) == 0 {
		return noData(id, TierFraud, "no records carry both entity and amount values")
	}

	flagged := make(map[int]Finding)
	var keys []string
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		group := buckets[key]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]

				sim := stats.Similarity(a.name, b.name)
				if sim < cfg.SimilarityThreshold {
					continue
				}
				if !amountsClose(a.amount, b.amount, cfg.AmountTolerancePct) {
					continue
				}

				explain := func(self, other candidate) string {
					return fmt.Sprintf("near-duplicate of row %d: names %.0f%% similar (%q vs %q), amounts %s vs %s",
						other.rec.RowIndex, sim*100, self.name, other.name, self.amount, other.amount)
				}
				if _, seen := flagged[a.rec.RowIndex]; !seen {
					flagged[a.rec.RowIndex] = Finding{
						RowIndex:    a.rec.RowIndex,
						Fields:      map[string]string{cfg.Roles.Entity: a.name, cfg.Roles.Amount: a.amount.String()},
						Explanation: explain(a, b),
					}
				}
				if _, seen := flagged[b.rec.RowIndex]; !seen {
					flagged[b.rec.RowIndex] = Finding{
						RowIndex:    b.rec.RowIndex,
						Fields:      map[string]string{cfg.Roles.Entity: b.name, cfg.Roles.Amount: b.amount.String()},
						Explanation: explain(b, a),
					}
				}
			}
		}
	}

	findings := collectFindings(flagged)
	r := ratio(len(findings), batch.Len())
	return Result{
		TestID:       id,
		Tier:         TierFraud,
		Severity:     gradeSeverity(r / cfg.DuplicateAlarm),
		Metric:       r,
		FlaggedRatio: r,
		Findings:     findings,
	}
}

// CheckBelowApprovalThreshold flags amounts clustering just under the
// configured authorization limit — the classic pattern of splitting or sizing
// payments to dodge a second signature. Disabled when no limit is configured.
func CheckBelowApprovalThreshold(batch *parse.Batch, cfg *Config) Result {
	const id = "below_approval_threshold"
	if cfg.ApprovalLimit <= 0 {
		return noData(id, TierFraud, "no approval limit configured for this domain")
	}
	amounts, recs := amountColumn(batch, cfg)
	if len(amounts) == 0 {
		return noData(id, TierFraud, "no amount column in this batch")
	}

	limit := decimal.NewFromFloat(cfg.ApprovalLimit)
	floor := limit.Mul(decimal.NewFromFloat(1 - cfg.BelowThresholdWindow))

	var findings []Finding
	for i, amount := range amounts {
		if amount.GreaterThanOrEqual(floor) && amount.LessThan(limit) {
			findings = append(findings, Finding{
				RowIndex:    recs[i].RowIndex,
				Fields:      map[string]string{cfg.Roles.Amount: amount.String()},
				Explanation: fmt.Sprintf("amount %s sits within %.0f%% below the approval limit of %s", amount, cfg.BelowThresholdWindow*100, limit),
			})
		}
	}

	r := ratio(len(findings), len(amounts))
	return Result{
		TestID:       id,
		Tier:         TierFraud,
		Severity:     gradeSeverity(r / cfg.BelowThresholdAlarm),
		Metric:       r,
		FlaggedRatio: ratio(len(findings), batch.Len()),
		Findings:     findings,
	}
}

// CheckSuspiciousKeywords scans memo text against the curated keyword list.
func CheckSuspiciousKeywords(batch *parse.Batch, cfg *Config) Result {
	const id = "suspicious_keywords"
	if !batch.Mapping.Has(cfg.Roles.Memo) {
		return noData(id, TierFraud, "no memo column in this batch")
	}
	if len(cfg.Keywords) == 0 {
		return noData(id, TierFraud, "keyword list is empty")
	}

	var findings []Finding
	for _, rec := range batch.Records {
		memo, ok := rec.Text(cfg.Roles.Memo)
		if !ok {
			continue
		}
		lower := strings.ToLower(memo)
		var hits []string
		for _, kw := range cfg.Keywords {
			if strings.Contains(lower, kw) {
				hits = append(hits, kw)
			}
		}
		if len(hits) > 0 {
			findings = append(findings, Finding{
				RowIndex:    rec.RowIndex,
				Fields:      map[string]string{cfg.Roles.Memo: memo},
				Explanation: "memo matches keyword(s): " + strings.Join(hits, ", "),
			})
		}
	}

	r := ratio(len(findings), batch.Len())
	return Result{
		TestID:       id,
		Tier:         TierFraud,
		Severity:     gradeSeverity(r / cfg.KeywordAlarm),
		Metric:       r,
		FlaggedRatio: r,
		Findings:     findings,
	}
}

// CheckEntityNameVariants clusters entity names that are fuzzy-similar and
// flags records whose spelling differs from the cluster's most frequent form.
// The same vendor spelled three ways is how duplicate payments hide.
func CheckEntityNameVariants(batch *parse.Batch, cfg *Config) Result {
	const id = "entity_name_variants"
	if !batch.Mapping.Has(cfg.Roles.Entity) {
		return noData(id, TierFraud, "no entity column in this batch")
	}

	groups := groupByEntity(batch, cfg)
	names := sortedKeys(groups)
	if len(names) < 2 {
		return noData(id, TierFraud, "fewer than two distinct entity names")
	}

	// Union similar names within first-letter buckets.
	parent := make(map[string]string, len(names))
	for _, n := range names {
		parent[n] = n
	}
	var find func(string) string
	find = func(n string) string {
		if parent[n] != n {
			parent[n] = find(parent[n])
		}
		return parent[n]
	}
	union := func(a, b string) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if ra < rb {
				parent[rb] = ra
			} else {
				parent[ra] = rb
			}
		}
	}

	buckets := make(map[string][]string)
	for _, n := range names {
		key := bucketKey(n)
		buckets[key] = append(buckets[key], n)
	}
	var bucketNames []string
	for k := range buckets {
		bucketNames = append(bucketNames, k)
	}
	sort.Strings(bucketNames)

	for _, key := range bucketNames {
		group := buckets[key]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if stats.Similarity(group[i], group[j]) >= cfg.SimilarityThreshold {
					union(group[i], group[j])
				}
			}
		}
	}

	clusters := make(map[string][]string)
	for _, n := range names {
		root := find(n)
		clusters[root] = append(clusters[root], n)
	}

	var findings []Finding
	variantClusters := 0
	var roots []string
	for root, members := range clusters {
		if len(members) > 1 {
			roots = append(roots, root)
		}
	}
	sort.Strings(roots)

	for _, root := range roots {
		members := clusters[root]
		variantClusters++

		canonical := members[0]
		for _, n := range members[1:] {
			if len(groups[n]) > len(groups[canonical]) {
				canonical = n
			}
		}

		for _, n := range members {
			if n == canonical {
				continue
			}
			for _, rec := range groups[n] {
				findings = append(findings, Finding{
					RowIndex:    rec.RowIndex,
					Fields:      map[string]string{cfg.Roles.Entity: n},
					Explanation: fmt.Sprintf("%q appears to be a spelling variant of %q (%d records)", n, canonical, len(groups[canonical])),
				})
			}
		}
	}

	sortFindings(findings)
	r := ratio(len(findings), batch.Len())
	return Result{
		TestID:       id,
		Tier:         TierFraud,
		Severity:     gradeSeverity(r / cfg.DuplicateAlarm),
		Metric:       float64(variantClusters),
		FlaggedRatio: r,
		Findings:     findings,
	}
}

// bucketKey buckets names by their first two normalized letters. Cheap enough
// to keep pairwise comparison off the full batch, loose enough that common
// misspellings still land together.
func bucketKey(name string) string {
	n := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if len(n) < 2 {
		return n
	}
	return n[:2]
}

// amountsClose reports whether two amounts differ by no more than the relative
// tolerance of the larger magnitude.
func amountsClose(a, b decimal.Decimal, tolerancePct float64) bool {
	diff := a.Sub(b).Abs()
	larger := decimal.Max(a.Abs(), b.Abs())
	if larger.IsZero() {
		return diff.IsZero()
	}
	tolerance := larger.Mul(decimal.NewFromFloat(tolerancePct))
	return diff.LessThanOrEqual(tolerance)
}

func collectFindings(flagged map[int]Finding) []Finding {
	findings := make([]Finding, 0, len(flagged))
	for _, f := range flagged {
		findings = append(findings, f)
	}
	sortFindings(findings)
	return findings
}
