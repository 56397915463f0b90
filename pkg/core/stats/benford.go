// Package stats holds the shared statistical primitives consumed by the check
// battery: leading-digit distribution analysis, z-score outlier detection, and
// fuzzy string similarity.
package stats

import (
	"math"

	"github.com/shopspring/decimal"
)

// BenfordExpected is the theoretical logarithmic frequency for leading digits
// 1-9: log10(1 + 1/d).
var BenfordExpected = map[int]float64{
	1: 0.30103,
	2: 0.17609,
	3: 0.12494,
	4: 0.09691,
	5: 0.07918,
	6: 0.06695,
	7: 0.05799,
	8: 0.05115,
	9: 0.04576,
}

// ConformityLevel classifies how closely observed leading digits follow the
// expected distribution.
type ConformityLevel string

const (
	ConformityConforming       ConformityLevel = "conforming"
	ConformityAcceptable       ConformityLevel = "acceptable"
	ConformityMarginal         ConformityLevel = "marginally_acceptable"
	ConformityNonconforming    ConformityLevel = "nonconforming"
	ConformityInsufficientData ConformityLevel = "insufficient_data"
)

// MAD classification bands (Nigrini, first digits). These are published audit
// calibrations; their numeric values are load-bearing and must not be retuned.
const (
	madConforming = 0.006
	madAcceptable = 0.012
	madMarginal   = 0.015
)

// BenfordMinSample is the minimum number of usable values below which the
// analysis reports insufficient data instead of a misleading classification.
const BenfordMinSample = 30

// BenfordResult holds the leading-digit distribution analysis.
type BenfordResult struct {
	DigitCounts      map[int]int     `json:"digit_counts"`
	DigitFrequencies map[int]float64 `json:"digit_frequencies"`
	TotalCount       int             `json:"total_count"`
	MAD              float64         `json:"mad"`
	Level            ConformityLevel `json:"level"`
}

// AnalyzeBenford performs first-digit analysis over positive amounts.
// Zero and negative amounts carry no leading-digit signal and are skipped.
func AnalyzeBenford(amounts []decimal.Decimal) BenfordResult {
	counts := make(map[int]int)
	processed := 0

	for _, a := range amounts {
		if a.Sign() <= 0 {
			continue
		}
		d := leadingDigit(a)
		if d >= 1 && d <= 9 {
			counts[d]++
			processed++
		}
	}

	if processed < BenfordMinSample {
		return BenfordResult{
			DigitCounts: counts,
			TotalCount:  processed,
			Level:       ConformityInsufficientData,
		}
	}

	freqs := make(map[int]float64)
	sumDiff := 0.0
	for d := 1; d <= 9; d++ {
		freq := float64(counts[d]) / float64(processed)
		freqs[d] = freq
		sumDiff += math.Abs(freq - BenfordExpected[d])
	}
	mad := sumDiff / 9.0

	return BenfordResult{
		DigitCounts:      counts,
		DigitFrequencies: freqs,
		TotalCount:       processed,
		MAD:              mad,
		Level:            classifyMAD(mad),
	}
}

func classifyMAD(mad float64) ConformityLevel {
	switch {
	case mad <= madConforming:
		return ConformityConforming
	case mad <= madAcceptable:
		return ConformityAcceptable
	case mad <= madMarginal:
		return ConformityMarginal
	default:
		return ConformityNonconforming
	}
}

// leadingDigit extracts the first significant digit of a positive decimal.
// Scale invariant: 0.042 and 4200 both lead with 4.
func leadingDigit(a decimal.Decimal) int {
	for _, c := range a.Abs().String() {
		if c >= '1' && c <= '9' {
			return int(c - '0')
		}
	}
	return 0
}
