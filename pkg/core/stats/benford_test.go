package stats

import (
	"testing"

	"github.com/shopspring/decimal"
)

// benfordSample builds n values whose leading-digit counts follow the given
// per-digit proportions as closely as integer counts allow.
func benfordSample(counts map[int]int) []decimal.Decimal {
	var out []decimal.Decimal
	for d := 1; d <= 9; d++ {
		for i := 0; i < counts[d]; i++ {
			// d*10000 + i keeps the leading digit stable for counts under 10000.
			out = append(out, decimal.NewFromInt(int64(d*10000+i)))
		}
	}
	return out
}

func TestAnalyzeBenfordConforming(t *testing.T) {
	// 1000 values with counts rounded from the theoretical distribution:
	// 301, 176, 125, 97, 79, 67, 58, 51, 46 = 1000.
	counts := map[int]int{1: 301, 2: 176, 3: 125, 4: 97, 5: 79, 6: 67, 7: 58, 8: 51, 9: 46}
	res := AnalyzeBenford(benfordSample(counts))

	if res.TotalCount != 1000 {
		t.Fatalf("TotalCount = %d, want 1000", res.TotalCount)
	}
	if res.Level != ConformityConforming {
		t.Errorf("level = %s (MAD %.5f), want conforming", res.Level, res.MAD)
	}
	if res.MAD > 0.006 {
		t.Errorf("MAD = %.5f, want <= 0.006", res.MAD)
	}
}

func TestAnalyzeBenfordUniformIsNonconforming(t *testing.T) {
	// A uniform leading-digit distribution (1/9 each) sits far outside the
	// logarithmic expectation: MAD works out to about 0.06.
	counts := map[int]int{}
	for d := 1; d <= 9; d++ {
		counts[d] = 12
	}
	res := AnalyzeBenford(benfordSample(counts))

	if res.TotalCount != 108 {
		t.Fatalf("TotalCount = %d, want 108", res.TotalCount)
	}
	if res.Level != ConformityNonconforming {
		t.Errorf("level = %s (MAD %.5f), want nonconforming", res.Level, res.MAD)
	}
	if res.MAD < 0.05 || res.MAD > 0.07 {
		t.Errorf("MAD = %.5f, want about 0.06", res.MAD)
	}
}

func TestAnalyzeBenfordInsufficientData(t *testing.T) {
	// 29 usable values is one short of the minimum sample.
	counts := map[int]int{1: 29}
	res := AnalyzeBenford(benfordSample(counts))

	if res.Level != ConformityInsufficientData {
		t.Errorf("level = %s, want insufficient_data", res.Level)
	}
	if res.MAD != 0 {
		t.Errorf("MAD must not be reported below the minimum sample, got %.5f", res.MAD)
	}
}

func TestAnalyzeBenfordSkipsNonPositive(t *testing.T) {
	values := []decimal.Decimal{
		decimal.NewFromInt(150),
		decimal.Zero,
		decimal.NewFromInt(-200), // negatives carry no leading-digit signal
		decimal.NewFromFloat(0.042),
	}
	res := AnalyzeBenford(values)

	// 150 leads with 1; 0.042 leads with 4 (scale invariant); zero and the
	// negative are skipped.
	if res.TotalCount != 2 {
		t.Errorf("TotalCount = %d, want 2", res.TotalCount)
	}
	if res.DigitCounts[1] != 1 || res.DigitCounts[4] != 1 {
		t.Errorf("digit counts = %v, want one 1 and one 4", res.DigitCounts)
	}
}
