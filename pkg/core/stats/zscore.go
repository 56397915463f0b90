package stats

import (
	"math"
	"sort"
)

// Moments holds the mean and population standard deviation of a sample.
type Moments struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	N      int     `json:"n"`
}

// ComputeMoments calculates mean and standard deviation in one pass.
func ComputeMoments(values []float64) Moments {
	n := len(values)
	if n == 0 {
		return Moments{}
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(n)

	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}

	return Moments{
		Mean:   mean,
		StdDev: math.Sqrt(sumSq / float64(n)),
		N:      n,
	}
}

// ZScore returns how many standard deviations v sits from the sample mean.
// A zero-variance sample yields zero; identical values are never outliers.
func (m Moments) ZScore(v float64) float64 {
	if m.StdDev == 0 {
		return 0
	}
	return (v - m.Mean) / m.StdDev
}

// Median returns the middle value of the sample (average of the two middle
// values for even sizes). The input slice is not modified.
func Median(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
