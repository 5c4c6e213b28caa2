// Package stats reduces repeated samples to order statistics.
package stats

import (
	"fmt"
	"math"
	"sort"
)

// Mean returns the arithmetic mean of xs, NaN when xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}

	return sum / float64(len(xs))
}

// Median returns the 50th percentile of xs.
func Median(xs []float64) float64 {
	return Percentile(xs, 50)
}

// Percentile returns the p-th percentile (0..100) of xs, interpolating
// linearly between the two closest order statistics. xs is not modified.
// NaN is returned for an empty slice.
func Percentile(xs []float64, p float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}

	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)

	return percentileSorted(sorted, p)
}

func percentileSorted(sorted []float64, p float64) float64 {
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)

	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// Statistic selects how a sample array is summarized.
type Statistic string

const (
	StatMean      Statistic = "mean"
	StatMedian    Statistic = "median"
	StatMedianIQR Statistic = "median+iqr"
)

// Statistics lists the accepted statistic names.
func Statistics() []Statistic {
	return []Statistic{StatMean, StatMedian, StatMedianIQR}
}

// Parse returns the Statistic named s.
func Parse(s string) (Statistic, error) {
	for _, st := range Statistics() {
		if string(st) == s {
			return st, nil
		}
	}

	return "", fmt.Errorf("unknown statistic %q (want mean, median or median+iqr)", s)
}

// Columns returns the header cells produced for one solver.
func (s Statistic) Columns(solver string) []string {
	if s == StatMedianIQR {
		return []string{solver, solver + "#min", solver + "#max"}
	}

	return []string{solver}
}

// Width is the number of cells Summarize produces.
func (s Statistic) Width() int {
	if s == StatMedianIQR {
		return 3
	}

	return 1
}

// Summarize reduces xs to Width values. For median+iqr these are the
// median, the 25th and the 75th percentile.
func (s Statistic) Summarize(xs []float64) []float64 {
	switch s {
	case StatMean:
		return []float64{Mean(xs)}
	case StatMedianIQR:
		if len(xs) == 0 {
			return []float64{math.NaN(), math.NaN(), math.NaN()}
		}

		sorted := make([]float64, len(xs))
		copy(sorted, xs)
		sort.Float64s(sorted)

		return []float64{
			percentileSorted(sorted, 50),
			percentileSorted(sorted, 25),
			percentileSorted(sorted, 75),
		}
	default:
		return []float64{Median(xs)}
	}
}
