// Package stats holds the column statistics shared by the cleaning utilities.
package stats

import (
	"math"
	"sort"
)

// Sorted returns an ascending copy of vals.
func Sorted(vals []float64) []float64 {
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	return cp
}

// Quantile interpolates linearly between the closest ranks of sorted.
// It returns NaN for an empty slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}

// Median of unsorted vals.
func Median(vals []float64) float64 {
	return Quantile(Sorted(vals), 0.5)
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	median = Median(vals)
	dev := make([]float64, len(vals))
	for i, v := range vals {
		dev[i] = math.Abs(v - median)
	}
	return median, Median(dev)
}

// IQR returns the first and third quartiles.
func IQR(vals []float64) (q1, q3 float64) {
	s := Sorted(vals)
	return Quantile(s, 0.25), Quantile(s, 0.75)
}

// Welford accumulates a running mean and variance.
type Welford struct {
	N    int
	Mean float64
	m2   float64
	Min  float64
	Max  float64
}

// Add folds x into the accumulator.
func (w *Welford) Add(x float64) {
	w.N++
	if w.N == 1 {
		w.Min, w.Max = x, x
	} else {
		w.Min = math.Min(w.Min, x)
		w.Max = math.Max(w.Max, x)
	}
	d := x - w.Mean
	w.Mean += d / float64(w.N)
	w.m2 += d * (x - w.Mean)
}

// Std returns the standard deviation with ddof delta degrees of freedom
// (0 for population, 1 for sample). It is NaN when N <= ddof.
func (w *Welford) Std(ddof int) float64 {
	if w.N <= ddof {
		return math.NaN()
	}
	return math.Sqrt(w.m2 / float64(w.N-ddof))
}

// MeanStd returns the mean and ddof-adjusted standard deviation of vals.
func MeanStd(vals []float64, ddof int) (float64, float64) {
	var w Welford
	for _, v := range vals {
		w.Add(v)
	}
	return w.Mean, w.Std(ddof)
}
