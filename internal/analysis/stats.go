package analysis

import (
	"math"
	"sort"
)

// Finite returns the non-NaN values of vals in their original order.
func Finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// MeanStd returns the mean and sample standard deviation (n-1) of vals,
// skipping NaN. The deviation is 0 when fewer than two values are present.
func MeanStd(vals []float64) (mean, std float64) {
	var n int
	var m2 float64
	for _, x := range vals {
		if math.IsNaN(x) {
			continue
		}
		n++
		delta := x - mean
		mean += delta / float64(n)
		m2 += delta * (x - mean)
	}
	if n > 1 {
		std = math.Sqrt(m2 / float64(n-1))
	}
	return mean, std
}

// Quantile interpolates linearly between closest ranks of an ascending slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
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

// Sorted returns an ascending copy of the finite values in vals.
func Sorted(vals []float64) []float64 {
	cp := Finite(vals)
	sort.Float64s(cp)
	return cp
}

// MedianMAD computes median and MAD (median absolute deviation) of values.
func MedianMAD(vals []float64) (median, mad float64) {
	cp := Sorted(vals)
	if len(cp) == 0 {
		return 0, 0
	}
	median = Quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = Quantile(dev, 0.5)
	return
}
