package analysis

import (
	"errors"
	"fmt"
	"math"
)

// DefaultSignificanceThreshold is the |r| at or above which a correlation is
// reported as significant.
const DefaultSignificanceThreshold = 0.7

// ErrInsufficientData marks an analysis step that had too few numeric columns
// to run. Callers degrade the matching report section instead of failing.
var ErrInsufficientData = errors.New("insufficient data")

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
// Undefined entries (constant column, fewer than two paired rows) are NaN.
type CorrMatrix struct {
	Columns []string
	Values  [][]float64 // row-major, Values[i][j]
}

// At returns the coefficient for two named columns.
func (m *CorrMatrix) At(a, b string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	ia, ib := -1, -1
	for i, c := range m.Columns {
		if c == a && ia < 0 {
			ia = i
		}
		if c == b && ib < 0 {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return 0, false
	}
	return m.Values[ia][ib], true
}

// CorrelationResult describes one column pair.
type CorrelationResult struct {
	A           string
	B           string
	R           float64
	N           int // rows where both columns are present
	Significant bool
}

// CorrelationReport is the output of the correlation engine.
type CorrelationReport struct {
	Matrix    *CorrMatrix
	Headline  *CorrelationResult // nil when no pair has a defined coefficient
	Threshold float64
}

// PairwiseComplete drops every row where either x or y is missing.
func PairwiseComplete(x, y []float64) (xs, ys []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs = make([]float64, 0, n)
	ys = make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsNaN(y[i]) {
			continue
		}
		xs = append(xs, x[i])
		ys = append(ys, y[i])
	}
	return xs, ys
}

// Pearson returns the linear correlation coefficient of two equally long,
// fully present series. ok is false for fewer than two points or zero variance.
func Pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if n < 2 || len(y) != n {
		return math.NaN(), false
	}
	var mx, my float64
	for i := 0; i < n; i++ {
		mx += x[i]
		my += y[i]
	}
	mx /= float64(n)
	my /= float64(n)
	var sxx, syy, sxy float64
	for i := 0; i < n; i++ {
		dx := x[i] - mx
		dy := y[i] - my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN(), false
	}
	r = sxy / math.Sqrt(sxx*syy)
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// Correlate builds the full matrix over cols and selects the headline pair:
// the largest |r| among distinct pairs, first pair in column order on ties.
// Fewer than two columns yields ErrInsufficientData.
func Correlate(cols []NumericColumn, threshold float64) (*CorrelationReport, error) {
	if len(cols) < 2 {
		return nil, fmt.Errorf("correlation needs at least 2 numeric columns, have %d: %w", len(cols), ErrInsufficientData)
	}
	if threshold <= 0 {
		threshold = DefaultSignificanceThreshold
	}
	n := len(cols)
	names := make([]string, n)
	mat := make([][]float64, n)
	for i := range mat {
		names[i] = cols[i].Name
		mat[i] = make([]float64, n)
		mat[i][i] = 1
	}
	rep := &CorrelationReport{Matrix: &CorrMatrix{Columns: names, Values: mat}, Threshold: threshold}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			xs, ys := PairwiseComplete(cols[a].Values, cols[b].Values)
			r, ok := Pearson(xs, ys)
			mat[a][b] = r
			mat[b][a] = r
			if !ok {
				continue
			}
			if rep.Headline == nil || math.Abs(r) > math.Abs(rep.Headline.R) {
				rep.Headline = &CorrelationResult{A: names[a], B: names[b], R: r, N: len(xs)}
			}
		}
	}
	if rep.Headline != nil {
		rep.Headline.Significant = IsSignificant(rep.Headline.R, threshold)
	}
	return rep, nil
}

// CheckThreshold rejects significance thresholds outside (0, 1]. NaN and
// infinities are rejected too.
func CheckThreshold(t float64) error {
	if math.IsNaN(t) || t <= 0 || t > 1 {
		return fmt.Errorf("significance threshold %g must be in (0, 1]", t)
	}
	return nil
}

// IsSignificant applies the |r| >= threshold rule.
func IsSignificant(r, threshold float64) bool {
	if math.IsNaN(r) {
		return false
	}
	return math.Abs(r) >= threshold
}
