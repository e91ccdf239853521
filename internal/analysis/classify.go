package analysis

import (
	"math"

	"github.com/KaramelBytes/datastory-cli/internal/dataset"
)

// Kind is the inferred semantic type of a column.
type Kind string

const (
	KindNumeric     Kind = "numeric"
	KindCategorical Kind = "categorical"
)

// NumericColumn is a column coerced to float64. Missing cells are NaN so the
// slice stays aligned with table row indices.
type NumericColumn struct {
	Name   string
	Values []float64
}

// Coercion is the result of trying to read every non-missing cell of a column
// as a number.
type Coercion struct {
	Column     NumericColumn
	OK         bool
	NonMissing int
	// FirstBad is the first cell that failed to parse, if any.
	FirstBad string
}

// Coerce attempts numeric conversion of all non-missing cells of col.
// Separators are chosen once for the whole column, so "1,234" and "2,500"
// in the same column are both read with ',' as thousands separator.
// A column without any non-missing cell is never numeric.
func Coerce(col dataset.Column, nf dataset.NumberFormat) Coercion {
	res := Coercion{Column: NumericColumn{Name: col.Name, Values: make([]float64, len(col.Values))}}
	nf = dataset.DetectFormat(col.Values, nf)
	for i, raw := range col.Values {
		if dataset.IsMissing(raw) {
			res.Column.Values[i] = math.NaN()
			continue
		}
		res.NonMissing++
		x, ok := dataset.ParseNumber(raw, nf)
		if !ok {
			res.FirstBad = raw
			return res
		}
		res.Column.Values[i] = x
	}
	res.OK = res.NonMissing > 0
	return res
}

// Classification partitions a table's columns into numeric and non-numeric
// sets, both in table order.
type Classification struct {
	Numeric    []NumericColumn
	NonNumeric []string
}

// NumericNames lists the names of the numeric columns.
func (c Classification) NumericNames() []string {
	out := make([]string, len(c.Numeric))
	for i, col := range c.Numeric {
		out[i] = col.Name
	}
	return out
}

// KindOf reports the kind assigned to a column name.
func (c Classification) KindOf(name string) (Kind, bool) {
	for _, col := range c.Numeric {
		if col.Name == name {
			return KindNumeric, true
		}
	}
	for _, n := range c.NonNumeric {
		if n == name {
			return KindCategorical, true
		}
	}
	return "", false
}

// Classify coerces each column of t and sorts it into one of the two sets.
func Classify(t *dataset.Table, nf dataset.NumberFormat) Classification {
	var c Classification
	if t == nil {
		return c
	}
	for _, col := range t.Columns {
		res := Coerce(col, nf)
		if res.OK {
			c.Numeric = append(c.Numeric, res.Column)
			continue
		}
		c.NonNumeric = append(c.NonNumeric, col.Name)
	}
	return c
}
