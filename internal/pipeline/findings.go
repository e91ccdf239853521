package pipeline

import (
	"math"
)

// findings is the JSON shape of findings.json. Undefined coefficients are null.
type findings struct {
	RunID      string           `json:"run_id"`
	Dataset    string           `json:"dataset"`
	Rows       int              `json:"rows"`
	Numeric    []string         `json:"numeric_columns"`
	NonNumeric []string         `json:"non_numeric_columns"`
	Threshold  float64          `json:"significance_threshold"`
	Matrix     *jsonMatrix      `json:"correlation_matrix,omitempty"`
	Headline   *jsonCorrelation `json:"headline_correlation,omitempty"`
	Rule       string           `json:"outlier_rule,omitempty"`
	Multiplier float64          `json:"outlier_multiplier,omitempty"`
	Anomalies  []jsonAnomaly    `json:"anomalies"`
	Images     []string         `json:"images"`
	Notes      []string         `json:"notes,omitempty"`
}

type jsonMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

type jsonCorrelation struct {
	A           string  `json:"a"`
	B           string  `json:"b"`
	R           float64 `json:"r"`
	N           int     `json:"n"`
	Significant bool    `json:"significant"`
}

type jsonAnomaly struct {
	Column string    `json:"column"`
	Rows   []int     `json:"rows"`
	Values []float64 `json:"values"`
}

func newFindings(res *Result, opt Options) findings {
	f := findings{
		RunID:      res.RunID,
		Dataset:    res.Table.Name,
		Rows:       res.Table.Rows,
		Numeric:    res.Classification.NumericNames(),
		NonNumeric: res.Classification.NonNumeric,
		Threshold:  opt.Threshold,
		Anomalies:  []jsonAnomaly{},
		Images:     res.Images,
		Notes:      res.Notes,
	}
	if f.Images == nil {
		f.Images = []string{}
	}
	if c := res.Correlation; c != nil {
		f.Threshold = c.Threshold
		m := &jsonMatrix{Columns: c.Matrix.Columns, Values: make([][]*float64, len(c.Matrix.Values))}
		for i, row := range c.Matrix.Values {
			m.Values[i] = make([]*float64, len(row))
			for j, v := range row {
				if math.IsNaN(v) {
					continue
				}
				v := v
				m.Values[i][j] = &v
			}
		}
		f.Matrix = m
		if h := c.Headline; h != nil {
			f.Headline = &jsonCorrelation{A: h.A, B: h.B, R: h.R, N: h.N, Significant: h.Significant}
		}
	}
	if s := res.Anomalies; s != nil {
		f.Rule = string(s.Detector.Rule)
		f.Multiplier = s.Detector.Multiplier
		for _, af := range s.Findings {
			ja := jsonAnomaly{Column: af.Column, Rows: af.Rows, Values: []float64{}}
			for _, o := range af.Outliers {
				ja.Values = append(ja.Values, o.Value)
			}
			f.Anomalies = append(f.Anomalies, ja)
		}
	}
	return f
}
