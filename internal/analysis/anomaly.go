package analysis

import (
	"fmt"
	"math"
	"strings"
)

// Rule selects the outlier test applied to each numeric column.
type Rule string

const (
	// RuleIQR flags values beyond k·IQR outside the first and third quartiles.
	RuleIQR Rule = "iqr"
	// RuleZScore flags values more than k standard deviations from the mean.
	RuleZScore Rule = "zscore"
	// RuleMAD flags values whose robust z-score 0.6745·(x-median)/MAD exceeds k.
	RuleMAD Rule = "mad"
)

// ParseRule accepts a rule name case-insensitively.
func ParseRule(s string) (Rule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "iqr":
		return RuleIQR, nil
	case "zscore", "z", "sigma":
		return RuleZScore, nil
	case "mad", "robust":
		return RuleMAD, nil
	default:
		return "", fmt.Errorf("unknown outlier rule %q (use iqr, zscore or mad)", s)
	}
}

// DefaultMultiplier is the customary k for the rule.
func (r Rule) DefaultMultiplier() float64 {
	switch r {
	case RuleZScore:
		return 3
	case RuleMAD:
		return 3.5
	default:
		return 1.5
	}
}

// Detector scans numeric columns independently with a single rule.
type Detector struct {
	Rule       Rule
	Multiplier float64
}

// DefaultDetector uses the IQR rule with k = 1.5.
func DefaultDetector() Detector {
	return Detector{Rule: RuleIQR, Multiplier: RuleIQR.DefaultMultiplier()}
}

// Validate rejects unknown rules and negative or non-finite multipliers.
// A zero multiplier selects the rule default.
func (d Detector) Validate() error {
	if _, err := ParseRule(string(d.Rule)); err != nil {
		return err
	}
	if math.IsNaN(d.Multiplier) || math.IsInf(d.Multiplier, 0) || d.Multiplier < 0 {
		return fmt.Errorf("outlier multiplier %g must be a finite value >= 0", d.Multiplier)
	}
	return nil
}

func (d Detector) normalized() Detector {
	if d.Rule == "" {
		d.Rule = RuleIQR
	}
	if d.Multiplier <= 0 {
		d.Multiplier = d.Rule.DefaultMultiplier()
	}
	return d
}

// Describe renders the rule for narrative text.
func (d Detector) Describe() string {
	d = d.normalized()
	switch d.Rule {
	case RuleZScore:
		return fmt.Sprintf("the z-score rule (values more than %g standard deviations from the mean)", d.Multiplier)
	case RuleMAD:
		return fmt.Sprintf("the robust z-score rule (|z| > %g using the median absolute deviation)", d.Multiplier)
	default:
		return fmt.Sprintf("the IQR rule (values more than %g × IQR beyond the quartiles)", d.Multiplier)
	}
}

// Outlier is one flagged cell. Row is the zero-based data row index.
type Outlier struct {
	Row       int
	Value     float64
	Deviation float64 // Value minus column mean
}

// AnomalyFinding is the per-column detector output. An empty Rows slice is a
// normal result.
type AnomalyFinding struct {
	Column     string
	Rule       Rule
	Multiplier float64
	Count      int // non-missing values inspected
	Mean       float64
	Std        float64
	// Bounded is false when the rule had no usable spread; nothing is flagged then.
	Bounded  bool
	Lower    float64
	Upper    float64
	Rows     []int
	Outliers []Outlier
}

// HasOutliers reports whether any row was flagged.
func (f AnomalyFinding) HasOutliers() bool { return len(f.Rows) > 0 }

// AnomalySummary aggregates findings for every numeric column in table order.
type AnomalySummary struct {
	Detector Detector
	Findings []AnomalyFinding
}

// Any reports whether at least one column has a flagged row.
func (s *AnomalySummary) Any() bool {
	if s == nil {
		return false
	}
	for _, f := range s.Findings {
		if f.HasOutliers() {
			return true
		}
	}
	return false
}

// Flagged returns only the findings with outliers.
func (s *AnomalySummary) Flagged() []AnomalyFinding {
	if s == nil {
		return nil
	}
	var out []AnomalyFinding
	for _, f := range s.Findings {
		if f.HasOutliers() {
			out = append(out, f)
		}
	}
	return out
}

// Detect runs DetectColumn over every column. Zero columns yields ErrInsufficientData.
func (d Detector) Detect(cols []NumericColumn) (*AnomalySummary, error) {
	d = d.normalized()
	if len(cols) == 0 {
		return nil, fmt.Errorf("anomaly detection needs at least 1 numeric column: %w", ErrInsufficientData)
	}
	s := &AnomalySummary{Detector: d, Findings: make([]AnomalyFinding, 0, len(cols))}
	for _, c := range cols {
		s.Findings = append(s.Findings, d.DetectColumn(c))
	}
	return s, nil
}

// DetectColumn applies the rule to one column. A zero standard deviation
// never produces outliers, whatever the rule.
func (d Detector) DetectColumn(col NumericColumn) AnomalyFinding {
	d = d.normalized()
	f := AnomalyFinding{Column: col.Name, Rule: d.Rule, Multiplier: d.Multiplier, Rows: []int{}}
	sorted := Sorted(col.Values)
	f.Count = len(sorted)
	f.Mean, f.Std = MeanStd(col.Values)
	if f.Count < 2 || f.Std == 0 {
		return f
	}
	switch d.Rule {
	case RuleZScore:
		f.Lower = f.Mean - d.Multiplier*f.Std
		f.Upper = f.Mean + d.Multiplier*f.Std
		f.Bounded = true
	case RuleMAD:
		median, mad := MedianMAD(sorted)
		if mad > 0 {
			half := d.Multiplier * mad / 0.6745
			f.Lower = median - half
			f.Upper = median + half
			f.Bounded = true
		}
	default:
		q1 := Quantile(sorted, 0.25)
		q3 := Quantile(sorted, 0.75)
		iqr := q3 - q1
		f.Lower = q1 - d.Multiplier*iqr
		f.Upper = q3 + d.Multiplier*iqr
		f.Bounded = true
	}
	if !f.Bounded {
		return f
	}
	for i, v := range col.Values {
		if math.IsNaN(v) {
			continue
		}
		if v < f.Lower || v > f.Upper {
			f.Rows = append(f.Rows, i)
			f.Outliers = append(f.Outliers, Outlier{Row: i, Value: v, Deviation: v - f.Mean})
		}
	}
	return f
}
