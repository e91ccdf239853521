package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/pipeline"
	"github.com/spf13/cobra"
)

// reportFlags holds the flags shared by report and report-batch. Flags the
// user did not set fall back to the loaded configuration.
type reportFlags struct {
	outputDir   string
	delimiter   string
	decimal     string
	thousands   string
	maxRows     int
	threshold   float64
	outlierRule string
	outlierK    float64
	noCharts    bool
	stamp       bool
	json        bool
	quiet       bool
}

func (rf *reportFlags) register(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&rf.outputDir, "output-dir", "o", "reports", "directory for report.md and charts")
	f.StringVar(&rf.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | 'pipe' (auto from extension if omitted)")
	f.StringVar(&rf.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	f.StringVar(&rf.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	f.IntVar(&rf.maxRows, "max-rows", 0, "maximum rows to process (0 = unlimited)")
	f.Float64Var(&rf.threshold, "threshold", analysis.DefaultSignificanceThreshold, "minimum |r| for a correlation to count as significant")
	f.StringVar(&rf.outlierRule, "outlier-rule", "iqr", "outlier rule: iqr (Q1/Q3 ± k·IQR, default) | zscore (mean ± k·σ, the 3σ rule) | mad (robust z-score)")
	f.Float64Var(&rf.outlierK, "outlier-k", 0, "outlier rule multiplier (0 = rule default: iqr 1.5, zscore 3, mad 3.5)")
	f.BoolVar(&rf.noCharts, "no-charts", false, "skip chart rendering")
	f.BoolVar(&rf.stamp, "stamp", false, "embed a generation time and run ID comment in the report")
	f.BoolVar(&rf.json, "json", false, "also write findings.json next to the report")
	f.BoolVar(&rf.quiet, "quiet", false, "suppress progress and non-essential output")
}

// options merges configuration and explicitly set flags into pipeline options.
func (rf *reportFlags) options(c *cobra.Command) (pipeline.Options, error) {
	conf := currentConfig()
	f := c.Flags()
	opt := pipeline.DefaultOptions()

	opt.OutputDir = conf.OutputDir
	if f.Changed("output-dir") {
		opt.OutputDir = rf.outputDir
	}

	threshold := conf.SignificanceThreshold
	if f.Changed("threshold") {
		threshold = rf.threshold
	}
	if err := analysis.CheckThreshold(threshold); err != nil {
		return opt, fmt.Errorf("invalid --threshold: %w", err)
	}
	opt.Threshold = threshold

	ruleName, k := conf.OutlierRule, conf.OutlierMultiplier
	if f.Changed("outlier-rule") {
		ruleName = rf.outlierRule
	}
	if f.Changed("outlier-k") {
		k = rf.outlierK
	}
	rule, err := analysis.ParseRule(ruleName)
	if err != nil {
		return opt, err
	}
	opt.Detector = analysis.Detector{Rule: rule, Multiplier: k}
	if err := opt.Detector.Validate(); err != nil {
		return opt, fmt.Errorf("invalid --outlier-k: %w", err)
	}

	delim := conf.Delimiter
	if f.Changed("delimiter") {
		delim = rf.delimiter
	}
	if opt.Load.Delimiter, err = dataset.ParseDelimiter(delim); err != nil {
		return opt, fmt.Errorf("unsupported --delimiter: %s", delim)
	}
	if rf.maxRows > 0 {
		opt.Load.MaxRows = rf.maxRows
	}
	// Locale separators
	switch strings.ToLower(strings.TrimSpace(rf.decimal)) {
	case ",", "comma":
		opt.Load.Number.DecimalSeparator = ','
	case ".", "dot":
		opt.Load.Number.DecimalSeparator = '.'
	case "":
	default:
		return opt, fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", rf.decimal)
	}
	switch strings.ToLower(strings.TrimSpace(rf.thousands)) {
	case ",":
		opt.Load.Number.ThousandsSeparator = ','
	case ".":
		opt.Load.Number.ThousandsSeparator = '.'
	case "space", " ":
		opt.Load.Number.ThousandsSeparator = ' '
	case "":
	default:
		return opt, fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", rf.thousands)
	}

	opt.Charts = conf.Charts && !rf.noCharts
	opt.ChartWidth, opt.ChartHeight = conf.ChartWidth, conf.ChartHeight
	opt.Stamp = conf.StampReports || rf.stamp
	opt.WriteJSON = rf.json
	opt.Debug = debug
	opt.Progress = io.Discard
	if !rf.quiet {
		opt.Progress = c.OutOrStdout()
	}
	return opt, nil
}

// printWarnings echoes loader warnings and chart failures to stderr.
func printWarnings(c *cobra.Command, res *pipeline.Result) {
	w := c.ErrOrStderr()
	for _, n := range res.Notes {
		fmt.Fprintf(w, "⚠ %s\n", n)
	}
}
