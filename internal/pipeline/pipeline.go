package pipeline

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/render"
	"github.com/KaramelBytes/datastory-cli/internal/report"
	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

const (
	// ReportFile is the narrative document written into the output directory.
	ReportFile = "report.md"
	// FindingsFile is the optional machine-readable summary.
	FindingsFile = "findings.json"
)

// Visualizer renders charts into the output directory and returns their
// paths relative to it. Implementations must not leave partial files behind
// when they return an error.
type Visualizer interface {
	Heatmap(m *analysis.CorrMatrix) (string, error)
	Scatter(x, y analysis.NumericColumn) (string, error)
	BoxPlot(index int, col analysis.NumericColumn, f analysis.AnomalyFinding) (string, error)
}

// Options configures one run.
type Options struct {
	Input     string
	OutputDir string
	Load      dataset.Options
	Threshold float64
	Detector  analysis.Detector

	Charts      bool
	ChartWidth  int
	ChartHeight int
	// Stamp embeds a generation marker (time and run ID) under the title.
	Stamp     bool
	WriteJSON bool

	// Progress receives status lines; nil discards them.
	Progress io.Writer
	Debug    bool

	// Now and NewVisualizer are replaced in tests.
	Now           func() time.Time
	NewVisualizer func(dir string, width, height int) (Visualizer, error)
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		OutputDir: "reports",
		Load:      dataset.DefaultOptions(),
		Threshold: analysis.DefaultSignificanceThreshold,
		Detector:  analysis.DefaultDetector(),
		Charts:    true,
	}
}

// Result describes what a run produced.
type Result struct {
	RunID          string
	ReportPath     string
	FindingsPath   string
	Images         []string
	Table          *dataset.Table
	Classification analysis.Classification
	Correlation    *analysis.CorrelationReport
	Anomalies      *analysis.AnomalySummary
	Notes          []string
	Document       *report.Document
}

func newRenderContext(dir string, width, height int) (Visualizer, error) {
	ctx, err := render.NewContext(dir, width, height)
	if err != nil {
		return nil, err
	}
	return ctx, nil
}

// Run executes load, classify, correlate, detect, render, compose and write.
// Only a load failure or an output write failure is returned as an error;
// insufficient data and chart failures become narrative degradations.
func Run(opt Options) (*Result, error) {
	if opt.OutputDir == "" {
		opt.OutputDir = "reports"
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.NewVisualizer == nil {
		opt.NewVisualizer = newRenderContext
	}
	progress := opt.Progress
	if progress == nil {
		progress = io.Discard
	}
	debugf := func(format string, args ...any) {
		if opt.Debug {
			fmt.Fprintf(progress, "  · "+format+"\n", args...)
		}
	}

	if opt.Threshold == 0 {
		opt.Threshold = analysis.DefaultSignificanceThreshold
	}
	if err := analysis.CheckThreshold(opt.Threshold); err != nil {
		return nil, err
	}
	if err := opt.Detector.Validate(); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString()}

	fmt.Fprintf(progress, "Loading data from '%s'...\n", opt.Input)
	tbl, err := dataset.LoadFile(opt.Input, opt.Load)
	if err != nil {
		return nil, err
	}
	res.Table = tbl
	res.Notes = append(res.Notes, tbl.Warnings...)
	debugf("loaded %d rows x %d columns", tbl.Rows, len(tbl.Columns))

	res.Classification = analysis.Classify(tbl, opt.Load.Number)
	numeric := res.Classification.Numeric
	debugf("numeric columns: %v", res.Classification.NumericNames())
	debugf("non-numeric columns: %v", res.Classification.NonNumeric)

	fmt.Fprintln(progress, "Analyzing correlations...")
	res.Correlation, err = analysis.Correlate(numeric, opt.Threshold)
	if err != nil {
		if !errors.Is(err, analysis.ErrInsufficientData) {
			return nil, err
		}
		debugf("correlation skipped: %v", err)
	}

	fmt.Fprintln(progress, "Detecting anomalies...")
	res.Anomalies, err = opt.Detector.Detect(numeric)
	if err != nil {
		if !errors.Is(err, analysis.ErrInsufficientData) {
			return nil, err
		}
		debugf("anomaly detection skipped: %v", err)
	}

	if err := utils.EnsureDir(opt.OutputDir); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	images := report.Images{BoxPlots: map[string]string{}}
	if opt.Charts && len(numeric) > 0 {
		fmt.Fprintln(progress, "Creating visualizations...")
		images, res.Notes = renderCharts(opt, res, images, res.Notes, debugf)
	}
	for _, p := range []string{images.Heatmap, images.Scatter} {
		if p != "" {
			res.Images = append(res.Images, p)
		}
	}
	for _, col := range numeric {
		if p := images.BoxPlots[col.Name]; p != "" {
			res.Images = append(res.Images, p)
		}
	}

	in := report.Input{
		Dataset:     tbl.Name,
		Rows:        tbl.Rows,
		Numeric:     res.Classification.NumericNames(),
		NonNumeric:  res.Classification.NonNumeric,
		Threshold:   opt.Threshold,
		Correlation: res.Correlation,
		Anomalies:   res.Anomalies,
		Images:      images,
		Notes:       res.Notes,
	}
	if opt.Stamp {
		in.Marker = fmt.Sprintf("generated %s run %s", opt.Now().UTC().Format(time.RFC3339), res.RunID)
	}

	fmt.Fprintln(progress, "Generating report...")
	res.Document = report.Compose(in)
	// Encode findings first so a marshal failure leaves no report behind.
	var findingsJSON []byte
	if opt.WriteJSON {
		if findingsJSON, err = utils.PrettyJSON(newFindings(res, opt)); err != nil {
			return nil, fmt.Errorf("encode findings: %w", err)
		}
	}
	res.ReportPath = filepath.Join(opt.OutputDir, ReportFile)
	if err := utils.SafeWriteFile(res.ReportPath, []byte(res.Document.Markdown())); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if opt.WriteJSON {
		res.FindingsPath = filepath.Join(opt.OutputDir, FindingsFile)
		if err := utils.SafeWriteFile(res.FindingsPath, findingsJSON); err != nil {
			return nil, fmt.Errorf("write findings: %w", err)
		}
	}
	fmt.Fprintf(progress, "Report successfully generated at '%s'\n", res.ReportPath)
	return res, nil
}

// renderCharts produces every applicable chart; each failure is recorded as a
// note and the matching image is left out.
func renderCharts(opt Options, res *Result, images report.Images, notes []string, debugf func(string, ...any)) (report.Images, []string) {
	vis, err := opt.NewVisualizer(opt.OutputDir, opt.ChartWidth, opt.ChartHeight)
	if err != nil {
		return images, append(notes, fmt.Sprintf("Charts were skipped: %v.", err))
	}
	if res.Correlation != nil {
		if p, err := vis.Heatmap(res.Correlation.Matrix); err != nil {
			notes = append(notes, fmt.Sprintf("The correlation heatmap could not be rendered: %v.", err))
		} else {
			images.Heatmap = p
			debugf("wrote %s", p)
		}
		if h := res.Correlation.Headline; h != nil {
			x, _ := columnByName(res.Classification.Numeric, h.A)
			y, _ := columnByName(res.Classification.Numeric, h.B)
			if p, err := vis.Scatter(x, y); err != nil {
				notes = append(notes, fmt.Sprintf("The scatter plot could not be rendered: %v.", err))
			} else {
				images.Scatter = p
				debugf("wrote %s", p)
			}
		}
	}
	if res.Anomalies != nil {
		for i, f := range res.Anomalies.Findings {
			if !f.HasOutliers() {
				continue
			}
			col := res.Classification.Numeric[i]
			if p, err := vis.BoxPlot(i, col, f); err != nil {
				notes = append(notes, fmt.Sprintf("The box plot for %s could not be rendered: %v.", f.Column, err))
			} else {
				images.BoxPlots[f.Column] = p
				debugf("wrote %s", p)
			}
		}
	}
	return images, notes
}

func columnByName(cols []analysis.NumericColumn, name string) (analysis.NumericColumn, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c, true
		}
	}
	return analysis.NumericColumn{Name: name}, false
}
