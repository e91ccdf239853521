package pipeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
	"github.com/KaramelBytes/datastory-cli/internal/dataset"
	"github.com/KaramelBytes/datastory-cli/internal/render"
)

const salesCSV = "Region,WebsiteVisits,Sales,Refunds\n" +
	"north,1,2,10\n" +
	"south,2,4,10\n" +
	"east,3,6,10\n" +
	"west,4,8,10\n" +
	"central,5,10,100\n"

var imageRef = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func testOptions(t *testing.T, input string) Options {
	t.Helper()
	opt := DefaultOptions()
	opt.Input = input
	opt.OutputDir = filepath.Join(t.TempDir(), "reports")
	opt.ChartWidth = 640
	opt.ChartHeight = 480
	return opt
}

func readReport(t *testing.T, res *Result) string {
	t.Helper()
	b, err := os.ReadFile(res.ReportPath)
	require.NoError(t, err)
	return string(b)
}

// fakeVisualizer records calls and fails the kinds listed in fail.
type fakeVisualizer struct {
	dir   string
	fail  map[render.Kind]bool
	calls []render.Kind
}

func (f *fakeVisualizer) write(kind render.Kind, name string) (string, error) {
	f.calls = append(f.calls, kind)
	if f.fail[kind] {
		return "", &render.RenderError{Kind: kind, Path: name, Err: errors.New("boom")}
	}
	return name, os.WriteFile(filepath.Join(f.dir, name), []byte("png"), 0o644)
}

func (f *fakeVisualizer) Heatmap(*analysis.CorrMatrix) (string, error) {
	return f.write(render.KindHeatmap, render.HeatmapFile)
}

func (f *fakeVisualizer) Scatter(_, _ analysis.NumericColumn) (string, error) {
	return f.write(render.KindScatter, render.ScatterFile)
}

func (f *fakeVisualizer) BoxPlot(i int, col analysis.NumericColumn, _ analysis.AnomalyFinding) (string, error) {
	return f.write(render.KindBoxPlot, render.BoxPlotFile(i, col.Name))
}

func withFake(opt *Options, fake *fakeVisualizer) {
	opt.NewVisualizer = func(dir string, _, _ int) (Visualizer, error) {
		fake.dir = dir
		return fake, nil
	}
}

func TestRun_SalesDatasetEndToEnd(t *testing.T) {
	opt := testOptions(t, writeCSV(t, "sales.csv", salesCSV))
	res, err := Run(opt)
	require.NoError(t, err)

	assert.Equal(t, []string{"WebsiteVisits", "Sales", "Refunds"}, res.Classification.NumericNames())
	assert.Equal(t, []string{"Region"}, res.Classification.NonNumeric)
	require.NotNil(t, res.Correlation.Headline)
	assert.Equal(t, "WebsiteVisits", res.Correlation.Headline.A)
	assert.Equal(t, "Sales", res.Correlation.Headline.B)
	assert.Equal(t, 1.0, res.Correlation.Headline.R)
	assert.True(t, res.Anomalies.Any())

	md := readReport(t, res)
	assert.Contains(t, md, "between **WebsiteVisits** and **Sales** with a correlation coefficient of **1.00**")
	assert.Contains(t, md, "Outliers were identified in **Refunds**.")

	refs := imageRef.FindAllStringSubmatch(md, -1)
	require.Len(t, refs, 3)
	for _, m := range refs {
		_, err := os.Stat(filepath.Join(opt.OutputDir, m[1]))
		assert.NoError(t, err, "report links %s", m[1])
	}
	assert.Len(t, res.Images, 3)
}

func TestRun_ZeroNumericColumns(t *testing.T) {
	opt := testOptions(t, writeCSV(t, "names.csv", "first,last\nada,lovelace\nalan,turing\n"))
	fake := &fakeVisualizer{}
	withFake(&opt, fake)

	res, err := Run(opt)
	require.NoError(t, err)
	assert.Nil(t, res.Correlation)
	assert.Nil(t, res.Anomalies)
	assert.Empty(t, fake.calls)

	md := readReport(t, res)
	assert.Contains(t, md, "No significant correlations were found")
	assert.Contains(t, md, "No significant anomalies were detected")
	assert.NotContains(t, md, "![")
}

func TestRun_SingleNumericColumnHasNoHeadline(t *testing.T) {
	opt := testOptions(t, writeCSV(t, "one.csv", "name,score\na,1\nb,2\nc,3\n"))
	fake := &fakeVisualizer{}
	withFake(&opt, fake)

	res, err := Run(opt)
	require.NoError(t, err)
	assert.Nil(t, res.Correlation)
	require.NotNil(t, res.Anomalies)
	assert.False(t, res.Anomalies.Any())
	assert.Contains(t, readReport(t, res), "needs at least two numeric columns; this dataset has 1.")
}

func TestRun_LoadErrorWritesNothing(t *testing.T) {
	opt := testOptions(t, filepath.Join(t.TempDir(), "missing.csv"))
	res, err := Run(opt)
	assert.Nil(t, res)
	var le *dataset.LoadError
	require.True(t, errors.As(err, &le))

	_, statErr := os.Stat(opt.OutputDir)
	assert.True(t, os.IsNotExist(statErr), "output dir should not be created")
}

func TestRun_HeaderOnlyIsLoadError(t *testing.T) {
	opt := testOptions(t, writeCSV(t, "empty.csv", "a,b\n"))
	_, err := Run(opt)
	var le *dataset.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "no data rows", le.Reason)
}

func TestRun_RenderFailuresDegradeToText(t *testing.T) {
	opt := testOptions(t, writeCSV(t, "sales.csv", salesCSV))
	fake := &fakeVisualizer{fail: map[render.Kind]bool{render.KindHeatmap: true, render.KindScatter: true}}
	withFake(&opt, fake)

	res, err := Run(opt)
	require.NoError(t, err)
	assert.Equal(t, []render.Kind{render.KindHeatmap, render.KindScatter, render.KindBoxPlot}, fake.calls)

	md := readReport(t, res)
	assert.NotContains(t, md, render.HeatmapFile)
	assert.NotContains(t, md, render.ScatterFile)
	assert.Contains(t, md, "### Correlation Matrix\n")
	assert.Contains(t, md, "A scatter plot of WebsiteVisits against Sales is not available")
	assert.Contains(t, md, "The correlation heatmap could not be rendered")
	assert.Contains(t, md, "anomaly_boxplot_3_refunds.png")
	assert.Equal(t, []string{"anomaly_boxplot_3_refunds.png"}, res.Images)
}

func TestRun_VisualizerUnavailable(t *testing.T) {
	opt := testOptions(t, writeCSV(t, "sales.csv", salesCSV))
	opt.NewVisualizer = func(string, int, int) (Visualizer, error) {
		return nil, fmt.Errorf("no font")
	}
	res, err := Run(opt)
	require.NoError(t, err)
	md := readReport(t, res)
	assert.NotContains(t, md, "![")
	assert.Contains(t, md, "Charts were skipped: no font.")
}

func TestRun_NoChartsOption(t *testing.T) {
	opt := testOptions(t, writeCSV(t, "sales.csv", salesCSV))
	opt.Charts = false
	fake := &fakeVisualizer{}
	withFake(&opt, fake)

	res, err := Run(opt)
	require.NoError(t, err)
	assert.Empty(t, fake.calls)
	assert.Empty(t, res.Images)
	assert.NotContains(t, readReport(t, res), "![")
}

func TestRun_RepeatedRunsAreIdentical(t *testing.T) {
	input := writeCSV(t, "sales.csv", salesCSV)
	a := testOptions(t, input)
	b := testOptions(t, input)

	ra, err := Run(a)
	require.NoError(t, err)
	rb, err := Run(b)
	require.NoError(t, err)

	assert.Equal(t, readReport(t, ra), readReport(t, rb))
	require.Equal(t, ra.Images, rb.Images)
	for _, img := range ra.Images {
		ba, err := os.ReadFile(filepath.Join(a.OutputDir, img))
		require.NoError(t, err)
		bb, err := os.ReadFile(filepath.Join(b.OutputDir, img))
		require.NoError(t, err)
		assert.True(t, bytes.Equal(ba, bb), "image %s differs between runs", img)
	}
}

func TestRun_StampOnlyChangesMarker(t *testing.T) {
	input := writeCSV(t, "sales.csv", salesCSV)
	plain := testOptions(t, input)
	plain.Charts = false
	stamped := plain
	stamped.OutputDir = filepath.Join(t.TempDir(), "stamped")
	stamped.Stamp = true
	stamped.Now = func() time.Time { return time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC) }

	rp, err := Run(plain)
	require.NoError(t, err)
	rs, err := Run(stamped)
	require.NoError(t, err)

	withMarker := readReport(t, rs)
	assert.Contains(t, withMarker, "<!-- generated 2026-10-15T09:30:00Z run "+rs.RunID+" -->")
	stripped := regexp.MustCompile(`(?m)^<!-- generated .* -->\n\n`).ReplaceAllString(withMarker, "")
	assert.Equal(t, readReport(t, rp), stripped)
}

func TestRun_WritesFindingsJSON(t *testing.T) {
	csv := "a,b,flat\n1,2,5\n2,4,5\n3,6,5\n"
	opt := testOptions(t, writeCSV(t, "f.csv", csv))
	opt.Charts = false
	opt.WriteJSON = true

	res, err := Run(opt)
	require.NoError(t, err)
	b, err := os.ReadFile(res.FindingsPath)
	require.NoError(t, err)

	var got struct {
		RunID    string `json:"run_id"`
		Headline struct {
			A, B string
			R    float64
		} `json:"headline_correlation"`
		Matrix struct {
			Values [][]*float64 `json:"values"`
		} `json:"correlation_matrix"`
		Rule string `json:"outlier_rule"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, res.RunID, got.RunID)
	assert.Equal(t, "a", got.Headline.A)
	assert.Equal(t, 1.0, got.Headline.R)
	assert.Nil(t, got.Matrix.Values[0][2], "undefined coefficient should be null")
	assert.Equal(t, "iqr", got.Rule)
	assert.True(t, strings.HasSuffix(res.FindingsPath, FindingsFile))
}

func TestRun_RejectsNonFiniteSettingsBeforeWriting(t *testing.T) {
	input := writeCSV(t, "sales.csv", salesCSV)
	cases := map[string]func(*Options){
		"nan threshold":       func(o *Options) { o.Threshold = math.NaN() },
		"inf threshold":       func(o *Options) { o.Threshold = math.Inf(1) },
		"inf multiplier":      func(o *Options) { o.Detector.Multiplier = math.Inf(1) },
		"nan multiplier":      func(o *Options) { o.Detector.Multiplier = math.NaN() },
		"negative multiplier": func(o *Options) { o.Detector.Multiplier = -2 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			opt := testOptions(t, input)
			opt.WriteJSON = true
			mutate(&opt)
			res, err := Run(opt)
			require.Error(t, err)
			assert.Nil(t, res)
			_, statErr := os.Stat(opt.OutputDir)
			assert.True(t, os.IsNotExist(statErr), "nothing should be written")
		})
	}
}
