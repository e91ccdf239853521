package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
)

// maxOutlierRows caps the per-column outlier table.
const maxOutlierRows = 20

// Images holds the charts that were actually written, relative to the report.
// An empty path means the chart does not exist.
type Images struct {
	Heatmap  string
	Scatter  string
	BoxPlots map[string]string // by column name
}

// Input is everything the composer needs. Nil Correlation or Anomalies means
// the step was not applicable to this dataset.
type Input struct {
	Dataset    string
	Rows       int
	Numeric    []string
	NonNumeric []string

	Threshold   float64
	Correlation *analysis.CorrelationReport
	Anomalies   *analysis.AnomalySummary

	Images Images
	Notes  []string
	// Marker is an optional generation comment placed under the title.
	Marker string
}

// Compose assembles the narrative. The output depends only on in.
func Compose(in Input) *Document {
	d := &Document{}
	d.heading(1, "Automated Data Analysis Report")
	if in.Marker != "" {
		d.marker(in.Marker)
	}
	composeIntro(d, in)
	composeCorrelation(d, in)
	composeAnomalies(d, in)

	d.heading(2, "4. Conclusion")
	d.text("This automated report is intended to provide a high-level overview of the data. Further investigation is recommended to understand the context behind these findings.")
	if len(in.Notes) > 0 {
		d.heading(3, "Notes")
		lines := make([]string, len(in.Notes))
		for i, n := range in.Notes {
			lines[i] = "- " + n
		}
		d.text(strings.Join(lines, "\n"))
	}
	return d
}

func composeIntro(d *Document, in Input) {
	d.heading(2, "1. Introduction")
	d.text("This report provides an automated analysis of the provided dataset. It highlights key correlations and identifies potential anomalies.")
	total := len(in.Numeric) + len(in.NonNumeric)
	var b strings.Builder
	if in.Dataset != "" {
		fmt.Fprintf(&b, "The dataset **%s** contains %d rows and %d columns", safeName(in.Dataset), in.Rows, total)
	} else {
		fmt.Fprintf(&b, "The dataset contains %d rows and %d columns", in.Rows, total)
	}
	fmt.Fprintf(&b, ": %d numeric%s and %d non-numeric%s.",
		len(in.Numeric), nameList(in.Numeric), len(in.NonNumeric), nameList(in.NonNumeric))
	d.text(b.String())
}

func composeCorrelation(d *Document, in Input) {
	d.heading(2, "2. Correlation Analysis")
	rep := in.Correlation
	thr := in.Threshold
	if thr <= 0 && rep != nil {
		thr = rep.Threshold
	}
	if thr <= 0 {
		thr = analysis.DefaultSignificanceThreshold
	}
	if rep == nil {
		d.text(fmt.Sprintf("No significant correlations were found among the numerical variables. Correlation analysis needs at least two numeric columns; this dataset has %d.", len(in.Numeric)))
		return
	}
	h := rep.Headline
	switch {
	case h == nil:
		d.text("No significant correlations were found among the numerical variables. No pair of numeric columns had enough varying, jointly present values to compute a coefficient.")
	case h.Significant:
		d.text(fmt.Sprintf("The analysis identified a strong relationship between variables. The most significant correlation is between **%s** and **%s** with a correlation coefficient of **%.2f** (%s, %d paired observations, threshold |r| ≥ %.2f).",
			safeName(h.A), safeName(h.B), h.R, direction(h.R), h.N, thr))
	default:
		d.text(fmt.Sprintf("No significant correlations were found among the numerical variables (threshold |r| ≥ %.2f). The strongest observed relationship is between **%s** and **%s** with a correlation coefficient of %.2f.",
			thr, safeName(h.A), safeName(h.B), h.R))
	}

	if in.Images.Heatmap != "" {
		d.heading(3, "Correlation Matrix Heatmap")
		d.image("Correlation Heatmap", in.Images.Heatmap)
	} else if rep.Matrix != nil {
		d.heading(3, "Correlation Matrix")
		d.table(matrixTable(rep.Matrix))
	}
	if h == nil {
		return
	}
	if in.Images.Scatter != "" {
		d.heading(3, fmt.Sprintf("Scatter Plot: %s vs %s", safeName(h.A), safeName(h.B)))
		d.image("Scatter Plot", in.Images.Scatter)
	} else if h.Significant {
		d.text(fmt.Sprintf("A scatter plot of %s against %s is not available; the coefficient above summarizes their relationship.", safeName(h.A), safeName(h.B)))
	}
}

func composeAnomalies(d *Document, in Input) {
	d.heading(2, "3. Anomaly Detection")
	s := in.Anomalies
	if s == nil {
		d.text("No significant anomalies were detected. Anomaly detection needs at least one numeric column; this dataset has none.")
		return
	}
	desc := s.Detector.Describe()
	flagged := s.Flagged()
	if len(flagged) == 0 {
		d.text(fmt.Sprintf("No significant anomalies were detected in the %d analyzed numeric column(s) using %s.", len(s.Findings), desc))
		return
	}
	names := make([]string, len(flagged))
	for i, f := range flagged {
		names[i] = "**" + safeName(f.Column) + "**"
	}
	d.text(fmt.Sprintf("Anomaly detection was performed on %d numeric column(s) using %s. Outliers were identified in %s.",
		len(s.Findings), desc, strings.Join(names, ", ")))

	for _, f := range flagged {
		d.heading(3, "Outliers in "+safeName(f.Column))
		d.text(fmt.Sprintf("%d of %d values fall outside the range [%.4g, %.4g] (mean %.4g, standard deviation %.4g).",
			len(f.Rows), f.Count, f.Lower, f.Upper, f.Mean, f.Std))
		d.table(outlierTable(f))
		if len(f.Outliers) > maxOutlierRows {
			d.text(fmt.Sprintf("Showing the first %d of %d outliers.", maxOutlierRows, len(f.Outliers)))
		}
		if path := in.Images.BoxPlots[f.Column]; path != "" {
			d.text("This box plot visualizes the distribution and highlights the outliers.")
			d.image("Anomaly Boxplot: "+safeVal(f.Column), path)
		}
	}
}

// outlierTable lists flagged rows; Row is the 1-based data row (header excluded).
func outlierTable(f analysis.AnomalyFinding) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Row", "Value", "Deviation from mean"})
	for i, o := range f.Outliers {
		if i >= maxOutlierRows {
			break
		}
		t.AppendRow(table.Row{o.Row + 1, fmt.Sprintf("%g", o.Value), fmt.Sprintf("%+.4g", o.Deviation)})
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	return t.RenderMarkdown()
}

func matrixTable(m *analysis.CorrMatrix) string {
	t := table.NewWriter()
	header := table.Row{""}
	for _, c := range m.Columns {
		header = append(header, safeVal(c))
	}
	t.AppendHeader(header)
	for i, c := range m.Columns {
		row := table.Row{safeVal(c)}
		for j := range m.Columns {
			v := m.Values[i][j]
			if math.IsNaN(v) {
				row = append(row, "n/a")
			} else {
				row = append(row, fmt.Sprintf("%.2f", v))
			}
		}
		t.AppendRow(row)
	}
	return t.RenderMarkdown()
}

func direction(r float64) string {
	if r < 0 {
		return "negative"
	}
	return "positive"
}

func nameList(names []string) string {
	if len(names) == 0 {
		return ""
	}
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = safeName(n)
	}
	return " (" + strings.Join(out, ", ") + ")"
}

// lineBreaks folds embedded line breaks so a name stays on its heading line.
var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

func safeName(s string) string {
	s = strings.TrimSpace(lineBreaks.Replace(s))
	if s == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(s, "*", "\\*")
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
