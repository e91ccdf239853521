package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
)

// BoxPlot draws a Tukey box plot of one column, marks the rows the detector
// flagged in red and dashes the rule's bounds when they fall inside the plot.
func (c *Context) BoxPlot(index int, col analysis.NumericColumn, f analysis.AnomalyFinding) (string, error) {
	vals := analysis.Sorted(col.Values)
	name := BoxPlotFile(index, col.Name)
	if len(vals) == 0 {
		return "", &RenderError{Kind: KindBoxPlot, Path: name, Err: fmt.Errorf("column %q has no values", col.Name)}
	}
	return c.save(KindBoxPlot, name, func(buf *bytes.Buffer) error {
		r, err := chart.PNG(c.Width, c.Height)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		r.SetFont(c.font)
		drawBoxPlot(r, col.Name, vals, f, c.Width, c.Height)
		return r.Save(buf)
	})
}

func drawBoxPlot(r chart.Renderer, name string, sorted []float64, f analysis.AnomalyFinding, w, h int) {
	q1 := analysis.Quantile(sorted, 0.25)
	med := analysis.Quantile(sorted, 0.5)
	q3 := analysis.Quantile(sorted, 0.75)
	iqr := q3 - q1
	whiskerLo, whiskerHi := sorted[0], sorted[len(sorted)-1]
	for _, v := range sorted {
		if v >= q1-1.5*iqr {
			whiskerLo = v
			break
		}
	}
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] <= q3+1.5*iqr {
			whiskerHi = sorted[i]
			break
		}
	}

	vmin, vmax := sorted[0], sorted[len(sorted)-1]
	if vmin == vmax {
		vmin--
		vmax++
	}
	pad := (vmax - vmin) * 0.05
	vmin -= pad
	vmax += pad

	top, bottom := 80, h-50
	left, right := 90, w-40
	yOf := func(v float64) int {
		return bottom - int(math.Round((v-vmin)/(vmax-vmin)*float64(bottom-top)))
	}

	fillRect(r, 0, 0, w, h, drawing.ColorWhite)
	textCentered(r, "Anomaly Detection in "+name, w/2, 30, 16, colorText)
	textCentered(r, fmt.Sprintf("%d of %d values flagged (%s, k=%g)", len(f.Rows), len(sorted), f.Rule, f.Multiplier), w/2, 55, 10, colorText)

	const ticks = 5
	for i := 0; i <= ticks; i++ {
		v := vmin + (vmax-vmin)*float64(i)/ticks
		y := yOf(v)
		line(r, left, y, right, y, colorGrid, 1)
		textRight(r, formatTick(v), left-6, y, 9, colorText)
	}
	strokeRect(r, left, top, right, bottom, colorGrid, 1)

	cx := (left + right) / 2
	half := (right - left) / 6
	capHalf := half / 2
	line(r, cx, yOf(q3), cx, yOf(whiskerHi), colorText, 1.5)
	line(r, cx, yOf(q1), cx, yOf(whiskerLo), colorText, 1.5)
	line(r, cx-capHalf, yOf(whiskerHi), cx+capHalf, yOf(whiskerHi), colorText, 1.5)
	line(r, cx-capHalf, yOf(whiskerLo), cx+capHalf, yOf(whiskerLo), colorText, 1.5)
	fillRect(r, cx-half, yOf(q3), cx+half, yOf(q1), colorBox)
	strokeRect(r, cx-half, yOf(q3), cx+half, yOf(q1), colorText, 1.5)
	line(r, cx-half, yOf(med), cx+half, yOf(med), colorText, 2.5)

	if f.Bounded {
		r.SetStrokeDashArray([]float64{6, 4})
		for _, b := range []float64{f.Lower, f.Upper} {
			if b > vmin && b < vmax {
				line(r, left, yOf(b), right, yOf(b), colorOutlier, 1)
			}
		}
		r.SetStrokeDashArray(nil)
	}
	for _, o := range f.Outliers {
		r.SetFillColor(colorOutlier)
		r.SetStrokeColor(colorOutlier)
		r.SetStrokeWidth(1)
		r.Circle(5, cx, yOf(o.Value))
		r.FillStroke()
	}
	textCentered(r, name, cx, bottom+25, 11, colorText)
}
