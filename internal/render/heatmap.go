package render

import (
	"bytes"
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
)

// Heatmap renders the correlation matrix as an annotated colour grid with a
// legend running from -1 to 1. Undefined coefficients are drawn grey.
func (c *Context) Heatmap(m *analysis.CorrMatrix) (string, error) {
	if m == nil || len(m.Columns) < 2 {
		return "", &RenderError{Kind: KindHeatmap, Err: fmt.Errorf("need a matrix with at least 2 columns")}
	}
	return c.save(KindHeatmap, HeatmapFile, func(buf *bytes.Buffer) error {
		r, err := chart.PNG(c.Width, c.Height)
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		r.SetFont(c.font)
		if err := drawHeatmap(r, m, c.Width, c.Height); err != nil {
			return err
		}
		return r.Save(buf)
	})
}

func drawHeatmap(r chart.Renderer, m *analysis.CorrMatrix, w, h int) error {
	const (
		labelSize = 10.0
		top       = 60
		bottom    = 50
		legendW   = 90
	)
	fillRect(r, 0, 0, w, h, drawing.ColorWhite)
	textCentered(r, "Correlation Matrix", w/2, 30, 16, colorText)

	n := len(m.Columns)
	labels := make([]string, n)
	labelW := 0
	for i, name := range m.Columns {
		labels[i] = fit(r, name, w/4, labelSize)
		if lw := r.MeasureText(labels[i]).Width(); lw > labelW {
			labelW = lw
		}
	}
	left := 20 + labelW + 8
	cell := (w - left - legendW) / n
	if gh := (h - top - bottom) / n; gh < cell {
		cell = gh
	}
	if cell < 6 {
		return fmt.Errorf("%d columns do not fit a %dx%d canvas", n, w, h)
	}

	annotSize := 8.0
	if cell >= 60 {
		annotSize = 11
	}
	for i := 0; i < n; i++ {
		y0 := top + i*cell
		for j := 0; j < n; j++ {
			x0 := left + j*cell
			v := m.Values[i][j]
			fillRect(r, x0, y0, x0+cell, y0+cell, diverging(v))
			strokeRect(r, x0, y0, x0+cell, y0+cell, drawing.ColorWhite, 1)
			if cell >= 28 {
				fg := colorText
				if !math.IsNaN(v) && math.Abs(v) >= 0.6 {
					fg = drawing.ColorWhite
				}
				textCentered(r, formatCoef(v), x0+cell/2, y0+cell/2, annotSize, fg)
			}
		}
		textRight(r, labels[i], left-8, y0+cell/2, labelSize, colorText)
	}
	gridBottom := top + n*cell
	for j, name := range m.Columns {
		if lbl := fit(r, name, cell-2, labelSize); lbl != "" {
			textCentered(r, lbl, left+j*cell+cell/2, gridBottom+14, labelSize, colorText)
		}
	}

	barX := left + n*cell + 24
	barW := 18
	barH := n * cell
	const steps = 40
	for s := 0; s < steps; s++ {
		v := 1 - 2*(float64(s)+0.5)/steps
		fillRect(r, barX, top+s*barH/steps, barX+barW, top+(s+1)*barH/steps, diverging(v))
	}
	strokeRect(r, barX, top, barX+barW, top+barH, colorGrid, 1)
	for _, tick := range []float64{1, 0.5, 0, -0.5, -1} {
		y := top + int(math.Round((1-tick)/2*float64(barH)))
		textLeft(r, fmt.Sprintf("%.1f", tick), barX+barW+4, y, 9, colorText)
	}
	return nil
}

func formatCoef(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", v)
}
