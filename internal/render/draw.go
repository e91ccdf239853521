package render

import (
	"fmt"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	colorText    = drawing.ColorFromHex("333333")
	colorGrid    = drawing.ColorFromHex("efefef")
	colorUndef   = drawing.ColorFromHex("d9d9d9")
	colorBox     = drawing.ColorFromHex("6baed6")
	colorOutlier = drawing.ColorRed
	colorCold    = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	colorNeutral = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	colorHot     = drawing.Color{R: 180, G: 4, B: 38, A: 255}
	colorScatter = drawing.ColorFromHex("1f77b4")
	colorTrend   = drawing.ColorFromHex("d62728")
)

func fillRect(r chart.Renderer, x0, y0, x1, y1 int, fill drawing.Color) {
	r.SetFillColor(fill)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Fill()
}

func strokeRect(r chart.Renderer, x0, y0, x1, y1 int, stroke drawing.Color, width float64) {
	r.SetStrokeColor(stroke)
	r.SetStrokeWidth(width)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.Close()
	r.Stroke()
}

func line(r chart.Renderer, x0, y0, x1, y1 int, stroke drawing.Color, width float64) {
	r.SetStrokeColor(stroke)
	r.SetStrokeWidth(width)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y1)
	r.Stroke()
}

// textCentered draws body centered on (cx, cy).
func textCentered(r chart.Renderer, body string, cx, cy int, size float64, color drawing.Color) {
	r.SetFontSize(size)
	r.SetFontColor(color)
	tb := r.MeasureText(body)
	r.Text(body, cx-tb.Width()/2, cy+tb.Height()/2)
}

// textRight draws body so that it ends at x, vertically centered on cy.
func textRight(r chart.Renderer, body string, x, cy int, size float64, color drawing.Color) {
	r.SetFontSize(size)
	r.SetFontColor(color)
	tb := r.MeasureText(body)
	r.Text(body, x-tb.Width(), cy+tb.Height()/2)
}

// fit shortens body with an ellipsis until it is at most maxWidth pixels wide.
func fit(r chart.Renderer, body string, maxWidth int, size float64) string {
	r.SetFontSize(size)
	if r.MeasureText(body).Width() <= maxWidth {
		return body
	}
	runes := []rune(body)
	for len(runes) > 1 {
		runes = runes[:len(runes)-1]
		cand := string(runes) + "…"
		if r.MeasureText(cand).Width() <= maxWidth {
			return cand
		}
	}
	return ""
}

// diverging maps a coefficient in [-1, 1] onto a cold-neutral-hot ramp.
func diverging(v float64) drawing.Color {
	if math.IsNaN(v) {
		return colorUndef
	}
	if v < -1 {
		v = -1
	} else if v > 1 {
		v = 1
	}
	if v < 0 {
		return lerp(colorNeutral, colorCold, -v)
	}
	return lerp(colorNeutral, colorHot, v)
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}

// textLeft draws body starting at x, vertically centered on cy.
func textLeft(r chart.Renderer, body string, x, cy int, size float64, color drawing.Color) {
	r.SetFontSize(size)
	r.SetFontColor(color)
	tb := r.MeasureText(body)
	r.Text(body, x, cy+tb.Height()/2)
}

func formatTick(v interface{}) string {
	if vf, isFloat := v.(float64); isFloat {
		return fmt.Sprintf("%.4g", vf)
	}
	return ""
}
