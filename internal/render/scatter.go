package render

import (
	"bytes"
	"fmt"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/KaramelBytes/datastory-cli/internal/analysis"
)

// Scatter plots y against x over the rows where both are present, with a
// least-squares trend line.
func (c *Context) Scatter(x, y analysis.NumericColumn) (string, error) {
	xs, ys := analysis.PairwiseComplete(x.Values, y.Values)
	if len(xs) < 2 {
		return "", &RenderError{Kind: KindScatter, Err: fmt.Errorf("need at least 2 paired values, have %d", len(xs))}
	}
	return c.save(KindScatter, ScatterFile, func(buf *bytes.Buffer) error {
		points := &chart.ContinuousSeries{
			Name:    fmt.Sprintf("%s vs %s", x.Name, y.Name),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeWidth: chart.Disabled,
				DotWidth:    4,
				DotColor:    colorScatter,
			},
		}
		trend := &chart.LinearRegressionSeries{
			Name:        "linear fit",
			InnerSeries: points,
			Style: chart.Style{
				StrokeColor: colorTrend,
				StrokeWidth: 2,
			},
		}
		graph := chart.Chart{
			Title:  fmt.Sprintf("Scatter Plot: %s vs %s", x.Name, y.Name),
			Font:   c.font,
			Width:  c.Width,
			Height: c.Height,
			Background: chart.Style{
				Padding: chart.Box{
					Top:    50,
					Left:   20,
					Right:  20,
					Bottom: 20,
				},
				FillColor: drawing.ColorWhite,
			},
			XAxis: chart.XAxis{
				Name:           x.Name,
				ValueFormatter: formatTick,
			},
			YAxis: chart.YAxis{
				Name:           y.Name,
				ValueFormatter: formatTick,
			},
			Series: []chart.Series{points, trend},
		}
		graph.Background.StrokeWidth = 1
		graph.Background.StrokeColor = colorGrid
		if err := graph.Render(chart.PNG, buf); err != nil {
			return fmt.Errorf("error rendering chart: %w", err)
		}
		return nil
	})
}
