package render

import (
	"bytes"
	"fmt"
	"path/filepath"

	"github.com/golang/freetype/truetype"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/KaramelBytes/datastory-cli/internal/utils"
)

// Kind names a chart type.
type Kind string

const (
	KindHeatmap Kind = "heatmap"
	KindScatter Kind = "scatter"
	KindBoxPlot Kind = "boxplot"
)

// Fixed output names; images live next to the report that embeds them.
const (
	HeatmapFile = "correlation_heatmap.png"
	ScatterFile = "correlation_scatter_plot.png"
)

// BoxPlotFile names the box plot for the index-th numeric column.
func BoxPlotFile(index int, column string) string {
	return fmt.Sprintf("anomaly_boxplot_%d_%s.png", index+1, utils.Slug(column, "column"))
}

// RenderError reports a chart that could not be produced. No file is left
// behind when it is returned.
type RenderError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	if e == nil {
		return "render error"
	}
	if e.Path != "" {
		return fmt.Sprintf("render %s (%s): %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("render %s: %v", e.Kind, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Context carries the state for one rendering pass: output directory, canvas
// size and the loaded font. Build one per run and drop it afterwards.
type Context struct {
	Dir    string
	Width  int
	Height int

	font *truetype.Font
}

// NewContext loads the default font and validates the canvas size.
func NewContext(dir string, width, height int) (*Context, error) {
	if width <= 0 {
		width = 1000
	}
	if height <= 0 {
		height = 800
	}
	if width < 200 || height < 200 {
		return nil, fmt.Errorf("chart canvas too small: %dx%d", width, height)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, fmt.Errorf("load chart font: %w", err)
	}
	return &Context{Dir: dir, Width: width, Height: height, font: font}, nil
}

// save writes PNG bytes under Dir and returns the relative file name.
func (c *Context) save(kind Kind, name string, draw func(buf *bytes.Buffer) error) (string, error) {
	var buf bytes.Buffer
	if err := draw(&buf); err != nil {
		return "", &RenderError{Kind: kind, Path: name, Err: err}
	}
	if buf.Len() == 0 {
		return "", &RenderError{Kind: kind, Path: name, Err: fmt.Errorf("empty image")}
	}
	if err := utils.SafeWriteFile(filepath.Join(c.Dir, name), buf.Bytes()); err != nil {
		return "", &RenderError{Kind: kind, Path: name, Err: err}
	}
	return name, nil
}
