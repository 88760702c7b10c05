package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/spray.report/internal/fsutil"
	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/security"
	"github.com/banshee-data/spray.report/internal/spray"
)

// ChartRenderer collects the run and writes a single interactive HTML page:
// a scatter of pests numbered in visit order and the cumulative sprayed area.
type ChartRenderer struct {
	FS   fsutil.FileSystem
	Dir  string
	Name string // output file, default "visits.html"

	scene  Scene
	frames []spray.Frame
	path   string
}

// NewChartRenderer writes the page into dir on fs.
func NewChartRenderer(fs fsutil.FileSystem, dir string) *ChartRenderer {
	return &ChartRenderer{FS: fs, Dir: dir, Name: "visits.html"}
}

// Path returns the written file, empty until End succeeds.
func (c *ChartRenderer) Path() string { return c.path }

// Begin resets the collected frames.
func (c *ChartRenderer) Begin(s Scene) error {
	c.scene = s
	c.frames = c.frames[:0]
	c.path = ""
	return c.FS.MkdirAll(c.Dir, 0755)
}

// Frame records f.
func (c *ChartRenderer) Frame(f spray.Frame) error {
	c.frames = append(c.frames, f)
	return nil
}

// End renders and writes the page.
func (c *ChartRenderer) End() error {
	name := c.Name
	if name == "" {
		name = "visits.html"
	}
	path, err := security.ResolveOutputPath(c.Dir, name)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := RenderChart(&buf, c.scene, c.frames); err != nil {
		return err
	}
	if err := c.FS.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	c.path = path
	monitoring.Logf("[render] wrote %s (%d visits)", path, len(c.frames))
	return nil
}

// RenderChart writes the visit-order page for a scene and its frames to w.
func RenderChart(w io.Writer, scene Scene, frames []spray.Frame) error {
	c := &ChartRenderer{scene: scene, frames: frames}
	page := components.NewPage()
	page.PageTitle = "Pest spray run " + scene.RunID
	page.AddCharts(c.visitScatter(), c.coverageLine())
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func (c *ChartRenderer) visitScatter() *charts.Scatter {
	visited := make([]opts.ScatterData, 0, len(c.frames))
	for _, f := range c.frames {
		t := f.Target
		visited = append(visited, opts.ScatterData{
			Name:  "visit " + strconv.Itoa(f.Index+1),
			Value: []interface{}{t.Position.X, t.Position.Y, t.Size},
		})
	}

	outline := make([]opts.ScatterData, 0, len(c.scene.Region))
	for _, v := range c.scene.Region {
		outline = append(outline, opts.ScatterData{Value: []interface{}{v.X, v.Y}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Pest visits", Width: "900px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Visit order (farthest first)",
			Subtitle: fmt.Sprintf("run=%s pests=%d reference=(%.1f, %.1f)", c.scene.RunID, len(c.frames), c.scene.Reference.X, c.scene.Reference.Y),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: c.scene.Width, Name: "X", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: c.scene.Height, Name: "Y", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("pests", visited,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 12}),
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top", Formatter: "{b}"}),
	)
	scatter.AddSeries("leaf outline", outline, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}))
	scatter.AddSeries("sprayer", []opts.ScatterData{{Value: []interface{}{c.scene.Reference.X, c.scene.Reference.Y}}},
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 16}))
	return scatter
}

func (c *ChartRenderer) coverageLine() *charts.Line {
	x := make([]string, len(c.frames))
	y := make([]opts.LineData, len(c.frames))
	for i, f := range c.frames {
		x[i] = strconv.Itoa(f.Index + 1)
		y[i] = opts.LineData{Value: f.SprayedArea}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "900px", Height: "400px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Cumulative sprayed area",
			Subtitle: fmt.Sprintf("total=%.2f passes=%.2f actuation=%.2f", c.scene.Summary.TotalArea, c.scene.Summary.RequiredPasses, c.scene.Summary.RequiredActuation),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(x).AddSeries("sprayed area", y)
	return line
}
