package render

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/spray.report/internal/fsutil"
	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/security"
	"github.com/banshee-data/spray.report/internal/spray"
)

var (
	leafFill    = color.RGBA{R: 120, G: 190, B: 90, A: 255}
	leafEdge    = color.RGBA{R: 40, G: 110, B: 30, A: 255}
	pestColor   = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	doneColor   = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	sprayFill   = color.RGBA{R: 40, G: 110, B: 220, A: 90}
	pathColor   = color.RGBA{R: 20, G: 20, B: 20, A: 255}
	sprayerMark = color.RGBA{R: 250, G: 170, B: 0, A: 255}
)

// circleSegments is the polygon resolution used for spray circles.
const circleSegments = 48

// PlotRenderer writes one PNG per visit showing the leaf, the pests still to
// spray, the spray circle at the current pest and the sprayer's path so far.
// End adds coverage.png with the cumulative sprayed area.
type PlotRenderer struct {
	FS     fsutil.FileSystem
	Dir    string
	Prefix string    // frame file prefix, default "frame"
	Width  vg.Length // image width, default 6in; height follows the leaf aspect

	scene   Scene
	path    plotter.XYs
	sprayed plotter.XYs
	written []string
}

// NewPlotRenderer writes PNGs into dir on fs.
func NewPlotRenderer(fs fsutil.FileSystem, dir string) *PlotRenderer {
	return &PlotRenderer{FS: fs, Dir: dir, Prefix: "frame", Width: 6 * vg.Inch}
}

// Files returns the paths written so far.
func (r *PlotRenderer) Files() []string {
	return append([]string(nil), r.written...)
}

// Begin creates the output directory and resets per-run state.
func (r *PlotRenderer) Begin(s Scene) error {
	if err := r.FS.MkdirAll(r.Dir, 0755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}
	r.scene = s
	r.path = plotter.XYs{{X: s.Origin.X, Y: s.Origin.Y}}
	r.sprayed = nil
	r.written = nil
	return nil
}

// Frame renders the leaf after spraying f's target.
func (r *PlotRenderer) Frame(f spray.Frame) error {
	pos := f.Target.Position
	r.path = append(r.path, plotter.XY{X: pos.X, Y: pos.Y})
	r.sprayed = append(r.sprayed, plotter.XY{X: float64(f.Index + 1), Y: f.SprayedArea})

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Visit %d/%d: distance %.2f, angle %.2f", f.Index+1, f.Total, f.Target.Distance, f.Target.Angle)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.X.Min, p.X.Max = 0, r.scene.Width
	p.Y.Min, p.Y.Max = 0, r.scene.Height

	if len(r.scene.Region) >= 3 {
		leaf, err := polygon(r.scene.Region)
		if err != nil {
			return err
		}
		leaf.Color = leafFill
		leaf.LineStyle.Color = leafEdge
		leaf.LineStyle.Width = vg.Points(2)
		p.Add(leaf)
	}

	circle, err := polygon(circlePoints(pos, f.SprayDiameter/2))
	if err != nil {
		return err
	}
	circle.Color = sprayFill
	circle.LineStyle.Width = 0
	p.Add(circle)

	if f.Index > 0 {
		done, err := targetScatter(r.scene.Targets[:f.Index], doneColor)
		if err != nil {
			return err
		}
		p.Add(done)
	}
	if f.Index < len(r.scene.Targets) {
		pending, err := targetScatter(r.scene.Targets[f.Index:], pestColor)
		if err != nil {
			return err
		}
		p.Add(pending)
		p.Legend.Add("pests", pending)
	}

	route, err := plotter.NewLine(r.path)
	if err != nil {
		return err
	}
	route.Color = pathColor
	route.Width = vg.Points(1)
	route.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
	p.Add(route)
	p.Legend.Add("sprayer path", route)

	sprayer, err := plotter.NewScatter(plotter.XYs{{X: pos.X, Y: pos.Y}})
	if err != nil {
		return err
	}
	sprayer.GlyphStyle.Shape = draw.TriangleGlyph{}
	sprayer.GlyphStyle.Color = sprayerMark
	sprayer.GlyphStyle.Radius = vg.Points(6)
	p.Add(sprayer)

	return r.save(p, fmt.Sprintf("%s_%03d.png", security.SanitizeFilename(r.prefix()), f.Index+1))
}

// End writes the cumulative coverage chart.
func (r *PlotRenderer) End() error {
	if len(r.sprayed) == 0 {
		return nil
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Sprayed area (total %.2f, %.2f passes)", r.scene.Summary.TotalArea, r.scene.Summary.RequiredPasses)
	p.X.Label.Text = "Visit"
	p.Y.Label.Text = "Cumulative area"

	line, err := plotter.NewLine(r.sprayed)
	if err != nil {
		return err
	}
	line.Width = vg.Points(2)
	line.Color = sprayFill
	p.Add(line, plotter.NewGrid())

	total, err := plotter.NewLine(plotter.XYs{
		{X: 1, Y: r.scene.Summary.TotalArea},
		{X: float64(len(r.sprayed)), Y: r.scene.Summary.TotalArea},
	})
	if err != nil {
		return err
	}
	total.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
	p.Add(total)
	p.Legend.Add("sprayed", line)
	p.Legend.Add("total", total)

	return r.save(p, "coverage.png")
}

func (r *PlotRenderer) prefix() string {
	if r.Prefix == "" {
		return "frame"
	}
	return r.Prefix
}

func (r *PlotRenderer) save(p *plot.Plot, name string) error {
	path, err := security.ResolveOutputPath(r.Dir, name)
	if err != nil {
		return err
	}

	w := r.Width
	if w <= 0 {
		w = 6 * vg.Inch
	}
	h := w
	if r.scene.Width > 0 && r.scene.Height > 0 {
		h = vg.Length(float64(w) * r.scene.Height / r.scene.Width)
	}

	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	f, err := r.FS.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	r.written = append(r.written, path)
	monitoring.Logf("[render] wrote %s", path)
	return nil
}

func polygon(pts []spray.Point) (*plotter.Polygon, error) {
	xys := make(plotter.XYs, len(pts))
	for i, pt := range pts {
		xys[i] = plotter.XY{X: pt.X, Y: pt.Y}
	}
	return plotter.NewPolygon(xys)
}

func circlePoints(c spray.Point, radius float64) []spray.Point {
	pts := make([]spray.Point, circleSegments)
	for i := range pts {
		a := 2 * math.Pi * float64(i) / circleSegments
		pts[i] = spray.Point{X: c.X + radius*math.Cos(a), Y: c.Y + radius*math.Sin(a)}
	}
	return pts
}

// targetScatter draws pests with a glyph radius growing with pest size.
func targetScatter(ts []spray.ScoredTarget, c color.Color) (*plotter.Scatter, error) {
	xys := make(plotter.XYs, len(ts))
	for i, t := range ts {
		xys[i] = plotter.XY{X: t.Position.X, Y: t.Position.Y}
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, err
	}
	s.GlyphStyleFunc = func(i int) draw.GlyphStyle {
		return draw.GlyphStyle{
			Color:  c,
			Shape:  draw.CircleGlyph{},
			Radius: vg.Points(2 + math.Sqrt(ts[i].Size)/2),
		}
	}
	return s, nil
}
