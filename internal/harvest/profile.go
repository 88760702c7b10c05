package harvest

import (
	"fmt"
	"image/color"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/spray.report/internal/fsutil"
	"github.com/banshee-data/spray.report/internal/security"
)

// Timeline is the arm and jaw trace of a paced harvest cycle.
type Timeline struct {
	Seconds  []float64 // time each step starts
	Position []float64
	Jaw      []float64
}

// NewTimeline flattens phases onto a common time axis.
func NewTimeline(phases []Phase) Timeline {
	var dt []float64
	var tl Timeline
	for _, ph := range phases {
		for _, s := range ph.Steps {
			dt = append(dt, ph.Interval.Seconds())
			tl.Position = append(tl.Position, s.Position)
			tl.Jaw = append(tl.Jaw, s.Jaw)
		}
	}
	if len(dt) == 0 {
		return tl
	}
	// Step i starts after the intervals of steps 0..i-1.
	tl.Seconds = make([]float64, len(dt))
	floats.CumSum(tl.Seconds[1:], dt[:len(dt)-1])
	return tl
}

// TotalDuration returns how long the phases take when paced.
func TotalDuration(phases []Phase) time.Duration {
	var sum time.Duration
	for _, ph := range phases {
		sum += ph.Duration()
	}
	return sum
}

// WriteProfile plots arm extension and jaw width over time to dir/name.
func WriteProfile(fs fsutil.FileSystem, dir, name string, plan Plan, phases []Phase) (string, error) {
	path, err := security.ResolveOutputPath(dir, security.SanitizeFilename(name))
	if err != nil {
		return "", err
	}
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create profile dir: %w", err)
	}

	tl := NewTimeline(phases)
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Harvest cycle: %.2f m at %.2f m/s", plan.Distance, plan.Speed)
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Metres"

	arm, err := plotter.NewLine(xys(tl.Seconds, tl.Position))
	if err != nil {
		return "", err
	}
	arm.Color = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	arm.Width = vg.Points(2)

	jaw, err := plotter.NewLine(xys(tl.Seconds, tl.Jaw))
	if err != nil {
		return "", err
	}
	jaw.Color = color.RGBA{R: 30, G: 60, B: 200, A: 255}
	jaw.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	p.Add(arm, jaw, plotter.NewGrid())
	p.Legend.Add("arm extension", arm)
	p.Legend.Add("cutter width", jaw)
	p.Legend.Top = true

	wt, err := p.WriterTo(6*vg.Inch, 3*vg.Inch, "png")
	if err != nil {
		return "", fmt.Errorf("render profile: %w", err)
	}
	f, err := fs.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := wt.WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	diagf("wrote profile %s", path)
	return path, nil
}

func xys(x, y []float64) plotter.XYs {
	pts := make(plotter.XYs, len(x))
	for i := range x {
		pts[i] = plotter.XY{X: x[i], Y: y[i]}
	}
	return pts
}
