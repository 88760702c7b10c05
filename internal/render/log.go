package render

import (
	"fmt"
	"io"

	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/units"
)

// LogRenderer prints the coverage report and one line per visit.
type LogRenderer struct {
	W io.Writer
	// MovementUnits labels the actuation figure; empty means mm.
	MovementUnits string
}

// Begin prints the coverage summary.
func (l *LogRenderer) Begin(s Scene) error {
	u := l.MovementUnits
	if u == "" {
		u = units.MM
	}
	_, err := fmt.Fprintf(l.W,
		"run %s: %d pests to spray\nLeaf area: %.2f\nTotal pest area: %.2f\nAdjustments needed: %.2f\nShaft movement: %.2f %s\n",
		s.RunID, len(s.Targets), s.LeafArea, s.Summary.TotalArea, s.Summary.RequiredPasses, s.Summary.RequiredActuation, u)
	return err
}

// Frame prints one visit.
func (l *LogRenderer) Frame(f spray.Frame) error {
	t := f.Target
	_, err := fmt.Fprintf(l.W,
		"visit %d/%d: pest at (%.2f, %.2f) size %.2f, distance %.2f, angle %.2f, hop %.2f @ %.2f, spray diameter %.2f, sprayed %.2f\n",
		f.Index+1, f.Total, t.Position.X, t.Position.Y, t.Size, t.Distance, t.Angle,
		f.Leg.Distance, f.Leg.Angle, f.SprayDiameter, f.SprayedArea)
	return err
}

// End prints a completion line.
func (l *LogRenderer) End() error {
	_, err := fmt.Fprintln(l.W, "spraying complete")
	return err
}
