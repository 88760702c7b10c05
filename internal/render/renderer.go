// Package render consumes the spray visit sequence: it paces frames on a
// clock and hands them to renderers that print, plot or drive hardware.
package render

import (
	"errors"

	"github.com/banshee-data/spray.report/internal/spray"
)

// Scene is the static part of a run every renderer receives once.
type Scene struct {
	RunID       string
	Region      []spray.Point
	LeafArea    float64
	Width       float64
	Height      float64
	Reference   spray.Point
	Origin      spray.Point
	SprayRadius float64
	Summary     spray.CoverageSummary
	Targets     []spray.ScoredTarget
}

// SceneFromPlan extracts the static scene from a plan.
func SceneFromPlan(runID string, plan *spray.Plan) Scene {
	var region []spray.Point
	var area float64
	if plan.Region != nil {
		region = plan.Region.Vertices()
		area = plan.Region.Area()
	}
	return Scene{
		RunID:       runID,
		Region:      region,
		LeafArea:    area,
		Width:       plan.Width,
		Height:      plan.Height,
		Reference:   plan.Reference,
		Origin:      plan.Origin,
		SprayRadius: plan.SprayRadius,
		Summary:     plan.Summary,
		Targets:     plan.Ordered,
	}
}

// Renderer is the consumer side of a spray run. Begin is called once, then
// Frame once per visit in order, then End, even after an earlier error.
type Renderer interface {
	Begin(Scene) error
	Frame(spray.Frame) error
	End() error
}

// Multi fans every call out to each renderer in order. Errors are joined so
// one failing renderer does not starve the rest.
type Multi []Renderer

// Begin starts every renderer.
func (m Multi) Begin(s Scene) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Begin(s))
	}
	return errors.Join(errs...)
}

// Frame forwards f to every renderer.
func (m Multi) Frame(f spray.Frame) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Frame(f))
	}
	return errors.Join(errs...)
}

// End finishes every renderer.
func (m Multi) End() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.End())
	}
	return errors.Join(errs...)
}
