package spray

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// ScoredTarget is a Target with its distance and bearing from the reference
// point. Angle is in degrees, (-180, 180].
type ScoredTarget struct {
	Target
	Distance float64 `json:"distance"`
	Angle    float64 `json:"angle"`
}

// CoverageSummary aggregates the filtered target set for one run.
type CoverageSummary struct {
	TotalArea         float64 `json:"total_area"`
	CoverageUnitArea  float64 `json:"coverage_unit_area"`
	RequiredPasses    float64 `json:"required_passes"`
	RequiredActuation float64 `json:"required_actuation"`
}

// SprayUnitArea is the area one spray pass covers for a nozzle of the given
// radius: π·r².
func SprayUnitArea(radius float64) float64 {
	return math.Pi * radius * radius
}

// Score computes distance and bearing from reference for every target.
func Score(targets []Target, reference Point) []ScoredTarget {
	scored := make([]ScoredTarget, len(targets))
	for i, t := range targets {
		scored[i] = ScoredTarget{
			Target:   t,
			Distance: Distance(reference, t.Position),
			Angle:    Bearing(reference, t.Position),
		}
	}
	return scored
}

// Order returns a new slice sorted farthest-first. The sort is stable, so
// equidistant targets keep their input order.
func Order(scored []ScoredTarget) []ScoredTarget {
	ordered := slices.Clone(scored)
	slices.SortStableFunc(ordered, func(a, b ScoredTarget) int {
		return cmp.Compare(b.Distance, a.Distance)
	})
	return ordered
}

// Summarize converts the total target area into spray passes and actuator
// movement. coverageUnitArea must be positive and movementPerPass
// non-negative.
func Summarize(targets []Target, coverageUnitArea, movementPerPass float64) (CoverageSummary, error) {
	if err := validateCoverage(coverageUnitArea, movementPerPass); err != nil {
		return CoverageSummary{}, err
	}

	sizes := make([]float64, len(targets))
	for i, t := range targets {
		sizes[i] = t.Size
	}
	total := floats.Sum(sizes)
	passes := total / coverageUnitArea

	return CoverageSummary{
		TotalArea:         total,
		CoverageUnitArea:  coverageUnitArea,
		RequiredPasses:    passes,
		RequiredActuation: passes * movementPerPass,
	}, nil
}

func validateCoverage(coverageUnitArea, movementPerPass float64) error {
	if !finite(coverageUnitArea) || coverageUnitArea <= 0 {
		return fmt.Errorf("%w: coverage unit area must be positive, got %v", ErrInvalidConfiguration, coverageUnitArea)
	}
	if !finite(movementPerPass) || movementPerPass < 0 {
		return fmt.Errorf("%w: movement per pass must be non-negative, got %v", ErrInvalidConfiguration, movementPerPass)
	}
	return nil
}

// Engine bundles the coverage constants for a run.
type Engine struct {
	CoverageUnitArea float64
	MovementPerPass  float64
}

// NewEngine validates the coverage constants up front.
func NewEngine(coverageUnitArea, movementPerPass float64) (*Engine, error) {
	if err := validateCoverage(coverageUnitArea, movementPerPass); err != nil {
		return nil, err
	}
	return &Engine{CoverageUnitArea: coverageUnitArea, MovementPerPass: movementPerPass}, nil
}

// Score scores targets against reference.
func (e *Engine) Score(targets []Target, reference Point) []ScoredTarget {
	return Score(targets, reference)
}

// Order sorts scored targets farthest-first.
func (e *Engine) Order(scored []ScoredTarget) []ScoredTarget {
	return Order(scored)
}

// Summarize applies the engine's constants.
func (e *Engine) Summarize(targets []Target) (CoverageSummary, error) {
	return Summarize(targets, e.CoverageUnitArea, e.MovementPerPass)
}
