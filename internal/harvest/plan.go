// Package harvest plans and paces the extend, cut, retract and release
// cycle of a mango-harvesting arm from a single distance measurement.
package harvest

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidPlan is returned for a non-positive distance or speed.
	ErrInvalidPlan = errors.New("invalid harvest plan")

	// ErrInvalidSensor is returned for an unusable sensor range.
	ErrInvalidSensor = errors.New("invalid sensor")
)

const (
	// StepsPerSecond is the arm update rate while extending or retracting.
	StepsPerSecond = 10

	// CutterSteps is the number of jaw updates per cutter action.
	CutterSteps = 20

	// JawWidth is the fully open cutter width in metres.
	JawWidth = 0.4
)

// Plan is the arm motion for one measured fruit.
type Plan struct {
	Distance float64 // metres to the fruit
	Speed    float64 // arm speed in m/s
	Duration float64 // seconds to cover Distance
	Steps    int     // arm updates per extend or retract
}

// NewPlan derives the travel time and step count for distance at speed.
func NewPlan(distance, speed float64) (Plan, error) {
	if !(distance > 0) || math.IsInf(distance, 0) {
		return Plan{}, fmt.Errorf("%w: distance must be positive, got %v", ErrInvalidPlan, distance)
	}
	if !(speed > 0) || math.IsInf(speed, 0) {
		return Plan{}, fmt.Errorf("%w: speed must be positive, got %v", ErrInvalidPlan, speed)
	}
	duration := distance / speed
	return Plan{
		Distance: distance,
		Speed:    speed,
		Duration: duration,
		Steps:    int(duration * StepsPerSecond),
	}, nil
}

// Extend returns the arm position at each extend step, from 0 towards Distance.
func (p Plan) Extend() []float64 {
	out := make([]float64, p.Steps)
	for i := range out {
		out[i] = p.Distance * float64(i) / float64(p.Steps)
	}
	return out
}

// Retract returns the arm position at each retract step, from Distance towards 0.
func (p Plan) Retract() []float64 {
	out := make([]float64, p.Steps)
	for i := range out {
		out[i] = p.Distance * (1 - float64(i)/float64(p.Steps))
	}
	return out
}

// CutterProfile returns the jaw width at each of the CutterSteps updates.
// Closing narrows the jaw to half width; opening widens it from zero.
func CutterProfile(action Action) ([]float64, error) {
	out := make([]float64, CutterSteps)
	for i := range out {
		f := float64(i) / CutterSteps
		switch action {
		case ActionClose:
			out[i] = JawWidth * (1 - f/2)
		case ActionOpen:
			out[i] = JawWidth * f
		default:
			return nil, fmt.Errorf("no cutter profile for %q", action)
		}
	}
	return out, nil
}
