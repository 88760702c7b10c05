package harvest

import (
	"fmt"
	"time"
)

// Action names a harvest phase.
type Action string

const (
	ActionExtend  Action = "extend"
	ActionClose   Action = "close"
	ActionRetract Action = "retract"
	ActionOpen    Action = "open"
)

// Step is one arm or cutter update.
type Step struct {
	Action   Action
	Index    int
	Total    int
	Position float64 // arm extension in metres
	Jaw      float64 // cutter width in metres
}

// Command renders the step as an actuator command line.
func (s Step) Command() string {
	switch s.Action {
	case ActionExtend:
		return fmt.Sprintf("EXTEND %.3f", s.Position)
	case ActionRetract:
		return fmt.Sprintf("RETRACT %.3f", s.Position)
	case ActionClose:
		return fmt.Sprintf("CLOSE %.3f", s.Jaw)
	case ActionOpen:
		return fmt.Sprintf("OPEN %.3f", s.Jaw)
	}
	return ""
}

// Phase is a run of steps paced at a fixed interval.
type Phase struct {
	Action   Action
	Interval time.Duration
	Steps    []Step
}

// Duration is the time the phase takes when paced.
func (p Phase) Duration() time.Duration {
	return time.Duration(len(p.Steps)) * p.Interval
}

// PhaseConfig sets pacing and the arm position where the fruit is released.
type PhaseConfig struct {
	StepInterval  time.Duration
	CutterStep    time.Duration
	ReleaseOffset float64
}

// DefaultPhaseConfig paces the arm at 100ms, the cutter at 50ms and releases
// 0.1m from home.
func DefaultPhaseConfig() PhaseConfig {
	return PhaseConfig{
		StepInterval:  100 * time.Millisecond,
		CutterStep:    50 * time.Millisecond,
		ReleaseOffset: 0.1,
	}
}

// Phases returns extend, close, retract and open in order. The arm holds
// at Distance while closing and at the release offset while opening; the
// jaw stays open while extending and half closed while retracting.
func (p Plan) Phases(cfg PhaseConfig) []Phase {
	closing, _ := CutterProfile(ActionClose)
	opening, _ := CutterProfile(ActionOpen)
	held := JawWidth / 2

	return []Phase{
		armPhase(ActionExtend, cfg.StepInterval, p.Extend(), JawWidth),
		jawPhase(ActionClose, cfg.CutterStep, p.Distance, closing),
		armPhase(ActionRetract, cfg.StepInterval, p.Retract(), held),
		jawPhase(ActionOpen, cfg.CutterStep, cfg.ReleaseOffset, opening),
	}
}

func armPhase(a Action, interval time.Duration, positions []float64, jaw float64) Phase {
	steps := make([]Step, len(positions))
	for i, pos := range positions {
		steps[i] = Step{Action: a, Index: i, Total: len(positions), Position: pos, Jaw: jaw}
	}
	return Phase{Action: a, Interval: interval, Steps: steps}
}

func jawPhase(a Action, interval time.Duration, position float64, widths []float64) Phase {
	steps := make([]Step, len(widths))
	for i, w := range widths {
		steps[i] = Step{Action: a, Index: i, Total: len(widths), Position: position, Jaw: w}
	}
	return Phase{Action: a, Interval: interval, Steps: steps}
}
