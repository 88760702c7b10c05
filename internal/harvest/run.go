package harvest

import (
	"context"
	"fmt"
	"io"

	"github.com/banshee-data/spray.report/internal/timeutil"
)

// StepSink receives each step as it is executed.
type StepSink interface {
	Step(Step) error
}

// StepFunc adapts a function to StepSink.
type StepFunc func(Step) error

// Step calls f.
func (f StepFunc) Step(s Step) error { return f(s) }

// Sender writes one command line, as actuator.Controller does.
type Sender interface {
	Send(command string) error
}

// Commands forwards every step's command to s.
func Commands(s Sender) StepSink {
	return StepFunc(func(st Step) error {
		return s.Send(st.Command())
	})
}

// Sinks fans each step out to every sink, stopping at the first error.
type Sinks []StepSink

// Step forwards s to every sink.
func (m Sinks) Step(s Step) error {
	for _, sink := range m {
		if err := sink.Step(s); err != nil {
			return err
		}
	}
	return nil
}

// Report prints a line per phase start and per arm step to w.
func Report(w io.Writer) StepSink {
	return StepFunc(func(s Step) error {
		var err error
		if s.Index == 0 {
			_, err = fmt.Fprintf(w, "%s: %d steps\n", s.Action, s.Total)
		}
		if err == nil && (s.Action == ActionExtend || s.Action == ActionRetract) {
			_, err = fmt.Fprintf(w, "  arm at %.2f meters\n", s.Position)
		}
		return err
	})
}

// Run executes the phases in order, waiting each phase's interval after
// every step. It returns the number of steps delivered.
func Run(ctx context.Context, clock timeutil.Clock, phases []Phase, sink StepSink) (int, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()
	done := 0
	for _, ph := range phases {
		diagf("%s: %d steps at %v", ph.Action, len(ph.Steps), ph.Interval)
		for _, s := range ph.Steps {
			if err := ctx.Err(); err != nil {
				return done, err
			}
			if err := sink.Step(s); err != nil {
				return done, fmt.Errorf("%s step %d: %w", s.Action, s.Index, err)
			}
			done++
			tracef("%s %d/%d position=%.3f jaw=%.3f", s.Action, s.Index+1, s.Total, s.Position, s.Jaw)

			if ph.Interval <= 0 {
				continue
			}
			select {
			case <-ctx.Done():
				return done, ctx.Err()
			case <-clock.After(ph.Interval):
			}
		}
		diagf("%s completed", ph.Action)
	}
	opsf("harvest cycle completed: %d steps in %v", done, clock.Since(start))
	return done, nil
}
