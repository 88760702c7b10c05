package render

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/timeutil"
)

// Player streams a plan's frames to a Renderer, waiting Interval between
// consecutive frames. A zero Interval plays as fast as the renderer allows.
type Player struct {
	Clock    timeutil.Clock
	Interval time.Duration
}

// NewPlayer returns a Player on the real clock.
func NewPlayer(interval time.Duration) *Player {
	return &Player{Clock: timeutil.RealClock{}, Interval: interval}
}

// Play renders every frame of plan and returns how many frames were
// delivered. Cancelling ctx stops playback between frames; End is still
// called and ctx.Err() is returned.
func (p *Player) Play(ctx context.Context, runID string, plan *spray.Plan, r Renderer) (int, error) {
	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}

	if err := r.Begin(SceneFromPlan(runID, plan)); err != nil {
		return 0, errors.Join(fmt.Errorf("begin: %w", err), r.End())
	}

	start := clock.Now()
	delivered := 0
	var playErr error
	for f := range plan.Frames() {
		if f.Index > 0 && p.Interval > 0 {
			select {
			case <-ctx.Done():
				playErr = ctx.Err()
			case <-clock.After(p.Interval):
			}
		} else if err := ctx.Err(); err != nil {
			playErr = err
		}
		if playErr != nil {
			break
		}
		if err := r.Frame(f); err != nil {
			playErr = fmt.Errorf("frame %d: %w", f.Index, err)
			break
		}
		delivered++
	}

	if err := r.End(); err != nil {
		playErr = errors.Join(playErr, fmt.Errorf("end: %w", err))
	}
	monitoring.Logf("[render] run %s: %d/%d frames in %s", runID, delivered, len(plan.Ordered), clock.Since(start))
	return delivered, playErr
}
