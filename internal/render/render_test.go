package render

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/spray.report/internal/fsutil"
	"github.com/banshee-data/spray.report/internal/monitoring"
	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/timeutil"
)

func muteLogs(t *testing.T) {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = orig })
}

func testPlan(t *testing.T, count int) *spray.Plan {
	t.Helper()
	p, err := spray.NewPipeline(spray.PipelineConfig{
		Width:            500,
		Height:           300,
		Count:            count,
		MinSize:          spray.DefaultMinSize,
		MaxSize:          spray.DefaultMaxSize,
		SprayRadius:      30,
		CoverageUnitArea: spray.SprayUnitArea(30),
		MovementPerPass:  5,
	})
	require.NoError(t, err)
	pos, sizes := spray.SeedSources(21)
	plan, err := p.Run(pos, sizes)
	require.NoError(t, err)
	return plan
}

// recorder captures the calls a Renderer receives.
type recorder struct {
	began    int
	scene    Scene
	frames   []spray.Frame
	ended    int
	frameErr error
	failAt   int
}

func (r *recorder) Begin(s Scene) error {
	r.began++
	r.scene = s
	return nil
}

func (r *recorder) Frame(f spray.Frame) error {
	if r.frameErr != nil && f.Index == r.failAt {
		return r.frameErr
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) End() error {
	r.ended++
	return nil
}

func TestPlayer_PacesFrames(t *testing.T) {
	muteLogs(t)
	plan := testPlan(t, 30)
	require.NotEmpty(t, plan.Ordered)

	clock := timeutil.NewAutoClock(time.Unix(0, 0))
	player := &Player{Clock: clock, Interval: time.Second}
	rec := &recorder{}

	n, err := player.Play(context.Background(), "run-1", plan, rec)
	require.NoError(t, err)

	assert.Equal(t, len(plan.Ordered), n)
	assert.Equal(t, 1, rec.began)
	assert.Equal(t, 1, rec.ended)
	assert.Equal(t, "run-1", rec.scene.RunID)
	assert.Len(t, clock.Waits(), len(plan.Ordered)-1, "one wait between consecutive frames")

	for i, f := range rec.frames {
		assert.Equal(t, i, f.Index)
		assert.Equal(t, plan.Ordered[i], f.Target)
		if i > 0 {
			assert.GreaterOrEqual(t, f.SprayedArea, rec.frames[i-1].SprayedArea)
		}
	}
	last := rec.frames[len(rec.frames)-1]
	assert.InDelta(t, plan.Summary.TotalArea, last.SprayedArea, 1e-9)
}

func TestPlayer_ZeroIntervalDoesNotWait(t *testing.T) {
	muteLogs(t)
	clock := timeutil.NewAutoClock(time.Unix(0, 0))
	player := &Player{Clock: clock}

	_, err := player.Play(context.Background(), "r", testPlan(t, 10), &recorder{})
	require.NoError(t, err)
	assert.Empty(t, clock.Waits())
}

func TestPlayer_CancelStopsBetweenFrames(t *testing.T) {
	muteLogs(t)
	plan := testPlan(t, 30)
	require.Greater(t, len(plan.Ordered), 1)

	// Manual clock: the wait before frame 2 never fires, so only cancel ends it.
	clock := timeutil.NewMockClock(time.Unix(0, 0))
	player := &Player{Clock: clock, Interval: time.Second}
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var n int
	var err error
	go func() {
		n, err = player.Play(ctx, "r", plan, rec)
		close(done)
	}()

	require.Eventually(t, func() bool { return clock.Pending() == 1 }, time.Second, time.Millisecond)
	cancel()
	<-done

	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, rec.ended, "End runs after cancellation")
}

func TestPlayer_FrameErrorStops(t *testing.T) {
	muteLogs(t)
	plan := testPlan(t, 30)
	require.Greater(t, len(plan.Ordered), 2)

	rec := &recorder{frameErr: errors.New("nozzle jammed"), failAt: 1}
	n, err := (&Player{Clock: timeutil.NewAutoClock(time.Unix(0, 0))}).Play(context.Background(), "r", plan, rec)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "nozzle jammed")
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, rec.ended)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := Multi{a, b}

	require.NoError(t, m.Begin(Scene{RunID: "x"}))
	require.NoError(t, m.Frame(spray.Frame{Index: 0}))
	require.NoError(t, m.End())

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, 1, r.began)
		assert.Len(t, r.frames, 1)
		assert.Equal(t, 1, r.ended)
	}

	failing := &recorder{frameErr: errors.New("boom"), failAt: 0}
	ok := &recorder{}
	err := Multi{failing, ok}.Frame(spray.Frame{Index: 0})
	require.Error(t, err)
	assert.Len(t, ok.frames, 1, "a failing renderer must not starve the others")
}

func TestLogRenderer_Report(t *testing.T) {
	muteLogs(t)
	var buf bytes.Buffer
	plan := &spray.Plan{
		Region:      mustLeaf(t),
		Width:       500,
		Height:      300,
		SprayRadius: 30,
		Ordered: []spray.ScoredTarget{
			{Target: spray.Target{Position: spray.Point{X: 10, Y: 0}, Size: 70}, Distance: 10},
			{Target: spray.Target{Position: spray.Point{X: 0, Y: 0}, Size: 30}, Distance: 0},
		},
		Summary: spray.CoverageSummary{TotalArea: 100, RequiredPasses: 1.2732, RequiredActuation: 6.3662},
	}

	_, err := (&Player{Clock: timeutil.NewAutoClock(time.Unix(0, 0))}).Play(context.Background(), "abc", plan, &LogRenderer{W: &buf})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Leaf area: 103125.00")
	assert.Contains(t, out, "Total pest area: 100.00")
	assert.Contains(t, out, "Adjustments needed: 1.27")
	assert.Contains(t, out, "Shaft movement: 6.37 mm")
	assert.Contains(t, out, "visit 1/2: pest at (10.00, 0.00) size 70.00")
	assert.Contains(t, out, "spray diameter 60.00")
	assert.Equal(t, 2, strings.Count(out, "visit "))
	assert.True(t, strings.HasSuffix(out, "spraying complete\n"))
}

func TestPlotRenderer_WritesFrames(t *testing.T) {
	muteLogs(t)
	plan := testPlan(t, 15)
	require.NotEmpty(t, plan.Ordered)

	mfs := fsutil.NewMemoryFileSystem()
	pr := NewPlotRenderer(mfs, "/out")
	_, err := (&Player{Clock: timeutil.NewAutoClock(time.Unix(0, 0))}).Play(context.Background(), "r", plan, pr)
	require.NoError(t, err)

	files := mfs.Files("/out")
	assert.Len(t, files, len(plan.Ordered)+1)
	assert.Contains(t, files, "/out/frame_001.png")
	assert.Contains(t, files, "/out/coverage.png")
	assert.Equal(t, len(files), len(pr.Files()))

	data, err := mfs.ReadFile("/out/frame_001.png")
	require.NoError(t, err)
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte("\x89PNG"), data[:4])
}

func TestPlotRenderer_RejectsEscapingPrefix(t *testing.T) {
	muteLogs(t)
	mfs := fsutil.NewMemoryFileSystem()
	pr := NewPlotRenderer(mfs, "/out")
	pr.Prefix = "../../etc/evil"

	_, err := (&Player{}).Play(context.Background(), "r", testPlan(t, 15), pr)
	require.NoError(t, err)
	for _, f := range mfs.Files("/") {
		assert.True(t, strings.HasPrefix(f, "/out/"), "file %s escaped the output dir", f)
	}
}

func TestChartRenderer_WritesPage(t *testing.T) {
	muteLogs(t)
	plan := testPlan(t, 15)

	mfs := fsutil.NewMemoryFileSystem()
	cr := NewChartRenderer(mfs, "/out")
	_, err := (&Player{Clock: timeutil.NewAutoClock(time.Unix(0, 0))}).Play(context.Background(), "run-7", plan, cr)
	require.NoError(t, err)

	assert.Equal(t, "/out/visits.html", cr.Path())
	html, err := mfs.ReadFile(cr.Path())
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "Visit order (farthest first)")
	assert.Contains(t, page, "Cumulative sprayed area")
	assert.Contains(t, page, "run=run-7")
}

func mustLeaf(t *testing.T) *spray.Region {
	t.Helper()
	r, err := spray.LeafRegion(500, 300)
	require.NoError(t, err)
	return r
}
