package spray

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func demoConfig() PipelineConfig {
	return PipelineConfig{
		Width:            500,
		Height:           300,
		Count:            10,
		MinSize:          DefaultMinSize,
		MaxSize:          DefaultMaxSize,
		SprayRadius:      30,
		CoverageUnitArea: SprayUnitArea(30),
		MovementPerPass:  5,
	}
}

func TestNewPipeline_Defaults(t *testing.T) {
	p, err := NewPipeline(demoConfig())
	require.NoError(t, err)

	assert.Equal(t, Point{250, 150}, p.Reference())
	assert.Equal(t, LeafVertices(500, 300), p.Region().Vertices())
}

func TestNewPipeline_EagerValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*PipelineConfig)
		wantErr error
	}{
		{"zero unit area", func(c *PipelineConfig) { c.CoverageUnitArea = 0 }, ErrInvalidConfiguration},
		{"negative count", func(c *PipelineConfig) { c.Count = -3 }, ErrInvalidConfiguration},
		{"negative radius", func(c *PipelineConfig) { c.SprayRadius = -1 }, ErrInvalidConfiguration},
		{"zero width", func(c *PipelineConfig) { c.Width = 0 }, ErrInvalidConfiguration},
		{"sizes inverted", func(c *PipelineConfig) { c.MinSize, c.MaxSize = 90, 10 }, ErrInvalidConfiguration},
		{"two vertex region", func(c *PipelineConfig) { c.Region = []Point{{0, 0}, {1, 1}} }, ErrInvalidRegion},
		{"nan reference", func(c *PipelineConfig) { c.Reference = &Point{math.NaN(), 0} }, ErrInvalidConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := demoConfig()
			tt.mutate(&cfg)
			p, err := NewPipeline(cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if p != nil {
				t.Error("expected nil pipeline on error")
			}
		})
	}
}

func TestPipeline_RunDeterministic(t *testing.T) {
	p, err := NewPipeline(demoConfig())
	require.NoError(t, err)

	pos1, sz1 := SeedSources(99)
	a, err := p.Run(pos1, sz1)
	require.NoError(t, err)
	pos2, sz2 := SeedSources(99)
	b, err := p.Run(pos2, sz2)
	require.NoError(t, err)

	assert.Equal(t, a.Ordered, b.Ordered)
	assert.Equal(t, a.Summary, b.Summary)
	assert.Equal(t, 10, a.Generated)
	assert.LessOrEqual(t, len(a.Ordered), a.Generated)

	var total float64
	for i, tg := range a.Ordered {
		assert.True(t, p.Region().Contains(tg.Position), "visit %d outside region", i)
		if i > 0 {
			assert.LessOrEqual(t, tg.Distance, a.Ordered[i-1].Distance)
		}
		total += tg.Size
	}
	assert.InDelta(t, total, a.Summary.TotalArea, 1e-9)
}

func TestPipeline_ZeroCount(t *testing.T) {
	cfg := demoConfig()
	cfg.Count = 0
	p, err := NewPipeline(cfg)
	require.NoError(t, err)

	pos, sizes := SeedSources(1)
	plan, err := p.Run(pos, sizes)
	require.NoError(t, err)

	assert.Empty(t, plan.Ordered)
	assert.Zero(t, plan.Summary.TotalArea)
	assert.Zero(t, plan.Summary.RequiredPasses)

	n := 0
	for range plan.Frames() {
		n++
	}
	assert.Zero(t, n)
}

func TestPlan_Frames(t *testing.T) {
	plan := &Plan{
		Origin:      Point{0, 0},
		SprayRadius: 30,
		Ordered: []ScoredTarget{
			{Target: Target{Position: Point{30, 40}, Size: 70}, Distance: 10},
			{Target: Target{Position: Point{30, 0}, Size: 20}, Distance: 5},
		},
		Summary: CoverageSummary{TotalArea: 90},
	}

	var frames []Frame
	for f := range plan.Frames() {
		frames = append(frames, f)
	}
	require.Len(t, frames, 2)

	assert.Equal(t, 0, frames[0].Index)
	assert.Equal(t, 2, frames[0].Total)
	assert.Equal(t, 60.0, frames[0].SprayDiameter)
	assert.Equal(t, 70.0, frames[0].SprayedArea)
	assert.Equal(t, Point{0, 0}, frames[0].Leg.From)
	assert.InDelta(t, 50.0, frames[0].Leg.Distance, 1e-9)

	assert.Equal(t, 90.0, frames[1].SprayedArea)
	assert.Equal(t, Point{30, 40}, frames[1].Leg.From)
	assert.InDelta(t, 40.0, frames[1].Leg.Distance, 1e-9)
	assert.InDelta(t, -90.0, frames[1].Leg.Angle, 1e-9)
	assert.Equal(t, 90.0, frames[1].Summary.TotalArea)
}

func TestPipeline_Logging(t *testing.T) {
	var ops, diag, trace bytes.Buffer
	SetLogWriters(&ops, &diag, &trace)
	t.Cleanup(func() { SetLogWriters(nil, nil, nil) })

	p, err := NewPipeline(demoConfig())
	require.NoError(t, err)
	pos, sizes := SeedSources(4)
	plan, err := p.Run(pos, sizes)
	require.NoError(t, err)

	assert.Contains(t, diag.String(), "generated=10")
	assert.Equal(t, len(plan.Ordered), strings.Count(trace.String(), "visit "))

	cfg := demoConfig()
	cfg.CoverageUnitArea = 0
	_, err = NewPipeline(cfg)
	require.Error(t, err)
	assert.Contains(t, ops.String(), "rejected coverage config")
}
