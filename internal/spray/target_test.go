package spray

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// fixedSource replays a list of draws, wrapping around when exhausted.
type fixedSource struct {
	vals []float64
	i    int
}

func (f *fixedSource) Float64() float64 {
	v := f.vals[f.i%len(f.vals)]
	f.i++
	return v
}

func defaultGenConfig() GeneratorConfig {
	return GeneratorConfig{Width: 500, Height: 300, MinSize: DefaultMinSize, MaxSize: DefaultMaxSize}
}

func TestGenerator_ZeroCount(t *testing.T) {
	pos, sizes := SeedSources(1)
	g, err := NewGenerator(defaultGenConfig(), pos, sizes)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	targets, err := g.Generate(0)
	if err != nil {
		t.Fatalf("Generate(0): %v", err)
	}
	if len(targets) != 0 {
		t.Errorf("expected empty slice, got %d targets", len(targets))
	}
}

func TestGenerator_NegativeCount(t *testing.T) {
	pos, sizes := SeedSources(1)
	g, err := NewGenerator(defaultGenConfig(), pos, sizes)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	if _, err := g.Generate(-1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestGenerator_RangesAndDeterminism(t *testing.T) {
	cfg := defaultGenConfig()

	run := func() []Target {
		pos, sizes := SeedSources(42)
		g, err := NewGenerator(cfg, pos, sizes)
		if err != nil {
			t.Fatalf("NewGenerator: %v", err)
		}
		ts, err := g.Generate(500)
		if err != nil {
			t.Fatalf("Generate: %v", err)
		}
		return ts
	}

	a := run()
	b := run()
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different targets (-first +second):\n%s", diff)
	}

	for i, tg := range a {
		if tg.Position.X < 0 || tg.Position.X >= cfg.Width {
			t.Errorf("target %d: x=%v outside [0,%v)", i, tg.Position.X, cfg.Width)
		}
		if tg.Position.Y < 0 || tg.Position.Y >= cfg.Height {
			t.Errorf("target %d: y=%v outside [0,%v)", i, tg.Position.Y, cfg.Height)
		}
		if tg.Size < cfg.MinSize || tg.Size >= cfg.MaxSize {
			t.Errorf("target %d: size=%v outside [%v,%v)", i, tg.Size, cfg.MinSize, cfg.MaxSize)
		}
	}
}

func TestGenerator_UsesInjectedSources(t *testing.T) {
	pos := &fixedSource{vals: []float64{0.5, 0.25}}
	sizes := &fixedSource{vals: []float64{0.5}}
	g, err := NewGenerator(GeneratorConfig{Width: 100, Height: 40, MinSize: 10, MaxSize: 30}, pos, sizes)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	got, err := g.Generate(2)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []Target{
		{Position: Point{50, 10}, Size: 20},
		{Position: Point{50, 10}, Size: 20},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("targets mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerator_EqualSizeBounds(t *testing.T) {
	pos, sizes := SeedSources(3)
	g, err := NewGenerator(GeneratorConfig{Width: 10, Height: 10, MinSize: 25, MaxSize: 25}, pos, sizes)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}
	ts, _ := g.Generate(5)
	for _, tg := range ts {
		if tg.Size != 25 {
			t.Errorf("size = %v, want 25", tg.Size)
		}
	}
}

func TestNewGenerator_InvalidConfig(t *testing.T) {
	pos, sizes := SeedSources(1)
	tests := []struct {
		name string
		cfg  GeneratorConfig
	}{
		{"zero width", GeneratorConfig{Width: 0, Height: 10, MinSize: 1, MaxSize: 2}},
		{"negative height", GeneratorConfig{Width: 10, Height: -1, MinSize: 1, MaxSize: 2}},
		{"min above max", GeneratorConfig{Width: 10, Height: 10, MinSize: 50, MaxSize: 20}},
		{"negative min", GeneratorConfig{Width: 10, Height: 10, MinSize: -1, MaxSize: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGenerator(tt.cfg, pos, sizes); !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}

	if _, err := NewGenerator(defaultGenConfig(), nil, sizes); !errors.Is(err, ErrInvalidConfiguration) {
		t.Errorf("nil source: expected ErrInvalidConfiguration, got %v", err)
	}
}

func TestFilter_SubsetPreservesOrder(t *testing.T) {
	r := unitSquare(t)
	in := []Target{
		{Position: Point{0.1, 0.1}, Size: 1},
		{Position: Point{5, 5}, Size: 2},
		{Position: Point{0.9, 0.2}, Size: 3},
		{Position: Point{-1, 0.5}, Size: 4},
		{Position: Point{0.5, 0.5}, Size: 5},
	}
	orig := append([]Target(nil), in...)

	got := Filter(in, r)
	want := []Target{in[0], in[2], in[4]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Filter mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(orig, in); diff != "" {
		t.Errorf("Filter modified its input:\n%s", diff)
	}
}

func TestFilter_RandomSubsetProperty(t *testing.T) {
	leaf, err := LeafRegion(500, 300)
	if err != nil {
		t.Fatalf("LeafRegion: %v", err)
	}
	pos, sizes := SeedSources(7)
	g, _ := NewGenerator(defaultGenConfig(), pos, sizes)
	in, _ := g.Generate(200)

	out := Filter(in, leaf)
	if len(out) > len(in) {
		t.Fatalf("filter added targets: %d > %d", len(out), len(in))
	}

	// out must be a subsequence of in.
	j := 0
	for _, tg := range in {
		if j < len(out) && tg == out[j] {
			j++
		}
	}
	if j != len(out) {
		t.Errorf("output is not an order-preserving subsequence of the input")
	}
	for _, tg := range out {
		if !leaf.Contains(tg.Position) {
			t.Errorf("kept target %v outside region", tg.Position)
		}
	}
}

func TestFilter_Empty(t *testing.T) {
	if got := Filter(nil, unitSquare(t)); len(got) != 0 {
		t.Errorf("expected empty output, got %v", got)
	}
}
