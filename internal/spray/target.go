package spray

import (
	"fmt"
	"math/rand"
)

// Default size range for generated targets, in square pixels.
const (
	DefaultMinSize = 10.0
	DefaultMaxSize = 100.0
)

// Target is a detected pest: a centroid and an abstract footprint area.
type Target struct {
	Position Point   `json:"position"`
	Size     float64 `json:"size"`
}

// RandomSource supplies uniform draws in [0, 1). *rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// NewRand returns a seeded source for reproducible runs.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// SeedSources derives independent position and size sources from one seed.
func SeedSources(seed int64) (positions, sizes *rand.Rand) {
	return NewRand(seed), NewRand(seed ^ 0x5deece66d)
}

// GeneratorConfig bounds the synthetic targets.
type GeneratorConfig struct {
	Width   float64
	Height  float64
	MinSize float64
	MaxSize float64
}

// Validate checks the bounds and size range.
func (c GeneratorConfig) Validate() error {
	if !finite(c.Width) || !finite(c.Height) || c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: bounds must be positive, got %vx%v", ErrInvalidConfiguration, c.Width, c.Height)
	}
	if !finite(c.MinSize) || !finite(c.MaxSize) {
		return fmt.Errorf("%w: size range must be finite", ErrInvalidConfiguration)
	}
	if c.MinSize < 0 {
		return fmt.Errorf("%w: min size must be non-negative, got %v", ErrInvalidConfiguration, c.MinSize)
	}
	if c.MinSize > c.MaxSize {
		return fmt.Errorf("%w: min size %v exceeds max size %v", ErrInvalidConfiguration, c.MinSize, c.MaxSize)
	}
	return nil
}

// Generator produces randomised targets within a bounding rectangle.
// Positions and sizes are drawn from separate injected sources so a fixed
// seed reproduces a run exactly.
type Generator struct {
	cfg       GeneratorConfig
	positions RandomSource
	sizes     RandomSource
}

// NewGenerator validates cfg and binds the two random sources.
func NewGenerator(cfg GeneratorConfig, positions, sizes RandomSource) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if positions == nil || sizes == nil {
		return nil, fmt.Errorf("%w: random sources are required", ErrInvalidConfiguration)
	}
	return &Generator{cfg: cfg, positions: positions, sizes: sizes}, nil
}

// Generate draws count targets. Positions are uniform over
// [0,width) x [0,height); sizes are uniform over [min,max).
func (g *Generator) Generate(count int) ([]Target, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: target count must be non-negative, got %d", ErrInvalidConfiguration, count)
	}

	targets := make([]Target, 0, count)
	for i := 0; i < count; i++ {
		pos := Point{
			X: g.positions.Float64() * g.cfg.Width,
			Y: g.positions.Float64() * g.cfg.Height,
		}
		size := g.cfg.MinSize + g.sizes.Float64()*(g.cfg.MaxSize-g.cfg.MinSize)
		targets = append(targets, Target{Position: pos, Size: size})
	}
	return targets, nil
}

// Filter keeps the targets whose position lies inside region, preserving
// input order. The input slice is not modified.
func Filter(targets []Target, region Container) []Target {
	kept := make([]Target, 0, len(targets))
	for _, t := range targets {
		if region.Contains(t.Position) {
			kept = append(kept, t)
		}
	}
	return kept
}
