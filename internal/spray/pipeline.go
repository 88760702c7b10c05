package spray

import (
	"fmt"
	"iter"

	"gonum.org/v1/gonum/floats"
)

// PipelineConfig holds every parameter of a spray run. Region and Reference
// are optional: a nil Region uses the leaf outline inscribed in the bounds
// and a nil Reference places the sprayer at the centre of the bounds.
type PipelineConfig struct {
	Width            float64
	Height           float64
	Count            int
	MinSize          float64
	MaxSize          float64
	SprayRadius      float64
	CoverageUnitArea float64
	MovementPerPass  float64

	Region    []Point
	Reference *Point
	// Origin is where the sprayer starts before its first hop.
	Origin Point
}

// Pipeline is a validated, reusable spray run configuration.
type Pipeline struct {
	cfg       PipelineConfig
	gen       GeneratorConfig
	region    *Region
	reference Point
	engine    *Engine
}

// NewPipeline validates cfg eagerly. It returns ErrInvalidRegion or
// ErrInvalidConfiguration (wrapped) before any target is generated.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	gen := GeneratorConfig{Width: cfg.Width, Height: cfg.Height, MinSize: cfg.MinSize, MaxSize: cfg.MaxSize}
	if err := gen.Validate(); err != nil {
		opsf("rejected generator config: %v", err)
		return nil, err
	}
	if cfg.Count < 0 {
		return nil, fmt.Errorf("%w: target count must be non-negative, got %d", ErrInvalidConfiguration, cfg.Count)
	}
	if !finite(cfg.SprayRadius) || cfg.SprayRadius < 0 {
		return nil, fmt.Errorf("%w: spray radius must be non-negative, got %v", ErrInvalidConfiguration, cfg.SprayRadius)
	}

	engine, err := NewEngine(cfg.CoverageUnitArea, cfg.MovementPerPass)
	if err != nil {
		opsf("rejected coverage config: %v", err)
		return nil, err
	}

	vertices := cfg.Region
	if vertices == nil {
		vertices = LeafVertices(cfg.Width, cfg.Height)
	}
	region, err := NewRegion(vertices)
	if err != nil {
		opsf("rejected region: %v", err)
		return nil, err
	}

	reference := Point{X: cfg.Width / 2, Y: cfg.Height / 2}
	if cfg.Reference != nil {
		reference = *cfg.Reference
	}
	if !finite(reference.X) || !finite(reference.Y) {
		return nil, fmt.Errorf("%w: reference point must be finite", ErrInvalidConfiguration)
	}

	return &Pipeline{
		cfg:       cfg,
		gen:       gen,
		region:    region,
		reference: reference,
		engine:    engine,
	}, nil
}

// Region returns the validated operative region.
func (p *Pipeline) Region() *Region { return p.region }

// Reference returns the fixed sprayer position used for scoring.
func (p *Pipeline) Reference() Point { return p.reference }

// Run generates, filters, scores, orders and summarises one batch of targets.
func (p *Pipeline) Run(positions, sizes RandomSource) (*Plan, error) {
	gen, err := NewGenerator(p.gen, positions, sizes)
	if err != nil {
		return nil, err
	}
	generated, err := gen.Generate(p.cfg.Count)
	if err != nil {
		return nil, err
	}

	inside := Filter(generated, p.region)
	summary, err := p.engine.Summarize(inside)
	if err != nil {
		return nil, err
	}
	ordered := p.engine.Order(p.engine.Score(inside, p.reference))

	diagf("run: generated=%d inside=%d total_area=%.2f passes=%.2f actuation=%.2f",
		len(generated), len(inside), summary.TotalArea, summary.RequiredPasses, summary.RequiredActuation)
	for i, t := range ordered {
		tracef("visit %d: pos=(%.1f,%.1f) size=%.1f dist=%.2f angle=%.2f",
			i+1, t.Position.X, t.Position.Y, t.Size, t.Distance, t.Angle)
	}

	return &Plan{
		Region:      p.region,
		Reference:   p.reference,
		Origin:      p.cfg.Origin,
		SprayRadius: p.cfg.SprayRadius,
		Width:       p.cfg.Width,
		Height:      p.cfg.Height,
		Generated:   len(generated),
		Ordered:     ordered,
		Summary:     summary,
	}, nil
}

// Plan is the result of one pipeline run: the global coverage summary and
// the farthest-first visit order.
type Plan struct {
	Region      *Region
	Reference   Point
	Origin      Point
	SprayRadius float64
	Width       float64
	Height      float64

	Generated int
	Ordered   []ScoredTarget
	Summary   CoverageSummary
}

// Sequence returns a fresh sequence over the ordered targets.
func (pl *Plan) Sequence() *Sequence {
	return NewSequence(pl.Ordered)
}

// Frames decorates each visit with the renderer payload: spray diameter,
// cumulative sprayed area and the hop from the sprayer's previous position.
func (pl *Plan) Frames() iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		total := len(pl.Ordered)
		sizes := make([]float64, total)
		for i, t := range pl.Ordered {
			sizes[i] = t.Size
		}
		sprayed := floats.CumSum(make([]float64, total), sizes)

		from := pl.Origin
		for i, t := range pl.Sequence().All() {
			f := Frame{
				Index:  i,
				Total:  total,
				Target: t,
				Leg: Leg{
					From:     from,
					Distance: Distance(from, t.Position),
					Angle:    Bearing(from, t.Position),
				},
				SprayDiameter: 2 * pl.SprayRadius,
				SprayedArea:   sprayed[i],
				Summary:       pl.Summary,
			}
			if !yield(f) {
				return
			}
			from = t.Position
		}
	}
}
