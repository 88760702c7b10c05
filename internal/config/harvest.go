package config

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/banshee-data/spray.report/internal/harvest"
)

// HarvestConfig configures the mango-harvest actuator planner.
type HarvestConfig struct {
	Speed         *float64 `json:"speed,omitempty"`          // actuator speed in m/s
	MinDistance   *float64 `json:"min_distance,omitempty"`   // simulated sensor lower bound, m
	MaxDistance   *float64 `json:"max_distance,omitempty"`   // simulated sensor upper bound, m
	StepInterval  *string  `json:"step_interval,omitempty"`  // extend/retract step, like "100ms"
	CutterStep    *string  `json:"cutter_step,omitempty"`    // cutter open/close step, like "50ms"
	ReleaseOffset *float64 `json:"release_offset,omitempty"` // where the cutter reopens, m
	Seed          *int64   `json:"seed,omitempty"`
}

// DefaultHarvestConfig returns a HarvestConfig populated with the defaults.
func DefaultHarvestConfig() *HarvestConfig {
	return &HarvestConfig{
		Speed:         ptrFloat64(0.1),
		MinDistance:   ptrFloat64(0.2),
		MaxDistance:   ptrFloat64(3.0),
		StepInterval:  ptrString("100ms"),
		CutterStep:    ptrString("50ms"),
		ReleaseOffset: ptrFloat64(0.1),
		Seed:          ptrInt64(0),
	}
}

// LoadHarvestConfig loads a HarvestConfig from a JSON file with the same
// extension and size limits as LoadSprayConfig.
func LoadHarvestConfig(path string) (*HarvestConfig, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &HarvestConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *HarvestConfig) Validate() error {
	if c.Speed != nil && *c.Speed <= 0 {
		return fmt.Errorf("speed must be positive, got %f", *c.Speed)
	}
	if c.MinDistance != nil && *c.MinDistance <= 0 {
		return fmt.Errorf("min_distance must be positive, got %f", *c.MinDistance)
	}
	if c.GetMinDistance() >= c.GetMaxDistance() {
		return fmt.Errorf("min_distance %f must be below max_distance %f", c.GetMinDistance(), c.GetMaxDistance())
	}
	if c.ReleaseOffset != nil && *c.ReleaseOffset < 0 {
		return fmt.Errorf("release_offset must be non-negative, got %f", *c.ReleaseOffset)
	}
	for name, v := range map[string]*string{"step_interval": c.StepInterval, "cutter_step": c.CutterStep} {
		if v == nil || *v == "" {
			continue
		}
		d, err := time.ParseDuration(*v)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", name, *v, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must be non-negative, got %s", name, d)
		}
	}
	return nil
}

// GetSpeed returns the actuator speed or the default.
func (c *HarvestConfig) GetSpeed() float64 {
	if c.Speed == nil {
		return 0.1 // default
	}
	return *c.Speed
}

// GetMinDistance returns the sensor lower bound or the default.
func (c *HarvestConfig) GetMinDistance() float64 {
	if c.MinDistance == nil {
		return 0.2 // default
	}
	return *c.MinDistance
}

// GetMaxDistance returns the sensor upper bound or the default.
func (c *HarvestConfig) GetMaxDistance() float64 {
	if c.MaxDistance == nil {
		return 3.0 // default
	}
	return *c.MaxDistance
}

// GetStepInterval parses and returns the StepInterval as a time.Duration.
func (c *HarvestConfig) GetStepInterval() time.Duration {
	return parseDurationOr(c.StepInterval, 100*time.Millisecond)
}

// GetCutterStep parses and returns the CutterStep as a time.Duration.
func (c *HarvestConfig) GetCutterStep() time.Duration {
	return parseDurationOr(c.CutterStep, 50*time.Millisecond)
}

// GetReleaseOffset returns the release position or the default.
func (c *HarvestConfig) GetReleaseOffset() float64 {
	if c.ReleaseOffset == nil {
		return 0.1 // default
	}
	return *c.ReleaseOffset
}

// GetSeed returns the configured seed, or a clock-derived seed when unset or 0.
func (c *HarvestConfig) GetSeed(now time.Time) int64 {
	if c.Seed == nil || *c.Seed == 0 {
		return now.UnixNano()
	}
	return *c.Seed
}

func parseDurationOr(s *string, def time.Duration) time.Duration {
	if s == nil || *s == "" {
		return def
	}
	d, err := time.ParseDuration(*s)
	if err != nil {
		return def // default on parse error
	}
	return d
}

// PhaseConfig converts the pacing settings for harvest.Plan.Phases.
func (c *HarvestConfig) PhaseConfig() harvest.PhaseConfig {
	return harvest.PhaseConfig{
		StepInterval:  c.GetStepInterval(),
		CutterStep:    c.GetCutterStep(),
		ReleaseOffset: c.GetReleaseOffset(),
	}
}
