package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/units"
)

// DefaultSprayConfigPath is the path to the canonical spray defaults file.
const DefaultSprayConfigPath = "config/spray.defaults.json"

// maxConfigFileSize bounds every config file read by this package.
const maxConfigFileSize = 1 * 1024 * 1024 // 1MB

// PointConfig is a JSON point, used for the region outline and reference.
type PointConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// SprayConfig represents the configuration of a pest-spray run. Every field
// is optional; the Get* methods supply defaults for anything omitted.
type SprayConfig struct {
	// Leaf bounds and region
	Width     *float64      `json:"width,omitempty"`
	Height    *float64      `json:"height,omitempty"`
	Region    []PointConfig `json:"region,omitempty"` // empty means the leaf outline
	Reference *PointConfig  `json:"reference,omitempty"`
	Origin    *PointConfig  `json:"origin,omitempty"`

	// Target generation
	Count   *int     `json:"count,omitempty"`
	MinSize *float64 `json:"min_size,omitempty"`
	MaxSize *float64 `json:"max_size,omitempty"`
	Seed    *int64   `json:"seed,omitempty"` // 0 means seed from the clock

	// Coverage
	SprayRadius      *float64 `json:"spray_radius,omitempty"`
	CoverageUnitArea *float64 `json:"coverage_unit_area,omitempty"` // defaults to π·r²
	MovementPerPass  *float64 `json:"movement_per_pass,omitempty"`
	MovementUnits    *string  `json:"movement_units,omitempty"`

	// Playback
	FrameInterval *string `json:"frame_interval,omitempty"` // duration string like "1s"
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }

// DefaultSprayConfig returns a SprayConfig with every field populated from the
// built-in defaults.
func DefaultSprayConfig() *SprayConfig {
	return &SprayConfig{
		Width:           ptrFloat64(500),
		Height:          ptrFloat64(300),
		Count:           ptrInt(10),
		MinSize:         ptrFloat64(spray.DefaultMinSize),
		MaxSize:         ptrFloat64(spray.DefaultMaxSize),
		Seed:            ptrInt64(0),
		SprayRadius:     ptrFloat64(30),
		MovementPerPass: ptrFloat64(5),
		MovementUnits:   ptrString(units.MM),
		FrameInterval:   ptrString("1s"),
	}
}

// LoadSprayConfig loads a SprayConfig from a JSON file. The file must have a
// .json extension and be under 1MB. Omitted fields fall back to defaults.
func LoadSprayConfig(path string) (*SprayConfig, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &SprayConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultSprayConfig loads DefaultSprayConfigPath, searching the
// current directory and common parent directories. Panics if the file cannot
// be loaded, intended for test setup.
func MustLoadDefaultSprayConfig() *SprayConfig {
	candidates := []string{
		DefaultSprayConfigPath,
		"../../" + DefaultSprayConfigPath,    // from internal/config/
		"../../../" + DefaultSprayConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadSprayConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultSprayConfigPath + " - run tests from repository root")
}

func readConfigFile(path string) ([]byte, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return data, nil
}

// Validate checks the values that are set. Geometry-dependent checks
// (region shape, size bounds against each other) are left to the pipeline.
func (c *SprayConfig) Validate() error {
	if c.Width != nil && *c.Width <= 0 {
		return fmt.Errorf("width must be positive, got %f", *c.Width)
	}
	if c.Height != nil && *c.Height <= 0 {
		return fmt.Errorf("height must be positive, got %f", *c.Height)
	}
	if c.Count != nil && *c.Count < 0 {
		return fmt.Errorf("count must be non-negative, got %d", *c.Count)
	}
	if c.MinSize != nil && *c.MinSize < 0 {
		return fmt.Errorf("min_size must be non-negative, got %f", *c.MinSize)
	}
	if c.MinSize != nil && c.MaxSize != nil && *c.MinSize > *c.MaxSize {
		return fmt.Errorf("min_size %f exceeds max_size %f", *c.MinSize, *c.MaxSize)
	}
	if c.SprayRadius != nil && *c.SprayRadius < 0 {
		return fmt.Errorf("spray_radius must be non-negative, got %f", *c.SprayRadius)
	}
	if c.CoverageUnitArea != nil && *c.CoverageUnitArea <= 0 {
		return fmt.Errorf("coverage_unit_area must be positive, got %f", *c.CoverageUnitArea)
	}
	if c.MovementPerPass != nil && *c.MovementPerPass < 0 {
		return fmt.Errorf("movement_per_pass must be non-negative, got %f", *c.MovementPerPass)
	}
	if c.MovementUnits != nil && !units.IsValidLength(*c.MovementUnits) {
		return fmt.Errorf("invalid movement_units %q, must be one of: %s", *c.MovementUnits, units.GetValidLengthUnitsString())
	}
	if len(c.Region) > 0 && len(c.Region) < 3 {
		return fmt.Errorf("region needs at least 3 points, got %d", len(c.Region))
	}
	if c.FrameInterval != nil && *c.FrameInterval != "" {
		d, err := time.ParseDuration(*c.FrameInterval)
		if err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", *c.FrameInterval, err)
		}
		if d < 0 {
			return fmt.Errorf("frame_interval must be non-negative, got %s", d)
		}
	}
	return nil
}

// GetWidth returns the leaf width or the default.
func (c *SprayConfig) GetWidth() float64 {
	if c.Width == nil {
		return 500 // default
	}
	return *c.Width
}

// GetHeight returns the leaf height or the default.
func (c *SprayConfig) GetHeight() float64 {
	if c.Height == nil {
		return 300 // default
	}
	return *c.Height
}

// GetCount returns the number of targets to generate or the default.
func (c *SprayConfig) GetCount() int {
	if c.Count == nil {
		return 10 // default
	}
	return *c.Count
}

// GetMinSize returns the minimum target size or the default.
func (c *SprayConfig) GetMinSize() float64 {
	if c.MinSize == nil {
		return spray.DefaultMinSize
	}
	return *c.MinSize
}

// GetMaxSize returns the maximum target size or the default.
func (c *SprayConfig) GetMaxSize() float64 {
	if c.MaxSize == nil {
		return spray.DefaultMaxSize
	}
	return *c.MaxSize
}

// GetSeed returns the configured seed, or a clock-derived seed when unset or 0.
func (c *SprayConfig) GetSeed(now time.Time) int64 {
	if c.Seed == nil || *c.Seed == 0 {
		return now.UnixNano()
	}
	return *c.Seed
}

// GetSprayRadius returns the nozzle radius or the default.
func (c *SprayConfig) GetSprayRadius() float64 {
	if c.SprayRadius == nil {
		return 30 // default
	}
	return *c.SprayRadius
}

// GetCoverageUnitArea returns the configured unit area, or π·r² of the spray radius.
func (c *SprayConfig) GetCoverageUnitArea() float64 {
	if c.CoverageUnitArea == nil {
		return spray.SprayUnitArea(c.GetSprayRadius())
	}
	return *c.CoverageUnitArea
}

// GetMovementPerPass returns the actuator movement per pass or the default.
func (c *SprayConfig) GetMovementPerPass() float64 {
	if c.MovementPerPass == nil {
		return 5 // default
	}
	return *c.MovementPerPass
}

// GetMovementUnits returns the length unit of MovementPerPass.
func (c *SprayConfig) GetMovementUnits() string {
	if c.MovementUnits == nil || *c.MovementUnits == "" {
		return units.MM
	}
	return *c.MovementUnits
}

// GetFrameInterval parses and returns the FrameInterval as a time.Duration.
func (c *SprayConfig) GetFrameInterval() time.Duration {
	return parseDurationOr(c.FrameInterval, time.Second)
}

// PipelineConfig converts the file configuration into the core run configuration.
func (c *SprayConfig) PipelineConfig() spray.PipelineConfig {
	pc := spray.PipelineConfig{
		Width:            c.GetWidth(),
		Height:           c.GetHeight(),
		Count:            c.GetCount(),
		MinSize:          c.GetMinSize(),
		MaxSize:          c.GetMaxSize(),
		SprayRadius:      c.GetSprayRadius(),
		CoverageUnitArea: c.GetCoverageUnitArea(),
		MovementPerPass:  c.GetMovementPerPass(),
	}
	if len(c.Region) > 0 {
		pc.Region = make([]spray.Point, len(c.Region))
		for i, p := range c.Region {
			pc.Region[i] = spray.Point{X: p.X, Y: p.Y}
		}
	}
	if c.Reference != nil {
		pc.Reference = &spray.Point{X: c.Reference.X, Y: c.Reference.Y}
	}
	if c.Origin != nil {
		pc.Origin = spray.Point{X: c.Origin.X, Y: c.Origin.Y}
	}
	return pc
}
