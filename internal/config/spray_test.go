package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/spray.report/internal/spray"
	"github.com/banshee-data/spray.report/internal/units"
	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultSprayConfig(t *testing.T) {
	cfg := DefaultSprayConfig()

	if cfg.Width == nil || *cfg.Width != 500 {
		t.Errorf("Expected Width 500, got %v", cfg.Width)
	}
	if cfg.Count == nil || *cfg.Count != 10 {
		t.Errorf("Expected Count 10, got %v", cfg.Count)
	}
	if cfg.GetMinSize() != 10 || cfg.GetMaxSize() != 100 {
		t.Errorf("size range = [%v,%v), want [10,100)", cfg.GetMinSize(), cfg.GetMaxSize())
	}
	if cfg.GetFrameInterval() != time.Second {
		t.Errorf("GetFrameInterval() = %v, want 1s", cfg.GetFrameInterval())
	}
	if cfg.GetMovementUnits() != units.MM {
		t.Errorf("GetMovementUnits() = %q, want mm", cfg.GetMovementUnits())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestEmptySprayConfigGetters(t *testing.T) {
	cfg := &SprayConfig{}
	def := DefaultSprayConfig()

	if cfg.GetWidth() != def.GetWidth() || cfg.GetHeight() != def.GetHeight() {
		t.Errorf("empty bounds %vx%v, want defaults", cfg.GetWidth(), cfg.GetHeight())
	}
	if cfg.GetCount() != def.GetCount() {
		t.Errorf("GetCount() = %d, want %d", cfg.GetCount(), def.GetCount())
	}
	if cfg.GetSprayRadius() != 30 {
		t.Errorf("GetSprayRadius() = %v, want 30", cfg.GetSprayRadius())
	}
	if math.Abs(cfg.GetCoverageUnitArea()-math.Pi*900) > 1e-9 {
		t.Errorf("GetCoverageUnitArea() = %v, want π·30²", cfg.GetCoverageUnitArea())
	}
	if cfg.GetMovementPerPass() != 5 {
		t.Errorf("GetMovementPerPass() = %v, want 5", cfg.GetMovementPerPass())
	}
}

func TestDefaultsFileMatchesBuiltins(t *testing.T) {
	fromFile := MustLoadDefaultSprayConfig()
	if diff := cmp.Diff(DefaultSprayConfig(), fromFile); diff != "" {
		t.Errorf("%s differs from DefaultSprayConfig (-builtin +file):\n%s", DefaultSprayConfigPath, diff)
	}
}

func TestGetSeed(t *testing.T) {
	now := time.Unix(1700000000, 42)

	cfg := &SprayConfig{}
	if cfg.GetSeed(now) != now.UnixNano() {
		t.Errorf("unset seed should derive from clock")
	}
	cfg.Seed = ptrInt64(0)
	if cfg.GetSeed(now) != now.UnixNano() {
		t.Errorf("zero seed should derive from clock")
	}
	cfg.Seed = ptrInt64(7)
	if cfg.GetSeed(now) != 7 {
		t.Errorf("GetSeed() = %d, want 7", cfg.GetSeed(now))
	}
}

func TestLoadSprayConfig(t *testing.T) {
	path := writeConfig(t, "leaf.json", `{
  "width": 200,
  "height": 100,
  "count": 25,
  "spray_radius": 5,
  "movement_per_pass": 2.5,
  "movement_units": "cm",
  "frame_interval": "250ms",
  "region": [{"x": 0, "y": 0}, {"x": 200, "y": 0}, {"x": 100, "y": 100}],
  "reference": {"x": 100, "y": 10},
  "origin": {"x": 5, "y": 5}
}`)

	cfg, err := LoadSprayConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetFrameInterval() != 250*time.Millisecond {
		t.Errorf("GetFrameInterval() = %v, want 250ms", cfg.GetFrameInterval())
	}

	pc := cfg.PipelineConfig()
	want := spray.PipelineConfig{
		Width:            200,
		Height:           100,
		Count:            25,
		MinSize:          spray.DefaultMinSize,
		MaxSize:          spray.DefaultMaxSize,
		SprayRadius:      5,
		CoverageUnitArea: spray.SprayUnitArea(5),
		MovementPerPass:  2.5,
		Region:           []spray.Point{{X: 0, Y: 0}, {X: 200, Y: 0}, {X: 100, Y: 100}},
		Reference:        &spray.Point{X: 100, Y: 10},
		Origin:           spray.Point{X: 5, Y: 5},
	}
	if diff := cmp.Diff(want, pc); diff != "" {
		t.Errorf("PipelineConfig mismatch (-want +got):\n%s", diff)
	}

	if _, err := spray.NewPipeline(pc); err != nil {
		t.Errorf("loaded config should build a pipeline: %v", err)
	}
}

func TestLoadSprayConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "cfg.yaml", `{}`, ".json extension"},
		{"bad json", "cfg.json", `{"count": }`, "failed to parse"},
		{"negative count", "cfg.json", `{"count": -1}`, "count must be non-negative"},
		{"zero unit area", "cfg.json", `{"coverage_unit_area": 0}`, "coverage_unit_area must be positive"},
		{"bad units", "cfg.json", `{"movement_units": "mph"}`, "invalid movement_units"},
		{"short region", "cfg.json", `{"region": [{"x":0,"y":0},{"x":1,"y":1}]}`, "at least 3 points"},
		{"bad interval", "cfg.json", `{"frame_interval": "soon"}`, "invalid frame_interval"},
		{"sizes inverted", "cfg.json", `{"min_size": 50, "max_size": 20}`, "exceeds max_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadSprayConfig(path)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}

	if _, err := LoadSprayConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadSprayConfig_TooLarge(t *testing.T) {
	big := `{"count": 1, "pad": "` + strings.Repeat("x", maxConfigFileSize) + `"}`
	path := writeConfig(t, "big.json", big)
	if _, err := LoadSprayConfig(path); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestGetFrameInterval_ParseFallback(t *testing.T) {
	cfg := &SprayConfig{FrameInterval: ptrString("garbage")}
	if cfg.GetFrameInterval() != time.Second {
		t.Errorf("unparseable interval should fall back to 1s, got %v", cfg.GetFrameInterval())
	}
	cfg.FrameInterval = ptrString("0s")
	if cfg.GetFrameInterval() != 0 {
		t.Errorf("0s should disable pacing, got %v", cfg.GetFrameInterval())
	}
}
