package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResolveOutputPath(t *testing.T) {
	tests := []struct {
		name      string
		dir       string
		file      string
		want      string
		wantError bool
	}{
		{"plain file", "/out", "frame_001.png", "/out/frame_001.png", false},
		{"nested file", "/out", "run/frame.png", "/out/run/frame.png", false},
		{"relative dir", "out", "visits.html", "out/visits.html", false},
		{"dot dot escape", "/out", "../etc/passwd", "", true},
		{"inner dot dot stays", "/out", "a/../b.png", "/out/b.png", false},
		{"absolute name", "/out", "/etc/passwd", "", true},
		{"empty name", "/out", "", "", true},
		{"only dot dot", "/out", "..", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveOutputPath(tt.dir, tt.file)
			if (err != nil) != tt.wantError {
				t.Fatalf("ResolveOutputPath(%q, %q) error = %v, wantError %v", tt.dir, tt.file, err, tt.wantError)
			}
			if !tt.wantError && got != filepath.FromSlash(tt.want) {
				t.Errorf("ResolveOutputPath(%q, %q) = %q, want %q", tt.dir, tt.file, got, tt.want)
			}
		})
	}
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	if err := os.MkdirAll(safeDir, 0755); err != nil {
		t.Fatalf("Failed to create safe directory: %v", err)
	}
	if err := os.MkdirAll(unsafeDir, 0755); err != nil {
		t.Fatalf("Failed to create unsafe directory: %v", err)
	}

	// A link inside the safe directory pointing out of it.
	symlinkPath := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, symlinkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{"existing dir", safeDir, false},
		{"new nested dir", filepath.Join(safeDir, "frames", "run1"), false},
		{"sibling dir", unsafeDir, true},
		{"dot dot escape", filepath.Join(safeDir, "..", "unsafe"), true},
		{"through symlink", filepath.Join(symlinkPath, "frames"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinAllowedDirs(tt.path, []string{safeDir})
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinAllowedDirs(%q) error = %v, wantError %v", tt.path, err, tt.wantError)
			}
		})
	}

	if err := ValidatePathWithinAllowedDirs(safeDir, nil); err == nil {
		t.Error("expected error with no allowed directories")
	}
}

func TestValidateOutputDir(t *testing.T) {
	if err := ValidateOutputDir(filepath.Join(os.TempDir(), "spray-frames")); err != nil {
		t.Errorf("temp dir should be allowed: %v", err)
	}
	if err := ValidateOutputDir("frames"); err != nil {
		t.Errorf("relative dir under cwd should be allowed: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"frame_001.png", "frame_001.png"},
		{"run 42/leaf", "run_42_leaf"},
		{"../../etc", "etc"},
		{"a   b", "a_b"},
		{"???", "unknown"},
		{"3f2c9a1e-6b7d-4c1a-9f00-2b1d7c0e5a11", "3f2c9a1e-6b7d-4c1a-9f00-2b1d7c0e5a11"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeFilename(strings.Repeat("x", 500))
	if len(long) > 128 {
		t.Errorf("SanitizeFilename did not bound length: %d", len(long))
	}
}
