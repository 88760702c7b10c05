// Package security guards the file paths the spray tools write to.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ResolveOutputPath joins name onto dir and rejects any result that leaves
// dir. The check is lexical so it works for in-memory filesystems too.
func ResolveOutputPath(dir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty output file name")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("output file name %q must be relative", name)
	}
	cleanDir := filepath.Clean(dir)
	joined := filepath.Join(cleanDir, name)
	if !within(joined, cleanDir) {
		return "", fmt.Errorf("path traversal detected: %s attempts to escape %s", name, dir)
	}
	return joined, nil
}

// ValidateOutputDir checks that dir lies within the working directory or the
// temp directory, following symlinks on the longest existing prefix so a
// link inside an allowed directory cannot redirect writes elsewhere.
func ValidateOutputDir(dir string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	return ValidatePathWithinAllowedDirs(dir, []string{cwd, os.TempDir()})
}

// ValidatePathWithinAllowedDirs returns nil if path resolves inside any of
// allowedDirs.
func ValidatePathWithinAllowedDirs(path string, allowedDirs []string) error {
	if len(allowedDirs) == 0 {
		return fmt.Errorf("no allowed directories specified")
	}

	target, err := canonical(path)
	if err != nil {
		return err
	}
	for _, dir := range allowedDirs {
		base, err := canonical(dir)
		if err != nil {
			continue
		}
		if within(target, base) {
			return nil
		}
	}
	return fmt.Errorf("path must be within one of the allowed directories: %v", allowedDirs)
}

// canonical returns the absolute path with symlinks resolved on the longest
// prefix that exists.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	existing := abs
	var rest []string
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}

func within(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// SanitizeFilename maps an arbitrary label (a run ID, a user-supplied prefix)
// onto ASCII letters, digits, dot, underscore and dash, collapsing runs of
// other characters into one underscore. The result is at most 128 bytes and
// never empty.
func SanitizeFilename(s string) string {
	const maxLen = 128

	var b strings.Builder
	pendingUnderscore := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		ok := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
			r == '.' || r == '_' || r == '-'
		if !ok {
			if !pendingUnderscore {
				b.WriteByte('_')
				pendingUnderscore = true
			}
			continue
		}
		b.WriteRune(r)
		pendingUnderscore = false
	}

	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
