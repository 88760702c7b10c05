package spray

import "errors"

// Configuration errors. Both are reported at construction time, before any
// targets are generated, and are never produced mid-pipeline.
var (
	// ErrInvalidRegion is returned for regions with fewer than three vertices,
	// non-finite coordinates, zero area, or self-intersecting edges.
	ErrInvalidRegion = errors.New("invalid region")

	// ErrInvalidConfiguration is returned for non-positive coverage unit area,
	// negative target counts, empty bounds or an inverted size range.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)
