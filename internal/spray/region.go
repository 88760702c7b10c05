package spray

import (
	"fmt"
	"math"
)

// Container answers point-containment queries. Region implements it.
type Container interface {
	Contains(p Point) bool
}

// Region is the operative area (the leaf) as a simple polygon. The last vertex
// implicitly connects back to the first. A Region is immutable once built.
type Region struct {
	vertices []Point
	min, max Point
}

// NewRegion validates the vertex list and returns an immutable Region.
// The slice is copied so later changes by the caller have no effect.
func NewRegion(vertices []Point) (*Region, error) {
	if len(vertices) < 3 {
		return nil, fmt.Errorf("%w: need at least 3 vertices, got %d", ErrInvalidRegion, len(vertices))
	}

	vs := make([]Point, len(vertices))
	copy(vs, vertices)

	lo := Point{X: math.Inf(1), Y: math.Inf(1)}
	hi := Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for i, v := range vs {
		if !finite(v.X) || !finite(v.Y) {
			return nil, fmt.Errorf("%w: vertex %d is not finite (%v, %v)", ErrInvalidRegion, i, v.X, v.Y)
		}
		lo.X = math.Min(lo.X, v.X)
		lo.Y = math.Min(lo.Y, v.Y)
		hi.X = math.Max(hi.X, v.X)
		hi.Y = math.Max(hi.Y, v.Y)
	}

	if signedArea(vs) == 0 {
		return nil, fmt.Errorf("%w: polygon has zero area", ErrInvalidRegion)
	}
	if i, j, ok := firstCrossing(vs); ok {
		return nil, fmt.Errorf("%w: edges %d and %d intersect", ErrInvalidRegion, i, j)
	}

	return &Region{vertices: vs, min: lo, max: hi}, nil
}

// LeafRegion returns the five-vertex leaf outline used by the spray demo,
// inscribed in a width x height box.
func LeafRegion(width, height float64) (*Region, error) {
	return NewRegion(LeafVertices(width, height))
}

// LeafVertices returns the leaf outline without validating it.
func LeafVertices(width, height float64) []Point {
	return []Point{
		{X: 0.5 * width, Y: 0},
		{X: width, Y: 0.25 * height},
		{X: 0.75 * width, Y: height},
		{X: 0.25 * width, Y: height},
		{X: 0, Y: 0.25 * height},
	}
}

// Contains reports whether p lies inside the region using even-odd ray
// casting. An edge is counted when exactly one endpoint lies strictly above
// p.Y, so a given boundary point always gets the same answer.
func (r *Region) Contains(p Point) bool {
	if p.X < r.min.X || p.X > r.max.X || p.Y < r.min.Y || p.Y > r.max.Y {
		return false
	}

	inside := false
	n := len(r.vertices)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := r.vertices[i], r.vertices[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			xCross := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < xCross {
				inside = !inside
			}
		}
	}
	return inside
}

// Vertices returns a copy of the region's vertices.
func (r *Region) Vertices() []Point {
	out := make([]Point, len(r.vertices))
	copy(out, r.vertices)
	return out
}

// Bounds returns the axis-aligned bounding box of the region.
func (r *Region) Bounds() (min, max Point) {
	return r.min, r.max
}

// Area returns the absolute polygon area (shoelace formula).
func (r *Region) Area() float64 {
	return math.Abs(signedArea(r.vertices))
}

func signedArea(vs []Point) float64 {
	var sum float64
	n := len(vs)
	for i := 0; i < n; i++ {
		a, b := vs[i], vs[(i+1)%n]
		sum += a.X*b.Y - b.X*a.Y
	}
	return sum / 2
}

// firstCrossing returns the first pair of non-adjacent edges that touch or
// cross. Edge i runs from vertex i to vertex i+1.
func firstCrossing(vs []Point) (int, int, bool) {
	n := len(vs)
	for i := 0; i < n; i++ {
		a1, a2 := vs[i], vs[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i+1 || (i == 0 && j == n-1) {
				continue
			}
			b1, b2 := vs[j], vs[(j+1)%n]
			if segmentsIntersect(a1, a2, b1, b2) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

func segmentsIntersect(p1, p2, q1, q2 Point) bool {
	d1 := orient(q1, q2, p1)
	d2 := orient(q1, q2, p2)
	d3 := orient(p1, p2, q1)
	d4 := orient(p1, p2, q2)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && onSegment(q1, q2, p1):
		return true
	case d2 == 0 && onSegment(q1, q2, p2):
		return true
	case d3 == 0 && onSegment(p1, p2, q1):
		return true
	case d4 == 0 && onSegment(p1, p2, q2):
		return true
	}
	return false
}

func orient(a, b, c Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func onSegment(a, b, p Point) bool {
	return math.Min(a.X, b.X) <= p.X && p.X <= math.Max(a.X, b.X) &&
		math.Min(a.Y, b.Y) <= p.Y && p.Y <= math.Max(a.Y, b.Y)
}
