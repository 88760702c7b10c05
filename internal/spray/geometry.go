package spray

import "math"

// Point is a position in the leaf coordinate frame (pixels in the demo).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - other.
func (p Point) Sub(other Point) Point {
	return Point{X: p.X - other.X, Y: p.Y - other.Y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	d := b.Sub(a)
	return math.Hypot(d.X, d.Y)
}

// Bearing returns the angle in degrees from "from" to "to", measured with
// atan2(dy, dx). The result lies in (-180, 180]; coincident points yield 0.
func Bearing(from, to Point) float64 {
	d := to.Sub(from)
	if d.X == 0 && d.Y == 0 {
		return 0
	}
	deg := math.Atan2(d.Y, d.X) * 180 / math.Pi
	if deg <= -180 {
		// atan2 returns -π for (-0, negative dx); fold onto the open end.
		deg = 180
	}
	return deg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
