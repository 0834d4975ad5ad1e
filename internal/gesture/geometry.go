package gesture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SamplePointsCount is the number of points a stroke is resampled to before matching.
const SamplePointsCount = 16

// Point is a 2D coordinate of a stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// PathLength returns the length of the stroke as the sum of distances between consecutive points.
func PathLength(points []Point) float64 {
	var length float64
	for i := 1; i < len(points); i++ {
		length += Distance(points[i-1], points[i])
	}
	return length
}

// Resample returns n points spaced evenly along the path of the stroke.
// The first and last points of the stroke are always kept. An empty stroke yields an
// empty slice and a single point is repeated n times. A negative n is treated as 0.
func Resample(stroke []Point, n int) []Point {
	if n < 0 {
		n = 0
	}
	if len(stroke) == 0 || n == 0 {
		return []Point{}
	}

	if len(stroke) == 1 {
		out := make([]Point, n)
		for i := range out {
			out[i] = stroke[0]
		}
		return out
	}

	if n == 1 {
		return []Point{stroke[0]}
	}

	interval := PathLength(stroke) / float64(n-1)
	out := make([]Point, 0, n)
	out = append(out, stroke[0])

	var acc float64
	prev := stroke[0]
	for i := 1; i < len(stroke) && len(out) < n-1; {
		p := stroke[i]
		d := Distance(prev, p)
		if d > 0 && acc+d > interval {
			// Interpolate and stay on the same segment for the remainder.
			t := (interval - acc) / d
			q := Point{
				X: prev.X + t*(p.X-prev.X),
				Y: prev.Y + t*(p.Y-prev.Y),
			}
			out = append(out, q)
			acc = 0
			prev = q
			continue
		}
		acc += d
		prev = p
		i++
	}

	// Rounding can leave the walk one interval short.
	last := stroke[len(stroke)-1]
	for len(out) < n {
		out = append(out, last)
	}
	return out
}

// Centroid returns the mean of the points. The caller must pass at least one point.
func Centroid(points []Point) Point {
	var cx, cy float64
	for _, p := range points {
		cx += p.X
		cy += p.Y
	}
	n := float64(len(points))
	return Point{X: cx / n, Y: cy / n}
}

// Translate returns a copy of points moved by offset.
func Translate(points []Point, offset Point) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: p.X + offset.X, Y: p.Y + offset.Y}
	}
	return out
}

// Rotate returns a copy of points rotated about the origin by theta radians.
func Rotate(points []Point, theta float64) []Point {
	cos := math.Cos(theta)
	sin := math.Sin(theta)

	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{
			X: p.X*cos - p.Y*sin,
			Y: p.X*sin + p.Y*cos,
		}
	}
	return out
}

// Scale returns a copy of points multiplied by factor.
func Scale(points []Point, factor float64) []Point {
	out := make([]Point, len(points))
	for i, p := range points {
		out[i] = Point{X: p.X * factor, Y: p.Y * factor}
	}
	return out
}

// Normalize treats the n points as one vector of 2n values and returns a copy scaled to
// unit magnitude. A zero vector is returned unchanged.
func Normalize(points []Point) []Point {
	flat := flatten(points)
	mag := floats.Norm(flat, 2)
	if mag == 0 {
		return Copy(points)
	}
	floats.Scale(1/mag, flat)
	return unflatten(flat)
}

// Canonicalize resamples the stroke to SamplePointsCount points, moves its centroid to the
// origin and normalizes it. An empty stroke yields an empty slice, and a stroke whose
// coordinates overflow during resampling or normalization yields nil.
func Canonicalize(stroke []Point) []Point {
	resampled := Resample(stroke, SamplePointsCount)
	if len(resampled) == 0 {
		return resampled
	}
	c := Centroid(resampled)
	centered := Translate(resampled, Point{X: -c.X, Y: -c.Y})
	canonical := Normalize(centered)
	for _, p := range canonical {
		if !finite(p.X) || !finite(p.Y) {
			return nil
		}
	}
	return canonical
}

// CanonicalizeStroke is Canonicalize with the failure reported:
// ErrEmptyStroke for no points, ErrInvalidStroke when the stroke cannot be normalized.
func CanonicalizeStroke(stroke []Point) ([]Point, error) {
	if len(stroke) == 0 {
		return nil, ErrEmptyStroke
	}
	canonical := Canonicalize(stroke)
	if canonical == nil {
		return nil, ErrInvalidStroke
	}
	return canonical, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Copy returns a copy of points.
func Copy(points []Point) []Point {
	out := make([]Point, len(points))
	copy(out, points)
	return out
}

func flatten(points []Point) []float64 {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}

func unflatten(flat []float64) []Point {
	out := make([]Point, len(flat)/2)
	for i := range out {
		out[i] = Point{X: flat[2*i], Y: flat[2*i+1]}
	}
	return out
}
