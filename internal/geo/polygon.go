package geo

import "math"

// Envelope is an axis-aligned bounding box in degrees.
type Envelope struct {
	MinLng, MinLat, MaxLng, MaxLat float64
}

// EnvelopeOf computes the bounding box of the given positions.
func EnvelopeOf(positions []Position) Envelope {
	e := Envelope{
		MinLng: math.Inf(1), MinLat: math.Inf(1),
		MaxLng: math.Inf(-1), MaxLat: math.Inf(-1),
	}
	for _, p := range positions {
		e.MinLng = math.Min(e.MinLng, p[0])
		e.MinLat = math.Min(e.MinLat, p[1])
		e.MaxLng = math.Max(e.MaxLng, p[0])
		e.MaxLat = math.Max(e.MaxLat, p[1])
	}
	return e
}

// Contains reports whether o lies inside e, boundary inclusive.
func (e Envelope) Contains(o Envelope) bool {
	return o.MinLng >= e.MinLng && o.MaxLng <= e.MaxLng &&
		o.MinLat >= e.MinLat && o.MaxLat <= e.MaxLat
}

// Polygon is a single closed ring.
type Polygon []Position

// Rectangle returns the closed counter-clockwise ring
// (W,S) (E,S) (E,N) (W,N) (W,S).
func Rectangle(west, south, east, north float64) Polygon {
	return Polygon{
		{west, south},
		{east, south},
		{east, north},
		{west, north},
		{west, south},
	}
}

func (p Polygon) Envelope() Envelope {
	return EnvelopeOf(p)
}

// ContainsPoint is an even-odd ray cast with points on an edge counted as
// inside.
func (p Polygon) ContainsPoint(pt Position) bool {
	n := len(p)
	if n < 4 {
		return false
	}

	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := p[j], p[i]
		if onSegment(a, b, pt) {
			return true
		}
		if (b[1] > pt[1]) != (a[1] > pt[1]) {
			x := (a[0]-b[0])*(pt[1]-b[1])/(a[1]-b[1]) + b[0]
			if pt[0] < x {
				inside = !inside
			}
		}
	}
	return inside
}

// ContainsGeometry reports whether every vertex of g lies in p. Exact for
// convex rings such as the bounds rectangle.
func (p Polygon) ContainsGeometry(g Geometry) bool {
	positions, err := g.Positions()
	if err != nil {
		return false
	}
	for _, pt := range positions {
		if !p.ContainsPoint(pt) {
			return false
		}
	}
	return true
}

const epsilon = 1e-12

func onSegment(a, b, p Position) bool {
	cross := (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
	if math.Abs(cross) > epsilon {
		return false
	}
	return p[0] >= math.Min(a[0], b[0])-epsilon && p[0] <= math.Max(a[0], b[0])+epsilon &&
		p[1] >= math.Min(a[1], b[1])-epsilon && p[1] <= math.Max(a[1], b[1])+epsilon
}
