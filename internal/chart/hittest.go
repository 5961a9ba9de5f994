package chart

import "math"

// Geometry locates the pie on a drawing surface.
type Geometry struct {
	CX     float64
	CY     float64
	Radius float64
}

// NewGeometry centres the pie on a width x height surface, leaving margin
// pixels between the circle and the nearest edge.
func NewGeometry(width, height, margin float64) Geometry {
	cx, cy := width/2, height/2
	r := math.Min(cx, cy) - margin
	if r < 0 {
		r = 0
	}
	return Geometry{CX: cx, CY: cy, Radius: r}
}

// Contains reports whether (x, y) lies inside the circle.
func (g Geometry) Contains(x, y float64) bool {
	return math.Hypot(x-g.CX, y-g.CY) <= g.Radius
}

// Point returns the surface position at angle a and distance frac*Radius
// from the centre.
func (g Geometry) Point(a, frac float64) (float64, float64) {
	r := g.Radius * frac
	return g.CX + math.Cos(a)*r, g.CY + math.Sin(a)*r
}

// HitTest returns the slice under the surface point (x, y). It reports false
// when the point is outside the pie, is not finite, or there are no slices.
//
// Angles are measured from 12 o'clock: the pointer angle is rotated by +π/2
// and each slice's bounds are rotated the same way and normalised on their
// own. The last slice's end lands on 2π and normalises to 0, which the
// end < start branch picks up.
func HitTest(slices []Slice, g Geometry, x, y float64) (Slice, bool) {
	if len(slices) == 0 {
		return Slice{}, false
	}
	dx, dy := x-g.CX, y-g.CY
	if d := math.Hypot(dx, dy); !(d <= g.Radius) {
		return Slice{}, false
	}

	angle := normalizeAngle(math.Atan2(dy, dx) + math.Pi/2)

	for _, s := range slices {
		if s.Width() >= fullTurn-1e-9 {
			return s, true
		}
		start := normalizeAngle(s.StartAngle + math.Pi/2)
		end := normalizeAngle(s.EndAngle + math.Pi/2)
		if end < start {
			if angle >= start || angle <= end {
				return s, true
			}
			continue
		}
		if angle >= start && angle < end {
			return s, true
		}
	}
	return Slice{}, false
}

// normalizeAngle maps a into [0, 2π).
func normalizeAngle(a float64) float64 {
	a = math.Mod(a, fullTurn)
	if a < 0 {
		a += fullTurn
	}
	if a >= fullTurn {
		a = 0
	}
	return a
}
