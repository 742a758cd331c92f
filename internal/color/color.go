package color

import "math"

// Canonical is the engine's internal color representation: CIE 1931 xy
// chromaticity plus brightness in [0, 1]. Kelvin is non-zero only when the
// source reading was a color temperature; keeping the source axis avoids a
// lossy xy round trip when the apply mode is also color_temp.
type Canonical struct {
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Brightness float64  `json:"brightness"`
	Kelvin     float64  `json:"kelvin,omitempty"`
}

// Gamut triangle used for chromaticity clamping. These are the wide-gamut
// primaries of modern Hue color lights ("Gamut C").
var (
	gamutR = point{0.6915, 0.3083}
	gamutG = point{0.1700, 0.7000}
	gamutB = point{0.1532, 0.0475}
)

type point struct{ x, y float64 }

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}

// ClampToGamut returns the chromaticity unchanged when it lies inside the
// gamut triangle, otherwise the closest point on the triangle's boundary.
func ClampToGamut(x, y float64) (float64, float64) {
	p := point{clamp01(x), clamp01(y)}
	if inTriangle(p, gamutR, gamutG, gamutB) {
		return p.x, p.y
	}

	candidates := []point{
		closestOnSegment(p, gamutR, gamutG),
		closestOnSegment(p, gamutG, gamutB),
		closestOnSegment(p, gamutB, gamutR),
	}
	best := candidates[0]
	bestDist := dist2(p, best)
	for _, c := range candidates[1:] {
		if d := dist2(p, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best.x, best.y
}

func inTriangle(p, a, b, c point) bool {
	d1 := cross(p, a, b)
	d2 := cross(p, b, c)
	d3 := cross(p, c, a)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0
	return !(hasNeg && hasPos)
}

func cross(p, a, b point) float64 {
	return (b.x-a.x)*(p.y-a.y) - (b.y-a.y)*(p.x-a.x)
}

func closestOnSegment(p, a, b point) point {
	abx, aby := b.x-a.x, b.y-a.y
	t := ((p.x-a.x)*abx + (p.y-a.y)*aby) / (abx*abx + aby*aby)
	t = clamp01(t)
	return point{a.x + t*abx, a.y + t*aby}
}

func dist2(a, b point) float64 {
	dx, dy := a.x-b.x, a.y-b.y
	return dx*dx + dy*dy
}
