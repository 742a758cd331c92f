package color

import "math"

// Colorimetric conversions between the canonical xy representation and the
// supported reading/apply formats. RGB <-> xy uses the Wide RGB D65 matrix
// (the transform Hue lights use) with sRGB gamma; Kelvin -> xy uses the
// Kim et al. cubic approximation of the Planckian locus and the reverse
// direction uses McCamy's formula.

// HSVToRGB converts hue in degrees, saturation and value in [0, 1] to
// linear-scale RGB components in [0, 1] (not gamma corrected).
func HSVToRGB(h, s, v float64) (r, g, b float64) {
	if s <= 0 {
		return v, v, v
	}

	h = math.Mod(h, 360) / 60
	if h < 0 {
		h += 6
	}
	i := math.Floor(h)
	f := h - i
	p := v * (1 - s)
	q := v * (1 - s*f)
	t := v * (1 - s*(1-f))

	switch int(i) % 6 {
	case 0:
		return v, t, p
	case 1:
		return q, v, p
	case 2:
		return p, v, t
	case 3:
		return p, q, v
	case 4:
		return t, p, v
	default:
		return v, p, q
	}
}

// RGBToHSV converts RGB components in [0, 1] to hue in degrees [0, 360)
// and saturation/value in [0, 1].
func RGBToHSV(r, g, b float64) (h, s, v float64) {
	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	delta := max - min

	v = max
	if max == 0 {
		return 0, 0, 0
	}
	s = delta / max
	if delta == 0 {
		return 0, s, v
	}

	switch {
	case r == max:
		h = (g - b) / delta
		if g < b {
			h += 6
		}
	case g == max:
		h = 2 + (b-r)/delta
	default:
		h = 4 + (r-g)/delta
	}
	return h * 60, s, v
}

// RGBToXY converts gamma-encoded RGB components in [0, 1] to CIE xy.
func RGBToXY(r, g, b float64) (x, y float64) {
	r = srgbToLinear(r)
	g = srgbToLinear(g)
	b = srgbToLinear(b)

	X := r*0.664511 + g*0.154324 + b*0.162028
	Y := r*0.283881 + g*0.668433 + b*0.047685
	Z := r*0.000088 + g*0.072310 + b*0.986039

	sum := X + Y + Z
	if sum == 0 {
		// Black carries no chromaticity; report the D65 white point.
		return 0.3127, 0.3290
	}
	return X / sum, Y / sum
}

// XYToRGB converts CIE xy chromaticity to gamma-encoded RGB in [0, 1],
// scaled so the largest component is 1 (full luminance chromaticity).
func XYToRGB(x, y float64) (r, g, b float64) {
	if y == 0 {
		return 1, 1, 1
	}

	Y := 1.0
	X := (Y / y) * x
	Z := (Y / y) * (1 - x - y)

	r = X*1.656492 - Y*0.354851 - Z*0.255038
	g = -X*0.707196 + Y*1.655397 + Z*0.036152
	b = X*0.051713 - Y*0.121364 + Z*1.011530

	r = linearToSRGB(math.Max(r, 0))
	g = linearToSRGB(math.Max(g, 0))
	b = linearToSRGB(math.Max(b, 0))

	if max := math.Max(r, math.Max(g, b)); max > 0 {
		r, g, b = r/max, g/max, b/max
	}
	return r, g, b
}

func srgbToLinear(v float64) float64 {
	if v > 0.04045 {
		return math.Pow((v+0.055)/1.055, 2.4)
	}
	return v / 12.92
}

func linearToSRGB(v float64) float64 {
	if v <= 0.0031308 {
		return 12.92 * v
	}
	return 1.055*math.Pow(v, 1.0/2.4) - 0.055
}

// Planckian locus approximation limits. Kelvin values are clamped into this
// interval before computing chromaticity; the source value is preserved on
// the canonical color regardless.
const (
	planckMinKelvin = 1667.0
	planckMaxKelvin = 25000.0
)

// KelvinToXY approximates the chromaticity of a blackbody radiator at the
// given color temperature.
func KelvinToXY(kelvin float64) (x, y float64) {
	t := clamp(kelvin, planckMinKelvin, planckMaxKelvin)
	t2 := t * t
	t3 := t2 * t

	if t <= 4000 {
		x = -0.2661239e9/t3 - 0.2343589e6/t2 + 0.8776956e3/t + 0.179910
	} else {
		x = -3.0258469e9/t3 + 2.1070379e6/t2 + 0.2226347e3/t + 0.240390
	}

	x2 := x * x
	x3 := x2 * x
	switch {
	case t <= 2222:
		y = -1.1063814*x3 - 1.34811020*x2 + 2.18555832*x - 0.20219683
	case t <= 4000:
		y = -0.9549476*x3 - 1.37418593*x2 + 2.09137015*x - 0.16748867
	default:
		y = 3.0817580*x3 - 5.87338670*x2 + 3.75112997*x - 0.37001483
	}
	return x, y
}

// XYToKelvin estimates the correlated color temperature of a chromaticity
// using McCamy's approximation.
func XYToKelvin(x, y float64) float64 {
	n := (x - 0.3320) / (0.1858 - y)
	return 449*n*n*n + 3525*n*n + 6823.3*n + 5520.33
}

// Represent converts a canonical color to the values of the given apply
// mode. Brightness is not included in the returned slice; it travels
// separately on the light command.
func Represent(c Canonical, mode Format) ([]float64, error) {
	switch mode {
	case FormatXY:
		return []float64{c.X, c.Y}, nil

	case FormatHS:
		r, g, b := XYToRGB(c.X, c.Y)
		h, s, _ := RGBToHSV(r, g, b)
		return []float64{h, s * 100}, nil

	case FormatRGB:
		r, g, b := XYToRGB(c.X, c.Y)
		scale := 255 * c.Brightness
		return []float64{
			math.Round(r * scale),
			math.Round(g * scale),
			math.Round(b * scale),
		}, nil

	case FormatColorTemp:
		if c.Kelvin > 0 {
			return []float64{c.Kelvin}, nil
		}
		return []float64{XYToKelvin(c.X, c.Y)}, nil
	}

	return nil, &FormatError{Format: mode}
}
