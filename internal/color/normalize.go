package color

import "math"

// TempUnit declares how color_temp reading values are expressed.
// The unit is configuration, never guessed from magnitude.
type TempUnit string

const (
	UnitKelvin TempUnit = "kelvin"
	UnitMireds TempUnit = "mireds"
)

// Convertible color temperature domains.
const (
	minKelvin = 1000.0
	maxKelvin = 40000.0
	minMireds = 25.0
	maxMireds = 1000.0
)

// Options control scale resolution during normalization. They are a slice
// of the engine configuration and treated as already validated.
type Options struct {
	HueScale     Scale
	PercentScale Scale
	// RGBScale applies to rgb channel values. Auto resolves to 0-255
	// unless every channel is at most 1, then 0-1.
	RGBScale Scale
	// ColorTempUnit applies to color_temp values.
	ColorTempUnit TempUnit
	// BrightnessIsPercent pins an auto percent scale to 0-100 for the
	// brightness field only.
	BrightnessIsPercent bool
}

// DefaultOptions returns the normalization defaults: auto everything,
// kelvin color temperatures.
func DefaultOptions() Options {
	return Options{
		HueScale:      ScaleAuto,
		PercentScale:  ScaleAuto,
		RGBScale:      ScaleAuto,
		ColorTempUnit: UnitKelvin,
	}
}

// Normalize converts a reading into the canonical representation.
// It fails with a FormatError when the value count does not match the
// declared format, and with a RangeError when a value cannot be mapped
// into its domain after scale resolution.
func Normalize(r Reading, opts Options) (Canonical, error) {
	if !r.Format.Valid() {
		return Canonical{}, &FormatError{Format: r.Format}
	}
	if want := r.Format.Cardinality(); len(r.Values) != want {
		return Canonical{}, &FormatError{Format: r.Format, Want: want, Got: len(r.Values)}
	}
	for i, v := range r.Values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Canonical{}, &RangeError{Field: "values", Value: r.Values[i], Min: 0, Max: 0}
		}
	}

	var c Canonical
	switch r.Format {
	case FormatXY:
		// xy is already canonical; out-of-gamut points clamp to the
		// nearest boundary instead of failing.
		c.X, c.Y = ClampToGamut(r.Values[0], r.Values[1])

	case FormatHS:
		hue, err := resolveHue(r.Values[0], opts.HueScale)
		if err != nil {
			return Canonical{}, err
		}
		sat, err := resolvePercent("saturation", r.Values[1], opts.PercentScale)
		if err != nil {
			return Canonical{}, err
		}
		red, green, blue := HSVToRGB(hue, sat/100, 1)
		c.X, c.Y = ClampToGamut(RGBToXY(red, green, blue))

	case FormatRGB:
		red, green, blue, err := resolveRGB(r.Values, opts.RGBScale)
		if err != nil {
			return Canonical{}, err
		}
		c.X, c.Y = ClampToGamut(RGBToXY(red, green, blue))
		if r.Brightness == nil {
			// Derive brightness from the strongest channel so that a
			// dim rgb reading round-trips to a dim light state.
			c.Brightness = math.Max(red, math.Max(green, blue))
		}

	case FormatColorTemp:
		kelvin, err := resolveKelvin(r.Values[0], opts.ColorTempUnit)
		if err != nil {
			return Canonical{}, err
		}
		c.Kelvin = kelvin
		c.X, c.Y = ClampToGamut(KelvinToXY(kelvin))
	}

	switch {
	case r.Brightness != nil:
		scale := opts.PercentScale
		if opts.BrightnessIsPercent && scale == ScaleAuto {
			scale = Scale0to100
		}
		pct, err := resolvePercent("brightness", *r.Brightness, scale)
		if err != nil {
			return Canonical{}, err
		}
		c.Brightness = clamp01(pct / 100)
	case r.Format == FormatRGB:
		// Already derived from the channels above.
	default:
		c.Brightness = 1
	}

	return c, nil
}

func resolveRGB(values []float64, scale Scale) (r, g, b float64, err error) {
	max := 255.0
	switch scale {
	case ScaleAuto:
		if values[0] <= 1 && values[1] <= 1 && values[2] <= 1 {
			max = 1
		}
	case Scale0to1:
		max = 1
	case Scale0to255:
		max = 255
	}

	out := make([]float64, 3)
	for i, v := range values {
		if v < 0 || v > max {
			return 0, 0, 0, &RangeError{Field: "rgb", Value: v, Min: 0, Max: max}
		}
		out[i] = v / max
	}
	return out[0], out[1], out[2], nil
}

func resolveKelvin(v float64, unit TempUnit) (float64, error) {
	switch unit {
	case UnitMireds:
		if v < minMireds || v > maxMireds {
			return 0, &RangeError{Field: "mireds", Value: v, Min: minMireds, Max: maxMireds}
		}
		return 1e6 / v, nil
	default:
		if v < minKelvin || v > maxKelvin {
			return 0, &RangeError{Field: "kelvin", Value: v, Min: minKelvin, Max: maxKelvin}
		}
		return v, nil
	}
}
