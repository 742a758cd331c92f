package color

// Scale identifies the numeric range a raw value is expressed in.
type Scale string

const (
	ScaleAuto   Scale = "auto"
	Scale0to1   Scale = "0_1"
	Scale0to100 Scale = "0_100"
	Scale0to255 Scale = "0_255"
	Scale0to360 Scale = "0_360"
)

// Kind selects the detection table: hue-like values top out at 360 degrees,
// percent-like values at 100.
type Kind int

const (
	KindHue Kind = iota
	KindPercent
)

// ValidFor reports whether the scale is usable for the given kind.
// ScaleAuto is valid for both.
func (s Scale) ValidFor(kind Kind) bool {
	switch s {
	case ScaleAuto, Scale0to1, Scale0to255:
		return true
	case Scale0to100:
		return kind == KindPercent
	case Scale0to360:
		return kind == KindHue
	}
	return false
}

// Detect infers the scale of a raw value from its magnitude, picking the
// smallest enclosing range. A value of exactly 0 or 1 is ambiguous between
// every scale; it resolves to 0-1, the narrowest. Values that fit no range
// fail with a RangeError rather than guessing.
func Detect(v float64, kind Kind) (Scale, error) {
	if kind == KindHue {
		switch {
		case v >= 0 && v <= 1:
			return Scale0to1, nil
		case v > 1 && v <= 255:
			return Scale0to255, nil
		case v > 255 && v <= 360:
			return Scale0to360, nil
		}
		return "", &RangeError{Field: "hue", Value: v, Min: 0, Max: 360}
	}

	switch {
	case v >= 0 && v <= 1:
		return Scale0to1, nil
	case v > 1 && v <= 100:
		return Scale0to100, nil
	case v > 100 && v <= 255:
		return Scale0to255, nil
	}
	return "", &RangeError{Field: "percent", Value: v, Min: 0, Max: 255}
}

// resolveHue maps a raw value to degrees [0, 360] using the given scale,
// detecting the scale first when it is auto.
func resolveHue(v float64, s Scale) (float64, error) {
	if s == ScaleAuto {
		detected, err := Detect(v, KindHue)
		if err != nil {
			return 0, err
		}
		s = detected
	}

	var max float64
	switch s {
	case Scale0to1:
		max = 1
	case Scale0to255:
		max = 255
	case Scale0to360:
		max = 360
	default:
		return 0, &RangeError{Field: "hue", Value: v, Min: 0, Max: 360}
	}

	if v < 0 || v > max {
		return 0, &RangeError{Field: "hue", Value: v, Min: 0, Max: max}
	}
	return v / max * 360, nil
}

// resolvePercent maps a raw value to percent [0, 100] using the given
// scale, detecting the scale first when it is auto.
func resolvePercent(field string, v float64, s Scale) (float64, error) {
	if s == ScaleAuto {
		detected, err := Detect(v, KindPercent)
		if err != nil {
			return 0, &RangeError{Field: field, Value: v, Min: 0, Max: 255}
		}
		s = detected
	}

	var max float64
	switch s {
	case Scale0to1:
		max = 1
	case Scale0to100:
		max = 100
	case Scale0to255:
		max = 255
	default:
		return 0, &RangeError{Field: field, Value: v, Min: 0, Max: 100}
	}

	if v < 0 || v > max {
		return 0, &RangeError{Field: field, Value: v, Min: 0, Max: max}
	}
	return v / max * 100, nil
}
