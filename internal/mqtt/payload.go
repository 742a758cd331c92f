package mqtt

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/huerizon/skysyncd/internal/color"
)

// ParseOptions control payload coercion.
type ParseOptions struct {
	// StripSymbols accepts string values carrying unit symbols, e.g.
	// "210°" or "80%". Without it string values must be bare numbers.
	StripSymbols bool
}

// flexValue is a JSON number that may arrive as a string, optionally
// with a trailing unit symbol.
type flexValue struct {
	value float64
	set   bool
}

func (f *flexValue) parse(raw json.RawMessage, opts ParseOptions) error {
	var num float64
	if err := json.Unmarshal(raw, &num); err == nil {
		f.value, f.set = num, true
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("value %s is neither number nor string", string(raw))
	}

	s = strings.TrimSpace(s)
	if opts.StripSymbols {
		s = strings.TrimRight(s, "°%")
		s = strings.TrimSpace(s)
	}
	num, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot parse value %q as number", s)
	}
	f.value, f.set = num, true
	return nil
}

type rawReading struct {
	Format     string            `json:"format"`
	Values     []json.RawMessage `json:"values"`
	Brightness json.RawMessage   `json:"brightness"`
	Timestamp  string            `json:"timestamp"`

	// Legacy flat shape.
	Hue        json.RawMessage `json:"hue"`
	Saturation json.RawMessage `json:"saturation"`
}

// ParseReading decodes a reading payload. Two shapes are accepted: the
// canonical {"format", "values", "brightness", "timestamp"} object and
// the legacy flat {"hue", "saturation", "brightness"} object, which
// implies the hs format. A missing format is left empty so the caller's
// configured input format applies.
func ParseReading(data []byte, opts ParseOptions) (color.Reading, error) {
	var raw rawReading
	if err := json.Unmarshal(data, &raw); err != nil {
		return color.Reading{}, fmt.Errorf("invalid reading payload: %w", err)
	}

	r := color.Reading{Format: color.Format(raw.Format)}

	if raw.Brightness != nil {
		var b flexValue
		if err := b.parse(raw.Brightness, opts); err != nil {
			return color.Reading{}, fmt.Errorf("brightness: %w", err)
		}
		r.Brightness = &b.value
	}

	switch {
	case len(raw.Values) > 0:
		r.Values = make([]float64, 0, len(raw.Values))
		for i, rv := range raw.Values {
			var v flexValue
			if err := v.parse(rv, opts); err != nil {
				return color.Reading{}, fmt.Errorf("values[%d]: %w", i, err)
			}
			r.Values = append(r.Values, v.value)
		}

	case raw.Hue != nil || raw.Saturation != nil:
		var hue, sat flexValue
		if raw.Hue == nil || raw.Saturation == nil {
			return color.Reading{}, fmt.Errorf("legacy reading needs both hue and saturation")
		}
		if err := hue.parse(raw.Hue, opts); err != nil {
			return color.Reading{}, fmt.Errorf("hue: %w", err)
		}
		if err := sat.parse(raw.Saturation, opts); err != nil {
			return color.Reading{}, fmt.Errorf("saturation: %w", err)
		}
		r.Format = color.FormatHS
		r.Values = []float64{hue.value, sat.value}

	default:
		return color.Reading{}, fmt.Errorf("reading payload carries no values")
	}

	if raw.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, raw.Timestamp)
		if err != nil {
			return color.Reading{}, fmt.Errorf("timestamp: %w", err)
		}
		r.Timestamp = ts
	}

	return r, nil
}
