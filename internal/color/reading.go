// Package color implements the canonical color model and the normalization
// pipeline that converts raw sky readings into CIE xy + brightness.
package color

import (
	"fmt"
	"time"
)

// Format identifies the color encoding of a reading or a light command.
type Format string

const (
	FormatXY        Format = "xy"
	FormatHS        Format = "hs"
	FormatRGB       Format = "rgb"
	FormatColorTemp Format = "color_temp"
)

// Valid reports whether f is a known format.
func (f Format) Valid() bool {
	switch f {
	case FormatXY, FormatHS, FormatRGB, FormatColorTemp:
		return true
	}
	return false
}

// Cardinality returns the number of values a reading of this format carries.
// Brightness travels in its own field and is never counted here.
func (f Format) Cardinality() int {
	switch f {
	case FormatXY, FormatHS:
		return 2
	case FormatRGB:
		return 3
	case FormatColorTemp:
		return 1
	}
	return 0
}

// Reading is a single sky observation as delivered by a producer.
// It is immutable: created once by the producer, consumed once by the engine.
type Reading struct {
	Format     Format
	Values     []float64
	Brightness *float64
	Timestamp  time.Time
}

// FormatError reports a reading whose shape does not match its declared format.
type FormatError struct {
	Format Format
	Want   int
	Got    int
}

func (e *FormatError) Error() string {
	if !e.Format.Valid() {
		return fmt.Sprintf("unknown color format %q", e.Format)
	}
	return fmt.Sprintf("format %s requires %d values, got %d", e.Format, e.Want, e.Got)
}

// RangeError reports a value that cannot be mapped into its domain
// after scale resolution.
type RangeError struct {
	Field string
	Value float64
	Min   float64
	Max   float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s value %g outside domain [%g, %g]", e.Field, e.Value, e.Min, e.Max)
}
