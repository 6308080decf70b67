package device

import (
	"fmt"
	"strings"
)

// Field names one HSBK component for scene comparison.
type Field string

const (
	FieldHue        Field = "hue"
	FieldSaturation Field = "saturation"
	FieldBrightness Field = "brightness"
	FieldKelvin     Field = "kelvin"
)

// DefaultMatchFields are compared when deciding whether a light shows a scene.
// Hue and brightness are excluded.
var DefaultMatchFields = []Field{FieldSaturation, FieldKelvin}

// ParseField validates a configured field name.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case FieldHue, FieldSaturation, FieldBrightness, FieldKelvin:
		return f, nil
	default:
		return "", fmt.Errorf("unknown color field %q", s)
	}
}

func (c Color) field(f Field) uint16 {
	switch f {
	case FieldHue:
		return c.Hue
	case FieldSaturation:
		return c.Saturation
	case FieldBrightness:
		return c.Brightness
	case FieldKelvin:
		return c.Kelvin
	}
	return 0
}

// Matches reports whether c equals other on every given field.
func (c Color) Matches(other Color, fields []Field) bool {
	for _, f := range fields {
		if c.field(f) != other.field(f) {
			return false
		}
	}
	return true
}

func (c Color) String() string {
	return fmt.Sprintf("h=%d s=%d b=%d k=%d", c.Hue, c.Saturation, c.Brightness, c.Kelvin)
}
