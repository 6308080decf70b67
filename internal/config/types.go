package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration for YAML unmarshalling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Millis is an integer number of milliseconds
type Millis int

// Duration converts to time.Duration
func (m Millis) Duration() time.Duration {
	return time.Duration(m) * time.Millisecond
}

// Scene is an HSBK color. It accepts either a [h, s, b, k] list or a mapping
// with hue, saturation, brightness and kelvin keys.
type Scene struct {
	Hue        uint16 `yaml:"hue"`
	Saturation uint16 `yaml:"saturation"`
	Brightness uint16 `yaml:"brightness"`
	Kelvin     uint16 `yaml:"kelvin"`
}

// UnmarshalYAML implements yaml.Unmarshaler for Scene
func (s *Scene) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.SequenceNode {
		var hsbk []uint16
		if err := value.Decode(&hsbk); err != nil {
			return err
		}
		if len(hsbk) != 4 {
			return fmt.Errorf("line %d: scene needs 4 values [hue, saturation, brightness, kelvin], got %d", value.Line, len(hsbk))
		}
		*s = Scene{Hue: hsbk[0], Saturation: hsbk[1], Brightness: hsbk[2], Kelvin: hsbk[3]}
		return nil
	}

	type plain Scene
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Scene(p)
	return nil
}
