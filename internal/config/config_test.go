package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

const minimal = `
buttons:
  17:
    group: Kitchen
    single: toggle_power
`

func TestDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if got := cfg.Timing.DoubleClick.Duration(); got != 400*time.Millisecond {
		t.Errorf("double_click = %v, want 400ms", got)
	}
	b := cfg.Buttons[17]
	if got := b.HoldTime.Duration(); got != 400*time.Millisecond {
		t.Errorf("button hold_time = %v, want timing.hold_time", got)
	}
	if !b.IsFast() {
		t.Error("fast should default to true")
	}
	fields, _ := b.MatchFields()
	if len(fields) != 2 || fields[0] != device.FieldSaturation || fields[1] != device.FieldKelvin {
		t.Errorf("match fields = %v, want saturation,kelvin", fields)
	}
	if cfg.Discovery.MinInterval.Duration() != 5*time.Second || cfg.Discovery.MaxInterval.Duration() != 15*time.Minute {
		t.Errorf("discovery = %+v", cfg.Discovery)
	}
	if !cfg.LIFX.IsReliable() || !cfg.GPIO.IsEnabled() || !cfg.GPIO.IsPullUp() {
		t.Error("pointer booleans should default to true")
	}
	if cfg.GetShutdownTimeout() != 5*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.GetShutdownTimeout())
	}
}

func TestButtonOverrides(t *testing.T) {
	cfg, err := Parse([]byte(`
timing:
  double_click: 300
  hold_time: 600
buttons:
  4:
    group: lounge
    hold_time: 1000
    long: dim_cycle_plus_colourful
    transition: 0
    fast: false
    match: [brightness, kelvin]
    scenes:
      default: [0, 0, 65535, 3500]
      dim: {brightness: 32000, kelvin: 3000}
  5:
    group: lounge
    double: reset_or_boost
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	b := cfg.Buttons[4]
	if b.HoldTime.Duration() != time.Second {
		t.Errorf("hold_time = %v, want 1s", b.HoldTime.Duration())
	}
	if cfg.Buttons[5].HoldTime.Duration() != 600*time.Millisecond {
		t.Errorf("button 5 should inherit timing.hold_time")
	}
	if b.IsFast() {
		t.Error("fast: false not honoured")
	}
	fields, _ := b.MatchFields()
	if len(fields) != 2 || fields[0] != device.FieldBrightness {
		t.Errorf("match fields = %v", fields)
	}
	scenes := b.SceneColors()
	if scenes["default"] != (device.Color{Brightness: 65535, Kelvin: 3500}) {
		t.Errorf("default scene = %v", scenes["default"])
	}
	if scenes["dim"] != (device.Color{Brightness: 32000, Kelvin: 3000}) {
		t.Errorf("dim scene = %v", scenes["dim"])
	}
	if got := cfg.Pins(); len(got) != 2 || got[0] != 4 {
		t.Errorf("Pins() = %v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no_buttons", `log: {level: debug}`},
		{"missing_group", "buttons:\n  17:\n    single: toggle_power\n"},
		{"no_actions", "buttons:\n  17:\n    group: kitchen\n"},
		{"bad_match_field", "buttons:\n  17:\n    group: kitchen\n    single: toggle_power\n    match: [warmth]\n"},
		{"negative_timing", "timing: {double_click: -1}\n" + minimal},
		{"mqtt_without_broker", "mqtt: {enabled: true}\n" + minimal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestSceneNeedsFourValues(t *testing.T) {
	_, err := Parse([]byte(minimal + "    scenes:\n      default: [0, 0, 65535]\n"))
	if err == nil {
		t.Error("three-value scene should fail")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("LIFXSWITCH_DB", "/var/lib/lifxswitch.db")

	tests := []struct {
		in, want string
	}{
		{"${LIFXSWITCH_DB}", "/var/lib/lifxswitch.db"},
		{"${LIFXSWITCH_UNSET:fallback}", "fallback"},
		{"${LIFXSWITCH_UNSET}", ""},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := expandEnvVars(tt.in); got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("LIFXSWITCH_GROUP", "Kitchen")
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "database:\n  path: ${LIFXSWITCH_DB_PATH:/tmp/x.sqlite}\nbuttons:\n  17:\n    group: ${LIFXSWITCH_GROUP}\n    single: toggle_power\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Buttons[17].Group != "Kitchen" || cfg.Database.Path != "/tmp/x.sqlite" {
		t.Errorf("cfg = %+v", cfg)
	}
}
