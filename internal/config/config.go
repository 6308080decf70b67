package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dokzlo13/lifxswitch/internal/device"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid configuration")

// Config represents the application configuration
type Config struct {
	Log             LogConfig            `yaml:"log"`
	Database        DatabaseConfig       `yaml:"database"`
	Timing          TimingConfig         `yaml:"timing"`
	LIFX            LIFXConfig           `yaml:"lifx"`
	Discovery       DiscoveryConfig      `yaml:"discovery"`
	GPIO            GPIOConfig           `yaml:"gpio"`
	Buttons         map[int]ButtonConfig `yaml:"buttons"`
	EventBus        EventBusConfig       `yaml:"eventbus"`
	Ledger          LedgerConfig         `yaml:"ledger"`
	Healthcheck     HealthcheckConfig    `yaml:"healthcheck"`
	MQTT            MQTTConfig           `yaml:"mqtt"`
	Script          string               `yaml:"script"`
	ShutdownTimeout Duration             `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	Colors  bool   `yaml:"colors"`
	UseJSON bool   `yaml:"json"`
}

// GetLevel returns the configured level, lowercased
func (c LogConfig) GetLevel() string {
	return strings.ToLower(c.Level)
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// TimingConfig holds the global gesture thresholds, in milliseconds
type TimingConfig struct {
	DoubleClick Millis `yaml:"double_click"`
	HoldTime    Millis `yaml:"hold_time"`
}

// LIFXConfig contains LAN client settings
type LIFXConfig struct {
	Timeout           Duration `yaml:"timeout"`
	RetryInterval     Duration `yaml:"retry_interval"`
	DiscoveryInterval Duration `yaml:"discovery_interval"`
	RateLimitRPS      float64  `yaml:"rate_limit_rps"`
	Reliable          *bool    `yaml:"reliable"`
}

// IsReliable returns whether acknowledged delivery is requested (default: true)
func (c LIFXConfig) IsReliable() bool {
	return c.Reliable == nil || *c.Reliable
}

// DiscoveryConfig contains discovery loop cadence
type DiscoveryConfig struct {
	MinInterval Duration `yaml:"min_interval"`
	Step        Duration `yaml:"step"`
	MaxInterval Duration `yaml:"max_interval"`
}

// GPIOConfig contains GPIO chip settings
type GPIOConfig struct {
	Enabled   *bool    `yaml:"enabled"`
	Chip      string   `yaml:"chip"`
	PullUp    *bool    `yaml:"pull_up"`
	ActiveLow *bool    `yaml:"active_low"`
	Debounce  Duration `yaml:"debounce"`
}

// IsEnabled returns whether GPIO buttons are watched (default: true)
func (c GPIOConfig) IsEnabled() bool { return c.Enabled == nil || *c.Enabled }

// IsPullUp returns whether the internal pull-up is enabled (default: true)
func (c GPIOConfig) IsPullUp() bool { return c.PullUp == nil || *c.PullUp }

// IsActiveLow returns whether a press pulls the line low (default: true)
func (c GPIOConfig) IsActiveLow() bool { return c.ActiveLow == nil || *c.ActiveLow }

// ButtonConfig describes one physical button
type ButtonConfig struct {
	Group      string           `yaml:"group"`
	HoldTime   Millis           `yaml:"hold_time"`
	HoldRepeat bool             `yaml:"hold_repeat"`
	Single     string           `yaml:"single"`
	Double     string           `yaml:"double"`
	Long       string           `yaml:"long"`
	Transition Millis           `yaml:"transition"`
	Fast       *bool            `yaml:"fast"`
	Match      []string         `yaml:"match"`
	Scenes     map[string]Scene `yaml:"scenes"`
}

// IsFast returns whether device commands skip acknowledgements (default: true)
func (b ButtonConfig) IsFast() bool { return b.Fast == nil || *b.Fast }

// MatchFields returns the parsed scene comparison fields
func (b ButtonConfig) MatchFields() ([]device.Field, error) {
	if len(b.Match) == 0 {
		return device.DefaultMatchFields, nil
	}
	fields := make([]device.Field, 0, len(b.Match))
	for _, m := range b.Match {
		f, err := device.ParseField(m)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, nil
}

// SceneColors converts the scene table
func (b ButtonConfig) SceneColors() map[string]device.Color {
	out := make(map[string]device.Color, len(b.Scenes))
	for name, s := range b.Scenes {
		out[name] = device.Color(s)
	}
	return out
}

// EventBusConfig contains gesture bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 1, keeps gestures ordered)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 64)
}

// LedgerConfig contains event ledger settings
type LedgerConfig struct {
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// HealthcheckConfig contains status server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// Addr returns host:port
func (c HealthcheckConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// MQTTConfig contains gesture notifier settings
type MQTTConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Broker      string   `yaml:"broker"`
	ClientID    string   `yaml:"client_id"`
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	TopicPrefix string   `yaml:"topic_prefix"`
	QoS         byte     `yaml:"qos"`
	Timeout     Duration `yaml:"timeout"`
}

// Load reads, parses and validates the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses configuration bytes, applies defaults and validates
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./lifxswitch.sqlite"
	}

	// 400ms for both thresholds
	if cfg.Timing.DoubleClick == 0 {
		cfg.Timing.DoubleClick = 400
	}
	if cfg.Timing.HoldTime == 0 {
		cfg.Timing.HoldTime = 400
	}

	// LIFX defaults
	if cfg.LIFX.Timeout == 0 {
		cfg.LIFX.Timeout = Duration(2 * time.Second)
	}
	if cfg.LIFX.RetryInterval == 0 {
		cfg.LIFX.RetryInterval = Duration(200 * time.Millisecond)
	}
	if cfg.LIFX.DiscoveryInterval == 0 {
		cfg.LIFX.DiscoveryInterval = Duration(30 * time.Second)
	}
	if cfg.LIFX.RateLimitRPS == 0 {
		cfg.LIFX.RateLimitRPS = 20.0 // LIFX recommends at most 20 messages per second
	}

	// Discovery defaults
	if cfg.Discovery.MinInterval == 0 {
		cfg.Discovery.MinInterval = Duration(5 * time.Second)
	}
	if cfg.Discovery.Step == 0 {
		cfg.Discovery.Step = Duration(5 * time.Second)
	}
	if cfg.Discovery.MaxInterval == 0 {
		cfg.Discovery.MaxInterval = Duration(15 * time.Minute)
	}

	if cfg.GPIO.Chip == "" {
		cfg.GPIO.Chip = "gpiochip0"
	}

	for pin, b := range cfg.Buttons {
		if b.HoldTime == 0 {
			b.HoldTime = cfg.Timing.HoldTime
		}
		if b.Transition == 0 {
			b.Transition = 400
		}
		cfg.Buttons[pin] = b
	}

	// Ledger defaults
	if cfg.Ledger.CleanupInterval == 0 {
		cfg.Ledger.CleanupInterval = Duration(24 * time.Hour)
	}
	if cfg.Ledger.RetentionDays == 0 {
		cfg.Ledger.RetentionDays = 30
	}

	// Healthcheck defaults
	if cfg.Healthcheck.Port == 0 {
		cfg.Healthcheck.Port = 9090
	}
	if cfg.Healthcheck.Host == "" {
		cfg.Healthcheck.Host = "0.0.0.0"
	}

	// MQTT defaults
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "lifxswitch"
	}
	if cfg.MQTT.TopicPrefix == "" {
		cfg.MQTT.TopicPrefix = "lifxswitch"
	}
	if cfg.MQTT.Timeout == 0 {
		cfg.MQTT.Timeout = Duration(10 * time.Second)
	}

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}
}

// Validate checks structural requirements. Action names are checked against
// the action registry when buttons are bound.
func (cfg *Config) Validate() error {
	if len(cfg.Buttons) == 0 {
		return fmt.Errorf("%w: no buttons configured", ErrInvalid)
	}
	if cfg.Timing.DoubleClick < 0 || cfg.Timing.HoldTime < 0 {
		return fmt.Errorf("%w: timing values must be positive", ErrInvalid)
	}
	for _, pin := range cfg.Pins() {
		b := cfg.Buttons[pin]
		if pin < 0 {
			return fmt.Errorf("%w: button %d: pin must not be negative", ErrInvalid, pin)
		}
		if strings.TrimSpace(b.Group) == "" {
			return fmt.Errorf("%w: button %d: group is required", ErrInvalid, pin)
		}
		if b.HoldTime < 0 || b.Transition < 0 {
			return fmt.Errorf("%w: button %d: durations must be positive", ErrInvalid, pin)
		}
		if b.Single == "" && b.Double == "" && b.Long == "" {
			return fmt.Errorf("%w: button %d: no actions configured", ErrInvalid, pin)
		}
		if _, err := b.MatchFields(); err != nil {
			return fmt.Errorf("%w: button %d: %w", ErrInvalid, pin, err)
		}
	}
	if cfg.MQTT.Enabled && cfg.MQTT.Broker == "" {
		return fmt.Errorf("%w: mqtt.broker is required when mqtt is enabled", ErrInvalid)
	}
	if cfg.MQTT.QoS > 2 {
		return fmt.Errorf("%w: mqtt.qos must be 0, 1 or 2", ErrInvalid)
	}
	return nil
}

// Pins returns the configured button pins in ascending order
func (cfg *Config) Pins() []int {
	pins := make([]int, 0, len(cfg.Buttons))
	for pin := range cfg.Buttons {
		pins = append(pins, pin)
	}
	sort.Ints(pins)
	return pins
}

// GetShutdownTimeout returns the shutdown timeout
func (cfg *Config) GetShutdownTimeout() time.Duration {
	return cfg.ShutdownTimeout.Duration()
}

// expandEnvVars expands environment variables in the format ${VAR} or ${VAR:default}
func expandEnvVars(input string) string {
	// Match ${VAR} or ${VAR:default}
	re := regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

	return re.ReplaceAllStringFunc(input, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultVal := ""
		if len(parts) >= 3 {
			defaultVal = parts[2]
		}

		if val := os.Getenv(varName); val != "" {
			return val
		}
		return defaultVal
	})
}
