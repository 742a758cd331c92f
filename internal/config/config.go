// Package config loads and validates the skysyncd configuration file.
// The engine snapshot is validated here, at load/reconfigure time; the
// engine itself never validates during evaluation.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/huerizon/skysyncd/internal/color"
	"github.com/huerizon/skysyncd/internal/engine"
	"github.com/huerizon/skysyncd/internal/schedule"
)

// Config represents the application configuration
type Config struct {
	MQTT            MQTTConfig        `yaml:"mqtt"`
	Hue             HueConfig         `yaml:"hue"`
	Database        DatabaseConfig    `yaml:"database"`
	Log             LogConfig         `yaml:"log"`
	Ledger          LedgerConfig      `yaml:"ledger"`
	Healthcheck     HealthcheckConfig `yaml:"healthcheck"`
	EventBus        EventBusConfig    `yaml:"eventbus"`
	Engine          EngineConfig      `yaml:"engine"`
	ShutdownTimeout Duration          `yaml:"shutdown_timeout"` // General shutdown timeout for graceful stops
}

// MQTTConfig contains broker connection settings for the reading feed
type MQTTConfig struct {
	Broker         string   `yaml:"broker"`
	Topic          string   `yaml:"topic"`
	ClientID       string   `yaml:"client_id"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

// HueConfig contains Hue bridge connection settings
type HueConfig struct {
	Bridge       string   `yaml:"bridge"`
	Token        string   `yaml:"token"`
	Timeout      Duration `yaml:"timeout"`        // HTTP timeout for bridge requests
	RateLimitRPS float64  `yaml:"rate_limit_rps"` // Outbound bridge request budget
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level   string `yaml:"level"`
	UseJSON bool   `yaml:"json"`
	Colors  bool   `yaml:"colors"`
}

// LedgerConfig contains decision ledger settings
type LedgerConfig struct {
	CleanupInterval Duration `yaml:"cleanup_interval"`
	RetentionDays   int      `yaml:"retention_days"`
}

// HealthcheckConfig contains health check server settings
type HealthcheckConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// EventBusConfig contains event bus settings
type EventBusConfig struct {
	Workers   int `yaml:"workers"`    // Number of worker goroutines (default: 4)
	QueueSize int `yaml:"queue_size"` // Event queue size (default: 100)
}

// GetWorkers returns worker count with default
func (c *EventBusConfig) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

// GetQueueSize returns queue size with default
func (c *EventBusConfig) GetQueueSize() int {
	if c.QueueSize <= 0 {
		return 100
	}
	return c.QueueSize
}

// EngineConfig is the synchronization configuration surface: source
// camera, target lights, input format, scales, apply mode, schedule and
// gate thresholds.
type EngineConfig struct {
	SourceCamera string   `yaml:"source_camera"`
	TargetLights []string `yaml:"target_lights"`

	InputFormat   string `yaml:"input_format"`
	HueScale      string `yaml:"hue_scale"`
	PercentScale  string `yaml:"percent_scale"`
	RGBScale      string `yaml:"rgb_scale"`
	ColorTempUnit string `yaml:"color_temp_unit"`
	ApplyMode     string `yaml:"apply_mode"`

	ActiveStart string   `yaml:"active_start"`
	ActiveEnd   string   `yaml:"active_end"`
	ActiveDays  []string `yaml:"active_days"`

	MinDelta     float64             `yaml:"min_delta"`
	DeltaWeights engine.DeltaWeights `yaml:"delta_weights"`
	RateLimitSec float64             `yaml:"rate_limit_sec"`

	BrightnessIsPercent bool `yaml:"brightness_is_percent"`
	StripSymbols        bool `yaml:"strip_symbols"`
}

// ValidationError reports an inconsistent configuration snapshot. It is
// raised at load or reconfigure time, never during evaluation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

var dayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// BuildEngine validates the engine section and produces the immutable
// snapshot the engine runs on.
func (c *EngineConfig) BuildEngine() (*engine.Config, error) {
	if len(c.TargetLights) == 0 {
		return nil, &ValidationError{Field: "target_lights", Reason: "at least one target light is required"}
	}

	inputFormat := color.Format(c.InputFormat)
	if !inputFormat.Valid() {
		return nil, &ValidationError{Field: "input_format", Reason: fmt.Sprintf("unknown format %q", c.InputFormat)}
	}
	applyMode := color.Format(c.ApplyMode)
	if !applyMode.Valid() {
		return nil, &ValidationError{Field: "apply_mode", Reason: fmt.Sprintf("unknown format %q", c.ApplyMode)}
	}

	hueScale := color.Scale(c.HueScale)
	if !hueScale.ValidFor(color.KindHue) {
		return nil, &ValidationError{Field: "hue_scale", Reason: fmt.Sprintf("invalid hue scale %q", c.HueScale)}
	}
	percentScale := color.Scale(c.PercentScale)
	if !percentScale.ValidFor(color.KindPercent) {
		return nil, &ValidationError{Field: "percent_scale", Reason: fmt.Sprintf("invalid percent scale %q", c.PercentScale)}
	}
	rgbScale := color.Scale(c.RGBScale)
	if rgbScale != color.ScaleAuto && rgbScale != color.Scale0to1 && rgbScale != color.Scale0to255 {
		return nil, &ValidationError{Field: "rgb_scale", Reason: fmt.Sprintf("invalid rgb scale %q", c.RGBScale)}
	}

	unit := color.TempUnit(c.ColorTempUnit)
	if unit != color.UnitKelvin && unit != color.UnitMireds {
		return nil, &ValidationError{Field: "color_temp_unit", Reason: fmt.Sprintf("must be kelvin or mireds, got %q", c.ColorTempUnit)}
	}

	window, err := c.buildWindow()
	if err != nil {
		return nil, err
	}

	if c.MinDelta < 0 {
		return nil, &ValidationError{Field: "min_delta", Reason: "must not be negative"}
	}
	if c.RateLimitSec < 0 {
		return nil, &ValidationError{Field: "rate_limit_sec", Reason: "must not be negative"}
	}
	if c.DeltaWeights.Chromaticity < 0 || c.DeltaWeights.Brightness < 0 {
		return nil, &ValidationError{Field: "delta_weights", Reason: "weights must not be negative"}
	}

	return &engine.Config{
		SourceCamera: c.SourceCamera,
		Targets:      append([]string(nil), c.TargetLights...),
		InputFormat:  inputFormat,
		Normalize: color.Options{
			HueScale:            hueScale,
			PercentScale:        percentScale,
			RGBScale:            rgbScale,
			ColorTempUnit:       unit,
			BrightnessIsPercent: c.BrightnessIsPercent,
		},
		ApplyMode:   applyMode,
		Window:      window,
		MinDelta:    c.MinDelta,
		Weights:     c.DeltaWeights,
		MinInterval: time.Duration(c.RateLimitSec * float64(time.Second)),
	}, nil
}

func (c *EngineConfig) buildWindow() (schedule.Window, error) {
	w := schedule.Always()

	hasStart := strings.TrimSpace(c.ActiveStart) != ""
	hasEnd := strings.TrimSpace(c.ActiveEnd) != ""
	if hasStart != hasEnd {
		return w, &ValidationError{Field: "active_start/active_end", Reason: "both must be set or both empty"}
	}

	if hasStart {
		start, err := schedule.ParseTimeOfDay(c.ActiveStart)
		if err != nil {
			return w, &ValidationError{Field: "active_start", Reason: err.Error()}
		}
		end, err := schedule.ParseTimeOfDay(c.ActiveEnd)
		if err != nil {
			return w, &ValidationError{Field: "active_end", Reason: err.Error()}
		}
		w.Start, w.End = &start, &end
	}

	if len(c.ActiveDays) > 0 {
		w.Days = make(map[time.Weekday]bool, len(c.ActiveDays))
		for _, name := range c.ActiveDays {
			day, ok := dayNames[strings.ToLower(strings.TrimSpace(name))]
			if !ok {
				return w, &ValidationError{Field: "active_days", Reason: fmt.Sprintf("unknown day %q", name)}
			}
			w.Days[day] = true
		}
	}

	return w, nil
}

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

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	// Validate the engine snapshot eagerly so a broken config fails at
	// startup rather than on the first reading.
	if _, err := cfg.Engine.BuildEngine(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./skysyncd.sqlite"
	}

	// MQTT defaults
	if cfg.MQTT.Topic == "" {
		cfg.MQTT.Topic = "skysync/reading"
	}
	if cfg.MQTT.ConnectTimeout == 0 {
		cfg.MQTT.ConnectTimeout = Duration(10 * time.Second)
	}

	// Hue defaults
	if cfg.Hue.Timeout == 0 {
		cfg.Hue.Timeout = Duration(10 * time.Second)
	}
	if cfg.Hue.RateLimitRPS == 0 {
		cfg.Hue.RateLimitRPS = 10.0 // 10 requests per second
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

	// General shutdown timeout
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = Duration(5 * time.Second)
	}

	// Engine defaults
	e := &cfg.Engine
	if e.InputFormat == "" {
		e.InputFormat = string(color.FormatXY)
	}
	if e.HueScale == "" {
		e.HueScale = string(color.ScaleAuto)
	}
	if e.PercentScale == "" {
		e.PercentScale = string(color.ScaleAuto)
	}
	if e.RGBScale == "" {
		e.RGBScale = string(color.ScaleAuto)
	}
	if e.ColorTempUnit == "" {
		e.ColorTempUnit = string(color.UnitKelvin)
	}
	if e.ApplyMode == "" {
		e.ApplyMode = string(color.FormatXY)
	}
	if e.DeltaWeights == (engine.DeltaWeights{}) {
		e.DeltaWeights = engine.DefaultDeltaWeights()
	}
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
