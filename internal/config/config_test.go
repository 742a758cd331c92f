package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huerizon/skysyncd/internal/color"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const minimalConfig = `
mqtt:
  broker: tcp://localhost:1883
hue:
  bridge: http://192.168.1.10
  token: secret
engine:
  target_lights: ["1", "2"]
`

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.MQTT.Topic != "skysync/reading" {
		t.Errorf("mqtt topic = %q, want skysync/reading", cfg.MQTT.Topic)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q, want info", cfg.Log.Level)
	}
	if cfg.Database.Path != "./skysyncd.sqlite" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Engine.InputFormat != string(color.FormatXY) {
		t.Errorf("input_format = %q, want xy", cfg.Engine.InputFormat)
	}
	if cfg.Engine.ColorTempUnit != string(color.UnitKelvin) {
		t.Errorf("color_temp_unit = %q, want kelvin", cfg.Engine.ColorTempUnit)
	}
	if cfg.Engine.DeltaWeights.Chromaticity != 1 || cfg.Engine.DeltaWeights.Brightness != 1 {
		t.Errorf("delta_weights = %+v, want 1/1", cfg.Engine.DeltaWeights)
	}
	if cfg.ShutdownTimeout.Duration() != 5*time.Second {
		t.Errorf("shutdown_timeout = %v", cfg.ShutdownTimeout.Duration())
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("SKYSYNC_TOKEN", "from-env")

	cfg, err := Load(writeConfig(t, `
mqtt:
  broker: ${SKYSYNC_BROKER:tcp://fallback:1883}
hue:
  bridge: http://192.168.1.10
  token: ${SKYSYNC_TOKEN}
engine:
  target_lights: ["1"]
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.Hue.Token != "from-env" {
		t.Errorf("token = %q, want from-env", cfg.Hue.Token)
	}
	if cfg.MQTT.Broker != "tcp://fallback:1883" {
		t.Errorf("broker = %q, want default fallback", cfg.MQTT.Broker)
	}
}

func TestBuildEngine_FullSection(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
engine:
  source_camera: camera.backyard
  target_lights: ["1", "7"]
  input_format: hs
  hue_scale: 0_360
  percent_scale: 0_100
  color_temp_unit: mireds
  apply_mode: color_temp
  active_start: "18:00"
  active_end: "23:30"
  active_days: [mon, tue, Friday]
  min_delta: 0.02
  delta_weights:
    chromaticity: 2.0
    brightness: 0.5
  rate_limit_sec: 30
`))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	eng, err := cfg.Engine.BuildEngine()
	if err != nil {
		t.Fatalf("BuildEngine error: %v", err)
	}
	if eng.InputFormat != color.FormatHS || eng.ApplyMode != color.FormatColorTemp {
		t.Errorf("formats = %s/%s", eng.InputFormat, eng.ApplyMode)
	}
	if eng.Normalize.ColorTempUnit != color.UnitMireds {
		t.Errorf("temp unit = %s, want mireds", eng.Normalize.ColorTempUnit)
	}
	if eng.MinInterval != 30*time.Second {
		t.Errorf("min interval = %v, want 30s", eng.MinInterval)
	}
	if eng.Weights.Chromaticity != 2.0 || eng.Weights.Brightness != 0.5 {
		t.Errorf("weights = %+v", eng.Weights)
	}
	if len(eng.Window.Days) != 3 || !eng.Window.Days[time.Friday] {
		t.Errorf("days = %v", eng.Window.Days)
	}

	// Friday 20:00 is inside the window, Wednesday 20:00 is not.
	friday := time.Date(2026, 8, 28, 20, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, 8, 26, 20, 0, 0, 0, time.UTC)
	if !eng.Window.IsActive(friday) {
		t.Error("friday evening should be active")
	}
	if eng.Window.IsActive(wednesday) {
		t.Error("wednesday is not an active day")
	}
}

func TestBuildEngine_Validation(t *testing.T) {
	base := func() EngineConfig {
		return EngineConfig{
			TargetLights:  []string{"1"},
			InputFormat:   "xy",
			HueScale:      "auto",
			PercentScale:  "auto",
			RGBScale:      "auto",
			ColorTempUnit: "kelvin",
			ApplyMode:     "xy",
		}
	}

	cases := []struct {
		name   string
		mutate func(*EngineConfig)
		field  string
	}{
		{"no targets", func(c *EngineConfig) { c.TargetLights = nil }, "target_lights"},
		{"bad input format", func(c *EngineConfig) { c.InputFormat = "hsv" }, "input_format"},
		{"bad apply mode", func(c *EngineConfig) { c.ApplyMode = "cmyk" }, "apply_mode"},
		{"hue scale not for hue", func(c *EngineConfig) { c.HueScale = "0_100" }, "hue_scale"},
		{"percent scale not for percent", func(c *EngineConfig) { c.PercentScale = "0_360" }, "percent_scale"},
		{"bad temp unit", func(c *EngineConfig) { c.ColorTempUnit = "celsius" }, "color_temp_unit"},
		{"end without start", func(c *EngineConfig) { c.ActiveEnd = "23:00" }, "active_start/active_end"},
		{"start without end", func(c *EngineConfig) { c.ActiveStart = "18:00" }, "active_start/active_end"},
		{"unparseable start", func(c *EngineConfig) { c.ActiveStart = "25:99"; c.ActiveEnd = "23:00" }, "active_start"},
		{"unknown day", func(c *EngineConfig) { c.ActiveDays = []string{"funday"} }, "active_days"},
		{"negative min_delta", func(c *EngineConfig) { c.MinDelta = -0.1 }, "min_delta"},
		{"negative rate limit", func(c *EngineConfig) { c.RateLimitSec = -1 }, "rate_limit_sec"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)
			_, err := c.BuildEngine()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if verr.Field != tc.field {
				t.Errorf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}
}

func TestLoad_RejectsBrokenEngineSection(t *testing.T) {
	_, err := Load(writeConfig(t, `
engine:
  target_lights: ["1"]
  active_end: "23:00"
`))
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError at load time", err)
	}
}
