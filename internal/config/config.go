package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iburimskiy/leafdraft/internal/field"
)

const (
	WindowWidth  = 1024
	WindowHeight = 640
	WindowTitle  = "leafdraft"
	TicksPerSec  = 60

	DefaultPath        = "leafdraft.yaml"
	DefaultModel       = "gemini-2.5-flash"
	DefaultTemperature = 0.3
	DefaultTimeout     = "120s"
	DefaultSampleRate  = 44100
)

// Config holds all leafdraft configuration.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Field   FieldConfig   `yaml:"field"`
	Draft   DraftConfig   `yaml:"draft"`
	Audio   AudioConfig   `yaml:"audio"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig sizes the GUI window.
type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	TPS    int    `yaml:"tps"`
}

// FieldConfig tunes the leaf background.
type FieldConfig struct {
	Density             float64 `yaml:"density"`
	InfluenceRadius     float64 `yaml:"influence_radius"`
	WindDamping         float64 `yaml:"wind_damping"`
	PointerDamping      float64 `yaml:"pointer_damping"`
	RespawnMargin       float64 `yaml:"respawn_margin"`
	SpinIncrement       float64 `yaml:"spin_increment"`
	MaxTurbulence       float64 `yaml:"max_turbulence"`
	TurbulenceFrequency float64 `yaml:"turbulence_frequency"`
	PointerIdleTicks    int     `yaml:"pointer_idle_ticks"` // 0 keeps the last pointer sample forever
	Seed                uint64  `yaml:"seed"`               // 0 seeds from the clock
}

// DraftConfig configures the Gemini drafting client.
type DraftConfig struct {
	APIKey       string  `yaml:"api_key"`
	Model        string  `yaml:"model"`
	Temperature  float32 `yaml:"temperature"`
	Timeout      string  `yaml:"timeout"`
	GoogleSearch bool    `yaml:"google_search"`
}

// AudioConfig configures the ambient wind sound.
type AudioConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Volume     float64 `yaml:"volume"` // 0..1
	SampleRate int     `yaml:"sample_rate"`
	Sample     string  `yaml:"sample"` // optional wav, mp3 or flac loop
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	d := field.DefaultParams()
	return &Config{
		Window: WindowConfig{
			Width:  WindowWidth,
			Height: WindowHeight,
			Title:  WindowTitle,
			TPS:    TicksPerSec,
		},
		Field: FieldConfig{
			Density:             d.Density,
			InfluenceRadius:     d.InfluenceRadius,
			WindDamping:         d.WindDamping,
			PointerDamping:      d.PointerDamping,
			RespawnMargin:       d.RespawnMargin,
			SpinIncrement:       d.SpinIncrement,
			MaxTurbulence:       d.MaxTurbulence,
			TurbulenceFrequency: d.TurbulenceFrequency,
		},
		Draft: DraftConfig{
			Model:        DefaultModel,
			Temperature:  DefaultTemperature,
			Timeout:      DefaultTimeout,
			GoogleSearch: true,
		},
		Audio: AudioConfig{
			Volume:     0.4,
			SampleRate: DefaultSampleRate,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.Draft.APIKey = key
	}
	if model := os.Getenv("LEAFDRAFT_MODEL"); model != "" {
		c.Draft.Model = model
	}
	if level := os.Getenv("LEAFDRAFT_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
}

// Validate rejects values the app cannot run with. The API key is checked
// by the drafting client, so the GUI still starts without one.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size must be positive, got %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Window.TPS <= 0 {
		return fmt.Errorf("window tps must be positive, got %d", c.Window.TPS)
	}
	if c.Field.Density <= 0 {
		return fmt.Errorf("field density must be positive, got %v", c.Field.Density)
	}
	if c.Field.PointerIdleTicks < 0 {
		return fmt.Errorf("field pointer_idle_ticks must not be negative, got %d", c.Field.PointerIdleTicks)
	}
	if _, err := c.Draft.TimeoutDuration(); err != nil {
		return err
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 1 {
		return fmt.Errorf("audio volume must be within [0,1], got %v", c.Audio.Volume)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Logging.Level)
	}
	return nil
}

// Params converts the field section into simulator tuning.
func (f FieldConfig) Params() field.Params {
	return field.Params{
		Density:             f.Density,
		InfluenceRadius:     f.InfluenceRadius,
		WindDamping:         f.WindDamping,
		PointerDamping:      f.PointerDamping,
		RespawnMargin:       f.RespawnMargin,
		SpinIncrement:       f.SpinIncrement,
		MaxTurbulence:       f.MaxTurbulence,
		TurbulenceFrequency: f.TurbulenceFrequency,
		PointerIdleTicks:    f.PointerIdleTicks,
		Seed:                f.Seed,
	}
}

// TimeoutDuration parses Timeout. An empty value means no timeout.
func (d DraftConfig) TimeoutDuration() (time.Duration, error) {
	if d.Timeout == "" {
		return 0, nil
	}
	v, err := time.ParseDuration(d.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid draft timeout %q: %w", d.Timeout, err)
	}
	return v, nil
}
