// Package config loads and persists the TOML application
// configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Detection holds the gesture-decision thresholds. The json tags serve
// the dashboard settings API, which accepts the same shape.
type Detection struct {
	// HandConfidence and FaceConfidence are passed through to the
	// landmark oracle; the core pipeline never reads them.
	HandConfidence float64 `toml:"hand_confidence" json:"hand_confidence"`
	FaceConfidence float64 `toml:"face_confidence" json:"face_confidence"`

	// RequiredDuration is how long the hand must stay near the head
	// before a trigger, in seconds.
	RequiredDuration float64 `toml:"required_duration" json:"required_duration"`

	// TriggerCooldown is the minimum time between triggers, in seconds.
	TriggerCooldown float64 `toml:"trigger_cooldown" json:"trigger_cooldown"`

	// MaxHeadDistance is the proximity radius in pixels.
	MaxHeadDistance float64 `toml:"max_head_distance" json:"max_head_distance"`

	// ContactRadius is the tight-contact radius used in full-head
	// mode, in pixels. Independent of MaxHeadDistance.
	ContactRadius float64 `toml:"contact_radius" json:"contact_radius"`

	// FullHeadDetection widens detection to the whole head.
	FullHeadDetection bool `toml:"full_head_detection" json:"full_head_detection"`
}

// Audio holds synthesis and cache settings.
type Audio struct {
	Language        string  `toml:"language"`
	UseTTS          bool    `toml:"use_tts"`
	TTSCacheLimitMB float64 `toml:"tts_cache_limit_mb"`
}

// Camera holds capture settings.
type Camera struct {
	Device int  `toml:"device"`
	Flip   bool `toml:"flip"`
}

// Server holds the dashboard listen address.
type Server struct {
	Addr string `toml:"addr"`
}

// Log holds logging settings.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full application configuration.
type Config struct {
	Detection Detection `toml:"detection"`
	Audio     Audio     `toml:"audio"`
	Camera    Camera    `toml:"camera"`
	Server    Server    `toml:"server"`
	Log       Log       `toml:"log"`
}

// Mode presets adjust detection sensitivity.
const (
	ModeStrict  = "strict"
	ModeNormal  = "normal"
	ModeRelaxed = "relaxed"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Detection: Detection{
			HandConfidence:    0.7,
			FaceConfidence:    0.5,
			RequiredDuration:  0.75,
			TriggerCooldown:   3,
			MaxHeadDistance:   100,
			ContactRadius:     40,
			FullHeadDetection: false,
		},
		Audio: Audio{
			Language:        "en",
			UseTTS:          true,
			TTSCacheLimitMB: 50,
		},
		Camera: Camera{Device: 0, Flip: true},
		Server: Server{Addr: ":8750"},
		Log:    Log{Level: "info", Format: "console"},
	}
}

// ApplyMode applies a sensitivity preset.
func (c *Config) ApplyMode(mode string) error {
	switch mode {
	case ModeStrict:
		c.Detection.RequiredDuration = 1.0
	case ModeNormal:
		c.Detection.RequiredDuration = Default().Detection.RequiredDuration
	case ModeRelaxed:
		c.Detection.RequiredDuration = 2.0
	default:
		return fmt.Errorf("config: unknown mode %q", mode)
	}
	return nil
}

// Load reads the config file, clamping out-of-range values. A missing
// or unreadable file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		// A corrupt file falls back to defaults rather than blocking
		// startup; the caller decides whether to rewrite it.
		return Default(), fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.clamp()
	return cfg, nil
}

// Save writes the config to path, creating parent directories.
func (c Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create dir: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Clamp forces the detection thresholds into their valid ranges,
// replacing nonsense values with the defaults. It runs on every config
// load and on thresholds arriving over the settings API.
func (d *Detection) Clamp() {
	def := Default().Detection

	d.HandConfidence = clampFloat(d.HandConfidence, 0, 1, def.HandConfidence)
	d.FaceConfidence = clampFloat(d.FaceConfidence, 0, 1, def.FaceConfidence)

	if d.RequiredDuration <= 0 {
		d.RequiredDuration = def.RequiredDuration
	}
	if d.TriggerCooldown < 0 {
		d.TriggerCooldown = 0
	}
	if d.MaxHeadDistance < 10 {
		d.MaxHeadDistance = def.MaxHeadDistance
	}
	if d.ContactRadius <= 0 {
		d.ContactRadius = def.ContactRadius
	}
}

// clamp forces every tunable into its valid range.
func (c *Config) clamp() {
	def := Default()

	c.Detection.Clamp()

	if c.Audio.TTSCacheLimitMB <= 0 {
		c.Audio.TTSCacheLimitMB = def.Audio.TTSCacheLimitMB
	}
	if c.Audio.Language == "" {
		c.Audio.Language = def.Audio.Language
	}

	if c.Camera.Device < 0 {
		c.Camera.Device = 0
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
}

func clampFloat(v, lo, hi, def float64) float64 {
	if v < lo || v > hi {
		return def
	}
	return v
}

// CacheLimitBytes converts the configured cache limit to bytes.
func (c Config) CacheLimitBytes() int64 {
	return int64(c.Audio.TTSCacheLimitMB * 1024 * 1024)
}
