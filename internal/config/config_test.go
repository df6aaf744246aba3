package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "config.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def := Default()
	if cfg != def {
		t.Errorf("expected defaults for missing file, got %+v", cfg)
	}
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := Default()
	cfg.Detection.RequiredDuration = 1.5
	cfg.Detection.FullHeadDetection = true
	cfg.Audio.TTSCacheLimitMB = 25
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded != cfg {
		t.Errorf("round trip mismatch:\nsaved  %+v\nloaded %+v", cfg, loaded)
	}
}

func TestLoad_ClampsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	raw := `
[detection]
hand_confidence = 7.5
required_duration = -1.0
trigger_cooldown = -3.0
max_head_distance = 2.0

[audio]
tts_cache_limit_mb = -10.0
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	def := Default()
	if cfg.Detection.HandConfidence != def.Detection.HandConfidence {
		t.Errorf("hand confidence not clamped: %f", cfg.Detection.HandConfidence)
	}
	if cfg.Detection.RequiredDuration != def.Detection.RequiredDuration {
		t.Errorf("required duration not clamped: %f", cfg.Detection.RequiredDuration)
	}
	if cfg.Detection.TriggerCooldown != 0 {
		t.Errorf("negative cooldown should clamp to zero, got %f", cfg.Detection.TriggerCooldown)
	}
	if cfg.Detection.MaxHeadDistance != def.Detection.MaxHeadDistance {
		t.Errorf("max head distance not clamped: %f", cfg.Detection.MaxHeadDistance)
	}
	if cfg.Audio.TTSCacheLimitMB != def.Audio.TTSCacheLimitMB {
		t.Errorf("cache limit not clamped: %f", cfg.Audio.TTSCacheLimitMB)
	}
}

func TestDetectionClamp(t *testing.T) {
	d := Detection{
		HandConfidence:   -1,
		FaceConfidence:   0.6,
		RequiredDuration: 0,
		TriggerCooldown:  -2,
		MaxHeadDistance:  5,
		ContactRadius:    -1,
	}
	d.Clamp()

	def := Default().Detection
	if d.HandConfidence != def.HandConfidence {
		t.Errorf("hand confidence = %f, want default", d.HandConfidence)
	}
	if d.FaceConfidence != 0.6 {
		t.Errorf("valid face confidence changed: %f", d.FaceConfidence)
	}
	if d.RequiredDuration != def.RequiredDuration {
		t.Errorf("required duration = %f, want default", d.RequiredDuration)
	}
	if d.TriggerCooldown != 0 {
		t.Errorf("cooldown = %f, want 0", d.TriggerCooldown)
	}
	if d.MaxHeadDistance != def.MaxHeadDistance {
		t.Errorf("max head distance = %f, want default", d.MaxHeadDistance)
	}
	if d.ContactRadius != def.ContactRadius {
		t.Errorf("contact radius = %f, want default", d.ContactRadius)
	}
}

func TestLoad_CorruptFileFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("{not toml"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err == nil {
		t.Error("expected a parse error for a corrupt file")
	}
	if cfg != Default() {
		t.Error("corrupt file should fall back to defaults")
	}
}

func TestApplyMode(t *testing.T) {
	cfg := Default()

	if err := cfg.ApplyMode(ModeRelaxed); err != nil {
		t.Fatalf("relaxed: %v", err)
	}
	if cfg.Detection.RequiredDuration != 2.0 {
		t.Errorf("relaxed duration = %f, want 2.0", cfg.Detection.RequiredDuration)
	}

	if err := cfg.ApplyMode(ModeStrict); err != nil {
		t.Fatalf("strict: %v", err)
	}
	if cfg.Detection.RequiredDuration != 1.0 {
		t.Errorf("strict duration = %f, want 1.0", cfg.Detection.RequiredDuration)
	}

	if err := cfg.ApplyMode("bogus"); err == nil {
		t.Error("expected an error for an unknown mode")
	}
}

func TestCacheLimitBytes(t *testing.T) {
	cfg := Default()
	cfg.Audio.TTSCacheLimitMB = 10
	if got := cfg.CacheLimitBytes(); got != 10*1024*1024 {
		t.Errorf("CacheLimitBytes = %d, want %d", got, 10*1024*1024)
	}
}
