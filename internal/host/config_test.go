package host

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leandrodaf/vslpt/sdk/contracts"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"zero rate", func(c *Config) { c.SampleRate = 0 }, false},
		{"negative block", func(c *Config) { c.BlockSize = -1 }, false},
		{"negative device", func(c *Config) { c.OutputDevice = -1 }, false},
		{"negative buffer", func(c *Config) { c.Buffer = -1 }, false},
		{"tiny port", func(c *Config) { c.PortCapacity = 64 }, false},
		{"unknown level", func(c *Config) { c.LogLevel = "loud" }, false},
		{"debug level", func(c *Config) { c.LogLevel = "debug" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("err = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vslpt.json")
	if err := os.WriteFile(path, []byte(`{"blockSize": 128, "outputDevice": 2, "logLevel": "warn"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.BlockSize != 128 || cfg.OutputDevice != 2 || cfg.SampleRate != 48000 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Level() != contracts.WarnLevel {
		t.Fatalf("Level = %v, want WarnLevel", cfg.Level())
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vslpt.json")
	cfg := DefaultConfig()
	cfg.InputDevice = 4
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got != cfg {
		t.Fatalf("got %+v, want %+v", got, cfg)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file loaded")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(path, []byte("{"), 0o644)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("bad JSON loaded")
	}
}

func TestBlockDuration(t *testing.T) {
	cfg := Config{SampleRate: 48000, BlockSize: 480}
	if d := cfg.BlockDuration(); d != 10*time.Millisecond {
		t.Fatalf("BlockDuration = %v", d)
	}
}
