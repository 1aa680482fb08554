package host

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/leandrodaf/vslpt/sdk/contracts"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid host config")

// Config drives the live host.
type Config struct {
	SampleRate   float64 `json:"sampleRate"`
	BlockSize    int     `json:"blockSize"`
	InputDevice  int     `json:"inputDevice"`
	OutputDevice int     `json:"outputDevice"`
	// Buffer is the capacity of the capture channel in messages.
	Buffer int `json:"buffer,omitempty"`
	// PortCapacity is the byte size of each atom sequence port.
	PortCapacity int    `json:"portCapacity,omitempty"`
	LogLevel     string `json:"logLevel,omitempty"`
	LogFile      string `json:"logFile,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() Config {
	return Config{
		SampleRate:   48000,
		BlockSize:    256,
		Buffer:       1024,
		PortCapacity: 1 << 16,
		LogLevel:     "info",
	}
}

// LoadConfig reads a JSON config on top of the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config as indented JSON.
func (c Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the config before any device is opened.
func (c Config) Validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate %v", ErrInvalidConfig, c.SampleRate)
	case c.BlockSize <= 0:
		return fmt.Errorf("%w: block size %d", ErrInvalidConfig, c.BlockSize)
	case c.InputDevice < 0 || c.OutputDevice < 0:
		return fmt.Errorf("%w: device ids must not be negative", ErrInvalidConfig)
	case c.Buffer < 0:
		return fmt.Errorf("%w: buffer %d", ErrInvalidConfig, c.Buffer)
	case c.PortCapacity != 0 && c.PortCapacity < 1024:
		return fmt.Errorf("%w: port capacity %d is below 1024 bytes", ErrInvalidConfig, c.PortCapacity)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return nil
}

// BlockDuration is the wall-clock length of one block.
func (c Config) BlockDuration() time.Duration {
	return time.Duration(float64(c.BlockSize) / c.SampleRate * float64(time.Second))
}

// Level maps LogLevel onto the logger's levels; unknown names mean info.
func (c Config) Level() contracts.LogLevel {
	switch c.LogLevel {
	case "debug":
		return contracts.DebugLevel
	case "warn":
		return contracts.WarnLevel
	case "error":
		return contracts.ErrorLevel
	case "fatal":
		return contracts.FatalLevel
	}
	return contracts.InfoLevel
}
