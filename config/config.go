// Package config loads the YAML configuration the demo CLI and the
// simulated-hardware backends use: which ADC backend to drive, the
// ring buffer size, and the starting mode.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Backend names accepted in the "backend" field.
const (
	BackendFake   = "fake"
	BackendMic    = "mic"
	BackendGPIO   = "gpio"
	BackendSerial = "serial"
)

// Mode names accepted in the "mode" field.
const (
	ModeConditioned = "conditioned"
	ModeRaw         = "raw"
	ModeRawData     = "raw_data"
)

// Config is the root of neug.yaml.
type Config struct {
	Backend  string `yaml:"backend"`
	Mode     string `yaml:"mode"`
	RingSize int    `yaml:"ring_size"`
	DeviceID string `yaml:"device_id,omitempty"` // hex, optional; falls back to the host identifier

	Mic    MicConfig    `yaml:"mic,omitempty"`
	GPIO   GPIOConfig   `yaml:"gpio,omitempty"`
	Serial SerialConfig `yaml:"serial,omitempty"`
}

type MicConfig struct {
	SampleRate float64 `yaml:"sample_rate"`
}

type GPIOConfig struct {
	Chip      string `yaml:"chip"`
	Offset    int    `yaml:"offset"`
	LEDChip   string `yaml:"led_chip,omitempty"`
	LEDOffset int    `yaml:"led_offset,omitempty"`
}

type SerialConfig struct {
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

// Default returns the configuration used when no config file is given:
// the deterministic fake backend, conditioned mode, and an 8-word ring.
func Default() Config {
	return Config{
		Backend:  BackendFake,
		Mode:     ModeConditioned,
		RingSize: 8,
	}
}

// Load reads and validates a neug.yaml file at path.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendFake, BackendMic, BackendGPIO, BackendSerial:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.Mode {
	case ModeConditioned, ModeRaw, ModeRawData:
	default:
		return fmt.Errorf("unknown mode %q", c.Mode)
	}
	if c.RingSize <= 0 || c.RingSize > 255 {
		return fmt.Errorf("ring_size %d out of range (1-255)", c.RingSize)
	}
	if c.Backend == BackendSerial && c.Serial.Device == "" {
		return fmt.Errorf("serial backend requires serial.device")
	}
	if c.Backend == BackendGPIO && c.GPIO.Chip == "" {
		return fmt.Errorf("gpio backend requires gpio.chip")
	}
	return nil
}
