// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v2"

	"radiohal-go/hal"
	"radiohal-go/x/mathx"
)

// Config selects the HAL backend and its wiring for the pinshell tool.
type Config struct {
	Backend string     `yaml:"backend"` // "pi" or "sim"
	SPI     SPIConfig  `yaml:"spi"`
	Pins    PinsConfig `yaml:"pins"`
	Log     LogConfig  `yaml:"log"`
}

// SPIConfig holds SPI session settings.
type SPIConfig struct {
	Path    string `yaml:"path"`
	SpeedHz int64  `yaml:"speedHz"`
}

// PinsConfig names the control lines by BCM number. -1 means not wired.
type PinsConfig struct {
	Enable int `yaml:"enable"`
	CE     int `yaml:"ce"`
	CS     int `yaml:"cs"`
	IRQ    int `yaml:"irq"`
}

// LogConfig holds event log rotation settings.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"maxSizeMb"`
	MaxBackups int    `yaml:"maxBackups"`
}

// Load builds the configuration from defaults, an optional YAML file and
// environment variable overrides, then validates it.
func Load(path string) (*Config, error) {
	cfg := getDefaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func getDefaultConfig() *Config {
	return &Config{
		Backend: "sim",
		SPI: SPIConfig{
			Path:    "/dev/spidev0.0",
			SpeedHz: 2_000_000,
		},
		Pins: PinsConfig{
			Enable: 18, // Waveshare hat radio-enable line
			CE:     25,
			CS:     8,
			IRQ:    24,
		},
		Log: LogConfig{
			File:       "pinshell.log",
			MaxSizeMB:  5,
			MaxBackups: 3,
		},
	}
}

func loadFromFile(cfg *Config, filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func applyEnvOverrides(cfg *Config) {
	if backend := os.Getenv("RADIOHAL_BACKEND"); backend != "" {
		cfg.Backend = backend
	}
	if path := os.Getenv("RADIOHAL_SPI_PATH"); path != "" {
		cfg.SPI.Path = path
	}
	if hz := os.Getenv("RADIOHAL_SPI_HZ"); hz != "" {
		if v, err := strconv.ParseInt(hz, 10, 64); err == nil {
			cfg.SPI.SpeedHz = v
		}
	}
	if file := os.Getenv("RADIOHAL_LOG_FILE"); file != "" {
		cfg.Log.File = file
	}
}

func validate(cfg *Config) error {
	if cfg.Backend != "pi" && cfg.Backend != "sim" {
		return fmt.Errorf("invalid backend %q, must be pi or sim", cfg.Backend)
	}
	if cfg.SPI.SpeedHz <= 0 {
		return fmt.Errorf("invalid spi speed %d", cfg.SPI.SpeedHz)
	}
	for _, p := range []struct {
		name string
		num  int
	}{
		{"enable", cfg.Pins.Enable},
		{"ce", cfg.Pins.CE},
		{"cs", cfg.Pins.CS},
		{"irq", cfg.Pins.IRQ},
	} {
		if p.num >= 0 && !mathx.Between(p.num, 0, hal.MaxUserPin) {
			return fmt.Errorf("pin %s=%d out of range 0..%d", p.name, p.num, hal.MaxUserPin)
		}
	}
	cfg.Log.MaxSizeMB = mathx.Clamp(cfg.Log.MaxSizeMB, 1, 100)
	cfg.Log.MaxBackups = mathx.Clamp(cfg.Log.MaxBackups, 0, 20)
	return nil
}

// Pin converts a configured pin number to a HAL pin, mapping unwired (-1)
// to the NC sentinel.
func Pin(num int) uint32 {
	if num < 0 {
		return hal.NC
	}
	return uint32(num)
}
