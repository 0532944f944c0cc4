// Package config loads server configuration from YAML with sensible
// defaults, so a bare binary runs without any file present.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultTransport    = "stdio"
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8385
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "json"
	DefaultSweepMax     = 1000
	DefaultMaxVariables = 200
)

// Config is the full server configuration.
type Config struct {
	Transport      string   `yaml:"transport"`
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"`
	SweepMaxPoints int      `yaml:"sweep_max_points"`
	MaxVariables   int      `yaml:"max_variables"`
	DefaultOutputs []string `yaml:"default_outputs"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Transport:      DefaultTransport,
		Host:           DefaultHost,
		Port:           DefaultPort,
		LogLevel:       DefaultLogLevel,
		LogFormat:      DefaultLogFormat,
		SweepMaxPoints: DefaultSweepMax,
		MaxVariables:   DefaultMaxVariables,
	}
}

// Load reads a YAML config file over the defaults; fields absent from the
// file keep their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to path as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values that would only fail later at serve time.
func (c *Config) Validate() error {
	switch c.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", c.Transport)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.SweepMaxPoints < 1 {
		return fmt.Errorf("sweep_max_points must be positive, got %d", c.SweepMaxPoints)
	}
	if c.MaxVariables < 1 {
		return fmt.Errorf("max_variables must be positive, got %d", c.MaxVariables)
	}
	return nil
}

// Addr returns the host:port listen address for the HTTP transport.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
