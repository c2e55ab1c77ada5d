package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

const (
	DefaultModel     = "ball"
	DefaultDuration  = 3.0
	DefaultRTol      = 1e-10
	DefaultATol      = 1e-12
	DefaultXTol      = 1e-12
	DefaultFrameRate = 30
	DefaultAddr      = "localhost:8173"
)

// Config holds the run configuration shared by the CLI commands.
type Config struct {
	Model     string  `yaml:"model"`
	Duration  float64 `yaml:"duration"`
	RTol      float64 `yaml:"rtol"`
	ATol      float64 `yaml:"atol"`
	XTol      float64 `yaml:"xtol"`
	MaxStep   float64 `yaml:"max_step"`
	FrameRate int     `yaml:"frame_rate"`
	Addr      string  `yaml:"addr"`
}

func DefaultConfig() *Config {
	return &Config{
		Model:     DefaultModel,
		Duration:  DefaultDuration,
		RTol:      DefaultRTol,
		ATol:      DefaultATol,
		XTol:      DefaultXTol,
		FrameRate: DefaultFrameRate,
		Addr:      DefaultAddr,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
