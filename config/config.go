// Package config loads the service configuration from a JSON or YAML file,
// with CARGOPLAN_-prefixed environment variables taking precedence.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/skyfreight/cargoplan/core/optimizer"
	"github.com/skyfreight/cargoplan/infra/metrics"
	"github.com/skyfreight/cargoplan/infra/notify"
)

const envPrefix = "CARGOPLAN_"

// Config is the root configuration of the planner.
type Config struct {
	DataDir   string           `json:"data_dir" yaml:"data_dir" validate:"required"`
	OutputDir string           `json:"output_dir" yaml:"output_dir" validate:"required"`
	Seed      int64            `json:"seed" yaml:"seed"`
	Strict    bool             `json:"strict_capacity" yaml:"strict_capacity"`
	API       APIConfig        `json:"api" yaml:"api"`
	GA        optimizer.Config `json:"ga" yaml:"ga"`
	Metrics   metrics.Config   `json:"metrics" yaml:"metrics"`
	Notify    notify.Config    `json:"notify" yaml:"notify"`
}

// APIConfig holds the HTTP server settings.
type APIConfig struct {
	Addr string `json:"addr" yaml:"addr" validate:"required"`
}

// SetDefaults fills the zero-value fields with working defaults.
func (c *Config) SetDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.OutputDir == "" {
		c.OutputDir = "outputs"
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.API.Addr == "" {
		c.API.Addr = ":8080"
	}
	c.GA.SetDefaults()
}

// Validate checks the configuration after defaults are applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Load reads the configuration file at path, overlays environment variables
// and applies defaults. An empty path loads defaults and environment only.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return Config{}, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	// Optional environment overrides
	if err := k.Load(env.Provider(envPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return json.Parser(), nil
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	}
	return nil, fmt.Errorf("unsupported config format %q", filepath.Ext(path))
}
