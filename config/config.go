package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/fleeteffects/core/metrics"
)

// Config holds the runtime options of an effects run.
type Config struct {
	Output      OutputConfig      `json:"output"`
	Logging     LoggingConfig     `json:"logging"`
	Sessions    SessionsConfig    `json:"sessions"`
	Region      string            `json:"region"`
	NetBenefits NetBenefitsConfig `json:"net_benefits"`
	Metrics     metrics.Config    `json:"metrics"`
	Sentry      SentryConfig      `json:"sentry"`
}

// EnvPrefix marks environment overrides, e.g. EFFECTS_OUTPUT__DIR.
const EnvPrefix = "EFFECTS_"

// Load reads a YAML or JSON options file. An empty path yields defaults plus
// environment overrides.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Output.SetDefaults()
	c.Logging.SetDefaults()
	c.Sessions.SetDefaults()
	c.NetBenefits.SetDefaults()
	if c.Region == "" {
		c.Region = "r1nonzev"
	}
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Output.Validate(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Sessions.Validate(); err != nil {
		return fmt.Errorf("sessions: %w", err)
	}
	if err := c.NetBenefits.Validate(); err != nil {
		return fmt.Errorf("net_benefits: %w", err)
	}
	return nil
}
