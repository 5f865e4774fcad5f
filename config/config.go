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

	"github.com/kilianp07/chargecap/core/metrics"
	"github.com/kilianp07/chargecap/core/recommendation"
	"github.com/kilianp07/chargecap/core/tariff"
)

type Config struct {
	Tariff         tariff.Config         `json:"tariff"`
	Recommendation recommendation.Config `json:"recommendation"`
	Metrics        metrics.Config        `json:"metrics"`
	Logging        LoggingConfig         `json:"logging"`
	Sentry         SentryConfig          `json:"sentry"`
	API            APIConfig             `json:"api"`
	Forecast       ForecastConfig        `json:"forecast"`
}

// Load reads the configuration file at path, applies K_ prefixed environment
// overrides (K_API__ADDRESS sets api.address), fills defaults and validates
// the result. An empty path loads environment overrides only.
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
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("K_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with every section defaulted.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults fills unset fields in every section.
func (c *Config) SetDefaults() {
	c.Tariff.SetDefaults()
	c.Recommendation.SetDefaults()
	c.Logging.SetDefaults()
	c.API.SetDefaults()
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct tag validation then each section's own checks.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	checks := []struct {
		section string
		fn      func() error
	}{
		{"tariff", c.Tariff.Validate},
		{"recommendation", c.Recommendation.Validate},
		{"logging", c.Logging.Validate},
		{"sentry", c.Sentry.Validate},
		{"api", c.API.Validate},
		{"forecast", c.Forecast.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.section, err)
		}
	}
	for i, s := range c.Metrics.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics: sink %d has no type", i)
		}
	}
	return nil
}
