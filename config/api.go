package config

import (
	"fmt"
	"time"
)

// APIConfig configures the HTTP listener.
type APIConfig struct {
	Address            string `json:"address"`
	ReadTimeoutSeconds int    `json:"read_timeout_seconds" validate:"gte=0"`
	// MaxSamples bounds the size of a prediction distribution accepted per request.
	MaxSamples int `json:"max_samples" validate:"gte=0"`
}

const (
	DefaultAPIAddress  = ":8080"
	defaultReadTimeout = 10
	DefaultMaxSamples  = 100_000
)

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = DefaultAPIAddress
	}
	if c.ReadTimeoutSeconds == 0 {
		c.ReadTimeoutSeconds = defaultReadTimeout
	}
	if c.MaxSamples == 0 {
		c.MaxSamples = DefaultMaxSamples
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("address is required")
	}
	if c.ReadTimeoutSeconds <= 0 {
		return fmt.Errorf("read_timeout_seconds must be positive")
	}
	return nil
}

// ReadTimeout returns the request read timeout.
func (c APIConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutSeconds) * time.Second
}
