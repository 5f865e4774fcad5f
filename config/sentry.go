package config

import "fmt"

// SentryConfig defines settings for Sentry error monitoring.
type SentryConfig struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate" validate:"gte=0,lte=1"`
	Release          string  `json:"release"`
	ServerName       string  `json:"server_name"`
}

// Validate checks the sample rate.
func (s SentryConfig) Validate() error {
	if s.TracesSampleRate < 0 || s.TracesSampleRate > 1 {
		return fmt.Errorf("sentry.traces_sample_rate must be within [0,1]")
	}
	return nil
}
