package recommendation

import "fmt"

const (
	DefaultRiskTolerance          = 0.5
	DefaultSafetyOverageThreshold = 5.0
	DefaultHighOverageThreshold   = 20.0
	DefaultHighSavingsThreshold   = 1_000_000.0
)

// Config holds the decision thresholds of the engine. Probability thresholds
// are percentages; HighSavingsThreshold is an annual currency amount.
type Config struct {
	// RiskTolerance is used when the caller does not supply one. A nil value
	// selects DefaultRiskTolerance so that 0 stays configurable.
	RiskTolerance          *float64 `json:"risk_tolerance"`
	SafetyOverageThreshold float64  `json:"safety_overage_threshold"`
	HighOverageThreshold   float64  `json:"high_overage_threshold"`
	HighSavingsThreshold   float64  `json:"high_savings_threshold"`
}

// SetDefaults fills unset thresholds.
func (c *Config) SetDefaults() {
	if c.RiskTolerance == nil {
		rt := DefaultRiskTolerance
		c.RiskTolerance = &rt
	}
	if c.SafetyOverageThreshold == 0 {
		c.SafetyOverageThreshold = DefaultSafetyOverageThreshold
	}
	if c.HighOverageThreshold == 0 {
		c.HighOverageThreshold = DefaultHighOverageThreshold
	}
	if c.HighSavingsThreshold == 0 {
		c.HighSavingsThreshold = DefaultHighSavingsThreshold
	}
}

// Validate checks threshold ranges.
func (c Config) Validate() error {
	if rt := c.DefaultRisk(); rt < 0 || rt > 1 {
		return fmt.Errorf("risk_tolerance must be within [0,1], got %v", rt)
	}
	if c.SafetyOverageThreshold < 0 || c.SafetyOverageThreshold > 100 {
		return fmt.Errorf("safety_overage_threshold must be a percentage")
	}
	if c.HighOverageThreshold < c.SafetyOverageThreshold || c.HighOverageThreshold > 100 {
		return fmt.Errorf("high_overage_threshold must lie between safety_overage_threshold and 100")
	}
	if c.HighSavingsThreshold < 0 {
		return fmt.Errorf("high_savings_threshold must not be negative")
	}
	return nil
}

// DefaultRisk returns the configured default risk tolerance.
func (c Config) DefaultRisk() float64 {
	if c.RiskTolerance == nil {
		return DefaultRiskTolerance
	}
	return *c.RiskTolerance
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}
