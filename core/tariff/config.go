package tariff

import (
	"fmt"
	"math"
)

const (
	DefaultBasicRate        = 8320.0
	DefaultOverageRate      = DefaultBasicRate * 1.5
	DefaultQuantizationStep = 10.0
	DefaultRiskWeight       = 10000.0
	DefaultMaxCandidates    = 10000
)

// Config holds the utility tariff schedule. Rates are expressed in currency
// per kW per month.
type Config struct {
	// BasicRate is the demand charge applied to the contracted capacity.
	BasicRate float64 `json:"basic_rate"`
	// OverageRate is the penalty charge applied to demand above the contract.
	// It must be higher than BasicRate.
	OverageRate float64 `json:"overage_rate"`
	// QuantizationStep is the granularity (kW) at which capacity can be bought.
	QuantizationStep float64 `json:"quantization_step"`
	// RiskWeight converts one point of overage probability into currency when
	// ranking candidate contracts. A nil value selects DefaultRiskWeight so
	// that 0 stays configurable.
	RiskWeight *float64 `json:"risk_weight"`
	// MaxCandidates bounds the number of contract levels searched per request.
	MaxCandidates int `json:"max_candidates"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.BasicRate == 0 {
		c.BasicRate = DefaultBasicRate
	}
	if c.OverageRate == 0 {
		c.OverageRate = c.BasicRate * 1.5
	}
	if c.QuantizationStep == 0 {
		c.QuantizationStep = DefaultQuantizationStep
	}
	if c.RiskWeight == nil {
		w := DefaultRiskWeight
		c.RiskWeight = &w
	}
	if c.MaxCandidates == 0 {
		c.MaxCandidates = DefaultMaxCandidates
	}
}

// Validate checks the tariff is self-consistent.
func (c Config) Validate() error {
	if c.BasicRate <= 0 {
		return fmt.Errorf("basic_rate must be positive")
	}
	if c.OverageRate <= c.BasicRate {
		return fmt.Errorf("overage_rate (%v) must exceed basic_rate (%v)", c.OverageRate, c.BasicRate)
	}
	if c.QuantizationStep <= 0 {
		return fmt.Errorf("quantization_step must be positive")
	}
	if w := c.PenaltyWeight(); w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return fmt.Errorf("risk_weight must be finite and not negative, got %v", w)
	}
	if c.MaxCandidates < 0 {
		return fmt.Errorf("max_candidates must not be negative")
	}
	return nil
}

// PenaltyWeight returns the configured risk weight.
func (c Config) PenaltyWeight() float64 {
	if c.RiskWeight == nil {
		return DefaultRiskWeight
	}
	return *c.RiskWeight
}

// CandidateLimit returns the configured candidate bound.
func (c Config) CandidateLimit() int {
	if c.MaxCandidates <= 0 {
		return DefaultMaxCandidates
	}
	return c.MaxCandidates
}

// DefaultConfig returns the default tariff.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}
