package model

import (
	"fmt"
	"strings"
	"time"
)

// Candidate is one contract level evaluated against the whole forecast
// distribution.
type Candidate struct {
	ContractKW         float64 `json:"contract_kw"`
	ExpectedAnnualCost float64 `json:"expected_annual_cost"`
	OverageProbability float64 `json:"overage_probability"` // percent
	WasteProbability   float64 `json:"waste_probability"`   // percent
	Score              float64 `json:"score"`
}

// OptimizationResult is the output of a single optimizer run.
type OptimizationResult struct {
	OptimalContractKW    float64     `json:"optimal_contract_kw"`
	CurrentContractKW    float64     `json:"current_contract_kw"`
	ExpectedAnnualCost   float64     `json:"expected_annual_cost"`
	ExpectedSavings      float64     `json:"expected_savings"`
	SavingsPercent       float64     `json:"savings_percent"`
	OverageProbability   float64     `json:"overage_probability"`
	WasteProbability     float64     `json:"waste_probability"`
	ConfidenceLevel      float64     `json:"confidence_level"`
	RiskTolerance        float64     `json:"risk_tolerance"`
	AllCandidates        []Candidate `json:"all_candidates"`
	RecommendationReason string      `json:"recommendation_reason"`
}

// Candidate returns the evaluated candidate for the given contract level.
func (r OptimizationResult) Candidate(contractKW float64) (Candidate, bool) {
	for _, c := range r.AllCandidates {
		if c.ContractKW == contractKW {
			return c, true
		}
	}
	return Candidate{}, false
}

// Urgency ranks how quickly a recommendation should be acted upon.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// Rank returns the position of the urgency in the low < medium < high order.
// Unknown values rank below low.
func (u Urgency) Rank() int {
	switch u {
	case UrgencyLow:
		return 1
	case UrgencyMedium:
		return 2
	case UrgencyHigh:
		return 3
	default:
		return 0
	}
}

// ParseUrgency converts a case-insensitive name into an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	u := Urgency(strings.ToLower(strings.TrimSpace(s)))
	if u.Rank() == 0 {
		return "", fmt.Errorf("%w: unknown urgency %q", ErrInvalidInput, s)
	}
	return u, nil
}

// Recommendation is the business-facing decision for one station.
type Recommendation struct {
	StationID                 string      `json:"station_id"`
	AnalysisDate              time.Time   `json:"analysis_date"`
	RecommendedContractKW     float64     `json:"recommended_contract_kw"`
	CurrentContractKW         float64     `json:"current_contract_kw"`
	ExpectedAnnualCost        float64     `json:"expected_annual_cost"`
	ExpectedAnnualSavings     float64     `json:"expected_annual_savings"`
	SavingsPercent            float64     `json:"savings_percent"`
	PredictedPeakP50          float64     `json:"predicted_peak_p50"`
	PredictedPeakP95          float64     `json:"predicted_peak_p95"`
	OverageProbability        float64     `json:"overage_probability"`
	WasteProbability          float64     `json:"waste_probability"`
	CurrentOverageProbability float64     `json:"current_overage_probability"`
	ConfidenceLevel           float64     `json:"confidence_level"`
	RiskTolerance             float64     `json:"risk_tolerance"`
	ActionRequired            bool        `json:"action_required"`
	UrgencyLevel              Urgency     `json:"urgency_level"`
	Reason                    string      `json:"reason"`
	DetailedReasoning         []string    `json:"detailed_reasoning"`
	Candidates                []Candidate `json:"candidates"`
}
