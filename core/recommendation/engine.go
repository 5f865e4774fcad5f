// Package recommendation turns optimizer output into a business decision:
// peak percentiles, whether action is required, how urgent it is and an
// ordered list of reasoning statements.
package recommendation

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/kilianp07/chargecap/core/model"
	"github.com/kilianp07/chargecap/core/optimizer"
	"github.com/kilianp07/chargecap/internal/textfmt"
)

// Engine produces recommendations. It is safe for concurrent use.
type Engine struct {
	opt *optimizer.Optimizer
	cfg Config
	now func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithClock sets the clock used for AnalysisDate.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// NewEngine validates cfg and returns an Engine.
func NewEngine(opt *optimizer.Optimizer, cfg Config, opts ...Option) (*Engine, error) {
	if opt == nil {
		return nil, fmt.Errorf("recommendation: optimizer is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommendation: %w", err)
	}
	e := &Engine{opt: opt, cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Optimizer returns the optimizer backing the engine.
func (e *Engine) Optimizer() *optimizer.Optimizer { return e.opt }

// Generate builds a recommendation with the configured default risk tolerance.
func (e *Engine) Generate(stationID string, dist []float64, currentKW float64) (model.Recommendation, error) {
	return e.GenerateWithRisk(stationID, dist, currentKW, e.cfg.DefaultRisk())
}

// GenerateWithRisk builds a recommendation with an explicit risk tolerance.
func (e *Engine) GenerateWithRisk(stationID string, dist []float64, currentKW, riskTolerance float64) (model.Recommendation, error) {
	if strings.TrimSpace(stationID) == "" {
		return model.Recommendation{}, fmt.Errorf("%w: station_id is required", model.ErrInvalidInput)
	}
	res, err := e.opt.Optimize(dist, currentKW, riskTolerance)
	if err != nil {
		return model.Recommendation{}, err
	}

	sorted := sortedCopy(dist)
	p50 := Percentile(sorted, 50)
	p95 := Percentile(sorted, 95)
	curOverage := overageAt(res.AllCandidates, currentKW)

	action := math.Abs(res.OptimalContractKW-currentKW) >= e.opt.Step() ||
		curOverage > e.cfg.SafetyOverageThreshold
	urgency := model.UrgencyLow
	switch {
	case curOverage > e.cfg.HighOverageThreshold || res.ExpectedSavings > e.cfg.HighSavingsThreshold:
		urgency = model.UrgencyHigh
	case action:
		urgency = model.UrgencyMedium
	}

	rec := model.Recommendation{
		StationID:                 stationID,
		AnalysisDate:              e.now(),
		RecommendedContractKW:     res.OptimalContractKW,
		CurrentContractKW:         currentKW,
		ExpectedAnnualCost:        res.ExpectedAnnualCost,
		ExpectedAnnualSavings:     res.ExpectedSavings,
		SavingsPercent:            res.SavingsPercent,
		PredictedPeakP50:          p50,
		PredictedPeakP95:          p95,
		OverageProbability:        res.OverageProbability,
		WasteProbability:          res.WasteProbability,
		CurrentOverageProbability: curOverage,
		ConfidenceLevel:           res.ConfidenceLevel,
		RiskTolerance:             riskTolerance,
		ActionRequired:            action,
		UrgencyLevel:              urgency,
		Reason:                    res.RecommendationReason,
		Candidates:                res.AllCandidates,
	}
	rec.DetailedReasoning = reasoning(rec)
	return rec, nil
}

// overageAt returns the overage probability of the candidate matching kw,
// interpolating linearly between neighbours when kw is not a candidate and
// clamping beyond the ends.
func overageAt(cands []model.Candidate, kw float64) float64 {
	if len(cands) == 0 {
		return 0
	}
	for i, c := range cands {
		if c.ContractKW == kw {
			return c.OverageProbability
		}
		if c.ContractKW > kw {
			if i == 0 {
				return c.OverageProbability
			}
			prev := cands[i-1]
			frac := (kw - prev.ContractKW) / (c.ContractKW - prev.ContractKW)
			return prev.OverageProbability + frac*(c.OverageProbability-prev.OverageProbability)
		}
	}
	return cands[len(cands)-1].OverageProbability
}

func confidenceLabel(c float64) string {
	switch {
	case c >= 0.8:
		return "high"
	case c >= 0.5:
		return "moderate"
	default:
		return "low"
	}
}

func reasoning(r model.Recommendation) []string {
	out := make([]string, 0, 6)
	out = append(out, fmt.Sprintf("Predicted monthly peak: P50 %s, P95 %s against a current contract of %s.",
		textfmt.KW(r.PredictedPeakP50), textfmt.KW(r.PredictedPeakP95), textfmt.KW(r.CurrentContractKW)))

	if r.PredictedPeakP95 > r.CurrentContractKW {
		out = append(out, fmt.Sprintf("P95 peak exceeds the current contract by %s; overage penalties are likely in peak months.",
			textfmt.KW(r.PredictedPeakP95-r.CurrentContractKW)))
	} else {
		out = append(out, fmt.Sprintf("Current contract covers the P95 peak with %s of headroom.",
			textfmt.KW(r.CurrentContractKW-r.PredictedPeakP95)))
	}

	switch {
	case r.RecommendedContractKW == r.CurrentContractKW:
		out = append(out, "Current contract is already the cost-optimal level.")
	case r.ExpectedAnnualSavings >= 0:
		out = append(out, fmt.Sprintf("Moving to %s saves an expected %s per year (%s).",
			textfmt.KW(r.RecommendedContractKW), textfmt.Amount(r.ExpectedAnnualSavings), textfmt.Percent(r.SavingsPercent)))
	default:
		out = append(out, fmt.Sprintf("Moving to %s raises expected cost by %s per year (%s) in exchange for lower overage risk.",
			textfmt.KW(r.RecommendedContractKW), textfmt.Amount(-r.ExpectedAnnualSavings), textfmt.Percent(-r.SavingsPercent)))
	}

	out = append(out, fmt.Sprintf("Overage probability is %s at the current contract and %s at the recommended contract; waste probability is %s.",
		textfmt.Percent(r.CurrentOverageProbability), textfmt.Percent(r.OverageProbability), textfmt.Percent(r.WasteProbability)))
	out = append(out, fmt.Sprintf("Forecast confidence is %s (%.2f).", confidenceLabel(r.ConfidenceLevel), r.ConfidenceLevel))

	if r.ActionRequired {
		out = append(out, fmt.Sprintf("Action required with %s urgency.", r.UrgencyLevel))
	} else {
		out = append(out, "No action required; review again with the next forecast.")
	}
	return out
}
