package optimizer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/chargecap/core/model"
	"github.com/kilianp07/chargecap/core/tariff"
	"github.com/kilianp07/chargecap/internal/textfmt"
)

// Optimizer searches the quantized contract levels for the one minimising
// expected annual cost plus an overage-risk penalty.
type Optimizer struct {
	cost          *tariff.CostModel
	step          float64
	riskWeight    float64
	maxCandidates int
}

// New returns an Optimizer using the tariff of the given cost model.
func New(cm *tariff.CostModel) *Optimizer {
	cfg := cm.Config()
	return &Optimizer{
		cost:          cm,
		step:          cfg.QuantizationStep,
		riskWeight:    cfg.PenaltyWeight(),
		maxCandidates: cfg.CandidateLimit(),
	}
}

// Step returns the quantization step in kW.
func (o *Optimizer) Step() float64 { return o.step }

// CostModel returns the underlying tariff model.
func (o *Optimizer) CostModel() *tariff.CostModel { return o.cost }

// Optimize evaluates every candidate contract against the distribution of
// predicted monthly peaks and returns the best one.
//
// riskTolerance ranges from 0 (penalise overage probability with the full
// risk weight) to 1 (pure expected-cost minimisation).
func (o *Optimizer) Optimize(dist []float64, currentKW, riskTolerance float64) (model.OptimizationResult, error) {
	if err := validateDistribution(dist); err != nil {
		return model.OptimizationResult{}, err
	}
	if math.IsNaN(currentKW) || math.IsInf(currentKW, 0) || currentKW <= 0 {
		return model.OptimizationResult{}, fmt.Errorf("%w: current_contract_kw must be positive, got %v", model.ErrInvalidInput, currentKW)
	}
	if math.IsNaN(riskTolerance) || riskTolerance < 0 || riskTolerance > 1 {
		return model.OptimizationResult{}, fmt.Errorf("%w: risk_tolerance must be within [0,1], got %v", model.ErrInvalidInput, riskTolerance)
	}

	if !onLattice(currentKW, o.step) {
		return model.OptimizationResult{}, fmt.Errorf("%w: current_contract_kw %v is not a multiple of the %v kW step", model.ErrInvalidInput, currentKW, o.step)
	}

	levels, err := candidateLevels(dist, currentKW, o.step, o.maxCandidates)
	if err != nil {
		return model.OptimizationResult{}, err
	}
	cands := make([]model.Candidate, len(levels))
	best := -1
	var current model.Candidate
	for i, kw := range levels {
		cands[i] = o.evaluate(dist, kw, riskTolerance)
		if kw == currentKW {
			current = cands[i]
		}
		// Strict comparison keeps the smaller contract on ties.
		if best < 0 || cands[i].Score < cands[best].Score {
			best = i
		}
	}
	opt := cands[best]

	res := model.OptimizationResult{
		OptimalContractKW:  opt.ContractKW,
		CurrentContractKW:  currentKW,
		ExpectedAnnualCost: opt.ExpectedAnnualCost,
		ExpectedSavings:    current.ExpectedAnnualCost - opt.ExpectedAnnualCost,
		OverageProbability: opt.OverageProbability,
		WasteProbability:   opt.WasteProbability,
		ConfidenceLevel:    Confidence(dist),
		RiskTolerance:      riskTolerance,
		AllCandidates:      cands,
	}
	if current.ExpectedAnnualCost > 0 {
		res.SavingsPercent = res.ExpectedSavings / current.ExpectedAnnualCost * 100
	}
	res.RecommendationReason = reason(res, current)
	return res, nil
}

// Evaluate scores a single contract level against the distribution.
func (o *Optimizer) Evaluate(dist []float64, contractKW, riskTolerance float64) (model.Candidate, error) {
	if err := validateDistribution(dist); err != nil {
		return model.Candidate{}, err
	}
	if math.IsNaN(contractKW) || math.IsInf(contractKW, 0) || contractKW <= 0 {
		return model.Candidate{}, fmt.Errorf("%w: contract_kw must be positive, got %v", model.ErrInvalidInput, contractKW)
	}
	if math.IsNaN(riskTolerance) || riskTolerance < 0 || riskTolerance > 1 {
		return model.Candidate{}, fmt.Errorf("%w: risk_tolerance must be within [0,1], got %v", model.ErrInvalidInput, riskTolerance)
	}
	return o.evaluate(dist, contractKW, riskTolerance), nil
}

func (o *Optimizer) evaluate(dist []float64, kw, riskTolerance float64) model.Candidate {
	var total float64
	var over, under int
	for _, s := range dist {
		total += o.cost.MonthlyTotal(kw, s)
		switch {
		case s > kw:
			over++
		case s < kw:
			under++
		}
	}
	n := float64(len(dist))
	c := model.Candidate{
		ContractKW:         kw,
		ExpectedAnnualCost: total / n * tariff.MonthsPerYear,
		OverageProbability: float64(over) / n * 100,
		WasteProbability:   float64(under) / n * 100,
	}
	c.Score = c.ExpectedAnnualCost + (1-riskTolerance)*o.riskWeight*c.OverageProbability
	return c
}

// candidateLevels returns the contract levels to search: the step lattice
// from max(step, floor(min)) to ceil(max), extended to reach currentKW, which
// must lie on the lattice. Grids larger than limit are rejected before any
// allocation.
func candidateLevels(dist []float64, currentKW, step float64, limit int) ([]float64, error) {
	cur := math.Round(currentKW / step)
	lo := math.Min(math.Max(1, math.Floor(floats.Min(dist)/step)), cur)
	hi := math.Max(math.Max(lo, math.Ceil(floats.Max(dist)/step)), cur)
	if n := hi - lo + 1; n > float64(limit) {
		return nil, fmt.Errorf("%w: %.0f candidate contracts between %v kW and %v kW exceed the limit of %d",
			model.ErrInvalidInput, n, lo*step, hi*step, limit)
	}

	levels := make([]float64, 0, int(hi-lo)+1)
	for i := lo; i <= hi; i++ {
		kw := i * step
		if i == cur {
			kw = currentKW
		}
		levels = append(levels, kw)
	}
	return levels, nil
}

func onLattice(kw, step float64) bool {
	r := kw / step
	return math.Abs(r-math.Round(r)) < 1e-9
}

// Confidence maps the relative spread of the distribution to [0,1]:
// 1 - stddev/mean, clamped. The population standard deviation is used. A
// distribution of zeros has no spread and yields 1.
func Confidence(dist []float64) float64 {
	if len(dist) == 0 {
		return 0
	}
	mean, std := stat.PopMeanStdDev(dist, nil)
	if mean == 0 {
		if std == 0 {
			return 1
		}
		return 0
	}
	c := 1 - std/mean
	return math.Max(0, math.Min(1, c))
}

func validateDistribution(dist []float64) error {
	if len(dist) == 0 {
		return fmt.Errorf("%w: prediction distribution is empty", model.ErrInvalidInput)
	}
	for i, s := range dist {
		if math.IsNaN(s) || math.IsInf(s, 0) || s < 0 {
			return fmt.Errorf("%w: sample %d is %v, samples must be finite and non-negative", model.ErrInvalidInput, i, s)
		}
	}
	return nil
}

func reason(res model.OptimizationResult, current model.Candidate) string {
	opt := res.OptimalContractKW
	switch {
	case opt == res.CurrentContractKW:
		return fmt.Sprintf("Current contract of %s is already optimal: expected annual cost %s, overage risk %s, waste risk %s.",
			textfmt.KW(opt), textfmt.Amount(res.ExpectedAnnualCost),
			textfmt.Percent(res.OverageProbability), textfmt.Percent(res.WasteProbability))
	case res.ExpectedSavings >= 0:
		return fmt.Sprintf("Change contract from %s to %s: expected annual cost %s, saving %s per year (%s); overage risk %s, waste risk %s.",
			textfmt.KW(res.CurrentContractKW), textfmt.KW(opt), textfmt.Amount(res.ExpectedAnnualCost),
			textfmt.Amount(res.ExpectedSavings), textfmt.Percent(res.SavingsPercent),
			textfmt.Percent(res.OverageProbability), textfmt.Percent(res.WasteProbability))
	default:
		return fmt.Sprintf("Change contract from %s to %s to cut overage risk from %s to %s (waste risk %s); expected annual cost rises by %s (%s).",
			textfmt.KW(res.CurrentContractKW), textfmt.KW(opt),
			textfmt.Percent(current.OverageProbability), textfmt.Percent(res.OverageProbability),
			textfmt.Percent(res.WasteProbability), textfmt.Amount(-res.ExpectedSavings), textfmt.Percent(-res.SavingsPercent))
	}
}
