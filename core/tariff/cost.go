// Package tariff encodes the utility demand-charge rules as pure functions.
package tariff

import (
	"fmt"
	"math"

	"github.com/kilianp07/chargecap/core/model"
	"github.com/kilianp07/chargecap/internal/textfmt"
)

// MonthsPerYear is the number of billing periods in a year.
const MonthsPerYear = 12

// CostModel evaluates contract levels against observed peaks. It holds no
// mutable state and is safe for concurrent use.
type CostModel struct {
	cfg Config
}

// NewCostModel validates the tariff and returns a CostModel.
func NewCostModel(cfg Config) (*CostModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tariff: %w", err)
	}
	return &CostModel{cfg: cfg}, nil
}

// Config returns the tariff the model was built with.
func (m *CostModel) Config() Config { return m.cfg }

// MonthlyCost returns the bill for one month with the given contract and
// actual peak demand.
func (m *CostModel) MonthlyCost(contractKW, actualKW float64) (model.CostBreakdown, error) {
	if err := checkContract(contractKW); err != nil {
		return model.CostBreakdown{}, err
	}
	if err := checkDemand(actualKW); err != nil {
		return model.CostBreakdown{}, err
	}
	return m.monthly(contractKW, actualKW), nil
}

// monthly assumes validated arguments. The optimizer calls it once per
// candidate per sample.
func (m *CostModel) monthly(contractKW, actualKW float64) model.CostBreakdown {
	b := model.CostBreakdown{
		ContractKW: contractKW,
		ActualKW:   actualKW,
		BasicCost:  contractKW * m.cfg.BasicRate,
	}
	if actualKW > contractKW {
		b.OverageKW = actualKW - contractKW
		b.OverageCost = b.OverageKW * m.cfg.OverageRate
	} else {
		b.WasteKW = contractKW - actualKW
		b.OpportunityCost = b.WasteKW * m.cfg.BasicRate
	}
	b.TotalCost = b.BasicCost + b.OverageCost
	return b
}

// MonthlyTotal returns only the billed amount. Arguments must already be
// validated.
func (m *CostModel) MonthlyTotal(contractKW, actualKW float64) float64 {
	total := contractKW * m.cfg.BasicRate
	if actualKW > contractKW {
		total += (actualKW - contractKW) * m.cfg.OverageRate
	}
	return total
}

// AnnualCost assumes the same representative peak every month.
func (m *CostModel) AnnualCost(contractKW, actualPeakKW float64) (model.CostBreakdown, error) {
	b, err := m.MonthlyCost(contractKW, actualPeakKW)
	if err != nil {
		return model.CostBreakdown{}, err
	}
	return annualize(b), nil
}

// AnnualCostFromMonthly bills each month with its own peak. Currency fields
// are summed over the year; kW fields report the worst month.
func (m *CostModel) AnnualCostFromMonthly(contractKW float64, peaks []float64) (model.CostBreakdown, error) {
	if err := checkContract(contractKW); err != nil {
		return model.CostBreakdown{}, err
	}
	if len(peaks) != MonthsPerYear {
		return model.CostBreakdown{}, fmt.Errorf("%w: expected %d monthly peaks, got %d", model.ErrInvalidInput, MonthsPerYear, len(peaks))
	}
	out := model.CostBreakdown{ContractKW: contractKW}
	for i, p := range peaks {
		if err := checkDemand(p); err != nil {
			return model.CostBreakdown{}, fmt.Errorf("month %d: %w", i+1, err)
		}
		b := m.monthly(contractKW, p)
		out.ActualKW = math.Max(out.ActualKW, p)
		out.OverageKW = math.Max(out.OverageKW, b.OverageKW)
		out.WasteKW = math.Max(out.WasteKW, b.WasteKW)
		out.BasicCost += b.BasicCost
		out.OverageCost += b.OverageCost
		out.OpportunityCost += b.OpportunityCost
		out.TotalCost += b.TotalCost
	}
	return out, nil
}

// CompareContracts evaluates switching from currentKW to newKW given the
// expected peak actualKW.
func (m *CostModel) CompareContracts(currentKW, newKW, actualKW float64) (model.Comparison, error) {
	cur, err := m.AnnualCost(currentKW, actualKW)
	if err != nil {
		return model.Comparison{}, fmt.Errorf("current contract: %w", err)
	}
	next, err := m.AnnualCost(newKW, actualKW)
	if err != nil {
		return model.Comparison{}, fmt.Errorf("new contract: %w", err)
	}
	if cur.TotalCost == 0 {
		return model.Comparison{}, fmt.Errorf("%w: current annual cost is zero", model.ErrInvalidInput)
	}
	annual := cur.TotalCost - next.TotalCost
	cmp := model.Comparison{
		Current: cur,
		New:     next,
		Savings: model.Savings{
			Annual:  annual,
			Percent: annual / cur.TotalCost * 100,
		},
	}
	cmp.Recommendation = comparisonText(currentKW, newKW, cmp.Savings)
	return cmp, nil
}

func comparisonText(currentKW, newKW float64, s model.Savings) string {
	switch {
	case s.Annual > 0:
		return fmt.Sprintf("Switch from %s to %s: saves %s per year (%s).",
			textfmt.KW(currentKW), textfmt.KW(newKW), textfmt.Amount(s.Annual), textfmt.Percent(s.Percent))
	case s.Annual < 0:
		return fmt.Sprintf("Keep %s: switching to %s would cost %s more per year (%s).",
			textfmt.KW(currentKW), textfmt.KW(newKW), textfmt.Amount(-s.Annual), textfmt.Percent(-s.Percent))
	default:
		return fmt.Sprintf("No cost difference between %s and %s.", textfmt.KW(currentKW), textfmt.KW(newKW))
	}
}

func annualize(b model.CostBreakdown) model.CostBreakdown {
	b.BasicCost *= MonthsPerYear
	b.OverageCost *= MonthsPerYear
	b.OpportunityCost *= MonthsPerYear
	b.TotalCost *= MonthsPerYear
	return b
}

func checkContract(kw float64) error {
	if math.IsNaN(kw) || math.IsInf(kw, 0) || kw <= 0 {
		return fmt.Errorf("%w: contract_kw must be positive, got %v", model.ErrInvalidInput, kw)
	}
	return nil
}

func checkDemand(kw float64) error {
	if math.IsNaN(kw) || math.IsInf(kw, 0) || kw < 0 {
		return fmt.Errorf("%w: actual_kw must not be negative, got %v", model.ErrInvalidInput, kw)
	}
	return nil
}
