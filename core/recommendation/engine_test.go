package recommendation

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/chargecap/core/model"
	"github.com/kilianp07/chargecap/core/optimizer"
	"github.com/kilianp07/chargecap/core/tariff"
)

var fixedNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T) *Engine {
	t.Helper()
	cm, err := tariff.NewCostModel(tariff.DefaultConfig())
	require.NoError(t, err)
	e, err := NewEngine(optimizer.New(cm), DefaultConfig(), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return e
}

// 100, 100.5, ..., 110
func uniform100to110() []float64 {
	out := make([]float64, 21)
	for i := range out {
		out[i] = 100 + 0.5*float64(i)
	}
	return out
}

func TestGenerate_OverContracted(t *testing.T) {
	e := newEngine(t)
	rec, err := e.Generate("station-1", uniform100to110(), 160)
	require.NoError(t, err)

	assert.Equal(t, "station-1", rec.StationID)
	assert.Equal(t, fixedNow, rec.AnalysisDate)
	assert.Equal(t, 110.0, rec.RecommendedContractKW)
	assert.Equal(t, 160.0, rec.CurrentContractKW)
	assert.InDelta(t, 4992000.0, rec.ExpectedAnnualSavings, 1e-6)
	assert.InDelta(t, 31.25, rec.SavingsPercent, 1e-9)
	assert.Equal(t, 105.0, rec.PredictedPeakP50)
	assert.Equal(t, 109.5, rec.PredictedPeakP95)
	assert.Zero(t, rec.CurrentOverageProbability)
	assert.Zero(t, rec.OverageProbability)
	assert.True(t, rec.ActionRequired)
	assert.Equal(t, model.UrgencyHigh, rec.UrgencyLevel)
	assert.Equal(t, DefaultRiskTolerance, rec.RiskTolerance)
	assert.NotEmpty(t, rec.Reason)
	assert.NotEmpty(t, rec.Candidates)

	require.Len(t, rec.DetailedReasoning, 6)
	assert.Equal(t, "Predicted monthly peak: P50 105 kW, P95 109.5 kW against a current contract of 160 kW.", rec.DetailedReasoning[0])
	assert.Equal(t, "Current contract covers the P95 peak with 50.5 kW of headroom.", rec.DetailedReasoning[1])
	assert.Contains(t, rec.DetailedReasoning[2], "Moving to 110 kW saves an expected 4,992,000 per year")
	assert.Equal(t, "Overage probability is 0.0% at the current contract and 0.0% at the recommended contract; waste probability is 95.2%.", rec.DetailedReasoning[3])
	assert.Equal(t, "Forecast confidence is high (0.97).", rec.DetailedReasoning[4])
	assert.Equal(t, "Action required with high urgency.", rec.DetailedReasoning[5])
}

func TestGenerate_UnderContracted(t *testing.T) {
	e := newEngine(t)
	dist := make([]float64, 21)
	for i := range dist {
		dist[i] = 140 + float64(i)
	}
	rec, err := e.Generate("station-2", dist, 100)
	require.NoError(t, err)
	assert.Equal(t, 100.0, rec.CurrentOverageProbability)
	assert.Greater(t, rec.RecommendedContractKW, 100.0)
	assert.True(t, rec.ActionRequired)
	assert.Equal(t, model.UrgencyHigh, rec.UrgencyLevel)
	assert.Equal(t, "P95 peak exceeds the current contract by 59 kW; overage penalties are likely in peak months.", rec.DetailedReasoning[1])
}

func TestGenerate_NoAction(t *testing.T) {
	e := newEngine(t)
	rec, err := e.Generate("station-3", []float64{120, 120, 120, 120}, 120)
	require.NoError(t, err)
	assert.False(t, rec.ActionRequired)
	assert.Equal(t, model.UrgencyLow, rec.UrgencyLevel)
	assert.Equal(t, []string{
		"Predicted monthly peak: P50 120 kW, P95 120 kW against a current contract of 120 kW.",
		"Current contract covers the P95 peak with 0 kW of headroom.",
		"Current contract is already the cost-optimal level.",
		"Overage probability is 0.0% at the current contract and 0.0% at the recommended contract; waste probability is 0.0%.",
		"Forecast confidence is high (1.00).",
		"No action required; review again with the next forecast.",
	}, rec.DetailedReasoning)
}

func TestGenerate_SafetyThresholdGivesMediumUrgency(t *testing.T) {
	e := newEngine(t)
	dist := []float64{115, 115, 115, 115, 115, 115, 115, 115, 115, 125}
	rec, err := e.Generate("station-4", dist, 120)
	require.NoError(t, err)
	assert.Equal(t, 120.0, rec.RecommendedContractKW)
	assert.Equal(t, 10.0, rec.CurrentOverageProbability)
	assert.True(t, rec.ActionRequired, "overage above safety threshold requires action")
	assert.Equal(t, model.UrgencyMedium, rec.UrgencyLevel)
	assert.Equal(t, "Action required with medium urgency.", rec.DetailedReasoning[5])
}

func TestGenerateWithRisk_RiskDrivenIncrease(t *testing.T) {
	e := newEngine(t)
	dist := []float64{103.2, 103.3, 103.4}
	rec, err := e.GenerateWithRisk("station-5", dist, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, 110.0, rec.RecommendedContractKW)
	assert.Less(t, rec.ExpectedAnnualSavings, 0.0)
	assert.Equal(t, 0.0, rec.RiskTolerance)
	assert.Contains(t, rec.DetailedReasoning[2], "raises expected cost by 504,192 per year")

	tolerant, err := e.GenerateWithRisk("station-5", dist, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, tolerant.RecommendedContractKW)
}

func TestGenerate_Deterministic(t *testing.T) {
	e := newEngine(t)
	dist := []float64{88, 97.1, 103, 110.4, 120, 131.7, 99, 101}
	a, err := e.Generate("s", dist, 110)
	require.NoError(t, err)
	b, err := e.Generate("s", dist, 110)
	require.NoError(t, err)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("recommendations differ:\n%s", diff)
	}
	assert.Equal(t, []float64{88, 97.1, 103, 110.4, 120, 131.7, 99, 101}, dist, "input must not be reordered")
}

func TestGenerate_InvalidInput(t *testing.T) {
	e := newEngine(t)
	cases := []struct {
		name    string
		station string
		dist    []float64
		current float64
		risk    float64
	}{
		{"missing station", " ", []float64{100}, 100, 0.5},
		{"empty distribution", "s", nil, 100, 0.5},
		{"negative sample", "s", []float64{-3}, 100, 0.5},
		{"negative contract", "s", []float64{100}, -100, 0.5},
		{"risk out of range", "s", []float64{100}, 100, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := e.GenerateWithRisk(tc.station, tc.dist, tc.current, tc.risk)
			if !errors.Is(err, model.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			assert.Empty(t, rec.StationID)
		})
	}
}

func TestOverageAtInterpolates(t *testing.T) {
	cands := []model.Candidate{
		{ContractKW: 100, OverageProbability: 60},
		{ContractKW: 110, OverageProbability: 20},
		{ContractKW: 120, OverageProbability: 0},
	}
	assert.Equal(t, 20.0, overageAt(cands, 110))
	assert.InDelta(t, 40.0, overageAt(cands, 105), 1e-12)
	assert.Equal(t, 60.0, overageAt(cands, 90))
	assert.Equal(t, 0.0, overageAt(cands, 150))
	assert.Equal(t, 0.0, overageAt(nil, 100))
}

func TestConfigDefaultsAndValidation(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultRiskTolerance, cfg.DefaultRisk())

	zero := 0.0
	cfg.RiskTolerance = &zero
	cfg.SetDefaults()
	assert.Equal(t, 0.0, cfg.DefaultRisk(), "explicit zero must be kept")

	bad := DefaultConfig()
	bad.HighOverageThreshold = 1
	assert.Error(t, bad.Validate())

	over := 2.0
	bad = DefaultConfig()
	bad.RiskTolerance = &over
	assert.Error(t, bad.Validate())

	_, err := NewEngine(nil, DefaultConfig())
	assert.Error(t, err)
}
