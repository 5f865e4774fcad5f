package recommendation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/chargecap/core/metrics"
	"github.com/kilianp07/chargecap/core/model"
	coremon "github.com/kilianp07/chargecap/core/monitoring"
	"github.com/kilianp07/chargecap/core/optimizer"
	"github.com/kilianp07/chargecap/core/prediction"
	corerec "github.com/kilianp07/chargecap/core/recommendation"
	"github.com/kilianp07/chargecap/core/tariff"
	"github.com/kilianp07/chargecap/infra/logger"
	"github.com/kilianp07/chargecap/internal/eventbus"
)

func newTestHandler(t *testing.T, opts ...Option) (*Handler, *eventbus.Bus[coremetrics.Event]) {
	t.Helper()
	cm, err := tariff.NewCostModel(tariff.DefaultConfig())
	require.NoError(t, err)
	eng, err := corerec.NewEngine(optimizer.New(cm), corerec.DefaultConfig())
	require.NoError(t, err)
	bus := eventbus.New[coremetrics.Event](16)
	opts = append([]Option{WithEventBus(bus), WithLogger(logger.NopLogger{})}, opts...)
	return NewHandler(eng, opts...), bus
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func uniformBody(current float64, extra string) string {
	samples := make([]string, 21)
	for i := range samples {
		samples[i] = formatFloat(100 + 0.5*float64(i))
	}
	return `{"current_contract_kw": ` + formatFloat(current) + `, "prediction_distribution": [` +
		strings.Join(samples, ",") + `]` + extra + `}`
}

func formatFloat(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func TestRecommend_OK(t *testing.T) {
	h, bus := newTestHandler(t)
	sub := bus.Subscribe()

	rr := do(h.Routes(), http.MethodPost, "/api/stations/st-1/recommendation", uniformBody(160, ""))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	reqID := rr.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(reqID)
	require.NoError(t, err)

	var rec model.Recommendation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, "st-1", rec.StationID)
	assert.Equal(t, 110.0, rec.RecommendedContractKW)
	assert.Equal(t, 160.0, rec.CurrentContractKW)
	assert.True(t, rec.ActionRequired)
	assert.Equal(t, model.UrgencyHigh, rec.UrgencyLevel)
	assert.Len(t, rec.DetailedReasoning, 6)

	select {
	case ev := <-sub:
		re, ok := ev.(coremetrics.RecommendationEvent)
		require.True(t, ok, "got %T", ev)
		assert.Equal(t, reqID, re.RequestID)
		assert.Equal(t, "st-1", re.StationID)
		assert.Equal(t, 21, re.Samples)
	case <-time.After(time.Second):
		t.Fatalf("no event published")
	}
}

func TestRecommend_JSONFieldNames(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(h.Routes(), http.MethodPost, "/api/stations/st-1/recommendation", uniformBody(160, ""))
	require.Equal(t, http.StatusOK, rr.Code)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &raw))
	for _, k := range []string{
		"station_id", "analysis_date", "recommended_contract_kw", "current_contract_kw",
		"expected_annual_cost", "expected_annual_savings", "savings_percent",
		"predicted_peak_p50", "predicted_peak_p95", "overage_probability",
		"waste_probability", "confidence_level", "action_required", "urgency_level",
		"detailed_reasoning",
	} {
		assert.Contains(t, raw, k)
	}
}

func TestRecommend_RiskToleranceAndRequestID(t *testing.T) {
	h, _ := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/api/stations/st-5/recommendation",
		strings.NewReader(`{"current_contract_kw": 100, "prediction_distribution": [103.2, 103.3, 103.4], "risk_tolerance": 0}`))
	req.Header.Set(RequestIDHeader, "abc-123")
	rr := httptest.NewRecorder()
	h.Routes().ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))

	var rec model.Recommendation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, 110.0, rec.RecommendedContractKW)
	assert.Equal(t, 0.0, rec.RiskTolerance)
}

func TestRecommend_BadRequests(t *testing.T) {
	h, bus := newTestHandler(t)
	sub := bus.Subscribe()
	cases := map[string]string{
		"malformed":          `{"current_contract_kw": `,
		"missing contract":   `{"prediction_distribution": [100]}`,
		"negative sample":    `{"current_contract_kw": 100, "prediction_distribution": [100, -1]}`,
		"risk out of range":  `{"current_contract_kw": 100, "prediction_distribution": [100], "risk_tolerance": 1.5}`,
		"empty distribution": `{"current_contract_kw": 100, "prediction_distribution": []}`,
		"oversized grid":     `{"current_contract_kw": 1e16, "prediction_distribution": [100]}`,
		"contract off step":  `{"current_contract_kw": 155, "prediction_distribution": [140, 150, 160]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			rr := do(h.Routes(), http.MethodPost, "/api/stations/st-1/recommendation", body)
			require.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			var er errorResponse
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &er))
			assert.Contains(t, er.Error, "invalid input")
			assert.Equal(t, rr.Header().Get(RequestIDHeader), er.RequestID)

			ev := <-sub
			rej, ok := ev.(coremetrics.RejectionEvent)
			require.True(t, ok, "got %T", ev)
			assert.Equal(t, "recommend", rej.Operation)
			assert.Equal(t, "st-1", rej.StationID)
		})
	}
}

func TestRecommend_MaxSamples(t *testing.T) {
	h, _ := newTestHandler(t, WithMaxSamples(2))
	rr := do(h.Routes(), http.MethodPost, "/api/stations/s/recommendation",
		`{"current_contract_kw": 100, "prediction_distribution": [1, 2, 3]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "exceed the limit of 2")
}

func TestRecommend_UsesForecaster(t *testing.T) {
	f := prediction.NewStaticForecaster(map[string][]float64{"st-7": {120, 120, 120}})
	h, _ := newTestHandler(t, WithForecaster(f))

	rr := do(h.Routes(), http.MethodPost, "/api/stations/st-7/recommendation", `{"current_contract_kw": 120}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var rec model.Recommendation
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, 120.0, rec.RecommendedContractKW)
	assert.False(t, rec.ActionRequired)

	rr = do(h.Routes(), http.MethodPost, "/api/stations/unknown/recommendation", `{"current_contract_kw": 120}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

type failingForecaster struct{ err error }

func (f failingForecaster) PeakDistribution(context.Context, string) ([]float64, error) {
	return nil, f.err
}

type captureMonitor struct {
	err  error
	tags map[string]string
}

func (c *captureMonitor) CaptureException(err error, tags map[string]string) {
	c.err = err
	c.tags = tags
}
func (c *captureMonitor) Recover()            {}
func (c *captureMonitor) Flush(time.Duration) {}

func TestRecommend_InternalErrorCaptured(t *testing.T) {
	mon := &captureMonitor{}
	coremon.Init(mon)
	defer coremon.Init(coremon.NopMonitor{})

	boom := errors.New("forecast store unavailable")
	h, _ := newTestHandler(t, WithForecaster(failingForecaster{err: boom}))
	rr := do(h.Routes(), http.MethodPost, "/api/stations/st-1/recommendation", `{"current_contract_kw": 100}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "forecast store")
	assert.ErrorIs(t, mon.err, boom)
	assert.Equal(t, "st-1", mon.tags["station_id"])
	assert.Equal(t, rr.Header().Get(RequestIDHeader), mon.tags["request_id"])
}

func TestCompare(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(h.Routes(), http.MethodPost, "/api/contracts/compare", `{"current_kw": 160, "new_kw": 110, "actual_kw": 105}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var cmp model.Comparison
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &cmp))
	assert.InDelta(t, 4992000.0, cmp.Savings.Annual, 1e-6)
	assert.InDelta(t, 31.25, cmp.Savings.Percent, 1e-9)
	assert.NotEmpty(t, cmp.Recommendation)

	rr = do(h.Routes(), http.MethodPost, "/api/contracts/compare", `{"current_kw": 0, "new_kw": 110, "actual_kw": 105}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRoutes(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := do(h.Routes(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = do(h.Routes(), http.MethodGet, "/api/stations/st-1/recommendation", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = do(h.Routes(), http.MethodPost, "/api/unknown", "{}")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
