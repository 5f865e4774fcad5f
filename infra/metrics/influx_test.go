package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/chargecap/core/metrics"
	"github.com/kilianp07/chargecap/core/model"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(b)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordRecommendation(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.RecommendationEvent{
		StationID:          "st-1",
		RecommendedKW:      110,
		CurrentKW:          160,
		ExpectedSavings:    4992000,
		OverageProbability: 0,
		ConfidenceLevel:    0.97214,
		ActionRequired:     true,
		Urgency:            model.UrgencyHigh,
		Samples:            21,
		Duration:           1500 * time.Microsecond,
		Time:               now,
	}
	if err := sink.RecordRecommendation(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("contract_recommendation").
		AddTag("station_id", "st-1").
		AddTag("urgency", "high").
		AddTag("action_required", "true").
		AddField("recommended_kw", 110.0).
		AddField("current_kw", 160.0).
		AddField("expected_savings", 4992000.0).
		AddField("overage_probability", 0.0).
		AddField("confidence", 0.972).
		AddField("samples", 21).
		AddField("duration_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != expected {
		t.Errorf("unexpected bodies: %#v", rec.bodies)
	}
}

func TestInfluxSink_RecordRejection(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)

	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()
	now := time.Now()
	ev := coremetrics.RejectionEvent{Operation: "recommend", Reason: "invalid input: prediction distribution is empty", Time: now}
	if err := sink.RecordRejection(ev); err != nil {
		t.Fatalf("record: %v", err)
	}
	p := write.NewPointWithMeasurement("contract_rejection").
		AddTag("operation", "recommend").
		AddField("reason", "invalid input: prediction distribution is empty").
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != exp {
		t.Errorf("bodies: %#v", rec.bodies)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
