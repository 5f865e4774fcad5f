package metrics

import (
	"time"

	"github.com/kilianp07/chargecap/core/model"
)

// Event is a value carried on the metrics event bus.
type Event interface {
	metricsEvent()
}

// RecommendationEvent summarises a recommendation served to a caller.
type RecommendationEvent struct {
	RequestID          string
	StationID          string
	RecommendedKW      float64
	CurrentKW          float64
	ExpectedSavings    float64
	OverageProbability float64
	ConfidenceLevel    float64
	ActionRequired     bool
	Urgency            model.Urgency
	Samples            int
	Duration           time.Duration
	Time               time.Time
}

// NewRecommendationEvent builds an event from a served recommendation.
func NewRecommendationEvent(requestID string, rec model.Recommendation, samples int, took time.Duration) RecommendationEvent {
	return RecommendationEvent{
		RequestID:          requestID,
		StationID:          rec.StationID,
		RecommendedKW:      rec.RecommendedContractKW,
		CurrentKW:          rec.CurrentContractKW,
		ExpectedSavings:    rec.ExpectedAnnualSavings,
		OverageProbability: rec.CurrentOverageProbability,
		ConfidenceLevel:    rec.ConfidenceLevel,
		ActionRequired:     rec.ActionRequired,
		Urgency:            rec.UrgencyLevel,
		Samples:            samples,
		Duration:           took,
		Time:               rec.AnalysisDate,
	}
}

// MetricsSink records served recommendations for observability purposes.
type MetricsSink interface {
	RecordRecommendation(ev RecommendationEvent) error
}

// RejectionEvent captures a request refused by the serving layer.
type RejectionEvent struct {
	RequestID string
	StationID string
	Operation string
	Reason    string
	Time      time.Time
}

// RejectionRecorder is implemented by sinks able to record rejected requests.
type RejectionRecorder interface {
	RecordRejection(ev RejectionEvent) error
}

func (RecommendationEvent) metricsEvent() {}
func (RejectionEvent) metricsEvent()      {}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) RecordRecommendation(RecommendationEvent) error { return nil }
func (NopSink) RecordRejection(RejectionEvent) error           { return nil }
