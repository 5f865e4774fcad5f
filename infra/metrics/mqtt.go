package metrics

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/chargecap/core/metrics"
	"github.com/kilianp07/chargecap/core/model"
)

// Publisher is the subset of the MQTT client used by MQTTSink.
type Publisher interface {
	Topic(parts ...string) string
	Publish(topic string, payload []byte) error
}

// MQTTSink publishes each served recommendation on
// <prefix>/<station_id>/recommendation.
type MQTTSink struct {
	pub Publisher
	now func() time.Time
}

// NewMQTTSink wraps a connected publisher.
func NewMQTTSink(pub Publisher) *MQTTSink {
	return &MQTTSink{pub: pub, now: time.Now}
}

type recommendationMessage struct {
	MessageID          string        `json:"message_id"`
	RequestID          string        `json:"request_id,omitempty"`
	StationID          string        `json:"station_id"`
	RecommendedKW      float64       `json:"recommended_contract_kw"`
	CurrentKW          float64       `json:"current_contract_kw"`
	ExpectedSavings    float64       `json:"expected_annual_savings"`
	OverageProbability float64       `json:"current_overage_probability"`
	ConfidenceLevel    float64       `json:"confidence_level"`
	ActionRequired     bool          `json:"action_required"`
	Urgency            model.Urgency `json:"urgency_level"`
	AnalysisDate       time.Time     `json:"analysis_date"`
	PublishedAt        int64         `json:"published_at"`
}

// RecordRecommendation publishes the event as JSON.
func (s *MQTTSink) RecordRecommendation(ev coremetrics.RecommendationEvent) error {
	payload, err := json.Marshal(recommendationMessage{
		MessageID:          uuid.NewString(),
		RequestID:          ev.RequestID,
		StationID:          ev.StationID,
		RecommendedKW:      ev.RecommendedKW,
		CurrentKW:          ev.CurrentKW,
		ExpectedSavings:    ev.ExpectedSavings,
		OverageProbability: ev.OverageProbability,
		ConfidenceLevel:    ev.ConfidenceLevel,
		ActionRequired:     ev.ActionRequired,
		Urgency:            ev.Urgency,
		AnalysisDate:       ev.Time,
		PublishedAt:        s.now().UnixMilli(),
	})
	if err != nil {
		return err
	}
	return s.pub.Publish(s.pub.Topic(ev.StationID, "recommendation"), payload)
}
