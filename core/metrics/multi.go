package metrics

import "github.com/hashicorp/go-multierror"

// MultiSink fans events out to multiple sinks. Every sink is called even if
// an earlier one fails; the errors are aggregated.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordRecommendation forwards the event to all sinks.
func (m *MultiSink) RecordRecommendation(ev RecommendationEvent) error {
	var result *multierror.Error
	for _, s := range m.Sinks {
		if err := s.RecordRecommendation(ev); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// RecordRejection forwards the event to sinks implementing RejectionRecorder.
func (m *MultiSink) RecordRejection(ev RejectionEvent) error {
	var result *multierror.Error
	for _, s := range m.Sinks {
		if rec, ok := s.(RejectionRecorder); ok {
			if err := rec.RecordRejection(ev); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}
	return result.ErrorOrNil()
}
