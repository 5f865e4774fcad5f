package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/chargecap/core/metrics"
)

// OtherStation labels per-station gauges for stations outside the allow list.
const OtherStation = "other"

// PromSink records recommendation events in Prometheus metrics.
type PromSink struct {
	stations        map[string]struct{}
	recommendations *prometheus.CounterVec
	rejections      *prometheus.CounterVec
	recommendedKW   *prometheus.GaugeVec
	savings         *prometheus.GaugeVec
	duration        prometheus.Histogram
}

// PromOption customises a PromSink.
type PromOption func(*PromSink)

// WithStations sets the station IDs allowed as station_id label values.
// Every other station is reported as OtherStation so that request input
// cannot grow the number of series.
func WithStations(ids ...string) PromOption {
	return func(s *PromSink) {
		for _, id := range ids {
			s.stations[id] = struct{}{}
		}
	}
}

// NewPromSink registers metrics on the default Prometheus registerer.
func NewPromSink(opts ...PromOption) (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer, opts...)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by a previous sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer, opts ...PromOption) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		stations: make(map[string]struct{}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contract_recommendations_total",
			Help: "Total number of contract recommendations served",
		}, []string{"urgency", "action_required"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contract_recommendation_rejections_total",
			Help: "Requests rejected before a recommendation could be produced",
		}, []string{"operation"}),
		recommendedKW: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "contract_recommended_kw",
			Help: "Last recommended contract capacity per station",
		}, []string{"station_id"}),
		savings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "contract_expected_annual_savings",
			Help: "Expected annual savings of the last recommendation per station",
		}, []string{"station_id"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contract_recommendation_duration_seconds",
			Help:    "Time spent computing a recommendation",
			Buckets: prometheus.DefBuckets,
		}),
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.recommendations, err = register(reg, s.recommendations); err != nil {
		return nil, err
	}
	if s.rejections, err = register(reg, s.rejections); err != nil {
		return nil, err
	}
	if s.recommendedKW, err = register(reg, s.recommendedKW); err != nil {
		return nil, err
	}
	if s.savings, err = register(reg, s.savings); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	return s, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordRecommendation updates counters, per-station gauges and latency.
func (s *PromSink) RecordRecommendation(ev coremetrics.RecommendationEvent) error {
	s.recommendations.WithLabelValues(string(ev.Urgency), strconv.FormatBool(ev.ActionRequired)).Inc()
	station := s.stationLabel(ev.StationID)
	s.recommendedKW.WithLabelValues(station).Set(ev.RecommendedKW)
	s.savings.WithLabelValues(station).Set(ev.ExpectedSavings)
	s.duration.Observe(ev.Duration.Seconds())
	return nil
}

// RecordRejection counts rejected requests by operation.
func (s *PromSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	s.rejections.WithLabelValues(ev.Operation).Inc()
	return nil
}

func (s *PromSink) stationLabel(id string) string {
	if _, ok := s.stations[id]; ok {
		return id
	}
	return OtherStation
}
