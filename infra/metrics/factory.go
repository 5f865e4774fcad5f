package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/chargecap/core/factory"
	coremetrics "github.com/kilianp07/chargecap/core/metrics"
	"github.com/kilianp07/chargecap/infra/mqtt"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		// The /metrics listener is configured separately via metrics.prometheus_address.
		var c struct {
			Stations []string `json:"stations"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewPromSinkWithRegistry(prometheus.DefaultRegisterer, WithStations(c.Stations...))
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})

	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c mqtt.Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		pub, err := mqtt.NewPahoPublisher(c)
		if err != nil {
			return nil, err
		}
		return NewMQTTSink(pub), nil
	})
}
