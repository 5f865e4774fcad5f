package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/chargecap/core/metrics"
	coremon "github.com/kilianp07/chargecap/core/monitoring"
	"github.com/kilianp07/chargecap/infra/logger"
	"github.com/kilianp07/chargecap/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards recommendation
// and rejection events to the sink. It stops when the context is canceled or
// the subscription is closed. The returned channel is closed on exit.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus[coremetrics.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("metrics-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				var err error
				switch e := ev.(type) {
				case coremetrics.RecommendationEvent:
					err = sink.RecordRecommendation(e)
				case coremetrics.RejectionEvent:
					if r, ok := sink.(coremetrics.RejectionRecorder); ok {
						err = r.RecordRejection(e)
					}
				}
				if err != nil {
					log.Errorf("record event %T: %v", ev, err)
					coremon.CaptureException(err, map[string]string{"module": "metrics"})
				}
			}
		}
	}()
	return done
}
