package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	api "github.com/kilianp07/chargecap/api/recommendation"
	"github.com/kilianp07/chargecap/config"
	"github.com/kilianp07/chargecap/core/factory"
	coremetrics "github.com/kilianp07/chargecap/core/metrics"
	coremon "github.com/kilianp07/chargecap/core/monitoring"
	"github.com/kilianp07/chargecap/core/optimizer"
	"github.com/kilianp07/chargecap/core/prediction"
	corerec "github.com/kilianp07/chargecap/core/recommendation"
	"github.com/kilianp07/chargecap/core/tariff"
	"github.com/kilianp07/chargecap/infra/logger"
	"github.com/kilianp07/chargecap/infra/metrics"
	"github.com/kilianp07/chargecap/infra/monitoring"
	"github.com/kilianp07/chargecap/internal/eventbus"
)

const shutdownTimeout = 5 * time.Second

// NewEngine builds the recommendation engine described by cfg.
func NewEngine(cfg *config.Config) (*corerec.Engine, error) {
	cm, err := tariff.NewCostModel(cfg.Tariff)
	if err != nil {
		return nil, fmt.Errorf("cost model: %w", err)
	}
	return corerec.NewEngine(optimizer.New(cm), cfg.Recommendation)
}

// NewForecaster loads the per-station sample files listed in cfg. It returns
// nil when none are configured.
func NewForecaster(cfg config.ForecastConfig) (prediction.Forecaster, error) {
	if len(cfg.Stations) == 0 {
		return nil, nil
	}
	samples := make(map[string][]float64, len(cfg.Stations))
	for id, path := range cfg.Stations {
		s, err := prediction.LoadSamples(path)
		if err != nil {
			return nil, fmt.Errorf("forecast for %s: %w", id, err)
		}
		samples[id] = s
	}
	return prediction.NewStaticForecaster(samples), nil
}

// SinkConfigs returns the configured metrics sinks. Prometheus sinks without
// an explicit stations list get the forecast station IDs so per-station
// series stay bounded by configuration. cfg is not modified.
func SinkConfigs(cfg *config.Config) []factory.ModuleConfig {
	out := make([]factory.ModuleConfig, len(cfg.Metrics.Sinks))
	for i, mc := range cfg.Metrics.Sinks {
		out[i] = mc
		if mc.Type != "prometheus" || mc.Conf["stations"] != nil {
			continue
		}
		ids := make([]string, 0, len(cfg.Forecast.Stations))
		for id := range cfg.Forecast.Stations {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		conf := make(map[string]any, len(mc.Conf)+1)
		for k, v := range mc.Conf {
			conf[k] = v
		}
		conf["stations"] = ids
		out[i].Conf = conf
	}
	return out
}

// Service runs the HTTP API, the metrics collector and the optional
// Prometheus exporter.
type Service struct {
	cfg    *config.Config
	engine *corerec.Engine
	bus    *eventbus.Bus[coremetrics.Event]
	sink   coremetrics.MetricsSink
	server *http.Server
	addr   atomic.Value
	log    logger.Logger
}

// New wires a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, nil); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	coremon.Init(mon)

	engine, err := NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	forecaster, err := NewForecaster(cfg.Forecast)
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(SinkConfigs(cfg))
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	bus := eventbus.New[coremetrics.Event](0)
	opts := []api.Option{api.WithEventBus(bus), api.WithMaxSamples(cfg.API.MaxSamples)}
	if forecaster != nil {
		opts = append(opts, api.WithForecaster(forecaster))
	}
	handler := api.NewHandler(engine, opts...)

	return &Service{
		cfg:    cfg,
		engine: engine,
		bus:    bus,
		sink:   sink,
		server: &http.Server{
			Addr:              cfg.API.Address,
			Handler:           handler.Routes(),
			ReadTimeout:       cfg.API.ReadTimeout(),
			ReadHeaderTimeout: cfg.API.ReadTimeout(),
		},
		log: logg,
	}, nil
}

// Engine returns the recommendation engine.
func (s *Service) Engine() *corerec.Engine { return s.engine }

// Addr returns the bound API address once Run is listening.
func (s *Service) Addr() string {
	if v, ok := s.addr.Load().(string); ok {
		return v
	}
	return ""
}

// Run starts the service and blocks until the context is cancelled or a
// component fails.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	s.addr.Store(ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	done := metrics.StartEventCollector(gctx, s.bus, s.sink)
	g.Go(func() error {
		<-done
		return nil
	})
	g.Go(func() error {
		s.log.Infof("API listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := s.server.Shutdown(shutdownCtx)
		s.bus.Close()
		return err
	})
	if addr := s.cfg.Metrics.PrometheusAddress; addr != "" {
		g.Go(func() error {
			s.log.Infof("Prometheus exporter listening on %s", addr)
			return metrics.StartPromServer(gctx, addr)
		})
	}
	return g.Wait()
}

// Close flushes buffered monitoring events.
func (s *Service) Close() error {
	if d := s.bus.Dropped(); d > 0 {
		s.log.Warnf("%d metrics events dropped", d)
	}
	coremon.Flush(2 * time.Second)
	return nil
}
