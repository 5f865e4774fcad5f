// Package recommendation exposes the contract optimizer over HTTP.
//
//	POST /api/stations/{id}/recommendation
//	POST /api/contracts/compare
//	GET  /healthz
package recommendation

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	coremetrics "github.com/kilianp07/chargecap/core/metrics"
	"github.com/kilianp07/chargecap/core/model"
	coremon "github.com/kilianp07/chargecap/core/monitoring"
	"github.com/kilianp07/chargecap/core/prediction"
	corerec "github.com/kilianp07/chargecap/core/recommendation"
	"github.com/kilianp07/chargecap/infra/logger"
	"github.com/kilianp07/chargecap/internal/eventbus"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

const maxBodyBytes = 8 << 20

type recommendationRequest struct {
	CurrentContractKW      float64   `json:"current_contract_kw" validate:"gt=0"`
	PredictionDistribution []float64 `json:"prediction_distribution" validate:"omitempty,dive,gte=0"`
	RiskTolerance          *float64  `json:"risk_tolerance" validate:"omitempty,gte=0,lte=1"`
}

type compareRequest struct {
	CurrentKW float64 `json:"current_kw" validate:"gt=0"`
	NewKW     float64 `json:"new_kw" validate:"gt=0"`
	ActualKW  float64 `json:"actual_kw" validate:"gte=0"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id"`
}

// Handler serves recommendations and contract comparisons.
type Handler struct {
	engine     *corerec.Engine
	bus        eventbus.EventBus[coremetrics.Event]
	forecaster prediction.Forecaster
	maxSamples int
	validate   *validator.Validate
	log        logger.Logger
	now        func() time.Time
}

// Option customises a Handler.
type Option func(*Handler)

// WithEventBus publishes a metrics event for every served or rejected request.
func WithEventBus(bus eventbus.EventBus[coremetrics.Event]) Option {
	return func(h *Handler) { h.bus = bus }
}

// WithForecaster supplies the distribution when a request body omits it.
func WithForecaster(f prediction.Forecaster) Option {
	return func(h *Handler) { h.forecaster = f }
}

// WithMaxSamples bounds the accepted distribution size. Zero disables the bound.
func WithMaxSamples(n int) Option {
	return func(h *Handler) { h.maxSamples = n }
}

// WithLogger overrides the component logger.
func WithLogger(l logger.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// NewHandler builds a Handler around engine.
func NewHandler(engine *corerec.Engine, opts ...Option) *Handler {
	h := &Handler{
		engine:   engine,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      logger.New("api"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Routes returns a mux with every endpoint registered.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stations/{id}/recommendation", h.recommend)
	mux.HandleFunc("POST /api/contracts/compare", h.compare)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
			r.Header.Set(RequestIDHeader, id)
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) recommend(w http.ResponseWriter, r *http.Request) {
	start := h.now()
	reqID := r.Header.Get(RequestIDHeader)
	stationID := r.PathValue("id")

	var req recommendationRequest
	if err := h.decode(w, r, &req); err != nil {
		h.reject(w, reqID, stationID, "recommend", err)
		return
	}
	dist := req.PredictionDistribution
	if len(dist) == 0 && h.forecaster != nil {
		var err error
		dist, err = h.forecaster.PeakDistribution(r.Context(), stationID)
		if errors.Is(err, prediction.ErrUnknownStation) {
			h.reject(w, reqID, stationID, "recommend", fmt.Errorf("%w: %v", model.ErrInvalidInput, err))
			return
		}
		if err != nil {
			h.fail(w, reqID, stationID, "recommend", err)
			return
		}
	}
	if h.maxSamples > 0 && len(dist) > h.maxSamples {
		h.reject(w, reqID, stationID, "recommend",
			fmt.Errorf("%w: %d samples exceed the limit of %d", model.ErrInvalidInput, len(dist), h.maxSamples))
		return
	}

	var (
		rec model.Recommendation
		err error
	)
	if req.RiskTolerance != nil {
		rec, err = h.engine.GenerateWithRisk(stationID, dist, req.CurrentContractKW, *req.RiskTolerance)
	} else {
		rec, err = h.engine.Generate(stationID, dist, req.CurrentContractKW)
	}
	if errors.Is(err, model.ErrInvalidInput) {
		h.reject(w, reqID, stationID, "recommend", err)
		return
	}
	if err != nil {
		h.fail(w, reqID, stationID, "recommend", err)
		return
	}

	took := h.now().Sub(start)
	h.publish(coremetrics.NewRecommendationEvent(reqID, rec, len(dist), took))
	h.log.Debugw("recommendation served", map[string]any{
		"request_id":      reqID,
		"station_id":      stationID,
		"recommended_kw":  rec.RecommendedContractKW,
		"action_required": rec.ActionRequired,
		"urgency":         rec.UrgencyLevel,
	})
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) compare(w http.ResponseWriter, r *http.Request) {
	reqID := r.Header.Get(RequestIDHeader)
	var req compareRequest
	if err := h.decode(w, r, &req); err != nil {
		h.reject(w, reqID, "", "compare", err)
		return
	}
	cmp, err := h.engine.Optimizer().CostModel().CompareContracts(req.CurrentKW, req.NewKW, req.ActualKW)
	if errors.Is(err, model.ErrInvalidInput) {
		h.reject(w, reqID, "", "compare", err)
		return
	}
	if err != nil {
		h.fail(w, reqID, "", "compare", err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

// decode reads a JSON body into v and validates it. Every returned error
// wraps model.ErrInvalidInput.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed body: %v", model.ErrInvalidInput, err)
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: field %s fails %s=%s", model.ErrInvalidInput, fe.Field(), fe.Tag(), fe.Param())
		}
		return fmt.Errorf("%w: %v", model.ErrInvalidInput, err)
	}
	return nil
}

func (h *Handler) reject(w http.ResponseWriter, reqID, stationID, op string, err error) {
	h.log.Warnf("%s rejected (request %s): %v", op, reqID, err)
	h.publish(coremetrics.RejectionEvent{
		RequestID: reqID,
		StationID: stationID,
		Operation: op,
		Reason:    err.Error(),
		Time:      h.now(),
	})
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), RequestID: reqID})
}

func (h *Handler) fail(w http.ResponseWriter, reqID, stationID, op string, err error) {
	h.log.Errorf("%s failed (request %s): %v", op, reqID, err)
	coremon.CaptureException(err, map[string]string{
		"module":     "api",
		"operation":  op,
		"request_id": reqID,
		"station_id": stationID,
	})
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", RequestID: reqID})
}

func (h *Handler) publish(ev coremetrics.Event) {
	if h.bus == nil {
		return
	}
	if !h.bus.Publish(ev) {
		h.log.Debugf("metrics event %T dropped", ev)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
