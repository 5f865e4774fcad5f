package prediction

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownStation is returned when a forecaster has no samples for a station.
var ErrUnknownStation = errors.New("unknown station")

// Forecaster returns a distribution of predicted monthly peaks for a station.
// Callers own the returned slice.
type Forecaster interface {
	PeakDistribution(ctx context.Context, stationID string) ([]float64, error)
}

// StaticForecaster serves fixed samples per station.
type StaticForecaster struct {
	samples map[string][]float64
}

// NewStaticForecaster copies the provided samples.
func NewStaticForecaster(samples map[string][]float64) *StaticForecaster {
	cp := make(map[string][]float64, len(samples))
	for id, s := range samples {
		cp[id] = append([]float64(nil), s...)
	}
	return &StaticForecaster{samples: cp}
}

// PeakDistribution returns a copy of the station's samples.
func (f *StaticForecaster) PeakDistribution(ctx context.Context, stationID string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s, ok := f.samples[stationID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownStation, stationID)
	}
	return append([]float64(nil), s...), nil
}
