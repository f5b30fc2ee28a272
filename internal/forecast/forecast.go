// Package forecast projects short-horizon glucose values by linear
// extrapolation over a trailing window of samples.
package forecast

import (
	"time"

	"glucose-dashboard/internal/glucose"
)

const (
	// WindowSize is the maximum number of trailing samples used for the slope.
	WindowSize = 12
	// TrendThreshold is the slope, in mg/dL per minute, beyond which a trend
	// is labelled rising or falling.
	TrendThreshold = 0.25
)

// DefaultHorizons are the standard 30 and 60 minute projections.
var DefaultHorizons = []time.Duration{30 * time.Minute, 60 * time.Minute}

// Forecast is the result of one prediction.
type Forecast struct {
	Points []glucose.ForecastPoint `json:"list"`
	Trend  glucose.Trend           `json:"trend"`
	Slope  float64                 `json:"slope"` // mg/dL per minute
}

// At returns the point for the given horizon in minutes.
func (f Forecast) At(horizonMinutes int) (glucose.ForecastPoint, bool) {
	for _, p := range f.Points {
		if p.HorizonMinutes == horizonMinutes {
			return p, true
		}
	}
	return glucose.ForecastPoint{}, false
}

// ValueAt returns a pointer to the projected value at the horizon, or nil.
func (f Forecast) ValueAt(horizonMinutes int) *float64 {
	if p, ok := f.At(horizonMinutes); ok {
		return glucose.Float(p.Value)
	}
	return nil
}

// Values returns the projected values in horizon order.
func (f Forecast) Values() []float64 {
	values := make([]float64, len(f.Points))
	for i, p := range f.Points {
		values[i] = p.Value
	}
	return values
}

// Engine computes forecasts.
type Engine struct {
	bounds   glucose.Bounds
	horizons []time.Duration
}

// NewEngine constructs an Engine. Empty horizons fall back to DefaultHorizons.
func NewEngine(bounds glucose.Bounds, horizons []time.Duration) *Engine {
	if len(horizons) == 0 {
		horizons = DefaultHorizons
	}
	return &Engine{bounds: bounds, horizons: horizons}
}

// Predict projects the samples forward. ok is false while fewer than two
// samples are available.
func (e *Engine) Predict(samples []glucose.Sample) (Forecast, bool) {
	if len(samples) < 2 {
		return Forecast{}, false
	}

	window := samples
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}
	first, last := window[0], window[len(window)-1]

	elapsed := float64(last.Timestamp-first.Timestamp) / float64(time.Minute.Milliseconds())
	if elapsed < 1 {
		elapsed = 1
	}
	slope := (last.Value - first.Value) / elapsed
	trend := classifyTrend(slope)

	points := make([]glucose.ForecastPoint, 0, len(e.horizons))
	for _, h := range e.horizons {
		minutes := h.Minutes()
		points = append(points, glucose.ForecastPoint{
			HorizonMinutes: int(minutes),
			Timestamp:      last.Timestamp + h.Milliseconds(),
			Value:          e.bounds.Clamp(last.Value + slope*minutes),
			Trend:          trend,
		})
	}

	return Forecast{Points: points, Trend: trend, Slope: slope}, true
}

func classifyTrend(slope float64) glucose.Trend {
	switch {
	case slope > TrendThreshold:
		return glucose.TrendRising
	case slope < -TrendThreshold:
		return glucose.TrendFalling
	default:
		return glucose.TrendStable
	}
}
