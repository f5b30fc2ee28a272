// Package glucose holds the plain data records shared by the monitoring core.
package glucose

import (
	"time"
)

// Value bounds in mg/dL. Simulated and forecast values never leave them.
const (
	DefaultMinValue = 60.0
	DefaultMaxValue = 220.0
)

// Clinical thresholds in mg/dL.
const (
	ThresholdLow  = 70.0
	ThresholdHigh = 180.0
)

// Sample is one measurement.
type Sample struct {
	Timestamp int64   `json:"ts"` // Unix milliseconds
	Value     float64 `json:"value"`
}

// Time returns the sample timestamp as a time.Time.
func (s Sample) Time() time.Time {
	return time.UnixMilli(s.Timestamp)
}

// Bounds is the closed interval every produced value is clamped into.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds returns the standard [60, 220] interval.
func DefaultBounds() Bounds {
	return Bounds{Min: DefaultMinValue, Max: DefaultMaxValue}
}

// Clamp limits v to the bounds.
func (b Bounds) Clamp(v float64) float64 {
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}
	return v
}

// Trend is the direction label attached to a forecast.
type Trend string

const (
	TrendRising  Trend = "rising"
	TrendFalling Trend = "falling"
	TrendStable  Trend = "stable"
)

// ForecastPoint is a projected value at a future horizon.
type ForecastPoint struct {
	HorizonMinutes int     `json:"horizon"`
	Timestamp      int64   `json:"ts"`
	Value          float64 `json:"value"`
	Trend          Trend   `json:"trend"`
}

// RiskLevel is the outcome of threshold classification.
type RiskLevel string

const (
	RiskNone RiskLevel = ""
	RiskLow  RiskLevel = "low"
	RiskHigh RiskLevel = "high"
)

// String returns a printable label; RiskNone renders as "none".
func (r RiskLevel) String() string {
	if r == RiskNone {
		return "none"
	}
	return string(r)
}
