// Package risk classifies current and projected glucose against clinical thresholds.
package risk

import (
	"fmt"

	"glucose-dashboard/internal/glucose"
)

// Thresholds bound the target range. Values strictly below Low or strictly
// above High are out of range.
type Thresholds struct {
	Low  float64
	High float64
}

// DefaultThresholds returns the standard 70/180 mg/dL range.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: glucose.ThresholdLow, High: glucose.ThresholdHigh}
}

// Validate checks that the range is non-empty.
func (t Thresholds) Validate() error {
	if t.Low >= t.High {
		return fmt.Errorf("low threshold %.1f must be below high threshold %.1f", t.Low, t.High)
	}
	return nil
}

// Classifier evaluates values against Thresholds.
type Classifier struct {
	thresholds Thresholds
}

// NewClassifier constructs a Classifier.
func NewClassifier(t Thresholds) *Classifier {
	return &Classifier{thresholds: t}
}

// Thresholds returns the configured range.
func (c *Classifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify returns RiskLow when the current value or any forecast is below
// the low threshold, otherwise RiskHigh when any is above the high threshold,
// otherwise RiskNone.
//
// Low is checked first and wins when both conditions hold, e.g. a low
// current value with a high forecast. This ordering is a policy choice, not a
// clinical judgement.
func (c *Classifier) Classify(current float64, forecasts []float64) glucose.RiskLevel {
	if current < c.thresholds.Low || anyBelow(forecasts, c.thresholds.Low) {
		return glucose.RiskLow
	}
	if current > c.thresholds.High || anyAbove(forecasts, c.thresholds.High) {
		return glucose.RiskHigh
	}
	return glucose.RiskNone
}

func anyBelow(values []float64, limit float64) bool {
	for _, v := range values {
		if v < limit {
			return true
		}
	}
	return false
}

func anyAbove(values []float64, limit float64) bool {
	for _, v := range values {
		if v > limit {
			return true
		}
	}
	return false
}
