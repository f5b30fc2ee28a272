package forecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucose-dashboard/internal/glucose"
)

const minute = int64(60 * 1000)

func newEngine() *Engine {
	return NewEngine(glucose.DefaultBounds(), nil)
}

func TestPredictPendingWithFewSamples(t *testing.T) {
	e := newEngine()

	_, ok := e.Predict(nil)
	assert.False(t, ok)

	_, ok = e.Predict([]glucose.Sample{{Timestamp: 0, Value: 100}})
	assert.False(t, ok)
}

func TestPredictRisingExample(t *testing.T) {
	t0 := int64(1705887600000)
	samples := []glucose.Sample{
		{Timestamp: t0, Value: 100},
		{Timestamp: t0 + 5*minute, Value: 110},
	}

	f, ok := newEngine().Predict(samples)
	require.True(t, ok)

	assert.InDelta(t, 2.0, f.Slope, 1e-9)
	assert.Equal(t, glucose.TrendRising, f.Trend)
	require.Len(t, f.Points, 2)

	p30, ok := f.At(30)
	require.True(t, ok)
	assert.InDelta(t, 170.0, p30.Value, 1e-9)
	assert.Equal(t, t0+5*minute+30*minute, p30.Timestamp)
	assert.Equal(t, glucose.TrendRising, p30.Trend)

	p60, ok := f.At(60)
	require.True(t, ok)
	assert.Equal(t, 220.0, p60.Value)
	assert.Equal(t, t0+5*minute+60*minute, p60.Timestamp)
}

func TestPredictFallingClampsLow(t *testing.T) {
	samples := []glucose.Sample{
		{Timestamp: 0, Value: 120},
		{Timestamp: 10 * minute, Value: 90},
	}

	f, ok := newEngine().Predict(samples)
	require.True(t, ok)
	assert.Equal(t, glucose.TrendFalling, f.Trend)
	assert.Equal(t, []float64{60, 60}, f.Values())
}

func TestPredictStable(t *testing.T) {
	samples := []glucose.Sample{
		{Timestamp: 0, Value: 110},
		{Timestamp: 20 * minute, Value: 114},
	}

	f, ok := newEngine().Predict(samples)
	require.True(t, ok)
	assert.Equal(t, glucose.TrendStable, f.Trend)
	assert.InDelta(t, 0.2, f.Slope, 1e-9)
	assert.InDelta(t, 120.0, f.Values()[0], 1e-9)
}

func TestPredictUsesTrailingWindow(t *testing.T) {
	samples := make([]glucose.Sample, 0, 20)
	// 8 wildly rising samples followed by 12 flat ones.
	for i := 0; i < 8; i++ {
		samples = append(samples, glucose.Sample{Timestamp: int64(i) * 5 * minute, Value: 60 + float64(i)*20})
	}
	for i := 8; i < 20; i++ {
		samples = append(samples, glucose.Sample{Timestamp: int64(i) * 5 * minute, Value: 150})
	}

	f, ok := newEngine().Predict(samples)
	require.True(t, ok)
	assert.Equal(t, 0.0, f.Slope)
	assert.Equal(t, glucose.TrendStable, f.Trend)
}

func TestPredictFloorsElapsedTime(t *testing.T) {
	samples := []glucose.Sample{
		{Timestamp: 0, Value: 100},
		{Timestamp: 1000, Value: 103},
	}

	f, ok := newEngine().Predict(samples)
	require.True(t, ok)
	assert.InDelta(t, 3.0, f.Slope, 1e-9)
}

func TestPredictCustomHorizons(t *testing.T) {
	e := NewEngine(glucose.DefaultBounds(), []time.Duration{15 * time.Minute})
	f, ok := e.Predict([]glucose.Sample{{Timestamp: 0, Value: 100}, {Timestamp: 5 * minute, Value: 100}})
	require.True(t, ok)
	require.Len(t, f.Points, 1)
	assert.Equal(t, 15, f.Points[0].HorizonMinutes)
	assert.Nil(t, f.ValueAt(30))
	require.NotNil(t, f.ValueAt(15))
	assert.Equal(t, 100.0, *f.ValueAt(15))
}
