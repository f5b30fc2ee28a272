package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTick(t *testing.T) {
	before := testutil.ToFloat64(TicksTotal.WithLabelValues("ok"))
	RecordTick("ok", 0.001)
	assert.Equal(t, before+1, testutil.ToFloat64(TicksTotal.WithLabelValues("ok")))
}

func TestRecordSample(t *testing.T) {
	RecordSample(123.4, 42)
	assert.Equal(t, 123.4, testutil.ToFloat64(CurrentValue))
	assert.Equal(t, 42.0, testutil.ToFloat64(RetainedSamples))
}

func TestRecordDangerAndLedger(t *testing.T) {
	before := testutil.ToFloat64(DangerEventsTotal.WithLabelValues("low"))
	RecordDanger("low")
	assert.Equal(t, before+1, testutil.ToFloat64(DangerEventsTotal.WithLabelValues("low")))

	beforeWrite := testutil.ToFloat64(LedgerWritesTotal.WithLabelValues("danger", "error"))
	RecordLedgerWrite("danger", "error")
	assert.Equal(t, beforeWrite+1, testutil.ToFloat64(LedgerWritesTotal.WithLabelValues("danger", "error")))
}

func TestSetRunning(t *testing.T) {
	SetRunning(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(ControllerRunning))
	SetRunning(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(ControllerRunning))
}
