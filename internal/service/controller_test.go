package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucose-dashboard/internal/alerting"
	"glucose-dashboard/internal/scheduler"
)

type fakeJob struct {
	stops int
	done  chan struct{}
}

func (j *fakeJob) Stop() { j.stops++ }

func (j *fakeJob) Done() <-chan struct{} { return j.done }

// fakeTicker records started jobs instead of running timers.
type fakeTicker struct {
	jobs  []*fakeJob
	ticks []scheduler.TickFunc
}

func (f *fakeTicker) Start(_ context.Context, tick scheduler.TickFunc) scheduler.Job {
	job := &fakeJob{done: make(chan struct{})}
	f.jobs = append(f.jobs, job)
	f.ticks = append(f.ticks, tick)
	return job
}

func (f *fakeTicker) totalStops() int {
	total := 0
	for _, j := range f.jobs {
		total += j.stops
	}
	return total
}

func newController(t *testing.T, source string) (*Controller, *fakeTicker, fixture) {
	t.Helper()
	f := newFixture(t, Options{Baseline: 110, SeedCount: 24})
	ticker := &fakeTicker{}
	c := NewController(f.svc, ticker, ControllerOptions{
		Source:     source,
		Sources:    []string{SourceSynthetic, "device"},
		Retention:  24 * time.Hour,
		ViewWindow: 2 * time.Hour,
	}, zerolog.Nop())
	c.now = func() time.Time { return testNow }
	_, err := c.Seed()
	require.NoError(t, err)
	return c, ticker, f
}

func TestControllerStartsPaused(t *testing.T) {
	c, ticker, _ := newController(t, "")

	assert.Equal(t, StatePaused, c.State())
	assert.Equal(t, SourceSynthetic, c.Source())
	assert.Empty(t, ticker.jobs)
}

func TestStartTicksImmediatelyThenSchedules(t *testing.T) {
	c, ticker, f := newController(t, SourceSynthetic)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, StateRunning, c.State())
	assert.Equal(t, 25, f.svc.Retained())
	require.Len(t, ticker.jobs, 1)

	require.NoError(t, ticker.ticks[0](ctx, testNow))
	assert.Equal(t, 26, f.svc.Retained())

	require.NoError(t, c.Start(ctx))
	assert.Len(t, ticker.jobs, 1, "start while running is a no-op")
	assert.Equal(t, 26, f.svc.Retained())
}

func TestDoublePauseCancelsOnce(t *testing.T) {
	c, ticker, _ := newController(t, SourceSynthetic)

	require.NoError(t, c.Start(context.Background()))
	c.Pause()
	c.Pause()

	assert.Equal(t, StatePaused, c.State())
	assert.Equal(t, 1, ticker.totalStops())
}

func TestPauseWhilePausedDoesNothing(t *testing.T) {
	c, ticker, _ := newController(t, SourceSynthetic)

	c.Pause()
	assert.Equal(t, StatePaused, c.State())
	assert.Zero(t, ticker.totalStops())
}

func TestStaleTickAfterPauseIsIgnored(t *testing.T) {
	c, ticker, f := newController(t, SourceSynthetic)
	ctx := context.Background()

	require.NoError(t, c.Start(ctx))
	c.Pause()
	retained := f.svc.Retained()

	require.NoError(t, ticker.ticks[0](ctx, testNow))
	assert.Equal(t, retained, f.svc.Retained())

	require.NoError(t, c.Start(ctx))
	assert.Equal(t, retained+1, f.svc.Retained())
	require.NoError(t, ticker.ticks[0](ctx, testNow))
	assert.Equal(t, retained+1, f.svc.Retained(), "the first job's tick is stale")
	require.NoError(t, ticker.ticks[1](ctx, testNow))
	assert.Equal(t, retained+2, f.svc.Retained())
}

func TestStartOnNonSyntheticSourceSchedulesNothing(t *testing.T) {
	c, ticker, f := newController(t, "device")

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, StateRunning, c.State())
	assert.Empty(t, ticker.jobs)
	assert.Equal(t, 24, f.svc.Retained())

	c.Pause()
	assert.Equal(t, StatePaused, c.State())
	assert.Zero(t, ticker.totalStops())
}

func TestSetActiveSourceWhileRunningPauses(t *testing.T) {
	c, ticker, _ := newController(t, SourceSynthetic)

	require.NoError(t, c.Start(context.Background()))
	require.NoError(t, c.SetActiveSource("device"))

	assert.Equal(t, StatePaused, c.State())
	assert.Equal(t, "device", c.Source())
	assert.Equal(t, 1, ticker.totalStops())
}

func TestSetActiveSourceUnknown(t *testing.T) {
	c, _, _ := newController(t, SourceSynthetic)

	err := c.SetActiveSource("cgm-cloud")
	assert.True(t, errors.Is(err, ErrUnknownSource))
	assert.Equal(t, SourceSynthetic, c.Source())
}

func TestSetViewOffsetClamps(t *testing.T) {
	c, _, _ := newController(t, SourceSynthetic)

	assert.Equal(t, time.Duration(0), c.SetViewOffset(-5*time.Minute))
	assert.Equal(t, 22*time.Hour, c.SetViewOffset(23*time.Hour))
	assert.Equal(t, time.Hour, c.SetViewOffset(time.Hour))
	assert.Equal(t, time.Hour, c.ViewOffset())

	d := c.Dashboard()
	assert.Equal(t, 60, d.ViewOffset)
}

func TestControllerDashboard(t *testing.T) {
	c, _, _ := newController(t, SourceSynthetic)

	d := c.Dashboard()
	assert.Equal(t, StatusOK, d.Status)
	assert.Equal(t, StatePaused, d.State)
	assert.Equal(t, SourceSynthetic, d.Source)
	assert.Equal(t, 24, d.Retained)
	assert.NotEmpty(t, d.Points)

	require.NoError(t, c.SetActiveSource("device"))
	d = c.Dashboard()
	assert.Equal(t, StatusUnavailable, d.Status)
	assert.Empty(t, d.Points)
	assert.Equal(t, "device", d.Source)
}

func TestControllerSnapshotUsesActiveSource(t *testing.T) {
	c, _, _ := newController(t, SourceSynthetic)
	ctx := context.Background()

	entry, err := c.Snapshot(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, SourceSynthetic, entry.Source)

	entry, err = c.Snapshot(ctx, "fingerstick")
	require.NoError(t, err)
	assert.Equal(t, "fingerstick", entry.Source)
}

func TestOnTickObservesResults(t *testing.T) {
	f := newFixture(t, Options{Baseline: 110})
	var seen []TickResult
	c := NewController(f.svc, &fakeTicker{}, ControllerOptions{
		Retention:  24 * time.Hour,
		ViewWindow: 2 * time.Hour,
		OnTick:     func(r TickResult) { seen = append(seen, r) },
	}, zerolog.Nop())

	require.NoError(t, c.Tick(context.Background()))
	require.NoError(t, c.Tick(context.Background()))
	assert.Len(t, seen, 2)
	assert.True(t, seen[0].Pending)
	assert.False(t, seen[1].Pending)
}

// blockingNotifier holds every delivery until release is closed.
type blockingNotifier struct {
	entered chan struct{}
	release chan struct{}
}

func (n *blockingNotifier) Notify(ctx context.Context, _ alerting.Notification) error {
	n.entered <- struct{}{}
	select {
	case <-n.release:
	case <-ctx.Done():
	}
	return nil
}

func TestSlowAlertDoesNotBlockReads(t *testing.T) {
	f := newFixture(t, Options{Baseline: 65, SeedCount: 12})
	notifier := &blockingNotifier{entered: make(chan struct{}, 1), release: make(chan struct{})}
	f.svc.notifier = notifier

	c := NewController(f.svc, &fakeTicker{}, ControllerOptions{
		Retention:  24 * time.Hour,
		ViewWindow: 2 * time.Hour,
	}, zerolog.Nop())
	c.now = func() time.Time { return testNow }
	_, err := c.Seed()
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- c.Tick(context.Background()) }()

	select {
	case <-notifier.entered:
	case <-time.After(time.Second):
		t.Fatal("alert was not dispatched")
	}

	dash := c.Dashboard()
	assert.Equal(t, 13, dash.Retained)
	c.Pause()
	assert.Equal(t, StatePaused, c.State())

	close(notifier.release)
	require.NoError(t, <-done)
}
