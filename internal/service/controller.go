package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"glucose-dashboard/internal/glucose"
	"glucose-dashboard/internal/metrics"
	"glucose-dashboard/internal/scheduler"
)

// State is the controller run state.
type State string

const (
	StatePaused  State = "paused"
	StateRunning State = "running"
)

// SourceSynthetic is the only source that produces samples.
const SourceSynthetic = "synthetic"

// ErrUnknownSource is returned when selecting a source that is not registered.
var ErrUnknownSource = errors.New("unknown data source")

// Ticker starts periodic jobs. *scheduler.Scheduler satisfies it.
type Ticker interface {
	Start(ctx context.Context, tick scheduler.TickFunc) scheduler.Job
}

// ControllerOptions configure the controller.
type ControllerOptions struct {
	Source     string
	Sources    []string
	Retention  time.Duration
	ViewWindow time.Duration
	// OnTick, when set, observes every completed tick.
	OnTick func(TickResult)
}

// Controller drives the Service through the Paused and Running states and
// serialises ticks against reads.
type Controller struct {
	svc    *Service
	ticker Ticker
	logger zerolog.Logger
	opts   ControllerOptions
	now    func() time.Time

	mu         sync.Mutex
	state      State
	source     string
	sources    map[string]bool
	viewOffset time.Duration
	job        scheduler.Job
	generation uint64
}

// NewController returns a paused controller.
func NewController(svc *Service, ticker Ticker, opts ControllerOptions, logger zerolog.Logger) *Controller {
	sources := map[string]bool{SourceSynthetic: true}
	for _, s := range opts.Sources {
		sources[s] = true
	}
	source := opts.Source
	if source == "" {
		source = SourceSynthetic
	}
	sources[source] = true

	metrics.SetRunning(false)
	return &Controller{
		svc:     svc,
		ticker:  ticker,
		logger:  logger.With().Str("component", "controller").Logger(),
		opts:    opts,
		now:     time.Now,
		state:   StatePaused,
		source:  source,
		sources: sources,
	}
}

// Start transitions to Running. On the synthetic source it runs one tick
// immediately and then schedules the periodic job. Other sources only flip
// the state. Calling Start while Running is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	result := c.startLocked(ctx)
	c.mu.Unlock()

	c.svc.Notify(ctx, result)
	return nil
}

func (c *Controller) startLocked(ctx context.Context) TickResult {
	if c.state == StateRunning {
		return TickResult{}
	}
	c.state = StateRunning
	c.generation++
	metrics.SetRunning(true)

	if c.source != SourceSynthetic {
		c.logger.Warn().Str("source", c.source).Msg("source produces no data; running without ticks")
		return TickResult{}
	}

	c.logger.Info().Str("source", c.source).Msg("simulation started")
	result, err := c.tickLocked(ctx, c.now())
	if err != nil {
		c.logger.Error().Err(err).Msg("initial tick failed")
	}

	gen := c.generation
	c.job = c.ticker.Start(ctx, func(ctx context.Context, at time.Time) error {
		c.mu.Lock()
		if c.state != StateRunning || c.generation != gen {
			c.mu.Unlock()
			return nil
		}
		result, err := c.tickLocked(ctx, at)
		c.mu.Unlock()
		if err != nil {
			return err
		}
		c.svc.Notify(ctx, result)
		return nil
	})
	return result
}

// Pause cancels the periodic job. Pausing while Paused is a no-op.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauseLocked("requested")
}

func (c *Controller) pauseLocked(reason string) {
	if c.state == StatePaused {
		return
	}
	c.state = StatePaused
	c.generation++
	if c.job != nil {
		c.job.Stop()
		c.job = nil
	}
	metrics.SetRunning(false)
	c.logger.Info().Str("reason", reason).Msg("simulation paused")
}

// SetActiveSource selects the data source. Switching while Running pauses.
func (c *Controller) SetActiveSource(source string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.sources[source] {
		return fmt.Errorf("%w: %s", ErrUnknownSource, source)
	}
	if source == c.source {
		return nil
	}
	c.pauseLocked("source changed")
	c.logger.Info().Str("from", c.source).Str("to", source).Msg("active source changed")
	c.source = source
	return nil
}

// SetViewOffset moves the view window back from the latest sample. The offset
// is clamped into [0, retention-viewWindow] and the applied value returned.
func (c *Controller) SetViewOffset(offset time.Duration) time.Duration {
	limit := c.opts.Retention - c.opts.ViewWindow
	if limit < 0 {
		limit = 0
	}
	switch {
	case offset < 0:
		offset = 0
	case offset > limit:
		offset = limit
	}

	c.mu.Lock()
	c.viewOffset = offset
	c.mu.Unlock()
	return offset
}

// Tick runs one tick regardless of state.
func (c *Controller) Tick(ctx context.Context) error {
	c.mu.Lock()
	result, err := c.tickLocked(ctx, c.now())
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.svc.Notify(ctx, result)
	return nil
}

// tickLocked runs the pipeline. Alerts in the result are delivered by the
// caller once c.mu is released.
func (c *Controller) tickLocked(ctx context.Context, at time.Time) (TickResult, error) {
	result, err := c.svc.ProcessTick(ctx, at)
	if err != nil {
		return TickResult{}, err
	}
	if c.opts.OnTick != nil {
		c.opts.OnTick(result)
	}
	return result, nil
}

// Seed backfills history ending now.
func (c *Controller) Seed() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.svc.SeedHistory(c.now())
}

// Dashboard returns the current read model.
func (c *Controller) Dashboard() Dashboard {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := unavailableDashboard()
	if c.source == SourceSynthetic {
		d = c.svc.Dashboard(c.viewOffset, c.opts.ViewWindow)
	}
	d.State = c.state
	d.Source = c.source
	d.ViewOffset = int(c.viewOffset.Minutes())
	d.Retained = c.svc.Retained()
	return d
}

// Snapshot saves the latest reading to the history log. An empty source
// labels the entry with the active source.
func (c *Controller) Snapshot(ctx context.Context, source string) (glucose.AuditEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if source == "" {
		source = c.source
	}
	return c.svc.Snapshot(ctx, source)
}

// State reports the run state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Source reports the active source.
func (c *Controller) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// ViewOffset reports the current view offset.
func (c *Controller) ViewOffset() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewOffset
}
