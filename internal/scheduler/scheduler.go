package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// TickFunc is invoked on every interval.
type TickFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	AlignToStart bool
	StartupDelay time.Duration
}

// Job is a periodic job started by a Scheduler.
type Job interface {
	// Stop cancels the schedule. It does not wait for an in-flight tick.
	Stop()
	// Done is closed once the loop has exited.
	Done() <-chan struct{}
}

// Scheduler drives periodic execution of simulation ticks.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Start runs the loop on its own goroutine until the returned Job is stopped
// or ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context, tick TickFunc) Job {
	jobCtx, cancel := context.WithCancel(ctx)
	job := &periodicJob{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(job.done)
		if err := s.Run(jobCtx, tick); err != nil && jobCtx.Err() == nil {
			s.logger.Error().Err(err).Msg("scheduler loop exited")
		}
	}()

	return job
}

// Run blocks, invoking the tick function at each interval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, tick TickFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	next := s.nextTick(time.Now().UTC())
	for {
		delay := time.Until(next)
		if delay < 0 {
			next = s.nextTick(time.Now().UTC())
			delay = time.Until(next)
		}

		timer := time.NewTimer(delay)
		s.logger.Debug().Time("next_tick", next).Msg("waiting for next tick")

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
		}

		at := s.tickStart(next)
		if err := tick(ctx, at); err != nil {
			s.logger.Error().Err(err).Time("at", at).Msg("tick execution failed")
		}

		next = next.Add(s.opts.Interval)
	}
}

func (s *Scheduler) nextTick(now time.Time) time.Time {
	if !s.opts.AlignToStart {
		return now.Add(s.opts.Interval)
	}
	bucket := now.Truncate(s.opts.Interval)
	if !bucket.After(now) {
		bucket = bucket.Add(s.opts.Interval)
	}
	return bucket
}

func (s *Scheduler) tickStart(t time.Time) time.Time {
	if !s.opts.AlignToStart {
		return t
	}
	return t.Truncate(s.opts.Interval)
}

type periodicJob struct {
	cancel context.CancelFunc
	once   sync.Once
	done   chan struct{}
}

func (j *periodicJob) Stop() {
	j.once.Do(j.cancel)
}

func (j *periodicJob) Done() <-chan struct{} {
	return j.done
}
