package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"glucose-dashboard/internal/alerting"
	"glucose-dashboard/internal/forecast"
	"glucose-dashboard/internal/generator"
	"glucose-dashboard/internal/glucose"
	"glucose-dashboard/internal/ledger"
	"glucose-dashboard/internal/metrics"
	"glucose-dashboard/internal/risk"
	"glucose-dashboard/internal/series"
)

// ErrNoSamples is returned when a snapshot is requested before any sample exists.
var ErrNoSamples = errors.New("no samples available")

// Options tune the tick pipeline.
type Options struct {
	Source       string
	Baseline     float64
	Step         time.Duration
	Retention    time.Duration
	SeedCount    int
	DedupeDanger bool
}

// TickResult summarises one tick.
type TickResult struct {
	Sample       glucose.Sample
	Forecast     forecast.Forecast
	Pending      bool
	Risk         glucose.RiskLevel
	Pruned       int
	DangerLogged bool
	// Alert is set when a danger entry was recorded and a notifier is
	// configured. It is delivered by Notify.
	Alert *alerting.Notification
}

// Service owns the time series and runs the per-tick pipeline. It is not safe
// for concurrent use; the Controller serialises access.
type Service struct {
	generator  *generator.Generator
	series     *series.Store
	engine     *forecast.Engine
	classifier *risk.Classifier
	ledger     *ledger.Ledger
	notifier   alerting.Notifier
	logger     zerolog.Logger

	opts     Options
	lastRisk glucose.RiskLevel
}

// New constructs the pipeline. notifier may be nil.
func New(opts Options, gen *generator.Generator, store *series.Store, engine *forecast.Engine, classifier *risk.Classifier, ldg *ledger.Ledger, notifier alerting.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		generator:  gen,
		series:     store,
		engine:     engine,
		classifier: classifier,
		ledger:     ldg,
		notifier:   notifier,
		logger:     logger.With().Str("component", "service").Logger(),
		opts:       opts,
	}
}

// SeedHistory backfills the series ending at now. It does nothing when the
// series already holds samples and returns the number of samples added.
func (s *Service) SeedHistory(now time.Time) (int, error) {
	if s.series.Len() > 0 || s.opts.SeedCount <= 0 {
		return 0, nil
	}

	samples := s.generator.Seed(s.opts.SeedCount, s.opts.Step, s.opts.Baseline, now)
	if err := s.series.AppendAll(samples); err != nil {
		return 0, fmt.Errorf("seed history: %w", err)
	}
	s.series.Prune(s.opts.Retention)

	if latest, ok := s.series.Latest(); ok {
		metrics.RecordSample(latest.Value, s.series.Len())
	}
	s.logger.Info().Int("samples", len(samples)).Dur("step", s.opts.Step).Msg("history seeded")
	return len(samples), nil
}

// ProcessTick advances logical time by one step and runs the pipeline:
// generate, append, prune, forecast, classify and record danger events.
func (s *Service) ProcessTick(ctx context.Context, at time.Time) (TickResult, error) {
	started := time.Now()

	prev := s.opts.Baseline
	ts := at.UnixMilli()
	if last, ok := s.series.Latest(); ok {
		prev = last.Value
		ts = last.Timestamp + s.opts.Step.Milliseconds()
	}

	sample := glucose.Sample{Timestamp: ts, Value: s.generator.Next(prev)}
	if err := s.series.Append(sample); err != nil {
		metrics.RecordTick("error", time.Since(started).Seconds())
		return TickResult{}, fmt.Errorf("append sample: %w", err)
	}
	pruned := s.series.Prune(s.opts.Retention)

	fc, ok := s.engine.Predict(s.series.Tail(forecast.WindowSize))
	level := s.classifier.Classify(sample.Value, fc.Values())

	result := TickResult{
		Sample:   sample,
		Forecast: fc,
		Pending:  !ok,
		Risk:     level,
		Pruned:   pruned,
	}

	if level != glucose.RiskNone {
		result.Alert, result.DangerLogged = s.recordDanger(ctx, sample, fc, level)
	}
	s.lastRisk = level

	metrics.RecordSample(sample.Value, s.series.Len())
	metrics.RecordTick("ok", time.Since(started).Seconds())

	event := s.logger.Info().
		Time("ts", sample.Time()).
		Float64("value", sample.Value).
		Str("classification", level.String()).
		Int("retained", s.series.Len())
	if f30 := fc.ValueAt(30); f30 != nil {
		event = event.Float64("forecast_30", *f30)
	}
	if ok {
		event = event.Str("trend", string(fc.Trend))
	}
	event.Msg("tick complete")

	return result, nil
}

func (s *Service) recordDanger(ctx context.Context, sample glucose.Sample, fc forecast.Forecast, level glucose.RiskLevel) (*alerting.Notification, bool) {
	if s.opts.DedupeDanger && level == s.lastRisk {
		s.logger.Debug().Str("classification", level.String()).Msg("danger entry suppressed; still out of range")
		return nil, false
	}

	entry := glucose.NewAuditEntry(sample.Timestamp, sample.Value, s.opts.Source).
		WithForecasts(fc.ValueAt(30), fc.ValueAt(60))
	entry.Classification = level

	if err := s.ledger.AppendDanger(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Msg("danger entry kept in memory only")
	}
	metrics.RecordDanger(string(level))

	s.logger.Warn().
		Time("ts", sample.Time()).
		Float64("value", sample.Value).
		Str("classification", level.String()).
		Msg("danger event recorded")

	if s.notifier == nil {
		return nil, true
	}
	thresholds := s.classifier.Thresholds()
	return &alerting.Notification{
		Entry:         entry,
		Trend:         fc.Trend,
		LowThreshold:  thresholds.Low,
		HighThreshold: thresholds.High,
	}, true
}

// Notify delivers the alert of a tick, if any. It touches no series state,
// so callers run it without holding the controller lock.
func (s *Service) Notify(ctx context.Context, result TickResult) {
	if result.Alert == nil || s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, *result.Alert); err != nil {
		s.logger.Error().Err(err).Msg("failed to dispatch danger alert")
	}
}

// Snapshot appends a history entry built from the latest sample and its
// forecast, labelled with source.
func (s *Service) Snapshot(ctx context.Context, source string) (glucose.AuditEntry, error) {
	latest, ok := s.series.Latest()
	if !ok {
		return glucose.AuditEntry{}, ErrNoSamples
	}

	fc, _ := s.engine.Predict(s.series.Tail(forecast.WindowSize))
	entry := glucose.NewAuditEntry(latest.Timestamp, latest.Value, source).
		WithForecasts(fc.ValueAt(30), fc.ValueAt(60))

	if err := s.ledger.AppendHistory(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Msg("history entry kept in memory only")
	}
	s.logger.Info().Str("id", entry.ID).Float64("value", entry.Value).Str("source", source).Msg("snapshot saved")
	return entry, nil
}

// Dashboard builds the read model for the view window at offset.
func (s *Service) Dashboard(offset, width time.Duration) Dashboard {
	d := Dashboard{Points: s.series.WindowedView(offset, width)}
	if w, ok := s.series.ViewWindow(offset, width); ok {
		d.Window = &w
	}

	latest, ok := s.series.Latest()
	if !ok {
		d.Status = StatusEmpty
		d.Advice = waitingAdvice
		return d
	}
	d.Current = &latest

	thresholds := s.classifier.Thresholds()
	d.Range = glucose.ClassifyRange(latest.Value, thresholds.Low, thresholds.High)

	fc, ok := s.engine.Predict(s.series.Tail(forecast.WindowSize))
	if !ok {
		d.Status = StatusPending
		d.Risk = s.classifier.Classify(latest.Value, nil).String()
		d.Advice = glucose.Advice(d.Range, glucose.TrendStable)
		return d
	}

	d.Status = StatusOK
	d.Preds = &fc
	d.Risk = s.classifier.Classify(latest.Value, fc.Values()).String()
	d.Advice = glucose.Advice(d.Range, fc.Trend)
	return d
}

// Retained returns the number of samples currently held.
func (s *Service) Retained() int {
	return s.series.Len()
}
