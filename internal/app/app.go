package app

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"glucose-dashboard/internal/alerting"
	"glucose-dashboard/internal/config"
	"glucose-dashboard/internal/forecast"
	"glucose-dashboard/internal/generator"
	"glucose-dashboard/internal/glucose"
	"glucose-dashboard/internal/ledger"
	"glucose-dashboard/internal/risk"
	"glucose-dashboard/internal/scheduler"
	"glucose-dashboard/internal/series"
	"glucose-dashboard/internal/service"
	"glucose-dashboard/internal/storage"
	"glucose-dashboard/internal/storage/sqlite"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Out    io.Writer
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger(), Out: os.Stdout}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled || !a.Config.Alerting.Telegram.Enabled {
		return nil
	}
	cfg := a.Config.Alerting.Telegram
	telegram := alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.RequestTimeout, a.Logger)
	return alerting.NewCooldownNotifier(telegram, a.Config.Alerting.Cooldown, a.Logger)
}

// openKV opens the sqlite ledger file. An empty path selects a plain in-memory
// store and ":memory:" an in-memory sqlite database.
func (a *App) openKV() (storage.KV, func(), error) {
	path := a.Config.Ledger.Path
	if path == "" {
		a.Logger.Warn().Msg("ledger.path not configured; ledger entries will not survive restarts")
		kv := storage.NewMemoryKV()
		return kv, func() { _ = kv.Close() }, nil
	}

	var (
		store *sqlite.Store
		err   error
	)
	if path == sqlite.MemoryPath {
		a.Logger.Warn().Msg("ledger uses an in-memory sqlite database; entries will not survive restarts")
		store, err = sqlite.NewMemoryStore()
	} else {
		if err := ensureDir(path); err != nil {
			return nil, nil, fmt.Errorf("create ledger directory: %w", err)
		}
		store, err = sqlite.NewFileStore(path)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger store: %w", err)
	}
	closer := func() {
		if err := store.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("failed to close ledger store")
		}
	}
	return store, closer, nil
}

func (a *App) openLedger() (*ledger.Ledger, func(), error) {
	kv, closer, err := a.openKV()
	if err != nil {
		return nil, nil, err
	}
	ldg := ledger.New(kv, ledger.Options{
		HistoryKey: a.Config.Ledger.HistoryKey,
		DangerKey:  a.Config.Ledger.DangerKey,
	}, a.Logger)
	return ldg, closer, nil
}

func (a *App) newController(ldg *ledger.Ledger, onTick func(service.TickResult)) *service.Controller {
	sim := a.Config.Simulation
	bounds := glucose.Bounds{Min: sim.MinValue, Max: sim.MaxValue}

	var rnd generator.RandomSource
	if sim.Seed != 0 {
		rnd = generator.NewSeededSource(sim.Seed)
	}

	svc := service.New(service.Options{
		Source:       service.SourceSynthetic,
		Baseline:     sim.Baseline,
		Step:         sim.Step,
		Retention:    sim.Retention,
		SeedCount:    sim.SeedCount,
		DedupeDanger: a.Config.Ledger.DedupeDanger,
	},
		generator.New(rnd, bounds),
		series.NewStore(),
		forecast.NewEngine(bounds, sim.Horizons),
		risk.NewClassifier(risk.Thresholds{Low: sim.LowThreshold, High: sim.HighThreshold}),
		ldg,
		a.newNotifier(),
		a.Logger,
	)

	sched := scheduler.New(scheduler.Options{
		Interval:     sim.TickInterval,
		AlignToStart: sim.AlignTicks,
		StartupDelay: sim.StartupDelay,
	}, a.Logger)
	return service.NewController(svc, sched, service.ControllerOptions{
		Source:     sim.Source,
		Sources:    sim.Sources,
		Retention:  sim.Retention,
		ViewWindow: sim.ViewWindow,
		OnTick:     onTick,
	}, a.Logger)
}

// ServeOptions configure the serve command.
type ServeOptions struct {
	Start bool
}

// SimulateOptions configure the headless simulation.
type SimulateOptions struct {
	Ticks int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Log   glucose.Log
	Limit int
}

// ExportOptions hold parameters for exporting ledger entries.
type ExportOptions struct {
	Log        glucose.Log
	From       *time.Time
	To         *time.Time
	CSVPath    string
	MaxEntries int
}

func parseLog(log glucose.Log) (glucose.Log, error) {
	if log == "" {
		return glucose.LogHistory, nil
	}
	if !log.Valid() {
		return "", fmt.Errorf("unknown log %q (want %s or %s)", log, glucose.LogHistory, glucose.LogDanger)
	}
	return log, nil
}
