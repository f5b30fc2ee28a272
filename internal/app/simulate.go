package app

import (
	"context"
	"errors"
	"os/signal"
	"sync/atomic"
	"syscall"

	"glucose-dashboard/internal/service"
)

// Simulate runs the controller without the HTTP API, logging every tick. With
// Ticks > 0 it stops after that many ticks, otherwise on SIGINT/SIGTERM.
func (a *App) Simulate(ctx context.Context, opts SimulateOptions) error {
	if opts.Ticks < 0 {
		return errors.New("ticks cannot be negative")
	}
	if a.Config.Simulation.Source != service.SourceSynthetic {
		return errors.New("simulate requires the synthetic source")
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ldg, closeLedger, err := a.openLedger()
	if err != nil {
		return err
	}
	defer closeLedger()

	var ticks, dangers atomic.Int64
	ctrl := a.newController(ldg, func(r service.TickResult) {
		if r.DangerLogged {
			dangers.Add(1)
		}
		if n := ticks.Add(1); opts.Ticks > 0 && n >= int64(opts.Ticks) {
			cancel()
		}
	})

	seeded, err := ctrl.Seed()
	if err != nil {
		return err
	}
	a.Logger.Info().Int("seeded", seeded).Int("ticks", opts.Ticks).Dur("interval", a.Config.Simulation.TickInterval).Msg("starting headless simulation")

	if err := ctrl.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	ctrl.Pause()

	a.Logger.Info().Int64("ticks", ticks.Load()).Int64("danger_entries", dangers.Load()).Msg("simulation finished")
	return nil
}
