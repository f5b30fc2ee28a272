package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"glucose-dashboard/internal/api"
)

// Serve runs the HTTP API and the simulation controller until interrupted.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	ldg, closeLedger, err := a.openLedger()
	if err != nil {
		return err
	}
	defer closeLedger()

	ctrl := a.newController(ldg, nil)
	if _, err := ctrl.Seed(); err != nil {
		return err
	}
	defer ctrl.Pause()

	if opts.Start {
		if err := ctrl.Start(ctx); err != nil {
			return err
		}
	}

	handler := api.NewHandler(ctx, ctrl, ldg, a.Logger)
	srv := &http.Server{
		Addr:         a.Config.Server.Addr,
		Handler:      api.NewRouter(handler, a.Logger),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Info().Str("addr", srv.Addr).Str("state", string(ctrl.State())).Msg("starting dashboard server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		ctrl.Pause()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		a.Logger.Error().Err(err).Msg("dashboard server terminated with error")
		return err
	}

	a.Logger.Info().Msg("dashboard server stopped")
	return nil
}
