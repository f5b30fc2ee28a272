package app

import (
	"context"
	"fmt"

	"glucose-dashboard/internal/glucose"
)

// Clear empties one ledger log.
func (a *App) Clear(ctx context.Context, log glucose.Log) error {
	log, err := parseLog(log)
	if err != nil {
		return err
	}

	ldg, closeLedger, err := a.openLedger()
	if err != nil {
		return err
	}
	defer closeLedger()

	count := ldg.Len(ctx, log)
	if err := ldg.Clear(ctx, log); err != nil {
		return err
	}

	a.Logger.Info().Str("log", string(log)).Int("removed", count).Msg("ledger cleared")
	fmt.Fprintf(a.Out, "cleared %d %s entries\n", count, log)
	return nil
}
