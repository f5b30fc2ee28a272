package app

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"glucose-dashboard/internal/glucose"
)

// Show prints the most recent ledger entries.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	log, err := parseLog(opts.Log)
	if err != nil {
		return err
	}

	ldg, closeLedger, err := a.openLedger()
	if err != nil {
		return err
	}
	defer closeLedger()

	entries, err := ldg.Load(ctx, log)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintf(a.Out, "no %s entries found\n", log)
		return nil
	}
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[len(entries)-opts.Limit:]
	}

	writer := tabwriter.NewWriter(a.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tValue\t+30m\t+60m\tStatus\tSource")

	for _, entry := range entries {
		status := ""
		if entry.Classification != glucose.RiskNone {
			status = strings.ToUpper(entry.Classification.String())
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			entry.Time().UTC().Format(time.RFC3339),
			formatValue(entry.Value),
			formatOptional(entry.Forecast30),
			formatOptional(entry.Forecast60),
			status,
			sanitizeInline(entry.Source),
		)
	}

	return writer.Flush()
}

func formatOptional(v *float64) string {
	if v == nil {
		return "--"
	}
	return formatValue(*v)
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
