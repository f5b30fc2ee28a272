package app

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"glucose-dashboard/internal/glucose"
)

// Export writes ledger entries within [From, To) as CSV.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" {
		return errors.New("--csv must be provided")
	}

	log, err := parseLog(opts.Log)
	if err != nil {
		return err
	}
	opts.MaxEntries = a.Config.ResolveMaxEntries(opts.MaxEntries)

	if opts.From != nil && opts.To != nil && !opts.From.Before(*opts.To) {
		return errors.New("from must be before to")
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

	entries = filterEntries(entries, opts.From, opts.To)
	if len(entries) == 0 {
		a.Logger.Info().Str("log", string(log)).Msg("no entries found for export window")
		return nil
	}

	downsampled := downsampleEntries(entries, opts.MaxEntries)
	a.Logger.Info().Str("log", string(log)).Int("total", len(entries)).Int("exported", len(downsampled)).Msg("exporting entries")

	return writeEntriesCSV(opts.CSVPath, downsampled)
}

func filterEntries(entries []glucose.AuditEntry, from, to *time.Time) []glucose.AuditEntry {
	if from == nil && to == nil {
		return entries
	}
	out := make([]glucose.AuditEntry, 0, len(entries))
	for _, entry := range entries {
		t := entry.Time()
		if from != nil && t.Before(*from) {
			continue
		}
		if to != nil && !t.Before(*to) {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func downsampleEntries(entries []glucose.AuditEntry, max int) []glucose.AuditEntry {
	if max <= 0 || len(entries) <= max {
		return entries
	}
	if max == 1 {
		return entries[len(entries)-1:]
	}

	result := make([]glucose.AuditEntry, 0, max)
	step := float64(len(entries)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(entries) {
			idx = len(entries) - 1
		}
		result = append(result, entries[idx])
	}
	return result
}

func writeEntriesCSV(path string, entries []glucose.AuditEntry) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"id", "ts", "value_mgdl", "forecast_30", "forecast_60", "classification", "source"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, entry := range entries {
		classification := ""
		if entry.Classification != glucose.RiskNone {
			classification = string(entry.Classification)
		}
		record := []string{
			entry.ID,
			entry.Time().UTC().Format(time.RFC3339),
			formatValue(entry.Value),
			optionalCSV(entry.Forecast30),
			optionalCSV(entry.Forecast60),
			classification,
			entry.Source,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func optionalCSV(v *float64) string {
	if v == nil {
		return ""
	}
	return formatValue(*v)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatValue(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(1)
}
