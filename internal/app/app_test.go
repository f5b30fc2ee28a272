package app

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glucose-dashboard/internal/config"
	"glucose-dashboard/internal/glucose"
	"glucose-dashboard/internal/storage/sqlite"
)

func testApp(t *testing.T) (*App, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		Simulation: config.SimulationConfig{
			MinValue:      60,
			MaxValue:      220,
			Baseline:      110,
			Step:          5 * time.Minute,
			Retention:     24 * time.Hour,
			ViewWindow:    2 * time.Hour,
			Horizons:      []time.Duration{30 * time.Minute, 60 * time.Minute},
			LowThreshold:  70,
			HighThreshold: 180,
			TickInterval:  5 * time.Millisecond,
			SeedCount:     12,
			Seed:          42,
			Source:        "synthetic",
			Sources:       []string{"synthetic", "device"},
		},
		Ledger: config.LedgerConfig{
			Path:       filepath.Join(t.TempDir(), "data", "glucose.db"),
			HistoryKey: "history",
			DangerKey:  "danger",
		},
		Server: config.ServerConfig{Addr: ":0"},
		Export: config.ExportConfig{MaxEntries: 1000},
	}
	require.NoError(t, cfg.Validate())

	out := &bytes.Buffer{}
	a := NewApp(cfg, zerolog.Nop())
	a.Out = out
	return a, out
}

func seedEntries(t *testing.T, a *App, log glucose.Log, values ...float64) {
	t.Helper()
	ldg, closeLedger, err := a.openLedger()
	require.NoError(t, err)
	defer closeLedger()

	ctx := context.Background()
	base := time.Date(2024, 1, 22, 10, 0, 0, 0, time.UTC)
	for i, v := range values {
		entry := glucose.NewAuditEntry(base.Add(time.Duration(i)*5*time.Minute).UnixMilli(), v, "synthetic").
			WithForecasts(glucose.Float(v+1), glucose.Float(v+2))
		if log == glucose.LogDanger {
			entry.Classification = glucose.RiskLow
			require.NoError(t, ldg.AppendDanger(ctx, entry))
			continue
		}
		require.NoError(t, ldg.AppendHistory(ctx, entry))
	}
}

func TestShow(t *testing.T) {
	a, out := testApp(t)
	seedEntries(t, a, glucose.LogDanger, 65, 64.25, 63)

	require.NoError(t, a.Show(context.Background(), ShowOptions{Log: glucose.LogDanger, Limit: 2}))

	text := out.String()
	assert.Contains(t, text, "Time (UTC)")
	assert.NotContains(t, text, "67.0")
	assert.Contains(t, text, "64.3")
	assert.Contains(t, text, "63.0")
	assert.Contains(t, text, "LOW")
}

func TestShowEmpty(t *testing.T) {
	a, out := testApp(t)

	require.NoError(t, a.Show(context.Background(), ShowOptions{Limit: 5}))
	assert.Equal(t, "no history entries found\n", out.String())
}

func TestShowUnknownLog(t *testing.T) {
	a, _ := testApp(t)
	assert.Error(t, a.Show(context.Background(), ShowOptions{Log: "bogus"}))
}

func TestClear(t *testing.T) {
	a, out := testApp(t)
	seedEntries(t, a, glucose.LogHistory, 110, 120)

	require.NoError(t, a.Clear(context.Background(), glucose.LogHistory))
	assert.Equal(t, "cleared 2 history entries\n", out.String())

	out.Reset()
	require.NoError(t, a.Show(context.Background(), ShowOptions{Log: glucose.LogHistory}))
	assert.Equal(t, "no history entries found\n", out.String())
}

func TestExportCSV(t *testing.T) {
	a, _ := testApp(t)
	seedEntries(t, a, glucose.LogHistory, 110, 120, 130)

	path := filepath.Join(t.TempDir(), "out", "history.csv")
	from := time.Date(2024, 1, 22, 10, 5, 0, 0, time.UTC)
	require.NoError(t, a.Export(context.Background(), ExportOptions{Log: glucose.LogHistory, CSVPath: path, From: &from}))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "value_mgdl", records[0][2])
	assert.Equal(t, "2024-01-22T10:05:00Z", records[1][1])
	assert.Equal(t, "120.0", records[1][2])
	assert.Equal(t, "121.0", records[1][3])
	assert.Equal(t, "132.0", records[2][4])
}

func TestExportValidation(t *testing.T) {
	a, _ := testApp(t)
	ctx := context.Background()

	assert.Error(t, a.Export(ctx, ExportOptions{}))

	from := time.Now()
	to := from.Add(-time.Hour)
	assert.Error(t, a.Export(ctx, ExportOptions{CSVPath: "x.csv", From: &from, To: &to}))
}

func TestDownsampleEntries(t *testing.T) {
	entries := make([]glucose.AuditEntry, 10)
	for i := range entries {
		entries[i] = glucose.AuditEntry{Timestamp: int64(i)}
	}

	out := downsampleEntries(entries, 4)
	require.Len(t, out, 4)
	assert.Equal(t, int64(0), out[0].Timestamp)
	assert.Equal(t, int64(9), out[3].Timestamp)

	assert.Len(t, downsampleEntries(entries, 20), 10)
	assert.Equal(t, int64(9), downsampleEntries(entries, 1)[0].Timestamp)
}

func TestSimulateStopsAfterTicks(t *testing.T) {
	a, _ := testApp(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, a.Simulate(ctx, SimulateOptions{Ticks: 3}))
	assert.NoError(t, ctx.Err(), "simulation should stop on its own")
}

func TestSimulateRejectsNonSyntheticSource(t *testing.T) {
	a, _ := testApp(t)
	a.Config.Simulation.Source = "device"

	assert.Error(t, a.Simulate(context.Background(), SimulateOptions{Ticks: 1}))
}

func TestOpenKVInMemory(t *testing.T) {
	a, _ := testApp(t)
	a.Config.Ledger.Path = ""

	kv, closeKV, err := a.openKV()
	require.NoError(t, err)
	defer closeKV()

	require.NoError(t, kv.Set(context.Background(), "history", []byte("[]")))
}

func TestOpenKVInMemorySQLite(t *testing.T) {
	a, _ := testApp(t)
	a.Config.Ledger.Path = sqlite.MemoryPath

	kv, closeKV, err := a.openKV()
	require.NoError(t, err)
	defer closeKV()

	assert.IsType(t, &sqlite.Store{}, kv)
	require.NoError(t, kv.Set(context.Background(), "danger", []byte("[]")))
	_, err = os.Stat(sqlite.MemoryPath)
	assert.True(t, os.IsNotExist(err))
}
