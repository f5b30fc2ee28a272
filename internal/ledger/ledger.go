// Package ledger keeps the two append-only audit logs (manual snapshots and
// automatic danger events) on top of a durable key-value store.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"glucose-dashboard/internal/glucose"
	"glucose-dashboard/internal/metrics"
	"glucose-dashboard/internal/storage"
)

// Options configure the storage keys for each log.
type Options struct {
	HistoryKey string
	DangerKey  string
}

// Ledger holds an in-memory copy of each log, hydrated from the KV store on
// first use and written through on every mutation. When the store fails the
// in-memory copy stays authoritative and the failure is logged. A log that has
// not been read yet is never written, so stored entries are not overwritten by
// a partial list; entries appended meanwhile stay pending until the read
// succeeds and are then merged after the stored ones.
type Ledger struct {
	kv     storage.KV
	keys   map[glucose.Log]string
	logger zerolog.Logger

	mu      sync.Mutex
	entries map[glucose.Log][]glucose.AuditEntry
	loaded  map[glucose.Log]bool
}

// New constructs a Ledger over kv.
func New(kv storage.KV, opts Options, logger zerolog.Logger) *Ledger {
	if opts.HistoryKey == "" {
		opts.HistoryKey = string(glucose.LogHistory)
	}
	if opts.DangerKey == "" {
		opts.DangerKey = string(glucose.LogDanger)
	}
	return &Ledger{
		kv: kv,
		keys: map[glucose.Log]string{
			glucose.LogHistory: opts.HistoryKey,
			glucose.LogDanger:  opts.DangerKey,
		},
		logger:  logger.With().Str("component", "ledger").Logger(),
		entries: make(map[glucose.Log][]glucose.AuditEntry),
		loaded:  make(map[glucose.Log]bool),
	}
}

// AppendHistory records a manual snapshot.
func (l *Ledger) AppendHistory(ctx context.Context, entry glucose.AuditEntry) error {
	return l.append(ctx, glucose.LogHistory, entry)
}

// AppendDanger records an automatic danger event.
func (l *Ledger) AppendDanger(ctx context.Context, entry glucose.AuditEntry) error {
	return l.append(ctx, glucose.LogDanger, entry)
}

// Load returns the entries of log oldest-first. Persistence failures degrade
// to the last known in-memory list and are not returned.
func (l *Ledger) Load(ctx context.Context, log glucose.Log) ([]glucose.AuditEntry, error) {
	if !log.Valid() {
		return nil, fmt.Errorf("unknown log %q", log)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.hydrate(ctx, log)
	out := make([]glucose.AuditEntry, len(l.entries[log]))
	copy(out, l.entries[log])
	return out, nil
}

// Clear empties log by deleting its key. The in-memory list is cleared even
// if the delete fails.
func (l *Ledger) Clear(ctx context.Context, log glucose.Log) error {
	if !log.Valid() {
		return fmt.Errorf("unknown log %q", log)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[log] = nil
	l.loaded[log] = true
	if err := l.kv.Delete(ctx, l.keys[log]); err != nil && !storage.IsNotFound(err) {
		metrics.RecordLedgerWrite(string(log), "error")
		l.logger.Error().Err(err).Str("log", string(log)).Msg("failed to clear stored ledger")
		return fmt.Errorf("clear %s ledger: %w", log, err)
	}
	metrics.RecordLedgerWrite(string(log), "ok")
	return nil
}

// Len returns the number of entries in log.
func (l *Ledger) Len(ctx context.Context, log glucose.Log) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.hydrate(ctx, log)
	return len(l.entries[log])
}

func (l *Ledger) append(ctx context.Context, log glucose.Log, entry glucose.AuditEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	err := l.hydrate(ctx, log)
	l.entries[log] = append(l.entries[log], entry)
	if err != nil {
		metrics.RecordLedgerWrite(string(log), "pending")
		return fmt.Errorf("persist %s ledger: %w", log, err)
	}
	return l.persist(ctx, log)
}

// hydrate reads log from the store once and returns the read error while the
// store stays unreadable. Callers hold l.mu.
func (l *Ledger) hydrate(ctx context.Context, log glucose.Log) error {
	if l.loaded[log] {
		return nil
	}

	key := l.keys[log]
	raw, err := l.kv.Get(ctx, key)
	if err != nil {
		if !storage.IsNotFound(err) {
			l.logger.Error().Err(err).Str("log", string(log)).Int("pending", len(l.entries[log])).Msg("failed to load ledger; using in-memory entries")
			return fmt.Errorf("load %s ledger: %w", log, err)
		}
		raw = nil
	}

	var stored []glucose.AuditEntry
	if raw != nil {
		if err := json.Unmarshal(raw, &stored); err != nil {
			l.logger.Error().Err(err).Str("log", string(log)).Msg("corrupt ledger payload; starting from in-memory entries")
			stored = nil
		}
	}
	l.loaded[log] = true

	pending := l.entries[log]
	l.entries[log] = append(stored, pending...)
	if len(pending) > 0 {
		// Persist failures are logged; the merged list stays in memory.
		_ = l.persist(ctx, log)
	}
	return nil
}

// persist writes the full list for log. Callers hold l.mu.
func (l *Ledger) persist(ctx context.Context, log glucose.Log) error {
	list := l.entries[log]
	if list == nil {
		list = []glucose.AuditEntry{}
	}

	payload, err := json.Marshal(list)
	if err != nil {
		metrics.RecordLedgerWrite(string(log), "error")
		return fmt.Errorf("encode %s ledger: %w", log, err)
	}

	if err := l.kv.Set(ctx, l.keys[log], payload); err != nil {
		metrics.RecordLedgerWrite(string(log), "error")
		l.logger.Error().Err(err).Str("log", string(log)).Int("entries", len(list)).Msg("failed to persist ledger; keeping in-memory entries")
		return fmt.Errorf("persist %s ledger: %w", log, err)
	}

	metrics.RecordLedgerWrite(string(log), "ok")
	return nil
}
