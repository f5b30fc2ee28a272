package glucose

import (
	"time"

	"github.com/google/uuid"
)

// Log identifies one of the two audit logs.
type Log string

const (
	LogHistory Log = "history"
	LogDanger  Log = "danger"
)

// Valid reports whether l names a known log.
func (l Log) Valid() bool {
	return l == LogHistory || l == LogDanger
}

// AuditEntry is a persisted record of a manual snapshot or a danger event.
// Classification is only set on danger entries. Forecast fields are nil when
// no forecast was available at the time of capture.
type AuditEntry struct {
	ID             string    `json:"id"`
	Timestamp      int64     `json:"ts"`
	Value          float64   `json:"value"`
	Forecast30     *float64  `json:"f30,omitempty"`
	Forecast60     *float64  `json:"f60,omitempty"`
	Classification RiskLevel `json:"status,omitempty"`
	Source         string    `json:"source"`
}

// NewAuditEntry builds an entry stamped with a fresh ID.
func NewAuditEntry(ts int64, value float64, source string) AuditEntry {
	return AuditEntry{
		ID:        uuid.NewString(),
		Timestamp: ts,
		Value:     value,
		Source:    source,
	}
}

// WithForecasts attaches the 30 and 60 minute projections.
func (e AuditEntry) WithForecasts(f30, f60 *float64) AuditEntry {
	e.Forecast30 = f30
	e.Forecast60 = f60
	return e
}

// Time returns the entry timestamp as a time.Time.
func (e AuditEntry) Time() time.Time {
	return time.UnixMilli(e.Timestamp)
}

// Float returns a pointer to v, for optional entry fields.
func Float(v float64) *float64 {
	return &v
}
