// Package series provides an append-only, time-ordered sample buffer with
// retention and windowed range queries.
package series

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"glucose-dashboard/internal/glucose"
)

// ErrOrderViolation is returned when an appended sample does not advance time.
var ErrOrderViolation = errors.New("series: sample timestamp must be strictly increasing")

// Window is an inclusive time range in Unix milliseconds.
type Window struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Store holds samples sorted by ascending timestamp. It is not safe for
// concurrent use; the owner serialises access.
type Store struct {
	samples []glucose.Sample
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Append inserts the sample at the tail.
func (s *Store) Append(sample glucose.Sample) error {
	if n := len(s.samples); n > 0 && sample.Timestamp <= s.samples[n-1].Timestamp {
		return fmt.Errorf("%w: %d after %d", ErrOrderViolation, sample.Timestamp, s.samples[n-1].Timestamp)
	}
	s.samples = append(s.samples, sample)
	return nil
}

// AppendAll appends samples in order, stopping at the first failure.
func (s *Store) AppendAll(samples []glucose.Sample) error {
	for _, sample := range samples {
		if err := s.Append(sample); err != nil {
			return err
		}
	}
	return nil
}

// Prune drops leading samples older than latest - retention and returns how
// many were removed. The most recent sample is always kept.
func (s *Store) Prune(retention time.Duration) int {
	n := len(s.samples)
	if n == 0 {
		return 0
	}

	cutoff := s.samples[n-1].Timestamp - retention.Milliseconds()
	drop := sort.Search(n, func(i int) bool {
		return s.samples[i].Timestamp >= cutoff
	})
	if drop >= n {
		drop = n - 1
	}
	if drop <= 0 {
		return 0
	}

	kept := make([]glucose.Sample, n-drop)
	copy(kept, s.samples[drop:])
	s.samples = kept
	return drop
}

// ViewWindow resolves the window for an offset back from the latest sample.
// When the requested start predates the earliest sample the window is pinned
// to [earliest, earliest+width]. ok is false for an empty store.
func (s *Store) ViewWindow(offset, width time.Duration) (Window, bool) {
	n := len(s.samples)
	if n == 0 {
		return Window{}, false
	}

	earliest := s.samples[0].Timestamp
	end := s.samples[n-1].Timestamp - offset.Milliseconds()
	start := end - width.Milliseconds()
	if start < earliest {
		start = earliest
		end = earliest + width.Milliseconds()
	}
	return Window{Start: start, End: end}, true
}

// WindowedView returns a copy of the samples inside the resolved view window.
func (s *Store) WindowedView(offset, width time.Duration) []glucose.Sample {
	w, ok := s.ViewWindow(offset, width)
	if !ok {
		return []glucose.Sample{}
	}
	return s.Range(w.Start, w.End)
}

// Range returns a copy of the samples with start <= ts <= end.
func (s *Store) Range(start, end int64) []glucose.Sample {
	lo := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Timestamp >= start
	})
	hi := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Timestamp > end
	})
	if lo >= hi {
		return []glucose.Sample{}
	}
	out := make([]glucose.Sample, hi-lo)
	copy(out, s.samples[lo:hi])
	return out
}

// Tail returns a copy of the last n samples (fewer if the store is shorter).
func (s *Store) Tail(n int) []glucose.Sample {
	if n > len(s.samples) {
		n = len(s.samples)
	}
	if n <= 0 {
		return []glucose.Sample{}
	}
	out := make([]glucose.Sample, n)
	copy(out, s.samples[len(s.samples)-n:])
	return out
}

// Samples returns a copy of all retained samples.
func (s *Store) Samples() []glucose.Sample {
	return s.Tail(len(s.samples))
}

// Latest returns the most recent sample.
func (s *Store) Latest() (glucose.Sample, bool) {
	if len(s.samples) == 0 {
		return glucose.Sample{}, false
	}
	return s.samples[len(s.samples)-1], true
}

// Len returns the number of retained samples.
func (s *Store) Len() int {
	return len(s.samples)
}
