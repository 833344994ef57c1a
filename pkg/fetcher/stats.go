package fetcher

import (
	"sync"
	"time"

	"mediafetch/pkg/models"
)

// Stats accumulates RunStats. It is written by the engine and may be read
// concurrently by status endpoints.
type Stats struct {
	mu    sync.RWMutex
	stats models.RunStats
	now   func() time.Time
}

// NewStats creates a zeroed counter set.
func NewStats(now func() time.Time) *Stats {
	if now == nil {
		now = time.Now
	}
	return &Stats{now: now}
}

// Reset zeroes the counters and stamps the start time.
func (s *Stats) Reset() {
	s.mu.Lock()
	s.stats = models.RunStats{StartTime: s.now()}
	s.mu.Unlock()
}

// Apply counts a terminal outcome. Interrupted outcomes are ignored.
func (s *Stats) Apply(o models.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch o.Kind {
	case models.OutcomeDownloaded:
		s.stats.Downloaded++
		s.stats.BytesDownloaded += o.Bytes
	case models.OutcomeAlreadyPresent:
		s.stats.AlreadyPresent++
	case models.OutcomeSkippedByUser:
		s.stats.Skipped++
	case models.OutcomeFiltered:
		s.stats.Skipped++
		s.stats.Filtered++
	case models.OutcomeFailed:
		s.stats.Failed++
	}
}

// Snapshot returns a copy with Elapsed filled in.
func (s *Stats) Snapshot() models.RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.stats
	if !out.StartTime.IsZero() {
		out.Elapsed = s.now().Sub(out.StartTime)
	}
	return out
}
