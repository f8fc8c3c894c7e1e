package device

import (
	"sync"
	"time"
)

// DefaultHistorySize is the number of session records kept.
const DefaultHistorySize = 50

// History keeps the most recent session records. It is safe for concurrent
// use so the records can be read while the loop runs.
type History struct {
	mu      sync.Mutex
	limit   int
	records []Record
}

// NewHistory creates a history holding up to limit records.
func NewHistory(limit int) *History {
	if limit <= 0 {
		limit = DefaultHistorySize
	}
	return &History{limit: limit, records: make([]Record, 0, limit)}
}

func (h *History) add(r Record) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	if len(h.records) > h.limit {
		h.records = h.records[1:]
	}
}

// Records returns the retained records, oldest first.
func (h *History) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]Record, len(h.records))
	copy(out, h.records)
	return out
}

// Summary aggregates the retained records.
type Summary struct {
	Sessions  int
	Completed int
	Failed    int

	// Averages over completed sessions.
	Average         map[Phase]time.Duration
	AverageDuration time.Duration
}

// Summary averages phase latency over completed sessions.
func (h *History) Summary() Summary {
	h.mu.Lock()
	defer h.mu.Unlock()

	s := Summary{Sessions: len(h.records), Average: make(map[Phase]time.Duration)}
	for _, r := range h.records {
		if !r.Completed {
			s.Failed++
			continue
		}
		s.Completed++
		s.AverageDuration += r.Duration
		for p, d := range r.Phases {
			s.Average[p] += d
		}
	}
	if s.Completed == 0 {
		return s
	}
	n := time.Duration(s.Completed)
	s.AverageDuration /= n
	for p := range s.Average {
		s.Average[p] /= n
	}
	return s
}
