package device

import (
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-sight/pkg/peripheral"
)

// Session is one trigger-to-idle cycle. It lives only until the loop
// returns to Idle.
type Session struct {
	ID        string
	StartedAt time.Time

	Frame       *peripheral.Frame
	Description string
	Audio       []byte

	phases map[Phase]time.Duration
}

func newSession(now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: now,
		phases:    make(map[Phase]time.Duration, 5),
	}
}

// Record is the retained summary of a finished session.
type Record struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Phases    map[Phase]time.Duration

	// Completed is false when the session was aborted; FailedPhase and Err
	// then say where and why.
	Completed   bool
	FailedPhase Phase
	Err         string

	DescriptionChars int
	AudioBytes       int
}

func (s *Session) record(end time.Time, failed *PhaseError) Record {
	r := Record{
		ID:               s.ID,
		StartedAt:        s.StartedAt,
		Duration:         end.Sub(s.StartedAt),
		Phases:           make(map[Phase]time.Duration, len(s.phases)),
		Completed:        failed == nil,
		DescriptionChars: len(s.Description),
		AudioBytes:       len(s.Audio),
	}
	for p, d := range s.phases {
		r.Phases[p] = d
	}
	if failed != nil {
		r.FailedPhase = failed.Phase
		r.Err = failed.Err.Error()
	}
	return r
}
