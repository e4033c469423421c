package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UnknownSize is the BytesTotal sentinel for transfers whose size the engine
// does not know. Any non-positive total is treated the same way.
const UnknownSize int64 = 0

// ID prefixes
const (
	SessionIDPrefix = "dl-"
	TabIDPrefix     = "tab-"
)

// SessionID identifies one download session across the event boundary
type SessionID string

// TabID identifies one browser tab
type TabID string

// NewSessionID generates a time ordered session ID
func NewSessionID() SessionID {
	return SessionID(newID(SessionIDPrefix))
}

// NewTabID generates a time ordered tab ID
func NewTabID() TabID {
	return TabID(newID(TabIDPrefix))
}

func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf("%s%d", prefix, time.Now().UnixNano())
	}
	return prefix + id.String()
}

// DownloadSession is one accepted (or pending) file transfer
type DownloadSession struct {
	ID            SessionID
	SuggestedName string
	SourceURL     string
	TargetPath    string // set once by Accept
	BytesReceived int64
	BytesTotal    int64 // <= 0 means unknown
	State         SessionState
	StartTime     time.Time
	FinishedAt    time.Time
	Throughput    float64 // bytes per second
	LastError     string
}

// NewSession creates a session in the Requested state
func NewSession(id SessionID, suggestedName, sourceURL string) *DownloadSession {
	return &DownloadSession{
		ID:            id,
		SuggestedName: suggestedName,
		SourceURL:     sourceURL,
		BytesTotal:    UnknownSize,
		State:         StateRequested,
	}
}

// Accept fixes the target path and moves the session to Accepted.
func (s *DownloadSession) Accept(path string, now time.Time) error {
	if path == "" {
		return fmt.Errorf("empty target path for session %s", s.ID)
	}
	if s.State != StateRequested {
		return fmt.Errorf("session %s cannot be accepted in state %s", s.ID, s.State)
	}
	s.TargetPath = path
	s.State = StateAccepted
	s.StartTime = now
	return nil
}

// SizeKnown reports whether the engine told us the total size
func (s *DownloadSession) SizeKnown() bool {
	return s.BytesTotal > 0
}

// ApplyProgress records a progress tick. Ticks for terminal sessions are
// dropped. While Paused the counters move but the throughput stays frozen,
// since the engine may still deliver a tick issued before the pause.
func (s *DownloadSession) ApplyProgress(received, total int64, now time.Time) {
	if s.State.IsTerminal() || s.State == StateRequested {
		return
	}
	if received < 0 {
		received = 0
	}
	if total > 0 && received > total {
		received = total
	}
	s.BytesReceived = received
	s.BytesTotal = total

	if s.State == StateAccepted {
		s.State = StateInProgress
	}
	if s.State == StatePaused {
		return
	}
	s.Throughput = float64(received) / s.elapsedSeconds(now)
}

// elapsedSeconds is the time since accept, floored to one second so that an
// early tick neither divides by zero nor reports an absurd rate.
func (s *DownloadSession) elapsedSeconds(now time.Time) float64 {
	elapsed := now.Sub(s.StartTime).Seconds()
	if elapsed < 1 {
		return 1
	}
	return elapsed
}

// SetState applies a lifecycle transition and reports whether it took effect
func (s *DownloadSession) SetState(next SessionState, now time.Time) bool {
	if !s.State.CanTransitionTo(next) {
		return false
	}
	s.State = next
	if next.IsTerminal() {
		s.FinishedAt = now
		if next == StateCompleted && s.SizeKnown() {
			s.BytesReceived = s.BytesTotal
		}
	}
	return true
}

// Percent returns completion in 0..100, or -1 when the size is unknown
func (s *DownloadSession) Percent() int {
	if s.State == StateCompleted {
		return MaxPercent
	}
	if !s.SizeKnown() {
		return -1
	}
	percent := int(s.BytesReceived * MaxPercent / s.BytesTotal)
	if percent < 0 {
		return 0
	}
	if percent > MaxPercent {
		return MaxPercent
	}
	return percent
}
