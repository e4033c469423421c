package model

// SessionState represents the lifecycle state of a download session
type SessionState string

const (
	// StateRequested means the engine asked for a download and no path is chosen yet
	StateRequested SessionState = "Requested"

	// StateAccepted means a target path is set and the engine was told to start
	StateAccepted SessionState = "Accepted"

	// StateInProgress means bytes are flowing
	StateInProgress SessionState = "In progress"

	// StatePaused means the transfer is suspended and may be resumed
	StatePaused SessionState = "Paused"

	// StateCompleted means the transfer finished successfully
	StateCompleted SessionState = "Completed"

	// StateCancelled means the user cancelled the transfer
	StateCancelled SessionState = "Cancelled"

	// StateInterrupted means the transfer failed and will not continue
	StateInterrupted SessionState = "Interrupted"
)

// String returns the string representation of SessionState
func (s SessionState) String() string {
	return string(s)
}

// IsTerminal returns true for Completed, Cancelled and Interrupted
func (s SessionState) IsTerminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateInterrupted
}

// IsActive returns true while the transfer is running or suspended
func (s SessionState) IsActive() bool {
	return s == StateInProgress || s == StatePaused
}

// rank orders states along the lifecycle. InProgress and Paused share a rank
// so the transfer may move back and forth between them.
func (s SessionState) rank() int {
	switch s {
	case StateRequested:
		return 0
	case StateAccepted:
		return 1
	case StateInProgress, StatePaused:
		return 2
	case StateCompleted, StateCancelled, StateInterrupted:
		return 3
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next keeps the lifecycle
// monotonic. Terminal states never change; a state never moves backwards.
func (s SessionState) CanTransitionTo(next SessionState) bool {
	if s.IsTerminal() || next.rank() < 0 {
		return false
	}
	if s == next {
		return false
	}
	return next.rank() >= s.rank()
}
