package download

import (
	"github.com/ytget/web-browser/internal/model"
)

// Event is anything the tracker reacts to
type Event interface {
	Session() model.SessionID
}

// Requested is posted by the engine when a new transfer wants a target path
type Requested struct {
	Item Item
}

// PathChosen carries the answer to the save dialog
type PathChosen struct {
	ID   model.SessionID
	Path string
	OK   bool
}

// Progress is a periodic byte count from the engine
type Progress struct {
	ID       model.SessionID
	Received int64
	Total    int64
}

// StateChanged is the engine's authoritative state report
type StateChanged struct {
	ID    model.SessionID
	State model.SessionState
	Err   error
}

// Finished is posted once the engine released the transfer
type Finished struct {
	ID model.SessionID
}

// PauseRequested is a user intent
type PauseRequested struct {
	ID model.SessionID
}

// ResumeRequested is a user intent
type ResumeRequested struct {
	ID model.SessionID
}

// CancelRequested is a user intent that still needs confirmation
type CancelRequested struct {
	ID model.SessionID
}

// CancelConfirmed carries the answer to the cancel confirmation
type CancelConfirmed struct {
	ID        model.SessionID
	Confirmed bool
}

func (e Requested) Session() model.SessionID       { return e.Item.ID() }
func (e PathChosen) Session() model.SessionID      { return e.ID }
func (e Progress) Session() model.SessionID        { return e.ID }
func (e StateChanged) Session() model.SessionID    { return e.ID }
func (e Finished) Session() model.SessionID        { return e.ID }
func (e PauseRequested) Session() model.SessionID  { return e.ID }
func (e ResumeRequested) Session() model.SessionID { return e.ID }
func (e CancelRequested) Session() model.SessionID { return e.ID }
func (e CancelConfirmed) Session() model.SessionID { return e.ID }
