package download

import (
	"github.com/ytget/web-browser/internal/model"
)

// Item is the engine's handle for one transfer. Control methods may be
// called from any goroutine; the engine reports their effect later through
// events, never synchronously.
type Item interface {
	ID() model.SessionID
	SuggestedName() string
	SourceURL() string
	// PresetPath is non-empty when the caller already chose where to save
	PresetPath() string
	SetPath(path string)
	Accept() error
	Reject()
	Pause() error
	Resume() error
	Cancel() error
}

// Presenter is the downloads list. Rows are only ever appended.
type Presenter interface {
	AddRow(row model.RowView)
	UpdateRow(row model.RowView)
	Show()
}

// Prompter asks the user for decisions. Answers are delivered through the
// callbacks, possibly on another goroutine.
type Prompter interface {
	ChooseSavePath(defaultPath string, done func(path string, ok bool))
	ConfirmCancel(filename string, done func(confirmed bool))
}

// Sink receives events from the engine and the UI
type Sink interface {
	Post(ev Event)
}
