package download

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/ytget/web-browser/internal/model"
	"github.com/ytget/web-browser/internal/platform"
)

// ErrUnknownSession is returned for events naming a session the tracker does not hold
var ErrUnknownSession = errors.New("unknown download session")

// Options configures a Tracker
type Options struct {
	// Dir is the default downloads directory
	Dir string
	// AskSaveLocation prompts for every download; otherwise a free name in Dir is used
	AskSaveLocation bool
	// Fs is used to look for a free file name. Defaults to the OS file system.
	Fs afero.Fs
	// Now defaults to time.Now
	Now func() time.Time
}

type entry struct {
	session    *model.DownloadSession
	item       Item
	confirming bool
}

// Tracker owns every download session and applies events to them in order
type Tracker struct {
	optsMu    sync.Mutex
	opts      Options
	presenter Presenter
	prompter  Prompter

	queueMu sync.Mutex
	queue   []Event
	wake    chan struct{}

	// owned by the dispatch goroutine
	sessions   map[model.SessionID]*entry
	reserved   map[string]model.SessionID // target paths of non-terminal sessions
	onFinished func(model.RowView)
}

// NewTracker creates a tracker that reports rows to presenter and asks the
// user through prompter
func NewTracker(presenter Presenter, prompter Prompter, opts Options) *Tracker {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Tracker{
		opts:      opts,
		presenter: presenter,
		prompter:  prompter,
		wake:      make(chan struct{}, 1),
		sessions:  make(map[model.SessionID]*entry),
		reserved:  make(map[string]model.SessionID),
	}
}

// SetFinishedCallback sets a hook called for sessions that completed
// successfully. It runs on the dispatch goroutine.
func (t *Tracker) SetFinishedCallback(callback func(model.RowView)) {
	t.onFinished = callback
}

// SetSaveDefaults changes the directory and prompting policy for requests
// that arrive afterwards. Sessions already requested are not affected.
func (t *Tracker) SetSaveDefaults(dir string, ask bool) {
	t.optsMu.Lock()
	t.opts.Dir = dir
	t.opts.AskSaveLocation = ask
	t.optsMu.Unlock()
}

func (t *Tracker) saveDefaults() (string, bool) {
	t.optsMu.Lock()
	defer t.optsMu.Unlock()
	return t.opts.Dir, t.opts.AskSaveLocation
}

// Post queues an event. It never blocks and is safe from any goroutine,
// including from inside a prompter callback running on the dispatch goroutine.
func (t *Tracker) Post(ev Event) {
	t.queueMu.Lock()
	t.queue = append(t.queue, ev)
	t.queueMu.Unlock()

	select {
	case t.wake <- struct{}{}:
	default:
	}
}

// OnDownloadRequested queues a new transfer request from the engine
func (t *Tracker) OnDownloadRequested(item Item) {
	t.Post(Requested{Item: item})
}

// OnProgress queues a progress tick
func (t *Tracker) OnProgress(id model.SessionID, received, total int64) {
	t.Post(Progress{ID: id, Received: received, Total: total})
}

// OnStateChanged queues an engine state report
func (t *Tracker) OnStateChanged(id model.SessionID, state model.SessionState, err error) {
	t.Post(StateChanged{ID: id, State: state, Err: err})
}

// OnFinished queues the engine's end-of-transfer notice
func (t *Tracker) OnFinished(id model.SessionID) {
	t.Post(Finished{ID: id})
}

// Pause queues a pause intent
func (t *Tracker) Pause(id model.SessionID) {
	t.Post(PauseRequested{ID: id})
}

// Resume queues a resume intent
func (t *Tracker) Resume(id model.SessionID) {
	t.Post(ResumeRequested{ID: id})
}

// Cancel queues a cancel intent; the user is asked to confirm first
func (t *Tracker) Cancel(id model.SessionID) {
	t.Post(CancelRequested{ID: id})
}

// Run drains the queue until ctx is done
func (t *Tracker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.wake:
			t.drain()
		}
	}
}

// drain applies every queued event, including ones queued while draining
func (t *Tracker) drain() {
	for {
		t.queueMu.Lock()
		if len(t.queue) == 0 {
			t.queueMu.Unlock()
			return
		}
		ev := t.queue[0]
		t.queue[0] = nil
		t.queue = t.queue[1:]
		t.queueMu.Unlock()

		t.handle(ev)
	}
}

func (t *Tracker) handle(ev Event) {
	switch e := ev.(type) {
	case Requested:
		t.handleRequested(e)
	case PathChosen:
		t.handlePathChosen(e)
	case Progress:
		t.handleProgress(e)
	case StateChanged:
		t.handleStateChanged(e)
	case Finished:
		t.handleFinished(e)
	case PauseRequested:
		t.handlePause(e)
	case ResumeRequested:
		t.handleResume(e)
	case CancelRequested:
		t.handleCancel(e)
	case CancelConfirmed:
		t.handleCancelConfirmed(e)
	default:
		log.Printf("Ignoring unsupported download event %T", ev)
	}
}

func (t *Tracker) lookup(id model.SessionID) (*entry, error) {
	e, ok := t.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSession, id)
	}
	return e, nil
}

func (t *Tracker) handleRequested(ev Requested) {
	if ev.Item == nil {
		log.Printf("Download request without item")
		return
	}
	id := ev.Item.ID()
	if _, exists := t.sessions[id]; exists {
		log.Printf("Duplicate download request for session %s", id)
		return
	}

	name := platform.SanitizeFileName(ev.Item.SuggestedName())
	e := &entry{
		session: model.NewSession(id, name, ev.Item.SourceURL()),
		item:    ev.Item,
	}
	t.sessions[id] = e
	log.Printf("Download requested: id=%s name=%s url=%s", id, name, e.session.SourceURL)

	if preset := ev.Item.PresetPath(); preset != "" {
		t.accept(e, preset)
		return
	}

	dir, ask := t.saveDefaults()
	if ask {
		defaultPath := filepath.Join(dir, name)
		t.prompter.ChooseSavePath(defaultPath, func(path string, ok bool) {
			t.Post(PathChosen{ID: id, Path: path, OK: ok})
		})
		return
	}

	path, err := platform.UniquePath(t.opts.Fs, dir, name, t.isReserved)
	if err != nil {
		log.Printf("Failed to derive a save path for %s: %v", id, err)
		t.reject(e)
		return
	}
	t.accept(e, path)
}

func (t *Tracker) handlePathChosen(ev PathChosen) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("Path chosen: %v", err)
		return
	}
	if e.session.State != model.StateRequested {
		return
	}
	if !ev.OK || ev.Path == "" {
		log.Printf("No save path chosen for %s, rejecting", ev.ID)
		t.reject(e)
		return
	}
	t.accept(e, ev.Path)
}

// isReserved reports whether a live session already writes to path; the
// engine only creates the file once the transfer starts
func (t *Tracker) isReserved(path string) bool {
	_, ok := t.reserved[path]
	return ok
}

func (t *Tracker) release(e *entry) {
	if owner, ok := t.reserved[e.session.TargetPath]; ok && owner == e.session.ID {
		delete(t.reserved, e.session.TargetPath)
	}
}

func (t *Tracker) reject(e *entry) {
	e.item.Reject()
	delete(t.sessions, e.session.ID)
}

func (t *Tracker) accept(e *entry, path string) {
	path = filepath.Clean(path)
	if err := e.session.Accept(path, t.opts.Now()); err != nil {
		log.Printf("Accept failed: %v", err)
		t.reject(e)
		return
	}

	if owner, ok := t.reserved[path]; ok {
		log.Printf("Save path %s is already used by download %s", path, owner)
	} else {
		t.reserved[path] = e.session.ID
	}
	e.item.SetPath(path)
	t.presenter.AddRow(model.BuildRow(e.session))
	t.presenter.Show()

	if err := e.item.Accept(); err != nil {
		log.Printf("Engine refused to start %s: %v", e.session.ID, err)
		e.session.LastError = err.Error()
		e.session.SetState(model.StateInterrupted, t.opts.Now())
		t.update(e)
		return
	}
	log.Printf("Download accepted: id=%s path=%s", e.session.ID, path)
}

func (t *Tracker) handleProgress(ev Progress) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("Progress: %v", err)
		return
	}
	if e.session.State.IsTerminal() || e.session.State == model.StateRequested {
		return
	}
	e.session.ApplyProgress(ev.Received, ev.Total, t.opts.Now())
	t.update(e)
}

func (t *Tracker) handleStateChanged(ev StateChanged) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("State change: %v", err)
		return
	}
	if !e.session.SetState(ev.State, t.opts.Now()) {
		if e.session.State != ev.State {
			log.Printf("Ignoring state %s for %s in state %s", ev.State, ev.ID, e.session.State)
		}
		return
	}
	if ev.Err != nil {
		e.session.LastError = ev.Err.Error()
	}
	log.Printf("Download state changed: id=%s state=%s", ev.ID, ev.State)
	t.update(e)
}

func (t *Tracker) handleFinished(ev Finished) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("Finished: %v", err)
		return
	}
	if e.session.State == model.StateCompleted && t.onFinished != nil {
		t.onFinished(model.BuildRow(e.session))
	}
}

func (t *Tracker) handlePause(ev PauseRequested) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("Pause: %v", err)
		return
	}
	if e.session.State != model.StateInProgress {
		return
	}
	if err := e.item.Pause(); err != nil {
		log.Printf("Error pausing %s: %v", ev.ID, err)
		return
	}
	e.session.SetState(model.StatePaused, t.opts.Now())
	t.update(e)
}

func (t *Tracker) handleResume(ev ResumeRequested) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("Resume: %v", err)
		return
	}
	if e.session.State != model.StatePaused {
		return
	}
	if err := e.item.Resume(); err != nil {
		log.Printf("Error resuming %s: %v", ev.ID, err)
		return
	}
	e.session.SetState(model.StateInProgress, t.opts.Now())
	t.update(e)
}

func (t *Tracker) handleCancel(ev CancelRequested) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("Cancel: %v", err)
		return
	}
	state := e.session.State
	if state.IsTerminal() || state == model.StateRequested || e.confirming {
		return
	}
	e.confirming = true
	id := ev.ID
	t.prompter.ConfirmCancel(model.BuildRow(e.session).Filename, func(confirmed bool) {
		t.Post(CancelConfirmed{ID: id, Confirmed: confirmed})
	})
}

func (t *Tracker) handleCancelConfirmed(ev CancelConfirmed) {
	e, err := t.lookup(ev.ID)
	if err != nil {
		log.Printf("Cancel confirmation: %v", err)
		return
	}
	e.confirming = false
	if !ev.Confirmed || e.session.State.IsTerminal() {
		return
	}
	// state moves to Cancelled once the engine reports it
	if err := e.item.Cancel(); err != nil {
		log.Printf("Error cancelling %s: %v", ev.ID, err)
	}
}

func (t *Tracker) update(e *entry) {
	if e.session.State.IsTerminal() {
		t.release(e)
	}
	t.presenter.UpdateRow(model.BuildRow(e.session))
}
