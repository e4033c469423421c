package download

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/web-browser/internal/model"
)

type fakeItem struct {
	id        model.SessionID
	name      string
	preset    string
	path      string
	acceptErr error

	accepted int
	rejected int
	paused   int
	resumed  int
	cancels  int
}

func (f *fakeItem) ID() model.SessionID   { return f.id }
func (f *fakeItem) SuggestedName() string { return f.name }
func (f *fakeItem) SourceURL() string     { return "https://example.com/" + f.name }
func (f *fakeItem) PresetPath() string    { return f.preset }
func (f *fakeItem) SetPath(path string)   { f.path = path }
func (f *fakeItem) Accept() error         { f.accepted++; return f.acceptErr }
func (f *fakeItem) Reject()               { f.rejected++ }
func (f *fakeItem) Pause() error          { f.paused++; return nil }
func (f *fakeItem) Resume() error         { f.resumed++; return nil }
func (f *fakeItem) Cancel() error         { f.cancels++; return nil }

type fakePresenter struct {
	mu    sync.Mutex
	order []model.SessionID
	rows  map[model.SessionID]model.RowView
	shown int
}

func newFakePresenter() *fakePresenter {
	return &fakePresenter{rows: make(map[model.SessionID]model.RowView)}
}

func (p *fakePresenter) AddRow(row model.RowView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = append(p.order, row.ID)
	p.rows[row.ID] = row
}

func (p *fakePresenter) UpdateRow(row model.RowView) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rows[row.ID] = row
}

func (p *fakePresenter) Show() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.shown++
}

func (p *fakePresenter) row(id model.SessionID) (model.RowView, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	row, ok := p.rows[id]
	return row, ok
}

// fakePrompter answers save dialogs from a path table and keeps cancel
// confirmations pending until the test answers them.
type fakePrompter struct {
	paths        map[string]string
	asked        []string
	pendingSaves []func(string, bool)
	confirms     []func(bool)
}

func (p *fakePrompter) ChooseSavePath(defaultPath string, done func(string, bool)) {
	p.asked = append(p.asked, defaultPath)
	if path, ok := p.paths[defaultPath]; ok {
		done(path, path != "")
		return
	}
	p.pendingSaves = append(p.pendingSaves, done)
}

func (p *fakePrompter) ConfirmCancel(_ string, done func(bool)) {
	p.confirms = append(p.confirms, done)
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestTracker(prompter *fakePrompter) (*Tracker, *fakePresenter, *clock) {
	presenter := newFakePresenter()
	c := &clock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	tr := NewTracker(presenter, prompter, Options{
		Dir:             "/downloads",
		AskSaveLocation: true,
		Fs:              afero.NewMemMapFs(),
		Now:             c.Now,
	})
	return tr, presenter, c
}

func startedItem(t *testing.T, tr *Tracker, id model.SessionID) *fakeItem {
	t.Helper()
	item := &fakeItem{id: id, name: "file.bin", preset: "/downloads/" + string(id)}
	tr.OnDownloadRequested(item)
	tr.OnStateChanged(id, model.StateInProgress, nil)
	tr.drain()
	require.Equal(t, 1, item.accepted)
	return item
}

func TestReportScenario(t *testing.T) {
	prompter := &fakePrompter{paths: map[string]string{
		filepath.Join("/downloads", "report.pdf"): "/downloads/report.pdf",
	}}
	tr, presenter, c := newTestTracker(prompter)

	item := &fakeItem{id: "dl-report", name: "report.pdf"}
	tr.OnDownloadRequested(item)
	tr.drain()

	require.Equal(t, 1, item.accepted)
	assert.Equal(t, "/downloads/report.pdf", item.path)
	assert.Equal(t, model.StateAccepted, tr.sessions[item.id].session.State)
	assert.Equal(t, 1, presenter.shown)

	row, ok := presenter.row(item.id)
	require.True(t, ok)
	assert.Equal(t, "report.pdf", row.Filename)

	c.now = c.now.Add(2 * time.Second)
	tr.OnProgress(item.id, 2_097_152, 4_194_304)
	tr.drain()

	row, _ = presenter.row(item.id)
	assert.Equal(t, "2.0 MB / 4.0 MB", row.SizeText)
	assert.GreaterOrEqual(t, tr.sessions[item.id].session.Throughput, 0.0)
	assert.NotEmpty(t, row.SpeedText)

	tr.OnStateChanged(item.id, model.StateCompleted, nil)
	tr.drain()

	row, _ = presenter.row(item.id)
	assert.Equal(t, model.StateCompleted, row.State)
	assert.False(t, row.CanPause)
	assert.False(t, row.CanResume)
	assert.False(t, row.CanCancel)
}

func TestRejectWhenNoPathChosen(t *testing.T) {
	prompter := &fakePrompter{paths: map[string]string{
		filepath.Join("/downloads", "report.pdf"): "",
	}}
	tr, presenter, _ := newTestTracker(prompter)

	item := &fakeItem{id: "dl-1", name: "report.pdf"}
	tr.OnDownloadRequested(item)
	tr.drain()

	assert.Equal(t, 1, item.rejected)
	assert.Equal(t, 0, item.accepted)
	assert.Empty(t, presenter.order)
	assert.NotContains(t, tr.sessions, item.id)
}

func TestPathChosenLater(t *testing.T) {
	prompter := &fakePrompter{}
	tr, presenter, _ := newTestTracker(prompter)

	item := &fakeItem{id: "dl-1", name: "a.zip"}
	tr.OnDownloadRequested(item)
	tr.drain()
	require.Len(t, prompter.pendingSaves, 1)
	assert.Equal(t, model.StateRequested, tr.sessions[item.id].session.State)
	assert.Empty(t, presenter.order)

	// progress before the answer is dropped
	tr.OnProgress(item.id, 10, 100)
	tr.drain()
	assert.Equal(t, int64(0), tr.sessions[item.id].session.BytesReceived)

	prompter.pendingSaves[0]("/tmp/a.zip", true)
	tr.drain()
	assert.Equal(t, "/tmp/a.zip", item.path)
	assert.Equal(t, []model.SessionID{item.id}, presenter.order)
}

func TestDerivedPathDoesNotOverwrite(t *testing.T) {
	prompter := &fakePrompter{}
	tr, _, _ := newTestTracker(prompter)
	tr.opts.AskSaveLocation = false
	require.NoError(t, afero.WriteFile(tr.opts.Fs, "/downloads/report.pdf", []byte("old"), 0o644))

	item := &fakeItem{id: "dl-1", name: "report.pdf"}
	tr.OnDownloadRequested(item)
	tr.drain()

	assert.Empty(t, prompter.asked)
	assert.Equal(t, filepath.Join("/downloads", "report (1).pdf"), item.path)
	assert.Equal(t, 1, item.accepted)
}

func TestDerivedPathsOfQueuedRequestsDiffer(t *testing.T) {
	tr, presenter, _ := newTestTracker(&fakePrompter{})
	tr.SetSaveDefaults("/downloads", false)

	a := &fakeItem{id: "dl-a", name: "report.pdf"}
	b := &fakeItem{id: "dl-b", name: "report.pdf"}
	tr.OnDownloadRequested(a)
	tr.OnDownloadRequested(b)
	tr.drain()

	assert.Equal(t, filepath.Join("/downloads", "report.pdf"), a.path)
	assert.Equal(t, filepath.Join("/downloads", "report (1).pdf"), b.path)
	assert.Equal(t, []model.SessionID{a.id, b.id}, presenter.order)

	// a finished session frees its name only once it is off the disk too
	tr.OnStateChanged(a.id, model.StateInProgress, nil)
	tr.OnStateChanged(a.id, model.StateCancelled, nil)
	tr.drain()
	c := &fakeItem{id: "dl-c", name: "report.pdf"}
	tr.OnDownloadRequested(c)
	tr.drain()
	assert.Equal(t, filepath.Join("/downloads", "report.pdf"), c.path)
}

func TestRejectedTransitionKeepsError(t *testing.T) {
	tr, presenter, _ := newTestTracker(&fakePrompter{})
	item := startedItem(t, tr, "dl-1")

	tr.OnStateChanged(item.id, model.StateInterrupted, errors.New("connection reset"))
	tr.OnStateChanged(item.id, model.StateInProgress, errors.New("late retry failure"))
	tr.drain()

	assert.Equal(t, "connection reset", tr.sessions[item.id].session.LastError)
	row, ok := presenter.row(item.id)
	require.True(t, ok)
	assert.Equal(t, "connection reset", row.LastError)
}

func TestSetSaveDefaultsAppliesToLaterRequests(t *testing.T) {
	prompter := &fakePrompter{}
	tr, _, _ := newTestTracker(prompter)

	first := &fakeItem{id: "dl-1", name: "a.zip"}
	tr.OnDownloadRequested(first)
	tr.drain()
	require.Equal(t, []string{filepath.Join("/downloads", "a.zip")}, prompter.asked)

	tr.SetSaveDefaults("/elsewhere", false)
	second := &fakeItem{id: "dl-2", name: "b.zip"}
	tr.OnDownloadRequested(second)
	tr.drain()

	assert.Len(t, prompter.asked, 1)
	assert.Equal(t, filepath.Join("/elsewhere", "b.zip"), second.path)
	assert.Equal(t, 1, second.accepted)
	// the first session keeps waiting for its answer
	assert.Equal(t, model.StateRequested, tr.sessions[first.id].session.State)
}

func TestEngineAcceptFailureInterrupts(t *testing.T) {
	tr, presenter, _ := newTestTracker(&fakePrompter{})
	item := &fakeItem{id: "dl-1", name: "x", preset: "/downloads/x", acceptErr: errors.New("disk full")}
	tr.OnDownloadRequested(item)
	tr.drain()

	row, ok := presenter.row(item.id)
	require.True(t, ok)
	assert.Equal(t, model.StateInterrupted, row.State)
	assert.Equal(t, "disk full", row.LastError)
	assert.False(t, row.CanCancel)
}

func TestPauseThenResume(t *testing.T) {
	tr, presenter, c := newTestTracker(&fakePrompter{})
	item := startedItem(t, tr, "dl-1")

	c.now = c.now.Add(2 * time.Second)
	tr.OnProgress(item.id, 1000, 10000)
	tr.Pause(item.id)
	tr.drain()

	s := tr.sessions[item.id].session
	assert.Equal(t, 1, item.paused)
	assert.Equal(t, model.StatePaused, s.State)
	frozen := s.Throughput

	// a stale tick arriving after the pause does not move the throughput
	c.now = c.now.Add(8 * time.Second)
	tr.OnProgress(item.id, 1200, 10000)
	tr.drain()
	assert.Equal(t, frozen, s.Throughput)

	tr.Resume(item.id)
	tr.drain()
	assert.Equal(t, 1, item.resumed)
	assert.Equal(t, model.StateInProgress, s.State)

	tr.OnProgress(item.id, 2000, 10000)
	tr.drain()
	assert.InDelta(t, 200.0, s.Throughput, 0.001)

	row, _ := presenter.row(item.id)
	assert.True(t, row.CanPause)
}

func TestPauseResumeNoOpInWrongState(t *testing.T) {
	tr, _, _ := newTestTracker(&fakePrompter{})
	item := &fakeItem{id: "dl-1", name: "f", preset: "/downloads/f"}
	tr.OnDownloadRequested(item)
	tr.drain()

	// Accepted: neither pause nor resume is valid yet
	tr.Pause(item.id)
	tr.Resume(item.id)
	tr.drain()
	assert.Equal(t, 0, item.paused)
	assert.Equal(t, 0, item.resumed)
	assert.Equal(t, model.StateAccepted, tr.sessions[item.id].session.State)

	tr.OnStateChanged(item.id, model.StateInProgress, nil)
	tr.Resume(item.id)
	tr.drain()
	assert.Equal(t, 0, item.resumed)
}

func TestEngineStateIsAuthoritative(t *testing.T) {
	tr, _, _ := newTestTracker(&fakePrompter{})
	item := startedItem(t, tr, "dl-1")

	tr.Pause(item.id)
	tr.drain()
	require.Equal(t, model.StatePaused, tr.sessions[item.id].session.State)

	// the engine did not honour the pause
	tr.OnStateChanged(item.id, model.StateInProgress, nil)
	tr.drain()
	assert.Equal(t, model.StateInProgress, tr.sessions[item.id].session.State)
}

func TestCancelConfirmation(t *testing.T) {
	prompter := &fakePrompter{}
	tr, _, _ := newTestTracker(prompter)
	item := startedItem(t, tr, "dl-1")

	tr.Cancel(item.id)
	tr.drain()
	require.Len(t, prompter.confirms, 1)
	prompter.confirms[0](false)
	tr.drain()
	assert.Equal(t, 0, item.cancels)
	assert.Equal(t, model.StateInProgress, tr.sessions[item.id].session.State)

	tr.Cancel(item.id)
	tr.Cancel(item.id) // second click while the dialog is open
	tr.drain()
	require.Len(t, prompter.confirms, 2)
	prompter.confirms[1](true)
	tr.drain()
	assert.Equal(t, 1, item.cancels)

	// state changes only once the engine confirms
	assert.Equal(t, model.StateInProgress, tr.sessions[item.id].session.State)
	tr.OnStateChanged(item.id, model.StateCancelled, nil)
	tr.drain()
	assert.Equal(t, model.StateCancelled, tr.sessions[item.id].session.State)
}

func TestTerminalIdempotence(t *testing.T) {
	for _, terminal := range []model.SessionState{model.StateCompleted, model.StateCancelled, model.StateInterrupted} {
		prompter := &fakePrompter{}
		tr, _, _ := newTestTracker(prompter)
		item := startedItem(t, tr, "dl-1")

		tr.OnStateChanged(item.id, terminal, nil)
		tr.Pause(item.id)
		tr.Resume(item.id)
		tr.Cancel(item.id)
		tr.OnStateChanged(item.id, model.StateInProgress, nil)
		tr.OnProgress(item.id, 5, 10)
		tr.drain()

		assert.Equal(t, terminal, tr.sessions[item.id].session.State)
		assert.Empty(t, prompter.confirms)
		assert.Equal(t, 0, item.paused)
		assert.Equal(t, 0, item.resumed)
		assert.Equal(t, 0, item.cancels)
	}
}

func TestSameNameDifferentPaths(t *testing.T) {
	prompter := &fakePrompter{}
	tr, presenter, c := newTestTracker(prompter)

	a := &fakeItem{id: "dl-a", name: "report.pdf"}
	b := &fakeItem{id: "dl-b", name: "report.pdf"}
	tr.OnDownloadRequested(a)
	tr.OnDownloadRequested(b)
	tr.drain()
	require.Len(t, prompter.pendingSaves, 2)
	prompter.pendingSaves[0]("/one/report.pdf", true)
	prompter.pendingSaves[1]("/two/report.pdf", true)

	c.now = c.now.Add(time.Second)
	tr.OnProgress(a.id, 100, 1000)
	tr.OnProgress(b.id, 900, 1000)
	tr.drain()

	assert.Equal(t, []model.SessionID{a.id, b.id}, presenter.order)
	rowA, _ := presenter.row(a.id)
	rowB, _ := presenter.row(b.id)
	assert.Equal(t, "/one", rowA.Directory)
	assert.Equal(t, "/two", rowB.Directory)
	assert.Equal(t, 10, rowA.Percent)
	assert.Equal(t, 90, rowB.Percent)
}

func TestUnknownSizeDisplay(t *testing.T) {
	tr, presenter, _ := newTestTracker(&fakePrompter{})
	item := startedItem(t, tr, "dl-1")

	tr.OnProgress(item.id, 500000, model.UnknownSize)
	tr.drain()

	row, _ := presenter.row(item.id)
	assert.Contains(t, row.SizeText, model.SizeUnknownText)
	assert.NotContains(t, row.SizeText, "500000 of 0")
	assert.Equal(t, -1, row.Percent)
}

func TestFinishedCallback(t *testing.T) {
	tr, _, _ := newTestTracker(&fakePrompter{})
	var finished []model.RowView
	tr.SetFinishedCallback(func(row model.RowView) { finished = append(finished, row) })

	done := startedItem(t, tr, "dl-1")
	failed := startedItem(t, tr, "dl-2")
	tr.OnStateChanged(done.id, model.StateCompleted, nil)
	tr.OnFinished(done.id)
	tr.OnStateChanged(failed.id, model.StateInterrupted, errors.New("reset"))
	tr.OnFinished(failed.id)
	tr.drain()

	require.Len(t, finished, 1)
	assert.Equal(t, done.id, finished[0].ID)
	assert.Equal(t, "reset", tr.sessions[failed.id].session.LastError)
}

func TestUnknownSessionEventsIgnored(t *testing.T) {
	tr, presenter, _ := newTestTracker(&fakePrompter{})
	tr.OnProgress("dl-missing", 1, 2)
	tr.OnStateChanged("dl-missing", model.StateCompleted, nil)
	tr.Cancel("dl-missing")
	tr.drain()
	assert.Empty(t, presenter.order)

	_, err := tr.lookup("dl-missing")
	assert.ErrorIs(t, err, ErrUnknownSession)
}

func TestRunDrainsInOrder(t *testing.T) {
	tr, presenter, _ := newTestTracker(&fakePrompter{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- tr.Run(ctx) }()

	item := &fakeItem{id: "dl-1", name: "f", preset: "/downloads/f"}
	tr.OnDownloadRequested(item)
	tr.OnStateChanged(item.id, model.StateInProgress, nil)
	for i := int64(1); i <= 10; i++ {
		tr.OnProgress(item.id, i*100, 1000)
	}
	tr.OnStateChanged(item.id, model.StateCompleted, nil)

	require.Eventually(t, func() bool {
		row, ok := presenter.row(item.id)
		return ok && row.State == model.StateCompleted
	}, 2*time.Second, 10*time.Millisecond)

	row, _ := presenter.row(item.id)
	assert.Equal(t, 100, row.Percent)

	cancel()
	assert.ErrorIs(t, <-errCh, context.Canceled)
}
