package ui

import (
	"log"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/web-browser/internal/download"
	"github.com/ytget/web-browser/internal/model"
	"github.com/ytget/web-browser/internal/platform"
)

// DownloadControls receives the user's intents for a session
type DownloadControls interface {
	Pause(id model.SessionID)
	Resume(id model.SessionID)
	Cancel(id model.SessionID)
}

// DownloadsWindow is the presentation list of download sessions. Rows are
// appended in arrival order and stay for the lifetime of the process.
type DownloadsWindow struct {
	window       fyne.Window
	localization *Localization
	controls     DownloadControls

	list  *fyne.Container
	empty *widget.Label
	rows  map[model.SessionID]*DownloadRow
	order []model.SessionID
}

var _ download.Presenter = (*DownloadsWindow)(nil)

// NewDownloadsWindow creates the (hidden) downloads window
func NewDownloadsWindow(app fyne.App, localization *Localization) *DownloadsWindow {
	dw := &DownloadsWindow{
		window:       app.NewWindow(localization.GetText(KeyDownloadsTitle)),
		localization: localization,
		rows:         make(map[model.SessionID]*DownloadRow),
	}
	dw.empty = widget.NewLabel(DashPlaceholder)
	dw.empty.Alignment = fyne.TextAlignCenter
	dw.list = container.NewVBox(dw.empty)

	dw.window.SetContent(container.NewVScroll(dw.list))
	dw.window.Resize(fyne.NewSize(DownloadsWidth, DownloadsHeight))
	// closing only hides; rows survive until the app exits
	dw.window.SetCloseIntercept(func() { dw.window.Hide() })
	return dw
}

// SetControls connects the row buttons to the tracker
func (dw *DownloadsWindow) SetControls(controls DownloadControls) {
	dw.controls = controls
}

// Window returns the underlying Fyne window
func (dw *DownloadsWindow) Window() fyne.Window {
	return dw.window
}

// AddRow appends a row. Safe from any goroutine.
func (dw *DownloadsWindow) AddRow(row model.RowView) {
	fyne.Do(func() { dw.addRow(row) })
}

// UpdateRow refreshes an existing row. Safe from any goroutine.
func (dw *DownloadsWindow) UpdateRow(row model.RowView) {
	fyne.Do(func() { dw.updateRow(row) })
}

// Show brings the window to front. Safe from any goroutine.
func (dw *DownloadsWindow) Show() {
	fyne.Do(func() {
		dw.window.Show()
		dw.window.RequestFocus()
	})
}

func (dw *DownloadsWindow) addRow(row model.RowView) {
	if existing, ok := dw.rows[row.ID]; ok {
		log.Printf("Row %s already present, updating instead", row.ID)
		existing.Update(row)
		return
	}
	if len(dw.order) == 0 {
		dw.list.Remove(dw.empty)
	}

	dr := NewDownloadRow(row, dw.localization)
	dr.SetCallbacks(dw.onPause, dw.onResume, dw.onCancel, dw.onOpen, dw.onReveal)
	dw.rows[row.ID] = dr
	dw.order = append(dw.order, row.ID)
	dw.list.Add(dr)
	log.Printf("Download row added: id=%s file=%s", row.ID, row.Filename)
}

func (dw *DownloadsWindow) updateRow(row model.RowView) {
	dr, ok := dw.rows[row.ID]
	if !ok {
		log.Printf("Update for unknown row %s", row.ID)
		return
	}
	dr.Update(row)
}

// Rows returns the shown projections in insertion order. UI goroutine only.
func (dw *DownloadsWindow) Rows() []model.RowView {
	out := make([]model.RowView, 0, len(dw.order))
	for _, id := range dw.order {
		out = append(out, dw.rows[id].Row())
	}
	return out
}

// RefreshTexts re-renders every row in the current language
func (dw *DownloadsWindow) RefreshTexts() {
	dw.window.SetTitle(dw.localization.GetText(KeyDownloadsTitle))
	for _, id := range dw.order {
		dr := dw.rows[id]
		dr.Update(dr.Row())
	}
}

func (dw *DownloadsWindow) onPause(id model.SessionID) {
	if dw.controls != nil {
		dw.controls.Pause(id)
	}
}

func (dw *DownloadsWindow) onResume(id model.SessionID) {
	if dw.controls != nil {
		dw.controls.Resume(id)
	}
}

func (dw *DownloadsWindow) onCancel(id model.SessionID) {
	if dw.controls != nil {
		dw.controls.Cancel(id)
	}
}

func (dw *DownloadsWindow) onOpen(path string) {
	if err := platform.OpenFileWithDefaultApp(path); err != nil {
		log.Printf("Error opening file %s: %v", path, err)
		widget.ShowPopUp(widget.NewLabel(dw.localization.GetText(KeyErrorOpeningFile)+": "+err.Error()), dw.window.Canvas())
	}
}

func (dw *DownloadsWindow) onReveal(path string) {
	if err := platform.OpenFileInManager(path); err != nil {
		log.Printf("Error revealing file %s: %v", path, err)
		widget.ShowPopUp(widget.NewLabel(dw.localization.GetText(KeyErrorOpeningFile)+": "+err.Error()), dw.window.Canvas())
	}
}
