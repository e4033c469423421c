package ui

import (
	"fmt"
	"image/color"
	"log"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/web-browser/internal/model"
)

// Progress bar scale
const (
	ProgressBarMax = 1.0
)

// DownloadRow is one entry of the downloads window
type DownloadRow struct {
	widget.BaseWidget

	row          model.RowView
	localization *Localization

	filenameLabel  *widget.Label
	directoryLabel *widget.Label
	statusLabel    *widget.Label
	sizeLabel      *widget.Label
	speedLabel     *widget.Label
	percentLabel   *widget.Label
	progressBar    *widget.ProgressBar
	progressWait   *widget.ProgressBarInfinite

	pauseResumeBtn *widget.Button
	cancelBtn      *widget.Button
	openBtn        *widget.Button // open with default app
	folderBtn      *widget.Button // reveal in file manager

	onPause  func(id model.SessionID)
	onResume func(id model.SessionID)
	onCancel func(id model.SessionID)
	onOpen   func(path string)
	onReveal func(path string)
}

// NewDownloadRow creates a row widget showing row
func NewDownloadRow(row model.RowView, localization *Localization) *DownloadRow {
	dr := &DownloadRow{
		row:          row,
		localization: localization,
	}
	dr.ExtendBaseWidget(dr)
	dr.createUI()
	dr.updateFromRow()
	return dr
}

// SetCallbacks sets the action callbacks
func (dr *DownloadRow) SetCallbacks(
	onPause func(id model.SessionID),
	onResume func(id model.SessionID),
	onCancel func(id model.SessionID),
	onOpen func(path string),
	onReveal func(path string),
) {
	dr.onPause = onPause
	dr.onResume = onResume
	dr.onCancel = onCancel
	dr.onOpen = onOpen
	dr.onReveal = onReveal
}

// Row returns the projection currently shown
func (dr *DownloadRow) Row() model.RowView {
	return dr.row
}

// Update replaces the shown projection. Must run on the UI goroutine.
func (dr *DownloadRow) Update(row model.RowView) {
	if row.ID != dr.row.ID {
		log.Printf("Warning: row %s received update for %s", dr.row.ID, row.ID)
		return
	}
	dr.row = row
	dr.updateFromRow()
	dr.Refresh()
}

func (dr *DownloadRow) createUI() {
	dr.filenameLabel = widget.NewLabel("")
	dr.filenameLabel.TextStyle = fyne.TextStyle{Bold: true}
	dr.filenameLabel.Truncation = fyne.TextTruncateEllipsis

	dr.directoryLabel = widget.NewLabel("")
	dr.directoryLabel.Truncation = fyne.TextTruncateEllipsis
	dr.directoryLabel.Importance = widget.LowImportance

	dr.statusLabel = widget.NewLabel("")
	dr.statusLabel.Alignment = fyne.TextAlignTrailing
	dr.sizeLabel = widget.NewLabel("")
	dr.sizeLabel.TextStyle = fyne.TextStyle{Monospace: true}
	dr.speedLabel = widget.NewLabel("")
	dr.speedLabel.TextStyle = fyne.TextStyle{Monospace: true}
	dr.percentLabel = widget.NewLabel("")
	dr.percentLabel.Alignment = fyne.TextAlignTrailing

	dr.progressBar = widget.NewProgressBar()
	dr.progressBar.Max = ProgressBarMax
	dr.progressBar.TextFormatter = func() string { return "" }
	dr.progressWait = widget.NewProgressBarInfinite()

	dr.pauseResumeBtn = widget.NewButton(dr.localization.GetText(KeyPause), func() {
		// read the current row, not a captured copy
		current := dr.row
		switch {
		case current.CanPause && dr.onPause != nil:
			dr.onPause(current.ID)
		case current.CanResume && dr.onResume != nil:
			dr.onResume(current.ID)
		}
	})

	dr.cancelBtn = widget.NewButton(dr.localization.GetText(KeyCancel), func() {
		current := dr.row
		if current.CanCancel && dr.onCancel != nil {
			dr.onCancel(current.ID)
		}
	})

	dr.openBtn = widget.NewButton(dr.localization.GetText(KeyOpen), func() {
		if dr.onOpen != nil && dr.row.TargetPath != "" {
			dr.onOpen(dr.row.TargetPath)
		}
	})

	dr.folderBtn = widget.NewButton(IconFolder, func() {
		if dr.onReveal != nil && dr.row.TargetPath != "" {
			dr.onReveal(dr.row.TargetPath)
		}
	})
}

// statusText renders the localized state, with the error for interrupted rows
func statusText(row model.RowView, l *Localization) string {
	var key, icon string
	switch row.State {
	case model.StateRequested:
		key, icon = KeyStateRequested, IconWaiting
	case model.StateAccepted:
		key, icon = KeyStateAccepted, IconWaiting
	case model.StateInProgress:
		key, icon = KeyStateInProgress, IconPlay
	case model.StatePaused:
		key, icon = KeyStatePaused, IconPause
	case model.StateCompleted:
		key = KeyStateCompleted
	case model.StateCancelled:
		key, icon = KeyStateCancelled, IconCancel
	case model.StateInterrupted:
		key, icon = KeyStateInterrupted, IconError
	default:
		return row.State.String()
	}
	text := l.GetText(key)
	if icon != "" {
		text = icon + " " + text
	}
	if row.State == model.StateInterrupted && row.LastError != "" {
		text += ": " + row.LastError
	}
	return text
}

// localizedSize swaps the model's "size unknown" marker for the current language
func localizedSize(row model.RowView, l *Localization) string {
	if prefix, ok := strings.CutSuffix(row.SizeText, model.SizeUnknownText); ok {
		return prefix + l.GetText(KeySizeUnknown)
	}
	return row.SizeText
}

func (dr *DownloadRow) updateFromRow() {
	row := dr.row
	l := dr.localization

	dr.filenameLabel.SetText(row.Filename)
	dr.directoryLabel.SetText(row.Directory)
	dr.statusLabel.SetText(statusText(row, l))
	dr.sizeLabel.SetText(localizedSize(row, l))

	switch row.State {
	case model.StateCompleted:
		dr.statusLabel.Importance = widget.SuccessImportance
	case model.StateInterrupted:
		dr.statusLabel.Importance = widget.DangerImportance
	case model.StateCancelled:
		dr.statusLabel.Importance = widget.WarningImportance
	case model.StateInProgress:
		dr.statusLabel.Importance = widget.HighImportance
	default:
		dr.statusLabel.Importance = widget.MediumImportance
	}

	speed := row.SpeedText
	if speed == "" && row.State.IsActive() {
		speed = DashPlaceholder
	}
	dr.speedLabel.SetText(speed)

	// unknown size: animate instead of showing a fake fraction
	if row.Percent < 0 {
		dr.progressBar.Hide()
		dr.percentLabel.SetText("")
		if row.State.IsActive() {
			dr.progressWait.Show()
			if row.State == model.StatePaused {
				dr.progressWait.Stop()
			} else {
				dr.progressWait.Start()
			}
		} else {
			dr.progressWait.Stop()
			dr.progressWait.Hide()
		}
	} else {
		dr.progressWait.Stop()
		dr.progressWait.Hide()
		dr.progressBar.Show()
		dr.progressBar.SetValue(float64(row.Percent) / model.MaxPercent)
		dr.percentLabel.SetText(fmt.Sprintf(ProgressLabelFormat, row.Percent))
	}

	dr.updateButtons()
}

func (dr *DownloadRow) updateButtons() {
	row := dr.row
	l := dr.localization

	switch {
	case row.CanResume:
		dr.pauseResumeBtn.SetText(l.GetText(KeyResume))
		dr.pauseResumeBtn.Enable()
	case row.CanPause:
		dr.pauseResumeBtn.SetText(l.GetText(KeyPause))
		dr.pauseResumeBtn.Enable()
	default:
		dr.pauseResumeBtn.SetText(l.GetText(KeyPause))
		dr.pauseResumeBtn.Disable()
	}

	if row.CanCancel {
		dr.cancelBtn.Enable()
	} else {
		dr.cancelBtn.Disable()
	}
	dr.cancelBtn.SetText(l.GetText(KeyCancel))

	dr.openBtn.SetText(l.GetText(KeyOpen))
	if row.State == model.StateCompleted && row.TargetPath != "" {
		dr.openBtn.Enable()
		dr.folderBtn.Enable()
	} else {
		dr.openBtn.Disable()
		dr.folderBtn.Disable()
	}
}

// DoubleTapped opens a completed download
func (dr *DownloadRow) DoubleTapped(*fyne.PointEvent) {
	if dr.row.State == model.StateCompleted && dr.onOpen != nil && dr.row.TargetPath != "" {
		dr.onOpen(dr.row.TargetPath)
	}
}

// CreateRenderer creates the widget renderer
func (dr *DownloadRow) CreateRenderer() fyne.WidgetRenderer {
	fixedWidth := func(w float32, obj fyne.CanvasObject) fyne.CanvasObject {
		spacer := canvas.NewRectangle(color.Transparent)
		spacer.SetMinSize(fyne.NewSize(w, obj.MinSize().Height))
		return container.NewStack(spacer, obj)
	}

	names := container.NewVBox(dr.filenameLabel, dr.directoryLabel)
	info := container.NewVBox(
		fixedWidth(StatusLabelWidth, dr.statusLabel),
		container.NewHBox(
			fixedWidth(SpeedLabelWidth, dr.speedLabel),
			fixedWidth(PercentLabelWidth, dr.percentLabel),
		),
	)
	actions := container.NewHBox(dr.pauseResumeBtn, dr.cancelBtn, dr.openBtn, dr.folderBtn)
	rightCluster := container.NewBorder(nil, nil, nil, actions, info)
	top := container.NewBorder(nil, nil, nil, rightCluster, names)

	progress := container.NewBorder(nil, nil, nil, dr.sizeLabel, container.NewStack(dr.progressBar, dr.progressWait))

	content := container.NewVBox(top, progress, widget.NewSeparator())
	return &downloadRowRenderer{content: content}
}

type downloadRowRenderer struct {
	content *fyne.Container
}

func (r *downloadRowRenderer) Layout(size fyne.Size) {
	if size.Width < RowMinWidth {
		size.Width = RowMinWidth
	}
	r.content.Resize(size)
}

func (r *downloadRowRenderer) MinSize() fyne.Size {
	size := r.content.MinSize()
	if size.Width < RowMinWidth {
		size.Width = RowMinWidth
	}
	return size
}

func (r *downloadRowRenderer) Refresh()                     { r.content.Refresh() }
func (r *downloadRowRenderer) Objects() []fyne.CanvasObject { return []fyne.CanvasObject{r.content} }
func (r *downloadRowRenderer) Destroy()                     {}
