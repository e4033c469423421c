package ui

import (
	"fmt"
	"log"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"github.com/ytget/web-browser/internal/download"
)

// Prompts shows the tracker's questions as Fyne dialogs. Save prompts are
// parented to the browser window, cancel confirmations to the downloads window.
type Prompts struct {
	saveParent    fyne.Window
	confirmParent fyne.Window
	localization  *Localization
}

var _ download.Prompter = (*Prompts)(nil)

// NewPrompts creates the dialog prompter
func NewPrompts(saveParent, confirmParent fyne.Window, localization *Localization) *Prompts {
	return &Prompts{
		saveParent:    saveParent,
		confirmParent: confirmParent,
		localization:  localization,
	}
}

// ChooseSavePath asks where to store a download
func (p *Prompts) ChooseSavePath(defaultPath string, done func(path string, ok bool)) {
	fyne.Do(func() {
		showSavePrompt(p.saveParent, defaultPath, done)
	})
}

// ConfirmCancel asks before discarding a running or paused download
func (p *Prompts) ConfirmCancel(filename string, done func(confirmed bool)) {
	fyne.Do(func() {
		dialog.ShowConfirm(
			p.localization.GetText(KeyConfirmCancel),
			fmt.Sprintf(p.localization.GetText(KeyConfirmCancelText), filename),
			done,
			p.confirmParent,
		)
	})
}

// showSavePrompt opens a file save dialog prefilled with defaultPath.
// The dialog creates the chosen file; callers that abort must remove it.
func showSavePrompt(parent fyne.Window, defaultPath string, done func(path string, ok bool)) {
	d := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil {
			log.Printf("Save dialog error: %v", err)
			done("", false)
			return
		}
		if writer == nil {
			done("", false)
			return
		}
		path := writer.URI().Path()
		if cerr := writer.Close(); cerr != nil {
			log.Printf("Error closing %s: %v", path, cerr)
		}
		done(path, true)
	}, parent)

	d.SetFileName(filepath.Base(defaultPath))
	if dir := filepath.Dir(defaultPath); dir != "" {
		if lister, err := storage.ListerForURI(storage.NewFileURI(dir)); err == nil {
			d.SetLocation(lister)
		} else {
			log.Printf("Cannot start save dialog in %s: %v", dir, err)
		}
	}
	d.Show()
}
