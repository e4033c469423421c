package ui

import (
	"log"
	"slices"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/ytget/web-browser/internal/config"
)

// SettingsDialog edits the persisted preferences
type SettingsDialog struct {
	settings     *config.Settings
	localization *Localization
	window       fyne.Window
	dialog       *dialog.ConfirmDialog
	onSaved      func()

	downloadDirEntry *widget.Entry
	homePageEntry    *widget.Entry
	searchURLEntry   *widget.Entry
	askCheck         *widget.Check
	notifyCheck      *widget.Check
	languageSelect   *widget.Select

	// display label -> language code
	languageCodes map[string]string
}

// NewSettingsDialog creates a settings dialog; onSaved runs after the values were stored
func NewSettingsDialog(settings *config.Settings, localization *Localization, window fyne.Window, onSaved func()) *SettingsDialog {
	sd := &SettingsDialog{
		settings:      settings,
		localization:  localization,
		window:        window,
		onSaved:       onSaved,
		languageCodes: make(map[string]string),
	}
	sd.createUI()
	return sd
}

// Show displays the dialog with the current values
func (sd *SettingsDialog) Show() {
	sd.loadCurrentSettings()
	sd.dialog.Show()
}

func (sd *SettingsDialog) createUI() {
	l := sd.localization

	sd.downloadDirEntry = widget.NewEntry()
	browseDirBtn := widget.NewButton(l.GetText(KeyBrowse), sd.onBrowseDirectory)
	downloadDirRow := container.NewBorder(nil, nil, nil, browseDirBtn, sd.downloadDirEntry)

	sd.homePageEntry = widget.NewEntry()
	sd.homePageEntry.SetPlaceHolder(config.DefaultHomePage)

	sd.searchURLEntry = widget.NewEntry()
	sd.searchURLEntry.SetPlaceHolder(config.DefaultSearchURL)

	sd.askCheck = widget.NewCheck(l.GetText(KeyAskSaveLocation), nil)
	sd.notifyCheck = widget.NewCheck(l.GetText(KeyNotifyOnComplete), nil)

	var labels []string
	codes := make([]string, 0)
	options := sd.settings.GetLanguageOptions()
	for code := range options {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	for _, code := range codes {
		labels = append(labels, options[code])
		sd.languageCodes[options[code]] = code
	}
	sd.languageSelect = widget.NewSelect(labels, nil)

	form := container.NewVBox(
		widget.NewLabel(l.GetText(KeyDownloadDirectory)+":"),
		downloadDirRow,
		sd.askCheck,
		sd.notifyCheck,
		widget.NewSeparator(),

		widget.NewLabel(l.GetText(KeyHomePage)+":"),
		sd.homePageEntry,
		widget.NewLabel(l.GetText(KeySearchURL)+":"),
		sd.searchURLEntry,
		widget.NewSeparator(),

		widget.NewLabel(l.GetText(KeyLanguage)+":"),
		sd.languageSelect,
	)

	sd.dialog = dialog.NewCustomConfirm(
		l.GetText(KeySettings),
		l.GetText(KeySave),
		l.GetText(KeyCancel),
		form,
		sd.onSave,
		sd.window,
	)
	sd.dialog.Resize(fyne.NewSize(SettingsWidth, SettingsHeight))
}

func (sd *SettingsDialog) loadCurrentSettings() {
	sd.downloadDirEntry.SetText(sd.settings.GetDownloadDirectory())
	sd.homePageEntry.SetText(sd.settings.GetHomePage())
	sd.searchURLEntry.SetText(sd.settings.GetSearchURL())
	sd.askCheck.SetChecked(sd.settings.GetAskSaveLocation())
	sd.notifyCheck.SetChecked(sd.settings.GetNotifyOnComplete())

	lang := sd.settings.GetLanguage()
	for label, code := range sd.languageCodes {
		if code == lang {
			sd.languageSelect.SetSelected(label)
			break
		}
	}
}

func (sd *SettingsDialog) onBrowseDirectory() {
	dialog.ShowFolderOpen(func(uri fyne.ListableURI, err error) {
		if err != nil {
			log.Printf("Folder dialog error: %v", err)
			return
		}
		if uri == nil {
			return
		}
		sd.downloadDirEntry.SetText(uri.Path())
	}, sd.window)
}

func (sd *SettingsDialog) onSave(confirmed bool) {
	if !confirmed {
		return
	}

	if dir := sd.downloadDirEntry.Text; dir != "" {
		sd.settings.SetDownloadDirectory(dir)
	}
	sd.settings.SetHomePage(sd.homePageEntry.Text)
	sd.settings.SetSearchURL(sd.searchURLEntry.Text)
	sd.settings.SetAskSaveLocation(sd.askCheck.Checked)
	sd.settings.SetNotifyOnComplete(sd.notifyCheck.Checked)
	if code, ok := sd.languageCodes[sd.languageSelect.Selected]; ok {
		sd.settings.SetLanguage(code)
	}
	log.Printf("Settings saved: dir=%s ask=%v", sd.settings.GetDownloadDirectory(), sd.settings.GetAskSaveLocation())

	if sd.onSaved != nil {
		sd.onSaved()
	}
	dialog.ShowInformation(sd.localization.GetText(KeySettings), sd.localization.GetText(KeySettingsSaved), sd.window)
}
