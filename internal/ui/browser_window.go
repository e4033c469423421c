package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/spf13/afero"

	"github.com/ytget/web-browser/internal/browser"
	"github.com/ytget/web-browser/internal/config"
	"github.com/ytget/web-browser/internal/engine"
	"github.com/ytget/web-browser/internal/model"
)

// MaxTabTitleLength caps the text shown on a tab
const MaxTabTitleLength = 24

// PageEngine is what the browser window needs from the engine
type PageEngine interface {
	Open(ctx context.Context, rawURL string) (*engine.Page, error)
	SavePage(ctx context.Context, page *engine.Page, path string, format engine.SaveFormat) error
	RunScript(page *engine.Page, src string, done func(any, error))
	Download(rawURL, suggestedName, presetPath string) *engine.Item
}

// tabView is the widget state behind one browser tab
type tabView struct {
	tab  *browser.Tab
	item *container.TabItem
	text *widget.Label
	page *engine.Page

	// bumped on every load; answers for older loads are dropped
	loadSeq uint64
}

// BrowserUI is the main window: tabs, toolbar and menu
type BrowserUI struct {
	ctx          context.Context
	app          fyne.App
	window       fyne.Window
	settings     *config.Settings
	localization *Localization
	engine       PageEngine
	downloads    *DownloadsWindow
	fs           afero.Fs

	tabs    *browser.TabSet
	views   map[model.TabID]*tabView
	docTabs *container.DocTabs

	addressEntry *widget.Entry
	backBtn      *widget.Button
	forwardBtn   *widget.Button
	reloadBtn    *widget.Button
	homeBtn      *widget.Button
	downloadsBtn *widget.Button
	newTabBtn    *widget.Button

	// notification panel under the toolbar
	notificationContainer *fyne.Container
	notificationLabel     *widget.Label
	notificationSpinner   *widget.ProgressBarInfinite

	onSettingsChanged func(*config.Settings)
}

// NewBrowserUI builds the main window and opens the home page in a first tab
func NewBrowserUI(
	ctx context.Context,
	app fyne.App,
	window fyne.Window,
	settings *config.Settings,
	localization *Localization,
	pageEngine PageEngine,
	downloads *DownloadsWindow,
	fs afero.Fs,
) *BrowserUI {
	b := &BrowserUI{
		ctx:          ctx,
		app:          app,
		window:       window,
		settings:     settings,
		localization: localization,
		engine:       pageEngine,
		downloads:    downloads,
		fs:           fs,
		tabs:         browser.NewTabSet(),
		views:        make(map[model.TabID]*tabView),
	}

	window.SetTitle(localization.GetText(KeyAppTitle))
	window.Resize(fyne.NewSize(BrowserWidth, BrowserHeight))
	b.setupUI()
	b.openTab(settings.GetHomePage())
	return b
}

// SetSettingsChangedCallback sets a hook run after the settings dialog saved
func (b *BrowserUI) SetSettingsChangedCallback(callback func(*config.Settings)) {
	b.onSettingsChanged = callback
}

func (b *BrowserUI) setupUI() {
	b.createMenu()
	b.registerShortcuts()

	b.backBtn = widget.NewButtonWithIcon("", theme.NavigateBackIcon(), b.onBack)
	b.forwardBtn = widget.NewButtonWithIcon("", theme.NavigateNextIcon(), b.onForward)
	b.reloadBtn = widget.NewButtonWithIcon("", theme.ViewRefreshIcon(), b.onReload)
	b.homeBtn = widget.NewButtonWithIcon("", theme.HomeIcon(), b.onHome)
	b.downloadsBtn = widget.NewButtonWithIcon("", theme.DownloadIcon(), b.downloads.Show)
	b.newTabBtn = widget.NewButtonWithIcon("", theme.ContentAddIcon(), b.onNewTab)
	for _, btn := range []*widget.Button{b.backBtn, b.forwardBtn, b.reloadBtn, b.homeBtn, b.downloadsBtn, b.newTabBtn} {
		btn.Importance = widget.LowImportance
	}

	b.addressEntry = widget.NewEntry()
	b.addressEntry.SetPlaceHolder(b.localization.GetText(KeyEnterAddress))
	b.addressEntry.OnSubmitted = b.onAddressSubmitted

	toolbar := container.NewBorder(nil, nil,
		container.NewHBox(b.backBtn, b.forwardBtn, b.reloadBtn, b.homeBtn),
		container.NewHBox(b.downloadsBtn, b.newTabBtn),
		b.addressEntry,
	)

	b.notificationLabel = widget.NewLabel("")
	b.notificationLabel.Truncation = fyne.TextTruncateEllipsis
	b.notificationSpinner = widget.NewProgressBarInfinite()
	b.notificationSpinner.Hide()
	b.notificationContainer = container.NewBorder(nil, nil, nil, b.notificationSpinner, b.notificationLabel)
	b.notificationContainer.Hide()

	b.docTabs = container.NewDocTabs()
	b.docTabs.CreateTab = func() *container.TabItem {
		return b.createView(b.settings.GetHomePage()).item
	}
	b.docTabs.OnSelected = func(item *container.TabItem) {
		if view := b.viewFor(item); view != nil {
			if err := b.tabs.Select(view.tab.ID); err != nil {
				log.Printf("Select tab: %v", err)
			}
			b.refreshChrome()
		}
	}
	b.docTabs.CloseIntercept = b.closeTab

	b.window.SetContent(container.NewBorder(
		container.NewVBox(toolbar, b.notificationContainer),
		nil, nil, nil,
		b.docTabs,
	))
}

func (b *BrowserUI) createMenu() {
	l := b.localization

	newTabItem := fyne.NewMenuItem(l.GetText(KeyNewTab), b.onNewTab)
	newTabItem.Shortcut = newTabShortcut
	savePageItem := fyne.NewMenuItem(l.GetText(KeySavePage), b.onSavePage)
	savePageItem.Shortcut = savePageShortcut
	saveImageItem := fyne.NewMenuItem(l.GetText(KeySaveImage), b.onSaveImage)
	settingsItem := fyne.NewMenuItem(l.GetText(KeySettings), b.onShowSettings)
	downloadsItem := fyne.NewMenuItem(l.GetText(KeyDownloads), b.downloads.Show)

	languageMenu := fyne.NewMenu(l.GetText(KeyLanguage))
	for code, name := range l.GetAvailableLanguages() {
		langCode := code
		langItem := fyne.NewMenuItem(name, func() {
			b.onLanguageChange(langCode)
		})
		langItem.Checked = l.GetCurrentLanguage() == code
		languageMenu.Items = append(languageMenu.Items, langItem)
	}

	b.window.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu(l.GetText(KeyFile),
			newTabItem,
			fyne.NewMenuItemSeparator(),
			savePageItem,
			saveImageItem,
			fyne.NewMenuItemSeparator(),
			downloadsItem,
			settingsItem,
		),
		languageMenu,
	))
}

var (
	newTabShortcut   = &desktop.CustomShortcut{KeyName: fyne.KeyT, Modifier: fyne.KeyModifierShortcutDefault}
	savePageShortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierShortcutDefault}
)

func (b *BrowserUI) registerShortcuts() {
	c := b.window.Canvas()
	c.AddShortcut(newTabShortcut, func(fyne.Shortcut) { b.onNewTab() })
	c.AddShortcut(savePageShortcut, func(fyne.Shortcut) { b.onSavePage() })
}

func (b *BrowserUI) onLanguageChange(langCode string) {
	b.localization.SetLanguage(langCode)
	b.settings.SetLanguage(langCode)
	b.refreshUITexts()
	b.createMenu()
}

// refreshUITexts updates every visible text to the current language
func (b *BrowserUI) refreshUITexts() {
	b.addressEntry.SetPlaceHolder(b.localization.GetText(KeyEnterAddress))
	for _, view := range b.views {
		b.refreshTab(view)
	}
	b.refreshChrome()
	b.downloads.RefreshTexts()
}

func (b *BrowserUI) onShowSettings() {
	NewSettingsDialog(b.settings, b.localization, b.window, func() {
		b.localization.SetLanguage(b.settings.GetLanguage())
		b.refreshUITexts()
		b.createMenu()
		if b.onSettingsChanged != nil {
			b.onSettingsChanged(b.settings)
		}
	}).Show()
}

// showNotification displays a message under the toolbar
func (b *BrowserUI) showNotification(message string, spinning bool) {
	b.notificationLabel.SetText(message)
	if spinning {
		b.notificationSpinner.Show()
		b.notificationSpinner.Start()
	} else {
		b.notificationSpinner.Stop()
		b.notificationSpinner.Hide()
	}
	b.notificationContainer.Show()
}

func (b *BrowserUI) hideNotification() {
	b.notificationSpinner.Stop()
	b.notificationSpinner.Hide()
	b.notificationContainer.Hide()
}

// Tabs

func (b *BrowserUI) createView(url string) *tabView {
	view := &tabView{tab: b.tabs.Add(url)}
	view.text = widget.NewLabel("")
	view.text.Wrapping = fyne.TextWrapWord
	area := newSwipeArea(container.NewVScroll(view.text), b.onGesture)
	view.item = container.NewTabItem(b.tabTitle(view), area)
	b.views[view.tab.ID] = view

	if url != "" {
		b.load(view, url, false)
	}
	return view
}

func (b *BrowserUI) openTab(url string) *tabView {
	view := b.createView(url)
	b.docTabs.Append(view.item)
	b.docTabs.Select(view.item)
	b.refreshChrome()
	return view
}

func (b *BrowserUI) onNewTab() {
	b.openTab(b.settings.GetHomePage())
}

func (b *BrowserUI) closeTab(item *container.TabItem) {
	view := b.viewFor(item)
	if view == nil {
		b.docTabs.Remove(item)
		return
	}
	if err := b.tabs.Close(view.tab.ID); err != nil {
		if errors.Is(err, browser.ErrLastTab) {
			log.Printf("Keeping the last tab open")
			return
		}
		log.Printf("Close tab: %v", err)
		return
	}
	delete(b.views, view.tab.ID)
	view.loadSeq++
	b.docTabs.Remove(item)

	if selected := b.viewFor(b.docTabs.Selected()); selected != nil {
		if err := b.tabs.Select(selected.tab.ID); err != nil {
			log.Printf("Select tab: %v", err)
		}
	}
	b.refreshChrome()
}

func (b *BrowserUI) viewFor(item *container.TabItem) *tabView {
	if item == nil {
		return nil
	}
	for _, view := range b.views {
		if view.item == item {
			return view
		}
	}
	return nil
}

func (b *BrowserUI) currentView() *tabView {
	tab := b.tabs.Current()
	if tab == nil {
		return nil
	}
	return b.views[tab.ID]
}

func (b *BrowserUI) tabTitle(view *tabView) string {
	title := []rune(view.tab.DisplayTitle(b.localization.GetText(KeyNewTab)))
	if len(title) > MaxTabTitleLength {
		return string(title[:MaxTabTitleLength-1]) + "…"
	}
	return string(title)
}

func (b *BrowserUI) refreshTab(view *tabView) {
	view.item.Text = b.tabTitle(view)
	b.docTabs.Refresh()
}

// refreshChrome syncs the toolbar and window title with the current tab
func (b *BrowserUI) refreshChrome() {
	view := b.currentView()
	if view == nil {
		return
	}
	b.addressEntry.SetText(view.tab.URL())
	setEnabled(b.backBtn, view.tab.CanGoBack())
	setEnabled(b.forwardBtn, view.tab.CanGoForward())
	setEnabled(b.reloadBtn, view.tab.URL() != "")

	title := b.localization.GetText(KeyAppTitle)
	if view.tab.Title != "" {
		title = view.tab.Title + MiddleDotSeparator + title
	}
	b.window.SetTitle(title)
}

func setEnabled(w fyne.Disableable, enabled bool) {
	if enabled {
		w.Enable()
	} else {
		w.Disable()
	}
}

// Navigation

func (b *BrowserUI) onAddressSubmitted(text string) {
	target, err := browser.ResolveInput(text, b.settings.GetSearchURL())
	if err != nil {
		return
	}
	if view := b.currentView(); view != nil {
		b.load(view, target, true)
	}
}

func (b *BrowserUI) onBack() {
	if view := b.currentView(); view != nil {
		if target, ok := view.tab.Back(); ok {
			b.load(view, target, false)
		}
	}
}

func (b *BrowserUI) onForward() {
	if view := b.currentView(); view != nil {
		if target, ok := view.tab.Forward(); ok {
			b.load(view, target, false)
		}
	}
}

func (b *BrowserUI) onReload() {
	if view := b.currentView(); view != nil {
		if target, ok := view.tab.Reload(); ok {
			b.load(view, target, false)
		}
	}
}

func (b *BrowserUI) onHome() {
	if view := b.currentView(); view != nil {
		b.load(view, b.settings.GetHomePage(), true)
	}
}

func (b *BrowserUI) onGesture(g Gesture) {
	switch g {
	case GestureSwipeRight:
		b.onBack()
	case GestureSwipeLeft:
		b.onForward()
	case GesturePullDown:
		b.onReload()
	}
}

// load fetches target for view in the background. When push is set the URL
// enters the tab history once the engine answered with something to show.
func (b *BrowserUI) load(view *tabView, target string, push bool) {
	view.loadSeq++
	seq := view.loadSeq
	if view == b.currentView() {
		b.addressEntry.SetText(target)
		b.showNotification(b.localization.GetText(KeyLoading), true)
	}
	log.Printf("Loading %s in tab %s", target, view.tab.ID)

	go func() {
		ctx, cancel := context.WithTimeout(b.ctx, PageLoadTimeout)
		defer cancel()
		page, err := b.engine.Open(ctx, target)
		fyne.Do(func() {
			b.onLoaded(view, seq, target, push, page, err)
		})
	}()
}

func (b *BrowserUI) onLoaded(view *tabView, seq uint64, target string, push bool, page *engine.Page, err error) {
	if seq != view.loadSeq {
		log.Printf("Dropping stale load of %s", target)
		return
	}
	if _, open := b.views[view.tab.ID]; !open {
		return
	}
	if view == b.currentView() {
		b.hideNotification()
	}

	switch {
	case errors.Is(err, engine.ErrNotHTML):
		// handed to the downloads list; the tab keeps what it showed
		log.Printf("%s is a download", target)
	case err != nil:
		log.Printf("Failed to load %s: %v", target, err)
		if push {
			view.tab.Navigate(target)
		}
		view.page = nil
		view.text.SetText(fmt.Sprintf("%s: %v", b.localization.GetText(KeyPageLoadFailed), err))
	default:
		if push {
			view.tab.Navigate(target)
		}
		if final := page.URL.String(); final != target {
			view.tab.Redirected(final)
		}
		view.page = page
		view.tab.SetTitle(page.Title)
		view.text.SetText(page.Text())
	}

	b.refreshTab(view)
	if view == b.currentView() {
		b.refreshChrome()
	}
}

// Saving

func (b *BrowserUI) onSavePage() {
	view := b.currentView()
	if view == nil || view.page == nil {
		log.Printf("Save page: nothing loaded")
		return
	}
	page := view.page
	defaultPath := filepath.Join(b.settings.GetDownloadDirectory(), browser.SuggestedPageName(page.URL))

	showSavePrompt(b.window, defaultPath, func(path string, ok bool) {
		if !ok {
			return
		}
		b.showNotification(b.localization.GetText(KeySavePage)+": "+filepath.Base(path), true)
		go func() {
			ctx, cancel := context.WithTimeout(b.ctx, PageSaveTimeout)
			defer cancel()
			err := b.engine.SavePage(ctx, page, path, engine.FormatComplete)
			fyne.Do(func() {
				if err != nil {
					log.Printf("Failed to save %s to %s: %v", page.URL, path, err)
					b.showNotification(b.localization.GetText(KeyPageSaveFailed)+": "+err.Error(), false)
					return
				}
				log.Printf("Saved %s to %s", page.URL, path)
				b.showNotification(b.localization.GetText(KeyPageSaved)+": "+path, false)
			})
		}()
	})
}

func (b *BrowserUI) onSaveImage() {
	view := b.currentView()
	if view == nil || view.page == nil {
		log.Printf("Save image: nothing loaded")
		return
	}
	page := view.page
	defaultPath := filepath.Join(b.settings.GetDownloadDirectory(), DefaultImageName)

	showSavePrompt(b.window, defaultPath, func(path string, ok bool) {
		if !ok {
			return
		}
		b.engine.RunScript(page, engine.FirstImageScript, func(result any, err error) {
			src, _ := result.(string)
			if err != nil {
				log.Printf("Image lookup failed on %s: %v", page.URL, err)
			}
			if src == "" {
				b.discardPlaceholder(path)
				return
			}
			log.Printf("Saving image %s to %s", src, path)
			b.engine.Download(src, filepath.Base(path), path)
		})
	})
}

// discardPlaceholder removes the empty file the save dialog created
func (b *BrowserUI) discardPlaceholder(path string) {
	info, err := b.fs.Stat(path)
	if err != nil || info.Size() != 0 {
		return
	}
	if err := b.fs.Remove(path); err != nil {
		log.Printf("Error removing %s: %v", path, err)
	}
}

// Completion

// OnDownloadFinished announces a completed download. Safe from any goroutine.
func (b *BrowserUI) OnDownloadFinished(row model.RowView) {
	fyne.Do(func() {
		if !b.settings.GetNotifyOnComplete() {
			return
		}
		b.app.SendNotification(&fyne.Notification{
			Title:   b.localization.GetText(KeyDownloadCompleted),
			Content: row.Filename,
		})
		b.showToastNotification(row)
	})
}

// showToastNotification shows an in-app toast with open and reveal actions
func (b *BrowserUI) showToastNotification(row model.RowView) {
	titleLabel := widget.NewLabel(b.localization.GetText(KeyDownloadCompleted))
	titleLabel.TextStyle = fyne.TextStyle{Bold: true}

	messageLabel := widget.NewLabel(row.Filename)
	messageLabel.Truncation = fyne.TextTruncateEllipsis

	openBtn := widget.NewButton(b.localization.GetText(KeyOpen), func() {
		b.downloads.onOpen(row.TargetPath)
	})
	openBtn.Importance = widget.HighImportance
	folderBtn := widget.NewButton(b.localization.GetText(KeyFolder), func() {
		b.downloads.onReveal(row.TargetPath)
	})

	var toast *widget.PopUp
	closeBtn := widget.NewButton(IconClose, func() {
		toast.Hide()
	})
	closeBtn.Importance = widget.LowImportance

	content := container.NewVBox(
		container.NewBorder(nil, nil, titleLabel, closeBtn),
		messageLabel,
		container.NewHBox(openBtn, folderBtn),
	)
	toast = widget.NewPopUp(content, b.window.Canvas())

	canvasSize := b.window.Canvas().Size()
	toastSize := fyne.NewSize(ToastWidth, ToastHeight)
	toast.Resize(toastSize)
	toast.Move(fyne.NewPos(canvasSize.Width-toastSize.Width-ToastMargin, ToastMargin))
	toast.Show()

	time.AfterFunc(ToastAutoHide, func() {
		fyne.Do(toast.Hide)
	})
}
