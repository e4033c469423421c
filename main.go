package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"fyne.io/fyne/v2/app"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/ytget/web-browser/internal/config"
	"github.com/ytget/web-browser/internal/download"
	"github.com/ytget/web-browser/internal/engine"
	"github.com/ytget/web-browser/internal/platform"
	"github.com/ytget/web-browser/internal/ui"
)

// Version is set during build via -ldflags "-X main.version=X.Y.Z"
var version = "dev"

const (
	AppID   = "com.ytget.web-browser"
	AppName = "Web Browser"
)

func main() {
	fmt.Printf("%s v%s starting...\n", AppName, version)

	// .env is optional; it only seeds the WEBBROWSER_* defaults
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Error loading .env: %v", err)
	}

	myApp := app.NewWithID(AppID)
	myApp.Settings().SetTheme(ui.NewCompactTheme())
	myApp.SetIcon(ui.LoadAppIcon())

	settings := config.NewSettings(myApp)
	osFs := afero.NewOsFs()
	downloadsDir := settings.GetDownloadDirectory()
	if err := platform.CreateDirectoryIfNotExists(osFs, downloadsDir); err != nil {
		fmt.Printf("failed to ensure downloads dir: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	localization := ui.NewLocalization()
	localization.SetLanguage(settings.GetLanguage())

	mainWindow := myApp.NewWindow(AppName)
	mainWindow.SetMaster()
	downloads := ui.NewDownloadsWindow(myApp, localization)
	prompts := ui.NewPrompts(mainWindow, downloads.Window(), localization)

	tracker := download.NewTracker(downloads, prompts, download.Options{
		Dir:             downloadsDir,
		AskSaveLocation: settings.GetAskSaveLocation(),
		Fs:              osFs,
	})
	downloads.SetControls(tracker)

	browserEngine := engine.New(tracker, osFs, engine.WithContext(ctx))
	browserUI := ui.NewBrowserUI(ctx, myApp, mainWindow, settings, localization, browserEngine, downloads, osFs)

	tracker.SetFinishedCallback(browserUI.OnDownloadFinished)
	browserUI.SetSettingsChangedCallback(func(s *config.Settings) {
		dir := s.GetDownloadDirectory()
		if err := platform.CreateDirectoryIfNotExists(osFs, dir); err != nil {
			log.Printf("Failed to create download directory %s: %v", dir, err)
		}
		tracker.SetSaveDefaults(dir, s.GetAskSaveLocation())
	})

	go func() {
		if err := tracker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Download tracker stopped: %v", err)
		}
	}()

	mainWindow.ShowAndRun()
}
