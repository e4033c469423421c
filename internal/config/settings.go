package config

import (
	"os"

	"fyne.io/fyne/v2"

	"github.com/ytget/web-browser/internal/platform"
)

// Settings keys for Fyne preferences
const (
	KeyDownloadDir      = "download_directory"
	KeyHomePage         = "home_page"
	KeySearchURL        = "search_url_template"
	KeyAskSaveLocation  = "ask_save_location"
	KeyLanguage         = "app_language"
	KeyNotifyOnComplete = "notify_on_complete"
)

// Environment variables that override the built-in defaults
const (
	EnvHomePage    = "WEBBROWSER_HOME"
	EnvDownloadDir = "WEBBROWSER_DOWNLOAD_DIR"
	EnvSearchURL   = "WEBBROWSER_SEARCH_URL"
)

// Default values
const (
	DefaultHomePage         = "https://www.google.com"
	DefaultSearchURL        = "https://www.google.com/search?q=%s"
	DefaultAskSaveLocation  = true
	DefaultLanguage         = "system"
	DefaultNotifyOnComplete = true
	FallbackDownloadDir     = "/tmp/downloads"
)

// Settings manages application configuration
type Settings struct {
	app    fyne.App
	getenv func(string) string
}

// NewSettings creates a new settings manager
func NewSettings(app fyne.App) *Settings {
	return &Settings{app: app, getenv: os.Getenv}
}

func (s *Settings) envOr(key, fallback string) string {
	if v := s.getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetDownloadDirectory returns the configured download directory
func (s *Settings) GetDownloadDirectory() string {
	dir := s.app.Preferences().String(KeyDownloadDir)
	if dir != "" {
		return dir
	}
	if env := s.getenv(EnvDownloadDir); env != "" {
		return env
	}
	defaultDir, err := platform.DefaultDownloadDir()
	if err != nil {
		defaultDir = FallbackDownloadDir
	}
	s.SetDownloadDirectory(defaultDir)
	return defaultDir
}

// SetDownloadDirectory sets the download directory
func (s *Settings) SetDownloadDirectory(dir string) {
	s.app.Preferences().SetString(KeyDownloadDir, dir)
}

// GetHomePage returns the page opened in new tabs
func (s *Settings) GetHomePage() string {
	return s.app.Preferences().StringWithFallback(KeyHomePage, s.envOr(EnvHomePage, DefaultHomePage))
}

// SetHomePage sets the home page; empty restores the default
func (s *Settings) SetHomePage(url string) {
	if url == "" {
		s.app.Preferences().RemoveValue(KeyHomePage)
		return
	}
	s.app.Preferences().SetString(KeyHomePage, url)
}

// GetSearchURL returns the search URL template; %s is replaced by the query
func (s *Settings) GetSearchURL() string {
	return s.app.Preferences().StringWithFallback(KeySearchURL, s.envOr(EnvSearchURL, DefaultSearchURL))
}

// SetSearchURL sets the search URL template; empty restores the default
func (s *Settings) SetSearchURL(template string) {
	if template == "" {
		s.app.Preferences().RemoveValue(KeySearchURL)
		return
	}
	s.app.Preferences().SetString(KeySearchURL, template)
}

// GetAskSaveLocation returns whether every download prompts for a location
func (s *Settings) GetAskSaveLocation() bool {
	return s.app.Preferences().BoolWithFallback(KeyAskSaveLocation, DefaultAskSaveLocation)
}

// SetAskSaveLocation sets whether every download prompts for a location
func (s *Settings) SetAskSaveLocation(ask bool) {
	s.app.Preferences().SetBool(KeyAskSaveLocation, ask)
}

// GetLanguage returns the configured language
func (s *Settings) GetLanguage() string {
	lang := s.app.Preferences().String(KeyLanguage)
	if lang == "" {
		s.SetLanguage(DefaultLanguage)
		return DefaultLanguage
	}
	return lang
}

// SetLanguage sets the application language
func (s *Settings) SetLanguage(lang string) {
	s.app.Preferences().SetString(KeyLanguage, lang)
}

// GetNotifyOnComplete returns whether finished downloads raise a notification
func (s *Settings) GetNotifyOnComplete() bool {
	return s.app.Preferences().BoolWithFallback(KeyNotifyOnComplete, DefaultNotifyOnComplete)
}

// SetNotifyOnComplete sets whether finished downloads raise a notification
func (s *Settings) SetNotifyOnComplete(notify bool) {
	s.app.Preferences().SetBool(KeyNotifyOnComplete, notify)
}

// GetLanguageOptions returns available language options
func (s *Settings) GetLanguageOptions() map[string]string {
	return map[string]string{
		"system": "System Default",
		"en":     "English",
		"ru":     "Русский",
	}
}
