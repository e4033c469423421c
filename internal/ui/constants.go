package ui

import "time"

// Icons (emojis/symbols)
const (
	IconSettings = "⚙"
	IconPlay     = "▶"
	IconPause    = "⏸"
	IconFolder   = "📁"
	IconFile     = "📄"
	IconClose    = "×"
	IconError    = "❌"
	IconCancel   = "⏹"
	IconWaiting  = "⏳"
)

// Text fragments
const (
	MiddleDotSeparator  = " · "
	DashPlaceholder     = "—"
	ProgressLabelFormat = "%d%%"
)

// Layout sizing (DownloadRow / windows)
const (
	StatusLabelWidth  float32 = 110
	SpeedLabelWidth   float32 = 100
	PercentLabelWidth float32 = 48

	RowMinWidth float32 = 520

	BrowserWidth    float32 = 1024
	BrowserHeight   float32 = 720
	DownloadsWidth  float32 = 640
	DownloadsHeight float32 = 400
	SettingsWidth   float32 = 520
	SettingsHeight  float32 = 420
)

// Toast notification sizing and behavior
const (
	ToastWidth    float32 = 300
	ToastHeight   float32 = 120
	ToastMargin   float32 = 20
	ToastAutoHide         = 5 * time.Second
)

// Page loading and saving
const (
	PageLoadTimeout  = 30 * time.Second
	PageSaveTimeout  = 2 * time.Minute
	DefaultImageName = "image.png"
)
