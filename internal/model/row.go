package model

import (
	"fmt"
	"path/filepath"
)

// File size formatting constants
const (
	FileSizeUnit  = 1024
	FileSizeUnits = "KMGTPE"
	MaxPercent    = 100
)

// Text fragments used in derived row strings
const (
	SizeSeparator   = " / "
	SizeUnknownText = "size unknown"
	SpeedSuffix     = "/s"
)

// RowView is the display projection of a session. It is rebuilt from the
// session on every change and handed to the presentation list.
type RowView struct {
	ID         SessionID
	Filename   string
	Directory  string
	SizeText   string
	SpeedText  string
	State      SessionState
	Percent    int // -1 when indeterminate
	LastError  string
	TargetPath string

	CanPause  bool
	CanResume bool
	CanCancel bool
}

// FormatFileSize formats file size in bytes to human readable format
func FormatFileSize(bytes int64) string {
	if bytes < FileSizeUnit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(FileSizeUnit), 0
	for n := bytes / FileSizeUnit; n >= FileSizeUnit; n /= FileSizeUnit {
		div *= FileSizeUnit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), FileSizeUnits[exp])
}

// SizeText renders "received / total", or "received / size unknown" when the
// total is not known. A zero total is never printed as a denominator.
func SizeText(received, total int64) string {
	if total <= 0 {
		return FormatFileSize(received) + SizeSeparator + SizeUnknownText
	}
	return FormatFileSize(received) + SizeSeparator + FormatFileSize(total)
}

// SpeedText renders a throughput in bytes per second
func SpeedText(bytesPerSecond float64) string {
	if bytesPerSecond < 0 {
		bytesPerSecond = 0
	}
	return FormatFileSize(int64(bytesPerSecond)) + SpeedSuffix
}

// BuildRow derives the row projection for a session
func BuildRow(s *DownloadSession) RowView {
	row := RowView{
		ID:         s.ID,
		Filename:   s.SuggestedName,
		State:      s.State,
		Percent:    s.Percent(),
		LastError:  s.LastError,
		TargetPath: s.TargetPath,
		SizeText:   SizeText(s.BytesReceived, s.BytesTotal),
	}
	if s.TargetPath != "" {
		row.Filename = filepath.Base(s.TargetPath)
		row.Directory = filepath.Dir(s.TargetPath)
	}

	if s.State.IsActive() {
		row.SpeedText = SpeedText(s.Throughput)
	}

	if !s.State.IsTerminal() {
		row.CanPause = s.State == StateInProgress
		row.CanResume = s.State == StatePaused
		row.CanCancel = true
	}
	return row
}
