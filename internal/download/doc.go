// Package download tracks the lifecycle of engine transfers and projects it
// onto the downloads window.
//
// The engine and the UI never touch a session directly. Both post typed
// events (Requested, Progress, StateChanged, PauseRequested, ...) to a
// Tracker, and a single goroutine running Tracker.Run applies them in the
// order they were posted. That goroutine is the only one that reads or writes
// session state, so the tracker needs no locks around it.
//
// # Basic Usage
//
//	tracker := download.NewTracker(downloadsWindow, prompts, download.Options{
//	    Dir:             settings.GetDownloadDirectory(),
//	    AskSaveLocation: true,
//	})
//	go tracker.Run(ctx)
//
//	eng := engine.New(tracker, fs)
//	eng.Download("https://example.com/report.pdf", "", "")
package download
