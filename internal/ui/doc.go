// Package ui is the Fyne desktop front end: the tabbed browser window, the
// downloads window that presents tracker rows, the dialogs the tracker
// prompts through, and settings. Texts are localized via Localization.
package ui
