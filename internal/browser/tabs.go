package browser

import (
	"errors"
	"fmt"

	"github.com/ytget/web-browser/internal/model"
)

var (
	// ErrLastTab is returned when closing the only remaining tab
	ErrLastTab = errors.New("cannot close the last tab")
	// ErrUnknownTab is returned for IDs not in the set
	ErrUnknownTab = errors.New("unknown tab")
)

// Tab is one browsing context with its own history
type Tab struct {
	ID    model.TabID
	Title string

	history []string
	index   int
}

func newTab(url string) *Tab {
	t := &Tab{ID: model.NewTabID(), index: -1}
	if url != "" {
		t.Navigate(url)
	}
	return t
}

// URL returns the current history entry, "" for a blank tab
func (t *Tab) URL() string {
	if t.index < 0 {
		return ""
	}
	return t.history[t.index]
}

// Navigate pushes url, dropping any forward entries
func (t *Tab) Navigate(url string) {
	t.history = append(t.history[:t.index+1], url)
	t.index = len(t.history) - 1
	t.Title = ""
}

// Redirected replaces the current entry, e.g. after the server redirected
func (t *Tab) Redirected(url string) {
	if t.index < 0 {
		t.Navigate(url)
		return
	}
	t.history[t.index] = url
}

func (t *Tab) CanGoBack() bool    { return t.index > 0 }
func (t *Tab) CanGoForward() bool { return t.index >= 0 && t.index < len(t.history)-1 }

// Back moves one entry back and returns the URL to load
func (t *Tab) Back() (string, bool) {
	if !t.CanGoBack() {
		return "", false
	}
	t.index--
	t.Title = ""
	return t.URL(), true
}

// Forward moves one entry forward and returns the URL to load
func (t *Tab) Forward() (string, bool) {
	if !t.CanGoForward() {
		return "", false
	}
	t.index++
	t.Title = ""
	return t.URL(), true
}

// Reload returns the URL to load again
func (t *Tab) Reload() (string, bool) {
	url := t.URL()
	return url, url != ""
}

// SetTitle records the loaded document title
func (t *Tab) SetTitle(title string) {
	t.Title = title
}

// DisplayTitle is the title, the URL for untitled pages, or fallback for blank tabs
func (t *Tab) DisplayTitle(fallback string) string {
	switch {
	case t.Title != "":
		return t.Title
	case t.URL() != "":
		return t.URL()
	default:
		return fallback
	}
}

// TabSet is the ordered list of open tabs. It is not safe for concurrent
// use; the UI goroutine owns it.
type TabSet struct {
	tabs    []*Tab
	current int
}

// NewTabSet creates an empty set
func NewTabSet() *TabSet {
	return &TabSet{current: -1}
}

// Add opens a tab at url and makes it current
func (s *TabSet) Add(url string) *Tab {
	t := newTab(url)
	s.tabs = append(s.tabs, t)
	s.current = len(s.tabs) - 1
	return t
}

func (s *TabSet) indexOf(id model.TabID) int {
	for i, t := range s.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the tab with id
func (s *TabSet) Get(id model.TabID) (*Tab, error) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTab, id)
	}
	return s.tabs[i], nil
}

// Close removes a tab; the last tab cannot be closed
func (s *TabSet) Close(id model.TabID) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTab, id)
	}
	if len(s.tabs) == 1 {
		return ErrLastTab
	}
	s.tabs = append(s.tabs[:i], s.tabs[i+1:]...)
	if s.current > i || s.current >= len(s.tabs) {
		s.current--
	}
	return nil
}

// Select makes id the current tab
func (s *TabSet) Select(id model.TabID) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownTab, id)
	}
	s.current = i
	return nil
}

// Current returns the selected tab, nil if there is none
func (s *TabSet) Current() *Tab {
	if s.current < 0 || s.current >= len(s.tabs) {
		return nil
	}
	return s.tabs[s.current]
}

// List returns the tabs in display order
func (s *TabSet) List() []*Tab {
	return append([]*Tab(nil), s.tabs...)
}

// Len returns the number of open tabs
func (s *TabSet) Len() int {
	return len(s.tabs)
}
