package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytget/web-browser/internal/download"
)

type chanSink chan download.Event

func (s chanSink) Post(ev download.Event) { s <- ev }

func newTestEngine(t *testing.T, srv *httptest.Server) (*Engine, chanSink, afero.Fs) {
	t.Helper()
	sink := make(chanSink, 256)
	fs := afero.NewMemMapFs()
	e := New(sink, fs, WithHTTPClient(srv.Client()), WithProgressInterval(time.Millisecond))
	return e, sink, fs
}

// waitFor consumes events until one of type T satisfies match
func waitFor[T download.Event](t *testing.T, events <-chan download.Event, match func(T) bool) T {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if typed, ok := ev.(T); ok && (match == nil || match(typed)) {
				return typed
			}
		case <-timeout:
			var zero T
			t.Fatalf("timed out waiting for %T", zero)
			return zero
		}
	}
}

func TestOpenHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><title> Hello  page </title></head><body><p>First</p><p>Second</p></body></html>`))
	}))
	defer srv.Close()

	e, sink, _ := newTestEngine(t, srv)
	page, err := e.Open(context.Background(), srv.URL+"/index.html")
	require.NoError(t, err)
	assert.Equal(t, "Hello page", page.Title)
	assert.Equal(t, "Hello page", page.DisplayTitle())
	assert.Equal(t, "First\nSecond", page.Text())
	assert.Empty(t, sink)
}

func TestOpenNonHTMLRequestsDownload(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		header   map[string]string
		wantName string
	}{
		{
			name:     "pdf by content type",
			path:     "/files/report.pdf",
			header:   map[string]string{"Content-Type": "application/pdf"},
			wantName: "report.pdf",
		},
		{
			name: "attachment with filename",
			path: "/get?id=1",
			header: map[string]string{
				"Content-Type":        "text/html",
				"Content-Disposition": `attachment; filename="data.csv"`,
			},
			wantName: "data.csv",
		},
		{
			name:     "escaped path segment",
			path:     "/my%20file.zip",
			header:   map[string]string{"Content-Type": "application/zip"},
			wantName: "my file.zip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				for k, v := range tt.header {
					w.Header().Set(k, v)
				}
				_, _ = w.Write([]byte("payload"))
			}))
			defer srv.Close()

			e, sink, _ := newTestEngine(t, srv)
			page, err := e.Open(context.Background(), srv.URL+tt.path)
			require.True(t, errors.Is(err, ErrNotHTML))
			assert.Nil(t, page)

			req := waitFor[download.Requested](t, sink, nil)
			assert.Equal(t, tt.wantName, req.Item.SuggestedName())
			assert.Empty(t, req.Item.PresetPath())
			assert.NotEmpty(t, req.Item.ID())
		})
	}
}

func TestOpenHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	e, _, _ := newTestEngine(t, srv)
	_, err := e.Open(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNotHTML))
}

func TestNameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/a/b/report.pdf", "report.pdf"},
		{"https://example.com/", ""},
		{"https://example.com", ""},
		{"https://example.com/img.png?size=large", "img.png"},
		{"https://example.com/dir/", "dir"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nameFromURL(tt.url), tt.url)
	}
}

func TestPostRecoversFromSinkPanic(t *testing.T) {
	e := New(panickingSink{}, afero.NewMemMapFs())
	assert.NotPanics(t, func() {
		e.post(download.Finished{ID: "dl-x"})
	})
}

type panickingSink struct{}

func (panickingSink) Post(download.Event) { panic("boom") }
