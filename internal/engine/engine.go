package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/ytget/web-browser/internal/download"
	"github.com/ytget/web-browser/internal/model"
)

// Engine defaults
const (
	DefaultProgressInterval = 250 * time.Millisecond
	DefaultUserAgent        = "WebBrowser/1.0"
	MaxPageSize             = 16 << 20
	HTMLMediaType           = "text/html"
	XHTMLMediaType          = "application/xhtml+xml"
	AttachmentDisposition   = "attachment"
)

// ErrNotHTML is returned by Open when the response was handed over to the
// download machinery instead of being shown as a page
var ErrNotHTML = errors.New("response is not a page, download requested")

// Engine fetches pages and runs transfers
type Engine struct {
	ctx              context.Context
	client           *http.Client
	fs               afero.Fs
	sink             download.Sink
	progressInterval time.Duration
	userAgent        string
}

// Option configures an Engine
type Option func(*Engine)

// WithHTTPClient sets the HTTP client used for pages and transfers
func WithHTTPClient(client *http.Client) Option {
	return func(e *Engine) { e.client = client }
}

// WithProgressInterval sets the minimum interval between progress events
func WithProgressInterval(interval time.Duration) Option {
	return func(e *Engine) { e.progressInterval = interval }
}

// WithContext bounds every transfer by ctx
func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.ctx = ctx }
}

// New creates an engine reporting transfer events to sink and writing through fs
func New(sink download.Sink, fs afero.Fs, opts ...Option) *Engine {
	e := &Engine{
		ctx:              context.Background(),
		client:           http.DefaultClient,
		fs:               fs,
		sink:             sink,
		progressInterval: DefaultProgressInterval,
		userAgent:        DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// post hands an event to the sink; a misbehaving sink must not take a
// transfer goroutine down with it
func (e *Engine) post(ev download.Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Download event sink panicked on %T: %v", ev, r)
		}
	}()
	e.sink.Post(ev)
}

func (e *Engine) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", e.userAgent)
	return req, nil
}

// Download starts a new transfer request. An empty suggestedName is derived
// from the URL; a non-empty presetPath skips the save prompt.
func (e *Engine) Download(rawURL, suggestedName, presetPath string) *Item {
	if suggestedName == "" {
		suggestedName = nameFromURL(rawURL)
	}
	item := newItem(e, model.NewSessionID(), rawURL, suggestedName, presetPath)
	e.post(download.Requested{Item: item})
	return item
}

// Open loads rawURL. HTML responses become a Page; anything else is turned
// into a download request and ErrNotHTML is returned.
func (e *Engine) Open(ctx context.Context, rawURL string) (*Page, error) {
	req, err := e.newRequest(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("failed to load %s: %s", rawURL, resp.Status)
	}

	finalURL := resp.Request.URL
	if name, isDownload := downloadName(resp); isDownload {
		e.Download(finalURL.String(), name, "")
		return nil, ErrNotHTML
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", rawURL, err)
	}
	return ParsePage(finalURL, body)
}

// downloadName decides whether a response should be saved rather than shown
func downloadName(resp *http.Response) (string, bool) {
	name := ""
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		disposition, params, err := mime.ParseMediaType(cd)
		if err == nil {
			name = params["filename"]
			if disposition == AttachmentDisposition {
				if name == "" {
					name = nameFromURL(resp.Request.URL.String())
				}
				return name, true
			}
		}
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		return "", false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", false
	}
	if mediaType == HTMLMediaType || mediaType == XHTMLMediaType {
		return "", false
	}
	if name == "" {
		name = nameFromURL(resp.Request.URL.String())
	}
	return name, true
}

// nameFromURL returns the last path segment of rawURL, or "" if there is none
func nameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		base = unescaped
	}
	return strings.TrimSpace(base)
}
