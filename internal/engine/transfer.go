package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/ytget/web-browser/internal/download"
	"github.com/ytget/web-browser/internal/model"
	"github.com/ytget/web-browser/internal/platform"
)

// Transfer tuning
const (
	TransferBufferSize = 32 * 1024
	PartialFilePerm    = 0644
)

type itemState int

const (
	itemIdle itemState = iota
	itemRunning
	itemPaused
	itemDone
)

type stopReason int

const (
	stopNone stopReason = iota
	stopPause
	stopCancel
)

// run is one HTTP attempt; pausing ends it, resuming starts a new one
type run struct {
	cancel context.CancelFunc
	stop   stopReason
	done   chan struct{}
}

// Item is one transfer. It implements download.Item.
type Item struct {
	engine    *Engine
	id        model.SessionID
	url       string
	suggested string
	preset    string

	received atomic.Int64
	total    atomic.Int64

	mu      sync.Mutex
	path    string
	state   itemState
	current *run
}

var _ download.Item = (*Item)(nil)

func newItem(e *Engine, id model.SessionID, rawURL, suggested, preset string) *Item {
	return &Item{
		engine:    e,
		id:        id,
		url:       rawURL,
		suggested: suggested,
		preset:    preset,
		path:      preset,
	}
}

func (i *Item) ID() model.SessionID   { return i.id }
func (i *Item) SuggestedName() string { return i.suggested }
func (i *Item) SourceURL() string     { return i.url }
func (i *Item) PresetPath() string    { return i.preset }

// Path returns the target path set before Accept
func (i *Item) Path() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.path
}

// SetPath sets the target path; ignored once the transfer started
func (i *Item) SetPath(path string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == itemIdle {
		i.path = path
	}
}

// Accept starts the transfer
func (i *Item) Accept() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != itemIdle {
		return fmt.Errorf("download %s already started", i.id)
	}
	if i.path == "" {
		return fmt.Errorf("download %s has no target path", i.id)
	}
	i.state = itemRunning
	i.start()
	return nil
}

// Reject discards the request without touching the file system
func (i *Item) Reject() {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == itemIdle {
		i.state = itemDone
		log.Printf("Download %s rejected", i.id)
	}
}

// Pause stops the current attempt; the bytes written so far are kept
func (i *Item) Pause() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != itemRunning {
		return nil
	}
	i.state = itemPaused
	i.current.stop = stopPause
	i.current.cancel()
	return nil
}

// Resume continues a paused transfer from the bytes already on disk
func (i *Item) Resume() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != itemPaused {
		return nil
	}
	i.state = itemRunning
	i.start()
	return nil
}

// Cancel aborts the transfer and removes the partial file
func (i *Item) Cancel() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	switch i.state {
	case itemDone:
		return nil
	case itemRunning:
		i.current.stop = stopCancel
		i.current.cancel()
		return nil
	}

	// paused or never started: no attempt is running, or the last one is exiting
	i.state = itemDone
	var prev chan struct{}
	if i.current != nil {
		prev = i.current.done
	}
	go func() {
		if prev != nil {
			<-prev
		}
		i.removePartial()
		i.engine.post(download.StateChanged{ID: i.id, State: model.StateCancelled})
		i.engine.post(download.Finished{ID: i.id})
	}()
	return nil
}

// start launches a new attempt. Caller holds mu.
func (i *Item) start() {
	ctx, cancel := context.WithCancel(i.engine.ctx)
	r := &run{cancel: cancel, done: make(chan struct{})}
	var prev chan struct{}
	if i.current != nil {
		prev = i.current.done
	}
	i.current = r

	go func() {
		defer close(r.done)
		defer cancel()
		if prev != nil {
			<-prev
		}
		i.engine.post(download.StateChanged{ID: i.id, State: model.StateInProgress})
		err := i.transfer(ctx)
		i.finish(r, err)
	}()
}

func (i *Item) finish(r *run, err error) {
	i.mu.Lock()
	stop := r.stop
	if err == nil || stop != stopPause {
		i.state = itemDone
	}
	i.mu.Unlock()

	id := i.id
	received, total := i.received.Load(), i.total.Load()

	switch {
	case err == nil:
		i.engine.post(download.Progress{ID: id, Received: received, Total: total})
		i.engine.post(download.StateChanged{ID: id, State: model.StateCompleted})
		i.engine.post(download.Finished{ID: id})
		log.Printf("Download %s completed: %s", id, i.Path())
	case stop == stopCancel:
		i.removePartial()
		i.engine.post(download.StateChanged{ID: id, State: model.StateCancelled})
		i.engine.post(download.Finished{ID: id})
		log.Printf("Download %s cancelled", id)
	case stop == stopPause:
		i.engine.post(download.Progress{ID: id, Received: received, Total: total})
		i.engine.post(download.StateChanged{ID: id, State: model.StatePaused})
		log.Printf("Download %s paused at %d bytes", id, received)
	default:
		i.engine.post(download.StateChanged{ID: id, State: model.StateInterrupted, Err: err})
		i.engine.post(download.Finished{ID: id})
		log.Printf("Download %s interrupted: %v", id, err)
	}
}

func (i *Item) removePartial() {
	path := i.Path()
	if path == "" {
		return
	}
	if err := i.engine.fs.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Failed to remove partial file %s: %v", path, err)
	}
}

// transfer fetches the remaining bytes into the target file
func (i *Item) transfer(ctx context.Context) error {
	path := i.Path()
	if err := platform.CreateDirectoryIfNotExists(i.engine.fs, filepath.Dir(path)); err != nil {
		return err
	}

	req, err := i.engine.newRequest(ctx, i.url)
	if err != nil {
		return err
	}
	offset := i.received.Load()
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := i.engine.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	flags := os.O_CREATE | os.O_WRONLY
	switch resp.StatusCode {
	case http.StatusPartialContent:
		flags |= os.O_APPEND
		i.total.Store(totalFromContentRange(resp.Header.Get("Content-Range"), offset+resp.ContentLength))
	case http.StatusOK:
		// no range support: start over
		flags |= os.O_TRUNC
		offset = 0
		i.received.Store(0)
		i.total.Store(max(resp.ContentLength, model.UnknownSize))
	default:
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}

	file, err := i.engine.fs.OpenFile(path, flags, PartialFilePerm)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	ticks := rate.Sometimes{Interval: i.engine.progressInterval}
	buf := make([]byte, TransferBufferSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := file.Write(buf[:n]); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			received := i.received.Add(int64(n))
			ticks.Do(func() {
				i.engine.post(download.Progress{ID: i.id, Received: received, Total: i.total.Load()})
			})
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read failed: %w", readErr)
		}
	}

	if total := i.total.Load(); total > 0 && i.received.Load() < total {
		return fmt.Errorf("transfer ended early: %d of %d bytes", i.received.Load(), total)
	}
	return nil
}

// totalFromContentRange parses "bytes 100-199/200"; fallback when the total is "*" or malformed
func totalFromContentRange(header string, fallback int64) int64 {
	slash := strings.LastIndex(header, "/")
	if slash < 0 {
		return max(fallback, model.UnknownSize)
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[slash+1:]), 10, 64)
	if err != nil {
		return max(fallback, model.UnknownSize)
	}
	return total
}
