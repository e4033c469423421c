package engine

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/sync/errgroup"

	"github.com/ytget/web-browser/internal/platform"
)

// SaveFormat selects what SavePage writes
type SaveFormat int

const (
	// FormatSingleHTML writes the document only
	FormatSingleHTML SaveFormat = iota
	// FormatComplete writes the document and a <name>_files directory with its resources
	FormatComplete
)

// Save tuning
const (
	ResourceDirSuffix    = "_files"
	MaxConcurrentFetches = 4
	DefaultResourceName  = "resource"
	SavedFilePerm        = 0644
)

// resourceRef is one attribute pointing at a resource
type resourceRef struct {
	node *html.Node
	key  string
	abs  string
}

// SavePage writes page to path in the given format
func (e *Engine) SavePage(ctx context.Context, page *Page, path string, format SaveFormat) error {
	if page == nil {
		return fmt.Errorf("no page to save")
	}
	if err := platform.CreateDirectoryIfNotExists(e.fs, filepath.Dir(path)); err != nil {
		return err
	}
	if format == FormatSingleHTML {
		return e.writeFile(path, page.HTML)
	}

	doc, err := html.Parse(bytes.NewReader(page.HTML))
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", page.URL, err)
	}
	refs := collectResources(page, doc)

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	dirName := base + ResourceDirSuffix
	dir := filepath.Join(filepath.Dir(path), dirName)

	// one file per distinct URL
	local := make(map[string]string)
	var order []string
	for _, ref := range refs {
		if _, seen := local[ref.abs]; !seen {
			local[ref.abs] = ""
			order = append(order, ref.abs)
		}
	}

	if len(order) > 0 {
		if err := platform.CreateDirectoryIfNotExists(e.fs, dir); err != nil {
			return err
		}
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentFetches)
	for idx, abs := range order {
		name := resourceFileName(idx, abs)
		g.Go(func() error {
			data, err := e.fetchResource(gctx, abs)
			if err != nil {
				// the reference stays absolute
				log.Printf("Failed to fetch %s: %v", abs, err)
				return nil
			}
			if err := e.writeFile(filepath.Join(dir, name), data); err != nil {
				return err
			}
			mu.Lock()
			local[abs] = dirName + "/" + name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, ref := range refs {
		if rel := local[ref.abs]; rel != "" {
			setAttr(ref.node, ref.key, rel)
		} else {
			setAttr(ref.node, ref.key, ref.abs)
		}
	}

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return fmt.Errorf("failed to render %s: %w", page.URL, err)
	}
	return e.writeFile(path, out.Bytes())
}

func collectResources(page *Page, doc *html.Node) []resourceRef {
	var refs []resourceRef
	add := func(n *html.Node, key string) {
		if abs := page.Resolve(attr(n, key)); strings.HasPrefix(abs, "http://") || strings.HasPrefix(abs, "https://") {
			refs = append(refs, resourceRef{node: n, key: key, abs: abs})
		}
	}
	findAll(doc, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Img, atom.Script:
			add(n, "src")
		case atom.Link:
			if strings.EqualFold(strings.TrimSpace(attr(n, "rel")), "stylesheet") {
				add(n, "href")
			}
		}
		return false
	})
	return refs
}

func resourceFileName(idx int, abs string) string {
	name := platform.SanitizeFileName(nameFromURL(abs))
	if name == "" || name == platform.DefaultFileName {
		name = DefaultResourceName
	}
	return fmt.Sprintf("%d_%s", idx, name)
}

func (e *Engine) fetchResource(ctx context.Context, abs string) ([]byte, error) {
	req, err := e.newRequest(ctx, abs)
	if err != nil {
		return nil, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, MaxPageSize))
}

func (e *Engine) writeFile(path string, data []byte) error {
	if err := afero.WriteFile(e.fs, path, data, SavedFilePerm); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
