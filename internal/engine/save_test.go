package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const galleryHTML = `<html><head><title>Gallery</title>
<link rel="stylesheet" href="/style.css">
<script src="/gone.js"></script>
</head><body>
<img src="/img/cat.png">
<img src="/img/cat.png">
<img src="data:image/png;base64,AAAA">
</body></html>`

func galleryServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/gallery/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(galleryHTML))
	})
	mux.HandleFunc("/style.css", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("body{}"))
	})
	mux.HandleFunc("/img/cat.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PNG"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestSavePageSingleHTML(t *testing.T) {
	srv := galleryServer(t)
	e, _, fs := newTestEngine(t, srv)

	page, err := e.Open(context.Background(), srv.URL+"/gallery/")
	require.NoError(t, err)

	require.NoError(t, e.SavePage(context.Background(), page, "/saved/gallery.html", FormatSingleHTML))

	data, err := afero.ReadFile(fs, "/saved/gallery.html")
	require.NoError(t, err)
	assert.Equal(t, galleryHTML, string(data))

	exists, err := afero.DirExists(fs, "/saved/gallery_files")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSavePageComplete(t *testing.T) {
	srv := galleryServer(t)
	e, _, fs := newTestEngine(t, srv)

	page, err := e.Open(context.Background(), srv.URL+"/gallery/")
	require.NoError(t, err)

	require.NoError(t, e.SavePage(context.Background(), page, "/saved/gallery.html", FormatComplete))

	css, err := afero.ReadFile(fs, "/saved/gallery_files/0_style.css")
	require.NoError(t, err)
	assert.Equal(t, "body{}", string(css))

	img, err := afero.ReadFile(fs, "/saved/gallery_files/2_cat.png")
	require.NoError(t, err)
	assert.Equal(t, "PNG", string(img))

	doc, err := afero.ReadFile(fs, "/saved/gallery.html")
	require.NoError(t, err)
	html := string(doc)
	assert.Contains(t, html, `href="gallery_files/0_style.css"`)
	assert.Equal(t, 2, strings.Count(html, `src="gallery_files/2_cat.png"`))
	// failed fetches stay absolute
	assert.Contains(t, html, `src="`+srv.URL+`/gone.js"`)
	assert.Contains(t, html, `src="data:image/png;base64,AAAA"`)
}

func TestSavePageNil(t *testing.T) {
	e := New(make(chanSink, 1), afero.NewMemMapFs())
	require.Error(t, e.SavePage(context.Background(), nil, "/x.html", FormatComplete))
}

func TestSavePageCompleteWithoutResources(t *testing.T) {
	e := New(make(chanSink, 1), afero.NewMemMapFs())
	u, _ := url.Parse("https://example.com/plain")
	page, err := ParsePage(u, []byte(`<p>plain</p>`))
	require.NoError(t, err)

	require.NoError(t, e.SavePage(context.Background(), page, "/out/plain.html", FormatComplete))
	exists, err := afero.DirExists(e.fs, "/out/plain_files")
	require.NoError(t, err)
	assert.False(t, exists)
}
