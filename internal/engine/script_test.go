package engine

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleHTML = `<!DOCTYPE html>
<html><head><title>Article</title><style>p{color:red}</style></head>
<body>
<div id="header" class="top bar"><a href="/home" class="nav active">Home</a></div>
<script>var hidden = "not text";</script>
<div class="gallery">
  <img src="photos/one.jpg" alt="one">
  <img src="https://cdn.example.com/two.jpg" alt="two">
</div>
<p>Hello <b>world</b></p>
<ul><li>first</li><li>second</li></ul>
</body></html>`

func mustPage(t *testing.T, raw, body string) *Page {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	page, err := ParsePage(u, []byte(body))
	require.NoError(t, err)
	return page
}

func TestPageText(t *testing.T) {
	page := mustPage(t, "https://example.com/blog/post", articleHTML)
	assert.Equal(t, "Article", page.Title)
	assert.Equal(t, "Home\nHello world\nfirst\nsecond", page.Text())
}

func TestPageImages(t *testing.T) {
	page := mustPage(t, "https://example.com/blog/post", articleHTML)
	assert.Equal(t, []string{
		"https://example.com/blog/photos/one.jpg",
		"https://cdn.example.com/two.jpg",
	}, page.Images())
}

func TestPageDisplayTitleFallsBackToURL(t *testing.T) {
	page := mustPage(t, "https://example.com/raw", "<p>no title</p>")
	assert.Equal(t, "https://example.com/raw", page.DisplayTitle())
}

func TestEvalScript(t *testing.T) {
	page := mustPage(t, "https://example.com/blog/post", articleHTML)

	tests := []struct {
		name string
		src  string
		want any
	}{
		{"first image", FirstImageScript, "https://example.com/blog/photos/one.jpg"},
		{"title", "document.title", "Article"},
		{"url", "document.URL", "https://example.com/blog/post"},
		{"count", "document.querySelectorAll('img').length", int64(2)},
		{"descendant", "document.querySelectorAll('div.gallery img')[1].src", "https://cdn.example.com/two.jpg"},
		{"id", "document.querySelector('#header').className", "top bar"},
		{"compound class", "document.querySelector('a.nav.active').href", "https://example.com/home"},
		{"tag name", "document.querySelector('.bar').tagName", "DIV"},
		{"text content", "document.querySelector('p').textContent", "Hello world"},
		{"get attribute", "document.querySelector('img').getAttribute('alt')", "one"},
		{"scoped query", "document.querySelector('.gallery').querySelectorAll('a').length", int64(0)},
		{"missing attribute", "document.querySelector('img').getAttribute('title')", nil},
		{"no match", "document.querySelector('video')", nil},
		{"undefined", "undefined", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := evalScript(page, tt.src, time.Second)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEvalScriptErrors(t *testing.T) {
	page := mustPage(t, "https://example.com/", articleHTML)

	_, err := evalScript(page, "this is not javascript", time.Second)
	require.Error(t, err)

	_, err = evalScript(page, "document.querySelector('a[href]')", time.Second)
	require.Error(t, err)

	_, err = evalScript(page, "while (true) {}", 50*time.Millisecond)
	require.Error(t, err)

	_, err = evalScript(nil, "1", time.Second)
	require.Error(t, err)
}

func TestRunScriptIsAsync(t *testing.T) {
	e := New(make(chanSink, 1), nil)
	page := mustPage(t, "https://example.com/", `<img src="/a.png">`)

	type result struct {
		value any
		err   error
	}
	results := make(chan result, 1)
	e.RunScript(page, FirstImageScript, func(v any, err error) {
		results <- result{v, err}
	})

	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.Equal(t, "https://example.com/a.png", r.value)
	case <-time.After(5 * time.Second):
		t.Fatal("script result not delivered")
	}
}

func TestParseSelector(t *testing.T) {
	sel, err := parseSelector("div.gallery  img#main.big")
	require.NoError(t, err)
	require.Len(t, sel, 2)
	assert.Equal(t, compound{tag: "div", classes: []string{"gallery"}}, sel[0])
	assert.Equal(t, compound{tag: "img", id: "main", classes: []string{"big"}}, sel[1])

	for _, bad := range []string{"", "  ", "a.", "div#", "a[href]", "ul>li"} {
		_, err := parseSelector(bad)
		assert.Error(t, err, bad)
	}
}
