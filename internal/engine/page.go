package engine

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Page is a loaded HTML document
type Page struct {
	URL   *url.URL
	Title string
	HTML  []byte

	root *html.Node
}

// ParsePage parses body as the document located at pageURL
func ParsePage(pageURL *url.URL, body []byte) (*Page, error) {
	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", pageURL, err)
	}
	p := &Page{URL: pageURL, HTML: body, root: root}
	if title := findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.Title }); title != nil {
		p.Title = collapseSpace(textContent(title))
	}
	return p, nil
}

// DisplayTitle is the title, or the URL for untitled pages
func (p *Page) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.URL.String()
}

// Resolve makes ref absolute against the page URL; "" if ref is unusable
func (p *Page) Resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := p.URL.Parse(ref)
	if err != nil {
		return ""
	}
	return u.String()
}

// Text returns the readable text of the body, one block per line
func (p *Page) Text() string {
	body := findFirst(p.root, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if body == nil {
		body = p.root
	}
	var lines []string
	var current strings.Builder
	flush := func() {
		if line := collapseSpace(current.String()); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteByte(' ')
			return
		case html.ElementNode:
			if skipText[n.DataAtom] {
				return
			}
		}
		block := n.Type == html.ElementNode && blockElements[n.DataAtom]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		}
	}
	walk(body)
	flush()
	return strings.Join(lines, "\n")
}

// Images returns the absolute URLs of every <img> in document order
func (p *Page) Images() []string {
	var out []string
	for _, n := range findAll(p.root, func(n *html.Node) bool { return n.DataAtom == atom.Img }) {
		if src := p.Resolve(attr(n, "src")); src != "" {
			out = append(out, src)
		}
	}
	return out
}

var skipText = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Head:     true,
}

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Tr: true, atom.Section: true, atom.Article: true, atom.Header: true, atom.Footer: true,
	atom.Pre: true, atom.Blockquote: true, atom.Table: true, atom.Ul: true, atom.Ol: true,
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
