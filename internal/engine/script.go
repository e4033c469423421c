package engine

import (
	"fmt"
	"log"
	"slices"
	"strings"
	"time"

	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// ScriptTimeout bounds a single RunScript call
const ScriptTimeout = 5 * time.Second

// FirstImageScript returns the absolute source of the first image on the page, or null
const FirstImageScript = `(function() {
	var img = document.querySelector('img');
	return img ? img.src : null;
})()`

// RunScript evaluates src against page in a fresh VM and delivers the
// exported result to done from another goroutine. null and undefined
// are delivered as nil.
func (e *Engine) RunScript(page *Page, src string, done func(any, error)) {
	go func() {
		done(evalScript(page, src, ScriptTimeout))
	}()
}

func evalScript(page *Page, src string, timeout time.Duration) (result any, err error) {
	if page == nil {
		return nil, fmt.Errorf("no page to run script on")
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Script panicked: %v", r)
			result, err = nil, fmt.Errorf("script panicked: %v", r)
		}
	}()

	vm := goja.New()
	timer := time.AfterFunc(timeout, func() {
		vm.Interrupt("script timed out")
	})
	defer timer.Stop()

	d := &domBinding{vm: vm, page: page}
	if err := vm.Set("document", d.document()); err != nil {
		return nil, fmt.Errorf("failed to bind document: %w", err)
	}

	v, err := vm.RunString(src)
	if err != nil {
		return nil, fmt.Errorf("script failed: %w", err)
	}
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	return v.Export(), nil
}

// domBinding exposes a read-only view of the parsed page to scripts
type domBinding struct {
	vm   *goja.Runtime
	page *Page
}

func (d *domBinding) document() *goja.Object {
	doc := d.vm.NewObject()
	_ = doc.Set("title", d.page.Title)
	_ = doc.Set("URL", d.page.URL.String())
	d.bindQueries(doc, d.page.root)
	return doc
}

func (d *domBinding) bindQueries(obj *goja.Object, scope *html.Node) {
	_ = obj.Set("querySelector", func(selector string) goja.Value {
		matches := d.query(scope, selector)
		if len(matches) == 0 {
			return goja.Null()
		}
		return d.element(matches[0])
	})
	_ = obj.Set("querySelectorAll", func(selector string) *goja.Object {
		matches := d.query(scope, selector)
		items := make([]any, 0, len(matches))
		for _, n := range matches {
			items = append(items, d.element(n))
		}
		return d.vm.NewArray(items...)
	})
}

func (d *domBinding) query(scope *html.Node, selector string) []*html.Node {
	sel, err := parseSelector(selector)
	if err != nil {
		panic(d.vm.NewTypeError(err.Error()))
	}
	return sel.matchAll(scope)
}

func (d *domBinding) element(n *html.Node) *goja.Object {
	el := d.vm.NewObject()
	_ = el.Set("tagName", strings.ToUpper(n.Data))
	_ = el.Set("id", attr(n, "id"))
	_ = el.Set("className", attr(n, "class"))
	_ = el.Set("src", d.page.Resolve(attr(n, "src")))
	_ = el.Set("href", d.page.Resolve(attr(n, "href")))
	_ = el.Set("textContent", textContent(n))
	_ = el.Set("getAttribute", func(name string) goja.Value {
		for _, a := range n.Attr {
			if a.Namespace == "" && strings.EqualFold(a.Key, name) {
				return d.vm.ToValue(a.Val)
			}
		}
		return goja.Null()
	})
	d.bindQueries(el, n)
	return el
}

// compound is one selector step such as "img", "#logo" or "a.nav.active"
type compound struct {
	tag     string
	id      string
	classes []string
}

// selector is a descendant chain of compounds, e.g. "div.gallery img"
type selector []compound

func parseSelector(text string) (selector, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty selector")
	}
	sel := make(selector, 0, len(fields))
	for _, f := range fields {
		c, err := parseCompound(f)
		if err != nil {
			return nil, err
		}
		sel = append(sel, c)
	}
	return sel, nil
}

func parseCompound(text string) (compound, error) {
	var c compound
	rest := text
	// leading tag name
	end := strings.IndexAny(rest, "#.")
	if end < 0 {
		end = len(rest)
	}
	c.tag = strings.ToLower(rest[:end])
	if c.tag == "*" {
		c.tag = ""
	}
	rest = rest[end:]

	for rest != "" {
		kind := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, "#.")
		if end < 0 {
			end = len(rest)
		}
		name := rest[:end]
		rest = rest[end:]
		if name == "" {
			return compound{}, fmt.Errorf("invalid selector %q", text)
		}
		if kind == '#' {
			c.id = name
		} else {
			c.classes = append(c.classes, name)
		}
	}
	if strings.ContainsAny(c.tag, "[]:>+~") {
		return compound{}, fmt.Errorf("unsupported selector %q", text)
	}
	return c, nil
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && attr(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attr(n, "class"))
		for _, want := range c.classes {
			if !slices.Contains(have, want) {
				return false
			}
		}
	}
	return true
}

// matchAll returns the descendants of scope matching s in document order
func (s selector) matchAll(scope *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if s.matchesAt(c, scope) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(scope)
	return out
}

// matchesAt checks the last compound against n and the rest against its
// ancestors inside scope
func (s selector) matchesAt(n, scope *html.Node) bool {
	last := len(s) - 1
	if !s[last].matches(n) {
		return false
	}
	i := last - 1
	for p := n.Parent; i >= 0 && p != nil && p != scope; p = p.Parent {
		if s[i].matches(p) {
			i--
		}
	}
	return i < 0
}
