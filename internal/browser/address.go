package browser

import (
	"errors"
	"net"
	"net/url"
	"path"
	"strings"
)

// DefaultScheme is prepended to host-like input without a scheme
const DefaultScheme = "http"

// DefaultPageName is used when a URL has no usable last path segment
const DefaultPageName = "page"

// PageExtension is appended to saved page names
const PageExtension = ".html"

// ErrEmptyInput is returned for blank address bar input
var ErrEmptyInput = errors.New("empty address")

var knownSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
	"ftp":   true,
	"about": true,
	"data":  true,
}

// ResolveInput turns address bar text into a URL. Text with a known scheme
// is used as is, host-like text gets http:// and anything else becomes a
// search using searchTemplate, where %s stands for the escaped query.
func ResolveInput(text, searchTemplate string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyInput
	}

	if u, err := url.Parse(text); err == nil && knownSchemes[strings.ToLower(u.Scheme)] {
		return text, nil
	}

	if !strings.ContainsAny(text, " \t") && looksLikeHost(text) {
		return DefaultScheme + "://" + text, nil
	}

	return SearchURL(searchTemplate, text), nil
}

// SearchURL fills the query into template
func SearchURL(template, query string) string {
	escaped := url.QueryEscape(query)
	if strings.Contains(template, "%s") {
		return strings.Replace(template, "%s", escaped, 1)
	}
	return template + escaped
}

func looksLikeHost(text string) bool {
	host := text
	if i := strings.IndexAny(host, "/?#"); i >= 0 {
		host = host[:i]
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.Trim(host, "[]")
	if host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") || net.ParseIP(host) != nil {
		return true
	}

	labels := strings.Split(host, ".")
	if len(labels) < 2 {
		return false
	}
	for _, label := range labels {
		if label == "" || !validLabel(label) {
			return false
		}
	}
	// top level domains are never numeric
	tld := labels[len(labels)-1]
	return strings.IndexFunc(tld, func(r rune) bool { return r < '0' || r > '9' }) >= 0
}

func validLabel(label string) bool {
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return false
	}
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
		case r > 127:
			// internationalized names
		default:
			return false
		}
	}
	return true
}

// SuggestedPageName is the default file name for saving the page at u
func SuggestedPageName(u *url.URL) string {
	name := ""
	if u != nil {
		name = path.Base(u.Path)
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		name = DefaultPageName
	}
	ext := strings.ToLower(path.Ext(name))
	if ext == ".html" || ext == ".htm" {
		return name
	}
	return name + PageExtension
}
