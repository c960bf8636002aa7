// ABOUTME: Identifier resolution from Wikipedia URLs to stable page keys
// ABOUTME: Produces the canonical URL and a default display title for each key

package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/harper/wikifaves/internal/models"
)

// CanonicalBase is the prefix of every canonical page URL.
const CanonicalBase = "https://en.wikipedia.org/wiki/"

// Errors returned by resolution functions
var (
	ErrNotArticle = errors.New("not a Wikipedia article URL")
	ErrInvalidURL = errors.New("invalid URL")
)

// ParseKey extracts the page key from a /wiki/<title> or index.php?title=<title>
// URL on any wikipedia.org host.
func ParseKey(rawURL string) (models.PageKey, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	host := strings.ToLower(u.Hostname())
	if host != "wikipedia.org" && !strings.HasSuffix(host, ".wikipedia.org") {
		return "", fmt.Errorf("%w: host %q", ErrNotArticle, u.Host)
	}

	switch {
	case strings.HasPrefix(u.EscapedPath(), "/wiki/"):
		title, err := url.PathUnescape(strings.TrimPrefix(u.EscapedPath(), "/wiki/"))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
		}
		if title != "" {
			return models.PageKey(title), nil
		}
	case strings.Contains(u.Path, "index.php"):
		if title := u.Query().Get("title"); title != "" {
			return models.PageKey(title), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotArticle, rawURL)
}

// CanonicalURL returns the canonical article URL for key.
func CanonicalURL(key models.PageKey) string {
	return CanonicalBase + string(key)
}

// DefaultTitle derives a display title from key when none was captured.
func DefaultTitle(key models.PageKey) string {
	return strings.ReplaceAll(string(key), "_", " ")
}

// Lookup builds the page for a bare key.
func Lookup(key models.PageKey) models.Page {
	return models.Page{Key: key, URL: CanonicalURL(key), DisplayTitle: DefaultTitle(key)}
}

// Resolve maps a Wikipedia URL to its page.
func Resolve(rawURL string) (models.Page, error) {
	key, err := ParseKey(rawURL)
	if err != nil {
		return models.Page{}, err
	}
	return Lookup(key), nil
}

// FromInput accepts either an article URL or a bare title/key. Bare input
// has spaces converted to underscores.
func FromInput(s string) (models.Page, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return models.Page{}, errors.New("empty page reference")
	}
	if strings.Contains(s, "://") {
		return Resolve(s)
	}
	return Lookup(KeyFromTitle(s)), nil
}

// KeyFromTitle converts a human title into key form.
func KeyFromTitle(title string) models.PageKey {
	return models.PageKey(strings.ReplaceAll(strings.TrimSpace(title), " ", "_"))
}
