// ABOUTME: Tests for URL-to-key resolution and title extraction
// ABOUTME: Title fetching runs against an httptest server on loopback

package resolve

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harper/wikifaves/internal/models"
)

func TestParseKey(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want models.PageKey
	}{
		{"wiki path", "https://en.wikipedia.org/wiki/Rust_(programming_language)", "Rust_(programming_language)"},
		{"percent encoded", "https://en.wikipedia.org/wiki/Caf%C3%A9", "Café"},
		{"other language", "https://de.wikipedia.org/wiki/Berlin", "Berlin"},
		{"mobile", "https://en.m.wikipedia.org/wiki/Go", "Go"},
		{"index.php", "https://en.wikipedia.org/w/index.php?title=Go&action=history", "Go"},
		{"fragment ignored", "https://en.wikipedia.org/wiki/Go#History", "Go"},
		{"encoded slash", "https://en.wikipedia.org/wiki/AC%2FDC", "AC/DC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKey(tt.url)
			if err != nil {
				t.Fatalf("ParseKey(%q) error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("ParseKey(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestParseKey_Rejects(t *testing.T) {
	for _, u := range []string{
		"https://example.com/wiki/Go",
		"https://en.wikipedia.org/",
		"https://en.wikipedia.org/wiki/",
		"https://notwikipedia.org/wiki/Go",
	} {
		if _, err := ParseKey(u); !errors.Is(err, ErrNotArticle) {
			t.Errorf("ParseKey(%q) err = %v, want ErrNotArticle", u, err)
		}
	}
}

func TestResolve(t *testing.T) {
	page, err := Resolve("https://en.wikipedia.org/wiki/Rust_(programming_language)")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if page.URL != "https://en.wikipedia.org/wiki/Rust_(programming_language)" {
		t.Errorf("URL = %q", page.URL)
	}
	if page.DisplayTitle != "Rust (programming language)" {
		t.Errorf("DisplayTitle = %q", page.DisplayTitle)
	}
}

func TestFromInput(t *testing.T) {
	page, err := FromInput("Alan Turing")
	if err != nil {
		t.Fatalf("FromInput failed: %v", err)
	}
	if page.Key != "Alan_Turing" {
		t.Errorf("Key = %q", page.Key)
	}
	if _, err := FromInput("   "); err == nil {
		t.Error("expected error for blank input")
	}
}

const articleHTML = `<!DOCTYPE html>
<html><head><title>Go (programming language) - Wikipedia</title></head>
<body><h1 id="firstHeading" class="firstHeading"><span>Go (programming language)</span><span>[edit]</span></h1>
<p>Go is a language.</p></body></html>`

func TestExtractTitle(t *testing.T) {
	got, err := ExtractTitle(strings.NewReader(articleHTML))
	if err != nil {
		t.Fatalf("ExtractTitle failed: %v", err)
	}
	if got != "Go (programming language)" {
		t.Errorf("got %q", got)
	}
}

func TestExtractTitle_FallsBackToTitle(t *testing.T) {
	got, err := ExtractTitle(strings.NewReader(`<html><head><title>Gopher - Wikipedia</title></head></html>`))
	if err != nil {
		t.Fatalf("ExtractTitle failed: %v", err)
	}
	if got != "Gopher" {
		t.Errorf("got %q", got)
	}

	if _, err := ExtractTitle(strings.NewReader(`<html><body>nothing</body></html>`)); !errors.Is(err, ErrNoTitle) {
		t.Errorf("expected ErrNoTitle, got %v", err)
	}
}

func TestEnrich(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articleHTML))
	}))
	defer server.Close()

	page := models.Page{Key: "Go", URL: server.URL, DisplayTitle: "Go"}
	got, err := Enrich(context.Background(), page)
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if got.DisplayTitle != "Go (programming language)" {
		t.Errorf("DisplayTitle = %q", got.DisplayTitle)
	}
}
