// ABOUTME: Tests for the bounded page fetcher
// ABOUTME: Uses httptest to simulate successful, failing and oversized responses

package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harper/wikifaves/internal/fetch"
)

func TestFetch_Fresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != fetch.UserAgent {
			t.Errorf("expected User-Agent %q, got %q", fetch.UserAgent, ua)
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><title>Go</title></html>"))
	}))
	defer server.Close()

	result, err := fetch.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result.Body) != "<html><title>Go</title></html>" {
		t.Errorf("unexpected body %q", result.Body)
	}
	if !strings.HasPrefix(result.ContentType, "text/html") {
		t.Errorf("unexpected content type %q", result.ContentType)
	}
}

func TestFetch_NotModifiedIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") != "" {
			t.Error("fetch must not send conditional headers")
		}
		w.WriteHeader(http.StatusNotModified)
	}))
	defer server.Close()

	if _, err := fetch.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected error for 304 response")
	}
}

func TestFetch_Error(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := fetch.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestFetch_TooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", fetch.MaxResponseSize+10)))
	}))
	defer server.Close()

	_, err := fetch.Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestFetch_RejectsScheme(t *testing.T) {
	if _, err := fetch.Fetch(context.Background(), "file:///etc/passwd"); err == nil {
		t.Error("expected error for file scheme")
	}
}
