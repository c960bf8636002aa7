// ABOUTME: Tests for the HTTP API using httptest against an in-memory service
// ABOUTME: Exercises routing, status mapping, CORS and the websocket relay

package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/relay"
	"github.com/harper/wikifaves/internal/storage"
)

type fixture struct {
	handler http.Handler
	local   *storage.MemoryStore
	synced  *storage.MemoryStore
	hub     *relay.Hub
	svc     *faves.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := &fixture{local: storage.NewMemoryStore(), synced: storage.NewMemoryStore()}
	f.hub = relay.NewHub(relay.WithLogger(logger))
	t.Cleanup(f.hub.Close)
	f.svc = faves.New(f.local,
		faves.WithSynced(f.synced),
		faves.WithRelay(f.hub),
		faves.WithLogger(logger),
	)
	f.handler = NewServer(f.svc, WithHub(f.hub), WithLogger(logger)).Handler()
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestToggleByURL(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/favorites/toggle", `{"url":"https://en.wikipedia.org/wiki/Go_(programming_language)"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[outcomeResponse](t, rec)
	assert.Equal(t, models.PageKey("Go_(programming_language)"), resp.PageKey)
	assert.True(t, resp.Changed)
	require.NotNil(t, resp.Favorite)
	assert.True(t, *resp.Favorite)

	rec = f.do(t, http.MethodGet, "/api/favorites/Go_(programming_language)", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[faves.PageView](t, rec)
	require.NotNil(t, view.Favorite)
	assert.Equal(t, "Go (programming language)", view.Favorite.DisplayTitle)

	rec = f.do(t, http.MethodPost, "/api/favorites/toggle", `{"pageKey":"Go_(programming_language)"}`)
	resp = decode[outcomeResponse](t, rec)
	require.NotNil(t, resp.Favorite)
	assert.False(t, *resp.Favorite)
}

func TestToggleRejectsBadInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"empty", `{}`},
		{"not json", `nope`},
		{"unknown field", `{"pageKey":"A","extra":1}`},
		{"not wikipedia", `{"url":"https://example.com/wiki/A"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, "/api/favorites/toggle", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decode[map[string]string](t, rec), "error")
		})
	}
	assert.Equal(t, 0, f.local.SetCalls())
}

func TestBodyTooLarge(t *testing.T) {
	f := newFixture(t)
	body := `{"pageKey":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	rec := f.do(t, http.MethodPost, "/api/favorites/toggle", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestVisitsAndHistoryListing(t *testing.T) {
	f := newFixture(t)

	for _, key := range []string{"Alpha", "Beta", "Beta"} {
		rec := f.do(t, http.MethodPost, "/api/visits", `{"pageKey":"`+key+`"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := f.do(t, http.MethodPost, "/api/visits", `{"pageKey":"Alpha","isReload":true}`)
	assert.False(t, decode[outcomeResponse](t, rec).Changed)

	rec = f.do(t, http.MethodGet, "/api/history?sort=mostVisited", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := decode[[]reconcile.Entry](t, rec)
	require.Len(t, entries, 2)
	assert.Equal(t, models.PageKey("Beta"), entries[0].Key)
	assert.Equal(t, 2, entries[0].VisitCount)

	rec = f.do(t, http.MethodGet, "/api/history?limit=1", "")
	assert.Len(t, decode[[]reconcile.Entry](t, rec), 1)

	for _, q := range []string{"sort=bogus", "since=whenever", "limit=-1"} {
		rec = f.do(t, http.MethodGet, "/api/history?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestTrashLifecycle(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/favorites/toggle", `{"pageKey":"AC/DC"}`)

	rec := f.do(t, http.MethodPost, "/api/trash", `{"pageKey":"AC/DC","sourceType":"favorites"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[outcomeResponse](t, rec).Changed)

	rec = f.do(t, http.MethodGet, "/api/trash", "")
	entries := decode[[]reconcile.Entry](t, rec)
	require.Len(t, entries, 1)
	assert.Equal(t, models.PageKey("AC/DC"), entries[0].Key)

	rec = f.do(t, http.MethodPost, "/api/trash/AC/DC/restore", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[outcomeResponse](t, rec).Changed)

	rec = f.do(t, http.MethodGet, "/api/favorites", "")
	assert.Len(t, decode[[]reconcile.Entry](t, rec), 1)

	// Missing keys are a no-op, not an error.
	rec = f.do(t, http.MethodDelete, "/api/trash/AC/DC", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[outcomeResponse](t, rec).NotFound)

	f.do(t, http.MethodPost, "/api/trash", `{"pageKey":"AC/DC","sourceType":"favorites"}`)
	rec = f.do(t, http.MethodDelete, "/api/trash", "")
	assert.JSONEq(t, `{"removed":1}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/trash", `{"pageKey":"AC/DC","sourceType":"bookmarks"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPageNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/favorites/Nothing_here", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportImport(t *testing.T) {
	src := newFixture(t)
	src.do(t, http.MethodPost, "/api/favorites/toggle", `{"pageKey":"Gopher"}`)
	src.do(t, http.MethodPost, "/api/visits", `{"pageKey":"Gopher"}`)

	rec := src.do(t, http.MethodGet, "/api/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "wikifaves.json")
	exported := rec.Body.String()

	dst := newFixture(t)
	rec = dst.do(t, http.MethodPost, "/api/import", exported)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[map[string]map[string]int](t, rec)
	assert.Equal(t, 1, resp["summary"]["favoritesAdded"])
	assert.Equal(t, 1, resp["summary"]["historyAdded"])

	rec = dst.do(t, http.MethodPost, "/api/import", `{"favorites":{"A":{"dateAdded":"yesterday"}}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = src.do(t, http.MethodGet, "/api/export?format=opml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://en.wikipedia.org/wiki/Gopher")

	rec = src.do(t, http.MethodGet, "/api/export?format=csv", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBackingStoreFailureIs503(t *testing.T) {
	f := newFixture(t)
	f.local.FailSets(errors.New("disk gone"))
	rec := f.do(t, http.MethodPost, "/api/favorites/toggle", `{"pageKey":"Gopher"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSyncWarningSurfaces(t *testing.T) {
	f := newFixture(t)
	f.synced.FailSets(errors.New("offline"))

	rec := f.do(t, http.MethodPost, "/api/favorites/toggle", `{"pageKey":"Gopher"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decode[outcomeResponse](t, rec).SyncWarning)

	f.synced.FailSets(nil)
	rec = f.do(t, http.MethodPost, "/api/sync/rebuild", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"projection":"full"}`, rec.Body.String())
}

func TestCORSAllowsExtensionOrigins(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "chrome-extension://abcdef")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Equal(t, "chrome-extension://abcdef", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebsocketReceivesEvents(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	require.Eventually(t, func() bool { return f.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/favorites/toggle", "application/json", bytes.NewBufferString(`{"pageKey":"Gopher"}`))
	require.NoError(t, err)
	resp.Body.Close()

	var msg relay.Message
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, models.ActionFavorited, msg.Action)
	require.NotNil(t, msg.Data)
	assert.Equal(t, models.PageKey("Gopher"), msg.Data.PageKey)
}
