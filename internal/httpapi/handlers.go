// ABOUTME: Route handlers translating JSON requests into service operations
// ABOUTME: Maps sentinel errors to HTTP status codes

package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/models"
	"github.com/harper/wikifaves/internal/reconcile"
	"github.com/harper/wikifaves/internal/resolve"
	"github.com/harper/wikifaves/internal/storage"
	"github.com/harper/wikifaves/internal/timeutil"
	"github.com/harper/wikifaves/internal/transfer"
)

type pageRequest struct {
	URL          string         `json:"url"`
	PageKey      models.PageKey `json:"pageKey"`
	DisplayTitle string         `json:"displayTitle"`
	IsReload     bool           `json:"isReload"`
}

type trashRequest struct {
	PageKey    models.PageKey    `json:"pageKey"`
	SourceType models.SourceType `json:"sourceType"`
}

type outcomeResponse struct {
	PageKey     models.PageKey `json:"pageKey,omitempty"`
	Changed     bool           `json:"changed"`
	Favorite    *bool          `json:"favorite,omitempty"`
	NotFound    bool           `json:"notFound,omitempty"`
	SyncWarning string         `json:"syncWarning,omitempty"`
}

func newOutcome(key models.PageKey, out faves.Outcome) outcomeResponse {
	resp := outcomeResponse{PageKey: key, Changed: out.Changed, NotFound: out.NotFound}
	if out.SyncErr != nil {
		resp.SyncWarning = out.SyncErr.Error()
	}
	if out.Event != nil {
		fav := out.Event.Action == models.ActionFavorited
		resp.Favorite = &fav
	}
	return resp
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) listCollection(name string) http.HandlerFunc {
	c := models.Collection(name)
	return func(w http.ResponseWriter, r *http.Request) {
		opts, err := s.queryOptions(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		entries, err := s.svc.List(r.Context(), c, opts)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

func (s *Server) queryOptions(r *http.Request) (reconcile.QueryOptions, error) {
	q := r.URL.Query()
	method, err := reconcile.ParseSortMethod(q.Get("sort"))
	if err != nil {
		return reconcile.QueryOptions{}, err
	}
	since, err := timeutil.ParsePeriod(q.Get("since"), s.now())
	if err != nil {
		return reconcile.QueryOptions{}, err
	}
	opts := reconcile.QueryOptions{Sort: method, Since: since, Locale: q.Get("locale")}
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return reconcile.QueryOptions{}, fmt.Errorf("invalid limit %q", raw)
		}
		opts.Limit = n
	}
	return opts, nil
}

func (s *Server) getPage(w http.ResponseWriter, r *http.Request) {
	key := models.PageKey(mux.Vars(r)["key"])
	view, found, err := s.svc.Get(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Sprintf("page %q not found", key))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) toggle(w http.ResponseWriter, r *http.Request) {
	page, _, ok := s.decodePage(w, r)
	if !ok {
		return
	}
	out, err := s.svc.Toggle(r.Context(), page)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(page.Key, out))
}

func (s *Server) visit(w http.ResponseWriter, r *http.Request) {
	page, req, ok := s.decodePage(w, r)
	if !ok {
		return
	}
	out, err := s.svc.Visit(r.Context(), page, req.IsReload)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(page.Key, out))
}

// decodePage reads a page reference by URL or key. A supplied display title
// overrides the one derived from the key.
func (s *Server) decodePage(w http.ResponseWriter, r *http.Request) (models.Page, pageRequest, bool) {
	var req pageRequest
	if !decodeBody(w, r, &req) {
		return models.Page{}, req, false
	}

	var page models.Page
	var err error
	switch {
	case req.URL != "":
		page, err = resolve.Resolve(req.URL)
	case req.PageKey != "":
		page = resolve.Lookup(req.PageKey)
	default:
		err = errors.New("url or pageKey is required")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.Page{}, req, false
	}
	if req.DisplayTitle != "" {
		page.DisplayTitle = req.DisplayTitle
	}
	return page, req, true
}

func (s *Server) moveToTrash(w http.ResponseWriter, r *http.Request) {
	var req trashRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.PageKey == "" || !req.SourceType.Valid() {
		writeError(w, http.StatusBadRequest, "pageKey and sourceType (favorites|history) are required")
		return
	}
	out, err := s.svc.Trash(r.Context(), req.PageKey, req.SourceType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(req.PageKey, out))
}

func (s *Server) restore(w http.ResponseWriter, r *http.Request) {
	key := models.PageKey(mux.Vars(r)["key"])
	out, err := s.svc.Restore(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(key, out))
}

func (s *Server) purge(w http.ResponseWriter, r *http.Request) {
	key := models.PageKey(mux.Vars(r)["key"])
	out, err := s.svc.Purge(r.Context(), key)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOutcome(key, out))
}

func (s *Server) emptyTrash(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.EmptyTrash(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"removed": n})
}

func (s *Server) export(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("format") {
	case "", "json":
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transfer.Filename))
		if err := s.svc.Export(r.Context(), w); err != nil {
			s.logger.Error("export failed", "error", err)
		}
	case "opml":
		w.Header().Set("Content-Type", "text/x-opml")
		w.Header().Set("Content-Disposition", `attachment; filename="wikifaves.opml"`)
		if err := s.svc.ExportOPML(r.Context(), w); err != nil {
			s.logger.Error("opml export failed", "error", err)
		}
	default:
		writeError(w, http.StatusBadRequest, "format must be json or opml")
	}
}

func (s *Server) importData(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, transfer.MaxImportSize)

	var (
		result faves.ImportResult
		err    error
	)
	switch r.URL.Query().Get("format") {
	case "", "json":
		result, err = s.svc.Import(r.Context(), r.Body)
	case "opml":
		result, err = s.svc.ImportOPML(r.Context(), r.Body)
	default:
		writeError(w, http.StatusBadRequest, "format must be json or opml")
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := map[string]any{"summary": result}
	if result.Outcome.SyncErr != nil {
		resp["syncWarning"] = result.Outcome.SyncErr.Error()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) rebuildSync(w http.ResponseWriter, r *http.Request) {
	level, err := s.svc.RebuildSync(r.Context())
	if errors.Is(err, faves.ErrSyncDisabled) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"projection": level.String()})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// writeError classifies service errors by sentinel.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var tooBig *http.MaxBytesError
	switch {
	case errors.As(err, &tooBig):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, transfer.ErrMalformed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrQuotaExceeded):
		writeError(w, http.StatusInsufficientStorage, err.Error())
	case errors.Is(err, storage.ErrBackingStore):
		s.logger.Error("backing store failure", "error", err)
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
