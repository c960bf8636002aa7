// ABOUTME: HTTP API for browser extensions: gorilla/mux routes with CORS for extension origins
// ABOUTME: Every handler delegates to the faves service; errors use a JSON envelope

package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/harper/wikifaves/internal/faves"
	"github.com/harper/wikifaves/internal/relay"
)

// MaxBodyBytes caps JSON request bodies other than imports.
const MaxBodyBytes = 1 << 20

// DefaultOrigins are the browser extension origins allowed by CORS.
var DefaultOrigins = []string{"chrome-extension://*", "moz-extension://*"}

// Server serves the HTTP API.
type Server struct {
	svc     *faves.Service
	hub     *relay.Hub
	origins []string
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithHub exposes the relay hub at /api/ws.
func WithHub(h *relay.Hub) Option {
	return func(s *Server) { s.hub = h }
}

// WithOrigins replaces the allowed CORS origins.
func WithOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock overrides time.Now for relative --since periods.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a Server over svc.
func NewServer(svc *faves.Service, opts ...Option) *Server {
	s := &Server{
		svc:     svc,
		origins: DefaultOrigins,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed, CORS-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/stats", s.stats).Methods(http.MethodGet)

	api.HandleFunc("/favorites", s.listCollection("favorites")).Methods(http.MethodGet)
	api.HandleFunc("/favorites/toggle", s.toggle).Methods(http.MethodPost)
	api.HandleFunc("/favorites/{key:.+}", s.getPage).Methods(http.MethodGet)

	api.HandleFunc("/history", s.listCollection("history")).Methods(http.MethodGet)
	api.HandleFunc("/visits", s.visit).Methods(http.MethodPost)

	api.HandleFunc("/trash", s.listCollection("trash")).Methods(http.MethodGet)
	api.HandleFunc("/trash", s.moveToTrash).Methods(http.MethodPost)
	api.HandleFunc("/trash", s.emptyTrash).Methods(http.MethodDelete)
	api.HandleFunc("/trash/{key:.+}/restore", s.restore).Methods(http.MethodPost)
	api.HandleFunc("/trash/{key:.+}", s.purge).Methods(http.MethodDelete)

	api.HandleFunc("/export", s.export).Methods(http.MethodGet)
	api.HandleFunc("/import", s.importData).Methods(http.MethodPost)

	api.HandleFunc("/sync/rebuild", s.rebuildSync).Methods(http.MethodPost)

	if s.hub != nil {
		api.Handle("/ws", s.hub)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         86400,
	})
	return c.Handler(r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// ListenAndServe serves on addr until ctx is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http api listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if s.hub != nil {
			s.hub.Close()
		}
		return srv.Shutdown(shutdownCtx)
	}
}
