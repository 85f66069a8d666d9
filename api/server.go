// Package api provides the HTTP REST API server for the one-pager.
//
// It exposes the section catalog, stateless company search, per-viewer
// sessions (search, selection, navigation, favorites, export) and a
// WebSocket stream of each session's events.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/seenimoa/onepager/internal/config"
	"github.com/seenimoa/onepager/internal/datasource"
	"github.com/seenimoa/onepager/internal/favorites"
	"github.com/seenimoa/onepager/internal/logging"
	"github.com/seenimoa/onepager/internal/navigator"
	"github.com/seenimoa/onepager/internal/search"
	"github.com/seenimoa/onepager/internal/session"
	"github.com/seenimoa/onepager/pkg/models"
)

// TrendingProvider supplies the homepage trending list.
type TrendingProvider interface {
	Trending(ctx context.Context) ([]models.Company, error)
}

// Deps are the collaborators the server is built from.
type Deps struct {
	Catalog   datasource.Catalog
	Loader    session.Loader
	Trending  TrendingProvider // optional; falls back to the catalog head
	Favorites *favorites.Controller
	Logger    *logging.Logger
	Version   string

	// SessionIdle closes sessions idle for longer than this. Zero keeps
	// sessions until they are deleted.
	SessionIdle time.Duration
}

// Server is the HTTP API server.
type Server struct {
	router   chi.Router
	cfg      *config.Config
	deps     Deps
	sessions *session.Manager
	wsHub    *WSHub
	logger   *logging.Logger
}

// NewServer creates a configured API server with all routes and middleware.
func NewServer(cfg *config.Config, deps Deps) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("api: config is required")
	}
	logger := logging.OrSilent(deps.Logger)
	hub := NewWSHub(logger.Component("ws"))

	mgr, err := session.NewManager(session.Config{
		Catalog:   deps.Catalog,
		Loader:    deps.Loader,
		Favorites: deps.Favorites,
		Search: search.Options{
			Debounce:   cfg.Search.Debounce(),
			Timeout:    cfg.Search.Timeout(),
			MaxResults: cfg.Search.MaxResults,
		},
		Events: hub.Events,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("session manager: %w", err)
	}

	srv := &Server{
		cfg:      cfg,
		deps:     deps,
		sessions: mgr,
		wsHub:    hub,
		logger:   logger.Component("api"),
	}
	srv.router = srv.buildRouter()
	return srv, nil
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully and closes every session.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	timeout := time.Duration(s.cfg.Server.RequestTimeoutSec) * time.Second
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  timeout,
		WriteTimeout: timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	if s.deps.SessionIdle > 0 {
		go s.sweep(ctx, s.deps.SessionIdle)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	err := httpSrv.Shutdown(shutdownCtx)
	s.wsHub.Close()
	s.sessions.Close()
	return err
}

func (s *Server) sweep(ctx context.Context, maxIdle time.Duration) {
	interval := maxIdle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Sweep(maxIdle)
		}
	}
}

// buildRouter configures all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	// CORS
	origins := []string{"*"}
	if len(s.cfg.Server.CORSOrigins) > 0 {
		origins = s.cfg.Server.CORSOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Name"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		// The event stream is long-lived and sits outside the request timeout.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			if s.cfg.Server.RequestTimeoutSec > 0 {
				r.Use(middleware.Timeout(time.Duration(s.cfg.Server.RequestTimeoutSec) * time.Second))
			}

			r.Get("/health", s.handleHealth)
			r.Get("/status", s.handleStatus)
			r.Get("/config", s.handleGetConfig)
			r.Get("/config/keys", s.handleGetConfigKeys)

			// Catalog
			r.Get("/sections", s.handleSections)
			r.Get("/companies/search", s.handleCompanySearch)
			r.Get("/companies/trending", s.handleTrending)

			// Sessions
			r.Post("/sessions", s.handleCreateSession)
			r.Route("/sessions/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)

				r.Get("/search", s.handleSearchState)
				r.Post("/search", s.handleSearch)
				r.Post("/search/dismiss", s.handleSearchDismiss)
				r.Post("/search/focus", s.handleSearchFocus)

				r.Post("/select", s.handleSelect)
				r.Post("/back", s.handleBack)

				r.Get("/section", s.handleCurrentSection)
				r.Put("/section", s.handleSetSection)
				r.Post("/section/next", s.handleNextSection)
				r.Post("/section/prev", s.handlePrevSection)
				r.Get("/sections/{sid}", s.handleSection)

				r.Post("/favorite", s.handleToggleFavorite)
				r.Get("/favorites", s.handleFavorites)

				r.Post("/login", s.handleLogin)
				r.Post("/logout", s.handleLogout)

				r.Get("/export", s.handleExport)
			})
		})
	})

	return r
}

// requestLogger logs one structured line per request, tagged with chi's
// request id.
func requestLogger(logger *logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("HTTP request")
		})
	}
}

// ============================================================
// Request / Response types
// ============================================================

// APIResponse is the standard JSON envelope.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SearchRequest is the body for POST /sessions/{id}/search.
type SearchRequest struct {
	Query string `json:"query"`
}

// SelectRequest is the body for POST /sessions/{id}/select.
type SelectRequest struct {
	Symbol string `json:"symbol"`
}

// SectionRequest is the body for PUT /sessions/{id}/section.
type SectionRequest struct {
	ID navigator.SectionID `json:"id"`
}

// LoginRequest is the optional body for POST /sessions/{id}/login. The
// X-User-ID and X-User-Name headers take precedence.
type LoginRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// LoginResponse reports the outcome of a login call.
type LoginResponse struct {
	LoggedIn      bool         `json:"logged_in"`
	RequiresLogin bool         `json:"requires_login"`
	User          *models.User `json:"user,omitempty"`
}

// ============================================================
// Handlers
// ============================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: map[string]interface{}{
			"status":    "ok",
			"version":   s.deps.Version,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: navigator.Catalog()})
}

func (s *Server) handleCompanySearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: []models.Company{}})
		return
	}
	found, err := s.deps.Catalog.Lookup(r.Context(), q)
	if err != nil {
		writeErr(w, err)
		return
	}
	if max := s.cfg.Search.MaxResults; max > 0 && len(found) > max {
		found = found[:max]
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: found})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	var (
		list []models.Company
		err  error
	)
	if s.deps.Trending != nil {
		list, err = s.deps.Trending.Trending(r.Context())
	} else {
		list, err = s.deps.Catalog.All(r.Context())
		if len(list) > 4 {
			list = list[:4]
		}
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	if list == nil {
		list = []models.Company{}
	}
	writeJSON(w, http.StatusOK, APIResponse{Success: true, Data: list})
}

// ============================================================
// Helpers
// ============================================================

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, APIResponse{Success: false, Error: msg})
}

// writeErr maps err onto an HTTP status and writes the error envelope.
func writeErr(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, navigator.ErrUnknownSection),
		errors.Is(err, favorites.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, datasource.ErrSymbolNotFound),
		errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNoCompany):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
