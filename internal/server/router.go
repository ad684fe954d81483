package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"notebook/internal/notes"
)

// Deps is everything the router needs. A nil MCP handler leaves /mcp unmounted.
type Deps struct {
	Service   *notes.Service
	Handler   *notes.Handler
	Logger    *slog.Logger
	Metrics   *Metrics
	StaticDir string
	MCP       http.Handler
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(d.Logger))
	r.Use(d.Metrics.Middleware)
	r.Use(recoverer(d.Logger))
	r.Use(cors)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.Service.Ping(r.Context()); err != nil {
			d.Logger.Warn("health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())

	// Web UI (read-only)
	r.Get("/ui", d.Handler.NotesPage)

	r.Route("/api", d.Handler.Routes)

	// MCP uses POST for requests, GET for the SSE stream and DELETE to end a session.
	if d.MCP != nil {
		r.Method(http.MethodPost, "/mcp", d.MCP)
		r.Method(http.MethodGet, "/mcp", d.MCP)
		r.Method(http.MethodDelete, "/mcp", d.MCP)
	}

	dir := d.StaticDir
	if dir == "" {
		dir = "."
	}
	r.NotFound(http.FileServer(newStaticFS(dir)).ServeHTTP)

	return r
}
