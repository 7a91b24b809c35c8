// Package api is the HTTP layer: it wires routes to the document tree,
// renderer, and search index, and serves pages, JSON payloads, and static
// assets from the docs root.
package api

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/docserve/docserve/internal/config"
	"github.com/docserve/docserve/internal/doctree"
	"github.com/docserve/docserve/internal/render"
	"github.com/docserve/docserve/internal/search"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server is the documentation HTTP server.
type Server struct {
	router   chi.Router
	tree     *doctree.Tree
	renderer *render.Renderer
	search   *search.Index // nil when search is disabled
	log      *slog.Logger
	cfg      config.Config
	tmpl     *template.Template
	css      string // highlight stylesheet, computed once
}

// NewServer creates and configures the HTTP server. idx may be nil to
// disable the search endpoint.
func NewServer(tree *doctree.Tree, renderer *render.Renderer, idx *search.Index, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		tree:     tree,
		renderer: renderer,
		search:   idx,
		log:      log,
		cfg:      cfg,
		tmpl:     template.Must(template.ParseFS(templateFS, "templates/*.html")),
		css:      renderer.GetCSS(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/health", s.handleHealth)

	r.Get("/_nav", s.handleNavigation)
	r.Get("/_meta/*", s.handleMetadata)
	r.Get("/_search", s.handleSearch)
	r.Get("/_refresh", s.handleRefresh)

	// Everything else is a document page or a static asset under the docs
	// root.
	r.Get("/*", s.handleDocument)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
