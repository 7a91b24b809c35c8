package api

import (
	"encoding/json"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/docserve/docserve/internal/config"
	"github.com/docserve/docserve/internal/doctree"
	"github.com/docserve/docserve/internal/render"
)

// docLink references a neighboring document for pagination.
type docLink struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

type metadataResponse struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Tags        []string             `json:"tags"`
	Toc         []render.TocEntry    `json:"toc"`
	Breadcrumbs []doctree.Breadcrumb `json:"breadcrumbs"`
	Prev        *docLink             `json:"prev"`
	Next        *docLink             `json:"next"`
}

// handleNavigation serves the navigation tree as JSON.
func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.tree.Navigation())
}

// handleMetadata serves per-document metadata: title, description, tags,
// TOC, breadcrumbs, and pagination links.
func (s *Server) handleMetadata(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	node := s.tree.Get(path)
	if node == nil {
		jsonError(w, "document not found", http.StatusNotFound)
		return
	}
	result := s.renderer.Render(node.RawContent)
	prev, next := s.tree.Siblings(path)

	tags := node.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, metadataResponse{
		Title:       node.Metadata.Title,
		Description: node.Metadata.Description,
		Tags:        tags,
		Toc:         result.TOC,
		Breadcrumbs: s.tree.Breadcrumbs(path),
		Prev:        linkFor(prev),
		Next:        linkFor(next),
	})
}

// handleSearch serves free-text search results. With auto-refresh on, the
// index is rebuilt from the (possibly rescanned) tree before querying.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.search == nil {
		jsonError(w, "search not enabled", http.StatusNotFound)
		return
	}
	if s.cfg.AutoRefresh {
		s.search.IndexAll(s.tree.Documents())
	}
	writeJSON(w, s.search.Search(r.URL.Query().Get("q"), 10))
}

// handleRefresh forces a rescan of the docs directory and a reindex.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.tree.Refresh()
	if s.search != nil {
		s.search.IndexAll(s.tree.Documents())
	}
	writeJSON(w, map[string]string{"status": "refreshed"})
}

// pageData is the template payload for a rendered document page.
type pageData struct {
	Config      config.Config
	Title       string
	Description string
	Content     template.HTML
	Toc         []render.TocEntry
	Nav         []doctree.NavItem
	Breadcrumbs []doctree.Breadcrumb
	Prev        *docLink
	Next        *docLink
	CurrentPath string
	SyntaxCSS   template.CSS
	ExtraCSS    template.CSS
	ExtraJS     template.JS
}

// handleDocument serves a rendered document page, or passes through a static
// asset when the path names an existing non-markdown file under the docs
// root.
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")
	if path != "" {
		if asset, ok := s.assetPath(path); ok {
			http.ServeFile(w, r, asset)
			return
		}
	}

	path = strings.Trim(path, "/")
	node := s.tree.Get(path)
	if node == nil {
		s.renderNotFound(w)
		return
	}

	result := s.renderer.Render(node.RawContent)
	prev, next := s.tree.Siblings(path)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := s.tmpl.ExecuteTemplate(w, "document.html", pageData{
		Config:      s.cfg,
		Title:       node.Metadata.Title,
		Description: node.Metadata.Description,
		Content:     template.HTML(result.HTML),
		Toc:         result.TOC,
		Nav:         s.tree.Navigation(),
		Breadcrumbs: s.tree.Breadcrumbs(path),
		Prev:        linkFor(prev),
		Next:        linkFor(next),
		CurrentPath: path,
		SyntaxCSS:   template.CSS(s.css),
		ExtraCSS:    template.CSS(s.cfg.ExtraCSS),
		ExtraJS:     template.JS(s.cfg.ExtraJS),
	})
	if err != nil {
		s.log.Error("render page", "path", path, "error", err)
	}
}

func (s *Server) renderNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if err := s.tmpl.ExecuteTemplate(w, "notfound.html", pageData{Config: s.cfg, Title: "Not Found"}); err != nil {
		s.log.Error("render not-found page", "error", err)
	}
}

// assetPath resolves a URL path to a servable file under the docs root.
// Markdown files, directories, and paths escaping the root are rejected.
func (s *Server) assetPath(p string) (string, bool) {
	rel := filepath.Clean(filepath.FromSlash(strings.Trim(p, "/")))
	if rel == "." || rel == ".." || filepath.IsAbs(rel) ||
		strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	full := filepath.Join(s.cfg.DocsDir, rel)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() || filepath.Ext(full) == ".md" {
		return "", false
	}
	return full, true
}

func linkFor(n *doctree.Node) *docLink {
	if n == nil {
		return nil
	}
	return &docLink{Title: n.Metadata.Title, Path: n.Path}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
