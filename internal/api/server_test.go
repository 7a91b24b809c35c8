package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/docserve/docserve/internal/config"
	"github.com/docserve/docserve/internal/doctree"
	"github.com/docserve/docserve/internal/render"
	"github.com/docserve/docserve/internal/search"
)

func newTestServer(t *testing.T, cfg config.Config) *Server {
	t.Helper()
	tree := doctree.New(cfg.DocsDir, cfg.AutoRefresh)
	renderer := render.New(render.Config{
		SyntaxTheme:       "github",
		MarkExternalLinks: true,
	})
	var idx *search.Index
	if cfg.EnableSearch {
		idx = search.New()
		idx.IndexAll(tree.Documents())
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(tree, renderer, idx, log, cfg)
}

func fixtureDocs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.md":     "---\ntitle: Home\n---\n# Welcome\n\nStart here.\n",
		"guide.md":     "---\ntitle: Guide\norder: 1\ndescription: The user guide\n---\n## Install\n\nRun the installer.\n",
		"api/index.md": "---\ntitle: API\n---\nEndpoints overview with a Bearer token example.\n",
		"style.css":    "body { color: black; }\n",
	}
	for rel, content := range files {
		full := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", rel, err)
		}
	}
	return dir
}

func testConfig(docsDir string) config.Config {
	return config.Config{
		Port:              "0",
		DocsDir:           docsDir,
		EnableSearch:      true,
		SyntaxTheme:       "github",
		MarkExternalLinks: true,
		SiteTitle:         "Test Docs",
	}
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHandleDocument(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))

	rec := get(t, s, "/guide")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `<h2 id="install"`) {
		t.Errorf("rendered heading missing: %q", body)
	}
	if !strings.Contains(body, "Run the installer.") {
		t.Errorf("document body missing")
	}
	if !strings.Contains(body, "Test Docs") {
		t.Errorf("site title missing from page")
	}
}

func TestHandleDocument_DirectoryResolvesToIndex(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))

	rec := get(t, s, "/api")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Endpoints overview") {
		t.Errorf("index document content missing")
	}
}

func TestHandleDocument_NotFound(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))

	rec := get(t, s, "/nope")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "not found") {
		t.Errorf("expected not-found page, got %q", rec.Body.String())
	}
}

func TestStaticAssetPassthrough(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))

	rec := get(t, s, "/style.css")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "color: black") {
		t.Errorf("asset content missing: %q", rec.Body.String())
	}

	// Path traversal is rejected, not served.
	rec = get(t, s, "/../secret.txt")
	if rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), "secret") {
		t.Error("traversal path served a file outside the docs root")
	}
}

func TestHandleNavigation(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))

	rec := get(t, s, "/_nav")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var nav []doctree.NavItem
	if err := json.Unmarshal(rec.Body.Bytes(), &nav); err != nil {
		t.Fatalf("invalid nav JSON: %v", err)
	}
	if len(nav) != 3 {
		t.Fatalf("expected 3 nav items, got %d: %+v", len(nav), nav)
	}
	// Sorted by (order, lowercase title): Guide(1), API(999), Home(999).
	titles := []string{nav[0].Title, nav[1].Title, nav[2].Title}
	if titles[0] != "Guide" || titles[1] != "API" || titles[2] != "Home" {
		t.Errorf("unexpected nav order: %v", titles)
	}
	if nav[2].Path != "index" {
		t.Errorf("root index entry should use the literal index path, got %q", nav[2].Path)
	}
}

func TestHandleMetadata(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))

	rec := get(t, s, "/_meta/guide")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var meta struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Toc         []struct {
			Text string `json:"text"`
			Slug string `json:"slug"`
		} `json:"toc"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &meta); err != nil {
		t.Fatalf("invalid metadata JSON: %v", err)
	}
	if meta.Title != "Guide" {
		t.Errorf("expected title Guide, got %q", meta.Title)
	}
	if meta.Description != "The user guide" {
		t.Errorf("expected description, got %q", meta.Description)
	}
	if len(meta.Toc) != 1 || meta.Toc[0].Slug != "install" {
		t.Errorf("unexpected toc: %+v", meta.Toc)
	}

	rec = get(t, s, "/_meta/missing")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown document, got %d", rec.Code)
	}
}

func TestHandleSearch(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))

	rec := get(t, s, "/_search?q=bearer+token")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var results []search.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("invalid search JSON: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected search hits")
	}
	if results[0].Path != "api/index" {
		t.Errorf("expected api/index first, got %q", results[0].Path)
	}
	if !strings.Contains(results[0].Snippet, "Bearer token") {
		t.Errorf("snippet missing matched term: %q", results[0].Snippet)
	}
}

func TestHandleSearch_Disabled(t *testing.T) {
	cfg := testConfig(fixtureDocs(t))
	cfg.EnableSearch = false
	s := newTestServer(t, cfg)

	rec := get(t, s, "/_search?q=anything")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when search disabled, got %d", rec.Code)
	}
}

func TestHandleRefresh(t *testing.T) {
	dir := fixtureDocs(t)
	s := newTestServer(t, testConfig(dir))

	// A document added after startup is invisible until refresh.
	if err := os.WriteFile(filepath.Join(dir, "new.md"), []byte("---\ntitle: New Doc\n---\nfresh searchable text\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if rec := get(t, s, "/new"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before refresh, got %d", rec.Code)
	}

	rec := get(t, s, "/_refresh")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "refreshed") {
		t.Errorf("unexpected refresh response: %q", rec.Body.String())
	}

	if rec := get(t, s, "/new"); rec.Code != http.StatusOK {
		t.Errorf("expected 200 after refresh, got %d", rec.Code)
	}
	rec = get(t, s, "/_search?q=searchable")
	var results []search.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &results); err != nil {
		t.Fatalf("invalid search JSON: %v", err)
	}
	if len(results) != 1 || results[0].Path != "new" {
		t.Errorf("new document not reindexed: %+v", results)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(fixtureDocs(t)))
	rec := get(t, s, "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("unexpected health body: %q", rec.Body.String())
	}
}
