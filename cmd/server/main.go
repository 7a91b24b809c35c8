package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docserve/docserve/internal/api"
	"github.com/docserve/docserve/internal/config"
	"github.com/docserve/docserve/internal/doctree"
	"github.com/docserve/docserve/internal/render"
	"github.com/docserve/docserve/internal/search"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Build the core: tree, renderer, and (optionally) the search index.
	tree := doctree.New(cfg.DocsDir, cfg.AutoRefresh)
	if tree.Root() == nil {
		log.Warn("docs directory missing or empty", "dir", cfg.DocsDir)
	}
	renderer := render.New(render.Config{
		LineNumbers:       cfg.LineNumbers,
		SyntaxTheme:       cfg.SyntaxTheme,
		MarkExternalLinks: cfg.MarkExternalLinks,
		SnippetRoot:       cfg.DocsDir,
	})

	var idx *search.Index
	if cfg.EnableSearch {
		idx = search.New()
		idx.IndexAll(tree.Documents())
	}

	srv := api.NewServer(tree, renderer, idx, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting docserve", "port", cfg.Port, "docs_dir", cfg.DocsDir)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
