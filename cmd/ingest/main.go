package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
	"github.com/codex-src/heroicons-viewer/internal/config"
	"github.com/codex-src/heroicons-viewer/internal/logging"
	"github.com/codex-src/heroicons-viewer/internal/pipeline"
	"github.com/codex-src/heroicons-viewer/internal/search"
	"github.com/codex-src/heroicons-viewer/internal/sitemap"
	"github.com/codex-src/heroicons-viewer/internal/storage"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config JSON")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "Log format (text, json)")
	src := flag.String("src", "", "SVG source tree with outline/ and solid/ directories")
	force := flag.Bool("force", false, "Force reprocessing of all icons (ignore processing cache)")
	output := flag.String("output", "", "Override public output directory")
	flag.Parse()

	logger := logging.BuildLogger(*logLevel, *logFormat)

	if err := ingest(logger, *configPath, *src, *force, *output); err != nil {
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

var errNoSource = errors.New("-src is required")

func ingest(logger *slog.Logger, configPath, src string, forceProcess bool, output string) error {
	if src == "" {
		return errNoSource
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if output != "" {
		cfg.PublicDir = output
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	writer, err := catalog.NewSQLiteWriter(cfg.CatalogDBPath())
	if err != nil {
		return err
	}

	runner := &pipeline.Runner{
		Scanner:      pipeline.NewScanner(src),
		Converter:    pipeline.NewConverter(0),
		Storage:      storage.NewFSStorage(cfg.GlyphDir()),
		Writer:       writer,
		Logger:       logger,
		FailuresPath: cfg.FailuresPath(),
		ForceProcess: forceProcess,
	}
	cat, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	// Fail here rather than at server startup if the names cannot be indexed.
	idx, err := search.Build(cat)
	if err != nil {
		return err
	}
	logger.Info("catalog written", "path", cfg.CatalogDBPath(), "icons", idx.Len(), "nodes", idx.Nodes())

	gen := &sitemap.SitemapGenerator{
		Root:    cfg.SitemapDir(),
		SiteURL: cfg.SiteURL(),
		Logger:  logger,
	}
	if err := gen.Generate(ctx, cat, time.Now()); err != nil {
		return fmt.Errorf("generate sitemaps: %w", err)
	}

	if failures := runner.Failures(); len(failures) > 0 {
		logger.Warn("some icons were skipped", "count", len(failures), "log", cfg.FailuresPath())
	}
	return nil
}
