package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codex-src/heroicons-viewer/internal/catalog"
	"github.com/codex-src/heroicons-viewer/internal/config"
	"github.com/codex-src/heroicons-viewer/internal/logging"
	"github.com/codex-src/heroicons-viewer/internal/metrics"
	"github.com/codex-src/heroicons-viewer/internal/search"
	"github.com/codex-src/heroicons-viewer/internal/web"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Path to config JSON")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "text", "Log format (text, json)")
	addr := flag.String("addr", ":8080", "HTTP bind address")
	flag.Parse()

	logger := logging.BuildLogger(*logLevel, *logFormat)

	if err := serve(logger, *configPath, *addr); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func serve(logger *slog.Logger, configPath, addr string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Open(ctx, cfg.CatalogPath)
	if err != nil {
		return err
	}
	idx, err := search.Build(cat)
	if err != nil {
		return err
	}
	logger.Info("search index built", "icons", idx.Len(), "nodes", idx.Nodes())

	m := metrics.New()
	m.SetIndexSize(idx.Len(), idx.Nodes())

	srv := &http.Server{
		Addr:              addr,
		Handler:           web.NewServer(cfg, logger, idx, m).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
