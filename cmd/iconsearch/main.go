package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/codex-src/heroicons-viewer/internal/logging"
	"github.com/codex-src/heroicons-viewer/internal/tools/iconsearch"
)

func main() {
	cfg, err := iconsearch.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse flags: %v\n", err)
		os.Exit(2)
	}

	logger := logging.BuildLogger(cfg.LogLevel, "text")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err = iconsearch.Run(ctx, cfg, os.Stdin, os.Stdout, logger)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, iconsearch.ErrNoMatch):
		os.Exit(1)
	default:
		logger.Error("iconsearch failed", "error", err)
		os.Exit(2)
	}
}
