package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chumsley/keynote-summary/internal/archive"
	"github.com/chumsley/keynote-summary/internal/config"
	"github.com/chumsley/keynote-summary/internal/pipeline"
	"gopkg.in/yaml.v3"
)

func main() {
	cfg := config.Load()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if len(os.Args) != 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <presentation.key>\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, log, os.Args[1]); err != nil {
		log.Error("keysum failed", "path", os.Args[1], "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger, path string) error {
	src, err := archive.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer src.Close()

	if cfg.DumpEntry != "" {
		recs, err := pipeline.PathArchives(src, cfg.DumpEntry)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		return enc.Encode(recs)
	}

	title := strings.TrimSuffix(filepath.Base(filepath.Clean(path)), ".key")
	res, err := pipeline.New(cfg, log).Run(ctx, src, title)
	if err != nil {
		return err
	}
	log.Info("rendered document", "slides", res.Slides, "format", res.Format, "fingerprint", res.Fingerprint)

	_, err = os.Stdout.Write(res.Body)
	return err
}
