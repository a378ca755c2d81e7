package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/fennar/vokab/internal/clock"
	"github.com/fennar/vokab/internal/config"
	"github.com/fennar/vokab/internal/ingest"
	"github.com/fennar/vokab/internal/phrasestore"
	"github.com/fennar/vokab/internal/review"
	"github.com/fennar/vokab/internal/reviewlog"
	"github.com/fennar/vokab/internal/web"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "vokab:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := config.Flags()
	if err := flags.Parse(args); err != nil {
		return err
	}
	configFile, _ := flags.GetString("config")

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// A corrupt store file is fatal; the process never starts with an
	// empty collection in its place.
	store, err := phrasestore.Open(cfg.StorePath, logger)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.ReviewLogPath), 0o755); err != nil {
		return fmt.Errorf("create review log directory: %w", err)
	}
	history, err := reviewlog.Open(cfg.ReviewLogPath)
	if err != nil {
		return err
	}
	defer history.Close()

	svc := review.NewService(store, history, clock.System{}, logger, review.Options{
		BatchLimit:          cfg.BatchLimit,
		SimilarityThreshold: cfg.SimilarityThreshold,
	})

	if source, _ := flags.GetString("ingest"); source != "" {
		report, err := ingest.Run(svc, source, cfg.CacheDir, logger)
		if err != nil {
			return err
		}
		fmt.Printf("Ingested %d phrases from %d files (%d new, %d matched, %d errors).\n",
			report.Parsed, report.Files, report.Created, report.Matched, len(report.Errors))
		for _, e := range report.Errors {
			fmt.Printf("- %v\n", e)
		}
		return nil
	}

	server := web.NewServer(svc, logger)
	logger.Info("vokab listening", "addr", cfg.ListenAddr, "store", cfg.StorePath)
	return http.ListenAndServe(cfg.ListenAddr, server)
}
