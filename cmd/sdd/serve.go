package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/johnhenry/super-dee-duper/internal/api"
	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/mutate"
	"github.com/johnhenry/super-dee-duper/internal/scan"
	"github.com/johnhenry/super-dee-duper/internal/scheduler"
)

var (
	serveIndexPath string
	serveAddr      string
	serveSchedule  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the management console over an existing scan index",
	Long:  "serve exposes an HTTP API over a scan index file: session listings, duplicate\ngroups, file delete/rename, and optional scheduled re-scans. No scan is run\nat startup; the index is served as-is.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveIndexPath, "index", "", "scan index file to serve (required unless set in config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address")
	serveCmd.Flags().StringVar(&serveSchedule, "schedule", "", "cron expression for periodic re-scans of the base directory")
}

func runServe(cmd *cobra.Command, args []string) error {
	indexPath := serveIndexPath
	if indexPath == "" {
		indexPath = cfg.IndexPath
	}
	if indexPath == "" {
		return fmt.Errorf("--index is required")
	}

	store, err := index.Open(indexPath)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer store.Close()

	addr := serveAddr
	if addr == "" {
		addr = cfg.HTTPAddr
	}

	// Re-scans target the configured base directory, or failing that the
	// newest session's directory already in the index.
	baseDir := cfg.BaseDirectory
	if baseDir == "" {
		if sessions, err := store.ListScans(cmd.Context()); err == nil && len(sessions) > 0 {
			baseDir = sessions[0].BaseDirectory
		}
	}

	mgr := scan.NewManager(scan.Options{
		Root:            baseDir,
		Recursive:       *cfg.Recursive,
		ExcludePatterns: cfg.ExcludePatterns,
		Walkers:         cfg.Workers.Walkers,
		QuickHashers:    cfg.Workers.QuickHashers,
		FullHashers:     cfg.Workers.FullHashers,
		Store:           store,
	})
	mut := mutate.New(store)

	sched := scheduler.New()
	schedule := serveSchedule
	if schedule == "" {
		schedule = cfg.Schedule
	}
	if schedule != "" && baseDir != "" {
		if err := sched.SetJob(schedule, func() {
			slog.Info("scheduled scan triggered", "root", baseDir)
			if _, err := mgr.Start(context.Background(), "schedule"); err != nil {
				slog.Warn("scheduled scan start", "error", err)
			}
		}); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", schedule, err)
		}
	}
	sched.Start()
	defer sched.Stop()

	slog.Info("sdd serving",
		"version", version,
		"addr", addr,
		"index", indexPath,
		"base_directory", baseDir,
		"schedule", schedule)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := api.New(addr, store, mgr, mut, sched, version)
	if err := srv.Run(ctx); err != nil {
		return err
	}
	slog.Info("sdd stopped")
	return nil
}
