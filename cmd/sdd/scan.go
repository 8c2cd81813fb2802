package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/output"
	"github.com/johnhenry/super-dee-duper/internal/scan"
)

var (
	scanRecursive bool
	scanExcludes  []string
	scanIndexPath string
	scanResume    bool
	scanQuiet     bool
	scanWorkers   int
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory for duplicate files",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanCmd.Flags().BoolVarP(&scanRecursive, "recursive", "r", true, "descend into subdirectories")
	scanCmd.Flags().StringArrayVar(&scanExcludes, "exclude", nil, "glob pattern to exclude (repeatable, relative to the working directory)")
	scanCmd.Flags().StringVar(&scanIndexPath, "index", "", "persist results to a scan index file at this path")
	scanCmd.Flags().BoolVar(&scanResume, "resume", false, "reopen the newest incomplete session in the index instead of starting fresh")
	scanCmd.Flags().BoolVarP(&scanQuiet, "quiet", "q", false, "suppress progress output")
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "walker/hasher goroutines per stage (0 = defaults)")
}

func runScan(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) > 0 {
		root = args[0]
	} else if cfg.BaseDirectory != "" {
		root = cfg.BaseDirectory
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	indexPath := scanIndexPath
	if indexPath == "" {
		indexPath = cfg.IndexPath
	}
	if scanResume && indexPath == "" {
		return fmt.Errorf("--resume requires --index")
	}

	var store *index.Store
	if indexPath != "" {
		store, err = index.Open(indexPath)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer store.Close()
	}

	opts := scan.Options{
		Root:            root,
		Recursive:       scanRecursive,
		ExcludePatterns: append(append([]string{}, cfg.ExcludePatterns...), scanExcludes...),
		Walkers:         pickWorkers(scanWorkers, cfg.Workers.Walkers),
		QuickHashers:    pickWorkers(scanWorkers, cfg.Workers.QuickHashers),
		FullHashers:     pickWorkers(scanWorkers, cfg.Workers.FullHashers),
		Resume:          scanResume,
	}
	if store != nil {
		opts.Store = store
	}

	if !scanQuiet {
		// The engine reports every increment; the display is throttled here.
		// Hash workers report concurrently, hence the CAS.
		var lastPrint atomic.Int64
		opts.Progress = func(files, groups int64, phase scan.Phase) {
			now := time.Now().UnixNano()
			last := lastPrint.Load()
			if now-last < int64(200*time.Millisecond) || !lastPrint.CompareAndSwap(last, now) {
				return
			}
			fmt.Fprintf(os.Stderr, "\r%s: %d files, %d groups", phase, files, groups)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := scan.Run(ctx, opts)
	if !scanQuiet {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	output.RenderGroups(os.Stdout, res.Groups)
	if store != nil {
		resumed := ""
		if res.Resumed {
			resumed = " (resumed)"
		}
		fmt.Printf("\nIndex: %s, session %d%s\n", store.Path(), res.SessionID, resumed)
	}
	return nil
}

func pickWorkers(override, configured int) int {
	if override > 0 {
		return override
	}
	return configured
}
