package scan

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"
)

// Index is the durable scan-index surface the engine writes through. It is
// satisfied by *index.Store; a nil Index means the scan is memory-only.
// The engine assumes single-writer access per session: one engine instance,
// one scan, one index file.
type Index interface {
	StartScan(ctx context.Context, baseDir string) (int64, error)
	// ReopenScan returns the newest session for baseDir that has no end
	// time. ok is false when every session is complete (or none exists).
	ReopenScan(ctx context.Context, baseDir string) (id int64, ok bool, err error)
	AddFile(ctx context.Context, scanID int64, rec *FileRecord) (int64, error)
	UpdateFileHash(ctx context.Context, fileID int64, fullHash, groupID string) error
	UpdateProgress(ctx context.Context, scanID, filesScanned, groupsFound int64) error
	RecordError(ctx context.Context, scanID int64, path, stage, msg string)
	CompleteScan(ctx context.Context, scanID, filesScanned, groupsFound int64) error
}

// Options configures one engine run.
type Options struct {
	Root            string
	Recursive       bool
	ExcludePatterns []string

	// Worker pool sizes; zero values fall back to DefaultWorkers.
	Walkers      int
	QuickHashers int
	FullHashers  int

	// Progress receives every counter increment. Optional.
	Progress ProgressFunc

	// Counters, when set, is updated live so another goroutine (e.g. the
	// HTTP status handler) can observe the scan. Allocated if nil.
	Counters *Progress

	// Store enables persistence. Resume reopens the newest incomplete
	// session for Root instead of starting a new one; re-encountered paths
	// are appended as new rows (AddFile is append-only).
	Store  Index
	Resume bool

	// OnSession is invoked with the session ID as soon as it is known,
	// before any file is recorded. Optional.
	OnSession func(id int64)
}

// DefaultWorkers are the pool sizes used when Options leaves them zero.
var DefaultWorkers = struct{ Walkers, QuickHashers, FullHashers int }{4, 4, 2}

// Result is what one engine run hands back to the caller. Groups are a
// caller-owned snapshot; the Store (when enabled) remains the durable
// source of truth.
type Result struct {
	Groups    []*DuplicateGroup
	SessionID int64
	Resumed   bool
}

// Run executes a full scan: walk, quick-hash, classify, persist. Per-file
// and per-directory failures are recovered in place; only root validation
// and index failures abort the run.
func Run(ctx context.Context, opts Options) (*Result, error) {
	info, err := os.Stat(opts.Root)
	if err != nil {
		return nil, &ScanError{Dir: opts.Root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Dir: opts.Root, Err: fmt.Errorf("not a directory")}
	}

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	excludes, err := NewExcludeFilter(cwd, opts.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	counters := opts.Counters
	if counters == nil {
		counters = &Progress{}
	}

	res := &Result{}
	if opts.Store != nil {
		if opts.Resume {
			id, ok, err := opts.Store.ReopenScan(ctx, opts.Root)
			if err != nil {
				return nil, fmt.Errorf("reopen scan: %w", err)
			}
			if ok {
				res.SessionID = id
				res.Resumed = true
				slog.Info("resuming incomplete scan", "id", id, "root", opts.Root)
			}
		}
		if res.SessionID == 0 {
			id, err := opts.Store.StartScan(ctx, opts.Root)
			if err != nil {
				return nil, fmt.Errorf("start scan: %w", err)
			}
			res.SessionID = id
		}
		if opts.OnSession != nil {
			opts.OnSession(res.SessionID)
		}
	}

	report := func(path, stage string, err error) {
		counters.Errors.Add(1)
		slog.Warn("scan error", "path", path, "stage", stage, "error", err)
		if opts.Store != nil {
			opts.Store.RecordError(ctx, res.SessionID, path, stage, err.Error())
		}
	}

	// Counter flusher — mirrors the live counters into the session row every
	// second so a killed process leaves near-current numbers behind.
	flusherStop := make(chan struct{})
	if opts.Store != nil {
		go flushProgress(ctx, opts.Store, res.SessionID, counters, flusherStop)
	}
	defer close(flusherStop)

	records, err := collect(ctx, opts, res.SessionID, counters, excludes, report)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		// Cancelled mid-walk: the session keeps no end time, so a later
		// --resume run treats it as incomplete.
		return nil, ctx.Err()
	}

	res.Groups = Classify(ctx, records, ClassifyOptions{
		FullHashers: pick(opts.FullHashers, DefaultWorkers.FullHashers),
		Report:      report,
		OnFullHash: func(rec *FileRecord) {
			counters.FullHashed.Add(1)
			counters.BytesHashed.Add(rec.Size)
			if opts.Progress != nil {
				opts.Progress(counters.FilesScanned.Load(), counters.GroupsFound.Load(), PhaseHashing)
			}
		},
	})
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	counters.GroupsFound.Store(int64(len(res.Groups)))
	if opts.Progress != nil {
		opts.Progress(counters.FilesScanned.Load(), counters.GroupsFound.Load(), PhaseHashing)
	}

	if opts.Store != nil {
		// Group ID is the full digest itself: deterministic and collision-free
		// across groups by construction.
		for _, rec := range records {
			if rec.FullHash == "" || rec.IndexID == 0 {
				continue
			}
			if err := opts.Store.UpdateFileHash(ctx, rec.IndexID, rec.FullHash, rec.FullHash); err != nil {
				return nil, fmt.Errorf("persist group assignment for %q: %w", rec.Path, err)
			}
		}
		if err := opts.Store.CompleteScan(ctx, res.SessionID,
			counters.FilesScanned.Load(), counters.GroupsFound.Load()); err != nil {
			return nil, fmt.Errorf("complete scan: %w", err)
		}
	}

	slog.Info("scan finished",
		"root", opts.Root,
		"files_scanned", counters.FilesScanned.Load(),
		"groups_found", counters.GroupsFound.Load(),
		"errors", counters.Errors.Load())
	return res, nil
}

// collect runs the walk and quick-hash stages and gathers the full record
// set, persisting each record as it arrives when the scan is index-backed.
func collect(ctx context.Context, opts Options, sessionID int64, counters *Progress, excludes *ExcludeFilter, report ErrorReporter) ([]*FileRecord, error) {
	const bufSize = 1000
	walkOut := make(chan FileRecord, bufSize)
	hashed := make(chan FileRecord, bufSize)

	go Walk(ctx, opts.Root, opts.Recursive, excludes,
		pick(opts.Walkers, DefaultWorkers.Walkers), walkOut, report)
	RunQuickHashers(ctx, pick(opts.QuickHashers, DefaultWorkers.QuickHashers),
		counters, walkOut, hashed, report)

	var records []*FileRecord
	var seq int64
	for rec := range hashed {
		rec := rec
		rec.Seq = seq
		seq++
		if opts.Store != nil {
			id, err := opts.Store.AddFile(ctx, sessionID, &rec)
			if err != nil {
				return nil, fmt.Errorf("index file %q: %w", rec.Path, err)
			}
			rec.IndexID = id
		}
		records = append(records, &rec)
		counters.FilesScanned.Add(1)
		if opts.Progress != nil {
			opts.Progress(counters.FilesScanned.Load(), counters.GroupsFound.Load(), PhaseScanning)
		}
	}
	return records, nil
}

// flushProgress writes the live counters to the session row every second
// until stop is closed, then performs a final flush.
func flushProgress(ctx context.Context, store Index, scanID int64, p *Progress, stop <-chan struct{}) {
	flush := func() {
		if err := store.UpdateProgress(ctx, scanID, p.FilesScanned.Load(), p.GroupsFound.Load()); err != nil && ctx.Err() == nil {
			slog.Warn("progress flush failed", "id", scanID, "error", err)
		}
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			flush()
		case <-stop:
			flush()
			return
		case <-ctx.Done():
			return
		}
	}
}

func pick(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
