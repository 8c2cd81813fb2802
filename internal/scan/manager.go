package scan

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrAlreadyRunning is returned when a scan is started while one is in progress.
var ErrAlreadyRunning = errors.New("a scan is already in progress")

// ErrNoActiveScan is returned when cancel is called with no scan running.
var ErrNoActiveScan = errors.New("no scan is currently running")

// ActiveScan holds live information about the running scan.
type ActiveScan struct {
	SessionID   int64
	StartedAt   time.Time
	TriggeredBy string
	Counters    *Progress
}

// Manager enforces a single-active-scan invariant for the management
// console: one engine instance per index file at a time. It is safe for
// concurrent use.
type Manager struct {
	mu   sync.Mutex
	opts Options

	active   *ActiveScan
	cancelFn context.CancelFunc
}

// NewManager creates a Manager that starts scans with the given options.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts}
}

// Start launches an asynchronous scan. Returns an ActiveScan snapshot or
// ErrAlreadyRunning if a scan is already in progress.
func (m *Manager) Start(parentCtx context.Context, triggeredBy string) (*ActiveScan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != nil {
		return nil, ErrAlreadyRunning
	}

	counters := &Progress{}
	active := &ActiveScan{
		StartedAt:   time.Now(),
		TriggeredBy: triggeredBy,
		Counters:    counters,
	}

	opts := m.opts
	opts.Counters = counters
	// A console-triggered re-scan always records a fresh session.
	opts.Resume = false
	opts.OnSession = func(id int64) {
		m.mu.Lock()
		active.SessionID = id
		m.mu.Unlock()
	}

	scanCtx, cancel := context.WithCancel(parentCtx)
	m.active = active
	m.cancelFn = cancel

	go func() {
		if _, err := Run(scanCtx, opts); err != nil && !errors.Is(err, context.Canceled) {
			slog.Error("scan run error", "root", opts.Root, "error", err)
		}

		m.mu.Lock()
		m.active = nil
		m.cancelFn = nil
		m.mu.Unlock()
	}()

	return active, nil
}

// Cancel stops the currently running scan. Returns ErrNoActiveScan if idle.
// The interrupted session keeps no end time; --resume picks it up later.
func (m *Manager) Cancel() (*ActiveScan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil, ErrNoActiveScan
	}

	snap := *m.active
	m.cancelFn()
	return &snap, nil
}

// ActiveScan returns a snapshot of the running scan, or nil when idle.
func (m *Manager) ActiveScan() *ActiveScan {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return nil
	}
	snap := *m.active
	return &snap
}
