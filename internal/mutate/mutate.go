// Package mutate performs the filesystem half of console-initiated delete
// and rename operations, then records the outcome in the scan index. The
// filesystem operation always happens first, so index and filesystem cannot
// diverge except by a crash between the two steps (accepted, documented
// risk — no two-phase commit).
package mutate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/johnhenry/super-dee-duper/internal/index"
)

// ConflictError reports a mutation that could not proceed: the rename target
// is already occupied, or the source vanished before the operation. Index
// state is untouched when it is returned.
type ConflictError struct {
	Op     string // "delete" or "rename"
	Path   string
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Op, e.Path, e.Reason)
}

// Manager applies file mutations and keeps the index in step.
type Manager struct {
	store *index.Store
}

// New creates a Manager writing through store.
func New(store *index.Store) *Manager {
	return &Manager{store: store}
}

// DeleteFile removes the file at path from disk, then drops its index rows.
// A path that is already gone is a conflict, not a silent success.
func (m *Manager) DeleteFile(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConflictError{Op: "delete", Path: path, Reason: "file no longer exists"}
		}
		return fmt.Errorf("remove %q: %w", path, err)
	}

	if err := m.store.DeleteFile(ctx, path); err != nil && !errors.Is(err, index.ErrNotFound) {
		return err
	}
	slog.Info("file deleted", "path", path)
	return nil
}

// RenameFile moves oldPath to newPath, then updates the index row in place.
// The target must not exist; an existence check replaces retry-style
// collision handling with a well-defined error.
func (m *Manager) RenameFile(ctx context.Context, oldPath, newPath string) error {
	if _, err := os.Lstat(newPath); err == nil {
		return &ConflictError{Op: "rename", Path: newPath, Reason: "target already exists"}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %q: %w", newPath, err)
	}

	if _, err := os.Lstat(oldPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ConflictError{Op: "rename", Path: oldPath, Reason: "source no longer exists"}
		}
		return fmt.Errorf("stat %q: %w", oldPath, err)
	}

	if err := os.Rename(oldPath, newPath); err != nil {
		return fmt.Errorf("rename %q -> %q: %w", oldPath, newPath, err)
	}

	if err := m.store.UpdateFilePath(ctx, oldPath, newPath); err != nil && !errors.Is(err, index.ErrNotFound) {
		return err
	}
	slog.Info("file renamed", "from", oldPath, "to", newPath)
	return nil
}
