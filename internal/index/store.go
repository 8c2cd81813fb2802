// Package index is the durable scan index: a single SQLite file holding one
// or more scan sessions, their file records, and their group assignments.
// It is a ledger of engine output, never a second source of truth — every
// mutation here is invoked only after the corresponding filesystem operation
// already succeeded.
package index

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/johnhenry/super-dee-duper/internal/scan"
)

// ErrNotFound is returned when a session or file row does not exist.
var ErrNotFound = errors.New("index: not found")

// Store wraps the SQLite index file. The engine assumes single-writer access
// per scan session; concurrent writers to one index file are unsupported.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the index file at path and applies
// migrations.
func Open(path string) (*Store, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the index file path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// ScanInfo is one session row.
type ScanInfo struct {
	ID            int64
	BaseDirectory string
	StartedAt     time.Time
	FinishedAt    *time.Time // nil while running or after a crash
	FilesScanned  int64
	GroupsFound   int64
}

// Incomplete reports whether the session never recorded an end time.
func (si *ScanInfo) Incomplete() bool { return si.FinishedAt == nil }

// ScanErrorInfo is one recovered per-file error recorded during a session.
type ScanErrorInfo struct {
	Path       string
	Stage      string
	Error      string
	OccurredAt time.Time
}

// FileRow is one scanned_files row.
type FileRow struct {
	ID       int64
	ScanID   int64
	Path     string
	Name     string
	Size     int64
	Created  time.Time
	Modified time.Time

	QuickHash string
	FullHash  *string
	GroupID   *string
}

// Group is a persisted duplicate group: two or more surviving rows sharing
// one group ID (the full digest).
type Group struct {
	GroupID string
	Size    int64
	Files   []FileRow
}

// ReclaimableBytes is the space freed by keeping one copy of the group.
func (g *Group) ReclaimableBytes() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}

// StartScan creates a new session row for baseDir and returns its ID.
func (s *Store) StartScan(ctx context.Context, baseDir string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_sessions (base_directory, started_at)
		VALUES (?, ?)`,
		baseDir, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("insert scan session: %w", err)
	}
	return res.LastInsertId()
}

// ReopenScan returns the newest session for baseDir with no end time.
// ok is false when no incomplete session exists. Reopening does not touch
// existing rows: a resumed scan appends, it never de-duplicates.
func (s *Store) ReopenScan(ctx context.Context, baseDir string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM scan_sessions
		WHERE base_directory = ? AND finished_at IS NULL
		ORDER BY started_at DESC, id DESC
		LIMIT 1`, baseDir,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("find incomplete session: %w", err)
	}
	return id, true, nil
}

// AddFile appends one file record to the session and returns the row ID.
// Append-only: a second insert for the same path creates a second row — path
// uniqueness per scan is intentionally not enforced.
func (s *Store) AddFile(ctx context.Context, scanID int64, rec *scan.FileRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scanned_files
			(scan_id, path, name, size, created_at, modified_at, quick_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		scanID, rec.Path, rec.Name, rec.Size,
		rec.Created.Unix(), rec.Modified.Unix(), rec.QuickHash)
	if err != nil {
		return 0, fmt.Errorf("insert file row: %w", err)
	}
	return res.LastInsertId()
}

// UpdateFileHash records the full digest and group assignment for one file
// row. The group ID is the full digest value itself.
func (s *Store) UpdateFileHash(ctx context.Context, fileID int64, fullHash, groupID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scanned_files SET full_hash = ?, group_id = ? WHERE id = ?`,
		fullHash, groupID, fileID)
	if err != nil {
		return fmt.Errorf("update file hash: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("file row %d: %w", fileID, ErrNotFound)
	}
	return nil
}

// UpdateProgress overwrites the session's live counters.
func (s *Store) UpdateProgress(ctx context.Context, scanID, filesScanned, groupsFound int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scan_sessions SET files_scanned = ?, groups_found = ? WHERE id = ?`,
		filesScanned, groupsFound, scanID)
	if err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}

// RecordError appends a recovered per-file error to the session's error
// ledger. Best-effort: a failed insert is logged, never propagated.
func (s *Store) RecordError(ctx context.Context, scanID int64, path, stage, msg string) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_errors (scan_id, path, stage, error, occurred_at)
		VALUES (?, ?, ?, ?, ?)`,
		scanID, path, stage, msg, time.Now().Unix())
	if err != nil {
		slog.Warn("record scan error", "scan_id", scanID, "path", path, "error", err)
	}
}

// CompleteScan sets the end time and final counters, closing the session.
func (s *Store) CompleteScan(ctx context.Context, scanID, filesScanned, groupsFound int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scan_sessions
		SET finished_at = ?, files_scanned = ?, groups_found = ?
		WHERE id = ?`,
		time.Now().Unix(), filesScanned, groupsFound, scanID)
	if err != nil {
		return fmt.Errorf("complete scan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %d: %w", scanID, ErrNotFound)
	}
	return nil
}

// GetScanInfo returns one session row.
func (s *Store) GetScanInfo(ctx context.Context, scanID int64) (*ScanInfo, error) {
	var si ScanInfo
	var startedAt int64
	var finishedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT id, base_directory, started_at, finished_at, files_scanned, groups_found
		FROM scan_sessions WHERE id = ?`, scanID,
	).Scan(&si.ID, &si.BaseDirectory, &startedAt, &finishedAt, &si.FilesScanned, &si.GroupsFound)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %d: %w", scanID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	si.StartedAt = time.Unix(startedAt, 0)
	if finishedAt.Valid {
		t := time.Unix(finishedAt.Int64, 0)
		si.FinishedAt = &t
	}
	return &si, nil
}

// ListScans returns all sessions, newest first.
func (s *Store) ListScans(ctx context.Context) ([]ScanInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, base_directory, started_at, finished_at, files_scanned, groups_found
		FROM scan_sessions
		ORDER BY started_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []ScanInfo
	for rows.Next() {
		var si ScanInfo
		var startedAt int64
		var finishedAt sql.NullInt64
		if err := rows.Scan(&si.ID, &si.BaseDirectory, &startedAt, &finishedAt,
			&si.FilesScanned, &si.GroupsFound); err != nil {
			return nil, fmt.Errorf("scan session row: %w", err)
		}
		si.StartedAt = time.Unix(startedAt, 0)
		if finishedAt.Valid {
			t := time.Unix(finishedAt.Int64, 0)
			si.FinishedAt = &t
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

// GetScanErrors returns the session's recorded errors, oldest first.
func (s *Store) GetScanErrors(ctx context.Context, scanID int64) ([]ScanErrorInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT path, stage, error, occurred_at
		FROM scan_errors WHERE scan_id = ? ORDER BY id`, scanID)
	if err != nil {
		return nil, fmt.Errorf("query scan errors: %w", err)
	}
	defer rows.Close()

	var out []ScanErrorInfo
	for rows.Next() {
		var e ScanErrorInfo
		var at int64
		if err := rows.Scan(&e.Path, &e.Stage, &e.Error, &at); err != nil {
			return nil, fmt.Errorf("scan error row: %w", err)
		}
		e.OccurredAt = time.Unix(at, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetDuplicateGroups returns the session's groups with two or more surviving
// rows, ordered by descending size with ties in row-insertion order — the
// same shape the in-memory classifier produces, so index-backed and
// non-indexed callers see identical output.
func (s *Store) GetDuplicateGroups(ctx context.Context, scanID int64) ([]Group, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.id, f.scan_id, f.path, f.name, f.size,
		       f.created_at, f.modified_at, f.quick_hash, f.full_hash, f.group_id
		FROM scanned_files f
		JOIN (
			SELECT group_id, MIN(size) AS size, MIN(id) AS first_id
			FROM scanned_files
			WHERE scan_id = ? AND group_id IS NOT NULL
			GROUP BY group_id
			HAVING COUNT(*) >= 2
		) g ON f.group_id = g.group_id
		WHERE f.scan_id = ?
		ORDER BY g.size DESC, g.first_id ASC, f.id ASC`,
		scanID, scanID)
	if err != nil {
		return nil, fmt.Errorf("query groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var fr FileRow
		var created, modified int64
		var fullHash, groupID sql.NullString
		if err := rows.Scan(&fr.ID, &fr.ScanID, &fr.Path, &fr.Name, &fr.Size,
			&created, &modified, &fr.QuickHash, &fullHash, &groupID); err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		fr.Created = time.Unix(created, 0)
		fr.Modified = time.Unix(modified, 0)
		if fullHash.Valid {
			fr.FullHash = &fullHash.String
		}
		if groupID.Valid {
			fr.GroupID = &groupID.String
		}

		if len(groups) == 0 || groups[len(groups)-1].GroupID != *fr.GroupID {
			groups = append(groups, Group{GroupID: *fr.GroupID, Size: fr.Size})
		}
		g := &groups[len(groups)-1]
		g.Files = append(g.Files, fr)
	}
	return groups, rows.Err()
}

// DeleteFile removes every row for path. Group membership of the remaining
// rows is NOT recomputed; a group that drops below two members simply stops
// being reported by GetDuplicateGroups.
func (s *Store) DeleteFile(ctx context.Context, path string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scanned_files WHERE path = ?`, path)
	if err != nil {
		return fmt.Errorf("delete file rows: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("path %q: %w", path, ErrNotFound)
	}
	return nil
}

// UpdateFilePath renames a file in place. Hashes, group and size are
// preserved — a rename does not change content.
func (s *Store) UpdateFilePath(ctx context.Context, oldPath, newPath string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE scanned_files SET path = ?, name = ? WHERE path = ?`,
		newPath, filepath.Base(newPath), oldPath)
	if err != nil {
		return fmt.Errorf("update file path: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("path %q: %w", oldPath, ErrNotFound)
	}
	return nil
}
