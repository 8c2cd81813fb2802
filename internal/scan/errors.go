package scan

import "fmt"

// FileReadError is a per-file stat or hash failure. The file is skipped and
// the walk continues; the error never aborts the scan.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("read %q: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// ScanError is a directory-level failure: the subtree is skipped, siblings
// continue.
type ScanError struct {
	Dir string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %q: %v", e.Dir, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// ErrorReporter records a recovered per-file or per-directory error:
// increments the error counter, emits a structured warning log, and persists
// the event to the scan_errors table when the scan is index-backed.
type ErrorReporter func(path, stage string, err error)
