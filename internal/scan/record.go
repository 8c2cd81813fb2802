package scan

import "time"

// FileRecord is one regular file discovered by the walker. QuickHash is
// always set by the time the record reaches the classifier; FullHash stays
// empty until the record survives the size+quickHash funnel.
type FileRecord struct {
	Path     string
	Name     string
	Size     int64
	Created  time.Time
	Modified time.Time

	QuickHash string
	FullHash  string

	// Seq is the discovery index assigned when the record is collected.
	// Group ordering ties are broken on it so output is stable for a run.
	Seq int64

	// IndexID is the scanned_files row ID when the scan is index-backed,
	// 0 otherwise.
	IndexID int64
}

// DuplicateGroup is a set of two or more files sharing one full digest.
type DuplicateGroup struct {
	FullHash string
	Size     int64
	Files    []*FileRecord
}

// ReclaimableBytes is the space freed by keeping one copy of the group.
func (g *DuplicateGroup) ReclaimableBytes() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}
