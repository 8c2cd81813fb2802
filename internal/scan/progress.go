package scan

import "sync/atomic"

// Phase labels the part of the scan a progress report belongs to.
type Phase string

const (
	PhaseScanning Phase = "scanning"
	PhaseHashing  Phase = "hashing"
)

// ProgressFunc receives every counter increment from the engine. The engine
// never throttles these calls; rate-limiting display frequency is the
// caller's concern.
type ProgressFunc func(filesScanned, groupsFound int64, phase Phase)

// Progress holds live counters updated by the pipeline stages.
// All fields are atomic so they can be written from worker goroutines and
// read from the HTTP handler without locks.
type Progress struct {
	FilesScanned atomic.Int64
	GroupsFound  atomic.Int64
	QuickHashed  atomic.Int64
	FullHashed   atomic.Int64
	BytesHashed  atomic.Int64
	Errors       atomic.Int64
}
