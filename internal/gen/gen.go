// Package gen builds synthetic directory trees with a controllable duplicate
// rate, for manual testing and benchmarks.
package gen

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
)

// Options controls one Generate call.
type Options struct {
	// Files is the number of regular files to create.
	Files int
	// DirFanout is how many files share one subdirectory.
	DirFanout int
	// MinSize and MaxSize bound the random file sizes in bytes.
	MinSize int64
	MaxSize int64
	// DuplicateRate is the fraction of files (0..1) written as an exact copy
	// of an earlier file's content.
	DuplicateRate float64
	// Seed makes output reproducible. Zero seeds from the default source.
	Seed int64
}

// Stats summarises what Generate wrote.
type Stats struct {
	FilesCreated      int
	DuplicatesCreated int
	BytesWritten      int64
}

func (o *Options) applyDefaults() {
	if o.Files <= 0 {
		o.Files = 100
	}
	if o.DirFanout <= 0 {
		o.DirFanout = 50
	}
	if o.MinSize <= 0 {
		o.MinSize = 256
	}
	if o.MaxSize < o.MinSize {
		o.MaxSize = o.MinSize + 64*1024
	}
	if o.DuplicateRate < 0 {
		o.DuplicateRate = 0
	}
	if o.DuplicateRate > 1 {
		o.DuplicateRate = 1
	}
}

// Generate writes opts.Files files under root, grouped DirFanout per
// subdirectory. Roughly DuplicateRate of them copy the content of an
// earlier, randomly chosen file; the rest get unique random content.
func Generate(root string, opts Options) (Stats, error) {
	opts.applyDefaults()
	rng := rand.New(rand.NewSource(opts.Seed))

	var stats Stats
	var originals [][]byte

	for i := 0; i < opts.Files; i++ {
		subdir := filepath.Join(root, fmt.Sprintf("dir%03d", i/opts.DirFanout))
		if err := os.MkdirAll(subdir, 0o755); err != nil {
			return stats, fmt.Errorf("create subdir: %w", err)
		}
		path := filepath.Join(subdir, fmt.Sprintf("file%05d.dat", i))

		var content []byte
		if len(originals) > 0 && rng.Float64() < opts.DuplicateRate {
			content = originals[rng.Intn(len(originals))]
			stats.DuplicatesCreated++
		} else {
			size := opts.MinSize
			if opts.MaxSize > opts.MinSize {
				size += rng.Int63n(opts.MaxSize - opts.MinSize + 1)
			}
			content = make([]byte, size)
			rng.Read(content)
			originals = append(originals, content)
		}

		if err := os.WriteFile(path, content, 0o644); err != nil {
			return stats, fmt.Errorf("write %q: %w", path, err)
		}
		stats.FilesCreated++
		stats.BytesWritten += int64(len(content))
	}

	return stats, nil
}
