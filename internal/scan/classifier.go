package scan

import (
	"context"
	"sort"
	"sync"
)

// ClassifyOptions tunes a single Classify call.
type ClassifyOptions struct {
	// FullHashers is the number of goroutines computing full digests.
	FullHashers int
	// Report receives per-file hash failures. Must be non-nil.
	Report ErrorReporter
	// OnFullHash, when set, is invoked after each full digest completes.
	OnFullHash func(rec *FileRecord)
}

// Classify partitions records into groups of byte-identical files using the
// three-stage funnel: bucket by size, sub-bucket by quick digest, then
// promote only sub-buckets of two or more to a full digest. The full digest
// is computed nowhere else, which is the entire point of the funnel. A file
// no larger than QuickHashBytes reuses its quick digest as the full digest —
// both cover the same bytes.
//
// Records that fail full hashing are reported and dropped, so no group ever
// carries an unresolved digest. Returned groups all have two or more members,
// ordered by descending size with ties broken by discovery order.
func Classify(ctx context.Context, records []*FileRecord, opts ClassifyOptions) []*DuplicateGroup {
	// Stage 1: bucket by exact size. Singleton buckets cannot hold
	// duplicates and are dropped without further work.
	bySize := make(map[int64][]*FileRecord, len(records))
	for _, rec := range records {
		bySize[rec.Size] = append(bySize[rec.Size], rec)
	}

	// Stage 2: sub-bucket survivors by quick digest.
	var candidates []*FileRecord
	for _, bucket := range bySize {
		if len(bucket) < 2 {
			continue
		}
		byQuick := make(map[string][]*FileRecord, len(bucket))
		for _, rec := range bucket {
			byQuick[rec.QuickHash] = append(byQuick[rec.QuickHash], rec)
		}
		for _, sub := range byQuick {
			if len(sub) >= 2 {
				candidates = append(candidates, sub...)
			}
		}
	}

	// Stage 3: full digest for the remaining candidates only.
	fullHashRecords(ctx, candidates, opts)
	if ctx.Err() != nil {
		return nil
	}

	byFull := make(map[string][]*FileRecord)
	for _, rec := range candidates {
		if rec.FullHash == "" {
			continue // hash failed; already reported
		}
		byFull[rec.FullHash] = append(byFull[rec.FullHash], rec)
	}

	var groups []*DuplicateGroup
	for hash, members := range byFull {
		if len(members) < 2 {
			continue
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Seq < members[j].Seq })
		groups = append(groups, &DuplicateGroup{
			FullHash: hash,
			Size:     members[0].Size,
			Files:    members,
		})
	}

	// Largest first; ties in discovery order of the earliest member.
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Size != groups[j].Size {
			return groups[i].Size > groups[j].Size
		}
		return groups[i].Files[0].Seq < groups[j].Files[0].Seq
	})
	return groups
}

// fullHashRecords fills in FullHash for every candidate, using a worker pool
// of opts.FullHashers goroutines. Small files reuse the quick digest without
// touching the disk again.
func fullHashRecords(ctx context.Context, candidates []*FileRecord, opts ClassifyOptions) {
	numWorkers := opts.FullHashers
	if numWorkers < 1 {
		numWorkers = 1
	}

	work := make(chan *FileRecord)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for rec := range work {
				if rec.Size <= QuickHashBytes {
					rec.FullHash = rec.QuickHash
				} else {
					digest, err := FullDigest(rec.Path)
					if err != nil {
						opts.Report(rec.Path, "full-hash", err)
						continue
					}
					rec.FullHash = digest
				}
				if opts.OnFullHash != nil {
					opts.OnFullHash(rec)
				}
			}
		}()
	}

	for _, rec := range candidates {
		select {
		case work <- rec:
		case <-ctx.Done():
			close(work)
			wg.Wait()
			return
		}
	}
	close(work)
	wg.Wait()
}
