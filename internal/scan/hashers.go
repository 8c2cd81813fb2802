package scan

import (
	"context"
	"sync"
)

// RunQuickHashers reads stat-only FileRecords from in, computes the quick
// digest of each, and sends the enriched record to out. numWorkers goroutines
// are spawned; out is closed when all are done. A record whose digest fails
// is reported and dropped — the rest of the stream continues.
func RunQuickHashers(ctx context.Context, numWorkers int, counters *Progress, in <-chan FileRecord, out chan<- FileRecord, report ErrorReporter) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case rec, ok := <-in:
					if !ok {
						return
					}
					digest, err := QuickDigest(rec.Path)
					if err != nil {
						report(rec.Path, "quick-hash", err)
						continue
					}
					rec.QuickHash = digest
					counters.QuickHashed.Add(1)
					read := rec.Size
					if read > QuickHashBytes {
						read = QuickHashBytes
					}
					counters.BytesHashed.Add(read)
					select {
					case out <- rec:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
}
