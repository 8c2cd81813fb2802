package scan_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/scan"
)

func write(t *testing.T, root string, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func groupPaths(groups []*scan.DuplicateGroup) [][]string {
	var out [][]string
	for _, g := range groups {
		var paths []string
		for _, f := range g.Files {
			paths = append(paths, f.Path)
		}
		sort.Strings(paths)
		out = append(out, paths)
	}
	return out
}

// Two files with the same content and one unique file: exactly one group of
// two, the unique file absent.
func TestScanFindsDuplicatePair(t *testing.T) {
	root := t.TempDir()
	a := write(t, root, "a.txt", []byte("hello"))
	b := write(t, root, "b.txt", []byte("hello"))
	write(t, root, "c.txt", []byte("world"))

	res, err := scan.Run(context.Background(), scan.Options{Root: root, Recursive: true})
	require.NoError(t, err)

	require.Len(t, res.Groups, 1)
	g := res.Groups[0]
	assert.Equal(t, int64(5), g.Size)
	assert.NotEmpty(t, g.FullHash)
	assert.ElementsMatch(t, []string{a, b}, []string{g.Files[0].Path, g.Files[1].Path})
}

func TestScanEmptyDirectory(t *testing.T) {
	res, err := scan.Run(context.Background(), scan.Options{Root: t.TempDir(), Recursive: true})
	require.NoError(t, err)
	assert.Empty(t, res.Groups)
}

func TestScanMissingRootFails(t *testing.T) {
	_, err := scan.Run(context.Background(), scan.Options{
		Root: filepath.Join(t.TempDir(), "missing"),
	})
	var scanErr *scan.ScanError
	require.ErrorAs(t, err, &scanErr)
}

// A duplicate hidden in a subdirectory is only found when recursing.
func TestScanRecursionDepth(t *testing.T) {
	root := t.TempDir()
	write(t, root, "top.txt", []byte("same-content"))
	write(t, root, "sub/copy.txt", []byte("same-content"))

	flat, err := scan.Run(context.Background(), scan.Options{Root: root, Recursive: false})
	require.NoError(t, err)
	assert.Empty(t, flat.Groups, "non-recursive scan must not see the subdirectory copy")

	deep, err := scan.Run(context.Background(), scan.Options{Root: root, Recursive: true})
	require.NoError(t, err)
	require.Len(t, deep.Groups, 1)
	assert.Len(t, deep.Groups[0].Files, 2)
}

// Two 5 MiB identical files: one group, both fully hashed, quick digests
// bounded to the prefix.
func TestScanLargeIdenticalFiles(t *testing.T) {
	root := t.TempDir()
	content := bytes.Repeat([]byte("abcdefgh"), 5*1024*1024/8)
	write(t, root, "big1.bin", content)
	write(t, root, "big2.bin", content)

	counters := &scan.Progress{}
	res, err := scan.Run(context.Background(), scan.Options{
		Root: root, Recursive: true, Counters: counters,
	})
	require.NoError(t, err)

	require.Len(t, res.Groups, 1)
	require.Len(t, res.Groups[0].Files, 2)
	assert.Equal(t, int64(len(content)), res.Groups[0].Size)
	assert.EqualValues(t, 2, counters.FullHashed.Load())
	// Quick hashing reads at most the 64 KiB prefix of each file; full
	// hashing then accounts for the rest.
	assert.EqualValues(t, int64(2*scan.QuickHashBytes)+2*int64(len(content)),
		counters.BytesHashed.Load())
}

func TestScanExcludePatterns(t *testing.T) {
	root := t.TempDir()
	write(t, root, "a.dat", []byte("payload"))
	write(t, root, "b.dat", []byte("payload"))
	write(t, root, "c.bak", []byte("payload"))

	res, err := scan.Run(context.Background(), scan.Options{
		Root: root, Recursive: true, ExcludePatterns: []string{"*.bak"},
	})
	require.NoError(t, err)

	require.Len(t, res.Groups, 1)
	assert.Len(t, res.Groups[0].Files, 2, "excluded file must not appear in any group")
	for _, f := range res.Groups[0].Files {
		assert.NotEqual(t, ".bak", filepath.Ext(f.Path))
	}
}

// Running twice over an unchanged tree yields identical group membership.
func TestScanIdempotent(t *testing.T) {
	root := t.TempDir()
	write(t, root, "x/1.bin", bytes.Repeat([]byte("A"), 2048))
	write(t, root, "y/2.bin", bytes.Repeat([]byte("A"), 2048))
	write(t, root, "z/3.bin", bytes.Repeat([]byte("B"), 2048))
	write(t, root, "z/4.bin", bytes.Repeat([]byte("B"), 2048))
	write(t, root, "solo.bin", bytes.Repeat([]byte("C"), 4096))

	first, err := scan.Run(context.Background(), scan.Options{Root: root, Recursive: true})
	require.NoError(t, err)
	second, err := scan.Run(context.Background(), scan.Options{Root: root, Recursive: true})
	require.NoError(t, err)

	assert.Equal(t, groupPaths(first.Groups), groupPaths(second.Groups))
}

func TestScanProgressPhases(t *testing.T) {
	root := t.TempDir()
	write(t, root, "p1", []byte("progress"))
	write(t, root, "p2", []byte("progress"))

	// Hash workers report concurrently, so the map needs a lock.
	var mu sync.Mutex
	seen := map[scan.Phase]bool{}
	res, err := scan.Run(context.Background(), scan.Options{
		Root: root, Recursive: true,
		Progress: func(files, groups int64, phase scan.Phase) {
			mu.Lock()
			seen[phase] = true
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Groups, 1)
	assert.True(t, seen[scan.PhaseScanning], "scanning phase never reported")
	assert.True(t, seen[scan.PhaseHashing], "hashing phase never reported")
}

// An index-backed scan persists records and group assignments; the store's
// group query returns the same membership and ordering as the in-memory
// result.
func TestScanWithIndexMatchesInMemory(t *testing.T) {
	root := t.TempDir()
	write(t, root, "big1", bytes.Repeat([]byte("L"), 4096))
	write(t, root, "big2", bytes.Repeat([]byte("L"), 4096))
	write(t, root, "small1", []byte("tiny"))
	write(t, root, "small2", []byte("tiny"))

	store, err := index.Open(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	defer store.Close()

	res, err := scan.Run(context.Background(), scan.Options{
		Root: root, Recursive: true, Store: store,
	})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	require.NotZero(t, res.SessionID)

	info, err := store.GetScanInfo(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.False(t, info.Incomplete(), "completed scan must record an end time")
	assert.EqualValues(t, 4, info.FilesScanned)
	assert.EqualValues(t, 2, info.GroupsFound)

	persisted, err := store.GetDuplicateGroups(context.Background(), res.SessionID)
	require.NoError(t, err)
	require.Len(t, persisted, 2)
	for i, g := range persisted {
		assert.Equal(t, res.Groups[i].FullHash, g.GroupID)
		assert.Equal(t, res.Groups[i].Size, g.Size)
		require.Len(t, g.Files, len(res.Groups[i].Files))
		for j, f := range g.Files {
			assert.Equal(t, res.Groups[i].Files[j].Path, f.Path)
		}
	}
}

// Resuming an incomplete session is additive: rows recorded before the
// interruption stay, and re-encountered paths get a second row. The
// reference behavior accumulates rather than de-duplicating; this test pins
// it deliberately.
func TestResumeAccumulatesRows(t *testing.T) {
	root := t.TempDir()
	a := write(t, root, "a.txt", []byte("resume-me"))
	write(t, root, "b.txt", []byte("resume-me"))

	store, err := index.Open(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()

	// Simulate a crashed first pass: a session with one file row and no end
	// time.
	sid, err := store.StartScan(ctx, root)
	require.NoError(t, err)
	quick, err := scan.QuickDigest(a)
	require.NoError(t, err)
	_, err = store.AddFile(ctx, sid, &scan.FileRecord{
		Path: a, Name: "a.txt", Size: 9, QuickHash: quick,
	})
	require.NoError(t, err)

	res, err := scan.Run(ctx, scan.Options{
		Root: root, Recursive: true, Store: store, Resume: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, sid, res.SessionID)

	// a.txt now has two rows in the same group: the stale one never got a
	// group assignment, so the reported group holds the fresh pair plus any
	// grouped stale rows — membership for path a.txt appears once per
	// *grouped* row.
	groups, err := store.GetDuplicateGroups(ctx, sid)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Len(t, groups[0].Files, 2)

	info, err := store.GetScanInfo(ctx, sid)
	require.NoError(t, err)
	assert.False(t, info.Incomplete())
}

func TestScanResumeWithoutIncompleteStartsFresh(t *testing.T) {
	root := t.TempDir()
	write(t, root, "only.txt", []byte("nothing to pair"))

	store, err := index.Open(filepath.Join(t.TempDir(), "scan.db"))
	require.NoError(t, err)
	defer store.Close()

	res, err := scan.Run(context.Background(), scan.Options{
		Root: root, Recursive: true, Store: store, Resume: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Resumed)
	assert.NotZero(t, res.SessionID)
}
