package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/output"
	"github.com/johnhenry/super-dee-duper/internal/scan"
)

func TestRenderGroupsEmpty(t *testing.T) {
	var buf bytes.Buffer
	output.RenderGroups(&buf, nil)
	if got := buf.String(); !strings.Contains(got, "No duplicate files found.") {
		t.Errorf("output = %q", got)
	}
}

func TestRenderGroupsTableAndSummary(t *testing.T) {
	groups := []*scan.DuplicateGroup{
		{
			FullHash: "aaa",
			Size:     2048,
			Files: []*scan.FileRecord{
				{Path: "/photos/one.jpg", Size: 2048},
				{Path: "/photos/two.jpg", Size: 2048},
				{Path: "/backup/one.jpg", Size: 2048},
			},
		},
		{
			FullHash: "bbb",
			Size:     1024,
			Files: []*scan.FileRecord{
				{Path: "/docs/a.txt", Size: 1024},
				{Path: "/docs/b.txt", Size: 1024},
			},
		},
	}

	var buf bytes.Buffer
	output.RenderGroups(&buf, groups)
	out := buf.String()

	for _, want := range []string{
		"GROUP", "SIZE", "FILES", "PATH",
		"/photos/one.jpg", "/photos/two.jpg", "/backup/one.jpg",
		"/docs/a.txt", "/docs/b.txt",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// 2*2048 + 1*1024 redundant bytes.
	if !strings.Contains(out, "2 duplicate group(s), 5 file(s), 5.0 KiB reclaimable") {
		t.Errorf("summary line wrong:\n%s", out)
	}

	// Largest group is listed first.
	if strings.Index(out, "/photos/one.jpg") > strings.Index(out, "/docs/a.txt") {
		t.Errorf("groups out of order:\n%s", out)
	}
}

func TestRenderSessionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	output.RenderSessions(&buf, nil)
	if got := buf.String(); !strings.Contains(got, "No scan sessions recorded.") {
		t.Errorf("output = %q", got)
	}
}

func TestRenderSessionsMarksIncomplete(t *testing.T) {
	now := time.Now()
	done := now.Add(-time.Hour)
	sessions := []index.ScanInfo{
		{ID: 2, BaseDirectory: "/data", StartedAt: now, FilesScanned: 10, GroupsFound: 1},
		{ID: 1, BaseDirectory: "/data", StartedAt: done, FinishedAt: &now, FilesScanned: 42, GroupsFound: 3},
	}

	var buf bytes.Buffer
	output.RenderSessions(&buf, sessions)
	out := buf.String()

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got:\n%s", out)
	}
	if !strings.Contains(lines[1], "incomplete") {
		t.Errorf("row for session 2 should be incomplete:\n%s", out)
	}
	if !strings.Contains(lines[2], "completed") {
		t.Errorf("row for session 1 should be completed:\n%s", out)
	}
}
