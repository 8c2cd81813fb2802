// Package output renders scan results for the console.
package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/scan"
)

// RenderGroups writes duplicate groups as an aligned table, largest first
// (the order the classifier already guarantees), followed by a summary line
// with the total reclaimable space.
func RenderGroups(w io.Writer, groups []*scan.DuplicateGroup) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No duplicate files found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tSIZE\tFILES\tPATH")

	var reclaimable int64
	var dupFiles int
	for i, g := range groups {
		reclaimable += g.ReclaimableBytes()
		dupFiles += len(g.Files)
		for j, f := range g.Files {
			if j == 0 {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n",
					i+1, humanize.IBytes(uint64(g.Size)), len(g.Files), f.Path)
			} else {
				fmt.Fprintf(tw, "\t\t\t%s\n", f.Path)
			}
		}
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d duplicate group(s), %d file(s), %s reclaimable\n",
		len(groups), dupFiles, humanize.IBytes(uint64(reclaimable)))
}

// RenderSessions writes the index's session list as an aligned table,
// marking sessions that never recorded an end time.
func RenderSessions(w io.Writer, sessions []index.ScanInfo) {
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No scan sessions recorded.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tBASE DIRECTORY\tSTARTED\tSTATUS\tFILES\tGROUPS")
	for _, s := range sessions {
		status := "completed"
		if s.Incomplete() {
			status = "incomplete"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\n",
			s.ID, s.BaseDirectory, humanize.Time(s.StartedAt), status,
			s.FilesScanned, s.GroupsFound)
	}
	tw.Flush()
}
