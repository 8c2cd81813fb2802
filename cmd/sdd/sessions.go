package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/johnhenry/super-dee-duper/internal/index"
	"github.com/johnhenry/super-dee-duper/internal/output"
)

var sessionsIndexPath string

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List the scan sessions recorded in an index file",
	RunE: func(cmd *cobra.Command, args []string) error {
		indexPath := sessionsIndexPath
		if indexPath == "" {
			indexPath = cfg.IndexPath
		}
		if indexPath == "" {
			return fmt.Errorf("--index is required")
		}

		store, err := index.Open(indexPath)
		if err != nil {
			return fmt.Errorf("open index: %w", err)
		}
		defer store.Close()

		sessions, err := store.ListScans(cmd.Context())
		if err != nil {
			return err
		}
		output.RenderSessions(os.Stdout, sessions)
		return nil
	},
}

func init() {
	sessionsCmd.Flags().StringVar(&sessionsIndexPath, "index", "", "scan index file to read")
}
