package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/johnhenry/super-dee-duper/internal/gen"
)

var (
	genFiles   int
	genFanout  int
	genMinSize int64
	genMaxSize int64
	genDupRate float64
	genSeed    int64
)

var generateCmd = &cobra.Command{
	Use:   "generate <path>",
	Short: "Generate a synthetic directory tree with duplicates for testing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := gen.Generate(args[0], gen.Options{
			Files:         genFiles,
			DirFanout:     genFanout,
			MinSize:       genMinSize,
			MaxSize:       genMaxSize,
			DuplicateRate: genDupRate,
			Seed:          genSeed,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created %d files (%d duplicates, %s) under %s\n",
			stats.FilesCreated, stats.DuplicatesCreated,
			humanize.IBytes(uint64(stats.BytesWritten)), args[0])
		return nil
	},
}

func init() {
	generateCmd.Flags().IntVar(&genFiles, "files", 100, "number of files to create")
	generateCmd.Flags().IntVar(&genFanout, "fanout", 50, "files per subdirectory")
	generateCmd.Flags().Int64Var(&genMinSize, "min-size", 256, "minimum file size in bytes")
	generateCmd.Flags().Int64Var(&genMaxSize, "max-size", 64*1024, "maximum file size in bytes")
	generateCmd.Flags().Float64Var(&genDupRate, "dup-rate", 0.1, "fraction of files written as duplicates")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 1, "random seed (reproducible trees)")
}
