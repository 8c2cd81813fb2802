package main

import "os"

// Injected at build time via -ldflags; defaults to "dev".
var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
