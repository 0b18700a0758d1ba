// Command dedupe-core mirrors an upstream document backend into a local
// SQLite store and finds near-duplicate documents within it. It is the
// interactive CLI wrapper around internal/sync and internal/analysis.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := &cobra.Command{
		Use:     "dedupe-core",
		Short:   "Sync and deduplicate documents from an upstream document backend",
		Version: version + " (" + commit + ")",
	}

	root.AddCommand(newSyncCmd())
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newServeStubCmd())

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}
