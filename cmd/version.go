package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/spigell/unimatch/internal/scoring"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("%s version: %s (scoring tables v%d)\n", app, version, scoring.TablesVersion)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
