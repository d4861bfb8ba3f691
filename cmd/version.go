package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version string

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the program version",
	Run: func(cmd *cobra.Command, args []string) {
		if Version == "" {
			Version = "dev"
		}
		fmt.Printf("foiafeed %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
