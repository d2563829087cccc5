package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Commit and Date are set during build
	Commit = "unknown"
	Date   = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "waypick %s\ncommit: %s\nbuilt: %s\n", Version, Commit, Date)
		return err
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
