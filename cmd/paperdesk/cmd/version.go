package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the build; the default marks a source build.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the paperdesk version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("paperdesk %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
