package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the teactl version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("teactl %s\n", Version)
	},
}
