package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and discard the stored session",
	Long:  `Purge the stored credential and clear the session. Never fails.`,
	Run: func(cmd *cobra.Command, args []string) {
		sessionMgr.Logout()
		fmt.Println("Logged out")
	},
}
