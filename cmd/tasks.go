package cmd

import (
	"github.com/spf13/cobra"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage background tasks",
	Long:  `List, trigger and inspect the background tasks (request expiry, stale rule reports) of the server.`,
}

func init() {
	rootCmd.AddCommand(tasksCmd)
}
