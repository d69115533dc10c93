package cmd

import (
	"github.com/spf13/cobra"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Administrative audit commands",
	Long:  `View the audit trail of submissions, decisions and configuration changes on the server.`,
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
