package cmd

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avik1986/hierarchy-role-based-maker-checker/pkg/client"
)

var auditLogOpts client.ListAuditsOpts

// auditLogCmd represents the audit log command
var auditLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Retrieve and display audit log entries",
	Example: `  maker-checker audit log --request 0c7f...
  maker-checker audit log --by bob -n 10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}

		log.Debug().Msg("Fetching audit log...")
		audits, correlation, err := cli.ListAudits(cmd.Context(), auditLogOpts)
		if err != nil {
			return logError(err, correlation, "failed to retrieve audit log")
		}

		log.Info().Msgf("Retrieved %d audit entries", len(audits))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{
			"Time", "Action", "Actor", "Request", "Rule", "Result", "Error",
		})

		for _, e := range audits {
			status := greenCheck
			if !e.Success {
				status = redCross
			}
			if e.Status != "" {
				status += " " + string(e.Status)
			}

			actor := "(unknown)"
			if e.Actor != nil {
				actor = truncate(e.Actor.ID, 25)
			}

			t.AppendRow(table.Row{
				e.Time.Format(time.RFC3339),
				e.Action,
				actor,
				truncate(e.RequestID, 12),
				e.RuleID,
				status,
				truncate(e.Error, 60),
			})
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	auditCmd.AddCommand(auditLogCmd)

	auditLogCmd.Flags().UintVarP(&auditLogOpts.Limit, "limit", "n", 25, "Number of audit entries to retrieve")
	auditLogCmd.Flags().StringVar(&auditLogOpts.RequestID, "request", "", "Only entries of this approval request")
	auditLogCmd.Flags().StringVar(&auditLogOpts.RuleID, "rule", "", "Only entries of this rule")
	auditLogCmd.Flags().StringVar(&auditLogOpts.Actor, "by", "", "Only entries caused by this actor")
	auditLogCmd.Flags().StringVar(&auditLogOpts.CorrelationID, "correlation", "", "Only entries of this correlation id")
}
