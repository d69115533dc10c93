package cmd

import (
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var tasksLogsRun int

var tasksLogsCmd = &cobra.Command{
	Use:   "logs NAME",
	Short: "Show the log of a background task",
	Example: `  # what did the last expiry sweeps do?
  maker-checker tasks logs expire-requests --server http://localhost:8080 --actor root --role admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		logs, correlation, err := cli.GetTaskLogs(cmd.Context(), args[0])
		if err != nil {
			return logError(err, correlation, "failed to get task logs")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Time", "Run", "Level", "Message"})
		for _, entry := range logs {
			if tasksLogsRun > 0 && entry.Run != tasksLogsRun {
				continue
			}
			t.AppendRow(table.Row{
				faint(entry.Time.Local().Format("15:04:05")),
				entry.Run,
				levelString(entry.Level),
				entry.Message,
			})
		}
		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func levelString(level string) string {
	switch level {
	case "info":
		return color.GreenString("inf")
	case "warn":
		return color.YellowString("wrn")
	case "error":
		return color.RedString("err")
	}
	return level
}

func init() {
	tasksLogsCmd.Flags().IntVar(&tasksLogsRun, "run", 0, "Only show the log of this run number")
	tasksCmd.AddCommand(tasksLogsCmd)
}
