package cmd

import (
	"github.com/fatih/color"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var tasksTriggerCmd = &cobra.Command{
	Use:   "trigger NAME",
	Short: "Run a background task now",
	Example: `  # expire overdue requests without waiting for the next sweep
  maker-checker tasks trigger expire-requests --actor root --role admin`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		if correlation, err := cli.TriggerTask(cmd.Context(), name); err != nil {
			return logError(err, correlation, "failed to trigger task")
		}

		log.Info().Msgf("%s triggered task '%s'.", greenCheck, bold(name))
		log.Info().Msgf("Run '%s' to see its log.", color.CyanString("maker-checker tasks logs "+name))
		return nil
	},
}

func init() {
	tasksCmd.AddCommand(tasksTriggerCmd)
}
