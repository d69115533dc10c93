package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var rulesEntityType string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List approval rules in match order",
	Long: `Lists the approval rules in the order they are matched. The first active
rule whose conditions hold for a change governs it.

Rules are read from the config file, or from a server if --server is set.`,
	Example: `  maker-checker rules -c config.yaml
  maker-checker rules --server http://localhost:8080 --actor root --role admin --entity-type Category`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var rules []core.Rule
		if f.IsRemote() {
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			var correlation string
			rules, correlation, err = cli.ListRules(cmd.Context(), rulesEntityType)
			if err != nil {
				return logError(err, correlation, "failed to list rules")
			}
		} else {
			rt, err := f.GetLocalRuntime(cmd.Context())
			if err != nil {
				return err
			}
			rules = rt.Catalog.ListRules(rulesEntityType)
		}

		log.Debug().Msgf("Retrieved %d rule(s)", len(rules))
		printRules(rules)
		return nil
	},
}

func printRules(rules []core.Rule) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "ID", "Entity Type", "Conditions", "Checkers", "Quorum", "State"})

	for i, r := range rules {
		conditions := make([]string, 0, len(r.Conditions)+1)
		for _, c := range r.Conditions {
			if c.Connector != "" {
				conditions = append(conditions, string(c.Connector)+" "+c.String())
			} else {
				conditions = append(conditions, c.String())
			}
		}
		if r.Expr != "" {
			conditions = append(conditions, "AND expr: "+truncate(r.Expr, 40))
		}
		if len(conditions) == 0 {
			conditions = append(conditions, faint("(always)"))
		}

		var checkers []string
		for _, role := range r.CheckerRoles {
			checkers = append(checkers, "role:"+role)
		}
		for _, user := range r.CheckerUsers {
			checkers = append(checkers, "user:"+user)
		}

		state := greenCheck + " active"
		switch {
		case r.Stale:
			state = color.YellowString("stale")
		case !r.Active:
			state = faint("inactive")
		}

		t.AppendRow(table.Row{
			i + 1,
			bold(r.ID),
			r.EntityType,
			strings.Join(conditions, "\n"),
			strings.Join(checkers, "\n"),
			r.Quorum,
			state,
		})
	}

	applyTableFormat(t)
	t.Render()

	for _, r := range rules {
		if r.Stale {
			fmt.Printf("%s rule '%s' is stale: %s\n", color.YellowString("!"), r.ID, r.StaleReason)
		}
	}
}

func init() {
	rootCmd.AddCommand(rulesCmd)

	rulesCmd.Flags().StringVarP(&rulesEntityType, "entity-type", "e", "", "Only list rules for this entity type")
	f.bindConfigFlag(rulesCmd.Flags())
}
