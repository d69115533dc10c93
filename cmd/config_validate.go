package cmd

import (
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/directory"
)

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file",
	Long: `Parses the config file and validates every attribute, rule and user,
including the operator/attribute type compatibility of all rule conditions.
On success, prints who holds which role and which rules a role may approve.`,
	Example: `  maker-checker config validate -c config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := f.LoadConfig()
		if err != nil {
			log.Error().Err(err).Msg("Configuration is invalid.")
			return err
		}
		users, err := directory.NewStatic(cfg.Users...)
		if err != nil {
			return err
		}

		members := map[string][]string{}
		for _, u := range users.Users() {
			members[u.Role] = append(members[u.Role], u.ID)
		}
		approves := map[string][]string{}
		for _, r := range cfg.Rules {
			for _, role := range r.CheckerRoles {
				approves[role] = append(approves[role], r.ID)
				if _, ok := members[role]; !ok {
					log.Warn().Msgf("Rule '%s' names checker role '%s' which no user holds.", r.ID, role)
				}
			}
		}

		roles := make([]string, 0, len(members))
		for role := range members {
			roles = append(roles, role)
		}
		sort.Strings(roles)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Role", "Users", "Approves Rules"})
		for _, role := range roles {
			t.AppendRow(table.Row{
				bold(role),
				strings.Join(members[role], ", "),
				faint(strings.Join(approves[role], ", ")),
			})
		}
		applyTableFormat(t)
		t.Render()

		log.Info().
			Int("attributes", len(cfg.Attributes)).
			Int("rules", len(cfg.Rules)).
			Int("users", len(cfg.Users)).
			Msg("Configuration is valid.")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	f.bindConfigFlag(configValidateCmd.Flags())
}
