package cmd

import (
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var attributesCmd = &cobra.Command{
	Use:     "attributes",
	Aliases: []string{"attrs"},
	Short:   "List the attribute catalog",
	Long: `Lists the attributes conditions may refer to, with their types and options.
Attributes are read from the config file, or from a server if --server is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var attrs []core.Attribute
		var referencedBy func(id string) []string

		if f.IsRemote() {
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			var correlation string
			attrs, correlation, err = cli.ListAttributes(cmd.Context())
			if err != nil {
				return logError(err, correlation, "failed to list attributes")
			}
		} else {
			rt, err := f.GetLocalRuntime(cmd.Context())
			if err != nil {
				return err
			}
			attrs = rt.Catalog.ListAttributes()
			referencedBy = rt.Catalog.RulesReferencing
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		header := table.Row{"ID", "Name", "Type", "Options", "Required"}
		if referencedBy != nil {
			header = append(header, "Used By")
		}
		t.AppendHeader(header)

		for _, a := range attrs {
			required := ""
			if a.Required {
				required = greenCheck
			}
			row := table.Row{bold(a.ID), a.Name, a.Type, strings.Join(a.Options, ", "), required}
			if referencedBy != nil {
				row = append(row, strings.Join(referencedBy(a.ID), ", "))
			}
			t.AppendRow(row)
		}

		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attributesCmd)
	f.bindConfigFlag(attributesCmd.Flags())
}
