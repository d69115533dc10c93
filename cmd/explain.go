package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var (
	explainEntityType  string
	explainAction      string
	explainPayloadPath string
	explainMakerRole   string
	explainRuleFilter  string
)

var explainCmd = &cobra.Command{
	Use:     "explain",
	Aliases: []string{"why"},
	Short:   "Explain which rule governs a change, and why",
	Long: `Evaluates a proposed change against every rule and prints a detailed trace:
which rules were skipped, which conditions held and which failed.
Nothing is submitted.

The payload file is a YAML (or JSON) map of attribute ids to values.
Rules are read from the config file, or from a server if --server is set.`,
	Example: `  # Which rule would govern this category change?
  maker-checker explain -c config.yaml -e Category -p payload.yaml

  # Why is the 'high-value' rule not matching?
  maker-checker explain -c config.yaml -e Category -p payload.yaml --rule high-value`,
	RunE: func(cmd *cobra.Command, args []string) error {
		payload, err := readPayloadFile(explainPayloadPath)
		if err != nil {
			return err
		}

		maker := core.Actor{ID: f.ActorID, Role: f.ActorRole}
		if explainMakerRole != "" {
			maker.Role = explainMakerRole
		}

		var trace *core.EvaluationTrace
		if f.IsRemote() {
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			req := api.ExplainPayload{
				EntityType: explainEntityType,
				Action:     core.Action(explainAction),
				Payload:    payload,
			}
			if explainMakerRole != "" {
				req.Maker = &maker
			}
			var correlation string
			trace, correlation, err = cli.ExplainTrace(cmd.Context(), req)
			if err != nil {
				return logError(err, correlation, "failed to explain change")
			}
		} else {
			rt, err := f.GetLocalRuntime(cmd.Context())
			if err != nil {
				return err
			}
			local := rt.Engines.Engine().Trace(core.MatchInput{
				EntityType: explainEntityType,
				Action:     core.Action(explainAction),
				Payload:    payload,
				Maker:      maker,
			})
			trace = &local
		}

		printTrace(trace)
		return nil
	},
}

// readPayloadFile reads a YAML (or JSON) map of attribute ids to values.
func readPayloadFile(path string) (core.Payload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading payload file: %w", err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing payload file: %w", err)
	}
	payload, err := core.PayloadOf(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing payload file '%s': %w", path, err)
	}
	return payload, nil
}

func printTrace(trace *core.EvaluationTrace) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Printf("\n%s for %s", bold("Evaluation Trace"), bold(trace.EntityType))
	if trace.Action != "" {
		fmt.Printf(" (%s)", trace.Action)
	}
	fmt.Println()
	if trace.CorrelationID != "" {
		fmt.Println(faint("correlation: " + trace.CorrelationID))
	}

	fmt.Println(faint("---------------------------------------------------"))

	for _, res := range trace.RuleResults {
		if explainRuleFilter != "" && res.RuleID != explainRuleFilter && res.RuleName != explainRuleFilter {
			continue
		}

		icon := red("✖")
		switch {
		case res.Skipped != "":
			icon = faint("-")
		case res.Matched:
			icon = green("✔")
		}

		fmt.Printf("%s Rule: %s %s\n", icon, bold(res.RuleName), faint("("+res.RuleID+")"))
		if res.Description != "" {
			fmt.Printf("  %s\n", faint(res.Description))
		}
		if res.Skipped != "" {
			fmt.Printf("    %s\n\n", faint("skipped: "+res.Skipped))
			continue
		}

		for _, cond := range res.ConditionResults {
			condIcon := red("✖")
			if cond.Matched {
				condIcon = green("✔")
			}

			expression := cond.Expression
			if cond.Connector != "" {
				expression = cyan(string(cond.Connector)) + " " + expression
			}
			fmt.Printf("    %s %s\n", condIcon, expression)

			if cond.Reason != "" {
				reason := cond.Reason
				if cond.Matched {
					reason = faint(reason)
				} else {
					reason = yellow(reason)
				}
				fmt.Printf("%s↳ %s\n", strings.Repeat(" ", 6), reason)
			}
		}

		fmt.Println()
	}

	fmt.Println("---------------------------------------------------")
	if trace.Matched {
		fmt.Printf("Decision: %s by rule '%s'\n", bold(yellow("approval required")), bold(trace.MatchedRule))
	} else {
		fmt.Printf("Decision: %s\n", bold(green("no rule matches, change is committed directly")))
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(explainCmd)

	explainCmd.Flags().StringVarP(&explainEntityType, "entity-type", "e", "", "Entity type of the change")
	explainCmd.Flags().StringVarP(&explainPayloadPath, "payload", "p", "", "YAML file with the proposed attribute values")
	explainCmd.Flags().StringVarP(&explainAction, "action", "a", string(core.ActionCreate), "Action of the change (create, update, delete)")
	explainCmd.Flags().StringVar(&explainMakerRole, "maker-role", "", "Role of the simulated maker (defaults to --role)")
	explainCmd.Flags().StringVarP(&explainRuleFilter, "rule", "r", "", "Filter output to a specific rule id or name (optional)")
	f.bindConfigFlag(explainCmd.Flags())

	_ = explainCmd.MarkFlagRequired("entity-type")
	_ = explainCmd.MarkFlagRequired("payload")
}
