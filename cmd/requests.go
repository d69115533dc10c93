package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/pkg/client"
)

var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "Submit and review approval requests on a server",
	Long: `Submit changes, list pending requests and record decisions on a
maker-checker server. Commands act as the identity given by --actor and --role.`,
}

var requestsListOpts client.ListRequestsOpts

var requestsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List approval requests",
	Example: `  # what is waiting for me?
  maker-checker requests list --actor bob --role checker --awaiting`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		list, correlation, err := cli.ListRequests(cmd.Context(), requestsListOpts)
		if err != nil {
			return logError(err, correlation, "failed to list requests")
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"ID", "Entity", "Action", "Maker", "Rule", "Status", "Submitted"})
		for _, req := range list {
			entity := req.EntityType
			if req.EntityID != "" {
				entity += "/" + req.EntityID
			}
			t.AppendRow(table.Row{
				bold(req.ID),
				entity,
				req.Action,
				req.Maker.ID,
				req.RuleID,
				statusString(req.Status),
				req.SubmittedAt.Local().Format(time.DateTime),
			})
		}
		applyTableFormat(t)
		t.Render()
		return nil
	},
}

var requestsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show an approval request with its changes and decision log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		req, correlation, err := cli.GetRequest(cmd.Context(), args[0])
		if err != nil {
			return logError(err, correlation, "failed to get request")
		}
		printRequest(req)
		return nil
	},
}

var (
	submitEntityType string
	submitEntityID   string
	submitAction     string
	submitPayload    string
	submitPrevious   string
)

var requestsSubmitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Propose a change",
	Example: `  maker-checker requests submit --actor jane --role maker -e Category -p payload.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		payload, err := readPayloadFile(submitPayload)
		if err != nil {
			return err
		}
		var previous core.Payload
		if submitPrevious != "" {
			if previous, err = readPayloadFile(submitPrevious); err != nil {
				return err
			}
		}

		res, correlation, err := cli.Submit(cmd.Context(), api.SubmitPayload{
			EntityType: submitEntityType,
			Action:     core.Action(submitAction),
			EntityID:   submitEntityID,
			Payload:    payload,
			Previous:   previous,
		})
		if err != nil {
			return logError(err, correlation, "failed to submit change")
		}
		if res.AutoCommit {
			log.Info().Msgf("%s no rule governs this change, it can be applied directly.", greenCheck)
			return nil
		}
		log.Info().Msgf("Approval request %s created, governed by rule '%s'.",
			bold(res.Request.ID), res.Request.RuleName)
		return nil
	},
}

func decideCmd(use, short string, decision core.Decision) *cobra.Command {
	c := &cobra.Command{
		Use:   use + " ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			comment, _ := cmd.Flags().GetString("comment")
			cli, err := f.GetClient()
			if err != nil {
				return err
			}
			req, correlation, err := cli.Decide(cmd.Context(), args[0], decision, comment)
			if err != nil {
				return logError(err, correlation, "failed to record decision")
			}
			log.Info().Msgf("%s recorded %s on %s, request is %s.",
				greenCheck, decision, bold(req.ID), statusString(req.Status))
			return nil
		},
	}
	c.Flags().StringP("comment", "m", "", "Comment for the decision log")
	if decision != core.DecisionApprove {
		_ = c.MarkFlagRequired("comment")
	}
	return c
}

var requestsWithdrawCmd = &cobra.Command{
	Use:   "withdraw ID",
	Short: "Withdraw a request you submitted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		comment, _ := cmd.Flags().GetString("comment")
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		req, correlation, err := cli.Withdraw(cmd.Context(), args[0], comment)
		if err != nil {
			return logError(err, correlation, "failed to withdraw request")
		}
		log.Info().Msgf("%s request %s withdrawn.", greenCheck, bold(req.ID))
		return nil
	},
}

var requestsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count requests per status",
	RunE: func(cmd *cobra.Command, args []string) error {
		cli, err := f.GetClient()
		if err != nil {
			return err
		}
		stats, correlation, err := cli.Stats(cmd.Context())
		if err != nil {
			return logError(err, correlation, "failed to get stats")
		}
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Pending", "Approved", "Rejected", "Withdrawn", "Total"})
		t.AppendRow(table.Row{stats.Pending, stats.Approved, stats.Rejected, stats.Withdrawn, stats.Total})
		applyTableFormat(t)
		t.Render()
		return nil
	},
}

func statusString(s core.Status) string {
	switch s {
	case core.StatusApproved:
		return color.GreenString(string(s))
	case core.StatusRejected:
		return color.RedString(string(s))
	case core.StatusPending:
		return color.YellowString(string(s))
	default:
		return faint(string(s))
	}
}

func printRequest(req *api.RequestView) {
	printKV := func(key string, val any) {
		fmt.Printf("  %-24s %v\n", faint(key)+":", val)
	}

	fmt.Println(bold("\n── Approval Request ──"))
	printKV("ID", req.ID)
	printKV("Status", statusString(req.Status))
	printKV("Entity", req.EntityType+" "+req.EntityID)
	printKV("Action", req.Action)
	printKV("Maker", fmt.Sprintf("%s (%s)", req.Maker.ID, req.Maker.Role))
	printKV("Submitted", req.SubmittedAt.Local().Format(time.RFC1123))
	if req.ExpiresAt != nil {
		printKV("Expires", req.ExpiresAt.Local().Format(time.RFC1123))
	}
	if req.Reason != "" {
		printKV("Reason", req.Reason)
	}

	fmt.Println(bold("\n── Rule & Checkers ──"))
	printKV("Rule", fmt.Sprintf("%s (%s)", req.RuleName, req.RuleID))
	printKV("Quorum", req.Checkers.Quorum)
	printKV("Roles", strings.Join(req.Checkers.Roles, ", "))
	printKV("Users", strings.Join(req.Checkers.Users, ", "))
	if len(req.Outstanding) > 0 {
		printKV("Outstanding", strings.Join(req.Outstanding, ", "))
	}

	fmt.Println(bold("\n── Changes ──"))
	if len(req.Changes) == 0 {
		fmt.Printf("  %s\n", faint("(none)"))
	}
	for _, c := range req.Changes {
		from, to := faint("-"), faint("-")
		if c.From != nil {
			from = c.From.String()
		}
		if c.To != nil {
			to = c.To.String()
		}
		fmt.Printf("  %-24s %s → %s\n", c.Attribute, from, to)
	}

	fmt.Println(bold("\n── Decisions ──"))
	if len(req.Decisions) == 0 {
		fmt.Printf("  %s\n", faint("(none)"))
	}
	for _, d := range req.Decisions {
		fmt.Printf("  %s  %-10s %-12s %s\n",
			d.At.Local().Format(time.DateTime), d.Decision, d.Actor.ID, d.Comment)
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(requestsCmd)

	requestsListCmd.Flags().StringVar((*string)(&requestsListOpts.Status), "status", "", "Only requests in this status")
	requestsListCmd.Flags().StringVarP(&requestsListOpts.EntityType, "entity-type", "e", "", "Only requests for this entity type")
	requestsListCmd.Flags().StringVar(&requestsListOpts.Maker, "maker", "", "Only requests of this maker")
	requestsListCmd.Flags().StringVar(&requestsListOpts.Rule, "rule", "", "Only requests governed by this rule")
	requestsListCmd.Flags().BoolVar(&requestsListOpts.Awaiting, "awaiting", false, "Only requests you may still approve")

	requestsSubmitCmd.Flags().StringVarP(&submitEntityType, "entity-type", "e", "", "Entity type of the change")
	requestsSubmitCmd.Flags().StringVar(&submitEntityID, "entity-id", "", "Entity id, required for updates and deletes")
	requestsSubmitCmd.Flags().StringVarP(&submitAction, "action", "a", string(core.ActionCreate), "Action (create, update, delete)")
	requestsSubmitCmd.Flags().StringVarP(&submitPayload, "payload", "p", "", "YAML file with the proposed attribute values")
	requestsSubmitCmd.Flags().StringVar(&submitPrevious, "previous", "", "YAML file with the current attribute values")
	_ = requestsSubmitCmd.MarkFlagRequired("entity-type")
	_ = requestsSubmitCmd.MarkFlagRequired("payload")

	requestsWithdrawCmd.Flags().StringP("comment", "m", "", "Comment for the decision log")

	requestsCmd.AddCommand(
		requestsListCmd,
		requestsShowCmd,
		requestsSubmitCmd,
		decideCmd("approve", "Approve a request", core.DecisionApprove),
		decideCmd("reject", "Reject a request, a comment is required", core.DecisionReject),
		decideCmd("comment", "Add a comment to a request", core.DecisionComment),
		requestsWithdrawCmd,
		requestsStatsCmd,
	)
}
