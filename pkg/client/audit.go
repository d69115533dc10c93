package client

import (
	"context"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

type ListAuditsOpts struct {
	Limit uint

	CorrelationID string
	RequestID     string
	RuleID        string
	Actor         string
}

// ListAudits retrieves the latest audit entries from the server, limited to the specified number.
func (c *Client) ListAudits(ctx context.Context, opts ListAuditsOpts) ([]core.AuditEntry, string, error) {
	ub := c.url().setPath(api.ListAuditsRoute)
	if opts.Limit > 0 {
		ub = ub.addQueryParam("limit", opts.Limit)
	}
	if opts.CorrelationID != "" {
		ub = ub.addQueryParam("correlation_id", opts.CorrelationID)
	}
	if opts.RequestID != "" {
		ub = ub.addQueryParam("request_id", opts.RequestID)
	}
	if opts.RuleID != "" {
		ub = ub.addQueryParam("rule_id", opts.RuleID)
	}
	if opts.Actor != "" {
		ub = ub.addQueryParam("actor", opts.Actor)
	}
	var resp []core.AuditEntry
	correlation, err := c.get(ctx, ub.build(), &resp)
	return resp, correlation, err
}

// ExplainTrace asks the server how its rules evaluate against a change.
func (c *Client) ExplainTrace(ctx context.Context, payload api.ExplainPayload) (*core.EvaluationTrace, string, error) {
	var trace core.EvaluationTrace
	correlation, err := c.post(ctx, c.url().
		setPath(api.ExplainRoute).
		build(), payload, &trace)
	return &trace, correlation, err
}
