package client

import (
	"context"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/approval"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// Submit proposes a change as the client's actor.
func (c *Client) Submit(ctx context.Context, payload api.SubmitPayload) (*approval.SubmitResult, string, error) {
	var res approval.SubmitResult
	correlation, err := c.post(ctx, c.url().
		setPath(api.RequestsRoute).
		build(), payload, &res)
	return &res, correlation, err
}

type ListRequestsOpts struct {
	Status     core.Status
	EntityType string
	Maker      string
	Rule       string
	// Awaiting lists only the requests the client's actor may still approve.
	Awaiting bool
}

func (c *Client) ListRequests(ctx context.Context, opts ListRequestsOpts) ([]api.RequestView, string, error) {
	ub := c.url().setPath(api.RequestsRoute)
	if opts.Status != "" {
		ub = ub.addQueryParam("status", opts.Status)
	}
	if opts.EntityType != "" {
		ub = ub.addQueryParam("entity_type", opts.EntityType)
	}
	if opts.Maker != "" {
		ub = ub.addQueryParam("maker", opts.Maker)
	}
	if opts.Rule != "" {
		ub = ub.addQueryParam("rule", opts.Rule)
	}
	if opts.Awaiting {
		ub = ub.addQueryParam("awaiting", true)
	}
	var res []api.RequestView
	correlation, err := c.get(ctx, ub.build(), &res)
	return res, correlation, err
}

func (c *Client) GetRequest(ctx context.Context, id string) (*api.RequestView, string, error) {
	var res api.RequestView
	correlation, err := c.get(ctx, c.url().
		setPath(api.RequestRoute).
		setPathParam("id", id).
		build(), &res)
	return &res, correlation, err
}

// Decide records an approve, reject or comment decision of the client's actor.
func (c *Client) Decide(ctx context.Context, id string, decision core.Decision, comment string) (*api.RequestView, string, error) {
	var res api.RequestView
	correlation, err := c.post(ctx, c.url().
		setPath(api.DecideRequestRoute).
		setPathParam("id", id).
		build(), api.DecidePayload{Decision: decision, Comment: comment}, &res)
	return &res, correlation, err
}

func (c *Client) Withdraw(ctx context.Context, id, comment string) (*api.RequestView, string, error) {
	var res api.RequestView
	correlation, err := c.post(ctx, c.url().
		setPath(api.WithdrawRequestRoute).
		setPathParam("id", id).
		build(), api.WithdrawPayload{Comment: comment}, &res)
	return &res, correlation, err
}

func (c *Client) Stats(ctx context.Context) (*approval.Stats, string, error) {
	var stats approval.Stats
	correlation, err := c.get(ctx, c.url().
		setPath(api.StatsRoute).
		build(), &stats)
	return &stats, correlation, err
}
