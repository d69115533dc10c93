package client

import (
	"context"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/api"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// ListRules returns the rules in match order. An empty entity type lists all rules.
func (c *Client) ListRules(ctx context.Context, entityType string) ([]core.Rule, string, error) {
	ub := c.url().setPath(api.RulesRoute)
	if entityType != "" {
		ub = ub.addQueryParam("entity_type", entityType)
	}
	var rules []core.Rule
	correlation, err := c.get(ctx, ub.build(), &rules)
	return rules, correlation, err
}

func (c *Client) ListAttributes(ctx context.Context) ([]core.Attribute, string, error) {
	var attrs []core.Attribute
	correlation, err := c.get(ctx, c.url().
		setPath(api.AttributesRoute).
		build(), &attrs)
	return attrs, correlation, err
}
