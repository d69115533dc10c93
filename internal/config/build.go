package config

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/approval"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/audit"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/directory"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/engine"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/store"
)

// Runtime is the wired engine built from a configuration.
type Runtime struct {
	Engines   *engine.Manager
	Catalog   *store.Catalog
	Requests  *store.InMemoryRequestStore
	Directory *directory.Static
	Auditor   core.Auditor
	Approvals *approval.Service
}

// BuildOptions are the collaborators supplied by the surrounding application.
type BuildOptions struct {
	// Committer receives approved changes. Defaults to a committer that only logs.
	Committer core.Committer
	// References is consulted before attributes and rules are deleted.
	References core.ReferenceChecker
	// Auditor overrides the auditor from the audit block.
	Auditor core.Auditor
}

// LogCommitter logs approved changes without applying them anywhere.
var LogCommitter = core.CommitFunc(func(ctx context.Context, req *core.ApprovalRequest) error {
	log.Ctx(ctx).Info().
		Str("request_id", req.ID).
		Str("entity_type", req.EntityType).
		Str("action", string(req.Action)).
		Str("entity_id", req.EntityID).
		Msg("approved change ready to be applied")
	return nil
})

// Build populates the stores, the directory and the approval service from the configuration.
// Attributes and rules are created in file order, so rule order in the file is match order.
func (c *Config) Build(ctx context.Context, opts BuildOptions) (*Runtime, error) {
	auditor := opts.Auditor
	if auditor == nil {
		var err error
		if auditor, err = c.newAuditor(); err != nil {
			return nil, err
		}
	}

	users, err := directory.NewStatic(c.Users...)
	if err != nil {
		return nil, fmt.Errorf("building directory: %w", err)
	}

	engines := engine.NewManager(nil)
	catalogOpts := []store.Option{store.WithAuditor(auditor)}
	if len(c.EntityTypes) > 0 {
		catalogOpts = append(catalogOpts, store.WithEntityTypes(c.EntityTypes...))
	}
	if opts.References != nil {
		catalogOpts = append(catalogOpts, store.WithReferenceChecker(opts.References))
	}
	catalog := store.NewCatalog(engines, catalogOpts...)

	ctx = core.WithActor(ctx, core.SystemActor)
	for _, a := range c.Attributes {
		if _, err := catalog.CreateAttribute(ctx, a); err != nil {
			return nil, fmt.Errorf("loading attribute '%s': %w", a.ID, err)
		}
	}
	for _, r := range c.Rules {
		if _, err := catalog.CreateRule(ctx, r); err != nil {
			return nil, fmt.Errorf("loading rule '%s': %w", r.ID, err)
		}
	}

	committer := opts.Committer
	if committer == nil {
		committer = LogCommitter
	}
	requests := store.NewInMemoryRequestStore()
	svcOpts := []approval.Option{
		approval.WithDirectory(users),
		approval.WithCommitter(committer),
		approval.WithAuditor(auditor),
	}
	if c.Policy.RequireApproval {
		svcOpts = append(svcOpts, approval.WithFallbackRule(c.Policy.Fallback.Rule()))
	}
	if c.Policy.RequestTTL > 0 {
		svcOpts = append(svcOpts, approval.WithRequestTTL(c.Policy.RequestTTL))
	}

	log.Debug().
		Int("attributes", len(c.Attributes)).
		Int("rules", len(c.Rules)).
		Int("users", len(c.Users)).
		Msg("configuration loaded")

	return &Runtime{
		Engines:   engines,
		Catalog:   catalog,
		Requests:  requests,
		Directory: users,
		Auditor:   auditor,
		Approvals: approval.NewService(engines, requests, svcOpts...),
	}, nil
}

func (c *Config) newAuditor() (core.Auditor, error) {
	if !c.Audit.Enabled {
		return audit.NewNoopAuditor(), nil
	}
	auditor, err := audit.New(c.Audit.Type, c.Audit.Options)
	if err != nil {
		return nil, fmt.Errorf("creating auditor: %w", err)
	}
	return auditor, nil
}
