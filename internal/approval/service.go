package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/engine"
)

// ExpiredReason is recorded on requests rejected by ExpireOverdue.
const ExpiredReason = "expired"

// Service is the approval state machine. It owns the lifecycle of every
// approval request; all transitions of one request are serialized.
type Service struct {
	engines   *engine.Manager
	requests  core.RequestStore
	directory core.Directory
	committer core.Committer
	auditor   core.Auditor

	// fallback binds changes no rule matches when approval is always required
	fallback *core.Rule
	ttl      time.Duration

	now   func() time.Time
	newID func() string

	locks sync.Map // request id -> *sync.Mutex
}

type Option func(*Service)

func WithDirectory(d core.Directory) Option {
	return func(s *Service) {
		s.directory = d
	}
}

// WithCommitter sets the callback invoked once a request reaches approved.
func WithCommitter(c core.Committer) Option {
	return func(s *Service) {
		s.committer = c
	}
}

func WithAuditor(a core.Auditor) Option {
	return func(s *Service) {
		s.auditor = a
	}
}

// WithFallbackRule makes every change need approval: changes that match no
// rule are bound to the given rule instead of being auto-committed.
func WithFallbackRule(rule core.Rule) Option {
	return func(s *Service) {
		r := rule.Clone()
		s.fallback = &r
	}
}

// WithRequestTTL sets how long a request may stay pending before ExpireOverdue rejects it.
func WithRequestTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.ttl = ttl
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

func NewService(engines *engine.Manager, requests core.RequestStore, opts ...Option) *Service {
	s := &Service{
		engines:  engines,
		requests: requests,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submission is a change proposed by a maker.
type Submission struct {
	EntityType string       `json:"entity_type"`
	Action     core.Action  `json:"action"`
	EntityID   string       `json:"entity_id,omitempty"`
	Payload    core.Payload `json:"payload"`
	Previous   core.Payload `json:"previous,omitempty"`
	Maker      core.Actor   `json:"maker"`
}

// SubmitResult is either an auto-commit signal or the created request.
type SubmitResult struct {
	// AutoCommit is set when no rule governs the change. The caller applies
	// Payload directly; no request is created.
	AutoCommit bool                  `json:"auto_commit"`
	Payload    core.Payload          `json:"payload,omitempty"`
	Request    *core.ApprovalRequest `json:"request,omitempty"`
}

// lock serializes all transitions of one request. Locks are only created
// for requests the store knows about.
func (s *Service) lock(ctx context.Context, id string) (func(), error) {
	l, ok := s.locks.Load(id)
	if !ok {
		if _, err := s.requests.Get(ctx, id); err != nil {
			return nil, err
		}
		l, _ = s.locks.LoadOrStore(id, &sync.Mutex{})
	}
	mu := l.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock, nil
}

// Submit matches the change against the current rule snapshot and creates a
// pending request bound to the first matching rule.
func (s *Service) Submit(ctx context.Context, sub Submission) (*SubmitResult, error) {
	logger := log.Ctx(ctx)

	auditEntry := s.auditEntry(ctx, core.AuditRequestSubmit, sub.Maker)
	auditEntry.EntityType = sub.EntityType
	defer s.log(ctx, &auditEntry)

	if err := validateSubmission(sub); err != nil {
		auditEntry.Error = err.Error()
		return nil, err
	}

	in := core.MatchInput{
		EntityType: sub.EntityType,
		Action:     sub.Action,
		Payload:    sub.Payload,
		Maker:      sub.Maker,
	}
	rule, err := s.engines.Engine().Match(in)
	if err != nil {
		if !errors.Is(err, engine.ErrNoRuleMatch) {
			auditEntry.Error = err.Error()
			return nil, err
		}
		if s.fallback == nil {
			auditEntry.Action = core.AuditRequestAuto
			auditEntry.Success = true
			logger.Debug().Str("entity_type", sub.EntityType).Msg("no rule matched, change may be committed")
			return &SubmitResult{AutoCommit: true, Payload: sub.Payload.Clone()}, nil
		}
		fallback := s.fallback.Clone()
		rule = &fallback
		logger.Debug().Str("entity_type", sub.EntityType).Msg("no rule matched, using fallback rule")
	}
	auditEntry.RuleID = rule.ID

	if !rule.AllowsMaker(sub.Maker.Role) {
		err := fmt.Errorf("role '%s' may not submit changes governed by rule '%s': %w",
			sub.Maker.Role, rule.Name, core.ErrNotAuthorized)
		auditEntry.Error = err.Error()
		return nil, err
	}

	checkers, err := s.resolveCheckers(ctx, rule, sub.Maker)
	if err != nil {
		auditEntry.Error = err.Error()
		return nil, err
	}

	now := s.now()
	req := &core.ApprovalRequest{
		ID:          s.newID(),
		EntityType:  sub.EntityType,
		Action:      sub.Action,
		EntityID:    sub.EntityID,
		Payload:     sub.Payload.Clone(),
		Previous:    sub.Previous.Clone(),
		Maker:       sub.Maker,
		SubmittedAt: now,
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Checkers:    checkers,
		Status:      core.StatusPending,
		Decisions:   make([]core.DecisionEntry, 0),
	}
	if s.ttl > 0 {
		expires := now.Add(s.ttl)
		req.ExpiresAt = &expires
	}

	if err := s.requests.Save(ctx, req); err != nil {
		auditEntry.Error = err.Error()
		return nil, fmt.Errorf("saving request: %w", err)
	}

	auditEntry.RequestID = req.ID
	auditEntry.Status = req.Status
	auditEntry.Success = true

	logger.Info().
		Str("request_id", req.ID).
		Str("rule_id", rule.ID).
		Str("actor", sub.Maker.ID).
		Msg("approval request submitted")

	return &SubmitResult{Request: req.Clone()}, nil
}

func validateSubmission(sub Submission) error {
	invalid := func(field, msg string) error {
		return &core.ValidationError{Subject: "submission", Field: field, Message: msg}
	}
	switch {
	case strings.TrimSpace(sub.EntityType) == "":
		return invalid("entity_type", "entity type is required")
	case !sub.Action.IsValid():
		return invalid("action", fmt.Sprintf("unknown action '%s'", sub.Action))
	case strings.TrimSpace(sub.Maker.ID) == "":
		return invalid("maker", "maker identity is required")
	case sub.Action != core.ActionCreate && sub.EntityID == "":
		return invalid("entity_id", fmt.Sprintf("entity id is required for %s", sub.Action))
	}
	return nil
}

// resolveCheckers snapshots the rule's checkers. Roles are expanded to their
// current members; the maker is never part of the set.
func (s *Service) resolveCheckers(ctx context.Context, rule *core.Rule, maker core.Actor) (core.CheckerSet, error) {
	set := core.CheckerSet{
		Roles:  append([]string(nil), rule.CheckerRoles...),
		Users:  append([]string(nil), rule.CheckerUsers...),
		Quorum: rule.Quorum,
	}

	seen := map[string]struct{}{maker.ID: {}}
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		set.Members = append(set.Members, id)
	}

	if s.directory != nil {
		for _, role := range rule.CheckerRoles {
			members, err := s.directory.Members(ctx, role)
			if err != nil {
				return set, fmt.Errorf("resolving members of role '%s': %w", role, err)
			}
			for _, m := range members {
				add(m)
			}
		}
	}
	for _, u := range rule.CheckerUsers {
		add(u)
	}

	switch {
	case set.Quorum == core.QuorumAll && len(set.Members) == 0:
		return set, fmt.Errorf("rule '%s' requires all assigned checkers, but none besides the maker are known: %w",
			rule.Name, core.ErrNoEligibleCheckers)
	case len(set.Roles) == 0 && len(set.Members) == 0:
		return set, fmt.Errorf("rule '%s' has no checker besides the maker: %w", rule.Name, core.ErrNoEligibleCheckers)
	}
	return set, nil
}

// Decide applies an approve, reject or comment decision of the actor to a pending request.
func (s *Service) Decide(
	ctx context.Context,
	requestID string,
	actor core.Actor,
	decision core.Decision,
	comment string,
) (*core.ApprovalRequest, error) {
	logger := log.Ctx(ctx).With().
		Str("request_id", requestID).
		Str("actor", actor.ID).
		Str("decision", string(decision)).
		Logger()

	auditEntry := s.auditEntry(ctx, core.AuditRequestDecide, actor)
	auditEntry.RequestID = requestID
	auditEntry.Decision = decision
	defer s.log(ctx, &auditEntry)

	fail := func(err error) (*core.ApprovalRequest, error) {
		auditEntry.Error = err.Error()
		logger.Debug().Err(err).Msg("decision refused")
		return nil, err
	}

	unlock, err := s.lock(ctx, requestID)
	if err != nil {
		return fail(err)
	}
	defer unlock()

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return fail(err)
	}
	auditEntry.RuleID = req.RuleID
	auditEntry.EntityType = req.EntityType
	auditEntry.Status = req.Status

	if !decision.IsValid() {
		return fail(&core.ValidationError{Subject: "decision", Message: fmt.Sprintf("unknown decision '%s'", decision)})
	}
	if req.IsTerminal() {
		return fail(fmt.Errorf("request '%s' is %s: %w", req.ID, req.Status, core.ErrAlreadyFinalized))
	}
	comment = strings.TrimSpace(comment)

	if decision == core.DecisionComment {
		if comment == "" {
			return fail(core.ErrCommentRequired)
		}
		if actor.ID != req.Maker.ID && !req.Checkers.Eligible(actor) {
			return fail(fmt.Errorf("'%s' may not comment on request '%s': %w", actor.ID, req.ID, core.ErrNotAuthorized))
		}
		s.appendDecision(req, actor, decision, comment)
		if err := s.requests.Save(ctx, req); err != nil {
			return fail(fmt.Errorf("saving request: %w", err))
		}
		auditEntry.Success = true
		return req.Clone(), nil
	}

	if actor.ID == req.Maker.ID {
		return fail(core.ErrSelfApprovalForbidden)
	}
	if !req.Checkers.Eligible(actor) {
		return fail(fmt.Errorf("'%s' (role '%s') is not a checker of request '%s': %w",
			actor.ID, actor.Role, req.ID, core.ErrNotAuthorized))
	}

	saved := false
	switch decision {
	case core.DecisionReject:
		if comment == "" {
			return fail(core.ErrCommentRequired)
		}
		s.appendDecision(req, actor, decision, comment)
		// a single rejection is final, whatever the quorum
		s.finalize(req, core.StatusRejected, comment)

	case core.DecisionApprove:
		if req.HasDecision(actor.ID, core.DecisionApprove) {
			return fail(fmt.Errorf("'%s' on request '%s': %w", actor.ID, req.ID, core.ErrDuplicateDecision))
		}
		before := req.Clone()
		s.appendDecision(req, actor, decision, comment)
		if outstanding := req.Outstanding(); len(outstanding) > 0 {
			logger.Debug().Strs("outstanding", outstanding).Msg("approval recorded, waiting for remaining checkers")
			break
		}

		// the approved state is stored before committing, so no later
		// decision can commit the same request again
		s.finalize(req, core.StatusApproved, "")
		if err := s.requests.Save(ctx, req); err != nil {
			return fail(fmt.Errorf("saving request: %w", err))
		}
		saved = true
		if err := s.commit(ctx, req); err != nil {
			if rbErr := s.requests.Save(ctx, before); rbErr != nil {
				logger.Error().Err(rbErr).Msg("failed to restore pending request after commit failure")
			}
			return fail(err)
		}
	}

	if !saved {
		if err := s.requests.Save(ctx, req); err != nil {
			return fail(fmt.Errorf("saving request: %w", err))
		}
	}

	auditEntry.Status = req.Status
	auditEntry.Success = true
	logger.Info().Str("status", string(req.Status)).Msg("decision applied")

	return req.Clone(), nil
}

func (s *Service) commit(ctx context.Context, req *core.ApprovalRequest) error {
	if s.committer == nil {
		return nil
	}
	commitEntry := s.auditEntry(ctx, core.AuditRequestCommit, core.SystemActor)
	commitEntry.RequestID = req.ID
	commitEntry.RuleID = req.RuleID
	commitEntry.EntityType = req.EntityType
	defer s.log(ctx, &commitEntry)

	if err := s.committer.Commit(ctx, req.Clone()); err != nil {
		commitEntry.Error = err.Error()
		return fmt.Errorf("%w: %w", core.ErrCommitFailed, err)
	}
	commitEntry.Success = true
	log.Ctx(ctx).Info().Str("request_id", req.ID).Msg("approved change committed")
	return nil
}

// Withdraw lets the maker take back a pending request nobody decided on yet.
func (s *Service) Withdraw(ctx context.Context, requestID string, actor core.Actor, comment string) (*core.ApprovalRequest, error) {
	auditEntry := s.auditEntry(ctx, core.AuditRequestWithdraw, actor)
	auditEntry.RequestID = requestID
	auditEntry.Decision = core.DecisionWithdraw
	defer s.log(ctx, &auditEntry)

	fail := func(err error) (*core.ApprovalRequest, error) {
		auditEntry.Error = err.Error()
		return nil, err
	}

	unlock, err := s.lock(ctx, requestID)
	if err != nil {
		return fail(err)
	}
	defer unlock()

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return fail(err)
	}
	auditEntry.RuleID = req.RuleID
	auditEntry.EntityType = req.EntityType

	switch {
	case req.IsTerminal():
		return fail(fmt.Errorf("request '%s' is %s: %w", req.ID, req.Status, core.ErrAlreadyFinalized))
	case actor.ID != req.Maker.ID:
		return fail(fmt.Errorf("only the maker may withdraw request '%s': %w", req.ID, core.ErrNotAuthorized))
	case len(req.Decisions) > 0:
		return fail(fmt.Errorf("request '%s' already has decisions: %w", req.ID, core.ErrWithdrawNotAllowed))
	}

	comment = strings.TrimSpace(comment)
	s.appendDecision(req, actor, core.DecisionWithdraw, comment)
	s.finalize(req, core.StatusWithdrawn, comment)

	if err := s.requests.Save(ctx, req); err != nil {
		return fail(fmt.Errorf("saving request: %w", err))
	}

	auditEntry.Status = req.Status
	auditEntry.Success = true
	log.Ctx(ctx).Info().Str("request_id", req.ID).Str("actor", actor.ID).Msg("approval request withdrawn")
	return req.Clone(), nil
}

// ExpireOverdue rejects every pending request whose expiry passed.
// It returns the number of expired requests.
func (s *Service) ExpireOverdue(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.requests.List(ctx, WithStatus(core.StatusPending), func(r *core.ApprovalRequest) bool {
		return r.ExpiresAt != nil && !r.ExpiresAt.After(now)
	})
	if err != nil {
		return 0, fmt.Errorf("listing pending requests: %w", err)
	}

	expired := 0
	for _, candidate := range overdue {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		ok, err := s.expire(ctx, candidate.ID, now)
		if err != nil {
			return expired, err
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (s *Service) expire(ctx context.Context, id string, now time.Time) (bool, error) {
	unlock, err := s.lock(ctx, id)
	if err != nil {
		return false, err
	}
	defer unlock()

	req, err := s.requests.Get(ctx, id)
	if err != nil {
		return false, err
	}
	// decided meanwhile
	if req.IsTerminal() || req.ExpiresAt == nil || req.ExpiresAt.After(now) {
		return false, nil
	}

	s.appendDecision(req, core.SystemActor, core.DecisionReject, ExpiredReason)
	s.finalize(req, core.StatusRejected, ExpiredReason)
	if err := s.requests.Save(ctx, req); err != nil {
		return false, fmt.Errorf("saving request: %w", err)
	}

	entry := s.auditEntry(ctx, core.AuditRequestExpire, core.SystemActor)
	entry.RequestID = req.ID
	entry.RuleID = req.RuleID
	entry.EntityType = req.EntityType
	entry.Status = req.Status
	entry.Success = true
	s.log(ctx, &entry)

	log.Ctx(ctx).Info().Str("request_id", req.ID).Msg("approval request expired")
	return true, nil
}

func (s *Service) Get(ctx context.Context, id string) (*core.ApprovalRequest, error) {
	return s.requests.Get(ctx, id)
}

// List returns the requests accepted by all filters, in submission order.
func (s *Service) List(ctx context.Context, filters ...core.RequestFilter) ([]*core.ApprovalRequest, error) {
	return s.requests.List(ctx, filters...)
}

// Stats counts requests per status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Approved  int `json:"approved"`
	Rejected  int `json:"rejected"`
	Withdrawn int `json:"withdrawn"`
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.requests.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	for _, r := range all {
		stats.Total++
		switch r.Status {
		case core.StatusPending:
			stats.Pending++
		case core.StatusApproved:
			stats.Approved++
		case core.StatusRejected:
			stats.Rejected++
		case core.StatusWithdrawn:
			stats.Withdrawn++
		}
	}
	return stats, nil
}

func (s *Service) appendDecision(req *core.ApprovalRequest, actor core.Actor, d core.Decision, comment string) {
	req.Decisions = append(req.Decisions, core.DecisionEntry{
		Actor:    actor,
		Decision: d,
		Comment:  comment,
		At:       s.now(),
	})
}

func (s *Service) finalize(req *core.ApprovalRequest, status core.Status, reason string) {
	now := s.now()
	req.Status = status
	req.Reason = reason
	req.FinalizedAt = &now
}

func (s *Service) auditEntry(ctx context.Context, action string, actor core.Actor) core.AuditEntry {
	entry := core.AuditEntry{
		ID:     core.CorrelationID(ctx),
		Time:   s.now(),
		Action: action,
	}
	if actor.ID != "" {
		a := actor
		entry.Actor = &a
	}
	return entry
}

func (s *Service) log(ctx context.Context, entry *core.AuditEntry) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Log(*entry); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("action", entry.Action).Msg("failed to write audit log entry")
	}
}

