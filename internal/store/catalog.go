package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/engine"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/validation"
)

// Catalog is the rule configuration store together with the attribute catalog.
// Every mutation publishes a new engine snapshot to the manager.
type Catalog struct {
	mu sync.RWMutex

	// entityTypes is nil when any entity type is accepted
	entityTypes map[string]struct{}
	typeOrder   []string

	attributes map[string]core.Attribute
	attrOrder  []string

	// rules in store order, the order the matcher tries them in
	rules []core.Rule

	// index maps an attribute id to the ids of the rules referencing it
	index map[string]map[string]struct{}

	engines *engine.Manager
	refs    core.ReferenceChecker
	auditor core.Auditor
	now     func() time.Time
}

type Option func(*Catalog)

// WithEntityTypes restricts rules to the given entity types.
func WithEntityTypes(types ...string) Option {
	return func(c *Catalog) {
		c.entityTypes = make(map[string]struct{}, len(types))
		c.typeOrder = nil
		for _, t := range types {
			if _, dup := c.entityTypes[t]; dup {
				continue
			}
			c.entityTypes[t] = struct{}{}
			c.typeOrder = append(c.typeOrder, t)
		}
	}
}

// WithReferenceChecker consults the entity store before deleting attributes and rules.
func WithReferenceChecker(refs core.ReferenceChecker) Option {
	return func(c *Catalog) {
		c.refs = refs
	}
}

func WithAuditor(auditor core.Auditor) Option {
	return func(c *Catalog) {
		c.auditor = auditor
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Catalog) {
		c.now = now
	}
}

func NewCatalog(engines *engine.Manager, opts ...Option) *Catalog {
	c := &Catalog{
		attributes: make(map[string]core.Attribute),
		index:      make(map[string]map[string]struct{}),
		engines:    engines,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.publish()
	return c
}

// EntityTypes returns the configured entity types, or nil if any type is accepted.
func (c *Catalog) EntityTypes() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.typeOrder...)
}

// publish must be called with the write lock held.
func (c *Catalog) publish() {
	if c.engines != nil {
		c.engines.Update(c.rules)
	}
}

func (c *Catalog) ruleIndex(id string) int {
	for i, r := range c.rules {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) indexRule(rule core.Rule) {
	for _, attrID := range rule.References() {
		set, ok := c.index[attrID]
		if !ok {
			set = make(map[string]struct{})
			c.index[attrID] = set
		}
		set[rule.ID] = struct{}{}
	}
}

func (c *Catalog) unindexRule(rule core.Rule) {
	for _, attrID := range rule.References() {
		if set, ok := c.index[attrID]; ok {
			delete(set, rule.ID)
			if len(set) == 0 {
				delete(c.index, attrID)
			}
		}
	}
}

// referencing returns the ids of the rules using the attribute, in store order.
func (c *Catalog) referencing(attrID string) []string {
	set := c.index[attrID]
	if len(set) == 0 {
		return nil
	}
	var ids []string
	for _, r := range c.rules {
		if _, ok := set[r.ID]; ok {
			ids = append(ids, r.ID)
		}
	}
	return ids
}

// --- rules ---

// CreateRule validates the rule and appends it to the end of the store.
// An empty ID is replaced by a generated one.
func (c *Catalog) CreateRule(ctx context.Context, rule core.Rule) (core.Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	entry := c.auditEntry(ctx, core.AuditRuleCreate)
	entry.RuleID = rule.ID
	entry.EntityType = rule.EntityType
	defer c.log(ctx, &entry)

	if c.ruleIndex(rule.ID) >= 0 {
		err := &core.ValidationError{Subject: "rule '" + rule.ID + "'", Field: "id", Message: "a rule with this id already exists"}
		entry.Error = err.Error()
		return core.Rule{}, err
	}

	valid, err := validation.ValidateRule(rule, c.attributes, c.entityTypes)
	if err != nil {
		entry.Error = err.Error()
		return core.Rule{}, err
	}
	valid.CreatedAt = c.now()
	valid.UpdatedAt = valid.CreatedAt

	c.rules = append(c.rules, valid)
	c.indexRule(valid)
	c.publish()

	entry.Success = true
	log.Ctx(ctx).Debug().Str("rule", valid.ID).Str("entity_type", valid.EntityType).Msg("rule created")
	return valid.Clone(), nil
}

// UpdateRule replaces the definition of an existing rule, keeping its position.
// Requests already bound to the rule are not affected.
func (c *Catalog) UpdateRule(ctx context.Context, rule core.Rule) (core.Rule, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.auditEntry(ctx, core.AuditRuleUpdate)
	entry.RuleID = rule.ID
	entry.EntityType = rule.EntityType
	defer c.log(ctx, &entry)

	idx := c.ruleIndex(rule.ID)
	if idx < 0 {
		err := core.NotFound(core.RefRule, rule.ID)
		entry.Error = err.Error()
		return core.Rule{}, err
	}

	valid, err := validation.ValidateRule(rule, c.attributes, c.entityTypes)
	if err != nil {
		entry.Error = err.Error()
		return core.Rule{}, err
	}
	old := c.rules[idx]
	valid.CreatedAt = old.CreatedAt
	valid.UpdatedAt = c.now()

	c.unindexRule(old)
	c.rules[idx] = valid
	c.indexRule(valid)
	c.publish()

	entry.Success = true
	log.Ctx(ctx).Debug().Str("rule", valid.ID).Msg("rule updated")
	return valid.Clone(), nil
}

// DeleteRule removes a rule unless the entity store still references it.
func (c *Catalog) DeleteRule(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.auditEntry(ctx, core.AuditRuleDelete)
	entry.RuleID = id
	defer c.log(ctx, &entry)

	idx := c.ruleIndex(id)
	if idx < 0 {
		err := core.NotFound(core.RefRule, id)
		entry.Error = err.Error()
		return err
	}
	if err := c.checkExternalRefs(ctx, core.RefRule, id); err != nil {
		entry.Error = err.Error()
		return err
	}

	c.unindexRule(c.rules[idx])
	c.rules = append(c.rules[:idx], c.rules[idx+1:]...)
	c.publish()

	entry.Success = true
	log.Ctx(ctx).Debug().Str("rule", id).Msg("rule deleted")
	return nil
}

func (c *Catalog) GetRule(id string) (core.Rule, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.ruleIndex(id)
	if idx < 0 {
		return core.Rule{}, core.NotFound(core.RefRule, id)
	}
	return c.rules[idx].Clone(), nil
}

// ListRules returns the rules in store order. An empty entity type lists all rules.
func (c *Catalog) ListRules(entityType string) []core.Rule {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.Rule, 0, len(c.rules))
	for _, r := range c.rules {
		if entityType != "" && r.EntityType != entityType {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

// MoveRule moves a rule to the given position in the store.
// The position is clamped to the valid range.
func (c *Catalog) MoveRule(ctx context.Context, id string, position int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.auditEntry(ctx, core.AuditRuleUpdate)
	entry.RuleID = id
	entry.Metadata = map[string]any{"position": position}
	defer c.log(ctx, &entry)

	idx := c.ruleIndex(id)
	if idx < 0 {
		err := core.NotFound(core.RefRule, id)
		entry.Error = err.Error()
		return err
	}

	position = max(0, min(position, len(c.rules)-1))
	rule := c.rules[idx]
	rest := append(c.rules[:idx:idx], c.rules[idx+1:]...)
	moved := make([]core.Rule, 0, len(c.rules))
	moved = append(moved, rest[:position]...)
	moved = append(moved, rule)
	moved = append(moved, rest[position:]...)
	c.rules = moved
	c.publish()

	entry.Success = true
	return nil
}

// RulesReferencing returns the ids of all rules with a condition on the attribute.
func (c *Catalog) RulesReferencing(attrID string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.referencing(attrID)
}

// --- attributes ---

func (c *Catalog) CreateAttribute(ctx context.Context, attr core.Attribute) (core.Attribute, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.auditEntry(ctx, core.AuditAttributeCreate)
	entry.Metadata = map[string]any{"attribute": attr.ID}
	defer c.log(ctx, &entry)

	valid, err := validation.ValidateAttribute(attr)
	if err != nil {
		entry.Error = err.Error()
		return core.Attribute{}, err
	}
	if _, exists := c.attributes[valid.ID]; exists {
		err := &core.ValidationError{Subject: "attribute '" + valid.ID + "'", Field: "id", Message: "an attribute with this id already exists"}
		entry.Error = err.Error()
		return core.Attribute{}, err
	}
	valid.CreatedAt = c.now()
	valid.UpdatedAt = valid.CreatedAt

	c.attributes[valid.ID] = valid
	c.attrOrder = append(c.attrOrder, valid.ID)

	entry.Success = true
	return valid.Clone(), nil
}

// UpdateAttribute changes an attribute definition and re-validates every rule
// referencing it. Rules that no longer validate are flagged stale and skipped
// by the matcher until they are saved again; their ids are returned.
func (c *Catalog) UpdateAttribute(ctx context.Context, attr core.Attribute) (core.Attribute, []string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.auditEntry(ctx, core.AuditAttributeUpdate)
	entry.Metadata = map[string]any{"attribute": attr.ID}
	defer c.log(ctx, &entry)

	old, exists := c.attributes[attr.ID]
	if !exists {
		err := core.NotFound(core.RefAttribute, attr.ID)
		entry.Error = err.Error()
		return core.Attribute{}, nil, err
	}
	valid, err := validation.ValidateAttribute(attr)
	if err != nil {
		entry.Error = err.Error()
		return core.Attribute{}, nil, err
	}
	valid.CreatedAt = old.CreatedAt
	valid.UpdatedAt = c.now()
	c.attributes[valid.ID] = valid

	var stale []string
	for _, ruleID := range c.referencing(valid.ID) {
		idx := c.ruleIndex(ruleID)
		rule := c.rules[idx]
		revalidated, err := validation.ValidateRule(rule, c.attributes, c.entityTypes)
		if err != nil {
			c.markStale(ctx, idx, err.Error())
			stale = append(stale, ruleID)
			continue
		}
		// recompiled against the new definition
		revalidated.CreatedAt = rule.CreatedAt
		revalidated.UpdatedAt = rule.UpdatedAt
		c.rules[idx] = revalidated
	}
	c.publish()

	entry.Success = true
	if len(stale) > 0 {
		entry.Metadata["stale_rules"] = stale
	}
	return valid.Clone(), stale, nil
}

// DeleteAttribute removes an attribute. It fails with a ReferentialIntegrityError
// while an active rule or the entity store still references it. Inactive rules
// referencing the attribute are flagged stale.
func (c *Catalog) DeleteAttribute(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := c.auditEntry(ctx, core.AuditAttributeDelete)
	entry.Metadata = map[string]any{"attribute": id}
	defer c.log(ctx, &entry)

	if _, exists := c.attributes[id]; !exists {
		err := core.NotFound(core.RefAttribute, id)
		entry.Error = err.Error()
		return err
	}

	refs := c.referencing(id)
	var active []string
	for _, ruleID := range refs {
		if c.rules[c.ruleIndex(ruleID)].Active {
			active = append(active, ruleID)
		}
	}
	if len(active) > 0 {
		err := &core.ReferentialIntegrityError{Kind: core.RefAttribute, ID: id, ReferencedBy: active}
		entry.Error = err.Error()
		return err
	}
	if err := c.checkExternalRefs(ctx, core.RefAttribute, id); err != nil {
		entry.Error = err.Error()
		return err
	}

	delete(c.attributes, id)
	for i, attrID := range c.attrOrder {
		if attrID == id {
			c.attrOrder = append(c.attrOrder[:i], c.attrOrder[i+1:]...)
			break
		}
	}
	for _, ruleID := range refs {
		c.markStale(ctx, c.ruleIndex(ruleID), "attribute '"+id+"' was deleted")
	}
	c.publish()

	entry.Success = true
	return nil
}

func (c *Catalog) GetAttribute(id string) (core.Attribute, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	attr, ok := c.attributes[id]
	if !ok {
		return core.Attribute{}, core.NotFound(core.RefAttribute, id)
	}
	return attr.Clone(), nil
}

// ListAttributes returns the attributes in creation order.
func (c *Catalog) ListAttributes() []core.Attribute {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]core.Attribute, 0, len(c.attrOrder))
	for _, id := range c.attrOrder {
		out = append(out, c.attributes[id].Clone())
	}
	return out
}

// Stale returns the ids of all stale rules, sorted.
func (c *Catalog) Stale() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ids []string
	for _, r := range c.rules {
		if r.Stale {
			ids = append(ids, r.ID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (c *Catalog) markStale(ctx context.Context, idx int, reason string) {
	c.rules[idx].Stale = true
	c.rules[idx].StaleReason = reason

	log.Ctx(ctx).Warn().Str("rule", c.rules[idx].ID).Str("reason", reason).Msg("rule flagged stale")

	entry := c.auditEntry(ctx, core.AuditRuleStale)
	entry.RuleID = c.rules[idx].ID
	entry.EntityType = c.rules[idx].EntityType
	entry.Success = true
	entry.Metadata = map[string]any{"reason": reason}
	c.log(ctx, &entry)
}

func (c *Catalog) checkExternalRefs(ctx context.Context, kind core.RefKind, id string) error {
	if c.refs == nil {
		return nil
	}
	referenced, err := c.refs.IsReferenced(ctx, kind, id)
	if err != nil {
		return err
	}
	if referenced {
		return &core.ReferentialIntegrityError{Kind: kind, ID: id, ReferencedBy: []string{"entities"}}
	}
	return nil
}

func (c *Catalog) auditEntry(ctx context.Context, action string) core.AuditEntry {
	entry := core.AuditEntry{
		ID:     core.CorrelationID(ctx),
		Time:   c.now(),
		Action: action,
	}
	if actor, ok := core.ActorFromContext(ctx); ok {
		entry.Actor = &actor
	}
	return entry
}

func (c *Catalog) log(ctx context.Context, entry *core.AuditEntry) {
	if c.auditor == nil {
		return
	}
	if err := c.auditor.Log(*entry); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("action", entry.Action).Msg("failed to write audit log entry")
	}
}
