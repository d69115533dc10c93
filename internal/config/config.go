package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/directory"
	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/validation"
)

type Config struct {
	// EntityTypes is the closed list of entity types rules may govern.
	// Leaving it empty accepts any entity type.
	EntityTypes []string         `yaml:"entity_types"`
	Attributes  []core.Attribute `yaml:"attributes"`
	Rules       []core.Rule      `yaml:"rules"`
	Users       []directory.User `yaml:"users"`
	Policy      PolicyConfig     `yaml:"policy"`
	Audit       AuditConfig      `yaml:"audit"`
	Tasks       TasksConfig      `yaml:"tasks"`
}

// PolicyConfig holds deployment-wide approval settings.
type PolicyConfig struct {
	// RequireApproval binds changes that match no rule to the fallback checkers
	// instead of auto-committing them.
	RequireApproval bool           `yaml:"require_approval"`
	Fallback        FallbackConfig `yaml:"fallback"`

	// RequestTTL is how long a request may stay pending. 0 disables expiry.
	RequestTTL time.Duration `yaml:"request_ttl"`
}

type FallbackConfig struct {
	CheckerRoles []string          `yaml:"checker_roles"`
	CheckerUsers []string          `yaml:"checker_users"`
	Quorum       core.QuorumPolicy `yaml:"quorum"`
}

// Rule returns the synthetic rule used for changes no configured rule matches.
func (f FallbackConfig) Rule() core.Rule {
	quorum := f.Quorum
	if quorum == "" {
		quorum = core.QuorumAnyOne
	}
	return core.Rule{
		ID:           "fallback",
		Name:         "Fallback approval",
		Description:  "applies to changes no rule matches",
		CheckerRoles: append([]string(nil), f.CheckerRoles...),
		CheckerUsers: append([]string(nil), f.CheckerUsers...),
		Quorum:       quorum,
		Active:       true,
	}
}

// AuditConfig holds configuration for auditing.
type AuditConfig struct {
	Enabled bool           `yaml:"enabled"`
	Type    string         `yaml:"type"`    // e.g., "file", "memory"
	Options map[string]any `yaml:",inline"` // Capture remaining fields, e.g. path
}

// TasksConfig holds the schedules of the background tasks.
type TasksConfig struct {
	// ExpiryInterval is how often overdue requests are expired. Defaults to one minute.
	ExpiryInterval time.Duration `yaml:"expiry_interval"`
	// StaleRulesInterval is how often stale rules are reported. 0 only runs on trigger.
	StaleRulesInterval time.Duration `yaml:"stale_rules_interval"`
	Timeout            time.Duration `yaml:"timeout"`
}

// Load reads and parses the configuration file at the given path.
// It returns a Config struct or an error if loading/parsing/validation fails.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates configuration data.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return &cfg, nil
}

// EntityTypeSet returns the entity types as a set, or nil if any type is accepted.
func (c *Config) EntityTypeSet() map[string]struct{} {
	if len(c.EntityTypes) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(c.EntityTypes))
	for _, t := range c.EntityTypes {
		set[t] = struct{}{}
	}
	return set
}

func (c *Config) Validate() error {
	for idx, t := range c.EntityTypes {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("entity type at index %d is empty", idx)
		}
	}

	attributes := make(map[string]core.Attribute, len(c.Attributes))
	for idx, a := range c.Attributes {
		valid, err := validation.ValidateAttribute(a)
		if err != nil {
			return fmt.Errorf("attribute at index %d: %w", idx, err)
		}
		if _, dup := attributes[valid.ID]; dup {
			return fmt.Errorf("attribute '%s' is defined twice", valid.ID)
		}
		attributes[valid.ID] = valid
		c.Attributes[idx] = valid
	}

	validRules, err := validation.ValidateRules(c.Rules, attributes, c.EntityTypeSet())
	if err != nil {
		return fmt.Errorf("validating rules: %w", err)
	}
	c.Rules = validRules

	if _, err := directory.NewStatic(c.Users...); err != nil {
		return fmt.Errorf("validating users: %w", err)
	}

	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("validating policy: %w", err)
	}

	if c.Audit.Enabled && c.Audit.Type == "" {
		c.Audit.Type = "memory"
	}
	return nil
}

func (p *PolicyConfig) Validate() error {
	if p.RequestTTL < 0 {
		return fmt.Errorf("request_ttl cannot be negative")
	}
	if !p.RequireApproval {
		return nil
	}
	rule := p.Fallback.Rule()
	if !rule.HasChecker() {
		return fmt.Errorf("require_approval needs fallback checker_roles or checker_users")
	}
	if !rule.Quorum.IsValid() {
		return fmt.Errorf("unknown fallback quorum '%s'", rule.Quorum)
	}
	return nil
}
