package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

var _ core.Directory = (*Static)(nil)

// User is a known identity and the role it acts in.
type User struct {
	ID    string `yaml:"id" json:"id"`
	Name  string `yaml:"name,omitempty" json:"name,omitempty"`
	Email string `yaml:"email,omitempty" json:"email,omitempty"`
	Role  string `yaml:"role" json:"role"`
}

// Static is a directory backed by a fixed user list, e.g. from the configuration file.
// It is read-only once built.
type Static struct {
	users map[string]User
}

func NewStatic(users ...User) (*Static, error) {
	d := &Static{users: make(map[string]User, len(users))}
	for i, u := range users {
		if err := d.put(u); err != nil {
			return nil, fmt.Errorf("user at index %d: %w", i, err)
		}
	}
	return d, nil
}

func (d *Static) put(u User) error {
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Role) == "" {
		return fmt.Errorf("user '%s' has no role", u.ID)
	}
	if _, dup := d.users[u.ID]; dup {
		return fmt.Errorf("user '%s' is listed twice", u.ID)
	}
	d.users[u.ID] = u
	return nil
}

// Members returns the ids of all users holding the role, sorted.
func (d *Static) Members(_ context.Context, role string) ([]string, error) {
	var ids []string
	for _, u := range d.users {
		if u.Role == role {
			ids = append(ids, u.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Users returns all users sorted by id.
func (d *Static) Users() []User {
	out := make([]User, 0, len(d.users))
	for _, u := range d.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
