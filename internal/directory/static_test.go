package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic_Members(t *testing.T) {
	d, err := NewStatic(
		User{ID: "carol", Role: "checker"},
		User{ID: "bob", Role: "checker"},
		User{ID: "jane", Role: "maker"},
	)
	require.NoError(t, err)

	members, err := d.Members(context.Background(), "checker")
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, members)

	members, err = d.Members(context.Background(), "auditor")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestNewStatic_Invalid(t *testing.T) {
	_, err := NewStatic(User{ID: "a", Role: "x"}, User{ID: "a", Role: "y"})
	assert.Error(t, err)

	_, err = NewStatic(User{ID: "a"})
	assert.Error(t, err)

	_, err = NewStatic(User{Role: "x"})
	assert.Error(t, err)
}
