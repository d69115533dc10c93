package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueOf(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Value
	}{
		{"string", "Electronics", Text("Electronics")},
		{"float", 1500.0, Number(1500)},
		{"int", 3, Number(3)},
		{"uint64", uint64(7), Number(7)},
		{"bool", true, Bool(true)},
		{"list", []any{"a", "b"}, Set("a", "b")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueOf(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}

	_, err := ValueOf(nil)
	assert.Error(t, err)
}

func TestValue_Coerce(t *testing.T) {
	v, ok := Text("1500").Coerce(AttrNumber)
	require.True(t, ok)
	assert.Equal(t, 1500.0, v.Number)

	_, ok = Text("cheap").Coerce(AttrNumber)
	assert.False(t, ok)

	v, ok = Text("2024-01-15").Coerce(AttrDate)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), v.Time)

	v, ok = Text("Apple").Coerce(AttrMultiChoice)
	require.True(t, ok)
	assert.Equal(t, []string{"Apple"}, v.Set)

	_, ok = Set("a").Coerce(AttrText)
	assert.False(t, ok)
}

func TestValue_Equal(t *testing.T) {
	assert.True(t, Set("a", "b").Equal(Set("b", "a")))
	assert.False(t, Set("a").Equal(Text("a")))
	assert.True(t, Number(1).Equal(Number(1.0)))
}

func TestPayload_JSON(t *testing.T) {
	var p Payload
	require.NoError(t, json.Unmarshal([]byte(`{"price": 1500, "category": "Electronics", "tags": ["x"], "active": true}`), &p))

	assert.Equal(t, KindNumber, p["price"].Kind)
	assert.Equal(t, KindText, p["category"].Kind)
	assert.Equal(t, KindSet, p["tags"].Kind)
	assert.Equal(t, KindBoolean, p["active"].Kind)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"price": 1500, "category": "Electronics", "tags": ["x"], "active": true}`, string(out))
}
