package engine

import (
	"strings"

	"github.com/avik1986/hierarchy-role-based-maker-checker/internal/core"
)

// equalValues compares a payload value with one condition value.
// For multi-choice payloads, equality means the set contains the value.
func equalValues(payload, want core.Value) bool {
	if payload.Kind == core.KindSet {
		for _, item := range payload.Set {
			if item == want.String() {
				return true
			}
		}
		return false
	}
	return payload.Equal(want)
}

// containsAny checks if any of the condition values equals the payload value.
func containsAny(payload core.Value, values []core.Value) bool {
	for _, v := range values {
		if equalValues(payload, v) {
			return true
		}
	}
	return false
}

// compareOrdered returns -1, 0 or 1. ok is false when the values cannot be ordered.
func compareOrdered(a, b core.Value) (cmp int, ok bool) {
	switch {
	case a.Kind == core.KindNumber && b.Kind == core.KindNumber:
		switch {
		case a.Number < b.Number:
			return -1, true
		case a.Number > b.Number:
			return 1, true
		default:
			return 0, true
		}
	case a.Kind == core.KindDate && b.Kind == core.KindDate:
		return a.Time.Compare(b.Time), true
	default:
		return 0, false
	}
}

func orderingHolds(op core.Operator, cmp int) bool {
	switch op {
	case core.OpGreaterThan:
		return cmp > 0
	case core.OpLessThan:
		return cmp < 0
	case core.OpGreaterThanEqual:
		return cmp >= 0
	case core.OpLessThanEqual:
		return cmp <= 0
	default:
		return false
	}
}

// texts returns the strings a text operator (like, regex) is applied to.
func texts(v core.Value) []string {
	if v.Kind == core.KindSet {
		return v.Set
	}
	return []string{v.String()}
}

// like is a case-insensitive substring match against any of the payload texts
func like(payload core.Value, needle string) bool {
	needle = strings.ToLower(needle)
	for _, s := range texts(payload) {
		if strings.Contains(strings.ToLower(s), needle) {
			return true
		}
	}
	return false
}
