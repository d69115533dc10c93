package core

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ValueKind tags which field of a Value is populated.
type ValueKind string

const (
	KindText    ValueKind = "text"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
	KindDate    ValueKind = "date"
	KindSet     ValueKind = "set"
)

// dateLayouts are tried in order when a date is given as text.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Value is a single attribute value inside a change payload.
// Exactly one of the fields is meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind
	Text   string
	Number float64
	Bool   bool
	Time   time.Time
	Set    []string
}

func Text(s string) Value { return Value{Kind: KindText, Text: s} }
func Number(n float64) Value { return Value{Kind: KindNumber, Number: n} }
func Bool(b bool) Value { return Value{Kind: KindBoolean, Bool: b} }
func Date(t time.Time) Value { return Value{Kind: KindDate, Time: t} }
func Set(items ...string) Value { return Value{Kind: KindSet, Set: append([]string(nil), items...)} }

// String renders the value the way it would be typed into a condition.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindBoolean:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		return v.Time.Format(time.RFC3339)
	case KindSet:
		return "[" + strings.Join(v.Set, ", ") + "]"
	default:
		return v.Text
	}
}

// Plain converts the value into a plain Go value (string, float64, bool, time.Time or []string).
func (v Value) Plain() any {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBoolean:
		return v.Bool
	case KindDate:
		return v.Time
	case KindSet:
		return append([]string(nil), v.Set...)
	default:
		return v.Text
	}
}

// Equal reports whether both values have the same kind and content.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.Number == o.Number
	case KindBoolean:
		return v.Bool == o.Bool
	case KindDate:
		return v.Time.Equal(o.Time)
	case KindSet:
		if len(v.Set) != len(o.Set) {
			return false
		}
		a, b := sortedCopy(v.Set), sortedCopy(o.Set)
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	default:
		return v.Text == o.Text
	}
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

// ValueOf converts a decoded JSON/YAML scalar or list into a Value.
func ValueOf(raw any) (Value, error) {
	switch t := raw.(type) {
	case Value:
		return t, nil
	case string:
		return Text(t), nil
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number '%s': %w", t, err)
		}
		return Number(f), nil
	case time.Time:
		return Date(t), nil
	case []string:
		return Set(t...), nil
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, fmt.Sprint(item))
		}
		return Set(items...), nil
	case nil:
		return Value{}, fmt.Errorf("null is not a valid attribute value")
	default:
		return Value{}, fmt.Errorf("unsupported attribute value of type %T", raw)
	}
}

// ParseValue parses the textual form of a value according to the declared attribute type.
func ParseValue(t AttributeType, raw string) (Value, error) {
	switch t {
	case AttrNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return Value{}, fmt.Errorf("'%s' is not a number", raw)
		}
		return Number(f), nil
	case AttrBoolean:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return Value{}, fmt.Errorf("'%s' is not a boolean", raw)
		}
		return Bool(b), nil
	case AttrDate:
		ts, err := parseDate(raw)
		if err != nil {
			return Value{}, err
		}
		return Date(ts), nil
	default:
		return Text(raw), nil
	}
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("'%s' is not a date", raw)
}

// Coerce converts v into the representation expected for the attribute type.
// Payloads arrive from outside the engine, so a number may come as text and so on.
func (v Value) Coerce(t AttributeType) (Value, bool) {
	switch t {
	case AttrNumber:
		switch v.Kind {
		case KindNumber:
			return v, true
		case KindText:
			out, err := ParseValue(AttrNumber, v.Text)
			return out, err == nil
		}
	case AttrBoolean:
		switch v.Kind {
		case KindBoolean:
			return v, true
		case KindText:
			out, err := ParseValue(AttrBoolean, v.Text)
			return out, err == nil
		}
	case AttrDate:
		switch v.Kind {
		case KindDate:
			return v, true
		case KindText:
			out, err := ParseValue(AttrDate, v.Text)
			return out, err == nil
		}
	case AttrMultiChoice:
		switch v.Kind {
		case KindSet:
			return v, true
		case KindText:
			return Set(v.Text), true
		}
	case AttrText, AttrSingleChoice:
		switch v.Kind {
		case KindText:
			return v, true
		case KindNumber, KindBoolean:
			return Text(v.String()), true
		}
	}
	return Value{}, false
}

func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Plain())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

func (v Value) MarshalYAML() (any, error) {
	return v.Plain(), nil
}

func (v *Value) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	out, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// Payload maps attribute IDs to their proposed values.
type Payload map[string]Value

func (p Payload) Clone() Payload {
	if p == nil {
		return nil
	}
	out := make(Payload, len(p))
	for k, v := range p {
		if v.Kind == KindSet {
			v.Set = append([]string(nil), v.Set...)
		}
		out[k] = v
	}
	return out
}

// Plain returns the payload as a map of plain Go values, e.g. for expression environments.
func (p Payload) Plain() map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = v.Plain()
	}
	return out
}

// PayloadOf converts a decoded map into a Payload.
func PayloadOf(raw map[string]any) (Payload, error) {
	out := make(Payload, len(raw))
	for k, item := range raw {
		v, err := ValueOf(item)
		if err != nil {
			return nil, fmt.Errorf("attribute '%s': %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
