package core

import (
	"strings"
	"time"
)

// AttributeType is the declared type of an entity attribute.
type AttributeType string

const (
	AttrText         AttributeType = "text"
	AttrNumber       AttributeType = "number"
	AttrBoolean      AttributeType = "boolean"
	AttrDate         AttributeType = "date"
	AttrSingleChoice AttributeType = "single_choice"
	AttrMultiChoice  AttributeType = "multi_choice"
)

// attributeTypeAliases maps the names used by the admin UI onto the canonical types.
var attributeTypeAliases = map[string]AttributeType{
	"string":      AttrText,
	"dropdown":    AttrSingleChoice,
	"select":      AttrSingleChoice,
	"multiselect": AttrMultiChoice,
	"bool":        AttrBoolean,
}

// Normalize returns the canonical spelling of the type (e.g. "dropdown" -> "single_choice").
func (t AttributeType) Normalize() AttributeType {
	lower := AttributeType(strings.ToLower(strings.TrimSpace(string(t))))
	if alias, ok := attributeTypeAliases[string(lower)]; ok {
		return alias
	}
	return lower
}

func (t AttributeType) IsValid() bool {
	switch t {
	case AttrText, AttrNumber, AttrBoolean, AttrDate, AttrSingleChoice, AttrMultiChoice:
		return true
	default:
		return false
	}
}

// IsChoice reports whether values are restricted to a finite option set.
func (t AttributeType) IsChoice() bool {
	return t == AttrSingleChoice || t == AttrMultiChoice
}

// IsOrdered reports whether the ordering operators (greater_than, ...) apply.
func (t AttributeType) IsOrdered() bool {
	return t == AttrNumber || t == AttrDate
}

// Attribute is a configurable field of a managed entity.
type Attribute struct {
	// ID is the immutable identity used as payload key and condition reference.
	ID string `yaml:"id" json:"id"`

	Name        string        `yaml:"name" json:"name"`
	Description string        `yaml:"description,omitempty" json:"description,omitempty"`
	Type        AttributeType `yaml:"type" json:"type"`

	// Default is applied by the entity store, the engine only validates it.
	Default *Value `yaml:"default,omitempty" json:"default,omitempty"`

	// Options is the finite value set of single_choice and multi_choice attributes.
	Options []string `yaml:"options,omitempty" json:"options,omitempty"`

	Required bool `yaml:"required" json:"required"`

	CreatedAt time.Time `yaml:"-" json:"created_at"`
	UpdatedAt time.Time `yaml:"-" json:"updated_at"`
}

// HasOption reports whether v is one of the attribute's options.
func (a Attribute) HasOption(v string) bool {
	for _, opt := range a.Options {
		if opt == v {
			return true
		}
	}
	return false
}

func (a Attribute) Clone() Attribute {
	out := a
	out.Options = append([]string(nil), a.Options...)
	if a.Default != nil {
		def := *a.Default
		def.Set = append([]string(nil), def.Set...)
		out.Default = &def
	}
	return out
}
