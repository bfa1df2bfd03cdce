// Package filter defines declarative predicates over assessment payload fields.
package filter

import (
	"fmt"
	"slices"
)

// Predicate is one clause of a Spec. Implemented by Equals and AnyOf only.
type Predicate interface {
	Field() string
	matches(values []string) bool
}

// Equals requires the field to hold value. On a multi-valued field any value may match.
type Equals struct {
	field string
	value string
}

// NewEquals validates and creates an Equals predicate.
func NewEquals(field, value string) (Equals, error) {
	if field == "" {
		return Equals{}, fmt.Errorf("filter field is required")
	}
	return Equals{field: field, value: value}, nil
}

// Field returns the payload field name.
func (p Equals) Field() string { return p.field }

// Value returns the required value.
func (p Equals) Value() string { return p.value }

func (p Equals) matches(values []string) bool {
	return slices.Contains(values, p.value)
}

// AnyOf requires the field's value set to intersect values.
type AnyOf struct {
	field  string
	values []string
}

// NewAnyOf validates and creates an AnyOf predicate. Duplicate values are dropped.
func NewAnyOf(field string, values []string) (AnyOf, error) {
	if field == "" {
		return AnyOf{}, fmt.Errorf("filter field is required")
	}
	if len(values) == 0 {
		return AnyOf{}, fmt.Errorf("at least one value is required for field %q", field)
	}
	uniq := make([]string, 0, len(values))
	for _, v := range values {
		if !slices.Contains(uniq, v) {
			uniq = append(uniq, v)
		}
	}
	return AnyOf{field: field, values: uniq}, nil
}

// Field returns the payload field name.
func (p AnyOf) Field() string { return p.field }

// Values returns a copy of the accepted values.
func (p AnyOf) Values() []string { return slices.Clone(p.values) }

func (p AnyOf) matches(values []string) bool {
	for _, v := range values {
		if slices.Contains(p.values, v) {
			return true
		}
	}
	return false
}

// Spec is an ordered conjunction of predicates. The zero value matches everything.
type Spec struct {
	predicates []Predicate
}

// NewSpec creates a Spec from predicates.
func NewSpec(predicates ...Predicate) Spec {
	return Spec{predicates: slices.Clone(predicates)}
}

// Predicates returns the clauses in order.
func (s Spec) Predicates() []Predicate { return slices.Clone(s.predicates) }

// IsEmpty reports whether the spec imposes no constraint.
func (s Spec) IsEmpty() bool { return len(s.predicates) == 0 }

// Matches evaluates every predicate against a record's field values.
// A field missing from fields matches nothing.
func (s Spec) Matches(fields map[string][]string) bool {
	for _, p := range s.predicates {
		if !p.matches(fields[p.Field()]) {
			return false
		}
	}
	return true
}

func (s Spec) String() string {
	if s.IsEmpty() {
		return "*"
	}
	out := ""
	for i, p := range s.predicates {
		if i > 0 {
			out += " AND "
		}
		switch t := p.(type) {
		case Equals:
			out += fmt.Sprintf("%s=%q", t.field, t.value)
		case AnyOf:
			out += fmt.Sprintf("%s IN %q", t.field, t.values)
		}
	}
	return out
}
