package domain

import (
	"slices"
	"strings"
)

// Field identifies one member of State. Fields are bit flags so that any
// subset of them fits in a FieldSet.
type Field uint8

const (
	FieldTopic Field = 1 << iota
	FieldSearchQueries
	FieldSearchResults
	FieldKeyFindings
	FieldSummary
	FieldCurrentStep
	FieldError
)

// MergePolicy defines how a partial value combines with the current one.
type MergePolicy int

const (
	// PolicyOverwrite replaces the current value.
	PolicyOverwrite MergePolicy = iota
	// PolicyAppend concatenates the partial value after the current one.
	PolicyAppend
)

func (p MergePolicy) String() string {
	switch p {
	case PolicyAppend:
		return "append"
	default:
		return "overwrite"
	}
}

// FieldSpec describes a State field and its merge policy.
type FieldSpec struct {
	Field  Field       `json:"-"`
	Name   string      `json:"name"`
	Policy MergePolicy `json:"policy"`
}

// schema is ordered like the State struct.
var schema = []FieldSpec{
	{Field: FieldTopic, Name: "topic", Policy: PolicyOverwrite},
	{Field: FieldSearchQueries, Name: "search_queries", Policy: PolicyOverwrite},
	{Field: FieldSearchResults, Name: "search_results", Policy: PolicyAppend},
	{Field: FieldKeyFindings, Name: "key_findings", Policy: PolicyOverwrite},
	{Field: FieldSummary, Name: "summary", Policy: PolicyOverwrite},
	{Field: FieldCurrentStep, Name: "current_step", Policy: PolicyOverwrite},
	{Field: FieldError, Name: "error", Policy: PolicyOverwrite},
}

// Schema returns the field table used by Merge.
func Schema() []FieldSpec {
	return slices.Clone(schema)
}

func (f Field) spec() (FieldSpec, bool) {
	for _, s := range schema {
		if s.Field == f {
			return s, true
		}
	}
	return FieldSpec{}, false
}

func (f Field) String() string {
	if s, ok := f.spec(); ok {
		return s.Name
	}
	return "unknown"
}

// Policy returns the merge policy of the field.
func (f Field) Policy() MergePolicy {
	s, _ := f.spec()
	return s.Policy
}

// ParseField resolves a field by its serialized name.
func ParseField(name string) (Field, bool) {
	for _, s := range schema {
		if s.Name == name {
			return s.Field, true
		}
	}
	return 0, false
}

// FieldSet is a set of State fields.
type FieldSet uint8

// AllFields contains every State field.
const AllFields = FieldSet(FieldTopic | FieldSearchQueries | FieldSearchResults |
	FieldKeyFindings | FieldSummary | FieldCurrentStep | FieldError)

// Fields builds a FieldSet from individual fields.
func Fields(fs ...Field) FieldSet {
	var set FieldSet
	for _, f := range fs {
		set |= FieldSet(f)
	}
	return set
}

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&FieldSet(f) != 0 }

// Union returns the fields present in either set.
func (s FieldSet) Union(o FieldSet) FieldSet { return s | o }

// Minus returns the fields of s that are not in o.
func (s FieldSet) Minus(o FieldSet) FieldSet { return s &^ o }

// Empty reports whether the set has no fields.
func (s FieldSet) Empty() bool { return s == 0 }

// Names lists the fields of the set in schema order.
func (s FieldSet) Names() []string {
	var names []string
	for _, spec := range schema {
		if s.Has(spec.Field) {
			names = append(names, spec.Name)
		}
	}
	return names
}

// String formats the set as {name,...}.
func (s FieldSet) String() string {
	return "{" + strings.Join(s.Names(), ",") + "}"
}
