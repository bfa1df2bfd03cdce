package db

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Distance is the similarity metric of a vector field.
type Distance string

// Supported distance metrics.
const (
	DistanceCosine Distance = "COSINE"
	DistanceL2     Distance = "L2"
	DistanceIP     Distance = "IP"
)

// TagField is an exact-match field. Tags are always case sensitive so index
// filtering agrees with in-process predicate evaluation.
type TagField struct {
	Name      string
	Separator string
}

// VectorField is the HNSW vector attribute of a schema.
type VectorField struct {
	Name        string
	Dim         int
	Distance    Distance
	M           int
	EFConstruct int
}

// Schema defines an FT index over hashes stored under Prefix.
type Schema struct {
	Name   string
	Prefix string
	Tags   []TagField
	Vector VectorField
}

// NewSchema starts a schema for the index name covering keys under prefix.
func NewSchema(name, prefix string) *Schema {
	return &Schema{Name: name, Prefix: prefix}
}

// Tag appends a tag field split on separator. An empty separator keeps the FT default.
func (s *Schema) Tag(name, separator string) *Schema {
	s.Tags = append(s.Tags, TagField{Name: name, Separator: separator})
	return s
}

// HNSW sets the vector field. Zero m or efConstruct keep the server defaults.
func (s *Schema) HNSW(name string, dim int, distance Distance, m, efConstruct int) *Schema {
	s.Vector = VectorField{Name: name, Dim: dim, Distance: distance, M: m, EFConstruct: efConstruct}
	return s
}

// TagNames lists tag fields in declaration order.
func (s *Schema) TagNames() []string {
	names := make([]string, len(s.Tags))
	for i, t := range s.Tags {
		names[i] = t.Name
	}
	return names
}

// HasTag reports whether name is an indexed tag field.
func (s *Schema) HasTag(name string) bool {
	return slices.ContainsFunc(s.Tags, func(t TagField) bool { return t.Name == name })
}

// Validate checks the schema before it is sent to the server.
func (s *Schema) Validate() error {
	if s.Name == "" {
		return errors.New("index name is required")
	}
	if !validIdentifier(s.Name) {
		return fmt.Errorf("index name %q contains invalid characters", s.Name)
	}
	if s.Vector.Name == "" {
		return errors.New("vector field is required")
	}
	if s.Vector.Dim <= 0 {
		return fmt.Errorf("vector dim must be positive, got %d", s.Vector.Dim)
	}

	seen := map[string]bool{s.Vector.Name: true}
	for _, t := range s.Tags {
		if t.Name == "" {
			return errors.New("tag field name is required")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate field %q", t.Name)
		}
		seen[t.Name] = true
	}
	return nil
}

// String renders the schema roughly as FT.CREATE would see it, for logs.
func (s *Schema) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "FT.CREATE %s ON HASH PREFIX %s SCHEMA", s.Name, s.Prefix)
	for _, t := range s.Tags {
		fmt.Fprintf(&b, " %s TAG", t.Name)
	}
	fmt.Fprintf(&b, " %s VECTOR HNSW DIM %d %s", s.Vector.Name, s.Vector.Dim, s.Vector.Distance)
	return b.String()
}

// validIdentifier accepts [a-zA-Z0-9_:-]+.
func validIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '_', r == ':', r == '-':
		default:
			return false
		}
	}
	return true
}
