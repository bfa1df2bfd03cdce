// Package assessment models the catalog of assessment products.
package assessment

import (
	"regexp"
	"strconv"
	"strings"
)

// Test-type vocabulary.
const (
	TypeAbilityAptitude     = "Ability & Aptitude"
	TypeBiodataSituational  = "Biodata & Situational Judgement"
	TypeCompetencies        = "Competencies"
	TypeDevelopment360      = "Development & 360"
	TypeAssessmentExercises = "Assessment Exercises"
	TypeKnowledgeSkills     = "Knowledge & Skills"
	TypePersonalityBehavior = "Personality & Behavior"
	TypeSimulations         = "Simulations"
)

// Yes/No values of the categorical flags.
const (
	Yes = "Yes"
	No  = "No"
)

// Payload field names shared by the index backends and the filter parser.
const (
	FieldName             = "name"
	FieldURL              = "url"
	FieldCategory         = "category"
	FieldDescription      = "description"
	FieldJobLevels        = "job_levels"
	FieldLanguages        = "languages"
	FieldAssessmentLength = "assessment_length"
	FieldRemoteTesting    = "remote_testing"
	FieldAdaptiveIRT      = "adaptive_irt"
	FieldTestType         = "test_type"
)

// TypeSeparator joins test types in catalog files and combined text.
const TypeSeparator = ", "

var minutesRegex = regexp.MustCompile(`\d+`)

// Record is one catalog entry. Name is the identity within a catalog snapshot.
type Record struct {
	Name             string
	URL              string
	Category         string
	Description      string
	JobLevels        string
	Languages        string
	AssessmentLength string
	RemoteTesting    string
	AdaptiveIRT      string
	TestTypes        []string
}

// CombinedText is the sole embedding input for a record.
func (r Record) CombinedText() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteString(". ")
	b.WriteString(r.Category)
	b.WriteString(". ")
	b.WriteString(r.Description)
	b.WriteString(". Job levels: ")
	b.WriteString(r.JobLevels)
	b.WriteString(". Test type: ")
	b.WriteString(JoinTypes(r.TestTypes))
	b.WriteString(".")
	return b.String()
}

// Minutes parses the assessment length. Returns false when unknown.
func (r Record) Minutes() (int, bool) {
	m := minutesRegex.FindString(r.AssessmentLength)
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// HasType reports whether the record carries the given test type.
func (r Record) HasType(t string) bool {
	for _, own := range r.TestTypes {
		if own == t {
			return true
		}
	}
	return false
}

// Payload flattens the record into the field map stored next to its vector.
func (r Record) Payload() map[string]any {
	types := make([]string, len(r.TestTypes))
	copy(types, r.TestTypes)
	return map[string]any{
		FieldName:             r.Name,
		FieldURL:              r.URL,
		FieldCategory:         r.Category,
		FieldDescription:      r.Description,
		FieldJobLevels:        r.JobLevels,
		FieldLanguages:        r.Languages,
		FieldAssessmentLength: r.AssessmentLength,
		FieldRemoteTesting:    r.RemoteTesting,
		FieldAdaptiveIRT:      r.AdaptiveIRT,
		FieldTestType:         types,
	}
}

// FilterFields exposes every payload field as a value set for predicate evaluation.
func (r Record) FilterFields() map[string][]string {
	return map[string][]string{
		FieldName:             {r.Name},
		FieldURL:              {r.URL},
		FieldCategory:         {r.Category},
		FieldDescription:      {r.Description},
		FieldJobLevels:        {r.JobLevels},
		FieldLanguages:        {r.Languages},
		FieldAssessmentLength: {r.AssessmentLength},
		FieldRemoteTesting:    {r.RemoteTesting},
		FieldAdaptiveIRT:      {r.AdaptiveIRT},
		FieldTestType:         r.TestTypes,
	}
}

// FromPayload restores a record from a payload map.
// test_type may arrive as []string, []any (decoded JSON) or a joined string.
func FromPayload(p map[string]any) Record {
	return Record{
		Name:             str(p[FieldName]),
		URL:              str(p[FieldURL]),
		Category:         str(p[FieldCategory]),
		Description:      str(p[FieldDescription]),
		JobLevels:        str(p[FieldJobLevels]),
		Languages:        str(p[FieldLanguages]),
		AssessmentLength: str(p[FieldAssessmentLength]),
		RemoteTesting:    str(p[FieldRemoteTesting]),
		AdaptiveIRT:      str(p[FieldAdaptiveIRT]),
		TestTypes:        types(p[FieldTestType]),
	}
}

// SplitTypes parses a comma-separated test-type cell. Blank entries are dropped.
func SplitTypes(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinTypes renders test types the way catalog files store them.
func JoinTypes(types []string) string {
	return strings.Join(types, TypeSeparator)
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func types(v any) []string {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return SplitTypes(t)
	default:
		return nil
	}
}

// Point is a record stored in the vector index under an integer id.
// The id is the record's position in the upsert call.
type Point struct {
	ID     int
	Vector []float32
	Record Record
}

// Ranked is a record with its similarity to the query. Higher is better.
// PointID breaks score ties in catalog insertion order.
type Ranked struct {
	Record
	PointID        int
	RelevanceScore float64
}

// Names extracts identities in rank order.
func Names(results []Ranked) []string {
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return names
}

// LabeledQuery is one entry of an evaluation test set.
type LabeledQuery struct {
	Query               string   `json:"query"`
	Description         string   `json:"description,omitempty"`
	RelevantAssessments []string `json:"relevant_assessments"`
}
