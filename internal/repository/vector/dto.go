package vector

import (
	"strings"

	"github.com/kailas-cloud/assessrec/internal/db"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
)

// typeSeparator joins test types inside the multi-valued TAG field.
const typeSeparator = ","

// buildHashFields converts a point into a flat map for HSET.
func buildHashFields(p assessment.Point) map[string]string {
	r := p.Record
	return map[string]string{
		assessment.FieldName:             r.Name,
		assessment.FieldURL:              r.URL,
		assessment.FieldCategory:         r.Category,
		assessment.FieldDescription:      r.Description,
		assessment.FieldJobLevels:        r.JobLevels,
		assessment.FieldLanguages:        r.Languages,
		assessment.FieldAssessmentLength: r.AssessmentLength,
		assessment.FieldRemoteTesting:    r.RemoteTesting,
		assessment.FieldAdaptiveIRT:      r.AdaptiveIRT,
		assessment.FieldTestType:         strings.Join(r.TestTypes, typeSeparator),
		db.VectorAttr:                    string(db.EncodeVector(p.Vector)),
	}
}

// parseHashFields converts a flat hash map back into a record.
func parseHashFields(m map[string]string) assessment.Record {
	p := make(map[string]any, len(m))
	for k, v := range m {
		p[k] = v
	}
	return assessment.FromPayload(p)
}
