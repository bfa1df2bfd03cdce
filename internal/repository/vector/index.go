package vector

import (
	"github.com/kailas-cloud/assessrec/internal/db"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
)

// Scalar tags hold whole values; "|" never appears in catalog text.
const scalarSeparator = "|"

// tagFields are indexed for filtering, in schema order. Every payload field is
// indexed so lenient pass-through predicates can target any of them.
var tagFields = []string{
	assessment.FieldRemoteTesting,
	assessment.FieldAdaptiveIRT,
	assessment.FieldTestType,
	assessment.FieldCategory,
	assessment.FieldJobLevels,
	assessment.FieldLanguages,
	assessment.FieldName,
	assessment.FieldURL,
	assessment.FieldAssessmentLength,
	assessment.FieldDescription,
}

// payloadFields are returned with every search hit.
var payloadFields = []string{
	assessment.FieldName,
	assessment.FieldURL,
	assessment.FieldCategory,
	assessment.FieldDescription,
	assessment.FieldJobLevels,
	assessment.FieldLanguages,
	assessment.FieldAssessmentLength,
	assessment.FieldRemoteTesting,
	assessment.FieldAdaptiveIRT,
	assessment.FieldTestType,
}

// catalogSchema is the FT schema of a catalog collection.
func catalogSchema(collection string, dim int, hnsw HNSWConfig) *db.Schema {
	s := db.NewSchema(indexName(collection), collectionPrefix(collection))
	for _, f := range tagFields {
		sep := scalarSeparator
		if f == assessment.FieldTestType {
			sep = typeSeparator
		}
		s.Tag(f, sep)
	}
	return s.HNSW(db.VectorAttr, dim, db.DistanceCosine, hnsw.M, hnsw.EFConstruct)
}
