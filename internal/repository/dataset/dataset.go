// Package dataset loads the assessment catalog and evaluation test sets from files.
package dataset

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
)

// LoadCatalog reads a catalog CSV file.
func LoadCatalog(path string) (*assessment.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	c, err := ReadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return c, nil
}

// ReadCatalog parses catalog rows keyed by header name.
// Missing columns and short rows become empty strings.
func ReadCatalog(r io.Reader) (*assessment.Catalog, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return assessment.NewCatalog(nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols[assessment.FieldName]; !ok {
		return nil, fmt.Errorf("%w: catalog has no %q column", domain.ErrInvalidArgument, assessment.FieldName)
	}

	var records []assessment.Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		get := func(field string) string {
			i, ok := cols[field]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		records = append(records, assessment.Record{
			Name:             get(assessment.FieldName),
			URL:              get(assessment.FieldURL),
			Category:         get(assessment.FieldCategory),
			Description:      get(assessment.FieldDescription),
			JobLevels:        get(assessment.FieldJobLevels),
			Languages:        get(assessment.FieldLanguages),
			AssessmentLength: get(assessment.FieldAssessmentLength),
			RemoteTesting:    get(assessment.FieldRemoteTesting),
			AdaptiveIRT:      get(assessment.FieldAdaptiveIRT),
			TestTypes:        assessment.SplitTypes(get(assessment.FieldTestType)),
		})
	}

	return assessment.NewCatalog(records), nil
}

// LoadQueries reads an evaluation test set: a JSON array of labeled queries.
func LoadQueries(path string) ([]assessment.LabeledQuery, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read queries %s: %w", path, err)
	}

	var queries []assessment.LabeledQuery
	if err := json.Unmarshal(data, &queries); err != nil {
		return nil, fmt.Errorf("parse queries %s: %w", path, err)
	}
	return queries, nil
}
