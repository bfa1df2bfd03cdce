package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/assessrec/internal/db"
)

// CreateIndex runs FT.CREATE for schema. An existing index yields db.ErrIndexExists.
func (s *Store) CreateIndex(ctx context.Context, schema *db.Schema) error {
	args, err := createArgs(schema)
	if err != nil {
		return err
	}

	cmd := s.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpCreateIndex, Key: schema.Name, Err: err}
	}
	return nil
}

// IndexExists probes the index with FT.INFO.
func (s *Store) IndexExists(ctx context.Context, name string) (bool, error) {
	cmd := s.client.B().Arbitrary("FT.INFO").Args(name).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		if isMissingIndex(err) {
			return false, nil
		}
		return false, &db.Error{Op: db.OpIndexInfo, Key: name, Err: err}
	}
	return true, nil
}

// CountIndexed returns how many hashes the index covers.
func (s *Store) CountIndexed(ctx context.Context, name string) (int, error) {
	cmd := s.client.B().Arbitrary("FT.SEARCH").Args(name, "*", "LIMIT", "0", "0").Build()
	raw, err := s.client.Do(ctx, cmd).ToArray()
	if err != nil {
		if isMissingIndex(err) {
			return 0, db.ErrIndexNotFound
		}
		return 0, &db.Error{Op: db.OpSearch, Key: name, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count of %s: %w", name, err)
	}
	return int(total), nil
}

func createArgs(schema *db.Schema) ([]string, error) {
	if schema == nil {
		return nil, errors.New("schema is required")
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	args := []string{schema.Name, "ON", "HASH"}
	if schema.Prefix != "" {
		args = append(args, "PREFIX", "1", schema.Prefix)
	}
	args = append(args, "SCHEMA")

	for _, t := range schema.Tags {
		args = append(args, t.Name, "TAG")
		if t.Separator != "" {
			args = append(args, "SEPARATOR", t.Separator)
		}
		args = append(args, "CASESENSITIVE")
	}

	return append(args, vectorArgs(schema.Vector)...), nil
}

func vectorArgs(v db.VectorField) []string {
	distance := v.Distance
	if distance == "" {
		distance = db.DistanceCosine
	}
	attrs := []string{
		"TYPE", "FLOAT32",
		"DIM", strconv.Itoa(v.Dim),
		"DISTANCE_METRIC", string(distance),
	}
	if v.M > 0 {
		attrs = append(attrs, "M", strconv.Itoa(v.M))
	}
	if v.EFConstruct > 0 {
		attrs = append(attrs, "EF_CONSTRUCTION", strconv.Itoa(v.EFConstruct))
	}

	out := make([]string, 0, 4+len(attrs))
	out = append(out, v.Name, "VECTOR", "HNSW", strconv.Itoa(len(attrs)))
	return append(out, attrs...)
}
