package vector

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/kailas-cloud/assessrec/internal/db"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	var created *db.Schema
	s := &mockStore{
		createIndexFn: func(_ context.Context, schema *db.Schema) error {
			created = schema
			return nil
		},
	}
	r := New(s, HNSWConfig{M: 16, EFConstruct: 200})

	if err := r.EnsureCollection(context.Background(), "catalog", 1536); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatal("expected index creation")
	}
	if created.Name != "assessrec:catalog:idx" {
		t.Errorf("unexpected index name %q", created.Name)
	}
	if created.Prefix != "assessrec:catalog:" {
		t.Errorf("unexpected prefix %q", created.Prefix)
	}
	if v := created.Vector; v.Dim != 1536 || v.Distance != db.DistanceCosine || v.M != 16 || v.EFConstruct != 200 {
		t.Errorf("unexpected vector field %+v", v)
	}
	for _, f := range created.Tags {
		if f.Name == assessment.FieldTestType && f.Separator != "," {
			t.Errorf("test_type must split on comma, got %q", f.Separator)
		}
		if f.Name == assessment.FieldRemoteTesting && f.Separator != "|" {
			t.Errorf("remote_testing must be a whole-value tag, got %q", f.Separator)
		}
		if f.Name == assessment.FieldURL && f.Separator != "|" {
			t.Errorf("url must be a whole-value tag, got %q", f.Separator)
		}
	}
	for _, f := range payloadFields {
		if !slices.Contains(tagFields, f) {
			t.Errorf("payload field %s is not indexed", f)
		}
	}
	if len(created.Tags) != len(tagFields) {
		t.Errorf("expected %d tag fields, got %d", len(tagFields), len(created.Tags))
	}
}

func TestEnsureCollection_Idempotent(t *testing.T) {
	createCalls := 0
	s := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return true, nil },
		createIndexFn: func(context.Context, *db.Schema) error {
			createCalls++
			return nil
		},
	}
	r := New(s, HNSWConfig{})
	for range 2 {
		if err := r.EnsureCollection(context.Background(), "catalog", 4); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if createCalls != 0 {
		t.Errorf("expected no creation for existing index, got %d", createCalls)
	}
}

func TestEnsureCollection_RaceTolerated(t *testing.T) {
	s := &mockStore{
		createIndexFn: func(context.Context, *db.Schema) error { return db.ErrIndexExists },
	}
	if err := New(s, HNSWConfig{}).EnsureCollection(context.Background(), "catalog", 4); err != nil {
		t.Fatalf("expected ErrIndexExists to be tolerated, got %v", err)
	}
}

func TestEnsureCollection_Error(t *testing.T) {
	boom := errors.New("boom")
	s := &mockStore{
		indexExistsFn: func(context.Context, string) (bool, error) { return false, boom },
	}
	err := New(s, HNSWConfig{}).EnsureCollection(context.Background(), "catalog", 4)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestUpsert_ChunksAndKeys(t *testing.T) {
	var batches [][]db.Hash
	s := &mockStore{
		writeHashesFn: func(_ context.Context, hashes []db.Hash) error {
			batches = append(batches, hashes)
			return nil
		},
	}
	points := make([]assessment.Point, upsertChunk+3)
	for i := range points {
		points[i] = assessment.Point{
			ID:     i,
			Vector: []float32{1, 0},
			Record: assessment.Record{
				Name:      fmt.Sprintf("A%d", i),
				TestTypes: []string{assessment.TypeCompetencies, assessment.TypeSimulations},
			},
		}
	}

	if err := New(s, HNSWConfig{}).Upsert(context.Background(), "catalog", points); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batches) != 2 || len(batches[1]) != 3 {
		t.Fatalf("expected 2 chunks, got %d", len(batches))
	}
	first := batches[0][0]
	if first.Key != "assessrec:catalog:0" {
		t.Errorf("unexpected key %q", first.Key)
	}
	if first.Fields[assessment.FieldTestType] != "Competencies,Simulations" {
		t.Errorf("unexpected test_type %q", first.Fields[assessment.FieldTestType])
	}
	if len(first.Fields[db.VectorAttr]) != 8 {
		t.Errorf("expected 8 vector bytes, got %d", len(first.Fields[db.VectorAttr]))
	}
}

func TestUpsert_Error(t *testing.T) {
	boom := errors.New("boom")
	s := &mockStore{
		writeHashesFn: func(context.Context, []db.Hash) error { return boom },
	}
	err := New(s, HNSWConfig{}).Upsert(context.Background(), "catalog", []assessment.Point{{ID: 0}})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestSearch_MapsEntries(t *testing.T) {
	var got *db.KNNQuery
	s := &mockStore{
		knnFn: func(_ context.Context, q *db.KNNQuery) ([]db.Hit, error) {
			got = q
			return []db.Hit{{
				Key:   "assessrec:catalog:12",
				Score: 0.87,
				Fields: map[string]string{
					"name":           "Verify G+",
					"remote_testing": "Yes",
					"test_type":      "Ability & Aptitude,Simulations",
				},
			}}, nil
		},
	}
	spec, _ := filter.Parse(map[string]any{"remote_testing": "Yes"}, filter.Strict)

	results, err := New(s, HNSWConfig{}).Search(context.Background(), "catalog", []float32{1, 0}, 5, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Index != "assessrec:catalog:idx" || got.K != 5 || len(got.Return) != len(payloadFields) {
		t.Errorf("unexpected query %+v", got)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if r.PointID != 12 || r.Name != "Verify G+" || r.RelevanceScore != 0.87 {
		t.Errorf("unexpected result %+v", r)
	}
	if len(r.TestTypes) != 2 || r.TestTypes[0] != assessment.TypeAbilityAptitude {
		t.Errorf("unexpected types %v", r.TestTypes)
	}
}

func TestSearch_UnindexedFieldMatchesNothing(t *testing.T) {
	s := &mockStore{
		knnFn: func(context.Context, *db.KNNQuery) ([]db.Hit, error) {
			t.Fatal("search must not reach the store")
			return nil, nil
		},
	}
	spec, _ := filter.Parse(map[string]any{"duration": "30"}, filter.Lenient)

	results, err := New(s, HNSWConfig{}).Search(context.Background(), "catalog", []float32{1}, 5, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected empty result, got %d", len(results))
	}
}

func TestSearch_LenientPayloadFieldReachesStore(t *testing.T) {
	var got *db.KNNQuery
	s := &mockStore{
		knnFn: func(_ context.Context, q *db.KNNQuery) ([]db.Hit, error) {
			got = q
			return []db.Hit{{
				Key:    "assessrec:catalog:3",
				Score:  0.5,
				Fields: map[string]string{"name": "Java 8", "url": "https://x/java"},
			}}, nil
		},
	}
	spec, _ := filter.Parse(map[string]any{"url": "https://x/java"}, filter.Lenient)

	results, err := New(s, HNSWConfig{}).Search(context.Background(), "catalog", []float32{1}, 5, spec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected the store to be queried")
	}
	preds := got.Filters.Predicates()
	if len(preds) != 1 || preds[0].Field() != "url" {
		t.Errorf("unexpected filters %+v", preds)
	}
	if len(results) != 1 || results[0].URL != "https://x/java" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestSearch_BadKey(t *testing.T) {
	s := &mockStore{
		knnFn: func(context.Context, *db.KNNQuery) ([]db.Hit, error) {
			return []db.Hit{{Key: "other:thing"}}, nil
		},
	}
	if _, err := New(s, HNSWConfig{}).Search(context.Background(), "catalog", []float32{1}, 5, filter.Spec{}); err == nil {
		t.Fatal("expected error for foreign key")
	}
}

func TestSearch_MissingIndexIsEmpty(t *testing.T) {
	s := &mockStore{
		knnFn: func(context.Context, *db.KNNQuery) ([]db.Hit, error) { return nil, db.ErrIndexNotFound },
	}
	results, err := New(s, HNSWConfig{}).Search(context.Background(), "catalog", []float32{1}, 5, filter.Spec{})
	if err != nil || len(results) != 0 {
		t.Errorf("expected empty result without error, got %d (%v)", len(results), err)
	}
}

func TestCount(t *testing.T) {
	s := &mockStore{
		countIndexedFn: func(_ context.Context, index string) (int, error) {
			if index != "assessrec:catalog:idx" {
				t.Errorf("unexpected index %s", index)
			}
			return 377, nil
		},
	}
	n, err := New(s, HNSWConfig{}).Count(context.Background(), "catalog")
	if err != nil || n != 377 {
		t.Errorf("expected 377, got %d (%v)", n, err)
	}
}

func TestCount_MissingIndex(t *testing.T) {
	s := &mockStore{
		countIndexedFn: func(context.Context, string) (int, error) { return 0, db.ErrIndexNotFound },
	}
	n, err := New(s, HNSWConfig{}).Count(context.Background(), "catalog")
	if err != nil || n != 0 {
		t.Errorf("expected 0 without error, got %d (%v)", n, err)
	}
}

func TestPing(t *testing.T) {
	boom := errors.New("down")
	r := New(&mockStore{pingFn: func(context.Context) error { return boom }}, HNSWConfig{})
	if err := r.Ping(context.Background()); !errors.Is(err, boom) {
		t.Errorf("expected wrapped ping error, got %v", err)
	}
}
