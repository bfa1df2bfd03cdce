package vector

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	pingFn         func(ctx context.Context) error
	writeHashesFn  func(ctx context.Context, hashes []db.Hash) error
	createIndexFn  func(ctx context.Context, schema *db.Schema) error
	indexExistsFn  func(ctx context.Context, name string) (bool, error)
	countIndexedFn func(ctx context.Context, name string) (int, error)
	knnFn          func(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error)
}

func (m *mockStore) Ping(ctx context.Context) error {
	if m.pingFn != nil {
		return m.pingFn(ctx)
	}
	return nil
}

func (m *mockStore) WriteHashes(ctx context.Context, hashes []db.Hash) error {
	if m.writeHashesFn != nil {
		return m.writeHashesFn(ctx, hashes)
	}
	return nil
}

func (m *mockStore) CreateIndex(ctx context.Context, schema *db.Schema) error {
	if m.createIndexFn != nil {
		return m.createIndexFn(ctx, schema)
	}
	return nil
}

func (m *mockStore) IndexExists(ctx context.Context, name string) (bool, error) {
	if m.indexExistsFn != nil {
		return m.indexExistsFn(ctx, name)
	}
	return false, nil
}

func (m *mockStore) CountIndexed(ctx context.Context, name string) (int, error) {
	if m.countIndexedFn != nil {
		return m.countIndexedFn(ctx, name)
	}
	return 0, nil
}

func (m *mockStore) KNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error) {
	if m.knnFn != nil {
		return m.knnFn(ctx, q)
	}
	return nil, nil
}
