// Package db is the storage facade behind the Valkey/Redis catalog backend and the embedding cache.
package db

import (
	"context"
	"time"
)

// Store is everything the rueidis driver offers. Consumers declare the narrow subset they use.
type Store interface {
	Pinger
	KV
	Indexes
	Hashes
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KV stores opaque values. A ttl <= 0 stores without expiry.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Indexes manages FT indexes.
type Indexes interface {
	CreateIndex(ctx context.Context, schema *Schema) error
	IndexExists(ctx context.Context, name string) (bool, error)
	CountIndexed(ctx context.Context, name string) (int, error)
}

// Hashes writes hashes and runs vector queries over the indexes that cover them.
type Hashes interface {
	WriteHashes(ctx context.Context, hashes []Hash) error
	KNN(ctx context.Context, q *KNNQuery) ([]Hit, error)
}

// Hash is one key with its field values.
type Hash struct {
	Key    string
	Fields map[string]string
}
