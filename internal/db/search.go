package db

import (
	"encoding/binary"
	"math"

	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

// VectorAttr is the hash field vectors are stored and indexed under.
const VectorAttr = "vector"

// KNNQuery asks for the K nearest hashes of Index that satisfy Filters.
type KNNQuery struct {
	Index   string
	Filters filter.Spec
	Vector  []float32
	K       int
	Return  []string
}

// Hit is one KNN match. Score is cosine similarity in [-1, 1].
type Hit struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// EncodeVector serializes a vector as little-endian FLOAT32, the layout FT indexes expect.
func EncodeVector(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// DecodeVector is the inverse of EncodeVector. Trailing partial floats are dropped.
func DecodeVector(b []byte) []float32 {
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v
}
