package redis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/assessrec/internal/db"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
)

// scoreAttr is the distance FT.SEARCH attaches to every KNN hit.
const scoreAttr = "__" + db.VectorAttr + "_score"

// KNN runs a pre-filtered nearest-neighbour FT.SEARCH and converts cosine
// distances to similarities. Hits keep server order.
func (s *Store) KNN(ctx context.Context, q *db.KNNQuery) ([]db.Hit, error) {
	switch {
	case q.Index == "":
		return nil, errors.New("index is required")
	case len(q.Vector) == 0:
		return nil, errors.New("vector is required")
	case q.K <= 0:
		return nil, fmt.Errorf("k must be positive, got %d", q.K)
	}

	args := []string{q.Index, knnQuery(q.Filters, q.K)}
	if len(q.Return) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.Return)+1))
		args = append(args, q.Return...)
		args = append(args, scoreAttr)
	}
	// without LIMIT the server caps the reply at 10
	args = append(args,
		"LIMIT", "0", strconv.Itoa(q.K),
		"PARAMS", "2", "BLOB", string(db.EncodeVector(q.Vector)),
		"DIALECT", "2",
	)

	raw, err := s.client.Do(ctx, s.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()).ToArray()
	if err != nil {
		if isMissingIndex(err) {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpSearch, Key: q.Index, Err: err}
	}
	return parseHits(raw)
}

// parseHits reads the RESP2 reply [total, key1, [f, v, ...], key2, [...], ...].
func parseHits(raw []rueidis.RedisMessage) ([]db.Hit, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	if _, err := raw[0].AsInt64(); err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	hits := make([]db.Hit, 0, (len(raw)-1)/2)
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse key of hit %d: %w", len(hits), err)
		}
		pairs, err := raw[i+1].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse fields of %s: %w", key, err)
		}

		fields := fieldMap(pairs)
		hit := db.Hit{Key: key, Fields: fields}
		if d, err := strconv.ParseFloat(fields[scoreAttr], 64); err == nil {
			// cosine distance in [0, 2]
			hit.Score = math.Max(-1, math.Min(1, 1-d))
		}
		delete(fields, scoreAttr)
		delete(fields, db.VectorAttr)
		hits = append(hits, hit)
	}
	return hits, nil
}

func fieldMap(pairs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for j := 0; j+1 < len(pairs); j += 2 {
		name, err := pairs[j].ToString()
		if err != nil {
			continue
		}
		if value, err := pairs[j+1].ToString(); err == nil {
			m[name] = value
		}
	}
	return m
}

func knnQuery(spec filter.Spec, k int) string {
	knn := fmt.Sprintf("[KNN %d @%s $BLOB]", k, db.VectorAttr)
	if pre := preFilter(spec); pre != "" {
		return "(" + pre + ")=>" + knn
	}
	return "*=>" + knn
}

// preFilter renders a filter.Spec as space-separated tag clauses, which
// FT.SEARCH intersects.
func preFilter(spec filter.Spec) string {
	preds := spec.Predicates()
	clauses := make([]string, 0, len(preds))
	for _, p := range preds {
		switch t := p.(type) {
		case filter.Equals:
			clauses = append(clauses, tagClause(t.Field(), t.Value()))
		case filter.AnyOf:
			clauses = append(clauses, tagClause(t.Field(), t.Values()...))
		default:
			panic(fmt.Sprintf("redis: unsupported predicate %T", p))
		}
	}
	return strings.Join(clauses, " ")
}

// tagClause matches any of values on field.
func tagClause(field string, values ...string) string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = tagEscaper.Replace(v)
	}
	return "@" + field + ":{" + strings.Join(escaped, " | ") + "}"
}

// tagEscaper backslash-escapes the FT query punctuation that may appear in catalog values.
var tagEscaper = func() *strings.Replacer {
	const special = ",.<>{}[]\"':;!@#$%^&*()-+=~|/ "
	pairs := make([]string, 0, 2*len(special))
	for _, r := range special {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()
