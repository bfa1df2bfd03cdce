// Package evaluation scores ranking quality against a labeled query set.
package evaluation

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
)

// RecommendFunc runs one recommendation for evaluation.
type RecommendFunc func(ctx context.Context, query string, k int, enhanced bool) ([]assessment.Ranked, error)

// QueryResult is the per-query detail of an evaluation run.
type QueryResult struct {
	Query           string   `json:"query"`
	Description     string   `json:"description"`
	Relevant        []string `json:"relevant_assessments"`
	Recommendations []string `json:"recommendations"`
	RecallAtK       float64  `json:"recall_at_k"`
	MAPAtK          float64  `json:"map_at_k"`
	Error           string   `json:"error,omitempty"`
}

// Report aggregates an evaluation run.
type Report struct {
	K             int           `json:"k"`
	Enhanced      bool          `json:"enhanced"`
	Queries       []QueryResult `json:"queries"`
	MeanRecallAtK float64       `json:"mean_recall_at_k"`
	MeanMAPAtK    float64       `json:"mean_map_at_k"`
	FailedQueries int           `json:"failed_queries"`
}

// Evaluate runs every query and averages both metrics.
// A failing query scores 0 and is recorded; only context cancellation aborts the run.
func Evaluate(
	ctx context.Context, recommend RecommendFunc, queries []assessment.LabeledQuery,
	k int, enhanced bool, logger *zap.Logger,
) (Report, error) {
	if k <= 0 {
		return Report{}, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidArgument, k)
	}

	report := Report{K: k, Enhanced: enhanced, Queries: make([]QueryResult, 0, len(queries))}

	var recallSum, mapSum float64
	for i, q := range queries {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("evaluation aborted at query %d: %w", i, err)
		}

		qr := QueryResult{
			Query:           q.Query,
			Description:     q.Description,
			Relevant:        q.RelevantAssessments,
			Recommendations: []string{},
		}

		results, err := recommend(ctx, q.Query, k, enhanced)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return report, fmt.Errorf("evaluation aborted at query %d: %w", i, err)
			}
			logger.Warn("Evaluation query failed", zap.Int("index", i), zap.String("query", q.Query), zap.Error(err))
			qr.Error = err.Error()
			report.FailedQueries++
		} else {
			names := assessment.Names(results)
			if len(names) > k {
				names = names[:k]
			}
			qr.Recommendations = names
			qr.RecallAtK = RecallAtK(q.RelevantAssessments, names, k)
			qr.MAPAtK = MAPAtK(q.RelevantAssessments, names, k)
		}

		recallSum += qr.RecallAtK
		mapSum += qr.MAPAtK
		report.Queries = append(report.Queries, qr)
	}

	if n := len(report.Queries); n > 0 {
		report.MeanRecallAtK = recallSum / float64(n)
		report.MeanMAPAtK = mapSum / float64(n)
	}
	return report, nil
}
