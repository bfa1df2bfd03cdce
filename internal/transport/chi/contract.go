package chi

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
)

// Recommender serves ranked assessments for text and URL queries.
type Recommender interface {
	Recommend(ctx context.Context, req recommenduc.Request) ([]assessment.Ranked, error)
	RecommendFromURL(
		ctx context.Context, url string, topK int, enhanced bool, filters filter.Spec,
	) ([]assessment.Ranked, error)
}

// HealthChecker reports dependency availability.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
