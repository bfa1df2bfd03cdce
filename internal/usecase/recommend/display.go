package recommend

import (
	"fmt"
	"io"

	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
)

// Display is the presentation shape of one recommendation for CLI output and JSON export.
type Display struct {
	Rank           int      `json:"rank"`
	Name           string   `json:"name"`
	URL            string   `json:"url"`
	RemoteTesting  string   `json:"remote_testing"`
	AdaptiveIRT    string   `json:"adaptive_irt"`
	Duration       string   `json:"duration"`
	TestType       []string `json:"test_type"`
	RelevanceScore float64  `json:"relevance_score"`
}

// Format numbers results from 1 in their ranked order.
func Format(results []assessment.Ranked) []Display {
	out := make([]Display, len(results))
	for i, r := range results {
		types := r.TestTypes
		if types == nil {
			types = []string{}
		}
		out[i] = Display{
			Rank:           i + 1,
			Name:           r.Name,
			URL:            r.URL,
			RemoteTesting:  r.RemoteTesting,
			AdaptiveIRT:    r.AdaptiveIRT,
			Duration:       r.AssessmentLength,
			TestType:       types,
			RelevanceScore: r.RelevanceScore,
		}
	}
	return out
}

// WriteText renders recommendations as a human-readable list.
func WriteText(w io.Writer, query string, recs []Display) error {
	if _, err := fmt.Fprintf(w, "\nResults for query: '%s'\nFound %d recommendations\n\n", query, len(recs)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range recs {
		_, err := fmt.Fprintf(w,
			"%d. %s\n   URL: %s\n   Remote Testing: %s, Adaptive/IRT: %s\n   Duration: %s, Test Type: %s\n   Relevance Score: %.4f\n\n",
			r.Rank, r.Name, r.URL, r.RemoteTesting, r.AdaptiveIRT, r.Duration,
			assessment.JoinTypes(r.TestType), r.RelevanceScore)
		if err != nil {
			return fmt.Errorf("write recommendation %d: %w", r.Rank, err)
		}
	}
	return nil
}
