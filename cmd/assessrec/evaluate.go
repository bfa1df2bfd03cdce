package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/repository/dataset"
	evaluationuc "github.com/kailas-cloud/assessrec/internal/usecase/evaluation"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
)

func newEvaluateCmd(v *viper.Viper) *cobra.Command {
	var (
		queriesFile string
		k           int
		enhanced    bool
		output      string
		collection  string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Measure Recall@K and MAP@K against a labelled query set",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			a, err := newApplication(ctx, v, func(c *config.Config) {
				if queriesFile != "" {
					c.Catalog.QueriesFile = queriesFile
				}
				collectionOverride(collection)(c)
			})
			if err != nil {
				return err
			}
			defer a.Close()

			queries, err := dataset.LoadQueries(a.cfg.Catalog.QueriesFile)
			if err != nil {
				return fmt.Errorf("load queries: %w", err)
			}

			recommend := func(ctx context.Context, query string, k int, enhanced bool) ([]assessment.Ranked, error) {
				return a.recommender.Recommend(ctx, recommenduc.Request{Query: query, TopK: k, Enhanced: enhanced})
			}
			report, err := evaluationuc.Evaluate(ctx, recommend, queries, k, enhanced, a.logger)
			if err != nil {
				return fmt.Errorf("evaluate: %w", err)
			}

			printReport(cmd.OutOrStdout(), report)
			if output != "" {
				if err := writeJSONFile(output, report); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Detailed results saved to %s\n", output)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&queriesFile, "queries-file", "", "JSON file of labelled test queries (default from config)")
	flags.IntVar(&k, "k", 10, "cutoff for Recall@K and MAP@K")
	flags.BoolVar(&enhanced, "enhanced", false, "rewrite queries with an LLM before embedding")
	flags.StringVar(&output, "output", "", "save the detailed report as JSON to this file")
	flags.StringVar(&collection, "collection-name", "", "vector collection to query (default from config)")
	return cmd
}

func printReport(w io.Writer, r evaluationuc.Report) {
	mode := "direct"
	if r.Enhanced {
		mode = "enhanced"
	}
	fmt.Fprintf(w, "\nEvaluation (%s, K=%d) over %d queries\n", mode, r.K, len(r.Queries))
	for i, q := range r.Queries {
		fmt.Fprintf(w, "%d. %s\n   Recall@%d: %.4f  MAP@%d: %.4f\n", i+1, q.Query, r.K, q.RecallAtK, r.K, q.MAPAtK)
		if q.Error != "" {
			fmt.Fprintf(w, "   Error: %s\n", q.Error)
		}
	}
	fmt.Fprintf(w, "\nMean Recall@%d: %.4f\nMean MAP@%d: %.4f\n", r.K, r.MeanRecallAtK, r.K, r.MeanMAPAtK)
	if r.FailedQueries > 0 {
		fmt.Fprintf(w, "Failed queries: %d\n", r.FailedQueries)
	}
}
