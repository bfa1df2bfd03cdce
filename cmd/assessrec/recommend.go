package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/domain/assessment"
	"github.com/kailas-cloud/assessrec/internal/domain/filter"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
)

type recommendFlags struct {
	jobURL        string
	remoteTesting string
	adaptiveIRT   string
	testTypes     string
	limit         int
	enhanced      bool
	output        string
	collection    string
}

// filters mirrors the HTTP body shape so both surfaces share filter.Parse.
func (f recommendFlags) filters() map[string]any {
	raw := map[string]any{}
	if f.remoteTesting != "" {
		raw[assessment.FieldRemoteTesting] = f.remoteTesting
	}
	if f.adaptiveIRT != "" {
		raw[assessment.FieldAdaptiveIRT] = f.adaptiveIRT
	}
	if f.testTypes != "" {
		raw[assessment.FieldTestType] = f.testTypes
	}
	return raw
}

func newRecommendCmd(v *viper.Viper) *cobra.Command {
	var f recommendFlags

	cmd := &cobra.Command{
		Use:   "recommend <query>",
		Short: "Recommend assessments for a query or job description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			query := strings.Join(args, " ")

			a, err := newApplication(ctx, v, collectionOverride(f.collection))
			if err != nil {
				return err
			}
			defer a.Close()

			spec, err := filter.Parse(f.filters(), a.filterMode())
			if err != nil {
				return fmt.Errorf("parse filters: %w", err)
			}

			results, err := a.recommender.Recommend(ctx, recommenduc.Request{
				Query:     query,
				TopK:      f.limit,
				Enhanced:  f.enhanced,
				Filters:   spec,
				SourceURL: f.jobURL,
			})
			if err != nil {
				return fmt.Errorf("recommend: %w", err)
			}

			recs := recommenduc.Format(results)
			if err := recommenduc.WriteText(cmd.OutOrStdout(), query, recs); err != nil {
				return err //nolint:wrapcheck // already describes the failed write
			}
			if f.output != "" {
				if err := writeJSONFile(f.output, recs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Recommendations saved to %s\n", f.output)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.jobURL, "job-url", "", "URL of the job description, named in the enhancement prompt")
	flags.StringVar(&f.remoteTesting, "remote-testing", "", "filter by remote testing support (Yes/No)")
	flags.StringVar(&f.adaptiveIRT, "adaptive-irt", "", "filter by adaptive/IRT support (Yes/No)")
	flags.StringVar(&f.testTypes, "test-types", "", "comma-separated list of test types to include")
	flags.IntVar(&f.limit, "limit", 10, "maximum number of recommendations")
	flags.BoolVar(&f.enhanced, "enhanced", false, "rewrite the query with an LLM before embedding")
	flags.StringVar(&f.output, "output", "", "save recommendations as JSON to this file")
	flags.StringVar(&f.collection, "collection-name", "", "vector collection to query (default from config)")
	return cmd
}

func collectionOverride(name string) func(*config.Config) {
	return func(c *config.Config) {
		if name != "" {
			c.VectorStore.Collection = name
		}
	}
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	if err := os.WriteFile(filepath.Clean(path), append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
