package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/repository/dataset"
	cataloguc "github.com/kailas-cloud/assessrec/internal/usecase/catalog"
)

func newBuildCmd(v *viper.Viper) *cobra.Command {
	var dataFile, collection string

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Embed the assessment catalog and write it to the vector index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()

			a, err := newApplication(ctx, v, func(c *config.Config) {
				if dataFile != "" {
					c.Catalog.DataFile = dataFile
				}
				if collection != "" {
					c.VectorStore.Collection = collection
				}
			})
			if err != nil {
				return err
			}
			defer a.Close()

			emb := a.cfg.Embedding
			svc := cataloguc.New(dataset.LoadCatalog, a.index, a.embedder, a.logger,
				cataloguc.WithBatchSize(emb.BatchSize),
				cataloguc.WithBatchPause(time.Duration(emb.BatchPauseMs)*time.Millisecond),
			)

			report, err := svc.Build(ctx, a.cfg.Catalog.DataFile)
			if err != nil {
				return fmt.Errorf("build catalog: %w", err)
			}

			for _, f := range report.Failures {
				a.logger.Warn("Assessment indexed with zero vector",
					zap.Int("index", f.Index), zap.String("name", f.Name), zap.Error(f.Err))
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d assessments\n", report.Records)
			fmt.Fprintf(out, "Generated embeddings in %d batches (%d tokens)\n", report.Batches, report.TotalTokens)
			if len(report.Failures) > 0 {
				fmt.Fprintf(out, "%d assessments fell back to zero vectors\n", len(report.Failures))
			}
			fmt.Fprintf(out, "Collection %q now holds %d points (%s)\n",
				a.index.Collection(), report.Points, report.Duration.Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataFile, "data-file", "", "catalog CSV file (default from config)")
	cmd.Flags().StringVar(&collection, "collection-name", "", "vector collection to create (default from config)")
	return cmd
}
