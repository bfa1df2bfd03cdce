package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/assessrec/internal/transport/chi"
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP recommendation API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := commandContext(cmd)
			defer stop()
			return runServe(ctx, v)
		},
	}
}

func runServe(ctx context.Context, v *viper.Viper) error {
	a, err := newApplication(ctx, v, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.index.EnsureCollection(ctx); err != nil {
		return fmt.Errorf("ensure collection: %w", err)
	}
	if n, err := a.index.Count(ctx); err != nil {
		a.logger.Warn("Could not count indexed assessments", zap.Error(err))
	} else if n == 0 {
		a.logger.Warn("Index is empty; run `assessrec build` first",
			zap.String("collection", a.index.Collection()))
	} else {
		a.logger.Info("Index ready", zap.Int("points", n))
	}

	server := chiTransport.NewServer(a.recommender, a.health, a.logger,
		chiTransport.WithFilterMode(a.filterMode()))

	cfg := a.cfg.HTTP
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: seconds(cfg.ReadTimeoutSec),
		ReadTimeout:       seconds(cfg.ReadTimeoutSec),
		WriteTimeout:      seconds(cfg.WriteTimeoutSec),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
