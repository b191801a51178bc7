package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/bryanwahyu/policylens/internal/infra/httpserver"
	"github.com/bryanwahyu/policylens/internal/middleware"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func runServe(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stderr)
	slog.SetDefault(logger)

	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set, every analysis will fail upstream")
	}

	client, err := newCompleter(cfg)
	if err != nil {
		return err
	}

	arc, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := arc.close(); err != nil {
			logger.Warn("archive close failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := middleware.NewMetrics(reg)

	svc := newService(cfg, client, logger)
	svc.Archive = arc.store
	svc.Recorder = metrics

	var limiter *middleware.RateLimiter
	stop := make(chan struct{})
	defer close(stop)
	if rl := cfg.Server.RateLimit; rl.Capacity > 0 {
		limiter = middleware.NewRateLimiter(rl.Capacity, rl.RefillPerSecond)
		go limiter.Run(stop, time.Minute, 10*time.Minute)
	}

	handler := httpserver.NewRouter(svc, logger, httpserver.Options{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
		Limiter:        limiter,
		Metrics:        metrics,
		Checkers:       arc.checkers,
		Lister:         arc.lister,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			"addr", addr,
			"llm_client", cfg.LLM.Client,
			"model", svc.Options.Model,
			"archive", cfg.Archive.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	sigCtx, cancelSig := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancelSig()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-sigCtx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
