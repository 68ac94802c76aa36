package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pairScope/internal/api"
	"pairScope/internal/calc"
	"pairScope/internal/metrics"
	"pairScope/internal/overview"
)

const shutdownTimeout = 10 * time.Second

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	calculator := calc.NewCalculator(pool.provider,
		calc.WithLogger(logger.Named("calc")),
		calc.WithRecorder(m),
	)
	svc := overview.NewService(pool.provider, pool.stats, cfg.StatsWindow, logger.Named("overview"))

	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(api.Config{
		Calculator:  calculator,
		Overview:    svc,
		Metrics:     m,
		Gatherer:    reg,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger.Named("http"),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			zap.String("addr", cfg.Addr),
			zap.Strings("cors_origins", cfg.CORSOrigins),
			zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
