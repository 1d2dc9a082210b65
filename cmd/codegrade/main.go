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

	"go.uber.org/zap"

	"github.com/kailas-cloud/codegrade/internal/config"
	"github.com/kailas-cloud/codegrade/internal/failurelog"
	"github.com/kailas-cloud/codegrade/internal/grader"
	logpkg "github.com/kailas-cloud/codegrade/internal/logger"
	"github.com/kailas-cloud/codegrade/internal/metrics"
	"github.com/kailas-cloud/codegrade/internal/repository/resultcache"
	"github.com/kailas-cloud/codegrade/internal/syntax/python"
	chiTransport "github.com/kailas-cloud/codegrade/internal/transport/chi"
	gradinguc "github.com/kailas-cloud/codegrade/internal/usecase/grading"
	healthuc "github.com/kailas-cloud/codegrade/internal/usecase/health"
	questionuc "github.com/kailas-cloud/codegrade/internal/usecase/question"
	"github.com/kailas-cloud/codegrade/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, logpkg.Options{
		Level:      cfg.Logging.Level,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
		Compress:   cfg.Logging.Compress,
	})
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting codegrade API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
	)

	ctx := context.Background()
	st, err := openStorage(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer st.close()

	// Register grading metrics explicitly (no init()); NewRouter registers the HTTP ones.
	metrics.RegisterGradingMetrics()

	engine := grader.New(python.NewParser())

	questionSvc := questionuc.New(st.questions, engine).
		WithMaxSourceBytes(cfg.Grading.MaxSourceBytes)
	gradingSvc := gradinguc.New(engine, st.questions, logger).
		WithMaxSourceBytes(cfg.Grading.MaxSourceBytes)

	if cfg.Cache.Enabled {
		cache := resultcache.New(st.kv, cfg.Storage.KeyPrefix, cfg.Cache.CacheTTL(), metrics.ResultCacheTotal, logger)
		gradingSvc.WithCache(cache)
		logger.Info("Result cache enabled", zap.Duration("ttl", cfg.Cache.CacheTTL()))
	}

	if cfg.FailureLog.Enabled {
		failures := failurelog.New(failurelog.Config{
			Path:          cfg.FailureLog.Path,
			MaxSizeMB:     cfg.FailureLog.MaxSizeMB,
			MaxBackups:    cfg.FailureLog.MaxBackups,
			MaxAgeDays:    cfg.FailureLog.MaxAgeDays,
			Compress:      cfg.FailureLog.Compress,
			BufferSize:    cfg.FailureLog.BufferSize,
			FlushInterval: cfg.FailureLog.FlushInterval(),
		}, logger)
		failures.OnDrop(metrics.FailureLogDroppedTotal.Inc)
		defer func() {
			if err := failures.Close(); err != nil {
				logger.Error("Failed to close failure log", zap.Error(err))
			}
		}()
		gradingSvc.WithFailureLog(failures)
		logger.Info("Failure log enabled", zap.String("path", cfg.FailureLog.Path))
	}

	healthSvc := healthuc.New(st.pinger, nil)

	server := chiTransport.NewServer(gradingSvc, questionSvc, healthSvc, logger)
	handler := chiTransport.NewRouter(server, chiTransport.RouterConfig{
		CORSOrigins:  cfg.HTTP.CORSOrigins,
		MaxBodyBytes: cfg.HTTP.MaxBodyBytes,
	}, logger)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
