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

	"github.com/riskibarqy/fantasy-waivers/internal/app"
	"github.com/riskibarqy/fantasy-waivers/internal/config"
	"github.com/riskibarqy/fantasy-waivers/internal/observability"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger, drainLogs, err := observability.InitLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("api exited", "error", err)
		_ = drainLogs(context.Background())
		os.Exit(1)
	}
	_ = drainLogs(context.Background())
}

func run(cfg config.Config, logger *logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitUptrace(cfg, logger)
	if err != nil {
		return fmt.Errorf("init uptrace: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("uptrace shutdown failed", "error", err)
		}
	}()

	stopProfiler, err := observability.InitPyroscope(cfg, logger)
	if err != nil {
		return fmt.Errorf("init pyroscope: %w", err)
	}
	defer func() {
		if err := stopProfiler(); err != nil {
			logger.Warn("pyroscope stop failed", "error", err)
		}
	}()

	pprofSrv, err := observability.StartPprofServer(cfg, logger)
	if err != nil {
		return fmt.Errorf("start pprof: %w", err)
	}
	defer func() {
		if err := observability.StopPprofServer(pprofSrv, logger, shutdownTimeout); err != nil {
			logger.Warn("pprof shutdown failed", "error", err)
		}
	}()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server starting", "addr", cfg.HTTPAddr)
		if err := application.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := application.Close(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("http server stopped")
	return nil
}
