package observability

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/config"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"go.uber.org/zap/zapcore"
)

// InitLogger fans log entries out to stdout plus the optional Better Stack
// and Uptrace sinks. The returned shutdown drains queued shipments.
func InitLogger(cfg config.Config) (*logging.Logger, func(context.Context) error, error) {
	cores := []zapcore.Core{logging.NewJSONCore(zapcore.AddSync(os.Stdout), cfg.LogLevel)}
	drains := make([]func(context.Context) error, 0, 1)

	if cfg.BetterStackEnabled {
		core, syncer, err := newBetterStackCore(cfg)
		if err != nil {
			return nil, nil, err
		}
		cores = append(cores, core)
		drains = append(drains, syncer.Close)
	}
	if cfg.UptraceEnabled && cfg.UptraceLogsEnabled {
		cores = append(cores, newUptraceLogCore(cfg.ServiceVersion, cfg.LogLevel))
	}

	logger := logging.New(zapcore.NewTee(cores...)).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logger.Info("logger initialized",
		"level", cfg.LogLevel.String(),
		"betterstack", cfg.BetterStackEnabled,
		"uptrace_logs", cfg.UptraceEnabled && cfg.UptraceLogsEnabled,
	)

	return logger, func(ctx context.Context) error {
		if ctx == nil {
			ctx = context.Background()
		}
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			withTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			ctx = withTimeout
		}
		for _, drain := range drains {
			if err := drain(ctx); err != nil {
				return fmt.Errorf("drain log shipping queue: %w", err)
			}
		}
		if err := logger.Sync(); err != nil && !isIgnorableLoggerSyncError(err) {
			return err
		}
		return nil
	}, nil
}

// stdout on some platforms rejects fsync.
func isIgnorableLoggerSyncError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "bad file descriptor") || strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}
