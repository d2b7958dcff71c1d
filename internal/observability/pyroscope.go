package observability

import (
	"fmt"
	"runtime"

	"github.com/grafana/pyroscope-go"
	"github.com/riskibarqy/fantasy-waivers/internal/config"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

// Keyed pass locks and the settlement transaction are where waiver passes
// wait, so mutex and block sampling stay on next to CPU and heap.
const (
	mutexProfileFraction = 5
	blockProfileRate     = 10_000
)

// pyroscopeLogger routes profiler chatter through the service logger.
type pyroscopeLogger struct {
	logger *logging.Logger
}

func (l pyroscopeLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l pyroscopeLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l pyroscopeLogger) Errorf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

// InitPyroscope starts continuous profiling when enabled.
func InitPyroscope(cfg config.Config, logger *logging.Logger) (func() error, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return func() error { return nil }, nil
	}

	runtime.SetMutexProfileFraction(mutexProfileFraction)
	runtime.SetBlockProfileRate(blockProfileRate)

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Logger:            pyroscopeLogger{logger: logger.Named("pyroscope")},
		Tags:              pyroscopeTags(cfg),
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
			pyroscope.ProfileMutexCount,
			pyroscope.ProfileMutexDuration,
			pyroscope.ProfileBlockCount,
			pyroscope.ProfileBlockDuration,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}

	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
	)

	return func() error {
		runtime.SetMutexProfileFraction(0)
		runtime.SetBlockProfileRate(0)
		return profiler.Stop()
	}, nil
}

func pyroscopeTags(cfg config.Config) map[string]string {
	return map[string]string{
		"env":         cfg.AppEnv,
		"service":     cfg.ServiceName,
		"storage":     cfg.StorageDriver,
		"waiver_mode": string(cfg.WaiverDefaults.Mode),
	}
}
