package observability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/config"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

func newPprofMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /debug/pprof/", pprof.Index)
	mux.HandleFunc("GET /debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("GET /debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("GET /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("POST /debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("GET /debug/pprof/trace", pprof.Trace)
	return mux
}

// StartPprofServer binds the debug listener before returning so a taken port
// fails startup instead of surfacing later in a goroutine.
func StartPprofServer(cfg config.Config, logger *logging.Logger) (*http.Server, error) {
	if logger == nil {
		logger = logging.Default()
	}

	if !cfg.PprofEnabled {
		logger.Info("pprof disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}

	ln, err := net.Listen("tcp", cfg.PprofAddr)
	if err != nil {
		return nil, fmt.Errorf("listen pprof addr=%s: %w", cfg.PprofAddr, err)
	}

	srv := &http.Server{
		Addr:              ln.Addr().String(),
		Handler:           newPprofMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("pprof server starting", "addr", srv.Addr)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("pprof server failed", "error", err)
		}
	}()

	return srv, nil
}

func StopPprofServer(srv *http.Server, logger *logging.Logger, timeout time.Duration) error {
	if srv == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown pprof server: %w", err)
	}
	logger.Info("pprof server stopped")
	return nil
}
