package httpapi

import (
	"net/http"
	"runtime/debug"

	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
)

// NewRouter wires the waiver routes behind tracing, access logging, CORS and
// panic recovery, outermost first.
func NewRouter(
	handler *Handler,
	verifier TokenVerifier,
	logger *logging.Logger,
	corsAllowedOrigins []string,
	internalJobToken string,
) http.Handler {
	if logger == nil {
		logger = logging.Default()
	}

	mux := http.NewServeMux()
	registerSystemRoutes(mux, handler)
	registerAuthorizedWaiverRoutes(mux, handler, verifier)
	registerInternalJobRoutes(mux, handler, internalJobToken)

	var h http.Handler = mux
	h = recoverPanic(logger, h)
	h = CORS(corsAllowedOrigins, h)
	h = RequestLogging(logger, h)
	return RequestTracing(h)
}

func recoverPanic(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			ctx := r.Context()
			logger.ErrorContext(ctx, "panic recovered",
				"panic", rec,
				"method", r.Method,
				"path", r.URL.Path,
				"stack", string(debug.Stack()),
			)
			writeInternalError(ctx, w)
		}()
		next.ServeHTTP(w, r)
	})
}
