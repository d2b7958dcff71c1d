package httpapi

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-waivers/internal/domain/user"
	"github.com/riskibarqy/fantasy-waivers/internal/platform/logging"
	"github.com/riskibarqy/fantasy-waivers/internal/usecase"
)

const internalJobTokenHeader = "X-Internal-Job-Token"

// TokenVerifier resolves a bearer token to the calling fantasy manager.
type TokenVerifier interface {
	VerifyAccessToken(ctx context.Context, token string) (user.Principal, error)
}

func RequireAuth(verifier TokenVerifier, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := bearerToken(r.Header.Get("Authorization"))
		if err != nil {
			writeError(ctx, w, err)
			return
		}
		principal, err := verifier.VerifyAccessToken(ctx, token)
		if err != nil {
			writeError(ctx, w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(withPrincipal(ctx, principal)))
	})
}

func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", fmt.Errorf("%w: missing Authorization header", usecase.ErrUnauthorized)
	}
	scheme, token, ok := strings.Cut(header, " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", fmt.Errorf("%w: invalid Authorization header format", usecase.ErrUnauthorized)
	}
	return token, nil
}

// RequireInternalJobToken guards the job endpoints QStash calls back into.
// QStash forwards the token through Upstash-Forward-X-Internal-Job-Token.
func RequireInternalJobToken(token string, next http.Handler) http.Handler {
	expected := []byte(strings.TrimSpace(token))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if len(expected) == 0 {
			writeError(ctx, w, fmt.Errorf("%w: internal job token is not configured", usecase.ErrDependencyUnavailable))
			return
		}
		provided := []byte(strings.TrimSpace(r.Header.Get(internalJobTokenHeader)))
		if subtle.ConstantTimeCompare(provided, expected) != 1 {
			writeError(ctx, w, fmt.Errorf("%w: invalid internal job token", usecase.ErrUnauthorized))
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += n
	return n, err
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func RequestLogging(logger *logging.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rec, r)

		status := rec.status
		if status == 0 {
			status = http.StatusOK
		}
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", rec.bytes,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(started).Milliseconds(),
		}
		if status >= http.StatusInternalServerError {
			logger.WarnContext(ctx, "http request", args...)
			return
		}
		logger.InfoContext(ctx, "http request", args...)
	})
}

func CORS(allowedOrigins []string, next http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		switch origin = strings.TrimSpace(origin); origin {
		case "":
		case "*":
			allowAll = true
		default:
			allowed[origin] = struct{}{}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			next.ServeHTTP(w, r)
			return
		}

		_, ok := allowed[origin]
		switch {
		case allowAll:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case ok:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		if allowAll || ok {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Accept,"+internalJobTokenHeader)
			w.Header().Set("Access-Control-Max-Age", "600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
