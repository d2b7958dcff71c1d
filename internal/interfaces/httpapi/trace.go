package httpapi

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	apiTracer = otel.Tracer("fantasy-waivers/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// probePaths are hit by load balancers every few seconds and are never traced.
var probePaths = map[string]struct{}{
	"/healthz": {},
	"/health":  {},
	"/livez":   {},
	"/readyz":  {},
}

// startSpan opens a child span for handlers only. Middleware and response
// helpers share the otelhttp server span instead of adding their own.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() || !shouldCreateHTTPAPISpan(name) {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func shouldCreateHTTPAPISpan(name string) bool {
	return strings.HasPrefix(name, "httpapi.Handler.")
}

func leagueAttr(leagueID string) attribute.KeyValue {
	return attribute.String("waiver.league_id", leagueID)
}

func RequestTracing(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "fantasy-waivers-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
		otelhttp.WithFilter(func(r *http.Request) bool {
			return shouldTraceRequest(r.URL.Path)
		}),
	)
}

func shouldTraceRequest(path string) bool {
	_, probe := probePaths[strings.ToLower(strings.TrimSpace(path))]
	return !probe
}
