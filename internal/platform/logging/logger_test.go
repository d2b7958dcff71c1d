package logging

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel/trace"
)

func TestLogger_WritesFieldsAndTrace(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSON(&buf, LevelInfo).Named("waiver").With("league_id", "epl")

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	logger.InfoContext(ctx, "pass completed", "successful", 3, "error", errors.New("none"), "dangling")
	logger.Debug("filtered out")

	out := buf.String()
	for _, want := range []string{
		`"msg":"pass completed"`,
		`"logger":"waiver"`,
		`"league_id":"epl"`,
		`"successful":3`,
		`"error":"none"`,
		`"dangling":null`,
		`"trace_id":"4bf92f3577b34da6a3ce929d0e0e4736"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("log output missing %s:\n%s", want, out)
		}
	}
	if strings.Contains(out, "filtered out") {
		t.Fatalf("debug line written at info level")
	}
}

func TestLogger_NilSafe(t *testing.T) {
	var logger *Logger
	logger.Info("no panic")
	logger.With("k", "v").WarnContext(context.Background(), "still no panic")
	if err := logger.Sync(); err != nil {
		t.Fatalf("sync on nil logger: %v", err)
	}
}
