package logging

import (
	"context"
	"io"
	"os"
	"sync/atomic"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Level = zapcore.Level

const (
	LevelDebug = zapcore.DebugLevel
	LevelInfo  = zapcore.InfoLevel
	LevelWarn  = zapcore.WarnLevel
	LevelError = zapcore.ErrorLevel
)

// Logger wraps zap with key/value call sites and trace correlation.
type Logger struct {
	zap *zap.Logger
}

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewNop())
}

// NewJSON writes JSON lines to stdout tagged with the service identity.
func NewJSON(level Level, service, version string) *Logger {
	return newJSON(os.Stdout, level).With("service", service, "version", version)
}

func newJSON(w io.Writer, level Level) *Logger {
	return New(NewJSONCore(zapcore.AddSync(w), level))
}

// EncoderConfig is the JSON line layout shared by every sink.
func EncoderConfig() zapcore.EncoderConfig {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.MessageKey = "msg"
	encoderCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeDuration = zapcore.StringDurationEncoder
	return encoderCfg
}

func NewJSONCore(w zapcore.WriteSyncer, level Level) zapcore.Core {
	return zapcore.NewCore(zapcore.NewJSONEncoder(EncoderConfig()), zapcore.Lock(w), level)
}

// New builds a Logger over an arbitrary core, e.g. a tee of several sinks.
func New(core zapcore.Core) *Logger {
	return FromZap(zap.New(core, zap.AddCaller(), zap.AddCallerSkip(2), zap.AddStacktrace(zapcore.ErrorLevel)))
}

func NewNop() *Logger {
	return FromZap(zap.NewNop())
}

func FromZap(z *zap.Logger) *Logger {
	if z == nil {
		z = zap.NewNop()
	}
	return &Logger{zap: z}
}

func Default() *Logger {
	if logger := defaultLogger.Load(); logger != nil {
		return logger
	}
	return NewNop()
}

func SetDefault(logger *Logger) {
	if logger == nil {
		logger = NewNop()
	}
	defaultLogger.Store(logger)
}

func (l *Logger) Sync() error {
	if l == nil {
		return nil
	}
	return l.zap.Sync()
}

func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return Default().With(args...)
	}
	return &Logger{zap: l.zap.With(fields(args)...)}
}

// Named scopes the logger to a component, e.g. "waiver.processing".
func (l *Logger) Named(name string) *Logger {
	if l == nil {
		return Default().Named(name)
	}
	return &Logger{zap: l.zap.Named(name)}
}

func (l *Logger) Debug(msg string, args ...any) { l.write(nil, zap.DebugLevel, msg, args) }
func (l *Logger) Info(msg string, args ...any)  { l.write(nil, zap.InfoLevel, msg, args) }
func (l *Logger) Warn(msg string, args ...any)  { l.write(nil, zap.WarnLevel, msg, args) }
func (l *Logger) Error(msg string, args ...any) { l.write(nil, zap.ErrorLevel, msg, args) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zap.DebugLevel, msg, args)
}

func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zap.InfoLevel, msg, args)
}

func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zap.WarnLevel, msg, args)
}

func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) {
	l.write(ctx, zap.ErrorLevel, msg, args)
}

func (l *Logger) write(ctx context.Context, level zapcore.Level, msg string, args []any) {
	logger := l
	if logger == nil {
		logger = Default()
	}
	ce := logger.zap.Check(level, msg)
	if ce == nil {
		return
	}
	out := fields(args)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			out = append(out,
				zap.String("trace_id", sc.TraceID().String()),
				zap.String("span_id", sc.SpanID().String()),
			)
		}
	}
	ce.Write(out...)
}

// fields converts alternating key/value pairs; a dangling key logs as nil.
func fields(args []any) []zap.Field {
	if len(args) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, (len(args)+1)/2+2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok || key == "" {
			key = "arg"
		}
		if i+1 >= len(args) {
			out = append(out, zap.Any(key, nil))
			break
		}
		if err, ok := args[i+1].(error); ok {
			out = append(out, zap.NamedError(key, err))
			continue
		}
		out = append(out, zap.Any(key, args[i+1]))
	}
	return out
}
