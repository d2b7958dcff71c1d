package observability

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

const (
	uptraceLogInstrumentation = "fantasy-waivers/internal/platform/logging"
	healthPath                = "/healthz"
	maxLogValueDepth          = 3
)

// uptraceLogCore forwards zap entries to the global OpenTelemetry log
// provider that uptrace-go installs.
type uptraceLogCore struct {
	zapcore.LevelEnabler
	logger otellog.Logger
	fields []zapcore.Field
}

func newUptraceLogCore(serviceVersion string, level zapcore.LevelEnabler) zapcore.Core {
	return &uptraceLogCore{
		LevelEnabler: level,
		logger: otelglobal.Logger(
			uptraceLogInstrumentation,
			otellog.WithInstrumentationVersion(serviceVersion),
		),
	}
}

func (c *uptraceLogCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (c *uptraceLogCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *uptraceLogCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	if shouldSkipUptraceLog(ent.Message, enc.Fields) {
		return nil
	}

	ctx := contextFromLogFields(enc.Fields)
	severity := toOTelSeverity(ent.Level)
	if !c.logger.Enabled(ctx, otellog.EnabledParameters{Severity: severity, EventName: ent.Message}) {
		return nil
	}

	record := otellog.Record{}
	record.SetTimestamp(ent.Time)
	record.SetObservedTimestamp(time.Now().UTC())
	record.SetSeverity(severity)
	record.SetSeverityText(strings.ToUpper(ent.Level.String()))
	record.SetEventName(ent.Message)
	record.SetBody(otellog.StringValue(ent.Message))
	if ent.LoggerName != "" {
		enc.Fields["logger"] = ent.LoggerName
	}
	if attrs := buildOTelLogAttributes(enc.Fields); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}

	c.logger.Emit(ctx, record)
	return nil
}

func (c *uptraceLogCore) Sync() error {
	return nil
}

// contextFromLogFields restores the span the entry was logged under so the
// record links to its trace.
func contextFromLogFields(fields map[string]any) context.Context {
	ctx := context.Background()
	rawTrace, _ := fields["trace_id"].(string)
	rawSpan, _ := fields["span_id"].(string)
	if rawTrace == "" || rawSpan == "" {
		return ctx
	}
	traceID, err := trace.TraceIDFromHex(rawTrace)
	if err != nil {
		return ctx
	}
	spanID, err := trace.SpanIDFromHex(rawSpan)
	if err != nil {
		return ctx
	}
	return trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	}))
}

func shouldSkipUptraceLog(msg string, fields map[string]any) bool {
	if msg != "http request" {
		return false
	}
	path, ok := fields["path"].(string)
	return ok && path == healthPath
}

func buildOTelLogAttributes(fields map[string]any) []otellog.KeyValue {
	if len(fields) == 0 {
		return nil
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		if key == "trace_id" || key == "span_id" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	attrs := make([]otellog.KeyValue, 0, len(keys))
	for _, key := range keys {
		attrs = append(attrs, otellog.KeyValue{
			Key:   key,
			Value: toOTelLogValue(fields[key], 0),
		})
	}
	return attrs
}

func toOTelSeverity(level zapcore.Level) otellog.Severity {
	switch {
	case level <= zapcore.DebugLevel:
		return otellog.SeverityDebug
	case level == zapcore.InfoLevel:
		return otellog.SeverityInfo
	case level == zapcore.WarnLevel:
		return otellog.SeverityWarn
	case level >= zapcore.DPanicLevel:
		return otellog.SeverityFatal
	default:
		return otellog.SeverityError
	}
}

func toOTelLogValue(value any, depth int) otellog.Value {
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}
	if value == nil {
		return otellog.Value{}
	}

	switch v := value.(type) {
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int:
		return otellog.IntValue(v)
	case int32:
		return otellog.Int64Value(int64(v))
	case int64:
		return otellog.Int64Value(v)
	case uint32:
		return otellog.Int64Value(int64(v))
	case uint64:
		if v > math.MaxInt64 {
			return otellog.StringValue(fmt.Sprint(v))
		}
		return otellog.Int64Value(int64(v))
	case float64:
		return otellog.Float64Value(v)
	case []byte:
		return otellog.BytesValue(append([]byte(nil), v...))
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return otellog.Value{}
		}
		return toOTelLogValue(rv.Elem().Interface(), depth+1)
	case reflect.Int8, reflect.Int16:
		return otellog.Int64Value(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16:
		return otellog.Int64Value(int64(rv.Uint()))
	case reflect.Float32:
		return otellog.Float64Value(rv.Float())
	case reflect.Slice, reflect.Array:
		items := make([]otellog.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, toOTelLogValue(rv.Index(i).Interface(), depth+1))
		}
		return otellog.SliceValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return otellog.StringValue(fmt.Sprint(value))
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return keys[i].String() < keys[j].String()
		})
		kvs := make([]otellog.KeyValue, 0, len(keys))
		for _, key := range keys {
			kvs = append(kvs, otellog.KeyValue{
				Key:   key.String(),
				Value: toOTelLogValue(rv.MapIndex(key).Interface(), depth+1),
			})
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(value))
	}
}
