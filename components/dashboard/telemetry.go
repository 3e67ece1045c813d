package dashboard

import (
	"context"
	"sort"

	"go.uber.org/zap"
)

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// TelemetryFunc adapts a function into Telemetry.
type TelemetryFunc func(ctx context.Context, event string, payload map[string]any)

// Record calls f.
func (f TelemetryFunc) Record(ctx context.Context, event string, payload map[string]any) {
	f(ctx, event, payload)
}

// ZapTelemetry writes every event as a debug entry, or a warning when the
// payload carries an "error" field.
type ZapTelemetry struct {
	Logger *zap.Logger
}

// NewZapTelemetry wraps logger; a nil logger discards events.
func NewZapTelemetry(logger *zap.Logger) ZapTelemetry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return ZapTelemetry{Logger: logger.Named("telemetry")}
}

// Record implements Telemetry.
func (t ZapTelemetry) Record(_ context.Context, event string, payload map[string]any) {
	if t.Logger == nil {
		return
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, payload[k]))
	}
	if _, failed := payload["error"]; failed {
		t.Logger.Warn(event, fields...)
		return
	}
	t.Logger.Debug(event, fields...)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}
