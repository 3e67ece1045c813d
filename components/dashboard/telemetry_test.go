package dashboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapTelemetryLevels(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	telemetry := NewZapTelemetry(zap.New(core))

	telemetry.Record(context.Background(), "dashboard.widget.filter", map[string]any{"widget_id": "w1", "filter": "sla"})
	telemetry.Record(context.Background(), "dashboard.widget.provider_error", map[string]any{"error": errors.New("boom").Error()})

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "telemetry", entries[0].LoggerName)
	assert.Equal(t, "dashboard.widget.filter", entries[0].Message)
	assert.Equal(t, "filter", entries[0].Context[0].Key, "fields are sorted")
	assert.Equal(t, map[string]any{"widget_id": "w1", "filter": "sla"}, entries[0].ContextMap())
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNormalizeTelemetry(t *testing.T) {
	normalizeTelemetry(nil).Record(context.Background(), "ignored", nil)
	NewZapTelemetry(nil).Record(context.Background(), "ignored", nil)

	var got string
	fn := TelemetryFunc(func(_ context.Context, event string, _ map[string]any) { got = event })
	normalizeTelemetry(fn).Record(context.Background(), "seen", nil)
	assert.Equal(t, "seen", got)
}
