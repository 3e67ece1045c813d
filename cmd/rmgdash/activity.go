package main

import (
	"context"

	"github.com/goliatone/go-users/pkg/types"
	"go.uber.org/zap"
)

// logSink records go-users activity records as structured log entries.
type logSink struct {
	logger *zap.Logger
}

func (s logSink) Log(_ context.Context, record types.ActivityRecord) error {
	fields := []zap.Field{
		zap.String("verb", record.Verb),
		zap.String("object_type", record.ObjectType),
		zap.String("object_id", record.ObjectID),
		zap.String("channel", record.Channel),
		zap.Time("occurred_at", record.OccurredAt),
	}
	if len(record.Data) > 0 {
		fields = append(fields, zap.Any("data", record.Data))
	}
	s.logger.Info("activity", fields...)
	return nil
}
