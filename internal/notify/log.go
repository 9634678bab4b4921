package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogSink writes notifications to the application log. It is the default
// sink when no webhook is configured.
type LogSink struct {
	log *zap.Logger
}

// NewLogSink creates a log-backed sink.
func NewLogSink() *LogSink {
	return &LogSink{log: zap.L().With(zap.String("component", "notify.log"))}
}

func (s *LogSink) Show(_ context.Context, title, message string) error {
	s.log.Info("notification",
		zap.String("title", title),
		zap.String("message", message),
	)
	return nil
}
