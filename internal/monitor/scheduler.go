package monitor

import (
	"time"

	"go.uber.org/zap"
)

// BackgroundScheduler registers a platform-level periodic task as a
// resilience fallback for when the in-process driver is suspended.
// Registration is best-effort: failures never prevent foreground
// monitoring.
type BackgroundScheduler interface {
	RegisterPeriodic(name string, interval time.Duration) error
	Cancel(name string) error
}

// LogScheduler is a no-op scheduler for platforms without a background
// task facility. It only records the requests.
type LogScheduler struct{}

func (LogScheduler) RegisterPeriodic(name string, interval time.Duration) error {
	zap.L().Debug("background task registration requested",
		zap.String("name", name),
		zap.Duration("interval", interval),
	)
	return nil
}

func (LogScheduler) Cancel(name string) error {
	zap.L().Debug("background task cancellation requested", zap.String("name", name))
	return nil
}
