package logging

import (
	"context"

	"github.com/robfig/cron/v3"
)

// CronLogger adapts Logger to the cron.Logger interface so scheduler
// internals (job start, recovered panics, skipped runs) land in the same
// structured log stream.
type CronLogger struct {
	l Logger
}

var _ cron.Logger = (*CronLogger)(nil)

func NewCronLogger(l Logger) *CronLogger {
	return &CronLogger{l: l.With("component", "cron")}
}

// Info is routed to Debug: cron reports every wake-up and run at this level.
func (c *CronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), msg, keysAndValues...)
}

func (c *CronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	args := append([]any{"error", err}, keysAndValues...)
	c.l.Error(context.Background(), msg, args...)
}
