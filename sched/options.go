package sched

import (
	"go.uber.org/zap"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the scheduler's logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}
