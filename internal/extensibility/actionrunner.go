package extensibility

import (
	"context"
	"log/slog"
	"time"

	"github.com/comalice/pjaxnav/internal/primitives"
)

// LoggingTransition wraps a transition and logs around its run.
type LoggingTransition struct {
	inner  primitives.Transition
	logger *slog.Logger
}

// NewLoggingTransition creates a new LoggingTransition wrapping inner.
func NewLoggingTransition(inner primitives.Transition, logger *slog.Logger) *LoggingTransition {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingTransition{inner: inner, logger: logger}
}

// Run logs before and after delegating to the inner transition.
func (t *LoggingTransition) Run(ctx context.Context, s *primitives.Session) error {
	t.logger.Debug("transition start", slog.String("url", s.URL), slog.String("origin", s.Origin.String()))
	start := time.Now()
	err := t.inner.Run(ctx, s)
	attrs := []any{slog.String("url", s.URL), slog.Duration("took", time.Since(start))}
	if err != nil {
		t.logger.Warn("transition ended", append(attrs, slog.Any("error", err))...)
		return err
	}
	t.logger.Debug("transition ended", attrs...)
	return nil
}

// Logged decorates every transition built by factory.
func Logged(factory func() primitives.Transition, logger *slog.Logger) func() primitives.Transition {
	return func() primitives.Transition {
		return NewLoggingTransition(factory(), logger)
	}
}
