package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Span marks a logical unit of work inside a request, such as one step
// of the upload pipeline.
type Span struct {
	logger *slog.Logger
	start  time.Time
}

// StartSpan enriches the request logger with a span id and name, storing
// the enriched logger back on the context for nested steps.
func StartSpan(ctx context.Context, name string) (context.Context, *Span) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := FromContext(ctx).With(
		slog.String("span_id", uuid.NewString()),
		slog.String("span_name", name),
	)
	ctx = WithLogger(ctx, logger)

	return ctx, &Span{logger: logger, start: time.Now()}
}

// End finalizes the span and emits a completion log entry.
func (s *Span) End() {
	if s == nil {
		return
	}
	s.logger.Info("span completed", slog.Duration("duration", time.Since(s.start)))
}
