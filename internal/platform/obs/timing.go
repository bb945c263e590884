package obs

import (
	"context"
	"log/slog"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time logs the duration of an operation when the returned func is deferred
// with a pointer to the operation's named error.
func Time(ctx context.Context, logger *slog.Logger, name string) func(errp *error) {
	start := time.Now()
	if logger == nil {
		logger = slog.Default()
	}

	return func(errp *error) {
		attrs := []any{
			slog.String("req_id", RequestID(ctx)),
			slog.String("op", name),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		}

		if errp != nil && *errp != nil {
			logger.WarnContext(ctx, "op failed", append(attrs, slog.Any("err", *errp))...)
			return
		}
		logger.DebugContext(ctx, "op done", attrs...)
	}
}

// Fallback records that a source answered from local estimation.
func Fallback(ctx context.Context, logger *slog.Logger, source, reason string, err error) {
	if logger == nil {
		logger = slog.Default()
	}
	attrs := []any{
		slog.String("req_id", RequestID(ctx)),
		slog.String("source", source),
		slog.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, slog.Any("err", err))
	}
	logger.WarnContext(ctx, "using fallback", attrs...)
}
