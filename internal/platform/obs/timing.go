package obs

import (
	"context"
	"errors"
	"event-discovery-service/internal/platform/logging"
	"event-discovery-service/internal/platform/metrics"
	"time"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores a request id for correlation in timing lines.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request id carried by ctx, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time starts timing op and returns a closure to defer with the named error:
//
//	defer obs.Time(ctx, "geo.resolve")(&err)
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()

	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		status := "ok"
		ev := logging.L().Debug()
		switch {
		case errp == nil || *errp == nil:
		case errors.Is(*errp, context.Canceled):
			// The caller gave up; the operation itself did not fail.
			status = "cancelled"
			ev = logging.L().Debug().Err(*errp)
		default:
			status = "error"
			ev = logging.L().Warn().Err(*errp)
		}
		metrics.OperationDuration.WithLabelValues(name, status).Observe(dur.Seconds())

		ev.Str("req_id", reqID).Str("op", name).Int64("dur_ms", dur.Milliseconds()).Msg("timed operation")
	}
}
