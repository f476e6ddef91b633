package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/vango-dev/sso/pkg/sso"
)

// Logging creates instrumentation that logs store events with logger.
// Writes and notifications log at Debug, method calls at Debug (Warn when
// they fail), and revocation at Info.
func Logging(logger *slog.Logger) sso.Instrumentation {
	if logger == nil {
		logger = slog.Default()
	}
	return &logging{logger: logger.With("component", "sso.middleware")}
}

type logging struct {
	logger *slog.Logger
}

func (l *logging) FieldWritten(store, key string) {
	l.logger.Debug("field written", "store", store, "key", key)
}

func (l *logging) WriteSuppressed(store, key string) {
	l.logger.Debug("write suppressed", "store", store, "key", key)
}

func (l *logging) Notified(store, key string, listeners int, elapsed time.Duration) {
	l.logger.Debug("listeners notified",
		"store", store,
		"key", key,
		"listeners", listeners,
		"elapsed", elapsed,
	)
}

func (l *logging) MethodStarted(ctx context.Context, store, method string) (context.Context, func(error)) {
	start := time.Now()
	return ctx, func(err error) {
		if err != nil {
			l.logger.WarnContext(ctx, "method failed",
				"store", store,
				"method", method,
				"duration", time.Since(start),
				"error", err,
			)
			return
		}
		l.logger.DebugContext(ctx, "method completed",
			"store", store,
			"method", method,
			"duration", time.Since(start),
		)
	}
}

func (l *logging) Revoked(store string) {
	l.logger.Info("store revoked", "store", store)
}
