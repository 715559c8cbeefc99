package app

import (
	"context"
	"log/slog"

	"github.com/deliveryproof/golang_services/internal/submission_service/domain"
)

// bestEffort runs fn and turns its error into a RemoteResult. A failure is
// logged and counted, and never returned to the caller.
func bestEffort(ctx context.Context, logger *slog.Logger, op string, fn func() error, attrs ...any) domain.RemoteResult {
	if err := fn(); err != nil {
		remoteCallCounter.WithLabelValues(op, "error").Inc()
		logger.WarnContext(ctx, "Best-effort call failed, discarding", append([]any{"op", op, "error", err}, attrs...)...)
		return domain.Failed(op, err)
	}
	remoteCallCounter.WithLabelValues(op, "ok").Inc()
	return domain.Succeeded(op)
}
