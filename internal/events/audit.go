package events

import (
	"context"
	"log/slog"
)

// AuditLogHandler writes one structured log line per event.
type AuditLogHandler struct {
	logger *slog.Logger
}

// NewAuditLogHandler returns a handler that logs to logger.
func NewAuditLogHandler(logger *slog.Logger) *AuditLogHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogHandler{logger: logger.With(slog.String("component", "audit"))}
}

// HandleEvent implements Handler.
func (h *AuditLogHandler) HandleEvent(ctx context.Context, event *Event) error {
	h.logger.InfoContext(ctx, "task event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.String("user_id", event.UserID.String()),
		slog.String("task_id", event.TaskID),
		slog.Time("occurred_at", event.OccurredAt))
	return nil
}
