package store

import (
	"context"
	"log/slog"

	"calendasync/internal/domain"
)

// LogNotifier writes notices to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

var _ domain.Notifier = LogNotifier{}

func (n LogNotifier) Success(ctx context.Context, message string) {
	n.Logger.InfoContext(ctx, message, "notice", "success")
}

func (n LogNotifier) Error(ctx context.Context, message string) {
	n.Logger.ErrorContext(ctx, message, "notice", "error")
}
