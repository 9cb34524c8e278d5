package notify

import (
	"context"
	"log/slog"
)

// Log reports notifications as structured log records, for unattended runs.
type Log struct {
	ctx    context.Context
	logger *slog.Logger
}

func NewLog(ctx context.Context, logger *slog.Logger) Log {
	if logger == nil {
		logger = slog.Default()
	}
	return Log{ctx: ctx, logger: logger}
}

func (l Log) Success(heading, body string) {
	l.logger.InfoContext(l.ctx, heading, "kind", KindSuccess, "body", body)
}

func (l Log) Error(heading, detail string) {
	l.logger.ErrorContext(l.ctx, heading, "kind", KindError, "detail", detail)
}

func (l Log) Warning(heading, body string, persistent bool) {
	l.logger.WarnContext(l.ctx, heading, "kind", KindWarning, "body", body, "persistent", persistent)
}

func (l Log) Info(heading, body string, persistent bool) {
	l.logger.InfoContext(l.ctx, heading, "kind", KindInfo, "body", body, "persistent", persistent)
}
