package notify

import (
	"context"
	"log/slog"

	"github.com/mukuljibh/airbnb-backend-sub000/internal/usecase/commands"
)

// LogDispatcher records deliveries instead of sending them; the real
// transports hang off the notification service, not this subsystem.
// Dispatch failures never propagate to callers, matching the port's
// fire-and-forget contract.
type LogDispatcher struct{}

func NewLogDispatcher() *LogDispatcher {
	return &LogDispatcher{}
}

func (d *LogDispatcher) Dispatch(ctx context.Context, recipients []commands.Recipient) {
	for _, r := range recipients {
		slog.InfoContext(ctx, "notification dispatched",
			"user_id", r.UserID,
			"template", r.Template,
			"channels", r.Channels,
		)
	}
}

var _ commands.NotificationDispatcher = (*LogDispatcher)(nil)
