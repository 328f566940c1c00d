package journal

import (
	"context"

	"github.com/rs/zerolog"
)

// ZerologHook writes journal events through a zerolog logger.
type ZerologHook struct {
	Logger zerolog.Logger
}

// Notify implements Hook.
func (h ZerologHook) Notify(_ context.Context, event Event) error {
	entry := h.Logger.Info().
		Str("event_id", event.ID).
		Str("verb", event.Verb).
		Str("object_type", event.ObjectType).
		Str("object_id", event.ObjectID).
		Str("channel", event.Channel).
		Time("occurred_at", event.OccurredAt)
	if event.ActorID != "" {
		entry = entry.Str("actor_id", event.ActorID)
	}
	if event.UserID != "" {
		entry = entry.Str("user_id", event.UserID)
	}
	if event.TenantID != "" {
		entry = entry.Str("tenant_id", event.TenantID)
	}
	if len(event.Metadata) > 0 {
		entry = entry.Fields(event.Metadata)
	}
	entry.Msg("journal_event")
	return nil
}
