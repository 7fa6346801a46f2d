package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/concierge/pkg/domain"
)

// LogHooks logs every lifecycle event. Field values are never logged.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	session := func(level slog.Level) func(context.Context, *domain.SessionEvent) {
		return func(ctx context.Context, e *domain.SessionEvent) {
			attrs := []any{"conversation_id", e.ConversationID, "session_id", e.SessionID, "form_id", e.FormID}
			if e.Reason != "" {
				attrs = append(attrs, "reason", e.Reason)
			}
			logger.Log(ctx, level, string(e.Type), attrs...)
		}
	}
	slot := func(level slog.Level) func(context.Context, *domain.SlotEvent) {
		return func(ctx context.Context, e *domain.SlotEvent) {
			logger.Log(ctx, level, string(e.Type),
				"conversation_id", e.ConversationID,
				"form_id", e.FormID,
				"field_id", e.FieldID,
				"attempt", e.Attempt,
			)
		}
	}
	failure := func(ctx context.Context, e *domain.FailureEvent) {
		logger.WarnContext(ctx, string(e.Type), "conversation_id", e.ConversationID, "session_id", e.SessionID, "err", e.Err)
	}

	return domain.LifecycleHooks{
		OnSessionStart:     session(slog.LevelInfo),
		OnSessionComplete:  session(slog.LevelInfo),
		OnSessionDiscard:   session(slog.LevelInfo),
		OnSlotFilled:       slot(slog.LevelDebug),
		OnExtractionFailed: slot(slog.LevelDebug),
		OnEscalated:        slot(slog.LevelInfo),
		OnResponderFailed:  failure,
		OnPersistFailed:    failure,
	}
}
