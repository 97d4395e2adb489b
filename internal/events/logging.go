package events

import (
	"context"
	"log/slog"

	"github.com/phrazzld/scry-study/internal/platform/logger"
)

// LoggingHandler writes every event it receives to a logger.
type LoggingHandler struct {
	logger *slog.Logger
}

// NewLoggingHandler creates a LoggingHandler. If logger is nil, a default logger will be used.
func NewLoggingHandler(logger *slog.Logger) *LoggingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingHandler{logger: logger.With("component", "event_log")}
}

// HandleEvent implements EventHandler.
func (h *LoggingHandler) HandleEvent(ctx context.Context, event *Event) error {
	log := logger.FromContextOrDefault(ctx, h.logger)

	attrs := []any{
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
	}

	switch event.Type {
	case TypeSessionCompleted:
		var p SessionCompletedPayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		attrs = append(attrs,
			slog.String("deck_id", p.DeckID.String()),
			slog.Int("cards_reviewed", p.CardsReviewed),
			slog.Float64("accuracy", p.Accuracy))
	case TypeReminderDue:
		var p ReminderDuePayload
		if err := event.UnmarshalPayload(&p); err != nil {
			return err
		}
		attrs = append(attrs,
			slog.String("user_id", p.UserID.String()),
			slog.String("deck", p.DeckName),
			slog.Int("due", p.Due))
	}

	log.Info("event", attrs...)
	return nil
}
