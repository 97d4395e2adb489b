package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the application.
const (
	// TypeSessionCompleted is emitted when a study session ends.
	TypeSessionCompleted = "session.completed"

	// TypeReminderDue is emitted when a deck has cards waiting for review.
	TypeReminderDue = "reminder.due"
)

// Event is a notification published through an EventEmitter.
type Event struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// SessionCompletedPayload is the payload of a TypeSessionCompleted event.
type SessionCompletedPayload struct {
	SessionID     uuid.UUID     `json:"session_id"`
	UserID        uuid.UUID     `json:"user_id"`
	DeckID        uuid.UUID     `json:"deck_id"`
	TotalCards    int           `json:"total_cards"`
	CardsReviewed int           `json:"cards_reviewed"`
	CorrectCount  int           `json:"correct_count"`
	Accuracy      float64       `json:"accuracy"`
	Duration      time.Duration `json:"duration"`
}

// ReminderDuePayload is the payload of a TypeReminderDue event.
type ReminderDuePayload struct {
	UserID   uuid.UUID `json:"user_id"`
	DeckID   uuid.UUID `json:"deck_id"`
	DeckName string    `json:"deck_name"`
	Due      int       `json:"due"`
	AsOf     time.Time `json:"as_of"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates a new Event with the specified type and payload.
func NewEvent(eventType string, payload any) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *Event) error
}

// HandlerFunc adapts a function to the EventHandler interface.
type HandlerFunc func(ctx context.Context, event *Event) error

// HandleEvent calls f(ctx, event).
func (f HandlerFunc) HandleEvent(ctx context.Context, event *Event) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}
