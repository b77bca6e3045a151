package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// TypeProgressChanged identifies ProgressChangedEvent.
const TypeProgressChanged = "progress.changed"

// ProgressChangedEvent announces that a (user, item) progress record was
// written. It is emitted after the transaction commits, never before.
type ProgressChangedEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is always TypeProgressChanged
	Type string `json:"type"`

	UserID uuid.UUID           `json:"user_id"`
	ItemID uuid.UUID           `json:"item_id"`
	Grade  domain.QualityGrade `json:"quality_grade"`

	// NextReviewAt is the new due time of the item.
	NextReviewAt time.Time `json:"next_review_at"`

	// OccurredAt is when the change was committed
	OccurredAt time.Time `json:"occurred_at"`
}

// NewProgressChangedEvent creates an event describing the stored progress p.
func NewProgressChangedEvent(
	p *domain.LearningProgress,
	grade domain.QualityGrade,
	at time.Time,
) *ProgressChangedEvent {
	return &ProgressChangedEvent{
		ID:           uuid.New(),
		Type:         TypeProgressChanged,
		UserID:       p.UserID,
		ItemID:       p.ItemID,
		Grade:        grade,
		NextReviewAt: p.NextReviewAt,
		OccurredAt:   at,
	}
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ProgressChangedEvent) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, event *ProgressChangedEvent) error

// HandleEvent calls f(ctx, event).
func (f EventHandlerFunc) HandleEvent(ctx context.Context, event *ProgressChangedEvent) error {
	return f(ctx, event)
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *ProgressChangedEvent) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *ProgressChangedEvent) error { return nil }
