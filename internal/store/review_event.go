package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// ReviewEventStore defines the interface for the append-only review history.
type ReviewEventStore interface {
	// Append stores a new review event. Events are never updated.
	Append(ctx context.Context, event *domain.ReviewEvent) error

	// List returns the user's events with from <= ReviewedAt < to, ordered by
	// ReviewedAt ascending. A nil bound is open.
	List(ctx context.Context, userID uuid.UUID, from, to *time.Time) ([]domain.ReviewEvent, error)
}
