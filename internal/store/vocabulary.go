package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// VocabularyStore defines the read side of vocabulary items the scheduler needs,
// plus Create for seeding.
type VocabularyStore interface {
	// Create saves a new vocabulary item.
	// Returns ErrDuplicate if an item with the same ID exists.
	Create(ctx context.Context, item *domain.VocabularyItem) error

	// GetByID retrieves an item by ID.
	// Returns ErrItemNotFound if the item does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error)

	// ListNewForUser returns up to limit items visible to userID that have no
	// progress row for that user, in a stable order.
	ListNewForUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.VocabularyItem, error)
}
