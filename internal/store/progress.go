package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// ProgressStore defines the interface for learning progress persistence.
// There is exactly one record per (user, item) pair.
type ProgressStore interface {
	// Get retrieves the progress for a pair without locking it.
	// Returns ErrProgressNotFound if the pair has never been reviewed.
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.LearningProgress, error)

	// GetForUpdate retrieves the progress for a pair and locks it until the
	// surrounding transaction ends. Outside a transaction it behaves like Get.
	// Returns ErrProgressNotFound if the row does not exist.
	GetForUpdate(ctx context.Context, userID, itemID uuid.UUID) (*domain.LearningProgress, error)

	// CreateIfAbsent inserts progress unless a row for the pair already exists.
	// It reports whether a row was inserted. Concurrent callers for the same pair
	// see exactly one insert.
	CreateIfAbsent(ctx context.Context, progress *domain.LearningProgress) (bool, error)

	// Upsert writes progress keyed on (user, item) and returns the stored record.
	Upsert(ctx context.Context, progress *domain.LearningProgress) (*domain.LearningProgress, error)

	// ListDue returns up to limit progress rows for userID with NextReviewAt <= now,
	// joined with their items, most overdue first. Ties keep insertion order.
	ListDue(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]domain.DueItem, error)

	// Summarize aggregates all of a user's progress rows. Rows with at least
	// masteryRepetitions repetitions count as mastered.
	Summarize(ctx context.Context, userID uuid.UUID, masteryRepetitions int) (*domain.ProgressSummary, error)
}
