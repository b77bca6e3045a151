// Package review implements the review queue service: it builds a user's
// prioritized queue of due and new vocabulary, applies submitted reviews
// atomically through the SM-2 engine, and derives learning statistics from
// the review history.
package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// ReviewQueue is the set of items a user should study next.
type ReviewQueue struct {
	DueItems []domain.DueItem        `json:"due_items"`
	NewItems []domain.VocabularyItem `json:"new_items"`
	TotalDue int                     `json:"total_due"`
	TotalNew int                     `json:"total_new"`
}

// SubmitReviewInput carries one graded review.
type SubmitReviewInput struct {
	UserID         uuid.UUID           `json:"user_id" validate:"required"`
	ItemID         uuid.UUID           `json:"item_id" validate:"required"`
	Grade          domain.QualityGrade `json:"quality_grade" validate:"gte=0,lte=3"`
	ResponseTimeMs *int                `json:"response_time_ms,omitempty" validate:"omitempty,gte=0,lte=2147483647"`
	// IsNewHint asks to restart the item's schedule from the defaults while
	// keeping its review counters.
	IsNewHint bool `json:"is_new_hint"`
}

// ScheduleResult describes the stored schedule after a review or postponement.
type ScheduleResult struct {
	ItemID         uuid.UUID            `json:"item_id"`
	NextReviewAt   time.Time            `json:"next_review_at"`
	Interval       int                  `json:"interval"`
	Repetitions    int                  `json:"repetitions"`
	EasinessFactor float64              `json:"easiness_factor"`
	TotalReviews   int                  `json:"total_reviews"`
	CorrectReviews int                  `json:"correct_reviews"`
	Stage          domain.LearningStage `json:"stage"`
}

// Service provides the review queue operations.
type Service interface {
	// GetReviewQueue returns due items, most overdue first, backfilled with
	// never-studied items when few are due. It does not modify any data and
	// returns the same result for the same store state and clock.
	//
	// A non-positive limit means the configured default; larger limits are capped.
	GetReviewQueue(ctx context.Context, userID uuid.UUID, limit int) (*ReviewQueue, error)

	// SubmitReview grades one item and reschedules it.
	//
	// This method performs several operations within a single transaction:
	// 1. Locks the (user, item) progress row, creating it with defaults if absent
	// 2. Runs the SM-2 engine and increments the review counters
	// 3. Stores the progress and appends a ReviewEvent
	//
	// After commit a ProgressChangedEvent is emitted. Emitter failures are
	// logged and do not fail the call.
	//
	// Error Handling:
	//   - *ValidationError (errors.Is domain.ErrValidation) for bad IDs, grades or response times
	//   - domain.ErrNotFound when the item does not exist
	//   - domain.ErrConflict when the store aborted a concurrent update
	//   - domain.ErrStorage for any other store failure
	SubmitReview(ctx context.Context, input SubmitReviewInput) (*ScheduleResult, error)

	// PostponeReview pushes an item's next review forward by days without
	// changing its SM-2 state. The item must have been studied before.
	PostponeReview(ctx context.Context, userID, itemID uuid.UUID, days int) (*ScheduleResult, error)

	// GetLearningStats summarizes the user's reviews over period
	// ("24h", "7d", "30d" or "all"; empty means "7d"). Streaks always
	// consider the full history.
	GetLearningStats(ctx context.Context, userID uuid.UUID, period string) (*domain.LearningStats, error)

	// GetUserStats returns the per-user rollup rebuilt from progress rows and
	// the full review history.
	GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserLearningStats, error)
}
