package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// MaxResponseTimeMs is the largest response time the review history can hold.
const MaxResponseTimeMs = math.MaxInt32

// ValidResponseTime reports whether ms is absent or within 0..MaxResponseTimeMs.
func ValidResponseTime(ms *int) bool {
	return ms == nil || (*ms >= 0 && *ms <= MaxResponseTimeMs)
}

// ReviewEvent is an immutable record of one submitted review.
type ReviewEvent struct {
	ID               uuid.UUID    `json:"id"`
	UserID           uuid.UUID    `json:"user_id"`
	ItemID           uuid.UUID    `json:"item_id"`
	Grade            QualityGrade `json:"quality_grade"`
	ResponseTimeMs   *int         `json:"response_time_ms,omitempty"`
	IsCorrect        bool         `json:"is_correct"`
	PreviousInterval int          `json:"previous_interval"`
	NewInterval      int          `json:"new_interval"`
	PreviousEasiness float64      `json:"previous_easiness"`
	NewEasiness      float64      `json:"new_easiness"`
	ReviewedAt       time.Time    `json:"reviewed_at"`
}

// NewReviewEvent builds the history row for a transition from before to after.
func NewReviewEvent(
	before, after *LearningProgress,
	grade QualityGrade,
	responseTimeMs *int,
	reviewedAt time.Time,
) *ReviewEvent {
	return &ReviewEvent{
		ID:               uuid.New(),
		UserID:           after.UserID,
		ItemID:           after.ItemID,
		Grade:            grade,
		ResponseTimeMs:   responseTimeMs,
		IsCorrect:        grade.IsCorrect(),
		PreviousInterval: before.Interval,
		NewInterval:      after.Interval,
		PreviousEasiness: before.EasinessFactor,
		NewEasiness:      after.EasinessFactor,
		ReviewedAt:       reviewedAt,
	}
}
