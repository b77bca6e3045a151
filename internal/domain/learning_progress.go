package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SM-2 defaults applied to a progress record that has never been reviewed.
const (
	DefaultEasinessFactor = 2.5
	MinEasinessFactor     = 1.3
	DefaultInterval       = 1

	// MasteryRepetitions is the streak of successful reviews after which an
	// item counts towards a user's mastered vocabulary.
	MasteryRepetitions = 5

	// MasteryEasiness is the additional easiness floor for the Mastered stage.
	MasteryEasiness = 2.5
)

// Validation errors for LearningProgress.
var (
	ErrEmptyProgressUserID  = errors.New("learning progress user ID cannot be empty")
	ErrEmptyProgressItemID  = errors.New("learning progress item ID cannot be empty")
	ErrNegativeRepetitions  = errors.New("repetitions cannot be negative")
	ErrEasinessBelowMinimum = errors.New("easiness factor must be at least 1.3")
	ErrInvalidInterval      = errors.New("interval must be at least 1 once reviewed")
	ErrCountersInconsistent = errors.New("correct reviews cannot exceed total reviews")
)

// LearningProgress is a user's scheduling state for a single vocabulary item.
// There is at most one record per (UserID, ItemID).
type LearningProgress struct {
	UserID         uuid.UUID  `json:"user_id"`
	ItemID         uuid.UUID  `json:"item_id"`
	Repetitions    int        `json:"repetitions"`     // Consecutive successful reviews since the last lapse
	EasinessFactor float64    `json:"easiness_factor"` // SM-2 EF, never below 1.3
	Interval       int        `json:"interval"`        // Days until the next review
	NextReviewAt   time.Time  `json:"next_review_at"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"` // nil until the first review
	TotalReviews   int        `json:"total_reviews"`
	CorrectReviews int        `json:"correct_reviews"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// NewLearningProgress returns a never-reviewed record for the pair, due at now.
func NewLearningProgress(userID, itemID uuid.UUID, now time.Time) (*LearningProgress, error) {
	p := &LearningProgress{
		UserID:         userID,
		ItemID:         itemID,
		Repetitions:    0,
		EasinessFactor: DefaultEasinessFactor,
		Interval:       DefaultInterval,
		NextReviewAt:   now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	return p, nil
}

// Validate checks the record's invariants.
func (p *LearningProgress) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProgressUserID
	}
	if p.ItemID == uuid.Nil {
		return ErrEmptyProgressItemID
	}
	if p.Repetitions < 0 {
		return ErrNegativeRepetitions
	}
	if p.EasinessFactor < MinEasinessFactor {
		return ErrEasinessBelowMinimum
	}
	if p.LastReviewedAt != nil && p.Interval < 1 {
		return ErrInvalidInterval
	}
	if p.CorrectReviews < 0 || p.TotalReviews < 0 || p.CorrectReviews > p.TotalReviews {
		return ErrCountersInconsistent
	}
	return nil
}

// IsDue reports whether the item should be reviewed at now.
func (p *LearningProgress) IsDue(now time.Time) bool {
	return !p.NextReviewAt.After(now)
}

// Reviewed reports whether the record has been reviewed at least once.
func (p *LearningProgress) Reviewed() bool {
	return p.LastReviewedAt != nil
}

// Stage derives the informal learning stage from the scheduling state.
func (p *LearningProgress) Stage() LearningStage {
	return StageOf(p.Repetitions, p.EasinessFactor)
}

// Clone returns a deep copy of the record.
func (p *LearningProgress) Clone() *LearningProgress {
	c := *p
	if p.LastReviewedAt != nil {
		t := *p.LastReviewedAt
		c.LastReviewedAt = &t
	}
	return &c
}
