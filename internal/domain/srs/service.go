package srs

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
)

// Common errors
var (
	ErrNilProgress = errors.New("learning progress cannot be nil")
	ErrInvalidDays = errors.New("postpone days must be at least 1")
)

// Service defines the interface for SRS algorithm operations.
// Implementations are pure and safe for concurrent use.
type Service interface {
	// ComputeNextSchedule returns the schedule that results from grading progress at now.
	// It never fails for grades 0-3; validating the grade is the caller's job.
	ComputeNextSchedule(
		progress *domain.LearningProgress,
		grade domain.QualityGrade,
		now time.Time,
	) Schedule

	// ApplyReview computes the schedule and returns an updated copy of progress
	// with counters and review timestamps advanced.
	ApplyReview(
		progress *domain.LearningProgress,
		grade domain.QualityGrade,
		now time.Time,
	) (*domain.LearningProgress, error)

	// PostponeReview pushes the next review time forward by a specified number of days
	PostponeReview(
		progress *domain.LearningProgress,
		days int,
		now time.Time,
	) (*domain.LearningProgress, error)

	// NewProgress returns a fresh never-reviewed record using the configured initial easiness.
	NewProgress(userID, itemID uuid.UUID, now time.Time) (*domain.LearningProgress, error)
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new SRS service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new SRS service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// ComputeNextSchedule implements Service.
func (s *defaultService) ComputeNextSchedule(
	progress *domain.LearningProgress,
	grade domain.QualityGrade,
	now time.Time,
) Schedule {
	return computeSchedule(progress, grade, now, s.params)
}

// ApplyReview implements Service.
func (s *defaultService) ApplyReview(
	progress *domain.LearningProgress,
	grade domain.QualityGrade,
	now time.Time,
) (*domain.LearningProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}
	if !grade.Valid() {
		return nil, domain.ErrInvalidGrade
	}

	schedule := computeSchedule(progress, grade, now, s.params)
	return applySchedule(progress, schedule, grade, now), nil
}

// PostponeReview implements Service.
func (s *defaultService) PostponeReview(
	progress *domain.LearningProgress,
	days int,
	now time.Time,
) (*domain.LearningProgress, error) {
	if progress == nil {
		return nil, ErrNilProgress
	}

	if days < 1 {
		return nil, ErrInvalidDays
	}

	next := progress.Clone()
	next.NextReviewAt = progress.NextReviewAt.AddDate(0, 0, days)
	next.UpdatedAt = now

	return next, nil
}

// NewProgress implements Service.
func (s *defaultService) NewProgress(userID, itemID uuid.UUID, now time.Time) (*domain.LearningProgress, error) {
	p, err := domain.NewLearningProgress(userID, itemID, now)
	if err != nil {
		return nil, err
	}
	p.EasinessFactor = s.params.InitialEasinessFactor
	p.Interval = s.params.FirstSuccessInterval
	return p, nil
}
