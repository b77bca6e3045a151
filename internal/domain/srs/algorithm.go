package srs

import (
	"math"
	"time"

	"github.com/phrazzld/lexis/internal/domain"
)

// Schedule is the outcome of applying one grade to a progress record.
type Schedule struct {
	Repetitions    int
	EasinessFactor float64
	Interval       int
	NextReviewAt   time.Time
}

// calculateNewEasinessFactor applies the SM-2 easiness update for a 0-3 grade.
//
// The adjustment is 0.1 - d*(0.08 + d*0.02) where d = 3 - grade, giving
// +0.10 for Easy, 0 for Good, -0.14 for Hard and -0.32 for Again. The result
// never drops below params.MinEasinessFactor. There is no upper bound.
func calculateNewEasinessFactor(currentEF float64, grade domain.QualityGrade, params *Params) float64 {
	d := float64(domain.MaxGrade - grade)
	newEF := currentEF + (0.1 - d*(0.08+d*0.02))

	if newEF < params.MinEasinessFactor {
		newEF = params.MinEasinessFactor
	}
	return newEF
}

// calculateRepetitionsAndInterval branches on the grade and the repetition
// count before this review.
//
//   - Again: full reset to 0 repetitions and a one day interval
//   - first success: 1 repetition, FirstSuccessInterval
//   - second success: 2 repetitions, SecondSuccessInterval
//   - later successes: interval grows geometrically by the new easiness
func calculateRepetitionsAndInterval(
	repetitions int,
	currentInterval int,
	newEF float64,
	grade domain.QualityGrade,
	params *Params,
) (int, int) {
	if grade == domain.GradeAgain {
		return 0, domain.DefaultInterval
	}

	switch {
	case repetitions <= 0:
		return 1, params.FirstSuccessInterval
	case repetitions == 1:
		return 2, params.SecondSuccessInterval
	}

	interval := int(math.Round(float64(currentInterval) * newEF))
	// A corrupted zero interval would otherwise stay at zero forever
	if interval < 1 {
		interval = 1
	}
	return repetitions + 1, interval
}

// calculateNextReviewDate keeps now's wall-clock time and moves it forward by
// interval calendar days.
func calculateNextReviewDate(interval int, now time.Time) time.Time {
	return now.AddDate(0, 0, interval)
}

// computeSchedule is the pure SM-2 step. The easiness factor is always
// computed first from the pre-update value so every branch sees the same EF.
func computeSchedule(
	progress *domain.LearningProgress,
	grade domain.QualityGrade,
	now time.Time,
	params *Params,
) Schedule {
	newEF := calculateNewEasinessFactor(progress.EasinessFactor, grade, params)
	reps, interval := calculateRepetitionsAndInterval(
		progress.Repetitions,
		progress.Interval,
		newEF,
		grade,
		params,
	)

	return Schedule{
		Repetitions:    reps,
		EasinessFactor: newEF,
		Interval:       interval,
		NextReviewAt:   calculateNextReviewDate(interval, now),
	}
}

// applySchedule returns a copy of progress with the schedule and counters of
// one review applied. The original record is never modified.
func applySchedule(
	progress *domain.LearningProgress,
	schedule Schedule,
	grade domain.QualityGrade,
	now time.Time,
) *domain.LearningProgress {
	next := progress.Clone()

	next.Repetitions = schedule.Repetitions
	next.EasinessFactor = schedule.EasinessFactor
	next.Interval = schedule.Interval
	next.NextReviewAt = schedule.NextReviewAt

	reviewedAt := now
	next.LastReviewedAt = &reviewedAt
	next.TotalReviews++
	if grade.IsCorrect() {
		next.CorrectReviews++
	}
	next.UpdatedAt = now

	return next
}
