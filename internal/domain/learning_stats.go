package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StatsPeriod selects the lookback window for learning statistics.
type StatsPeriod string

// Supported statistics periods.
const (
	PeriodDay   StatsPeriod = "24h"
	PeriodWeek  StatsPeriod = "7d"
	PeriodMonth StatsPeriod = "30d"
	PeriodAll   StatsPeriod = "all"
)

// ParsePeriod validates s as a StatsPeriod. An empty string means PeriodWeek.
func ParsePeriod(s string) (StatsPeriod, error) {
	switch StatsPeriod(s) {
	case "":
		return PeriodWeek, nil
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return StatsPeriod(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, s)
}

// Since returns the inclusive lower bound of the window ending at now, or nil
// for PeriodAll.
func (p StatsPeriod) Since(now time.Time) *time.Time {
	var d time.Duration
	switch p {
	case PeriodDay:
		d = 24 * time.Hour
	case PeriodWeek:
		d = 7 * 24 * time.Hour
	case PeriodMonth:
		d = 30 * 24 * time.Hour
	default:
		return nil
	}
	from := now.Add(-d)
	return &from
}

// DailyStat aggregates the reviews of one calendar day.
type DailyStat struct {
	Date     string `json:"date"` // YYYY-MM-DD in the configured timezone
	Total    int    `json:"total"`
	Correct  int    `json:"correct"`
	Accuracy int    `json:"accuracy"`
}

// LearningStats summarizes a user's reviews over a period.
type LearningStats struct {
	Period                StatsPeriod `json:"period"`
	TotalReviews          int         `json:"total_reviews"`
	CorrectReviews        int         `json:"correct_reviews"`
	Accuracy              int         `json:"accuracy"`                 // 0-100
	AverageResponseTimeMs int         `json:"average_response_time_ms"` // over reviews with a response time
	CurrentStreak         int         `json:"current_streak"`
	LongestStreak         int         `json:"longest_streak"`
	DailyBreakdown        []DailyStat `json:"daily_breakdown"`
}

// ProgressSummary is the store-side rollup of a user's progress rows.
type ProgressSummary struct {
	TotalVocabulary    int `json:"total_vocabulary"`
	MasteredVocabulary int `json:"mastered_vocabulary"`
	TotalReviews       int `json:"total_reviews"`
	CorrectReviews     int `json:"correct_reviews"`
}

// UserLearningStats is the per-user rollup. It is derived data and can be
// rebuilt from progress and review history at any time.
type UserLearningStats struct {
	UserID uuid.UUID `json:"user_id"`
	ProgressSummary
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}
