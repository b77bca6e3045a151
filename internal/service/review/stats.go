package review

import (
	"math"
	"sort"
	"time"

	"github.com/phrazzld/lexis/internal/domain"
)

const dayLayout = "2006-01-02"

// computeLearningStats aggregates window for the period totals and history
// for the streaks. Both slices are ordered by ReviewedAt.
func computeLearningStats(
	period domain.StatsPeriod,
	window, history []domain.ReviewEvent,
	loc *time.Location,
) *domain.LearningStats {
	stats := &domain.LearningStats{
		Period:         period,
		DailyBreakdown: dailyBreakdown(window, loc),
	}

	var responseTotal, responseCount int
	for _, e := range window {
		stats.TotalReviews++
		if e.IsCorrect {
			stats.CorrectReviews++
		}
		if e.ResponseTimeMs != nil {
			responseTotal += *e.ResponseTimeMs
			responseCount++
		}
	}

	stats.Accuracy = percent(stats.CorrectReviews, stats.TotalReviews)
	if responseCount > 0 {
		stats.AverageResponseTimeMs = int(math.Round(float64(responseTotal) / float64(responseCount)))
	}
	stats.CurrentStreak, stats.LongestStreak = streaks(history, loc)

	return stats
}

// percent returns round(100 * part / total), or 0 when total is 0.
func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

func eventsSince(events []domain.ReviewEvent, from time.Time) []domain.ReviewEvent {
	i := sort.Search(len(events), func(i int) bool {
		return !events[i].ReviewedAt.Before(from)
	})
	return events[i:]
}

func dailyBreakdown(events []domain.ReviewEvent, loc *time.Location) []domain.DailyStat {
	byDay := make(map[string]*domain.DailyStat)
	for _, e := range events {
		key := e.ReviewedAt.In(loc).Format(dayLayout)
		day, ok := byDay[key]
		if !ok {
			day = &domain.DailyStat{Date: key}
			byDay[key] = day
		}
		day.Total++
		if e.IsCorrect {
			day.Correct++
		}
	}

	out := make([]domain.DailyStat, 0, len(byDay))
	for _, day := range byDay {
		day.Accuracy = percent(day.Correct, day.Total)
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// streaks counts runs of consecutive calendar days with at least one review.
// The current streak is the run ending on the most recent review day.
func streaks(events []domain.ReviewEvent, loc *time.Location) (current, longest int) {
	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0, len(events))
	for _, e := range events {
		day := calendarDay(e.ReviewedAt, loc)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		days = append(days, day)
	}
	if len(days) == 0 {
		return 0, 0
	}

	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	run := 1
	longest = 1
	for i := 1; i < len(days); i++ {
		if days[i].Equal(days[i-1].AddDate(0, 0, 1)) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return run, longest
}

// calendarDay returns midnight UTC of the date t falls on in loc, so that day
// arithmetic ignores DST changes.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
