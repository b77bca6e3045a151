package srs

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultService(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	if service == nil {
		t.Fatal("Expected non-nil service")
	}

	// Check if default params are present
	svc, ok := service.(*defaultService)
	if !ok {
		t.Fatal("Expected *defaultService type")
	}

	if svc.params == nil {
		t.Fatal("Expected non-nil params")
	}

	assert.NotNil(t, NewServiceWithParams(nil).(*defaultService).params)
}

func TestApplyReview(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Now().UTC()

	initial, err := service.NewProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	testCases := []struct {
		name         string
		grade        domain.QualityGrade
		wantReps     int
		wantInterval int
		wantCorrect  int
	}{
		{"Again keeps the item new", domain.GradeAgain, 0, 1, 0},
		{"Hard is a first success", domain.GradeHard, 1, 1, 1},
		{"Good is a first success", domain.GradeGood, 1, 1, 1},
		{"Easy is a first success", domain.GradeEasy, 1, 1, 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			updated, err := service.ApplyReview(initial, tc.grade, now)
			require.NoError(t, err)

			assert.Equal(t, tc.wantReps, updated.Repetitions)
			assert.Equal(t, tc.wantInterval, updated.Interval)
			assert.Equal(t, 1, updated.TotalReviews)
			assert.Equal(t, tc.wantCorrect, updated.CorrectReviews)
			assert.Equal(t, now.AddDate(0, 0, tc.wantInterval), updated.NextReviewAt)
			assert.GreaterOrEqual(t, updated.EasinessFactor, 1.3)
			assert.NoError(t, updated.Validate())
		})
	}
}

func TestApplyReview_InvalidInput(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now()

	_, err := service.ApplyReview(nil, domain.GradeGood, now)
	assert.ErrorIs(t, err, ErrNilProgress)

	p, err := service.NewProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	_, err = service.ApplyReview(p, domain.QualityGrade(4), now)
	assert.ErrorIs(t, err, domain.ErrInvalidGrade)
}

func TestCountersStayConsistentForAnyGradeSequence(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := service.NewProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)

	sequence := []domain.QualityGrade{3, 2, 0, 1, 1, 2, 3, 3, 0, 0, 2, 2, 2, 1, 3}
	for i, g := range sequence {
		now = now.AddDate(0, 0, p.Interval)
		p, err = service.ApplyReview(p, g, now)
		require.NoError(t, err)
		require.LessOrEqual(t, p.CorrectReviews, p.TotalReviews)
		require.Equal(t, i+1, p.TotalReviews)
		require.NoError(t, p.Validate())
	}
}

func TestComputeNextSchedule_ConcurrentCallers(t *testing.T) {
	t.Parallel()
	service := NewDefaultService()
	now := time.Now()
	p := &domain.LearningProgress{Repetitions: 3, EasinessFactor: 2.2, Interval: 10}

	want := service.ComputeNextSchedule(p, domain.GradeGood, now)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, service.ComputeNextSchedule(p, domain.GradeGood, now))
		}()
	}
	wg.Wait()
}

func TestPostponeReview(t *testing.T) {
	t.Parallel() // Enable parallel execution
	service := NewDefaultService()
	now := time.Now().UTC()

	p, err := service.NewProgress(uuid.New(), uuid.New(), now)
	require.NoError(t, err)
	p.Repetitions = 3
	p.Interval = 15

	postponed, err := service.PostponeReview(p, 3, now)
	require.NoError(t, err)

	assert.Equal(t, p.NextReviewAt.AddDate(0, 0, 3), postponed.NextReviewAt)
	assert.Equal(t, 3, postponed.Repetitions)
	assert.Equal(t, 15, postponed.Interval)
	assert.Equal(t, now, postponed.UpdatedAt)

	_, err = service.PostponeReview(p, 0, now)
	assert.ErrorIs(t, err, ErrInvalidDays)

	_, err = service.PostponeReview(nil, 1, now)
	assert.ErrorIs(t, err, ErrNilProgress)
}

func TestNewProgressUsesParams(t *testing.T) {
	t.Parallel()
	service := NewServiceWithParams(NewParams(ParamsConfig{InitialEasinessFactor: 2.2}))

	p, err := service.NewProgress(uuid.New(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2.2, p.EasinessFactor)
	assert.Equal(t, 1, p.Interval)

	_, err = service.NewProgress(uuid.Nil, uuid.New(), time.Now())
	assert.ErrorIs(t, err, domain.ErrEmptyProgressUserID)
}
