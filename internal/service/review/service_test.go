package review

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/events"
	"github.com/phrazzld/lexis/internal/platform/memory"
	"github.com/phrazzld/lexis/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

var start = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc   Service
	mem   *memory.Store
	clock *testClock
}

func newFixture(t *testing.T, configure ...func(*Options)) *fixture {
	t.Helper()
	clock := &testClock{t: start}
	mem := memory.NewStore()
	opts := DefaultOptions()
	opts.Now = clock.Now
	for _, c := range configure {
		c(&opts)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewReviewService(mem, mem.Stores(), srs.NewDefaultService(), opts, logger)
	return &fixture{svc: svc, mem: mem, clock: clock}
}

func (f *fixture) addItem(t *testing.T, owner *uuid.UUID, term string) *domain.VocabularyItem {
	t.Helper()
	item, err := domain.NewVocabularyItem(owner, term, term+"-translation")
	require.NoError(t, err)
	item.CreatedAt = f.clock.Now()
	f.clock.Advance(time.Second)
	require.NoError(t, f.mem.Stores().Vocabulary.Create(context.Background(), item))
	return item
}

func (f *fixture) submit(t *testing.T, userID, itemID uuid.UUID, grade domain.QualityGrade) *ScheduleResult {
	t.Helper()
	result, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
		UserID: userID,
		ItemID: itemID,
		Grade:  grade,
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) events(t *testing.T, userID uuid.UUID) []domain.ReviewEvent {
	t.Helper()
	list, err := f.mem.Stores().Events.List(context.Background(), userID, nil, nil)
	require.NoError(t, err)
	return list
}

func intPtr(v int) *int { return &v }

func TestNewReviewService_PanicsOnNilDependencies(t *testing.T) {
	mem := memory.NewStore()
	engine := srs.NewDefaultService()

	assert.Panics(t, func() { NewReviewService(nil, mem.Stores(), engine, Options{}, nil) })
	assert.Panics(t, func() { NewReviewService(mem, store.Stores{}, engine, Options{}, nil) })
	assert.Panics(t, func() { NewReviewService(mem, mem.Stores(), nil, Options{}, nil) })
	assert.NotPanics(t, func() { NewReviewService(mem, mem.Stores(), engine, Options{}, nil) })
}

func TestSubmitReview_FirstReview(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	item := f.addItem(t, nil, "Haus")
	now := f.clock.Now()

	result, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
		UserID:         userID,
		ItemID:         item.ID,
		Grade:          domain.GradeGood,
		ResponseTimeMs: intPtr(1200),
	})
	require.NoError(t, err)

	assert.Equal(t, item.ID, result.ItemID)
	assert.Equal(t, 1, result.Repetitions)
	assert.Equal(t, 1, result.Interval)
	assert.InDelta(t, 2.5, result.EasinessFactor, 1e-9)
	assert.Equal(t, 1, result.TotalReviews)
	assert.Equal(t, 1, result.CorrectReviews)
	assert.Equal(t, domain.StageLearning, result.Stage)
	assert.True(t, result.NextReviewAt.Equal(now.AddDate(0, 0, 1)))

	stored, err := f.mem.Stores().Progress.Get(context.Background(), userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Interval, stored.Interval)
	require.NotNil(t, stored.LastReviewedAt)
	assert.True(t, stored.LastReviewedAt.Equal(now))

	history := f.events(t, userID)
	require.Len(t, history, 1)
	assert.Equal(t, domain.GradeGood, history[0].Grade)
	assert.True(t, history[0].IsCorrect)
	assert.Equal(t, 1, history[0].NewInterval)
	require.NotNil(t, history[0].ResponseTimeMs)
	assert.Equal(t, 1200, *history[0].ResponseTimeMs)
}

func TestSubmitReview_Sequences(t *testing.T) {
	t.Run("three successes grow the interval", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		item := f.addItem(t, nil, "Baum")

		intervals := []int{}
		for i := 0; i < 3; i++ {
			r := f.submit(t, userID, item.ID, domain.GradeGood)
			intervals = append(intervals, r.Interval)
			f.clock.Advance(time.Duration(r.Interval) * 24 * time.Hour)
		}
		assert.Equal(t, []int{1, 6, 15}, intervals)
	})

	t.Run("a lapse resets repetitions and lowers easiness", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		item := f.addItem(t, nil, "Katze")

		f.submit(t, userID, item.ID, domain.GradeGood)
		f.clock.Advance(24 * time.Hour)
		r := f.submit(t, userID, item.ID, domain.GradeAgain)

		assert.Equal(t, 0, r.Repetitions)
		assert.Equal(t, 1, r.Interval)
		assert.InDelta(t, 2.18, r.EasinessFactor, 1e-9)
		assert.Equal(t, 2, r.TotalReviews)
		assert.Equal(t, 1, r.CorrectReviews)
		assert.Equal(t, domain.StageNew, r.Stage)

		history := f.events(t, userID)
		require.Len(t, history, 2)
		assert.False(t, history[1].IsCorrect)
		assert.InDelta(t, 2.5, history[1].PreviousEasiness, 1e-9)
		assert.InDelta(t, 2.18, history[1].NewEasiness, 1e-9)
	})

	t.Run("new hint restarts the schedule but keeps counters", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		item := f.addItem(t, nil, "Hund")

		for i := 0; i < 3; i++ {
			f.submit(t, userID, item.ID, domain.GradeGood)
		}

		r, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
			UserID:    userID,
			ItemID:    item.ID,
			Grade:     domain.GradeGood,
			IsNewHint: true,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, r.Repetitions)
		assert.Equal(t, 1, r.Interval)
		assert.Equal(t, 4, r.TotalReviews)
		assert.Equal(t, 4, r.CorrectReviews)
	})
}

func TestSubmitReview_Validation(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	item := f.addItem(t, nil, "Wasser")

	tests := []struct {
		name    string
		input   SubmitReviewInput
		field   string
		wantErr error
	}{
		{"grade too high", SubmitReviewInput{UserID: userID, ItemID: item.ID, Grade: 4}, "quality_grade", domain.ErrInvalidGrade},
		{"negative grade", SubmitReviewInput{UserID: userID, ItemID: item.ID, Grade: -1}, "quality_grade", domain.ErrInvalidGrade},
		{"nil user", SubmitReviewInput{ItemID: item.ID, Grade: domain.GradeGood}, "user_id", domain.ErrInvalidID},
		{"nil item", SubmitReviewInput{UserID: userID, Grade: domain.GradeGood}, "item_id", domain.ErrInvalidID},
		{
			"negative response time",
			SubmitReviewInput{UserID: userID, ItemID: item.ID, Grade: domain.GradeGood, ResponseTimeMs: intPtr(-5)},
			"response_time_ms",
			domain.ErrInvalidResponseTime,
		},
		{
			// 2^32 + 1500 would read back as 1500 if narrowed to 32 bits.
			"response time beyond column range",
			SubmitReviewInput{UserID: userID, ItemID: item.ID, Grade: domain.GradeGood, ResponseTimeMs: intPtr(4294968796)},
			"response_time_ms",
			domain.ErrInvalidResponseTime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitReview(context.Background(), tt.input)
			require.Error(t, err)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.False(t, domain.IsRetryable(err))
		})
	}

	assert.Empty(t, f.events(t, userID))
	_, err := f.mem.Stores().Progress.Get(context.Background(), userID, item.ID)
	assert.ErrorIs(t, err, store.ErrProgressNotFound)
}

func TestSubmitReview_MissingItem(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	other := uuid.New()
	private := f.addItem(t, &other, "geheim")

	t.Run("unknown item", func(t *testing.T) {
		_, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
			UserID: userID, ItemID: uuid.New(), Grade: domain.GradeGood,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.ErrorIs(t, err, ErrItemNotFound)

		var serviceErr *ServiceError
		require.True(t, errors.As(err, &serviceErr))
		assert.Equal(t, opSubmitReview, serviceErr.Operation)
	})

	t.Run("item owned by someone else", func(t *testing.T) {
		_, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
			UserID: userID, ItemID: private.ID, Grade: domain.GradeGood,
		})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	assert.Empty(t, f.events(t, userID))
}

func TestSubmitReview_ConcurrentSamePair(t *testing.T) {
	f := newFixture(t)
	userID := uuid.New()
	item := f.addItem(t, nil, "gleichzeitig")

	const n = 25
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			grade := domain.GradeGood
			if i%5 == 0 {
				grade = domain.GradeAgain
			}
			_, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
				UserID: userID, ItemID: item.ID, Grade: grade,
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored, err := f.mem.Stores().Progress.Get(context.Background(), userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, n, stored.TotalReviews)
	assert.Equal(t, n-5, stored.CorrectReviews)
	assert.Len(t, f.events(t, userID), n)

	impl := f.svc.(*reviewServiceImpl)
	assert.Equal(t, 0, impl.pairs.len())
}

type mockEmitter struct {
	mock.Mock
}

func (m *mockEmitter) EmitEvent(ctx context.Context, event *events.ProgressChangedEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func TestSubmitReview_EmitsAfterCommit(t *testing.T) {
	t.Run("event describes the stored progress", func(t *testing.T) {
		emitter := &mockEmitter{}
		f := newFixture(t, func(o *Options) { o.Emitter = emitter })
		userID := uuid.New()
		item := f.addItem(t, nil, "Licht")

		emitter.On("EmitEvent", mock.Anything, mock.MatchedBy(func(e *events.ProgressChangedEvent) bool {
			return e.Type == events.TypeProgressChanged &&
				e.UserID == userID &&
				e.ItemID == item.ID &&
				e.Grade == domain.GradeEasy
		})).Return(nil).Once()

		r := f.submit(t, userID, item.ID, domain.GradeEasy)
		emitter.AssertExpectations(t)

		event := emitter.Calls[0].Arguments.Get(1).(*events.ProgressChangedEvent)
		assert.True(t, event.NextReviewAt.Equal(r.NextReviewAt))
	})

	t.Run("emitter failure does not fail the review", func(t *testing.T) {
		emitter := &mockEmitter{}
		f := newFixture(t, func(o *Options) { o.Emitter = emitter })
		userID := uuid.New()
		item := f.addItem(t, nil, "Nacht")

		emitter.On("EmitEvent", mock.Anything, mock.Anything).Return(errors.New("handler down"))

		r, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
			UserID: userID, ItemID: item.ID, Grade: domain.GradeGood,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, r.TotalReviews)
		assert.Len(t, f.events(t, userID), 1)
	})

	t.Run("no event when the review fails", func(t *testing.T) {
		emitter := &mockEmitter{}
		f := newFixture(t, func(o *Options) { o.Emitter = emitter })

		_, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{
			UserID: uuid.New(), ItemID: uuid.New(), Grade: domain.GradeGood,
		})
		require.Error(t, err)
		emitter.AssertNotCalled(t, "EmitEvent", mock.Anything, mock.Anything)
	})
}

// resetFailingEngine seeds normally but cannot build a fresh schedule afterwards.
type resetFailingEngine struct {
	srs.Service
	seeded bool
}

func (e *resetFailingEngine) NewProgress(userID, itemID uuid.UUID, now time.Time) (*domain.LearningProgress, error) {
	if e.seeded {
		return nil, errors.New("engine misconfigured")
	}
	e.seeded = true
	return e.Service.NewProgress(userID, itemID, now)
}

func TestSubmitReview_NewHintResetFailure(t *testing.T) {
	mem := memory.NewStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewReviewService(mem, mem.Stores(), &resetFailingEngine{Service: srs.NewDefaultService()}, DefaultOptions(), logger)
	userID := uuid.New()
	item, err := domain.NewVocabularyItem(nil, "Brot", "bread")
	require.NoError(t, err)
	require.NoError(t, mem.Stores().Vocabulary.Create(context.Background(), item))

	first, err := svc.SubmitReview(context.Background(), SubmitReviewInput{
		UserID: userID, ItemID: item.ID, Grade: domain.GradeGood,
	})
	require.NoError(t, err)

	_, err = svc.SubmitReview(context.Background(), SubmitReviewInput{
		UserID: userID, ItemID: item.ID, Grade: domain.GradeGood, IsNewHint: true,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine misconfigured")

	stored, err := mem.Stores().Progress.Get(context.Background(), userID, item.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Repetitions, stored.Repetitions)
	assert.Equal(t, 1, stored.TotalReviews)

	events, err := mem.Stores().Events.List(context.Background(), userID, nil, nil)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

// failingTransactor returns err from every unit of work.
type failingTransactor struct {
	err error
}

func (f failingTransactor) RunInTransaction(context.Context, store.TxStoresFn) error {
	return f.err
}

func TestSubmitReview_StoreFailures(t *testing.T) {
	mem := memory.NewStore()
	tests := []struct {
		name      string
		storeErr  error
		wantKind  error
		retryable bool
	}{
		{"generic failure", errors.New("connection reset"), domain.ErrStorage, true},
		{"conflict", fmt.Errorf("%w: serialization failure", store.ErrConflict), domain.ErrConflict, true},
		{"transaction failure", store.ErrTransactionFailed, domain.ErrStorage, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewReviewService(failingTransactor{err: tt.storeErr}, mem.Stores(), srs.NewDefaultService(), Options{}, nil)

			_, err := svc.SubmitReview(context.Background(), SubmitReviewInput{
				UserID: uuid.New(), ItemID: uuid.New(), Grade: domain.GradeHard,
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantKind)
			assert.ErrorIs(t, err, tt.storeErr)
			assert.Equal(t, tt.retryable, domain.IsRetryable(err))
		})
	}
}

func TestGetReviewQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("empty store returns empty lists", func(t *testing.T) {
		f := newFixture(t)
		q, err := f.svc.GetReviewQueue(ctx, uuid.New(), 0)
		require.NoError(t, err)
		assert.NotNil(t, q.DueItems)
		assert.NotNil(t, q.NewItems)
		assert.Zero(t, q.TotalDue)
		assert.Zero(t, q.TotalNew)
	})

	t.Run("backfills new items when few are due", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		items := make([]*domain.VocabularyItem, 8)
		for i := range items {
			items[i] = f.addItem(t, nil, fmt.Sprintf("wort-%d", i))
		}

		q, err := f.svc.GetReviewQueue(ctx, userID, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, q.TotalDue)
		require.Equal(t, 5, q.TotalNew)
		assert.Equal(t, items[0].ID, q.NewItems[0].ID)

		f.submit(t, userID, items[0].ID, domain.GradeGood)
		f.submit(t, userID, items[1].ID, domain.GradeGood)
		f.clock.Advance(48 * time.Hour)

		q, err = f.svc.GetReviewQueue(ctx, userID, 0)
		require.NoError(t, err)
		assert.Equal(t, 2, q.TotalDue)
		assert.Equal(t, 3, q.TotalNew)
		for _, item := range q.NewItems {
			assert.NotEqual(t, items[0].ID, item.ID)
			assert.NotEqual(t, items[1].ID, item.ID)
		}
	})

	t.Run("no backfill once enough are due", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		for i := 0; i < 7; i++ {
			item := f.addItem(t, nil, fmt.Sprintf("fällig-%d", i))
			f.submit(t, userID, item.ID, domain.GradeGood)
			f.clock.Advance(time.Minute)
		}
		f.addItem(t, nil, "neu")
		f.clock.Advance(48 * time.Hour)

		q, err := f.svc.GetReviewQueue(ctx, userID, 0)
		require.NoError(t, err)
		assert.Equal(t, 7, q.TotalDue)
		assert.Zero(t, q.TotalNew)
		for i := 1; i < len(q.DueItems); i++ {
			prev, cur := q.DueItems[i-1].Progress.NextReviewAt, q.DueItems[i].Progress.NextReviewAt
			assert.False(t, cur.Before(prev), "due items must be most overdue first")
		}

		again, err := f.svc.GetReviewQueue(ctx, userID, 0)
		require.NoError(t, err)
		assert.Equal(t, q, again)
	})

	t.Run("limit caps due items only", func(t *testing.T) {
		f := newFixture(t, func(o *Options) { o.MaxQueueLimit = 3 })
		userID := uuid.New()
		for i := 0; i < 6; i++ {
			item := f.addItem(t, nil, fmt.Sprintf("grenze-%d", i))
			f.submit(t, userID, item.ID, domain.GradeGood)
		}
		for i := 0; i < 4; i++ {
			f.addItem(t, nil, fmt.Sprintf("offen-%d", i))
		}
		f.clock.Advance(48 * time.Hour)

		q, err := f.svc.GetReviewQueue(ctx, userID, 50)
		require.NoError(t, err)
		assert.Equal(t, 3, q.TotalDue)
		assert.Equal(t, 2, q.TotalNew, "backfill tops up to the minimum queue size")
	})

	t.Run("small limit still backfills to the minimum", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		for i := 0; i < 6; i++ {
			f.addItem(t, nil, fmt.Sprintf("klein-%d", i))
		}

		q, err := f.svc.GetReviewQueue(ctx, userID, 2)
		require.NoError(t, err)
		assert.Zero(t, q.TotalDue)
		assert.Equal(t, 5, q.TotalNew)
		assert.Len(t, q.NewItems, 5)
	})

	t.Run("does not modify data", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		item := f.addItem(t, nil, "still")

		_, err := f.svc.GetReviewQueue(ctx, userID, 0)
		require.NoError(t, err)
		_, err = f.mem.Stores().Progress.Get(ctx, userID, item.ID)
		assert.ErrorIs(t, err, store.ErrProgressNotFound)
	})

	t.Run("nil user", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetReviewQueue(ctx, uuid.Nil, 0)
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestPostponeReview(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	item := f.addItem(t, nil, "später")

	_, err := f.svc.PostponeReview(ctx, userID, item.ID, 3)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, err, ErrNotStarted)

	_, err = f.svc.PostponeReview(ctx, userID, item.ID, 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	reviewed := f.submit(t, userID, item.ID, domain.GradeGood)
	postponed, err := f.svc.PostponeReview(ctx, userID, item.ID, 3)
	require.NoError(t, err)

	assert.True(t, postponed.NextReviewAt.Equal(reviewed.NextReviewAt.AddDate(0, 0, 3)))
	assert.Equal(t, reviewed.Repetitions, postponed.Repetitions)
	assert.Equal(t, reviewed.Interval, postponed.Interval)
	assert.Equal(t, reviewed.TotalReviews, postponed.TotalReviews)
	assert.Len(t, f.events(t, userID), 1)
}

func TestGetLearningStats(t *testing.T) {
	ctx := context.Background()

	t.Run("no reviews", func(t *testing.T) {
		f := newFixture(t)
		stats, err := f.svc.GetLearningStats(ctx, uuid.New(), "all")
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodAll, stats.Period)
		assert.Zero(t, stats.TotalReviews)
		assert.Zero(t, stats.Accuracy)
		assert.Zero(t, stats.AverageResponseTimeMs)
		assert.Zero(t, stats.CurrentStreak)
		assert.Zero(t, stats.LongestStreak)
		assert.NotNil(t, stats.DailyBreakdown)
		assert.Empty(t, stats.DailyBreakdown)
	})

	t.Run("invalid period", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.GetLearningStats(ctx, uuid.New(), "1y")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
	})

	t.Run("empty period means a week", func(t *testing.T) {
		f := newFixture(t)
		stats, err := f.svc.GetLearningStats(ctx, uuid.New(), "")
		require.NoError(t, err)
		assert.Equal(t, domain.PeriodWeek, stats.Period)
	})

	t.Run("three consecutive days", func(t *testing.T) {
		f := newFixture(t)
		userID := uuid.New()
		item := f.addItem(t, nil, "Tag")

		responses := []*int{intPtr(1000), nil, intPtr(2001)}
		grades := []domain.QualityGrade{domain.GradeGood, domain.GradeAgain, domain.GradeEasy}
		for i := range grades {
			_, err := f.svc.SubmitReview(ctx, SubmitReviewInput{
				UserID: userID, ItemID: item.ID, Grade: grades[i], ResponseTimeMs: responses[i],
			})
			require.NoError(t, err)
			if i < len(grades)-1 {
				f.clock.Advance(25 * time.Hour)
			}
		}

		stats, err := f.svc.GetLearningStats(ctx, userID, "7d")
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalReviews)
		assert.Equal(t, 2, stats.CorrectReviews)
		assert.Equal(t, 67, stats.Accuracy)
		assert.Equal(t, 1501, stats.AverageResponseTimeMs)
		assert.Equal(t, 3, stats.CurrentStreak)
		assert.Equal(t, 3, stats.LongestStreak)
		require.Len(t, stats.DailyBreakdown, 3)
		assert.Equal(t, "2026-05-04", stats.DailyBreakdown[0].Date)
		assert.Equal(t, 100, stats.DailyBreakdown[0].Accuracy)
		assert.Equal(t, 0, stats.DailyBreakdown[1].Accuracy)

		day, err := f.svc.GetLearningStats(ctx, userID, "24h")
		require.NoError(t, err)
		assert.Equal(t, 1, day.TotalReviews)
		assert.Equal(t, 3, day.CurrentStreak, "streaks consider the full history")
	})
}

func TestGetUserStats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	userID := uuid.New()
	mastered := f.addItem(t, nil, "gelernt")
	learning := f.addItem(t, nil, "lernend")

	for i := 0; i < domain.MasteryRepetitions; i++ {
		f.submit(t, userID, mastered.ID, domain.GradeGood)
	}
	f.submit(t, userID, learning.ID, domain.GradeAgain)

	stats, err := f.svc.GetUserStats(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, stats.UserID)
	assert.Equal(t, 2, stats.TotalVocabulary)
	assert.Equal(t, 1, stats.MasteredVocabulary)
	assert.Equal(t, 6, stats.TotalReviews)
	assert.Equal(t, 5, stats.CorrectReviews)
	assert.Equal(t, 1, stats.CurrentStreak)

	_, err = f.svc.GetUserStats(ctx, uuid.Nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	f := newFixture(t, func(o *Options) { o.Tracer = provider.Tracer(TracerName) })
	userID := uuid.New()
	item := f.addItem(t, nil, "Spur")

	f.submit(t, userID, item.ID, domain.GradeGood)
	_, err := f.svc.SubmitReview(context.Background(), SubmitReviewInput{UserID: userID, ItemID: item.ID, Grade: 9})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "review.SubmitReview", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
