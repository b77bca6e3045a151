package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/domain/srs"
	"github.com/phrazzld/lexis/internal/events"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name used for review service spans.
const TracerName = "github.com/phrazzld/lexis/internal/service/review"

// Verify interface compliance at compile time
var _ Service = (*reviewServiceImpl)(nil)

// reviewServiceImpl implements the Service interface.
type reviewServiceImpl struct {
	tx       store.Transactor
	reader   store.Stores
	engine   srs.Service
	opts     Options
	pairs    *keyedMutex
	validate *validator.Validate
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewReviewService creates a new Service implementation. Writes run through
// tx; queue and statistics reads use reader directly.
func NewReviewService(
	tx store.Transactor,
	reader store.Stores,
	engine srs.Service,
	opts Options,
	logger *slog.Logger,
) Service {
	// Validate inputs
	if tx == nil {
		panic("transactor cannot be nil")
	}
	if reader.Progress == nil || reader.Events == nil || reader.Vocabulary == nil {
		panic("reader stores cannot be nil")
	}
	if engine == nil {
		panic("engine cannot be nil")
	}

	// Use provided logger or create default
	if logger == nil {
		logger = slog.Default()
	}

	opts = opts.withDefaults()
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer(TracerName)
	}

	return &reviewServiceImpl{
		tx:       tx,
		reader:   reader,
		engine:   engine,
		opts:     opts,
		pairs:    newKeyedMutex(),
		validate: newValidator(),
		tracer:   tracer,
		logger:   logger.With(slog.String("component", "review_service")),
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return field.Name
		}
		return name
	})
	return v
}

// GetReviewQueue implements Service.GetReviewQueue.
func (s *reviewServiceImpl) GetReviewQueue(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) (*ReviewQueue, error) {
	ctx, span := s.tracer.Start(ctx, "review.GetReviewQueue",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, s.fail(span, &ValidationError{Field: "user_id", Message: "must not be empty"})
	}

	limit = s.normalizeLimit(limit)
	now := s.opts.Now()
	span.SetAttributes(attribute.Int("limit", limit))

	due, err := s.reader.Progress.ListDue(ctx, userID, now, limit)
	if err != nil {
		log.Error("failed to list due items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, s.fail(span, newServiceError(opGetReviewQueue, "failed to list due items", err))
	}

	queue := &ReviewQueue{
		DueItems: due,
		NewItems: []domain.VocabularyItem{},
	}

	if backfill := s.backfillSize(len(due)); backfill > 0 {
		items, err := s.reader.Vocabulary.ListNewForUser(ctx, userID, backfill)
		if err != nil {
			log.Error("failed to list new items",
				slog.String("error", err.Error()),
				slog.String("user_id", userID.String()))
			return nil, s.fail(span, newServiceError(opGetReviewQueue, "failed to list new items", err))
		}
		queue.NewItems = items
	}

	if queue.DueItems == nil {
		queue.DueItems = []domain.DueItem{}
	}
	queue.TotalDue = len(queue.DueItems)
	queue.TotalNew = len(queue.NewItems)

	span.SetAttributes(
		attribute.Int("total_due", queue.TotalDue),
		attribute.Int("total_new", queue.TotalNew))
	log.Debug("built review queue",
		slog.String("user_id", userID.String()),
		slog.Int("total_due", queue.TotalDue),
		slog.Int("total_new", queue.TotalNew))

	return queue, nil
}

func (s *reviewServiceImpl) normalizeLimit(limit int) int {
	if limit <= 0 {
		limit = s.opts.DefaultQueueLimit
	}
	if limit > s.opts.MaxQueueLimit {
		limit = s.opts.MaxQueueLimit
	}
	return limit
}

// backfillSize is how many new items top up a queue holding dueCount items.
// The limit bounds due items only, so a small limit can still get a full backfill.
func (s *reviewServiceImpl) backfillSize(dueCount int) int {
	if dueCount >= s.opts.MinQueueSize {
		return 0
	}
	return s.opts.MinQueueSize - dueCount
}

// SubmitReview implements Service.SubmitReview.
func (s *reviewServiceImpl) SubmitReview(
	ctx context.Context,
	input SubmitReviewInput,
) (*ScheduleResult, error) {
	ctx, span := s.tracer.Start(ctx, "review.SubmitReview",
		trace.WithAttributes(
			attribute.String("user_id", input.UserID.String()),
			attribute.String("item_id", input.ItemID.String()),
			attribute.Int("quality_grade", int(input.Grade))))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", input.UserID.String()),
		slog.String("item_id", input.ItemID.String()))

	log.Debug("processing review", slog.String("grade", input.Grade.String()))

	if err := s.validateInput(input); err != nil {
		log.Warn("invalid review input", slog.String("error", err.Error()))
		return nil, s.fail(span, err)
	}

	unlock := s.pairs.Lock(input.UserID, input.ItemID)
	defer unlock()

	now := s.opts.Now()

	// We need to run these operations in a single transaction
	var stored *domain.LearningProgress
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, stores store.Stores) error {
		current, err := s.lockProgress(ctx, stores, input.UserID, input.ItemID, now)
		if err != nil {
			return err
		}

		base := current
		if input.IsNewHint {
			if base, err = s.resetSchedule(current); err != nil {
				return fmt.Errorf("failed to reset schedule: %w", err)
			}
		}

		updated, err := s.engine.ApplyReview(base, input.Grade, now)
		if err != nil {
			return fmt.Errorf("failed to apply review: %w", err)
		}

		stored, err = stores.Progress.Upsert(ctx, updated)
		if err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}

		event := domain.NewReviewEvent(current, stored, input.Grade, input.ResponseTimeMs, now)
		if err := stores.Events.Append(ctx, event); err != nil {
			return fmt.Errorf("failed to append review event: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to submit review", slog.String("error", err.Error()))
		return nil, s.fail(span, newServiceError(opSubmitReview, "failed to submit review", err))
	}

	s.emit(ctx, log, events.NewProgressChangedEvent(stored, input.Grade, now))

	result := newScheduleResult(stored)
	span.SetAttributes(
		attribute.Int("interval", result.Interval),
		attribute.String("stage", string(result.Stage)))
	log.Debug("review submitted",
		slog.Int("interval", result.Interval),
		slog.Int("repetitions", result.Repetitions),
		slog.Float64("easiness_factor", result.EasinessFactor),
		slog.Time("next_review_at", result.NextReviewAt))

	return result, nil
}

func (s *reviewServiceImpl) validateInput(input SubmitReviewInput) error {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldValidationError(fieldErrs[0])
		}
		return &ValidationError{Field: "input", Message: err.Error()}
	}
	return nil
}

func fieldValidationError(fe validator.FieldError) *ValidationError {
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Message: "must not be empty", Err: domain.ErrInvalidID}
	case "gte", "lte":
		if fe.Field() == "quality_grade" {
			return &ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("must be between %d and %d", domain.GradeAgain, domain.MaxGrade),
				Err:     domain.ErrInvalidGrade,
			}
		}
		if fe.Field() == "response_time_ms" {
			return &ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("must be between 0 and %d", domain.MaxResponseTimeMs),
				Err:     domain.ErrInvalidResponseTime,
			}
		}
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param())}
	default:
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("failed %s check", fe.Tag())}
	}
}

// lockProgress returns the locked progress row for the pair, seeding it with
// defaults when the user has never studied the item.
func (s *reviewServiceImpl) lockProgress(
	ctx context.Context,
	stores store.Stores,
	userID, itemID uuid.UUID,
	now time.Time,
) (*domain.LearningProgress, error) {
	current, err := stores.Progress.GetForUpdate(ctx, userID, itemID)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, store.ErrProgressNotFound) {
		return nil, fmt.Errorf("failed to lock progress: %w", err)
	}

	item, err := stores.Vocabulary.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !item.VisibleTo(userID) {
		return nil, ErrItemNotFound
	}

	fresh, err := s.engine.NewProgress(userID, itemID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to build initial progress: %w", err)
	}
	if _, err := stores.Progress.CreateIfAbsent(ctx, fresh); err != nil {
		return nil, fmt.Errorf("failed to seed progress: %w", err)
	}

	current, err = stores.Progress.GetForUpdate(ctx, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock seeded progress: %w", err)
	}
	return current, nil
}

// resetSchedule restarts the SM-2 state from the defaults. Counters and
// timestamps carry over from the stored row.
func (s *reviewServiceImpl) resetSchedule(p *domain.LearningProgress) (*domain.LearningProgress, error) {
	fresh, err := s.engine.NewProgress(p.UserID, p.ItemID, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	reset := p.Clone()
	reset.Repetitions = fresh.Repetitions
	reset.EasinessFactor = fresh.EasinessFactor
	reset.Interval = fresh.Interval
	return reset, nil
}

func (s *reviewServiceImpl) emit(ctx context.Context, log *slog.Logger, event *events.ProgressChangedEvent) {
	if err := s.opts.Emitter.EmitEvent(ctx, event); err != nil {
		log.Warn("failed to emit progress event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
	}
}

// PostponeReview implements Service.PostponeReview.
func (s *reviewServiceImpl) PostponeReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	days int,
) (*ScheduleResult, error) {
	ctx, span := s.tracer.Start(ctx, "review.PostponeReview",
		trace.WithAttributes(
			attribute.String("user_id", userID.String()),
			attribute.String("item_id", itemID.String()),
			attribute.Int("days", days)))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()))

	switch {
	case userID == uuid.Nil:
		return nil, s.fail(span, &ValidationError{Field: "user_id", Message: "must not be empty"})
	case itemID == uuid.Nil:
		return nil, s.fail(span, &ValidationError{Field: "item_id", Message: "must not be empty"})
	case days < 1:
		return nil, s.fail(span, &ValidationError{Field: "days", Message: "must be at least 1"})
	}

	unlock := s.pairs.Lock(userID, itemID)
	defer unlock()

	now := s.opts.Now()

	var stored *domain.LearningProgress
	err := s.tx.RunInTransaction(ctx, func(ctx context.Context, stores store.Stores) error {
		current, err := stores.Progress.GetForUpdate(ctx, userID, itemID)
		if err != nil {
			if errors.Is(err, store.ErrProgressNotFound) {
				return ErrNotStarted
			}
			return fmt.Errorf("failed to lock progress: %w", err)
		}

		postponed, err := s.engine.PostponeReview(current, days, now)
		if err != nil {
			return fmt.Errorf("failed to postpone review: %w", err)
		}

		stored, err = stores.Progress.Upsert(ctx, postponed)
		if err != nil {
			return fmt.Errorf("failed to save progress: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to postpone review", slog.String("error", err.Error()))
		return nil, s.fail(span, newServiceError(opPostponeReview, "failed to postpone review", err))
	}

	log.Debug("review postponed",
		slog.Int("days", days),
		slog.Time("next_review_at", stored.NextReviewAt))

	return newScheduleResult(stored), nil
}

// GetLearningStats implements Service.GetLearningStats.
func (s *reviewServiceImpl) GetLearningStats(
	ctx context.Context,
	userID uuid.UUID,
	period string,
) (*domain.LearningStats, error) {
	ctx, span := s.tracer.Start(ctx, "review.GetLearningStats",
		trace.WithAttributes(
			attribute.String("user_id", userID.String()),
			attribute.String("period", period)))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, s.fail(span, &ValidationError{Field: "user_id", Message: "must not be empty"})
	}
	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, s.fail(span, &ValidationError{Field: "period", Message: err.Error(), Err: domain.ErrInvalidPeriod})
	}

	now := s.opts.Now()

	history, err := s.reader.Events.List(ctx, userID, nil, nil)
	if err != nil {
		log.Error("failed to list review events",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, s.fail(span, newServiceError(opGetLearningStats, "failed to list review events", err))
	}

	window := history
	if from := p.Since(now); from != nil {
		window = eventsSince(history, *from)
	}

	stats := computeLearningStats(p, window, history, s.opts.Location)
	span.SetAttributes(attribute.Int("total_reviews", stats.TotalReviews))
	return stats, nil
}

// GetUserStats implements Service.GetUserStats.
func (s *reviewServiceImpl) GetUserStats(
	ctx context.Context,
	userID uuid.UUID,
) (*domain.UserLearningStats, error) {
	ctx, span := s.tracer.Start(ctx, "review.GetUserStats",
		trace.WithAttributes(attribute.String("user_id", userID.String())))
	defer span.End()

	log := logger.FromContextOrDefault(ctx, s.logger)

	if userID == uuid.Nil {
		return nil, s.fail(span, &ValidationError{Field: "user_id", Message: "must not be empty"})
	}

	summary, err := s.reader.Progress.Summarize(ctx, userID, domain.MasteryRepetitions)
	if err != nil {
		log.Error("failed to summarize progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, s.fail(span, newServiceError(opGetUserStats, "failed to summarize progress", err))
	}

	history, err := s.reader.Events.List(ctx, userID, nil, nil)
	if err != nil {
		log.Error("failed to list review events",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, s.fail(span, newServiceError(opGetUserStats, "failed to list review events", err))
	}

	current, longest := streaks(history, s.opts.Location)
	return &domain.UserLearningStats{
		UserID:          userID,
		ProgressSummary: *summary,
		CurrentStreak:   current,
		LongestStreak:   longest,
	}, nil
}

// fail records err on span and returns it.
func (s *reviewServiceImpl) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func newScheduleResult(p *domain.LearningProgress) *ScheduleResult {
	return &ScheduleResult{
		ItemID:         p.ItemID,
		NextReviewAt:   p.NextReviewAt,
		Interval:       p.Interval,
		Repetitions:    p.Repetitions,
		EasinessFactor: p.EasinessFactor,
		TotalReviews:   p.TotalReviews,
		CorrectReviews: p.CorrectReviews,
		Stage:          p.Stage(),
	}
}
