// Package reviewcache decorates a review.Service with a read-through cache
// for queues and statistics. Writes invalidate every cached read of the
// affected user by bumping a per-user generation key.
package reviewcache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/config"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/events"
	"github.com/phrazzld/lexis/internal/platform/cache"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/service/review"
	"golang.org/x/sync/singleflight"
)

// Verify interface compliance at compile time
var (
	_ review.Service      = (*Service)(nil)
	_ events.EventHandler = (*Service)(nil)
)

const defaultGeneration = "0"

// Service caches GetReviewQueue, GetLearningStats and GetUserStats results.
// Cache failures are logged and the call falls through to the wrapped service.
type Service struct {
	next     review.Service
	cache    cache.Cache
	queueTTL time.Duration
	statsTTL time.Duration
	genTTL   time.Duration
	group    singleflight.Group
	logger   *slog.Logger
}

// New wraps next with c using the TTLs from cfg.
func New(next review.Service, c cache.Cache, cfg config.CacheConfig, logger *slog.Logger) *Service {
	if next == nil {
		panic("next cannot be nil")
	}
	if c == nil {
		panic("cache cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// A generation must outlive every entry stored under it, otherwise a
	// user could fall back to the default generation while old entries live.
	genTTL := 2 * max(cfg.QueueTTL, cfg.StatsTTL)
	if cfg.QueueTTL <= 0 || cfg.StatsTTL <= 0 {
		genTTL = 0
	}

	return &Service{
		next:     next,
		cache:    c,
		queueTTL: cfg.QueueTTL,
		statsTTL: cfg.StatsTTL,
		genTTL:   genTTL,
		logger:   logger.With(slog.String("component", "review_cache")),
	}
}

// GetReviewQueue implements review.Service.
func (s *Service) GetReviewQueue(ctx context.Context, userID uuid.UUID, limit int) (*review.ReviewQueue, error) {
	if userID == uuid.Nil {
		return s.next.GetReviewQueue(ctx, userID, limit)
	}
	key := fmt.Sprintf("queue:%s:%s:%d", userID, s.generation(ctx, userID), limit)
	return readThrough(ctx, s, key, s.queueTTL, func() (*review.ReviewQueue, error) {
		return s.next.GetReviewQueue(ctx, userID, limit)
	})
}

// GetLearningStats implements review.Service.
func (s *Service) GetLearningStats(ctx context.Context, userID uuid.UUID, period string) (*domain.LearningStats, error) {
	if userID == uuid.Nil {
		return s.next.GetLearningStats(ctx, userID, period)
	}
	key := fmt.Sprintf("stats:%s:%s:%s", userID, s.generation(ctx, userID), period)
	return readThrough(ctx, s, key, s.statsTTL, func() (*domain.LearningStats, error) {
		return s.next.GetLearningStats(ctx, userID, period)
	})
}

// GetUserStats implements review.Service.
func (s *Service) GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserLearningStats, error) {
	if userID == uuid.Nil {
		return s.next.GetUserStats(ctx, userID)
	}
	key := fmt.Sprintf("user_stats:%s:%s", userID, s.generation(ctx, userID))
	return readThrough(ctx, s, key, s.statsTTL, func() (*domain.UserLearningStats, error) {
		return s.next.GetUserStats(ctx, userID)
	})
}

// SubmitReview implements review.Service and invalidates the user's entries.
func (s *Service) SubmitReview(ctx context.Context, input review.SubmitReviewInput) (*review.ScheduleResult, error) {
	result, err := s.next.SubmitReview(ctx, input)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, input.UserID)
	return result, nil
}

// PostponeReview implements review.Service and invalidates the user's entries.
func (s *Service) PostponeReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	days int,
) (*review.ScheduleResult, error) {
	result, err := s.next.PostponeReview(ctx, userID, itemID, days)
	if err != nil {
		return nil, err
	}
	s.Invalidate(ctx, userID)
	return result, nil
}

// HandleEvent implements events.EventHandler so that progress written by
// another service instance also invalidates this cache.
func (s *Service) HandleEvent(ctx context.Context, event *events.ProgressChangedEvent) error {
	if event == nil {
		return nil
	}
	return s.invalidate(ctx, event.UserID)
}

// Invalidate drops every cached read for userID. Failures are logged.
func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.invalidate(ctx, userID); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to invalidate cache",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
	}
}

func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Set(ctx, generationKey(userID), []byte(uuid.NewString()), s.genTTL)
}

func generationKey(userID uuid.UUID) string {
	return "gen:" + userID.String()
}

func (s *Service) generation(ctx context.Context, userID uuid.UUID) string {
	gen, err := s.cache.Get(ctx, generationKey(userID))
	switch {
	case err == nil:
		return string(gen)
	case !errors.Is(err, cache.ErrCacheMiss):
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to read cache generation",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
	}
	return defaultGeneration
}

// readThrough returns the cached value for key or loads, stores and returns
// it. Concurrent misses on the same key share one load.
func readThrough[T any](
	ctx context.Context,
	s *Service,
	key string,
	ttl time.Duration,
	load func() (*T, error),
) (*T, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var cached T
	err := cache.GetJSON(ctx, s.cache, key, &cached)
	if err == nil {
		log.Debug("cache hit", slog.String("key", key))
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		log.Warn("cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		value, err := load()
		if err != nil {
			return nil, err
		}
		if err := cache.SetJSON(ctx, s.cache, key, value, ttl); err != nil {
			log.Warn("cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*T), nil
}
