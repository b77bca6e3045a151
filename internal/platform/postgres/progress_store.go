package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/store"
)

const progressColumns = `user_id, item_id, repetitions, easiness_factor, interval_days,
	next_review_at, last_reviewed_at, total_reviews, correct_reviews, created_at, updated_at`

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the ProgressStore interface.
// Pass a *sql.Tx to make GetForUpdate locks last for the transaction.
// If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// Get implements store.ProgressStore.Get.
func (s *PostgresProgressStore) Get(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.LearningProgress, error) {
	query := `SELECT ` + progressColumns + `
		FROM learning_progress
		WHERE user_id = $1 AND item_id = $2`
	return s.getOne(ctx, query, userID, itemID)
}

// GetForUpdate implements store.ProgressStore.GetForUpdate.
// The row lock is held until the enclosing transaction commits or rolls back.
func (s *PostgresProgressStore) GetForUpdate(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.LearningProgress, error) {
	query := `SELECT ` + progressColumns + `
		FROM learning_progress
		WHERE user_id = $1 AND item_id = $2
		FOR UPDATE`
	return s.getOne(ctx, query, userID, itemID)
}

func (s *PostgresProgressStore) getOne(
	ctx context.Context,
	query string,
	userID, itemID uuid.UUID,
) (*domain.LearningProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	progress, err := scanProgress(s.db.QueryRowContext(ctx, query, userID, itemID))
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("learning progress not found",
				slog.String("user_id", userID.String()),
				slog.String("item_id", itemID.String()))
			return nil, store.ErrProgressNotFound
		}
		log.Error("failed to get learning progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("item_id", itemID.String()))
		return nil, MapError(err)
	}
	return progress, nil
}

// CreateIfAbsent implements store.ProgressStore.CreateIfAbsent.
// The primary key makes concurrent seeds of the same pair collapse into one row.
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresProgressStore) CreateIfAbsent(
	ctx context.Context,
	progress *domain.LearningProgress,
) (bool, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO learning_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, item_id) DO NOTHING
	`
	result, err := s.db.ExecContext(ctx, query, progressArgs(progress)...)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return false, fmt.Errorf("%w: %s", store.ErrItemNotFound, progress.ItemID)
		}
		log.Error("failed to seed learning progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("item_id", progress.ItemID.String()))
		return false, MapError(err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return inserted > 0, nil
}

// Upsert implements store.ProgressStore.Upsert.
// created_at is preserved on update; every other column is overwritten.
func (s *PostgresProgressStore) Upsert(
	ctx context.Context,
	progress *domain.LearningProgress,
) (*domain.LearningProgress, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := progress.Validate(); err != nil {
		log.Warn("learning progress validation failed during upsert",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("item_id", progress.ItemID.String()))
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO learning_progress (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, item_id) DO UPDATE SET
			repetitions = EXCLUDED.repetitions,
			easiness_factor = EXCLUDED.easiness_factor,
			interval_days = EXCLUDED.interval_days,
			next_review_at = EXCLUDED.next_review_at,
			last_reviewed_at = EXCLUDED.last_reviewed_at,
			total_reviews = EXCLUDED.total_reviews,
			correct_reviews = EXCLUDED.correct_reviews,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + progressColumns

	stored, err := scanProgress(s.db.QueryRowContext(ctx, query, progressArgs(progress)...))
	if err != nil {
		if IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrItemNotFound, progress.ItemID)
		}
		log.Error("failed to upsert learning progress",
			slog.String("error", err.Error()),
			slog.String("user_id", progress.UserID.String()),
			slog.String("item_id", progress.ItemID.String()))
		return nil, store.NewStoreError("learning_progress", "upsert", "write failed", MapError(err))
	}

	log.Debug("learning progress stored",
		slog.String("user_id", stored.UserID.String()),
		slog.String("item_id", stored.ItemID.String()),
		slog.Int("repetitions", stored.Repetitions),
		slog.Int("interval", stored.Interval))
	return stored, nil
}

// ListDue implements store.ProgressStore.ListDue.
func (s *PostgresProgressStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]domain.DueItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []domain.DueItem{}, nil
	}

	query := `
		SELECT lp.user_id, lp.item_id, lp.repetitions, lp.easiness_factor, lp.interval_days,
			lp.next_review_at, lp.last_reviewed_at, lp.total_reviews, lp.correct_reviews,
			lp.created_at, lp.updated_at,
			v.id, v.owner_id, v.term, v.translation, v.created_at
		FROM learning_progress lp
		JOIN vocabulary_items v ON v.id = lp.item_id
		WHERE lp.user_id = $1 AND lp.next_review_at <= $2
		ORDER BY lp.next_review_at ASC, lp.created_at ASC, lp.item_id ASC
		LIMIT $3
	`
	rows, err := s.db.QueryContext(ctx, query, userID, now, limit)
	if err != nil {
		log.Error("failed to list due progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	due := make([]domain.DueItem, 0, limit)
	for rows.Next() {
		var (
			d          domain.DueItem
			lastReview sql.NullTime
			owner      uuid.NullUUID
		)
		err := rows.Scan(
			&d.Progress.UserID,
			&d.Progress.ItemID,
			&d.Progress.Repetitions,
			&d.Progress.EasinessFactor,
			&d.Progress.Interval,
			&d.Progress.NextReviewAt,
			&lastReview,
			&d.Progress.TotalReviews,
			&d.Progress.CorrectReviews,
			&d.Progress.CreatedAt,
			&d.Progress.UpdatedAt,
			&d.Item.ID,
			&owner,
			&d.Item.Term,
			&d.Item.Translation,
			&d.Item.CreatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		if lastReview.Valid {
			t := lastReview.Time
			d.Progress.LastReviewedAt = &t
		}
		if owner.Valid {
			id := owner.UUID
			d.Item.OwnerID = &id
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed due progress",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(due)))
	return due, nil
}

// Summarize implements store.ProgressStore.Summarize.
func (s *PostgresProgressStore) Summarize(
	ctx context.Context,
	userID uuid.UUID,
	masteryRepetitions int,
) (*domain.ProgressSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE repetitions >= $2),
			COALESCE(SUM(total_reviews), 0),
			COALESCE(SUM(correct_reviews), 0)
		FROM learning_progress
		WHERE user_id = $1
	`
	var summary domain.ProgressSummary
	err := s.db.QueryRowContext(ctx, query, userID, masteryRepetitions).Scan(
		&summary.TotalVocabulary,
		&summary.MasteredVocabulary,
		&summary.TotalReviews,
		&summary.CorrectReviews,
	)
	if err != nil {
		log.Error("failed to summarize learning progress",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return &summary, nil
}

func progressArgs(p *domain.LearningProgress) []any {
	var lastReview sql.NullTime
	if p.LastReviewedAt != nil {
		lastReview = sql.NullTime{Time: *p.LastReviewedAt, Valid: true}
	}
	return []any{
		p.UserID,
		p.ItemID,
		p.Repetitions,
		p.EasinessFactor,
		p.Interval,
		p.NextReviewAt,
		lastReview,
		p.TotalReviews,
		p.CorrectReviews,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func scanProgress(row rowScanner) (*domain.LearningProgress, error) {
	var p domain.LearningProgress
	var lastReview sql.NullTime
	err := row.Scan(
		&p.UserID,
		&p.ItemID,
		&p.Repetitions,
		&p.EasinessFactor,
		&p.Interval,
		&p.NextReviewAt,
		&lastReview,
		&p.TotalReviews,
		&p.CorrectReviews,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastReview.Valid {
		t := lastReview.Time
		p.LastReviewedAt = &t
	}
	return &p, nil
}
