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

// PostgresReviewEventStore implements the store.ReviewEventStore interface
// using a PostgreSQL database as the storage backend. Rows are insert-only.
type PostgresReviewEventStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewEventStore creates a new PostgreSQL implementation of the ReviewEventStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresReviewEventStore(db store.DBTX, logger *slog.Logger) *PostgresReviewEventStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewEventStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_event_store")),
	}
}

// Ensure PostgresReviewEventStore implements store.ReviewEventStore interface
var _ store.ReviewEventStore = (*PostgresReviewEventStore)(nil)

// Append implements store.ReviewEventStore.Append.
func (s *PostgresReviewEventStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !event.Grade.Valid() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidGrade)
	}
	if !domain.ValidResponseTime(event.ResponseTimeMs) {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidResponseTime)
	}

	var responseTime sql.NullInt64
	if event.ResponseTimeMs != nil {
		responseTime = sql.NullInt64{Int64: int64(*event.ResponseTimeMs), Valid: true}
	}

	query := `
		INSERT INTO review_events (
			id, user_id, item_id, quality_grade, response_time_ms, is_correct,
			previous_interval, new_interval, previous_easiness, new_easiness, reviewed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		event.UserID,
		event.ItemID,
		int(event.Grade),
		responseTime,
		event.IsCorrect,
		event.PreviousInterval,
		event.NewInterval,
		event.PreviousEasiness,
		event.NewEasiness,
		event.ReviewedAt,
	)
	if err != nil {
		log.Error("failed to append review event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("user_id", event.UserID.String()))
		return store.NewStoreError("review_event", "append", "insert failed", MapError(err))
	}

	return nil
}

// List implements store.ReviewEventStore.List.
func (s *PostgresReviewEventStore) List(
	ctx context.Context,
	userID uuid.UUID,
	from, to *time.Time,
) ([]domain.ReviewEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, item_id, quality_grade, response_time_ms, is_correct,
			previous_interval, new_interval, previous_easiness, new_easiness, reviewed_at
		FROM review_events
		WHERE user_id = $1
		  AND ($2::timestamptz IS NULL OR reviewed_at >= $2)
		  AND ($3::timestamptz IS NULL OR reviewed_at < $3)
		ORDER BY reviewed_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID, nullTime(from), nullTime(to))
	if err != nil {
		log.Error("failed to list review events",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, store.NewStoreError("review_event", "list", "query failed", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	events := []domain.ReviewEvent{}
	for rows.Next() {
		var (
			e            domain.ReviewEvent
			grade        int
			responseTime sql.NullInt64
		)
		err := rows.Scan(
			&e.ID,
			&e.UserID,
			&e.ItemID,
			&grade,
			&responseTime,
			&e.IsCorrect,
			&e.PreviousInterval,
			&e.NewInterval,
			&e.PreviousEasiness,
			&e.NewEasiness,
			&e.ReviewedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		e.Grade = domain.QualityGrade(grade)
		if responseTime.Valid {
			ms := int(responseTime.Int64)
			e.ResponseTimeMs = &ms
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed review events",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(events)))
	return events, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
