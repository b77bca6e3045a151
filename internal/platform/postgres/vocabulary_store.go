package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/store"
)

// PostgresVocabularyStore implements the store.VocabularyStore interface
// using a PostgreSQL database as the storage backend.
type PostgresVocabularyStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresVocabularyStore creates a new PostgreSQL implementation of the VocabularyStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresVocabularyStore(db store.DBTX, logger *slog.Logger) *PostgresVocabularyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresVocabularyStore{
		db:     db,
		logger: logger.With(slog.String("component", "vocabulary_store")),
	}
}

// Ensure PostgresVocabularyStore implements store.VocabularyStore interface
var _ store.VocabularyStore = (*PostgresVocabularyStore)(nil)

// Create implements store.VocabularyStore.Create.
// Returns store.ErrDuplicate if an item with the same ID already exists.
func (s *PostgresVocabularyStore) Create(ctx context.Context, item *domain.VocabularyItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("vocabulary item validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO vocabulary_items (id, owner_id, term, translation, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		item.ID,
		nullUUID(item.OwnerID),
		item.Term,
		item.Translation,
		item.CreatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Warn("vocabulary item already exists", slog.String("item_id", item.ID.String()))
			return store.NewStoreError("vocabulary_item", "create", "item id already taken", MapError(err))
		}
		log.Error("failed to create vocabulary item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	log.Debug("vocabulary item created", slog.String("item_id", item.ID.String()))
	return nil
}

// GetByID implements store.VocabularyStore.GetByID.
// Returns store.ErrItemNotFound if the item does not exist.
func (s *PostgresVocabularyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, term, translation, created_at
		FROM vocabulary_items
		WHERE id = $1
	`
	item, err := scanVocabularyItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if IsNotFoundError(err) {
			log.Debug("vocabulary item not found", slog.String("item_id", id.String()))
			return nil, store.ErrItemNotFound
		}
		log.Error("failed to get vocabulary item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return nil, MapError(err)
	}
	return item, nil
}

// ListNewForUser implements store.VocabularyStore.ListNewForUser.
// Items are ordered oldest first, with the ID as a tie-breaker.
func (s *PostgresVocabularyStore) ListNewForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]domain.VocabularyItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		return []domain.VocabularyItem{}, nil
	}

	query := `
		SELECT v.id, v.owner_id, v.term, v.translation, v.created_at
		FROM vocabulary_items v
		WHERE (v.owner_id = $1 OR v.owner_id IS NULL)
		  AND NOT EXISTS (
			SELECT 1 FROM learning_progress lp
			WHERE lp.user_id = $1 AND lp.item_id = v.id
		  )
		ORDER BY v.created_at ASC, v.id ASC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		log.Error("failed to list new vocabulary items",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]domain.VocabularyItem, 0, limit)
	for rows.Next() {
		item, err := scanVocabularyItem(rows)
		if err != nil {
			return nil, MapError(err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("listed new vocabulary items",
		slog.String("user_id", userID.String()),
		slog.Int("count", len(items)))
	return items, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanVocabularyItem(row rowScanner) (*domain.VocabularyItem, error) {
	var item domain.VocabularyItem
	var owner uuid.NullUUID
	if err := row.Scan(&item.ID, &owner, &item.Term, &item.Translation, &item.CreatedAt); err != nil {
		return nil, err
	}
	if owner.Valid {
		id := owner.UUID
		item.OwnerID = &id
	}
	return &item, nil
}

func nullUUID(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}
