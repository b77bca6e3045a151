package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/lexis/internal/platform/logger"
	"github.com/phrazzld/lexis/internal/store"
)

// Transactor implements store.Transactor on top of store.RunInTransaction.
// Each unit of work gets fresh stores bound to its *sql.Tx.
type Transactor struct {
	db     *sql.DB
	opts   *sql.TxOptions
	logger *slog.Logger
}

// NewTransactor creates a Transactor. A nil opts uses READ COMMITTED, which is
// enough because reviews lock their progress row with SELECT ... FOR UPDATE.
func NewTransactor(db *sql.DB, opts *sql.TxOptions, logger *slog.Logger) *Transactor {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transactor{db: db, opts: opts, logger: logger}
}

// Ensure Transactor implements store.Transactor interface
var _ store.Transactor = (*Transactor)(nil)

// RunInTransaction implements store.Transactor.
// Serialization failures and deadlocks come back as store.ErrConflict.
func (t *Transactor) RunInTransaction(ctx context.Context, fn store.TxStoresFn) error {
	err := store.RunInTransaction(ctx, t.db, t.opts, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, NewStores(tx, t.logger))
	})
	if err != nil && IsConflict(err) {
		logger.FromContextOrDefault(ctx, t.logger).Warn("transaction lost a concurrent write",
			slog.String("error", err.Error()))
		if !errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("%w: %w", store.ErrConflict, err)
		}
	}
	return err
}

// NewStores binds all Postgres stores to db, which may be a pool or a transaction.
func NewStores(db store.DBTX, logger *slog.Logger) store.Stores {
	return store.Stores{
		Progress:   NewPostgresProgressStore(db, logger),
		Events:     NewPostgresReviewEventStore(db, logger),
		Vocabulary: NewPostgresVocabularyStore(db, logger),
	}
}
