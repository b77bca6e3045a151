//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/platform/postgres"
	"github.com/phrazzld/lexis/internal/store"
	"github.com/phrazzld/lexis/internal/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createItem(t *testing.T, ctx context.Context, db store.DBTX, owner *uuid.UUID, term string) *domain.VocabularyItem {
	t.Helper()
	item, err := domain.NewVocabularyItem(owner, term, term+"-translation")
	require.NoError(t, err)
	require.NoError(t, postgres.NewPostgresVocabularyStore(db, nil).Create(ctx, item))
	return item
}

func TestProgressLifecycle(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		stores := postgres.NewStores(tx, nil)
		userID := uuid.New()
		now := time.Now().UTC().Truncate(time.Microsecond)

		shared := createItem(t, ctx, tx, nil, "shared")
		owned := createItem(t, ctx, tx, &userID, "owned")
		createItem(t, ctx, tx, func() *uuid.UUID { id := uuid.New(); return &id }(), "foreign")

		fresh, err := stores.Vocabulary.ListNewForUser(ctx, userID, 10)
		require.NoError(t, err)
		require.Len(t, fresh, 2, "items owned by another user are not visible")

		seed, err := domain.NewLearningProgress(userID, shared.ID, now)
		require.NoError(t, err)
		inserted, err := stores.Progress.CreateIfAbsent(ctx, seed)
		require.NoError(t, err)
		assert.True(t, inserted)
		inserted, err = stores.Progress.CreateIfAbsent(ctx, seed)
		require.NoError(t, err)
		assert.False(t, inserted)

		locked, err := stores.Progress.GetForUpdate(ctx, userID, shared.ID)
		require.NoError(t, err)
		locked.Repetitions = 1
		locked.TotalReviews = 1
		locked.CorrectReviews = 1
		locked.LastReviewedAt = &now
		locked.NextReviewAt = now.Add(-time.Minute)
		_, err = stores.Progress.Upsert(ctx, locked)
		require.NoError(t, err)

		due, err := stores.Progress.ListDue(ctx, userID, now, 10)
		require.NoError(t, err)
		require.Len(t, due, 1)
		assert.Equal(t, shared.ID, due[0].Item.ID)

		fresh, err = stores.Vocabulary.ListNewForUser(ctx, userID, 10)
		require.NoError(t, err)
		require.Len(t, fresh, 1)
		assert.Equal(t, owned.ID, fresh[0].ID)

		summary, err := stores.Progress.Summarize(ctx, userID, domain.MasteryRepetitions)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.TotalVocabulary)
		assert.Equal(t, 0, summary.MasteredVocabulary)
		assert.Equal(t, 1, summary.TotalReviews)
	})
}

func TestReviewEventWindow(t *testing.T) {
	db := testdb.GetTestDBWithT(t)

	testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
		ctx := context.Background()
		events := postgres.NewPostgresReviewEventStore(tx, nil)
		userID := uuid.New()
		item := createItem(t, ctx, tx, nil, "window")
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		for i := 0; i < 3; i++ {
			require.NoError(t, events.Append(ctx, &domain.ReviewEvent{
				ID:          uuid.New(),
				UserID:      userID,
				ItemID:      item.ID,
				Grade:       domain.GradeGood,
				IsCorrect:   true,
				NewInterval: 1,
				NewEasiness: 2.5,
				ReviewedAt:  base.AddDate(0, 0, i),
			}))
		}

		from, to := base.AddDate(0, 0, 1), base.AddDate(0, 0, 2)
		got, err := events.List(ctx, userID, &from, &to)
		require.NoError(t, err)
		require.Len(t, got, 1, "window is half-open")
		assert.True(t, got[0].ReviewedAt.Equal(from))

		all, err := events.List(ctx, userID, nil, nil)
		require.NoError(t, err)
		assert.Len(t, all, 3)
	})
}

func TestTransactorRollsBack(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	t.Cleanup(func() { testdb.CleanupDB(t, db) })
	ctx := context.Background()
	tr := postgres.NewTransactor(db, nil, nil)

	item, err := domain.NewVocabularyItem(nil, "rollback", "")
	require.NoError(t, err)

	err = tr.RunInTransaction(ctx, func(ctx context.Context, s store.Stores) error {
		require.NoError(t, s.Vocabulary.Create(ctx, item))
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	_, err = postgres.NewPostgresVocabularyStore(db, nil).GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, store.ErrItemNotFound)
}

func TestConcurrentSeedCreatesOneRow(t *testing.T) {
	db := testdb.GetTestDBWithT(t)
	t.Cleanup(func() { testdb.CleanupDB(t, db) })
	ctx := context.Background()
	tr := postgres.NewTransactor(db, nil, nil)
	userID := uuid.New()
	item := createItem(t, ctx, db, nil, "race")

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tr.RunInTransaction(ctx, func(ctx context.Context, s store.Stores) error {
				seed, err := domain.NewLearningProgress(userID, item.ID, time.Now().UTC())
				if err != nil {
					return err
				}
				inserted, err := s.Progress.CreateIfAbsent(ctx, seed)
				if err != nil {
					return err
				}
				results <- inserted
				_, err = s.Progress.GetForUpdate(ctx, userID, item.ID)
				return err
			})
		}()
	}
	wg.Wait()
	close(results)

	inserts := 0
	for inserted := range results {
		if inserted {
			inserts++
		}
	}
	assert.Equal(t, 1, inserts)
}
