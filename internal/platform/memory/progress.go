package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// ProgressStore implements store.ProgressStore in memory.
type ProgressStore struct {
	view view
}

var _ store.ProgressStore = (*ProgressStore)(nil)

// Get implements store.ProgressStore.Get.
func (s *ProgressStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.LearningProgress, error) {
	var found *domain.LearningProgress
	err := s.view.do(ctx, func(d *dataset) error {
		p, ok := d.progress[progressKey{userID: userID, itemID: itemID}]
		if !ok {
			return store.ErrProgressNotFound
		}
		found = p.Clone()
		return nil
	})
	return found, err
}

// GetForUpdate implements store.ProgressStore.GetForUpdate. Transactions are
// already exclusive, so this is a plain read.
func (s *ProgressStore) GetForUpdate(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.LearningProgress, error) {
	return s.Get(ctx, userID, itemID)
}

// CreateIfAbsent implements store.ProgressStore.CreateIfAbsent.
func (s *ProgressStore) CreateIfAbsent(ctx context.Context, progress *domain.LearningProgress) (bool, error) {
	if err := progress.Validate(); err != nil {
		return false, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	inserted := false
	err := s.view.do(ctx, func(d *dataset) error {
		if _, ok := d.items[progress.ItemID]; !ok {
			return fmt.Errorf("%w: %s", store.ErrItemNotFound, progress.ItemID)
		}
		key := progressKey{userID: progress.UserID, itemID: progress.ItemID}
		if _, exists := d.progress[key]; exists {
			return nil
		}
		d.put(key, progress)
		inserted = true
		return nil
	})
	return inserted, err
}

// Upsert implements store.ProgressStore.Upsert.
func (s *ProgressStore) Upsert(
	ctx context.Context,
	progress *domain.LearningProgress,
) (*domain.LearningProgress, error) {
	if err := progress.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	var stored *domain.LearningProgress
	err := s.view.do(ctx, func(d *dataset) error {
		if _, ok := d.items[progress.ItemID]; !ok {
			return fmt.Errorf("%w: %s", store.ErrItemNotFound, progress.ItemID)
		}
		key := progressKey{userID: progress.UserID, itemID: progress.ItemID}
		next := progress.Clone()
		if existing, ok := d.progress[key]; ok {
			next.CreatedAt = existing.CreatedAt
		}
		d.put(key, next)
		stored = next.Clone()
		return nil
	})
	return stored, err
}

// ListDue implements store.ProgressStore.ListDue.
func (s *ProgressStore) ListDue(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]domain.DueItem, error) {
	due := []domain.DueItem{}
	if limit <= 0 {
		return due, nil
	}

	type candidate struct {
		item domain.DueItem
		seq  int64
	}
	var candidates []candidate

	err := s.view.do(ctx, func(d *dataset) error {
		for key, p := range d.progress {
			if key.userID != userID || !p.IsDue(now) {
				continue
			}
			item, ok := d.items[key.itemID]
			if !ok {
				continue
			}
			candidates = append(candidates, candidate{
				item: domain.DueItem{Progress: *p.Clone(), Item: *item.Clone()},
				seq:  d.progressSeq[key],
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i].item.Progress, candidates[j].item.Progress
		if !a.NextReviewAt.Equal(b.NextReviewAt) {
			return a.NextReviewAt.Before(b.NextReviewAt)
		}
		return candidates[i].seq < candidates[j].seq
	})

	for i := 0; i < len(candidates) && i < limit; i++ {
		due = append(due, candidates[i].item)
	}
	return due, nil
}

// Summarize implements store.ProgressStore.Summarize.
func (s *ProgressStore) Summarize(
	ctx context.Context,
	userID uuid.UUID,
	masteryRepetitions int,
) (*domain.ProgressSummary, error) {
	summary := &domain.ProgressSummary{}
	err := s.view.do(ctx, func(d *dataset) error {
		for key, p := range d.progress {
			if key.userID != userID {
				continue
			}
			summary.TotalVocabulary++
			if p.Repetitions >= masteryRepetitions {
				summary.MasteredVocabulary++
			}
			summary.TotalReviews += p.TotalReviews
			summary.CorrectReviews += p.CorrectReviews
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// put stores p under key, assigning an insertion sequence on first write.
func (d *dataset) put(key progressKey, p *domain.LearningProgress) {
	if _, ok := d.progressSeq[key]; !ok {
		d.seq++
		d.progressSeq[key] = d.seq
	}
	d.progress[key] = *p.Clone()
}
