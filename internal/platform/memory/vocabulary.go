package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// VocabularyStore implements store.VocabularyStore in memory.
type VocabularyStore struct {
	view view
}

var _ store.VocabularyStore = (*VocabularyStore)(nil)

// Create implements store.VocabularyStore.Create.
func (s *VocabularyStore) Create(ctx context.Context, item *domain.VocabularyItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	return s.view.do(ctx, func(d *dataset) error {
		if _, exists := d.items[item.ID]; exists {
			return fmt.Errorf("%w: vocabulary item %s", store.ErrDuplicate, item.ID)
		}
		d.items[item.ID] = *item.Clone()
		return nil
	})
}

// GetByID implements store.VocabularyStore.GetByID.
func (s *VocabularyStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	var found *domain.VocabularyItem
	err := s.view.do(ctx, func(d *dataset) error {
		item, ok := d.items[id]
		if !ok {
			return store.ErrItemNotFound
		}
		found = item.Clone()
		return nil
	})
	return found, err
}

// ListNewForUser implements store.VocabularyStore.ListNewForUser.
func (s *VocabularyStore) ListNewForUser(
	ctx context.Context,
	userID uuid.UUID,
	limit int,
) ([]domain.VocabularyItem, error) {
	items := []domain.VocabularyItem{}
	if limit <= 0 {
		return items, nil
	}
	err := s.view.do(ctx, func(d *dataset) error {
		for id, item := range d.items {
			if !item.VisibleTo(userID) {
				continue
			}
			if _, started := d.progress[progressKey{userID: userID, itemID: id}]; started {
				continue
			}
			items = append(items, *item.Clone())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return bytes.Compare(items[i].ID[:], items[j].ID[:]) < 0
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
