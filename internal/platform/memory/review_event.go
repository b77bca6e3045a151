package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

// ReviewEventStore implements store.ReviewEventStore in memory.
type ReviewEventStore struct {
	view view
}

var _ store.ReviewEventStore = (*ReviewEventStore)(nil)

// Append implements store.ReviewEventStore.Append.
func (s *ReviewEventStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	if !event.Grade.Valid() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidGrade)
	}
	if !domain.ValidResponseTime(event.ResponseTimeMs) {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidResponseTime)
	}
	return s.view.do(ctx, func(d *dataset) error {
		for i := range d.events {
			if d.events[i].ID == event.ID {
				return fmt.Errorf("%w: review event %s", store.ErrDuplicate, event.ID)
			}
		}
		stored := *event
		if event.ResponseTimeMs != nil {
			ms := *event.ResponseTimeMs
			stored.ResponseTimeMs = &ms
		}
		// Keep the slice sorted by ReviewedAt; equal timestamps stay in append order.
		idx := len(d.events)
		for idx > 0 && d.events[idx-1].ReviewedAt.After(stored.ReviewedAt) {
			idx--
		}
		d.events = append(d.events, domain.ReviewEvent{})
		copy(d.events[idx+1:], d.events[idx:])
		d.events[idx] = stored
		return nil
	})
}

// List implements store.ReviewEventStore.List.
func (s *ReviewEventStore) List(
	ctx context.Context,
	userID uuid.UUID,
	from, to *time.Time,
) ([]domain.ReviewEvent, error) {
	events := []domain.ReviewEvent{}
	err := s.view.do(ctx, func(d *dataset) error {
		for _, e := range d.events {
			if e.UserID != userID {
				continue
			}
			if from != nil && e.ReviewedAt.Before(*from) {
				continue
			}
			if to != nil && !e.ReviewedAt.Before(*to) {
				continue
			}
			events = append(events, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
