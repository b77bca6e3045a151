package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/store"
)

type progressKey struct {
	userID uuid.UUID
	itemID uuid.UUID
}

// dataset is one consistent snapshot of every table.
type dataset struct {
	items       map[uuid.UUID]domain.VocabularyItem
	progress    map[progressKey]domain.LearningProgress
	progressSeq map[progressKey]int64
	events      []domain.ReviewEvent
	seq         int64
}

func newDataset() *dataset {
	return &dataset{
		items:       make(map[uuid.UUID]domain.VocabularyItem),
		progress:    make(map[progressKey]domain.LearningProgress),
		progressSeq: make(map[progressKey]int64),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		items:       make(map[uuid.UUID]domain.VocabularyItem, len(d.items)),
		progress:    make(map[progressKey]domain.LearningProgress, len(d.progress)),
		progressSeq: make(map[progressKey]int64, len(d.progressSeq)),
		events:      make([]domain.ReviewEvent, len(d.events)),
		seq:         d.seq,
	}
	for k, v := range d.items {
		c.items[k] = v
	}
	for k, v := range d.progress {
		c.progress[k] = *v.Clone()
	}
	for k, v := range d.progressSeq {
		c.progressSeq[k] = v
	}
	copy(c.events, d.events)
	return c
}

// Store holds all data in memory. Transactions run one at a time against a
// private copy that replaces the live data on commit, so a failed unit of
// work leaves nothing behind.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Ensure Store implements store.Transactor interface
var _ store.Transactor = (*Store)(nil)

// Stores returns stores that operate on the live data outside any transaction.
func (s *Store) Stores() store.Stores {
	return s.bind(nil)
}

// RunInTransaction implements store.Transactor.
func (s *Store) RunInTransaction(ctx context.Context, fn store.TxStoresFn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.data.clone()
	if err := fn(ctx, s.bind(staged)); err != nil {
		return err
	}
	s.data = staged
	return nil
}

func (s *Store) bind(tx *dataset) store.Stores {
	v := view{store: s, tx: tx}
	return store.Stores{
		Progress:   &ProgressStore{view: v},
		Events:     &ReviewEventStore{view: v},
		Vocabulary: &VocabularyStore{view: v},
	}
}

// view resolves which dataset a store call reads and writes. Inside a
// transaction the lock is already held by RunInTransaction.
type view struct {
	store *Store
	tx    *dataset
}

func (v view) do(ctx context.Context, fn func(d *dataset) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if v.tx != nil {
		return fn(v.tx)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.data)
}
