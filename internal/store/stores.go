package store

import "context"

// Stores groups the stores that must share one transaction when a review is applied.
type Stores struct {
	Progress   ProgressStore
	Events     ReviewEventStore
	Vocabulary VocabularyStore
}

// TxStoresFn is a function that executes against transaction-bound stores.
type TxStoresFn func(ctx context.Context, stores Stores) error

// Transactor runs a unit of work atomically. Implementations commit when fn
// returns nil and roll back otherwise, so either every write in fn becomes
// visible or none does.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn TxStoresFn) error
}
