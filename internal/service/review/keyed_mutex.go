package review

import (
	"sync"

	"github.com/google/uuid"
)

type pairKey struct {
	userID uuid.UUID
	itemID uuid.UUID
}

// keyedMutex serializes work per (user, item) pair. Entries are reference
// counted and dropped once no goroutine holds or waits for them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[pairKey]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[pairKey]*refMutex)}
}

// Lock blocks until the pair is free and returns the matching unlock func.
func (k *keyedMutex) Lock(userID, itemID uuid.UUID) func() {
	key := pairKey{userID: userID, itemID: itemID}

	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
