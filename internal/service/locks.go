package service

import (
	"slices"
	"sync"
)

// playerLocks serialises work on the same player ids. Locks are taken in sorted
// order so two reports sharing several players cannot deadlock.
type playerLocks struct {
	mu    sync.Mutex
	locks map[string]*playerLock
}

type playerLock struct {
	mu   sync.Mutex
	refs int
}

func newPlayerLocks() *playerLocks {
	return &playerLocks{locks: make(map[string]*playerLock)}
}

// lock blocks until every id is held and returns the matching unlock.
func (l *playerLocks) lock(ids []string) func() {
	keys := slices.Clone(ids)
	slices.Sort(keys)
	keys = slices.Compact(keys)

	held := make([]*playerLock, len(keys))
	for i, id := range keys {
		l.mu.Lock()
		pl, ok := l.locks[id]
		if !ok {
			pl = &playerLock{}
			l.locks[id] = pl
		}
		pl.refs++
		l.mu.Unlock()

		pl.mu.Lock()
		held[i] = pl
	}

	return func() {
		for i := len(keys) - 1; i >= 0; i-- {
			held[i].mu.Unlock()

			l.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(l.locks, keys[i])
			}
			l.mu.Unlock()
		}
	}
}
