package scheduler

import (
	"slices"
	"sync"
)

// lockTable serializes access to shared-locked cache mount scopes
// within one invocation. Scopes are acquired in sorted order so two
// stages contending for overlapping scope sets cannot deadlock.
type lockTable struct {
	mu     sync.Mutex
	scopes map[string]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{scopes: make(map[string]*sync.Mutex)}
}

func (t *lockTable) scopeLock(key string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	lock, ok := t.scopes[key]
	if !ok {
		lock = &sync.Mutex{}
		t.scopes[key] = lock
	}
	return lock
}

// acquire locks the given scope keys and returns a release function.
// Duplicate keys are collapsed; an empty key set is a no-op.
func (t *lockTable) acquire(keys []string) (release func()) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	locked := make([]*sync.Mutex, 0, len(sorted))
	for _, key := range sorted {
		lock := t.scopeLock(key)
		lock.Lock()
		locked = append(locked, lock)
	}

	return func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].Unlock()
		}
	}
}
