package service

import "sync"

// OwnerLocks is a keyed mutex: one lock per owner, created on demand and
// dropped when nobody holds or waits for it.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

// NewOwnerLocks creates an empty lock table.
func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{locks: make(map[string]*ownerLock)}
}

// Lock blocks until the owner's lock is held and returns its release function.
func (l *OwnerLocks) Lock(ownerID string) (unlock func()) {
	l.mu.Lock()
	ol, ok := l.locks[ownerID]
	if !ok {
		ol = &ownerLock{}
		l.locks[ownerID] = ol
	}
	ol.refs++
	l.mu.Unlock()

	ol.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			ol.mu.Unlock()
			l.mu.Lock()
			ol.refs--
			if ol.refs == 0 {
				delete(l.locks, ownerID)
			}
			l.mu.Unlock()
		})
	}
}

func (l *OwnerLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
