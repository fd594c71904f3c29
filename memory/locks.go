package memory

import "sync"

// UserLocks serializes mutations per user: one writer at a time within a
// user's namespace, no coordination across users. Callers must never hold
// a lock across an external provider call.
type UserLocks struct {
	mu sync.Mutex
	m  map[string]*sync.Mutex
}

// NewUserLocks creates an empty lock set.
func NewUserLocks() *UserLocks {
	return &UserLocks{m: make(map[string]*sync.Mutex)}
}

// Acquire locks the user's mutex and returns the release function.
func (l *UserLocks) Acquire(userID string) func() {
	l.mu.Lock()
	um, ok := l.m[userID]
	if !ok {
		um = &sync.Mutex{}
		l.m[userID] = um
	}
	l.mu.Unlock()

	um.Lock()
	return um.Unlock
}
