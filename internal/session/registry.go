package session

import (
	"sync"
)

// Registry serializes turns per session: two turns of the same session
// must never run concurrently, while independent sessions stay fully
// parallel. Entries are reference counted and deleted only when the last
// holder releases, so idle sessions do not leak and a lock that is held
// or waited on is never discarded and re-created for a concurrent turn.
type Registry struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func NewRegistry() *Registry {
	return &Registry{locks: map[string]*sessionLock{}}
}

// Lock acquires the turn lock for the session and returns the unlock func.
func (r *Registry) Lock(sessionID string) func() {
	r.mu.Lock()
	l, ok := r.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		r.locks[sessionID] = l
	}
	l.refs++
	r.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		r.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(r.locks, sessionID)
		}
		r.mu.Unlock()
	}
}
