package api

import "sync"

// identitySerializer hands out one lock per identity so order mutations
// for the same member run strictly one at a time within this process. The
// core's append path is read-then-write with no compare-and-swap, so the
// edge must not let two mutations for one identity race; this is that
// serialization queue for single-process deployments.
type identitySerializer struct {
	mu    sync.Mutex
	locks map[string]*identityLock
}

type identityLock struct {
	mu       sync.Mutex
	refCount int
}

func newIdentitySerializer() *identitySerializer {
	return &identitySerializer{locks: make(map[string]*identityLock)}
}

// Acquire blocks until the identity's lock is held and returns the release
// function. Locks are reference counted and dropped once idle.
func (serializer *identitySerializer) Acquire(identity string) func() {
	serializer.mu.Lock()
	lock, ok := serializer.locks[identity]
	if !ok {
		lock = &identityLock{}
		serializer.locks[identity] = lock
	}
	lock.refCount++
	serializer.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		serializer.mu.Lock()
		lock.refCount--
		if lock.refCount == 0 {
			delete(serializer.locks, identity)
		}
		serializer.mu.Unlock()
	}
}
