package concurrency

import (
	"errors"
	"fmt"
	"sync"
)

// Indicates whether a lock is a reader or a writer lock.
type LockType int

const (
	R_LOCK LockType = 0
	W_LOCK LockType = 1
)

// A resource; filters are locked by name.
type Resource struct {
	name string
}

// Construct a resource for the named filter.
func NewResource(name string) Resource {
	return Resource{name: name}
}

// Get resource name.
func (r *Resource) GetName() string {
	return r.name
}

// Lock manager hands out readers-writer locks over filters. Contains and
// capacity reads share a lock; add and clear take it exclusively.
type LockManager struct {
	lmMtx sync.Mutex
	locks map[Resource]*sync.RWMutex
}

// Construct a new lock manager.
func NewLockManager() *LockManager {
	return &LockManager{
		locks: make(map[Resource]*sync.RWMutex),
	}
}

// Lock a resource.
func (lm *LockManager) Lock(r Resource, lType LockType) error {
	// Safely acquire the lock itself, initializing it if needed.
	lm.lmMtx.Lock()
	lock, found := lm.locks[r]
	if !found {
		lock = &sync.RWMutex{}
		lm.locks[r] = lock
	}
	lm.lmMtx.Unlock()
	// Lock accordingly.
	switch lType {
	case R_LOCK:
		lock.RLock()
	case W_LOCK:
		lock.Lock()
	default:
		return errors.New("invalid lock type")
	}
	return nil
}

// Unlock a resource.
func (lm *LockManager) Unlock(r Resource, lType LockType) error {
	// Safely acquire the lock itself.
	lm.lmMtx.Lock()
	lock, found := lm.locks[r]
	lm.lmMtx.Unlock()
	if !found {
		return fmt.Errorf("tried to unlock nonexistent resource %s", r.GetName())
	}
	// Unlock accordingly.
	switch lType {
	case R_LOCK:
		lock.RUnlock()
	case W_LOCK:
		lock.Unlock()
	default:
		return errors.New("invalid lock type")
	}
	return nil
}
