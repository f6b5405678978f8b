package engine

import "sync"

// =============================================================================
// KEYED MUTEX - Per-(owner, animal) serialization
// =============================================================================

// KeyedMutex serializes mutations per key. Two concurrent actions on the
// same animal (double-click "sell") would otherwise both read health/value
// before either write commits, yielding duplicate credit or a lost
// decrement. One mutex per key; entries are never evicted, which is
// bounded by the number of animals an owner ever touches in-process.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the key and returns its unlock function.
//
//	defer locks.Lock(key)()
func (k *KeyedMutex) Lock(key string) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// MutationKey is the lock key for mutations touching one animal.
func MutationKey(owner OwnerID, id AnimalID) string {
	return string(owner) + "/" + string(id)
}

// ItemMutationKey is the lock key for mutations touching one inventory
// stack. Stacks are unique per (owner, kind), so keying by kind also
// serializes a concurrent create against an increment. Paths that hold
// both locks always take the animal lock first.
func ItemMutationKey(owner OwnerID, kind ItemKind) string {
	return string(owner) + "/item/" + string(kind)
}
