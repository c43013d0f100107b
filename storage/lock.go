package storage

import "sync"

// idLocks serializes read-modify-write update sequences against the
// same (collection, id) pair for backends that cannot perform an
// atomic update server-side, mirroring the per-model migration guard
// kept in the ancestor database layer's sync.Map.
var idLocks sync.Map // map[string]*sync.Mutex

// Lock acquires the per-id mutex for collection/id and returns the
// unlock function; callers defer the result.
func Lock(collection, id string) func() {
	key := collection + "\x00" + id
	v, _ := idLocks.LoadOrStore(key, &sync.Mutex{})
	m := v.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}
