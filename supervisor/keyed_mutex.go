package supervisor

import "sync"

// keyedMutex serializes work per session key: at most one load-run-store
// cycle is in flight for a key, concurrent requests for the same key queue.
// Keys are never removed; the map is bounded by the number of distinct
// session keys seen by this process, which the session store's TTL policy
// already bounds upstream.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// lock acquires the mutex for key, creating it on first use, and returns the
// matching unlock function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
