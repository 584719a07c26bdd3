package session

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/supportmesh/core"
)

// InMemoryOptions configures the in-memory store.
type InMemoryOptions struct {
	// TTL evicts sessions idle for longer than this duration. Zero disables
	// eviction; unbounded growth is then the host's responsibility.
	TTL time.Duration
}

type entry struct {
	state   *core.State
	updated time.Time
}

// InMemoryStore is a volatile Store keeping sessions in a process-local map.
// It is safe for concurrent access and suited for tests and single-process
// deployments. States are cloned on the way in and out so callers can never
// mutate stored history.
type InMemoryStore struct {
	mu   sync.Mutex
	data map[string]entry
	ttl  time.Duration
	now  func() time.Time
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *InMemoryOptions)) *InMemoryStore {
	opts := InMemoryOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{data: make(map[string]entry), ttl: opts.TTL, now: time.Now}
}

// Load implements Store.
func (s *InMemoryStore) Load(ctx context.Context, key string) (*core.State, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	e, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return e.state.Clone(), true, nil
}

// Save implements Store.
func (s *InMemoryStore) Save(ctx context.Context, key string, state *core.State) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	s.data[key] = entry{state: state.Clone(), updated: s.now()}
	return nil
}

// Len returns the number of live sessions.
func (s *InMemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	return len(s.data)
}

func (s *InMemoryStore) evictExpiredLocked() {
	if s.ttl <= 0 {
		return
	}
	cutoff := s.now().Add(-s.ttl)
	for key, e := range s.data {
		if e.updated.Before(cutoff) {
			delete(s.data, key)
		}
	}
}
