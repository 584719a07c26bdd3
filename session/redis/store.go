// Package redis implements the session Store on Redis for deployments that
// need cross-process session sharing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/session"
)

// Option customizes the store.
type Option func(*Store)

// WithTTL sets the expiration for stored sessions. Zero keeps them forever.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) { s.ttl = ttl }
}

// WithPrefix sets the key prefix for stored sessions.
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// Store persists conversation states as JSON values under prefixed keys.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed session store with its own client.
func New(addr, password string, db int, opts ...Option) *Store {
	client := backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewFromClient(client, opts...)
}

// NewFromClient creates a Redis-backed session store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: "supportmesh:session:"}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(sessionKey string) string { return s.prefix + sessionKey }

// Load implements session.Store. Store-level failures wrap
// session.ErrUnavailable so callers can distinguish them from a new session.
func (s *Store) Load(ctx context.Context, key string) (*core.State, bool, error) {
	data, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: redis get: %v", session.ErrUnavailable, err)
	}
	var state core.State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, false, fmt.Errorf("decode session %s: %w", key, err)
	}
	return &state, true, nil
}

// Save implements session.Store.
func (s *Store) Save(ctx context.Context, key string, state *core.State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", key, err)
	}
	if err := s.client.Set(ctx, s.key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", session.ErrUnavailable, err)
	}
	return nil
}
