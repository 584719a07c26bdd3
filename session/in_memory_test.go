package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
)

// Interface compliance (compile-time assertion)
var _ Store = (*InMemoryStore)(nil)

func TestInMemoryStore_LoadMissing(t *testing.T) {
	s := NewInMemoryStore()
	state, found, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, state)
}

func TestInMemoryStore_SaveThenLoad(t *testing.T) {
	s := NewInMemoryStore()
	state := core.NewState("")
	state.Append(core.UserMessage{Text: "hello"})

	require.NoError(t, s.Save(context.Background(), "s1", state))

	loaded, found, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded.Messages, 1)

	// Stored state is isolated from caller mutations in both directions.
	state.Append(core.UserMessage{Text: "after save"})
	loaded.Append(core.UserMessage{Text: "after load"})
	again, _, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Len(t, again.Messages, 1)
}

func TestInMemoryStore_TTLEviction(t *testing.T) {
	s := NewInMemoryStore(func(o *InMemoryOptions) { o.TTL = time.Minute })
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(context.Background(), "s1", core.NewState("")))
	assert.Equal(t, 1, s.Len())

	now = now.Add(2 * time.Minute)
	_, found, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 0, s.Len())
}

func TestInMemoryStore_SaveRefreshesTTL(t *testing.T) {
	s := NewInMemoryStore(func(o *InMemoryOptions) { o.TTL = time.Minute })
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(context.Background(), "s1", core.NewState("")))
	now = now.Add(45 * time.Second)
	require.NoError(t, s.Save(context.Background(), "s1", core.NewState("")))
	now = now.Add(45 * time.Second)

	_, found, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, found)
}
