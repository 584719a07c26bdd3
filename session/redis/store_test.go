package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/session"
)

// Interface compliance (compile-time assertion)
var _ session.Store = (*Store)(nil)

func newTestStore(t *testing.T, opts ...Option) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewFromClient(client, opts...), mr
}

func TestStore_LoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	state, found, err := s.Load(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, state)
}

func TestStore_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	state := core.NewState("")
	state.Append(
		core.UserMessage{Text: "where is order 7?"},
		core.AssistantMessage{RequestedActions: []core.Action{{
			ID: "a1", Name: "orders_team_tool", Arguments: map[string]any{"query": "tracking 7"},
		}}},
		core.ActionResult{ActionID: "a1", Name: "orders_team_tool", Payload: "Order 7 is shipped."},
		core.AssistantMessage{Text: "Your order 7 has shipped."},
	)
	require.NoError(t, s.Save(context.Background(), "s1", state))

	loaded, found, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, loaded.Messages, 4)
	assert.Equal(t, "Your order 7 has shipped.", loaded.LastAssistantText())

	am, ok := loaded.Messages[1].(core.AssistantMessage)
	require.True(t, ok)
	assert.Equal(t, "tracking 7", am.RequestedActions[0].Arguments["query"])
}

func TestStore_TTL(t *testing.T) {
	s, mr := newTestStore(t, WithTTL(time.Minute))

	require.NoError(t, s.Save(context.Background(), "s1", core.NewState("")))
	mr.FastForward(2 * time.Minute)

	_, found, err := s.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_UnavailableBackend(t *testing.T) {
	s, mr := newTestStore(t)
	mr.Close()

	_, _, err := s.Load(context.Background(), "s1")
	assert.ErrorIs(t, err, session.ErrUnavailable)

	err = s.Save(context.Background(), "s1", core.NewState(""))
	assert.ErrorIs(t, err, session.ErrUnavailable)
}
