package graph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/oracle"
)

func echoCapability(name string, delay time.Duration) capability.Capability {
	return capability.NewFunction(name, "echoes its input", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) {
			if delay > 0 {
				select {
				case <-time.After(delay):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			return args["value"], nil
		})
}

func failingCapability(name string) capability.Capability {
	return capability.NewFunction(name, "always fails", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errors.New("connection refused")
		})
}

func TestGraph_TerminatesOnFinalAnswer(t *testing.T) {
	o := oracle.NewScripted(core.AssistantMessage{Text: "all done"})
	reg := capability.MustNewRegistry()
	g := New("test", "instruction", o, reg)

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "hello"})

	var snapshots []*core.State
	err := g.Run(context.Background(), state, func(s *core.State) error {
		snapshots = append(snapshots, s)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, o.Calls())
	assert.Equal(t, "all done", state.LastAssistantText())
	require.Len(t, snapshots, 1)
}

func TestGraph_ActLoopFeedsResultsBackToOracle(t *testing.T) {
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{{
			ID: "a1", Name: "echo", Arguments: map[string]any{"value": "pong"},
		}}},
		core.AssistantMessage{Text: "the tool said pong"},
	)
	reg := capability.MustNewRegistry(echoCapability("echo", 0))
	g := New("test", "instruction", o, reg)

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "ping"})

	require.NoError(t, g.Run(context.Background(), state, nil))

	// user, assistant(action), result, assistant(final)
	require.Len(t, state.Messages, 4)
	res := state.Messages[2].(core.ActionResult)
	assert.Equal(t, "a1", res.ActionID)
	assert.Equal(t, "pong", res.Payload)

	// Second decide call saw the action result in its history.
	reqs := o.Requests()
	require.Len(t, reqs, 2)
	require.Len(t, reqs[1].History, 3)
	_, ok := reqs[1].History[2].(core.ActionResult)
	assert.True(t, ok)
}

func TestGraph_OrderingInvariantUnderParallelResolution(t *testing.T) {
	// a1 is the slowest, a3 the fastest; appended order must still be a1, a2, a3.
	reg := capability.MustNewRegistry(
		echoCapability("slow", 120*time.Millisecond),
		echoCapability("medium", 60*time.Millisecond),
		echoCapability("fast", 0),
	)
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{
			{ID: "a1", Name: "slow", Arguments: map[string]any{"value": "first"}},
			{ID: "a2", Name: "medium", Arguments: map[string]any{"value": "second"}},
			{ID: "a3", Name: "fast", Arguments: map[string]any{"value": "third"}},
		}},
		core.AssistantMessage{Text: "done"},
	)
	g := New("test", "instruction", o, reg, func(opts *Options) {
		opts.ParallelActions = true
	})

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "go"})
	require.NoError(t, g.Run(context.Background(), state, nil))

	var ids []string
	for _, m := range state.Messages {
		if res, ok := m.(core.ActionResult); ok {
			ids = append(ids, res.ActionID)
		}
	}
	assert.Equal(t, []string{"a1", "a2", "a3"}, ids)
}

func TestGraph_FailingActionDoesNotAbortLoop(t *testing.T) {
	reg := capability.MustNewRegistry(failingCapability("broken"))
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{{ID: "a1", Name: "broken"}}},
		core.AssistantMessage{Text: "the tool is unavailable right now"},
	)
	g := New("test", "instruction", o, reg)

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "try it"})
	require.NoError(t, g.Run(context.Background(), state, nil))

	res := state.Messages[2].(core.ActionResult)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "connection refused")
	assert.Equal(t, 2, o.Calls())
}

func TestGraph_UnknownActionRecordedAsError(t *testing.T) {
	reg := capability.MustNewRegistry()
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{{ID: "a1", Name: "nope"}}},
		core.AssistantMessage{Text: "sorry"},
	)
	g := New("test", "instruction", o, reg)

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "x"})
	require.NoError(t, g.Run(context.Background(), state, nil))

	res := state.Messages[2].(core.ActionResult)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "unknown capability")
}

func TestGraph_PanickingCapabilityIsIsolated(t *testing.T) {
	panicking := capability.NewFunction("panics", "", map[string]any{"type": "object"},
		func(ctx context.Context, args map[string]any) (any, error) {
			panic("boom")
		})
	reg := capability.MustNewRegistry(panicking)
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{{ID: "a1", Name: "panics"}}},
		core.AssistantMessage{Text: "recovered"},
	)
	g := New("test", "instruction", o, reg)

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "x"})
	require.NoError(t, g.Run(context.Background(), state, nil))

	res := state.Messages[2].(core.ActionResult)
	assert.True(t, res.Failed())
	assert.Contains(t, res.Error, "panic")
}

func TestGraph_OracleFailureIsHardError(t *testing.T) {
	o := oracle.NewScriptedFunc(func(req oracle.Request) (core.AssistantMessage, error) {
		return core.AssistantMessage{}, errors.New("model unavailable")
	})
	g := New("test", "instruction", o, capability.MustNewRegistry())

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "x"})
	err := g.Run(context.Background(), state, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestGraph_ContextCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int
	o := oracle.NewScriptedFunc(func(req oracle.Request) (core.AssistantMessage, error) {
		calls++
		cancel()
		return core.AssistantMessage{RequestedActions: []core.Action{{ID: fmt.Sprintf("a%d", calls), Name: "echo"}}}, nil
	})
	reg := capability.MustNewRegistry(echoCapability("echo", 0))
	g := New("test", "instruction", o, reg)

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "x"})
	err := g.Run(ctx, state, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestGraph_OracleTimeoutEnforced(t *testing.T) {
	o := oracle.NewScriptedFunc(func(req oracle.Request) (core.AssistantMessage, error) {
		return core.AssistantMessage{Text: "late"}, nil
	})
	slow := &slowOracle{inner: o, delay: 200 * time.Millisecond}
	g := New("test", "instruction", slow, capability.MustNewRegistry(), func(opts *Options) {
		opts.OracleTimeout = 20 * time.Millisecond
	})

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "x"})
	err := g.Run(context.Background(), state, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGraph_EmitErrorCancelsRun(t *testing.T) {
	o := oracle.NewScripted(core.AssistantMessage{Text: "done"})
	g := New("test", "instruction", o, capability.MustNewRegistry())

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "x"})
	sentinel := errors.New("client gone")
	err := g.Run(context.Background(), state, func(s *core.State) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestGraph_SnapshotsAreIsolatedClones(t *testing.T) {
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{{ID: "a1", Name: "echo", Arguments: map[string]any{"value": 1}}}},
		core.AssistantMessage{Text: "done"},
	)
	reg := capability.MustNewRegistry(echoCapability("echo", 0))
	g := New("test", "instruction", o, reg)

	state := core.NewState("")
	state.Append(core.UserMessage{Text: "x"})

	var mu sync.Mutex
	var lens []int
	require.NoError(t, g.Run(context.Background(), state, func(s *core.State) error {
		mu.Lock()
		defer mu.Unlock()
		lens = append(lens, len(s.Messages))
		s.Append(core.UserMessage{Text: "mutated"}) // must not leak into the run
		return nil
	}))

	assert.Equal(t, []int{2, 3, 4}, lens)
	require.Len(t, state.Messages, 4)
}

// slowOracle delays every decide call to exercise timeout handling.
type slowOracle struct {
	inner oracle.Oracle
	delay time.Duration
}

func (s *slowOracle) Decide(ctx context.Context, req oracle.Request) (core.AssistantMessage, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return core.AssistantMessage{}, ctx.Err()
	}
	return s.inner.Decide(ctx, req)
}

func (s *slowOracle) Info() oracle.Info { return s.inner.Info() }
