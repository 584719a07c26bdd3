package oracle

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/supportmesh/core"
)

// Scripted is a deterministic in-memory Oracle for tests and examples. It
// either replays a fixed sequence of assistant turns or delegates to a
// user-supplied decide function.
type Scripted struct {
	mu      sync.Mutex
	turns   []core.AssistantMessage
	next    int
	decide  func(req Request) (core.AssistantMessage, error)
	history []Request
}

// NewScripted returns an oracle replaying the given turns in order. Once the
// script is exhausted further Decide calls fail.
func NewScripted(turns ...core.AssistantMessage) *Scripted {
	return &Scripted{turns: turns}
}

// NewScriptedFunc returns an oracle delegating every Decide call to fn.
func NewScriptedFunc(fn func(req Request) (core.AssistantMessage, error)) *Scripted {
	return &Scripted{decide: fn}
}

// Decide implements Oracle.
func (s *Scripted) Decide(ctx context.Context, req Request) (core.AssistantMessage, error) {
	if err := ctx.Err(); err != nil {
		return core.AssistantMessage{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, req)

	if s.decide != nil {
		return s.decide(req)
	}
	if s.next >= len(s.turns) {
		return core.AssistantMessage{}, fmt.Errorf("scripted oracle exhausted after %d turns", len(s.turns))
	}
	turn := s.turns[s.next]
	s.next++
	return turn, nil
}

// Info implements Oracle.
func (s *Scripted) Info() Info { return Info{Name: "scripted", Provider: "scripted"} }

// Requests returns a copy of every Request seen so far, in call order. Tests
// use it to assert on the history presented to the oracle.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.history))
	copy(out, s.history)
	return out
}

// Calls returns the number of Decide invocations so far.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}
