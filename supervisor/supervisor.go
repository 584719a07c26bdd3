// Package supervisor implements the top-level routing graph: it loads the
// session's conversation state, runs the decide/act loop against the team
// facades and persists the full state back under the session key, giving the
// system cross-request memory.
package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/graph"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/metrics"
	"github.com/hupe1980/supportmesh/oracle"
	"github.com/hupe1980/supportmesh/session"
)

// Options holds dependency and configuration overrides passed to New().
type Options struct {
	// Store persists supervisor conversation state per session key.
	Store session.Store
	// ParallelActions resolves team delegations of one act step concurrently.
	ParallelActions bool
	// OracleTimeout bounds each routing decide call.
	OracleTimeout time.Duration
	// SnapshotBufferSize sets channel buffering for streamed snapshots.
	SnapshotBufferSize int
	// Logger receives structured execution logs.
	Logger logging.Logger
}

// Supervisor routes requests to specialist teams and synthesizes the final
// answer. Public methods are safe for concurrent use; invocations for the
// same session key are serialized so the persisted load-run-store cycle is
// never interleaved.
type Supervisor struct {
	graph   *graph.Graph
	store   session.Store
	logger  logging.Logger
	bufSize int
	keys    keyedMutex
}

// New constructs a Supervisor whose action set is the given team facade
// registry. No direct tool calls happen at this level.
func New(instruction string, o oracle.Oracle, teams *capability.Registry, optFns ...func(o *Options)) *Supervisor {
	opts := Options{
		Store:              session.NewInMemoryStore(),
		SnapshotBufferSize: 64,
		Logger:             logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	g := graph.New("supervisor", instruction, o, teams, func(gopts *graph.Options) {
		gopts.ParallelActions = opts.ParallelActions
		gopts.OracleTimeout = opts.OracleTimeout
		gopts.Logger = opts.Logger
	})
	return &Supervisor{
		graph:   g,
		store:   opts.Store,
		logger:  opts.Logger,
		bufSize: opts.SnapshotBufferSize,
	}
}

// Invoke runs one full decide/act loop for the session and returns the final
// answer text. The session key's stored state is extended by this turn.
func (s *Supervisor) Invoke(ctx context.Context, key, query string) (string, error) {
	state, err := s.run(ctx, key, query, nil)
	if err != nil {
		return "", err
	}
	return state.LastAssistantText(), nil
}

// Stream runs one full decide/act loop and yields an immutable state snapshot
// per transition. The snapshot channel is closed when the loop terminates;
// a terminal failure is then delivered on the error channel before it closes.
// If ctx is cancelled mid-run the partial turn is discarded, not persisted.
func (s *Supervisor) Stream(ctx context.Context, key, query string) (<-chan *core.State, <-chan error) {
	snapshots := make(chan *core.State, s.bufSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(errCh)

		emit := func(snap *core.State) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case snapshots <- snap:
				return nil
			}
		}

		_, err := s.run(ctx, key, query, emit)
		close(snapshots)
		if err != nil {
			errCh <- err
		}
	}()

	return snapshots, errCh
}

// run performs the serialized load-run-store cycle for one session key.
func (s *Supervisor) run(ctx context.Context, key, query string, emit graph.EmitFunc) (*core.State, error) {
	unlock := s.keys.lock(key)
	defer unlock()

	state, found, err := s.store.Load(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", key, err)
	}
	if !found {
		state = core.NewState("")
		metrics.SessionsCreated.Inc()
		s.logger.Info("supervisor.session.created", "session_id", key)
	}

	state.Append(core.UserMessage{Text: query})

	if err := s.graph.Run(ctx, state, emit); err != nil {
		s.logger.Warn("supervisor.run.aborted", "session_id", key, "error", err.Error())
		return nil, err
	}

	if err := s.store.Save(ctx, key, state); err != nil {
		return nil, fmt.Errorf("store session %s: %w", key, err)
	}
	s.logger.Debug("supervisor.run.persisted", "session_id", key, "messages", len(state.Messages))
	return state, nil
}

// Teams returns the names of the registered team facades.
func (s *Supervisor) Teams() []string { return s.graph.Registry().Names() }
