// Package graph implements the decide/act execution loop shared by the
// supervisor and the team sub-graphs: ask the oracle for the next step,
// resolve any requested actions against a capability registry, append the
// results and repeat until the oracle returns a terminal answer.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/metrics"
	"github.com/hupe1980/supportmesh/oracle"
)

// EmitFunc receives an immutable snapshot of the conversation state after
// every transition. Returning an error cancels the run. A nil EmitFunc
// disables snapshot streaming.
type EmitFunc func(snapshot *core.State) error

// Options holds configuration overrides passed to New().
type Options struct {
	// ParallelActions resolves the actions of one act step concurrently.
	// Results are appended in request order regardless of completion order,
	// so the oracle sees the same concatenated history either way.
	ParallelActions bool
	// OracleTimeout bounds a single decide call. Zero means no timeout.
	OracleTimeout time.Duration
	// Logger receives structured execution logs.
	Logger logging.Logger
}

// Graph drives one decide/act loop to a terminal answer. A Graph holds no
// per-run state and is safe for concurrent use; each Run owns the passed
// State exclusively for its duration.
type Graph struct {
	name            string
	instruction     string
	oracle          oracle.Oracle
	registry        *capability.Registry
	parallelActions bool
	oracleTimeout   time.Duration
	logger          logging.Logger
}

// New constructs a Graph with optional overrides.
func New(name, instruction string, o oracle.Oracle, registry *capability.Registry, optFns ...func(o *Options)) *Graph {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Graph{
		name:            name,
		instruction:     instruction,
		oracle:          o,
		registry:        registry,
		parallelActions: opts.ParallelActions,
		oracleTimeout:   opts.OracleTimeout,
		logger:          opts.Logger,
	}
}

// Name returns the graph's identifying label.
func (g *Graph) Name() string { return g.name }

// Registry returns the capability set this graph resolves actions against.
func (g *Graph) Registry() *capability.Registry { return g.registry }

// Run executes the loop on state until the oracle returns an assistant
// message with no requested actions. Every appended message produces one
// snapshot via emit. Action failures are recorded as ActionResult error
// payloads and never abort the loop; oracle failures and context
// cancellation do.
func (g *Graph) Run(ctx context.Context, state *core.State, emit EmitFunc) error {
	defs := g.registry.Definitions()

	for iteration := 0; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		msg, err := g.decide(ctx, state, defs)
		if err != nil {
			return fmt.Errorf("oracle decide failed: %w", err)
		}
		state.Append(msg)
		if err := g.emit(state, emit); err != nil {
			return err
		}

		if msg.IsFinal() {
			g.logger.Debug("graph.terminal", "graph", g.name, "iterations", iteration+1)
			return nil
		}

		results := g.resolveActions(ctx, msg.RequestedActions)
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, res := range results {
			state.Append(res)
			if err := g.emit(state, emit); err != nil {
				return err
			}
		}
	}
}

func (g *Graph) emit(state *core.State, emit EmitFunc) error {
	if emit == nil {
		return nil
	}
	return emit(state.Clone())
}

func (g *Graph) decide(ctx context.Context, state *core.State, defs []capability.Definition) (core.AssistantMessage, error) {
	if g.oracleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.oracleTimeout)
		defer cancel()
	}

	start := time.Now()
	msg, err := g.oracle.Decide(ctx, oracle.Request{
		Instruction:  g.instruction,
		History:      state.Messages,
		Capabilities: defs,
	})
	dur := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OracleCalls.WithLabelValues(g.name, status).Inc()
	metrics.OracleLatency.WithLabelValues(g.name).Observe(dur.Seconds())
	g.logger.Info("graph.decide",
		"graph", g.name,
		"oracle", g.oracle.Info().Provider,
		"duration_ms", dur.Milliseconds(),
		"actions", len(msg.RequestedActions),
		"error", err != nil,
	)
	return msg, err
}
