// Package team wraps one specialist's decide/act loop as a capability the
// supervisor can invoke by name. Each facade invocation runs a brand-new,
// isolated sub-graph: team memory never persists across supervisor turns.
package team

import (
	"time"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/graph"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/oracle"
)

// Options holds configuration overrides passed to New().
type Options struct {
	// ParallelActions resolves a team's tool calls concurrently.
	ParallelActions bool
	// OracleTimeout bounds each decide call of the sub-graph.
	OracleTimeout time.Duration
	// Logger receives structured execution logs.
	Logger logging.Logger
}

// Team is a specialist: a fixed system instruction plus a private tool set,
// executed as its own bounded decide/act loop.
type Team struct {
	name        string
	description string
	graph       *graph.Graph
}

// New constructs a Team. name is the identifier the supervisor delegates to,
// description tells the routing oracle when to pick this team, instruction is
// the specialist's fixed system instruction and tools its private registry.
func New(name, description, instruction string, o oracle.Oracle, tools *capability.Registry, optFns ...func(o *Options)) *Team {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	g := graph.New(name, instruction, o, tools, func(gopts *graph.Options) {
		gopts.ParallelActions = opts.ParallelActions
		gopts.OracleTimeout = opts.OracleTimeout
		gopts.Logger = opts.Logger
	})
	return &Team{name: name, description: description, graph: g}
}

// Name returns the team identifier.
func (t *Team) Name() string { return t.name }

// Description returns the routing description shown to the supervisor oracle.
func (t *Team) Description() string { return t.description }
