// Package supportmesh provides a high-level façade over the routing
// supervisor and its specialist teams for building customer-support
// assistants. Most applications interact with this package by:
//  1. Creating an Assistant via New() (optionally overriding the session
//     store, logger or engine settings)
//  2. Calling Invoke for a blocking answer, or Stream for the ordered
//     sequence of execution events
//
// The façade delegates orchestration to supervisor.Supervisor while keeping
// setup concise. All defaults are safe for local development and testing;
// production deployments typically supply a Redis-backed session store and a
// structured logger.
package supportmesh

import (
	"context"

	"github.com/hupe1980/supportmesh/config"
	"github.com/hupe1980/supportmesh/logging"
	"github.com/hupe1980/supportmesh/oracle"
	"github.com/hupe1980/supportmesh/session"
	"github.com/hupe1980/supportmesh/stream"
	"github.com/hupe1980/supportmesh/supervisor"
	"github.com/hupe1980/supportmesh/support"
)

// Options configures the Assistant.
type Options struct {
	// Config supplies the team, tool and engine settings. Defaults to
	// config.Default().
	Config *config.Config
	// Store persists conversation state per thread (defaults to in-memory).
	Store session.Store
	// Logger receives structured execution logs (defaults to NoOp).
	Logger logging.Logger
}

// Assistant is the high-level façade aggregating the supervisor and the
// support-domain teams.
type Assistant struct {
	sup *supervisor.Supervisor
}

// New creates an Assistant driven by the given oracle.
func New(o oracle.Oracle, optFns ...func(o *Options)) (*Assistant, error) {
	opts := Options{
		Config: config.Default(),
		Store:  session.NewInMemoryStore(),
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	sup, err := support.NewAssistant(opts.Config, o, opts.Store, opts.Logger)
	if err != nil {
		return nil, err
	}
	return &Assistant{sup: sup}, nil
}

// Supervisor exposes the underlying supervisor for transports that need
// direct access, such as the HTTP server.
func (a *Assistant) Supervisor() *supervisor.Supervisor { return a.sup }

// Invoke runs one blocking turn for the thread and returns the final answer.
func (a *Assistant) Invoke(ctx context.Context, threadID, query string) (string, error) {
	return a.sup.Invoke(ctx, threadID, query)
}

// Stream runs one turn and returns the ordered execution events: a plan event
// per delegation, a report event per team result, then the final answer. The
// channel closes after the final answer or a terminal error event.
func (a *Assistant) Stream(ctx context.Context, threadID, query string) <-chan stream.Event {
	snapshots, errCh := a.sup.Stream(ctx, threadID, query)
	return stream.Consume(snapshots, errCh)
}
