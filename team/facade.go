package team

import (
	"context"
	"fmt"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/internal/schema"
)

// facadeArgs is the argument contract every team facade exposes to the
// supervisor oracle.
type facadeArgs struct {
	Query string `json:"query" description:"The task to delegate to this team, in the user's words"`
}

// Facade exposes a Team as a capability.Capability with a (query) -> text
// signature. Every invocation builds a fresh conversation state, so two
// concurrent invocations of the same team share nothing.
type Facade struct {
	team *Team
}

// NewFacade wraps the team for registration in the supervisor's registry.
func NewFacade(t *Team) *Facade { return &Facade{team: t} }

// Name implements capability.Capability.
func (f *Facade) Name() string { return f.team.name }

// Description implements capability.Capability.
func (f *Facade) Description() string { return f.team.description }

// Schema implements capability.Capability.
func (f *Facade) Schema() map[string]any { return schema.FromStruct(facadeArgs{}) }

// Invoke runs the team's sub-graph to completion and returns its terminal
// answer. Sub-graph failures (including panics) are returned as errors, which
// the supervisor's act step records as error-text action results; a failing
// team can never crash the supervisor loop.
func (f *Facade) Invoke(ctx context.Context, args map[string]any) (result any, err error) {
	if err := schema.Validate(args, f.Schema()); err != nil {
		return nil, capability.NewError(f.team.name, err.Error(), capability.CodeValidation)
	}
	query, _ := args["query"].(string)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("team %s panicked: %v", f.team.name, r)
		}
	}()

	state := core.NewState(f.team.name)
	state.Append(core.UserMessage{Text: query})

	if err := f.team.graph.Run(ctx, state, nil); err != nil {
		return nil, fmt.Errorf("team %s failed: %w", f.team.name, err)
	}
	return state.LastAssistantText(), nil
}
