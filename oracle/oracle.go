// Package oracle defines the decision contract consumed by the graph engine:
// given an instruction, the conversation history and the available
// capabilities, return either a terminal answer or a set of requested
// actions. LLM providers implement it; tests inject a scripted oracle.
package oracle

import (
	"context"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/core"
)

// Request captures the normalized oracle input produced by the graph engine.
type Request struct {
	// Instruction is the fixed system instruction for the deciding graph.
	Instruction string
	// History is the full ordered conversation visible to the oracle.
	History []core.Message
	// Capabilities declares the actions the oracle may request.
	Capabilities []capability.Definition
}

// Info contains metadata about an oracle implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "scripted", ...
}

// Oracle is the decision-making capability driving decide steps. Decide is a
// single blocking call; implementations must respect ctx cancellation and
// deadlines. A Decide failure is a hard error for the current invocation and
// is not retried by the engine.
type Oracle interface {
	Decide(ctx context.Context, req Request) (core.AssistantMessage, error)

	// Info returns information about the oracle implementation.
	Info() Info
}
