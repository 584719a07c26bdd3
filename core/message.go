package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Message is a single entry in a conversation. Concrete message types
// implement the unexported isMessage marker enabling a closed set.
type Message interface{ isMessage() }

// UserMessage carries the original request text that started a turn.
type UserMessage struct {
	Text string `json:"text"`
}

// isMessage implements the Message interface for UserMessage.
func (UserMessage) isMessage() {}

// Action is a single named, argument-bearing delegation request issued by the
// oracle, targeting either a raw tool or a team facade. ID is unique within
// the assistant turn that requested it.
type Action struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// QueryArgument returns the "query" argument as a string if present. Team
// facades receive their input through this argument.
func (a Action) QueryArgument() string {
	if a.Arguments == nil {
		return ""
	}
	q, _ := a.Arguments["query"].(string)
	return q
}

// AssistantMessage is the oracle's answer for one decide step. A terminal
// answer carries text and no requested actions; a delegation turn carries one
// or more requested actions and may have empty text.
type AssistantMessage struct {
	Text             string   `json:"text,omitempty"`
	RequestedActions []Action `json:"requested_actions,omitempty"`
}

// isMessage implements the Message interface for AssistantMessage.
func (AssistantMessage) isMessage() {}

// IsFinal reports whether this assistant turn terminates the decide/act loop.
func (m AssistantMessage) IsFinal() bool { return len(m.RequestedActions) == 0 }

// ActionResult records the outcome of one resolved Action, correlated to the
// requesting Action by ActionID. Failures are ordinary data: Error is set and
// the loop continues, giving the oracle a chance to recover or explain.
type ActionResult struct {
	ActionID string `json:"action_id"`
	Name     string `json:"name"`
	Payload  any    `json:"payload,omitempty"`
	Error    string `json:"error,omitempty"`
}

// isMessage implements the Message interface for ActionResult.
func (ActionResult) isMessage() {}

// Failed reports whether the action resolution produced an error instead of a payload.
func (r ActionResult) Failed() bool { return r.Error != "" }

// PayloadText renders the result for consumption by the oracle: the error
// description on failure, the payload itself if it is a string, otherwise its
// JSON serialization.
func (r ActionResult) PayloadText() string {
	if r.Failed() {
		return r.Error
	}
	if s, ok := r.Payload.(string); ok {
		return s
	}
	b, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Sprintf("%v", r.Payload)
	}
	return string(b)
}

// NewID generates a new unique identifier for actions, sessions and threads.
func NewID() string { return uuid.NewString() }
