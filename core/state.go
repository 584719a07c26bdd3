package core

// State is the conversation state owned by one graph instance (supervisor or
// team). Messages are append-only within an invocation: they are never
// reordered or truncated, and their order is the causal order of the
// conversation. Scope labels team-owned state; the supervisor leaves it empty.
//
// State is not safe for concurrent mutation. The graph engine owns it for the
// duration of a run and hands out clones as snapshots.
type State struct {
	Scope    string    `json:"scope,omitempty"`
	Messages []Message `json:"messages"`
}

// NewState creates an empty conversation state with the given scope label.
func NewState(scope string) *State {
	return &State{Scope: scope}
}

// Append adds messages to the end of the conversation.
func (s *State) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Merge concatenates another partial state's messages onto this one,
// preserving the order in which they were produced.
func (s *State) Merge(other *State) {
	if other == nil {
		return
	}
	s.Messages = append(s.Messages, other.Messages...)
}

// Last returns the most recent message, or nil for an empty conversation.
func (s *State) Last() Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return s.Messages[len(s.Messages)-1]
}

// LastAssistantText returns the text of the most recent AssistantMessage.
// It is the terminal answer of a completed decide/act loop.
func (s *State) LastAssistantText() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if am, ok := s.Messages[i].(AssistantMessage); ok {
			return am.Text
		}
	}
	return ""
}

// Clone returns a deep copy safe for independent use. Message values are
// immutable by convention, so the message slice is copied shallowly except
// for action slices and argument maps.
func (s *State) Clone() *State {
	clone := &State{Scope: s.Scope, Messages: make([]Message, len(s.Messages))}
	for i, m := range s.Messages {
		clone.Messages[i] = cloneMessage(m)
	}
	return clone
}

func cloneMessage(m Message) Message {
	am, ok := m.(AssistantMessage)
	if !ok {
		return m
	}
	if len(am.RequestedActions) == 0 {
		return am
	}
	actions := make([]Action, len(am.RequestedActions))
	for i, a := range am.RequestedActions {
		na := a
		if a.Arguments != nil {
			na.Arguments = make(map[string]any, len(a.Arguments))
			for k, v := range a.Arguments {
				na.Arguments[k] = v
			}
		}
		actions[i] = na
	}
	am.RequestedActions = actions
	return am
}
