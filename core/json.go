package core

import (
	"encoding/json"
	"fmt"
)

// Wire representation for persisted conversations. Each message is wrapped in
// an envelope carrying a type tag so the closed Message set survives a
// marshal/unmarshal round trip through external stores.

const (
	wireUser         = "user"
	wireAssistant    = "assistant"
	wireActionResult = "action_result"
)

type wireMessage struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

type wireState struct {
	Scope    string        `json:"scope,omitempty"`
	Messages []wireMessage `json:"messages"`
}

// MarshalJSON implements json.Marshaler.
func (s *State) MarshalJSON() ([]byte, error) {
	ws := wireState{Scope: s.Scope, Messages: make([]wireMessage, 0, len(s.Messages))}
	for _, m := range s.Messages {
		var tag string
		switch m.(type) {
		case UserMessage:
			tag = wireUser
		case AssistantMessage:
			tag = wireAssistant
		case ActionResult:
			tag = wireActionResult
		default:
			return nil, fmt.Errorf("unknown message type %T", m)
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		ws.Messages = append(ws.Messages, wireMessage{Type: tag, Message: raw})
	}
	return json.Marshal(ws)
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *State) UnmarshalJSON(data []byte) error {
	var ws wireState
	if err := json.Unmarshal(data, &ws); err != nil {
		return err
	}
	s.Scope = ws.Scope
	s.Messages = make([]Message, 0, len(ws.Messages))
	for _, wm := range ws.Messages {
		switch wm.Type {
		case wireUser:
			var m UserMessage
			if err := json.Unmarshal(wm.Message, &m); err != nil {
				return err
			}
			s.Messages = append(s.Messages, m)
		case wireAssistant:
			var m AssistantMessage
			if err := json.Unmarshal(wm.Message, &m); err != nil {
				return err
			}
			s.Messages = append(s.Messages, m)
		case wireActionResult:
			var m ActionResult
			if err := json.Unmarshal(wm.Message, &m); err != nil {
				return err
			}
			s.Messages = append(s.Messages, m)
		default:
			return fmt.Errorf("unknown message tag %q", wm.Type)
		}
	}
	return nil
}
