// Package stream converts the supervisor graph's state snapshots into the
// ordered sequence of externally observable events pushed to clients. The
// adapter only classifies and formats; it is fully decoupled from both the
// execution loop and the transport that delivers the events.
package stream

import (
	"github.com/hupe1980/supportmesh/core"
)

// EventType labels an externally visible execution step.
type EventType string

const (
	// EventNewThread announces the thread id a stream is bound to.
	EventNewThread EventType = "new_thread"
	// EventPlan announces a delegation the supervisor is about to make.
	EventPlan EventType = "supervisor_plan"
	// EventReport carries a team's result back to the client.
	EventReport EventType = "team_report"
	// EventFinalAnswer carries the terminal answer; it is the last event of a
	// normally closing stream.
	EventFinalAnswer EventType = "final_answer"
	// EventError reports a failure while driving the graph; no further events
	// follow it.
	EventError EventType = "error"
)

// Event is one externally observable execution step.
type Event struct {
	Type     EventType `json:"-"`
	ThreadID string    `json:"thread_id,omitempty"`
	Team     string    `json:"team,omitempty"`
	Query    string    `json:"query,omitempty"`
	Content  string    `json:"content,omitempty"`
	Error    string    `json:"error,omitempty"`
	Message  string    `json:"message,omitempty"`
}

// FromSnapshot classifies the most recent message of a snapshot:
//
//	assistant with requested actions -> one plan event per action
//	assistant without actions        -> final_answer
//	action result                    -> team_report
//	user message                     -> suppressed (nil)
func FromSnapshot(snapshot *core.State) []Event {
	switch msg := snapshot.Last().(type) {
	case core.AssistantMessage:
		if msg.IsFinal() {
			return []Event{{Type: EventFinalAnswer, Content: msg.Text}}
		}
		events := make([]Event, 0, len(msg.RequestedActions))
		for _, a := range msg.RequestedActions {
			events = append(events, Event{Type: EventPlan, Team: a.Name, Query: a.QueryArgument()})
		}
		return events
	case core.ActionResult:
		return []Event{{Type: EventReport, Team: msg.Name, Content: msg.PayloadText()}}
	default:
		return nil
	}
}

// ErrorEvent builds the terminal error event for a failed run.
func ErrorEvent(err error) Event {
	return Event{
		Type:    EventError,
		Error:   err.Error(),
		Message: "An error occurred during agent execution.",
	}
}

// Consume adapts a supervisor run (snapshot channel plus terminal error
// channel) into an ordered event stream. The returned channel closes after a
// final_answer or error event; no events follow an error. Snapshot order is
// preserved.
func Consume(snapshots <-chan *core.State, errs <-chan error) <-chan Event {
	out := make(chan Event, 16)
	go func() {
		defer close(out)
		for snap := range snapshots {
			for _, ev := range FromSnapshot(snap) {
				out <- ev
			}
		}
		if err := <-errs; err != nil {
			out <- ErrorEvent(err)
		}
	}()
	return out
}
