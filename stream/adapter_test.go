package stream

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
)

func TestFromSnapshot_PlanEventPerRequestedAction(t *testing.T) {
	state := core.NewState("")
	state.Append(
		core.UserMessage{Text: "check order 7 and the refund"},
		core.AssistantMessage{RequestedActions: []core.Action{
			{ID: "a1", Name: "orders_team_tool", Arguments: map[string]any{"query": "status of order 7"}},
			{ID: "a2", Name: "refunds_payment_team_tool", Arguments: map[string]any{"query": "refund for order 7"}},
		}},
	)

	events := FromSnapshot(state)
	require.Len(t, events, 2)
	assert.Equal(t, EventPlan, events[0].Type)
	assert.Equal(t, "orders_team_tool", events[0].Team)
	assert.Equal(t, "status of order 7", events[0].Query)
	assert.Equal(t, "refunds_payment_team_tool", events[1].Team)
	assert.Equal(t, "refund for order 7", events[1].Query)
}

func TestFromSnapshot_ActionResultBecomesReport(t *testing.T) {
	state := core.NewState("")
	state.Append(core.ActionResult{ActionID: "a1", Name: "orders_team_tool", Payload: "Order 7 has shipped."})

	events := FromSnapshot(state)
	require.Len(t, events, 1)
	assert.Equal(t, EventReport, events[0].Type)
	assert.Equal(t, "orders_team_tool", events[0].Team)
	assert.Equal(t, "Order 7 has shipped.", events[0].Content)
}

func TestFromSnapshot_FailedActionReportCarriesErrorText(t *testing.T) {
	state := core.NewState("")
	state.Append(core.ActionResult{ActionID: "a1", Name: "orders_team_tool", Error: "upstream timed out"})

	events := FromSnapshot(state)
	require.Len(t, events, 1)
	assert.Equal(t, EventReport, events[0].Type)
	assert.Contains(t, events[0].Content, "upstream timed out")
}

func TestFromSnapshot_TerminalAnswerBecomesFinalAnswer(t *testing.T) {
	state := core.NewState("")
	state.Append(core.AssistantMessage{Text: "Your order has shipped."})

	events := FromSnapshot(state)
	require.Len(t, events, 1)
	assert.Equal(t, EventFinalAnswer, events[0].Type)
	assert.Equal(t, "Your order has shipped.", events[0].Content)
}

func TestFromSnapshot_UserMessageIsSuppressed(t *testing.T) {
	state := core.NewState("")
	state.Append(core.UserMessage{Text: "hi"})

	assert.Empty(t, FromSnapshot(state))
}

func TestConsume_OrderedEventsThenClose(t *testing.T) {
	snapshots := make(chan *core.State, 4)
	errs := make(chan error, 1)

	plan := core.NewState("")
	plan.Append(
		core.UserMessage{Text: "check order 7"},
		core.AssistantMessage{RequestedActions: []core.Action{
			{ID: "a1", Name: "orders_team_tool", Arguments: map[string]any{"query": "order 7"}},
		}},
	)
	report := plan.Clone()
	report.Append(core.ActionResult{ActionID: "a1", Name: "orders_team_tool", Payload: "shipped"})
	final := report.Clone()
	final.Append(core.AssistantMessage{Text: "Order 7 has shipped."})

	snapshots <- plan
	snapshots <- report
	snapshots <- final
	close(snapshots)
	errs <- nil

	var types []EventType
	for ev := range Consume(snapshots, errs) {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []EventType{EventPlan, EventReport, EventFinalAnswer}, types)
}

func TestConsume_TerminalErrorEndsStream(t *testing.T) {
	snapshots := make(chan *core.State)
	errs := make(chan error, 1)
	close(snapshots)
	errs <- errors.New("oracle decide failed: model unavailable")

	var events []Event
	for ev := range Consume(snapshots, errs) {
		events = append(events, ev)
	}
	require.Len(t, events, 1)
	assert.Equal(t, EventError, events[0].Type)
	assert.Contains(t, events[0].Error, "model unavailable")
	assert.NotEmpty(t, events[0].Message)
}
