package supportmesh

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/oracle"
	"github.com/hupe1980/supportmesh/stream"
)

func TestAssistant_Invoke(t *testing.T) {
	o := oracle.NewScripted(core.AssistantMessage{Text: "Hello! What do you need help with?"})
	a, err := New(o)
	require.NoError(t, err)

	answer, err := a.Invoke(context.Background(), "t1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello! What do you need help with?", answer)
}

func TestAssistant_StreamEventOrder(t *testing.T) {
	// Route to escalation, file a ticket offline, confirm, synthesize.
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{{
			ID: "a1", Name: "human_escalation_team_tool",
			Arguments: map[string]any{"query": "cancel order 7"},
		}}},
		core.AssistantMessage{RequestedActions: []core.Action{{
			ID: "a2", Name: "create_support_ticket",
			Arguments: map[string]any{"customer_concern": "cancel order 7"},
		}}},
		core.AssistantMessage{Text: "Escalated as T-1234."},
		core.AssistantMessage{Text: "Your cancellation was escalated, ticket T-1234."},
	)
	a, err := New(o)
	require.NoError(t, err)

	var types []stream.EventType
	for ev := range a.Stream(context.Background(), "t1", "cancel order 7") {
		types = append(types, ev.Type)
	}
	assert.Equal(t, []stream.EventType{
		stream.EventPlan,
		stream.EventReport,
		stream.EventFinalAnswer,
	}, types)
}
