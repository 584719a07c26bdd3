package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/supportmesh/capability"
	"github.com/hupe1980/supportmesh/core"
	"github.com/hupe1980/supportmesh/oracle"
	"github.com/hupe1980/supportmesh/supervisor"
)

func newTestSupervisor(o oracle.Oracle) *supervisor.Supervisor {
	orders := capability.MustNewRegistry(capability.NewFunction(
		"orders_team_tool", "test team",
		map[string]any{
			"type":       "object",
			"properties": map[string]any{"query": map[string]any{"type": "string"}},
			"required":   []string{"query"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			return "Order 7 has shipped.", nil
		}))
	return supervisor.New("route", o, orders)
}

type sseEvent struct {
	name string
	data map[string]any
}

func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	scanner := bufio.NewScanner(strings.NewReader(body))
	var current sseEvent
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			current.name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &current.data))
		case line == "":
			if current.name != "" {
				events = append(events, current)
				current = sseEvent{}
			}
		}
	}
	return events
}

func TestInvoke_NewThread(t *testing.T) {
	o := oracle.NewScripted(core.AssistantMessage{Text: "Hello, how can I help?"})
	h := NewHandler(newTestSupervisor(o))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/invoke",
		strings.NewReader(`{"query": "hi"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ChatResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Hello, how can I help?", resp.Response)
	assert.NotEmpty(t, resp.ThreadID)
}

func TestInvoke_ReusesThreadID(t *testing.T) {
	o := oracle.NewScriptedFunc(func(req oracle.Request) (core.AssistantMessage, error) {
		return core.AssistantMessage{Text: "ok"}, nil
	})
	h := NewHandler(newTestSupervisor(o))

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/invoke",
			strings.NewReader(`{"query": "hi", "thread_id": "thread-1"}`)))
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ChatResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "thread-1", resp.ThreadID)
	}

	// Second call saw the first turn in its history.
	reqs := o.Requests()
	require.Len(t, reqs, 2)
	assert.Len(t, reqs[1].History, 3)
}

func TestInvoke_RejectsMissingQuery(t *testing.T) {
	h := NewHandler(newTestSupervisor(oracle.NewScripted()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/invoke",
		strings.NewReader(`{"query": "  "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/invoke",
		strings.NewReader(`not json`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestInvoke_OracleFailureIsServerError(t *testing.T) {
	o := oracle.NewScriptedFunc(func(req oracle.Request) (core.AssistantMessage, error) {
		return core.AssistantMessage{}, assert.AnError
	})
	h := NewHandler(newTestSupervisor(o))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/invoke",
		strings.NewReader(`{"query": "hi"}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStream_FullEventSequence(t *testing.T) {
	o := oracle.NewScripted(
		core.AssistantMessage{RequestedActions: []core.Action{{
			ID: "a1", Name: "orders_team_tool", Arguments: map[string]any{"query": "order 7"},
		}}},
		core.AssistantMessage{Text: "Your order 7 has shipped."},
	)
	h := NewHandler(newTestSupervisor(o))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/stream",
		strings.NewReader(`{"query": "check order 7"}`)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 4)

	assert.Equal(t, "new_thread", events[0].name)
	assert.NotEmpty(t, events[0].data["thread_id"])

	assert.Equal(t, "supervisor_plan", events[1].name)
	assert.Equal(t, "orders_team_tool", events[1].data["team"])
	assert.Equal(t, "order 7", events[1].data["query"])

	assert.Equal(t, "team_report", events[2].name)
	assert.Equal(t, "Order 7 has shipped.", events[2].data["content"])

	assert.Equal(t, "final_answer", events[3].name)
	assert.Equal(t, "Your order 7 has shipped.", events[3].data["content"])
}

func TestStream_ErrorsBecomeTerminalEvent(t *testing.T) {
	o := oracle.NewScriptedFunc(func(req oracle.Request) (core.AssistantMessage, error) {
		return core.AssistantMessage{}, assert.AnError
	})
	h := NewHandler(newTestSupervisor(o))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat/stream",
		strings.NewReader(`{"query": "hi"}`)))

	// The stream itself succeeds; the failure is an event.
	require.Equal(t, http.StatusOK, rec.Code)
	events := parseSSE(t, rec.Body.String())
	require.Len(t, events, 2)
	assert.Equal(t, "new_thread", events[0].name)
	assert.Equal(t, "error", events[1].name)
	assert.NotEmpty(t, events[1].data["error"])
}

func TestHealth(t *testing.T) {
	h := NewHandler(newTestSupervisor(oracle.NewScripted()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewHandler(newTestSupervisor(oracle.NewScripted()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(newTestSupervisor(oracle.NewScripted()))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat/invoke", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
