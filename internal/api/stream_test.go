package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/mq"
)

func dial(t *testing.T, server *httptest.Server, path string, user uuid.UUID) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	header := http.Header{}
	header.Set(HeaderUserID, user.String())

	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntilTerminal читает события до flow_complete или error.
func readUntilTerminal(t *testing.T, conn *websocket.Conn) []flow.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var events []flow.Event
	for {
		var event flow.Event
		require.NoError(t, conn.ReadJSON(&event))
		events = append(events, event)
		if event.Type.IsTerminal() {
			return events
		}
	}
}

func eventTypes(events []flow.Event) []flow.EventType {
	out := make([]flow.EventType, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}

func TestStreamFlow(t *testing.T) {
	f := newFixture(t, nil)
	fl := f.storeFlow(t, echoDefinition())

	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)

	conn := dial(t, server, "/api/v1/flows/"+fl.ID.String()+"/stream", f.user)

	require.NoError(t, conn.WriteJSON(StreamRequest{Type: "ping"}))
	events := readUntilTerminal(t, conn)
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Error, "unknown message type")

	require.NoError(t, conn.WriteJSON(StreamRequest{Type: streamRequestExecute}))
	events = readUntilTerminal(t, conn)
	assert.Equal(t, []flow.EventType{flow.EventNodeComplete, flow.EventNodeComplete, flow.EventFlowComplete}, eventTypes(events))
	assert.Equal(t, "in", events[0].NodeID)
	assert.Equal(t, "out", events[1].NodeID)

	// второе выполнение в том же соединении
	require.NoError(t, conn.WriteJSON(StreamRequest{Type: streamRequestExecute}))
	events = readUntilTerminal(t, conn)
	assert.Equal(t, flow.EventFlowComplete, events[len(events)-1].Type)

	require.Eventually(t, func() bool {
		execs, _ := f.executions.ListByFlow(t.Context(), fl.ID, pageFrom(httptest.NewRequest(http.MethodGet, "/", nil)))
		if len(execs) != 2 {
			return false
		}
		for _, e := range execs {
			if e.Status != domain.ExecutionStatusCompleted {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestStreamFlow_NotFoundBeforeUpgrade(t *testing.T) {
	f := newFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/v1/flows/"+uuid.NewString()+"/stream", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFollowExecution(t *testing.T) {
	subscriber := &fakeSubscriber{events: []mq.ExecutionEventPayload{
		{Event: string(flow.EventToken), NodeID: "llm", Data: "Hel"},
		{Event: string(flow.EventNodeComplete), NodeID: "llm", Data: map[string]any{"response": "Hello"}},
		{Event: string(flow.EventFlowComplete), Data: map[string]any{}},
		{Event: string(flow.EventToken), NodeID: "late", Data: "ignored"},
	}}
	f := newFixture(t, subscriber)

	exec := domain.NewExecution(uuid.New(), f.user)
	require.NoError(t, f.executions.Create(t.Context(), exec))

	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)

	conn := dial(t, server, "/api/v1/executions/"+exec.ID.String()+"/events", f.user)
	events := readUntilTerminal(t, conn)

	assert.Equal(t, []flow.EventType{flow.EventToken, flow.EventNodeComplete, flow.EventFlowComplete}, eventTypes(events))
	assert.Equal(t, "Hel", events[0].Data)
}

func TestFollowExecution_AlreadyFinished(t *testing.T) {
	f := newFixture(t, &fakeSubscriber{})

	exec := domain.NewExecution(uuid.New(), f.user)
	exec.MarkRunning()
	exec.MarkFailed("node llm (openai_llm): boom")
	require.NoError(t, f.executions.Create(t.Context(), exec))

	server := httptest.NewServer(f.mux)
	t.Cleanup(server.Close)

	conn := dial(t, server, "/api/v1/executions/"+exec.ID.String()+"/events", f.user)
	events := readUntilTerminal(t, conn)

	require.Len(t, events, 1)
	assert.Equal(t, flow.EventError, events[0].Type)
	assert.Equal(t, "node llm (openai_llm): boom", events[0].Error)
}

func TestFollowExecution_Unavailable(t *testing.T) {
	f := newFixture(t, nil)

	exec := domain.NewExecution(uuid.New(), f.user)
	require.NoError(t, f.executions.Create(t.Context(), exec))

	rec := f.do(t, http.MethodGet, "/api/v1/executions/"+exec.ID.String()+"/events", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
