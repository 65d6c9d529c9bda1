package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/mq"
)

const (
	// writeWait — предел на запись одного сообщения в websocket.
	writeWait = 10 * time.Second

	// maxMessageBytes — предел размера сообщения клиента.
	maxMessageBytes = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Аутентификация выполняется по X-User-ID, Origin не проверяется.
	CheckOrigin: func(*http.Request) bool { return true },
}

// StreamFlow выполняет flow по запросу клиента и пишет события в websocket.
// GET /api/v1/flows/{id}/stream
//
// Клиент отправляет {"type":"execute","context":{...}}; на каждое такое
// сообщение сервер запускает новое выполнение и пишет его события
// до терминального (flow_complete или error).
func (h *Handler) StreamFlow(w http.ResponseWriter, r *http.Request) {
	f, ok := h.loadFlow(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxMessageBytes)

	ctx := r.Context()
	for {
		var req StreamRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.logger.Debug("websocket read failed", "flow_id", f.ID, "error", err)
			}
			return
		}

		if req.Type != streamRequestExecute {
			if writeEvent(conn, flow.Event{Type: flow.EventError, Error: "unknown message type: " + req.Type}) != nil {
				return
			}
			continue
		}

		if !h.streamRun(ctx, conn, f, req.Context) {
			return
		}
	}
}

// streamRun выполняет flow один раз. Возвращает false, если соединение потеряно.
func (h *Handler) streamRun(ctx context.Context, conn *websocket.Conn, f *domain.Flow, overrides map[string]any) bool {
	executor, exec, err := h.startRun(ctx, f, overrides)
	if err != nil {
		h.logger.Error("failed to start streamed execution", "flow_id", f.ID, "error", err)
		return writeEvent(conn, flow.Event{Type: flow.EventError, Error: "failed to start execution"}) == nil
	}
	defer h.saveRun(ctx, exec, executor)

	for event := range executor.ExecuteStream(ctx) {
		if err := writeEvent(conn, event); err != nil {
			h.logger.Debug("websocket write failed", "execution_id", exec.ID, "error", err)
			return false
		}
	}
	return true
}

// FollowExecution пишет в websocket события асинхронного выполнения.
// GET /api/v1/executions/{id}/events
//
// Если выполнение уже завершено, отправляется одно терминальное событие
// из сохранённой записи. Иначе события приходят из RabbitMQ до терминального.
func (h *Handler) FollowExecution(w http.ResponseWriter, r *http.Request) {
	if h.events == nil {
		Unavailable(w, "event streaming is not configured")
		return
	}

	exec, ok := h.loadExecution(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	if exec.IsFinished() {
		writeEvent(conn, terminalEvent(exec))
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Чтение нужно, чтобы заметить закрытие соединения клиентом.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	err = h.events.SubscribeEvents(ctx, exec.ID, func(p mq.ExecutionEventPayload) bool {
		event := flow.Event{
			Type:   flow.EventType(p.Event),
			NodeID: p.NodeID,
			Data:   p.Data,
			Error:  p.Error,
		}
		if writeEvent(conn, event) != nil {
			return false
		}
		return !event.Type.IsTerminal()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		h.logger.Warn("event subscription failed", "execution_id", exec.ID, "error", err)
		writeEvent(conn, flow.Event{Type: flow.EventError, Error: "event subscription failed"})
	}
}

// --- Helpers ---

func writeEvent(conn *websocket.Conn, event flow.Event) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// terminalEvent восстанавливает терминальное событие по сохранённому execution.
func terminalEvent(exec *domain.Execution) flow.Event {
	if exec.Status == domain.ExecutionStatusCompleted {
		return flow.Event{Type: flow.EventFlowComplete, Data: exec.Results}
	}
	return flow.Event{Type: flow.EventError, Error: exec.Error}
}
