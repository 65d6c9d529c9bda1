package flow

// EventType — тип события streaming выполнения.
type EventType string

const (
	// EventToken — очередной чанк streaming компонента.
	EventToken EventType = "token"

	// EventNodeComplete — узел завершился, Data содержит его выходы.
	EventNodeComplete EventType = "node_complete"

	// EventFlowComplete — flow завершился успешно, Data содержит все результаты.
	EventFlowComplete EventType = "flow_complete"

	// EventError — flow завершился ошибкой.
	EventError EventType = "error"
)

// IsTerminal проверяет, завершает ли событие поток.
func (t EventType) IsTerminal() bool {
	return t == EventFlowComplete || t == EventError
}

// Event — запись потока событий выполнения.
//
// Формат на проводе:
//
//	{"event": "token", "node_id": "llm", "data": "Hel"}
//	{"event": "node_complete", "node_id": "llm", "data": {"response": "Hello"}}
//	{"event": "flow_complete", "data": {"llm": {...}}}
//	{"event": "error", "error": "node llm (openai_llm): ..."}
type Event struct {
	Type   EventType `json:"event"`
	NodeID string    `json:"node_id,omitempty"`
	Data   any       `json:"data,omitempty"`
	Error  string    `json:"error,omitempty"`
}

func errorEvent(err error) Event {
	return Event{Type: EventError, Error: err.Error()}
}
