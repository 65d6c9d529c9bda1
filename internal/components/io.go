package components

import "context"

// Типы компонентов ввода и вывода.
const (
	TypeTextInput  = "text_input"
	TypeChatInput  = "chat_input"
	TypeTextOutput = "text_output"
)

// TextInput — ввод текста во flow.
//
// Inputs: value. Outputs: text.
type TextInput struct {
	Base
}

// NewTextInput создаёт компонент text_input.
func NewTextInput() Component {
	return &TextInput{Base: NewBase(Schema{
		Name:        TypeTextInput,
		DisplayName: "Text Input",
		Description: "Input text data into the flow",
		Category:    "Inputs",
		Icon:        "Type",
		Inputs: []PortSchema{
			{Name: "value", DisplayName: "Text", Type: DataTypeText, Description: "Text value to input", Required: true},
		},
		Outputs: []PortSchema{
			{Name: "text", DisplayName: "Text", Type: DataTypeText, Description: "Output text"},
		},
	})}
}

// Run возвращает входной текст.
func (c *TextInput) Run(context.Context) (map[string]any, error) {
	v, _ := c.Input("value")
	return map[string]any{"text": v}, nil
}

// ChatInput — сообщение чата с необязательной сессией.
//
// Outputs: message — {"role": "user", "content", "session_id", "metadata"}.
type ChatInput struct {
	Base
}

// NewChatInput создаёт компонент chat_input.
func NewChatInput() Component {
	return &ChatInput{Base: NewBase(Schema{
		Name:        TypeChatInput,
		DisplayName: "Chat Input",
		Description: "Input for chat messages with optional session management",
		Category:    "Inputs",
		Icon:        "MessageCircle",
		Inputs: []PortSchema{
			{Name: "message", DisplayName: "Message", Type: DataTypeText, Description: "User message", Required: true},
			{Name: "session_id", DisplayName: "Session ID", Type: DataTypeText, Description: "Session identifier for conversation context"},
			{Name: "metadata", DisplayName: "Metadata", Type: DataTypeData, Description: "Additional metadata", Advanced: true},
		},
		Outputs: []PortSchema{
			{Name: "message", DisplayName: "Message", Type: DataTypeMessage, Description: "Formatted chat message"},
		},
	})}
}

// Run формирует сообщение чата.
func (c *ChatInput) Run(context.Context) (map[string]any, error) {
	metadata := c.InputMap("metadata")
	if metadata == nil {
		metadata = make(map[string]any)
	}

	var sessionID any
	if c.HasInput("session_id") {
		sessionID = c.InputString("session_id")
	}

	message := map[string]any{
		"role":       "user",
		"content":    c.InputString("message"),
		"session_id": sessionID,
		"metadata":   metadata,
	}
	return map[string]any{"message": message}, nil
}

// TextOutput — конечная точка flow для текста.
type TextOutput struct {
	Base
}

// NewTextOutput создаёт компонент text_output.
func NewTextOutput() Component {
	return &TextOutput{Base: NewBase(Schema{
		Name:        TypeTextOutput,
		DisplayName: "Text Output",
		Description: "Output text data",
		Category:    "Outputs",
		Icon:        "FileText",
		Inputs: []PortSchema{
			{Name: "text", DisplayName: "Text", Type: DataTypeText, Description: "Text to output", Required: true},
		},
		Outputs: []PortSchema{
			{Name: "output", DisplayName: "Output", Type: DataTypeText},
			{Name: "status", DisplayName: "Status", Type: DataTypeText},
		},
	})}
}

// Run возвращает текст и статус.
func (c *TextOutput) Run(context.Context) (map[string]any, error) {
	v, _ := c.Input("text")
	return map[string]any{
		"output": v,
		"status": "success",
	}, nil
}
