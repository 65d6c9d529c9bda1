package components

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/shaiso/Langweave/internal/engine"
)

// Типы компонентов обработки.
const (
	TypeTextSplitter = "text_splitter"
	TypeTransform    = "transform"
)

// TextSplitter — разбиение текста на чанки с перекрытием.
//
// Размеры считаются в символах (rune), а не в байтах.
// Каждый чанк: {"text", "start", "end"}.
type TextSplitter struct {
	Base
	size    int
	overlap int
}

// NewTextSplitter создаёт компонент text_splitter.
func NewTextSplitter() Component {
	return &TextSplitter{Base: NewBase(Schema{
		Name:        TypeTextSplitter,
		DisplayName: "Text Splitter",
		Description: "Split text into chunks",
		Category:    "Processing",
		Icon:        "Split",
		Inputs: []PortSchema{
			{Name: "text", DisplayName: "Text", Type: DataTypeText, Description: "Text to split", Required: true},
			{Name: "chunk_size", DisplayName: "Chunk Size", Type: DataTypeNumber, Description: "Size of each chunk", Default: 1000},
			{Name: "chunk_overlap", DisplayName: "Chunk Overlap", Type: DataTypeNumber, Description: "Overlap between chunks", Default: 200},
		},
		Outputs: []PortSchema{
			{Name: "chunks", DisplayName: "Chunks", Type: DataTypeData, Description: "Text chunks"},
			{Name: "total_chunks", DisplayName: "Total Chunks", Type: DataTypeNumber},
		},
	})}
}

// Build проверяет размеры чанков.
func (c *TextSplitter) Build(context.Context) error {
	c.size = c.InputInt("chunk_size")
	c.overlap = c.InputInt("chunk_overlap")

	if c.size <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidInput, c.size)
	}
	if c.overlap < 0 || c.overlap >= c.size {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrInvalidInput, c.overlap)
	}
	return nil
}

// Run разбивает текст.
func (c *TextSplitter) Run(context.Context) (map[string]any, error) {
	text := []rune(c.InputString("text"))

	chunks := make([]any, 0)
	for start := 0; start < len(text); start += c.size - c.overlap {
		end := min(start+c.size, len(text))
		chunks = append(chunks, map[string]any{
			"text":  string(text[start:end]),
			"start": start,
			"end":   end,
		})
		if end == len(text) {
			break
		}
	}

	return map[string]any{
		"chunks":       chunks,
		"total_chunks": len(chunks),
	}, nil
}

// Transform — преобразование данных через Go templates.
//
// Конфигурация:
//
//	{
//	    "mappings": {
//	        "total": "{{ len .Data.items }}",
//	        "first": "{{ index .Data.items 0 }}",
//	        "key":   "{{ .Env.flow_id }}"
//	    },
//	    "data": {...}
//	}
//
// Каждый ключ mappings становится выходом узла. Результат рендеринга
// разбирается как JSON, если это возможно. Выход result содержит
// все ключи сразу.
type Transform struct {
	Base
	mappings map[string]string
}

// NewTransform создаёт компонент transform.
func NewTransform() Component {
	return &Transform{Base: NewBase(Schema{
		Name:        TypeTransform,
		DisplayName: "Transform",
		Description: "Reshape data with Go templates",
		Category:    "Processing",
		Icon:        "Shuffle",
		Inputs: []PortSchema{
			{Name: "mappings", DisplayName: "Mappings", Type: DataTypeData, Description: "Output name to template", Required: true},
			{Name: "data", DisplayName: "Data", Type: DataTypeAny, Description: "Data available as .Data"},
		},
		Outputs: []PortSchema{
			{Name: "result", DisplayName: "Result", Type: DataTypeData, Description: "All rendered mappings"},
		},
		DynamicOutputs: true,
	})}
}

// Build разбирает mappings.
func (c *Transform) Build(context.Context) error {
	raw, _ := c.Input("mappings")

	switch m := raw.(type) {
	case map[string]string:
		c.mappings = m
	case map[string]any:
		c.mappings = make(map[string]string, len(m))
		for key, val := range m {
			s, ok := val.(string)
			if !ok {
				return fmt.Errorf("%w: mapping %q must be a string template", ErrInvalidInput, key)
			}
			c.mappings[key] = s
		}
	default:
		return fmt.Errorf("%w: mappings must be an object, got %T", ErrInvalidInput, raw)
	}

	if _, ok := c.mappings["result"]; ok {
		return fmt.Errorf("%w: mapping name %q is reserved", ErrInvalidInput, "result")
	}
	return nil
}

// Run рендерит mappings.
func (c *Transform) Run(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, _ := c.Input("data")
	tmplData := engine.NewTemplateData(data, c.Inputs(), c.Env().Snapshot())

	result := make(map[string]any, len(c.mappings))
	for _, key := range slices.Sorted(maps.Keys(c.mappings)) {
		rendered, err := engine.Render(c.mappings[key], tmplData)
		if err != nil {
			return nil, fmt.Errorf("transform %s: %w", key, err)
		}
		result[key] = parseValue(rendered)
	}

	outputs := maps.Clone(result)
	outputs["result"] = result
	return outputs, nil
}

// parseValue пытается распарсить строку как JSON.
// Если не получается — возвращает строку как есть.
func parseValue(value string) any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(value), &obj); err == nil {
		return obj
	}

	var arr []any
	if err := json.Unmarshal([]byte(value), &arr); err == nil {
		return arr
	}

	var num json.Number
	if err := json.Unmarshal([]byte(value), &num); err == nil {
		if i, err := num.Int64(); err == nil {
			return i
		}
		if f, err := num.Float64(); err == nil {
			return f
		}
	}

	switch value {
	case "true":
		return true
	case "false":
		return false
	}

	return value
}
