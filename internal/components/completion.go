package components

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// TypeCompletionLLM — тип компонента legacy completions API.
const TypeCompletionLLM = "completion_llm"

// CompletionLLM — модель через completions API (prompt → text).
//
// Подходит для self-hosted серверов с OpenAI-совместимым API
// (vLLM, llama.cpp), которые отдают /v1/completions.
type CompletionLLM struct {
	Base
	client *openai.Client
}

// NewCompletionLLM создаёт компонент completion_llm.
func NewCompletionLLM() Component {
	return &CompletionLLM{Base: NewBase(Schema{
		Name:        TypeCompletionLLM,
		DisplayName: "Completion LLM",
		Description: "Text completion model with an OpenAI-compatible API",
		Category:    "Language Models",
		Icon:        "TextCursor",
		Inputs: []PortSchema{
			{Name: "prompt", DisplayName: "Prompt", Type: DataTypeText, Required: true},
			{Name: "model", DisplayName: "Model", Type: DataTypeText, Required: true, Default: "gpt-3.5-turbo-instruct"},
			{Name: "max_tokens", DisplayName: "Max Tokens", Type: DataTypeNumber, Default: 512},
			{Name: "temperature", DisplayName: "Temperature", Type: DataTypeNumber, Default: 1.0},
			{Name: "base_url", DisplayName: "Base URL", Type: DataTypeText, Description: "e.g. http://localhost:8000/v1", Advanced: true},
			{Name: "api_key", DisplayName: "API Key", Type: DataTypeText, Description: "Uses the OPENAI_API_KEY variable if empty", Advanced: true},
		},
		Outputs: []PortSchema{
			{Name: "response", DisplayName: "Response", Type: DataTypeText},
			{Name: "usage", DisplayName: "Usage", Type: DataTypeData},
		},
	})}
}

// Build создаёт клиент.
// Self-hosted серверы часто не требуют ключа, поэтому при заданном
// base_url пустой ключ допустим.
func (c *CompletionLLM) Build(context.Context) error {
	apiKey := c.InputString("api_key")
	if apiKey == "" {
		apiKey = c.Env().String(envOpenAIAPIKey)
	}
	baseURL := c.InputString("base_url")

	if apiKey == "" && baseURL == "" {
		return fmt.Errorf("%w: set api_key, base_url or the %s variable", ErrMissingCredentials, envOpenAIAPIKey)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	c.client = openai.NewClient(opts...)
	return nil
}

// Run выполняет запрос completions.
func (c *CompletionLLM) Run(ctx context.Context) (map[string]any, error) {
	resp, err := c.client.Completions.New(ctx, c.params())
	if err != nil {
		return nil, fmt.Errorf("completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("completion: empty choices")
	}

	return map[string]any{
		"response": resp.Choices[0].Text,
		"usage": usageMap(
			int(resp.Usage.PromptTokens),
			int(resp.Usage.CompletionTokens),
			int(resp.Usage.TotalTokens),
		),
	}, nil
}

// SupportsStreaming — completions API поддерживает SSE.
func (c *CompletionLLM) SupportsStreaming() bool {
	return true
}

// Stream отдаёт текст по мере генерации.
func (c *CompletionLLM) Stream(ctx context.Context, emit func(string) error) (map[string]any, error) {
	stream := c.client.Completions.NewStreaming(ctx, c.params())
	defer stream.Close()

	var full strings.Builder
	for stream.Next() {
		evt := stream.Current()
		if len(evt.Choices) == 0 || evt.Choices[0].Text == "" {
			continue
		}
		token := evt.Choices[0].Text
		full.WriteString(token)
		if err := emit(token); err != nil {
			return nil, err
		}
	}
	if err := stream.Err(); err != nil {
		return nil, fmt.Errorf("completion stream: %w", err)
	}

	return map[string]any{
		"response": full.String(),
		"usage":    nil,
	}, nil
}

func (c *CompletionLLM) params() openai.CompletionNewParams {
	return openai.CompletionNewParams{
		Prompt:      openai.F[openai.CompletionNewParamsPromptUnion](shared.UnionString(c.InputString("prompt"))),
		Model:       openai.F(openai.CompletionNewParamsModel(c.InputString("model"))),
		MaxTokens:   openai.F(int64(c.InputInt("max_tokens"))),
		Temperature: openai.F(c.InputFloat("temperature")),
	}
}
