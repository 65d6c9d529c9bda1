package components

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Типы компонентов языковых моделей.
const (
	TypeOpenAILLM    = "openai_llm"
	TypeAnthropicLLM = "anthropic_llm"
)

const (
	defaultLLMTimeout   = 120 * time.Second
	defaultTemperature  = 0.7
	defaultMaxTokens    = 1000
	anthropicBaseURL    = "https://api.anthropic.com/v1"
	envOpenAIAPIKey     = "OPENAI_API_KEY"
	envAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	anthropicAPIVersion = "2023-06-01"
)

// chatProvider — параметры провайдера chat completions.
type chatProvider struct {
	name         string
	displayName  string
	description  string
	icon         string
	defaultModel string
	models       []any
	envKey       string
	baseURL      string
}

var (
	openAIProvider = chatProvider{
		name:         TypeOpenAILLM,
		displayName:  "OpenAI LLM",
		description:  "OpenAI language model for text generation",
		icon:         "MessageSquare",
		defaultModel: "gpt-4",
		models:       []any{"gpt-4", "gpt-4-turbo-preview", "gpt-3.5-turbo", "gpt-3.5-turbo-16k"},
		envKey:       envOpenAIAPIKey,
	}

	// Anthropic отдаёт OpenAI-совместимый chat completions endpoint,
	// поэтому оба провайдера работают через один клиент.
	anthropicProvider = chatProvider{
		name:         TypeAnthropicLLM,
		displayName:  "Anthropic Claude",
		description:  "Anthropic Claude language model for text generation",
		icon:         "Bot",
		defaultModel: "claude-3-opus-20240229",
		models:       []any{"claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307"},
		envKey:       envAnthropicAPIKey,
		baseURL:      anthropicBaseURL,
	}
)

// ChatLLM — языковая модель через chat completions API.
//
// API ключ берётся из входа api_key, а если он пуст —
// из контекста выполнения (OPENAI_API_KEY или ANTHROPIC_API_KEY).
//
// Outputs:
//
//	{
//	    "response": "...",
//	    "usage": {"prompt_tokens": 10, "completion_tokens": 20, "total_tokens": 30}
//	}
//
// Поддерживает streaming: чанки ответа отдаются по мере генерации.
type ChatLLM struct {
	Base
	provider chatProvider
	client   *openai.Client
}

// NewOpenAILLM создаёт компонент openai_llm.
func NewOpenAILLM() Component {
	return newChatLLM(openAIProvider)
}

// NewAnthropicLLM создаёт компонент anthropic_llm.
func NewAnthropicLLM() Component {
	return newChatLLM(anthropicProvider)
}

func newChatLLM(p chatProvider) *ChatLLM {
	return &ChatLLM{
		provider: p,
		Base: NewBase(Schema{
			Name:        p.name,
			DisplayName: p.displayName,
			Description: p.description,
			Category:    "Language Models",
			Icon:        p.icon,
			Inputs: []PortSchema{
				{Name: "prompt", DisplayName: "Prompt", Type: DataTypeText, Description: "Input prompt for the model", Required: true},
				{Name: "model", DisplayName: "Model", Type: DataTypeText, Description: "Model to use", Required: true, Default: p.defaultModel, Options: p.models},
				{Name: "temperature", DisplayName: "Temperature", Type: DataTypeNumber, Description: "Sampling temperature (0-2)", Default: defaultTemperature},
				{Name: "max_tokens", DisplayName: "Max Tokens", Type: DataTypeNumber, Description: "Maximum tokens to generate", Default: defaultMaxTokens, Advanced: true},
				{Name: "system_message", DisplayName: "System Message", Type: DataTypeText, Description: "System message to set context", Advanced: true},
				{Name: "api_key", DisplayName: "API Key", Type: DataTypeText, Description: "API key (uses the " + p.envKey + " variable if empty)", Advanced: true},
				{Name: "base_url", DisplayName: "Base URL", Type: DataTypeText, Description: "Override the API endpoint", Advanced: true},
			},
			Outputs: []PortSchema{
				{Name: "response", DisplayName: "Response", Type: DataTypeText, Description: "Generated text response"},
				{Name: "usage", DisplayName: "Usage", Type: DataTypeData, Description: "Token usage information"},
			},
		}),
	}
}

// Build создаёт клиент API.
func (c *ChatLLM) Build(context.Context) error {
	apiKey := c.InputString("api_key")
	if apiKey == "" {
		apiKey = c.Env().String(c.provider.envKey)
	}
	if apiKey == "" {
		return fmt.Errorf("%w: set api_key or the %s variable", ErrMissingCredentials, c.provider.envKey)
	}

	config := openai.DefaultConfig(apiKey)
	httpClient := &http.Client{Timeout: defaultLLMTimeout}

	baseURL := c.provider.baseURL
	if v := c.InputString("base_url"); v != "" {
		baseURL = v
	}
	if baseURL != "" {
		config.BaseURL = strings.TrimSuffix(baseURL, "/")
	}
	if c.provider.name == TypeAnthropicLLM {
		httpClient.Transport = &headerTransport{
			headers: map[string]string{
				"x-api-key":         apiKey,
				"anthropic-version": anthropicAPIVersion,
			},
		}
	}

	config.HTTPClient = httpClient
	c.client = openai.NewClientWithConfig(config)
	return nil
}

// Run выполняет запрос и возвращает полный ответ.
func (c *ChatLLM) Run(ctx context.Context) (map[string]any, error) {
	resp, err := c.client.CreateChatCompletion(ctx, c.request(false))
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("chat completion: empty choices")
	}

	return map[string]any{
		"response": resp.Choices[0].Message.Content,
		"usage":    usageMap(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.TotalTokens),
	}, nil
}

// SupportsStreaming — модель умеет отдавать ответ по частям.
func (c *ChatLLM) SupportsStreaming() bool {
	return true
}

// Stream отдаёт ответ чанками и возвращает собранный ответ.
func (c *ChatLLM) Stream(ctx context.Context, emit func(string) error) (map[string]any, error) {
	stream, err := c.client.CreateChatCompletionStream(ctx, c.request(true))
	if err != nil {
		return nil, fmt.Errorf("chat completion stream: %w", err)
	}
	defer stream.Close()

	var (
		full  strings.Builder
		usage any
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("chat completion stream: %w", err)
		}

		if chunk.Usage != nil {
			usage = usageMap(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens, chunk.Usage.TotalTokens)
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := emit(delta); err != nil {
			return nil, err
		}
	}

	return map[string]any{
		"response": full.String(),
		"usage":    usage,
	}, nil
}

// request собирает запрос из входов.
func (c *ChatLLM) request(stream bool) openai.ChatCompletionRequest {
	var messages []openai.ChatCompletionMessage
	if sys := c.InputString("system_message"); sys != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: sys,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: c.InputString("prompt"),
	})

	req := openai.ChatCompletionRequest{
		Model:       c.InputString("model"),
		Messages:    messages,
		Temperature: float32(c.InputFloat("temperature")),
		MaxTokens:   c.InputInt("max_tokens"),
		Stream:      stream,
	}
	if stream && c.provider.name == TypeOpenAILLM {
		req.StreamOptions = &openai.StreamOptions{IncludeUsage: true}
	}
	return req
}

// headerTransport добавляет заголовки ко всем запросам.
type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

// RoundTrip реализует http.RoundTripper.
func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		r.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(r)
}

func usageMap(prompt, completion, total int) map[string]any {
	return map[string]any{
		"prompt_tokens":     prompt,
		"completion_tokens": completion,
		"total_tokens":      total,
	}
}
