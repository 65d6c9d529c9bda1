package components

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shaiso/Langweave/internal/engine"
)

// TypeHTTPRequest — тип компонента HTTP запроса.
const TypeHTTPRequest = "http_request"

const (
	defaultHTTPTimeout = 30 * time.Second
	maxResponseBody    = 10 * 1024 * 1024 // 10 MB
)

// HTTPRequest — HTTP запрос к внешнему API.
//
// Конфигурация:
//
//	{
//	    "method": "POST",
//	    "url": "https://api.example.com/data",
//	    "headers": {"Authorization": "Bearer ..."},
//	    "body": {"data": "..."},
//	    "follow_redirects": true,
//	    "validate_ssl": true,
//	    "timeout_sec": 30
//	}
//
// Outputs:
//
//	{
//	    "status_code": 200,
//	    "headers": {"Content-Type": "application/json", ...},
//	    "body": {...}  // parsed JSON or string
//	}
//
// url, значения headers и строки внутри body рендерятся как Go templates:
// {{ .Env.API_TOKEN }}, {{ .Inputs.body }}.
//
// Ответ с кодом 4xx/5xx не считается ошибкой: решение принимает flow.
type HTTPRequest struct {
	Base
	client   *http.Client
	method   string
	url      string
	headers  map[string]string
	tmplData *engine.TemplateData
}

// NewHTTPRequest создаёт компонент http_request.
func NewHTTPRequest() Component {
	return &HTTPRequest{Base: NewBase(Schema{
		Name:        TypeHTTPRequest,
		DisplayName: "HTTP Request",
		Description: "Call an external HTTP API",
		Category:    "Tools",
		Icon:        "Globe",
		Inputs: []PortSchema{
			{Name: "url", DisplayName: "URL", Type: DataTypeText, Required: true},
			{Name: "method", DisplayName: "Method", Type: DataTypeText, Default: http.MethodGet,
				Options: []any{"GET", "POST", "PUT", "PATCH", "DELETE"}},
			{Name: "headers", DisplayName: "Headers", Type: DataTypeData},
			{Name: "body", DisplayName: "Body", Type: DataTypeAny},
			{Name: "follow_redirects", DisplayName: "Follow Redirects", Type: DataTypeBoolean, Default: true, Advanced: true},
			{Name: "validate_ssl", DisplayName: "Validate SSL", Type: DataTypeBoolean, Default: true, Advanced: true},
			{Name: "timeout_sec", DisplayName: "Timeout (s)", Type: DataTypeNumber, Advanced: true},
		},
		Outputs: []PortSchema{
			{Name: "status_code", DisplayName: "Status Code", Type: DataTypeNumber},
			{Name: "headers", DisplayName: "Headers", Type: DataTypeData},
			{Name: "body", DisplayName: "Body", Type: DataTypeAny},
		},
	})}
}

// Build разбирает настройки и создаёт HTTP клиент.
func (c *HTTPRequest) Build(context.Context) error {
	c.tmplData = engine.NewTemplateData(nil, c.Inputs(), c.Env().Snapshot())

	url, err := engine.Render(c.InputString("url"), c.tmplData)
	if err != nil {
		return fmt.Errorf("render url: %w", err)
	}
	c.url = url
	if c.url == "" {
		return fmt.Errorf("%w: url is required", ErrInvalidInput)
	}

	c.method = strings.ToUpper(c.InputString("method"))
	if c.method == "" {
		c.method = http.MethodGet
	}

	c.headers = make(map[string]string)
	for key, value := range c.InputStringMap("headers") {
		rendered, err := engine.Render(value, c.tmplData)
		if err != nil {
			return fmt.Errorf("render header %s: %w", key, err)
		}
		c.headers[key] = rendered
	}

	timeout := defaultHTTPTimeout
	if sec := c.InputInt("timeout_sec"); sec > 0 {
		timeout = time.Duration(sec) * time.Second
	}

	var checkRedirect func(*http.Request, []*http.Request) error
	if !c.InputBool("follow_redirects", true) {
		checkRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	c.client = &http.Client{
		Timeout:       timeout,
		CheckRedirect: checkRedirect,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: !c.InputBool("validate_ssl", true),
			},
		},
	}
	return nil
}

// Run выполняет запрос.
func (c *HTTPRequest) Run(ctx context.Context) (map[string]any, error) {
	req, err := c.buildRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	return parseHTTPResponse(resp)
}

// buildRequest создаёт HTTP запрос.
func (c *HTTPRequest) buildRequest(ctx context.Context) (*http.Request, error) {
	var bodyReader io.Reader

	body, _ := c.Input("body")
	body, err := engine.RenderValue(body, c.tmplData)
	if err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}
	if body != nil {
		bodyBytes, err := serializeBody(body)
		if err != nil {
			return nil, fmt.Errorf("serialize body: %w", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)

		if _, ok := c.headers["Content-Type"]; !ok {
			c.headers["Content-Type"] = "application/json"
		}
	}

	req, err := http.NewRequestWithContext(ctx, c.method, c.url, bodyReader)
	if err != nil {
		return nil, err
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

// serializeBody сериализует body в bytes.
func serializeBody(body any) ([]byte, error) {
	switch v := body.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(v)
	}
}

// parseHTTPResponse превращает ответ в выходы узла.
func parseHTTPResponse(resp *http.Response) (map[string]any, error) {
	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var body any
	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(bodyBytes, &body); err != nil {
			body = string(bodyBytes)
		}
	} else {
		body = string(bodyBytes)
	}

	headers := make(map[string]any, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return map[string]any{
		"status_code": resp.StatusCode,
		"headers":     headers,
		"body":        body,
	}, nil
}
