package components

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TypeWebSearch — тип компонента веб-поиска.
const TypeWebSearch = "web_search"

const (
	duckDuckGoEndpoint  = "https://api.duckduckgo.com/"
	searchEngineDDG     = "duckduckgo"
	defaultSearchLimit  = 5
	defaultSearchClient = 15 * time.Second
)

// WebSearch — поиск через DuckDuckGo Instant Answer API.
//
// Ошибки поиска не прерывают flow: они возвращаются в summary,
// а results остаётся пустым.
type WebSearch struct {
	Base
	endpoint string
	client   *http.Client
}

// NewWebSearch создаёт компонент web_search.
func NewWebSearch() Component {
	return newWebSearch(duckDuckGoEndpoint)
}

func newWebSearch(endpoint string) *WebSearch {
	return &WebSearch{
		endpoint: endpoint,
		Base: NewBase(Schema{
			Name:        TypeWebSearch,
			DisplayName: "Web Search",
			Description: "Search the web for information",
			Category:    "Tools",
			Icon:        "Search",
			Inputs: []PortSchema{
				{Name: "query", DisplayName: "Query", Type: DataTypeText, Description: "Search query", Required: true},
				{Name: "num_results", DisplayName: "Number of Results", Type: DataTypeNumber, Default: defaultSearchLimit},
				{Name: "search_engine", DisplayName: "Search Engine", Type: DataTypeText, Default: searchEngineDDG,
					Options: []any{searchEngineDDG, "google", "bing"}},
				{Name: "api_key", DisplayName: "API Key", Type: DataTypeText, Description: "API key for search engine (if required)", Advanced: true},
			},
			Outputs: []PortSchema{
				{Name: "results", DisplayName: "Results", Type: DataTypeData, Description: "Search results"},
				{Name: "summary", DisplayName: "Summary", Type: DataTypeText, Description: "Summary of search results"},
			},
		}),
	}
}

// Build создаёт HTTP клиент.
func (c *WebSearch) Build(context.Context) error {
	c.client = &http.Client{Timeout: defaultSearchClient}
	return nil
}

// Run выполняет поиск.
func (c *WebSearch) Run(ctx context.Context) (map[string]any, error) {
	query := c.InputString("query")
	limit := c.InputInt("num_results")
	engine := c.InputString("search_engine")

	if query == "" {
		return map[string]any{"results": []any{}, "summary": "No query provided"}, nil
	}

	if engine != searchEngineDDG {
		return map[string]any{
			"results": []any{},
			"summary": fmt.Sprintf("%s search not implemented yet", engine),
		}, nil
	}

	results, err := c.searchDuckDuckGo(ctx, query, limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return map[string]any{
			"results": []any{},
			"summary": fmt.Sprintf("Search error: %v", err),
		}, nil
	}

	return map[string]any{
		"results": results,
		"summary": summarize(query, results),
	}, nil
}

// ddgResponse — ответ DuckDuckGo Instant Answer API.
type ddgResponse struct {
	Heading       string `json:"Heading"`
	Abstract      string `json:"Abstract"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (c *WebSearch) searchDuckDuckGo(ctx context.Context, query string, limit int) ([]any, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("no_html", "1")
	params.Set("skip_disambig", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: HTTP %d", resp.StatusCode)
	}

	var data ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("duckduckgo: decode: %w", err)
	}

	results := make([]any, 0, limit)
	if data.Abstract != "" {
		heading := data.Heading
		if heading == "" {
			heading = "DuckDuckGo Result"
		}
		results = append(results, map[string]any{
			"title":   heading,
			"snippet": data.Abstract,
			"url":     data.AbstractURL,
			"source":  "DuckDuckGo Abstract",
		})
	}

	for _, topic := range data.RelatedTopics {
		if len(results) >= limit {
			break
		}
		if topic.Text == "" {
			continue
		}
		title, _, _ := strings.Cut(topic.Text, " - ")
		results = append(results, map[string]any{
			"title":   title,
			"snippet": topic.Text,
			"url":     topic.FirstURL,
			"source":  "DuckDuckGo Related",
		})
	}

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// summarize перечисляет первые три заголовка.
func summarize(query string, results []any) string {
	if len(results) == 0 {
		return fmt.Sprintf("No results found for '%s'", query)
	}

	var b strings.Builder
	b.WriteString("Found " + strconv.Itoa(len(results)) + " results for '" + query + "':\n")
	for i, r := range results[:min(3, len(results))] {
		title, _ := r.(map[string]any)["title"].(string)
		if title == "" {
			title = "No title"
		}
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	return b.String()
}
