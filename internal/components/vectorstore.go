package components

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	chromago "github.com/amikos-tech/chroma-go"
	"github.com/amikos-tech/chroma-go/types"
	openai "github.com/sashabaranov/go-openai"
)

// TypeChromaDB — тип компонента векторного хранилища ChromaDB.
const TypeChromaDB = "chromadb"

const (
	chromaOpAdd    = "add"
	chromaOpSearch = "search"
	chromaOpDelete = "delete"

	defaultChromaURL        = "http://localhost:8000"
	defaultChromaCollection = "default"
	defaultChromaResults    = 5
	envChromaURL            = "CHROMA_URL"
)

// ChromaDB — добавление документов и семантический поиск в коллекции ChromaDB.
//
// Эмбеддинги считаются через OpenAI embeddings API. Ключ берётся
// из входа api_key или из переменной OPENAI_API_KEY контекста.
// Операция delete удаляет коллекцию целиком.
type ChromaDB struct {
	Base
	client     *chromago.Client
	collection *chromago.Collection
}

// NewChromaDB создаёт компонент chromadb.
func NewChromaDB() Component {
	return &ChromaDB{
		Base: NewBase(Schema{
			Name:        TypeChromaDB,
			DisplayName: "ChromaDB",
			Description: "Store and search embeddings using ChromaDB",
			Category:    "Vector Stores",
			Icon:        "Database",
			Inputs: []PortSchema{
				{Name: "operation", DisplayName: "Operation", Type: DataTypeText, Description: "Operation to perform", Required: true,
					Default: chromaOpSearch, Options: []any{chromaOpAdd, chromaOpSearch, chromaOpDelete}},
				{Name: "collection_name", DisplayName: "Collection Name", Type: DataTypeText, Description: "Name of the collection", Required: true, Default: defaultChromaCollection},
				{Name: "documents", DisplayName: "Documents", Type: DataTypeData, Description: "Documents to add (for add operation)"},
				{Name: "query", DisplayName: "Query", Type: DataTypeText, Description: "Query text (for search operation)"},
				{Name: "n_results", DisplayName: "Number of Results", Type: DataTypeNumber, Description: "Number of results to return", Default: defaultChromaResults},
				{Name: "embeddings_model", DisplayName: "Embeddings Model", Type: DataTypeText, Description: "Model to use for embeddings", Default: string(openai.SmallEmbedding3)},
				{Name: "chroma_url", DisplayName: "ChromaDB URL", Type: DataTypeText, Description: "ChromaDB server (uses the " + envChromaURL + " variable if empty)", Advanced: true},
				{Name: "api_key", DisplayName: "API Key", Type: DataTypeText, Description: "Embeddings API key (uses the " + envOpenAIAPIKey + " variable if empty)", Advanced: true},
				{Name: "base_url", DisplayName: "Embeddings Base URL", Type: DataTypeText, Description: "Override the embeddings API endpoint", Advanced: true},
			},
			Outputs: []PortSchema{
				{Name: "results", DisplayName: "Results", Type: DataTypeData, Description: "Operation results"},
				{Name: "status", DisplayName: "Status", Type: DataTypeText, Description: "Operation status"},
			},
		}),
	}
}

// Build подключается к серверу и открывает коллекцию, создавая её при отсутствии.
func (c *ChromaDB) Build(ctx context.Context) error {
	embedder, err := c.embedder()
	if err != nil {
		return err
	}

	chromaURL := c.InputString("chroma_url")
	if chromaURL == "" {
		chromaURL = c.Env().String(envChromaURL)
	}
	if chromaURL == "" {
		chromaURL = defaultChromaURL
	}

	c.client, err = chromago.NewClient(strings.TrimSuffix(chromaURL, "/"))
	if err != nil {
		return fmt.Errorf("chroma client: %w", err)
	}

	name := c.collectionName()
	c.collection, err = c.client.CreateCollection(ctx, name, nil, true, embedder, "")
	if err != nil {
		return fmt.Errorf("chroma collection %q: %w", name, err)
	}
	return nil
}

func (c *ChromaDB) embedder() (*openAIEmbedder, error) {
	apiKey := c.InputString("api_key")
	if apiKey == "" {
		apiKey = c.Env().String(envOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set api_key or the %s variable", ErrMissingCredentials, envOpenAIAPIKey)
	}

	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = &http.Client{Timeout: defaultLLMTimeout}
	if v := c.InputString("base_url"); v != "" {
		config.BaseURL = strings.TrimSuffix(v, "/")
	}

	model := c.InputString("embeddings_model")
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &openAIEmbedder{
		client: openai.NewClientWithConfig(config),
		model:  openai.EmbeddingModel(model),
	}, nil
}

func (c *ChromaDB) collectionName() string {
	if name := c.InputString("collection_name"); name != "" {
		return name
	}
	return defaultChromaCollection
}

// Run выполняет выбранную операцию.
func (c *ChromaDB) Run(ctx context.Context) (map[string]any, error) {
	switch op := c.InputString("operation"); op {
	case chromaOpAdd:
		return c.add(ctx)
	case "", chromaOpSearch:
		return c.search(ctx)
	case chromaOpDelete:
		return c.delete(ctx)
	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, op)
	}
}

func (c *ChromaDB) add(ctx context.Context) (map[string]any, error) {
	docs := c.InputList("documents")
	if len(docs) == 0 {
		return map[string]any{"results": []any{}, "status": "No documents provided"}, nil
	}

	texts, metadatas, ids, err := chromaDocuments(docs)
	if err != nil {
		return nil, err
	}

	if _, err := c.collection.Add(ctx, nil, metadatas, texts, ids); err != nil {
		return nil, fmt.Errorf("chroma add: %w", err)
	}

	return map[string]any{
		"results": map[string]any{"added": len(texts)},
		"status":  fmt.Sprintf("Added %d documents", len(texts)),
	}, nil
}

// chromaDocuments разбирает документы: либо все строки, либо все объекты
// вида {"text", "metadata", "id"}.
func chromaDocuments(docs []any) (texts []string, metadatas []map[string]any, ids []string, err error) {
	texts = make([]string, len(docs))
	metadatas = make([]map[string]any, len(docs))
	ids = make([]string, len(docs))

	_, allStrings := docs[0].(string)
	for i, doc := range docs {
		defaultID := fmt.Sprintf("doc_%d", i)

		if allStrings {
			s, ok := doc.(string)
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: documents must be a list of strings or objects", ErrInvalidInput)
			}
			texts[i] = s
			metadatas[i] = map[string]any{"index": i}
			ids[i] = defaultID
			continue
		}

		m, ok := doc.(map[string]any)
		if !ok {
			return nil, nil, nil, fmt.Errorf("%w: documents must be a list of strings or objects", ErrInvalidInput)
		}
		texts[i] = toString(m["text"])
		if meta, ok := m["metadata"].(map[string]any); ok && len(meta) > 0 {
			metadatas[i] = meta
		}
		ids[i] = defaultID
		if id := toString(m["id"]); id != "" {
			ids[i] = id
		}
	}
	return texts, metadatas, ids, nil
}

func (c *ChromaDB) search(ctx context.Context) (map[string]any, error) {
	query := c.InputString("query")
	if query == "" {
		return map[string]any{"results": []any{}, "status": "No query provided"}, nil
	}

	n := c.InputInt("n_results")
	if n < 1 {
		n = defaultChromaResults
	}

	res, err := c.collection.Query(ctx, []string{query}, int32(n), nil, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chroma query: %w", err)
	}

	results := make([]any, 0)
	if len(res.Documents) > 0 {
		for i, doc := range res.Documents[0] {
			item := map[string]any{
				"document": doc,
				"metadata": map[string]any{},
				"distance": nil,
				"id":       nil,
			}
			if len(res.Metadatas) > 0 && i < len(res.Metadatas[0]) && res.Metadatas[0][i] != nil {
				item["metadata"] = res.Metadatas[0][i]
			}
			if len(res.Distances) > 0 && i < len(res.Distances[0]) {
				item["distance"] = float64(res.Distances[0][i])
			}
			if len(res.Ids) > 0 && i < len(res.Ids[0]) {
				item["id"] = res.Ids[0][i]
			}
			results = append(results, item)
		}
	}

	return map[string]any{
		"results": results,
		"status":  fmt.Sprintf("Found %d results", len(results)),
	}, nil
}

func (c *ChromaDB) delete(ctx context.Context) (map[string]any, error) {
	name := c.collectionName()
	if _, err := c.client.DeleteCollection(ctx, name); err != nil {
		return nil, fmt.Errorf("chroma delete %q: %w", name, err)
	}
	return map[string]any{
		"results": map[string]any{"deleted": name},
		"status":  "Deleted collection: " + name,
	}, nil
}

// openAIEmbedder — функция эмбеддингов ChromaDB поверх OpenAI embeddings API.
type openAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

var _ types.EmbeddingFunction = (*openAIEmbedder)(nil)

// EmbedDocuments возвращает эмбеддинги в порядке входных текстов.
func (e *openAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([]*types.Embedding, error) {
	if len(texts) == 0 {
		return types.NewEmbeddingsFromFloat32(nil), nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embeddings: got %d vectors for %d texts", len(resp.Data), len(texts))
	}

	sort.Slice(resp.Data, func(i, j int) bool { return resp.Data[i].Index < resp.Data[j].Index })
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return types.NewEmbeddingsFromFloat32(vectors), nil
}

// EmbedQuery возвращает эмбеддинг одного текста.
func (e *openAIEmbedder) EmbedQuery(ctx context.Context, text string) (*types.Embedding, error) {
	embeddings, err := e.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

// EmbedRecords заполняет эмбеддинги записей.
func (e *openAIEmbedder) EmbedRecords(ctx context.Context, records []*types.Record, force bool) error {
	return types.EmbedRecordsDefaultImpl(e, ctx, records, force)
}
