package components

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chromaServer — in-memory ChromaDB REST API (v0.4.14, без tenant'ов)
// и OpenAI embeddings endpoint на одном сервере.
type chromaServer struct {
	*httptest.Server

	mu          sync.Mutex
	collections map[string]string // name → id
	docs        map[string][]chromaDoc
	embedded    [][]string
	deleted     []string
}

type chromaDoc struct {
	ID       string
	Text     string
	Metadata map[string]any
}

func newChromaServer(t *testing.T) *chromaServer {
	t.Helper()

	s := &chromaServer{
		collections: make(map[string]string),
		docs:        make(map[string][]chromaDoc),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *chromaServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	path := r.URL.Path

	switch {
	case path == "/v1/embeddings":
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.embedded = append(s.embedded, req.Input)
		data := make([]map[string]any, len(req.Input))
		for i, text := range req.Input {
			data[i] = map[string]any{"object": "embedding", "index": i, "embedding": []float32{float32(len(text)), 1}}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": "text-embedding-3-small"})

	case path == "/api/v1/version":
		fmt.Fprint(w, `"0.4.14"`)

	case path == "/api/v1/collections" && r.Method == http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		id, ok := s.collections[req.Name]
		if !ok {
			id = "col-" + req.Name
			s.collections[req.Name] = id
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"name": req.Name, "id": id})

	case strings.HasSuffix(path, "/add"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/v1/collections/"), "/add")
		var req struct {
			IDs       []string         `json:"ids"`
			Documents []string         `json:"documents"`
			Metadatas []map[string]any `json:"metadatas"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for i, docID := range req.IDs {
			doc := chromaDoc{ID: docID, Text: req.Documents[i]}
			if i < len(req.Metadatas) {
				doc.Metadata = req.Metadatas[i]
			}
			s.docs[id] = append(s.docs[id], doc)
		}
		fmt.Fprint(w, `true`)

	case strings.HasSuffix(path, "/query"):
		id := strings.TrimSuffix(strings.TrimPrefix(path, "/api/v1/collections/"), "/query")
		var req struct {
			NResults int `json:"n_results"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var (
			ids, docs []string
			metas     []map[string]any
			dists     []float32
		)
		for i, doc := range s.docs[id] {
			if i == req.NResults {
				break
			}
			ids = append(ids, doc.ID)
			docs = append(docs, doc.Text)
			metas = append(metas, doc.Metadata)
			dists = append(dists, float32(i)/2)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ids":       [][]string{ids},
			"documents": [][]string{docs},
			"metadatas": [][]map[string]any{metas},
			"distances": [][]float32{dists},
		})

	case strings.HasPrefix(path, "/api/v1/collections/"):
		name := strings.TrimPrefix(path, "/api/v1/collections/")
		id, ok := s.collections[name]
		if !ok {
			http.Error(w, `{"error":"collection not found"}`, http.StatusNotFound)
			return
		}
		if r.Method == http.MethodDelete {
			delete(s.collections, name)
			delete(s.docs, id)
			s.deleted = append(s.deleted, name)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"name": name, "id": id})

	default:
		http.NotFound(w, r)
	}
}

func (s *chromaServer) run(t *testing.T, inputs map[string]any) (map[string]any, error) {
	t.Helper()

	in := map[string]any{
		"chroma_url": s.URL,
		"base_url":   s.URL + "/v1",
	}
	for k, v := range inputs {
		in[k] = v
	}
	return Execute(context.Background(), NewChromaDB(), in, NewEnv(map[string]any{"OPENAI_API_KEY": "sk-env"}))
}

func TestChromaDB_AddAndSearch(t *testing.T) {
	s := newChromaServer(t)

	out, err := s.run(t, map[string]any{
		"operation":       "add",
		"collection_name": "notes",
		"documents":       []any{"alpha", "beta gamma"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"added": 2}, out["results"])
	assert.Equal(t, "Added 2 documents", out["status"])

	out, err = s.run(t, map[string]any{
		"operation":       "search",
		"collection_name": "notes",
		"query":           "alp",
		"n_results":       1,
	})
	require.NoError(t, err)
	assert.Equal(t, "Found 1 results", out["status"])
	assert.Equal(t, []any{map[string]any{
		"document": "alpha",
		"metadata": map[string]any{"index": float64(0)},
		"distance": float64(0),
		"id":       "doc_0",
	}}, out["results"])

	assert.Equal(t, [][]string{{"alpha", "beta gamma"}, {"alp"}}, s.embedded)
}

func TestChromaDB_AddObjects(t *testing.T) {
	s := newChromaServer(t)

	_, err := s.run(t, map[string]any{
		"operation": "add",
		"documents": []any{
			map[string]any{"text": "first", "id": "a-1", "metadata": map[string]any{"source": "wiki"}},
			map[string]any{"text": "second"},
		},
	})
	require.NoError(t, err)

	docs := s.docs["col-default"]
	require.Len(t, docs, 2)
	assert.Equal(t, chromaDoc{ID: "a-1", Text: "first", Metadata: map[string]any{"source": "wiki"}}, docs[0])
	assert.Equal(t, chromaDoc{ID: "doc_1", Text: "second"}, docs[1])
}

func TestChromaDB_Delete(t *testing.T) {
	s := newChromaServer(t)

	out, err := s.run(t, map[string]any{"operation": "delete", "collection_name": "old"})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"deleted": "old"}, out["results"])
	assert.Equal(t, "Deleted collection: old", out["status"])
	assert.Equal(t, []string{"old"}, s.deleted)
	assert.NotContains(t, s.collections, "old")
}

func TestChromaDB_EmptyInputs(t *testing.T) {
	s := newChromaServer(t)

	out, err := s.run(t, map[string]any{"operation": "add"})
	require.NoError(t, err)
	assert.Equal(t, "No documents provided", out["status"])
	assert.Equal(t, []any{}, out["results"])

	out, err = s.run(t, map[string]any{"operation": "search"})
	require.NoError(t, err)
	assert.Equal(t, "No query provided", out["status"])
	assert.Empty(t, s.embedded)
}

func TestChromaDB_InvalidInputs(t *testing.T) {
	s := newChromaServer(t)

	_, err := s.run(t, map[string]any{"operation": "upsert"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = s.run(t, map[string]any{
		"operation": "add",
		"documents": []any{"text", map[string]any{"text": "mixed"}},
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChromaDB_MissingAPIKey(t *testing.T) {
	s := newChromaServer(t)

	_, err := Execute(context.Background(), NewChromaDB(), map[string]any{
		"operation":  "search",
		"chroma_url": s.URL,
	}, nil)
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
