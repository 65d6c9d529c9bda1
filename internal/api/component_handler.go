package api

import (
	"net/http"

	"github.com/shaiso/Langweave/internal/components"
)

// ListComponents возвращает схемы зарегистрированных компонентов.
// GET /api/v1/components?category=...
func (h *Handler) ListComponents(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")

	schemas := h.registry.Schemas()
	if category != "" {
		schemas = h.registry.ByCategory()[category]
	}
	if schemas == nil {
		schemas = []components.Schema{}
	}

	List(w, schemas, len(schemas))
}

// ListCategories возвращает схемы, сгруппированные по категориям.
// GET /api/v1/components/categories
func (h *Handler) ListCategories(w http.ResponseWriter, _ *http.Request) {
	Success(w, h.registry.ByCategory())
}
