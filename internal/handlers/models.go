package handlers

import (
	"net/http"

	"qwen-gateway/internal/catalog"
	"qwen-gateway/internal/contextutil"
	"qwen-gateway/internal/gateway"
)

// ModelsHandler lists the model options of a category.
type ModelsHandler struct {
	service gateway.Service
}

// NewModelsHandler creates a new ModelsHandler.
func NewModelsHandler(service gateway.Service) *ModelsHandler {
	return &ModelsHandler{service: service}
}

// ModelsResponse represents the model options of one category.
//
// swagger:model ModelsResponse
type ModelsResponse struct {
	Category catalog.Category `json:"category"`
	// Known is false for a category the catalog does not define.
	Known  bool                  `json:"known"`
	Models []catalog.ModelOption `json:"models"`
}

// ServeHTTP handles GET /api/models?category=<tag>. Unknown categories
// yield an empty list with known=false rather than an error.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if r.Method != http.MethodGet {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	category := catalog.Category(r.URL.Query().Get("category"))
	if category == "" {
		category = catalog.DefaultCategory
	}

	writeJSON(ctx, w, http.StatusOK, ModelsResponse{
		Category: category,
		Known:    catalog.Valid(category),
		Models:   h.service.ListModelNames(category),
	})
}

// CategoriesResponse lists the selectable categories.
//
// swagger:model CategoriesResponse
type CategoriesResponse struct {
	Default    catalog.Category       `json:"default"`
	Categories []catalog.CategoryInfo `json:"categories"`
}

// Categories handles GET /api/categories.
func Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, CategoriesResponse{
		Default:    catalog.DefaultCategory,
		Categories: catalog.Categories(),
	})
}
