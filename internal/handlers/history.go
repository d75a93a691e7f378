package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"qwen-gateway/internal/contextutil"
	"qwen-gateway/internal/storage"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// ResultReader reads recorded item results.
type ResultReader interface {
	ListRecent(ctx context.Context, limit int) ([]storage.ResultRecord, error)
	ListByExecution(ctx context.Context, executionID string) ([]storage.ResultRecord, error)
}

// HistoryHandler serves the execution history.
type HistoryHandler struct {
	results ResultReader
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(results ResultReader) *HistoryHandler {
	return &HistoryHandler{results: results}
}

// HistoryEntry is one recorded item result.
//
// swagger:model HistoryEntry
type HistoryEntry struct {
	ID            string    `json:"id"`
	ExecutionID   string    `json:"executionId"`
	Index         int       `json:"index"`
	ModelCategory string    `json:"modelCategory"`
	ModelName     string    `json:"modelName"`
	Success       bool      `json:"success"`
	Output        string    `json:"output,omitempty"`
	RequestID     string    `json:"requestId,omitempty"`
	ErrorKind     string    `json:"errorKind,omitempty"`
	ErrorMessage  string    `json:"errorMessage,omitempty"`
	InputTokens   int       `json:"inputTokens"`
	OutputTokens  int       `json:"outputTokens"`
	TotalTokens   int       `json:"totalTokens"`
	CreatedAt     time.Time `json:"createdAt"`
}

// HistoryResponse wraps a list of entries.
//
// swagger:model HistoryResponse
type HistoryResponse struct {
	Entries []HistoryEntry `json:"entries"`
}

// ListRecent handles GET /api/executions?limit=N.
func (h *HistoryHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.results.ListRecent(ctx, limit)
	if err != nil {
		logger.ErrorContext(ctx, "failed to list recent results", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	writeJSON(ctx, w, http.StatusOK, HistoryResponse{Entries: toEntries(records)})
}

// GetExecution handles GET /api/executions/{id}.
func (h *HistoryHandler) GetExecution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	id := chi.URLParam(r, "id")
	records, err := h.results.ListByExecution(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Execution not found")
		return
	}
	if err != nil {
		logger.ErrorContext(ctx, "failed to read execution", "execution_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read history")
		return
	}

	writeJSON(ctx, w, http.StatusOK, HistoryResponse{Entries: toEntries(records)})
}

func toEntries(records []storage.ResultRecord) []HistoryEntry {
	entries := make([]HistoryEntry, len(records))
	for i, rec := range records {
		entries[i] = HistoryEntry{
			ID:            rec.ID,
			ExecutionID:   rec.ExecutionID,
			Index:         rec.ItemIndex,
			ModelCategory: rec.ModelCategory,
			ModelName:     rec.ModelName,
			Success:       rec.Success,
			Output:        rec.OutputText,
			RequestID:     rec.RequestID,
			ErrorKind:     rec.ErrorKind,
			ErrorMessage:  rec.ErrorMessage,
			InputTokens:   rec.InputTokens,
			OutputTokens:  rec.OutputTokens,
			TotalTokens:   rec.TotalTokens,
			CreatedAt:     rec.CreatedAt,
		}
	}
	return entries
}
