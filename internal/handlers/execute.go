package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"qwen-gateway/internal/catalog"
	"qwen-gateway/internal/contextutil"
	"qwen-gateway/internal/gateway"
)

const maxExecuteBodyBytes = 10 << 20

// ExecuteHandler handles HTTP requests that run a batch of work items.
type ExecuteHandler struct {
	service gateway.Service
}

// NewExecuteHandler creates a new ExecuteHandler.
func NewExecuteHandler(service gateway.Service) *ExecuteHandler {
	return &ExecuteHandler{service: service}
}

// ExecuteRequest represents the HTTP request payload for a batch execution.
//
// swagger:model ExecuteRequest
type ExecuteRequest struct {
	Items []ExecuteItem `json:"items"`
}

// ExecuteItem is one work item. Messages may be a JSON string holding the
// serialized history, or the history array inline. AdditionalParameters is
// passed on untouched; a malformed value fails only its own item.
type ExecuteItem struct {
	ModelCategory        catalog.Category `json:"modelCategory"`
	ModelName            string           `json:"modelName"`
	Messages             json.RawMessage  `json:"messages"`
	AdditionalParameters json.RawMessage  `json:"additionalParameters"`
}

// ExecuteResponse represents the HTTP response payload for a batch execution.
// Results have the same length and order as the request items.
//
// swagger:model ExecuteResponse
type ExecuteResponse struct {
	ExecutionID string               `json:"executionId"`
	Results     []gateway.ItemResult `json:"results"`
}

// ServeHTTP handles HTTP requests for batch execution.
//
// swagger:route POST /api/execute executeBatch
//
// Runs every item against the Qwen API, in order. Item failures are reported
// inside the results; the status is 200 whenever the envelope is valid.
//
// responses:
//
//	'200':
//	  description: One result per item
//	  schema:
//	    "$ref": "#/definitions/ExecuteResponse"
//	'400':
//	  description: Malformed request envelope
//	  schema:
//	    "$ref": "#/definitions/ErrorResponse"
func (h *ExecuteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req ExecuteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxExecuteBodyBytes)).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	items := make([]gateway.WorkItem, len(req.Items))
	for i, it := range req.Items {
		messages, err := messagesText(it.Messages)
		if err != nil {
			logger.WarnContext(ctx, "invalid messages field", "item_index", i, "error", err)
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid messages field for item %d", i))
			return
		}
		items[i] = gateway.WorkItem{
			ModelCategory: it.ModelCategory,
			ModelName:     it.ModelName,
			Messages:      messages,
			Parameters:    it.AdditionalParameters,
		}
	}

	executionID := uuid.New().String()
	ctx = contextutil.WithExecutionID(ctx, executionID)
	ctx = contextutil.WithLogger(ctx, logger.With("execution_id", executionID))

	results := h.service.Execute(ctx, items)

	w.Header().Set("X-Execution-ID", executionID)
	writeJSON(ctx, w, http.StatusOK, ExecuteResponse{
		ExecutionID: executionID,
		Results:     results,
	})
}

// messagesText returns the serialized history the gateway validates.
// An absent field defaults to an empty history.
func messagesText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "[]", nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	return string(trimmed), nil
}
