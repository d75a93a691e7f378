package gateway

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_provider_client.go -package=mocks qwen-gateway/internal/gateway ProviderClient
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_service.go -package=mocks qwen-gateway/internal/gateway Service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"

	"qwen-gateway/internal/catalog"
	"qwen-gateway/internal/contextutil"
	"qwen-gateway/internal/qwen"
	"qwen-gateway/internal/storage"
)

// ProviderClient sends one generation request to the model provider.
// This interface is defined from the gateway's perspective (consumer-first).
type ProviderClient interface {
	Generate(ctx context.Context, apiKey string, req qwen.GenerationRequest) (*qwen.GenerationResponse, error)
}

// Credentials are supplied by an external secret store and never persisted.
type Credentials struct {
	APIKey    string
	APISecret string
}

// CredentialSource looks up credentials. It may return nil credentials.
type CredentialSource interface {
	Credentials(ctx context.Context) (*Credentials, error)
}

// StaticCredentials is a CredentialSource backed by fixed values.
type StaticCredentials Credentials

// Credentials returns a copy of the fixed values.
func (s StaticCredentials) Credentials(context.Context) (*Credentials, error) {
	c := Credentials(s)
	return &c, nil
}

// ResultStore records item outcomes for later inspection.
type ResultStore interface {
	Insert(ctx context.Context, rec *storage.ResultRecord) error
}

// WorkItem is one unit of upstream input.
type WorkItem struct {
	// ModelCategory is informational; empty means catalog.DefaultCategory.
	ModelCategory catalog.Category
	// ModelName is sent to the provider as-is.
	ModelName string
	// Messages is the serialized JSON chat history.
	Messages string
	// Parameters is the raw additional-parameters object. Only temperature,
	// top_p and max_tokens are forwarded, with their values untouched.
	Parameters json.RawMessage
}

// Service provides the chat completion gateway operations.
type Service interface {
	// Execute processes items in order and returns exactly one result per item.
	Execute(ctx context.Context, items []WorkItem) []ItemResult
	// ListModelNames returns the options registered for category.
	ListModelNames(category catalog.Category) []catalog.ModelOption
}

// Gateway implements Service.
type Gateway struct {
	client      ProviderClient
	credentials CredentialSource
	store       ResultStore
}

// New creates a Gateway. store may be nil to disable result recording.
func New(client ProviderClient, credentials CredentialSource, store ResultStore) *Gateway {
	return &Gateway{
		client:      client,
		credentials: credentials,
		store:       store,
	}
}

// ListModelNames returns the options registered for category, or an empty
// slice for an unknown category.
func (g *Gateway) ListModelNames(category catalog.Category) []catalog.ModelOption {
	return catalog.Options(category)
}

// Execute processes items strictly in order. Failures are returned as data;
// one item's failure never stops the others.
func (g *Gateway) Execute(ctx context.Context, items []WorkItem) []ItemResult {
	logger := contextutil.LoggerFromContext(ctx)

	executionID := contextutil.ExecutionIDFromContext(ctx)
	if executionID == "" {
		executionID = uuid.New().String()
		ctx = contextutil.WithExecutionID(ctx, executionID)
	}
	logger = logger.With("execution_id", executionID)

	results := make([]ItemResult, len(items))
	for i, item := range items {
		results[i] = ItemResult{Index: i, Result: g.processItem(ctx, i, item)}
		g.record(ctx, logger, executionID, item, results[i])
	}

	succeeded := 0
	for _, r := range results {
		if r.OK() {
			succeeded++
		}
	}
	logger.InfoContext(ctx, "execution finished", "items", len(items), "succeeded", succeeded, "failed", len(items)-succeeded)

	return results
}

// processItem runs one item inside its own recover boundary.
func (g *Gateway) processItem(ctx context.Context, index int, item WorkItem) (result ChatResult) {
	logger := contextutil.LoggerFromContext(ctx).With("item_index", index, "model", item.ModelName)

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "panic while processing item", "panic", r)
			result = classify(&panicError{value: r, stack: debug.Stack()})
		}
	}()

	resp, err := g.call(ctx, index, item)
	if err != nil {
		failure := classify(err)
		logger.WarnContext(ctx, "item failed", "kind", failure.Kind, "error", failure.Message)
		return failure
	}

	logger.DebugContext(ctx, "item succeeded", "request_id", resp.RequestID)
	return &Success{
		RawResponse: resp.Raw,
		OutputText:  resp.OutputText(),
		Usage:       resp.Usage,
		RequestID:   resp.RequestID,
	}
}

func (g *Gateway) call(ctx context.Context, index int, item WorkItem) (*qwen.GenerationResponse, error) {
	apiKey, err := g.apiKey(ctx)
	if err != nil {
		return nil, err
	}

	messages, err := parseMessages(index, item.Messages)
	if err != nil {
		return nil, err
	}

	params, err := qwen.ParseParameters(item.Parameters)
	if err != nil {
		return nil, &ValidationError{Field: fieldParameters, ItemIndex: index, Message: err.Error()}
	}

	category := item.ModelCategory
	if category == "" {
		category = catalog.DefaultCategory
	}
	contextutil.LoggerFromContext(ctx).DebugContext(ctx, "sending generation request",
		"item_index", index, "category", category, "model", item.ModelName, "messages", len(messages))

	return g.client.Generate(ctx, apiKey, buildRequest(item.ModelName, messages, params))
}

func (g *Gateway) apiKey(ctx context.Context) (string, error) {
	if g.credentials == nil {
		return "", &ConfigurationError{Err: ErrMissingAPIKey}
	}
	creds, err := g.credentials.Credentials(ctx)
	if err != nil {
		return "", &ConfigurationError{Err: fmt.Errorf("credential lookup failed: %w", err)}
	}
	if creds == nil || creds.APIKey == "" {
		return "", &ConfigurationError{Err: ErrMissingAPIKey}
	}
	return creds.APIKey, nil
}

// parseMessages validates the serialized history and returns its elements verbatim.
func parseMessages(index int, raw string) ([]json.RawMessage, error) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, &ValidationError{Field: fieldMessages, ItemIndex: index, Message: err.Error()}
	}

	list, ok := decoded.([]any)
	if !ok {
		return nil, &ValidationError{Field: fieldMessages, ItemIndex: index, Message: "Messages input must be a valid JSON array."}
	}

	for _, el := range list {
		msg, ok := el.(map[string]any)
		if !ok || !truthy(msg["role"]) || !truthy(msg["content"]) {
			return nil, &ValidationError{Field: fieldMessages, ItemIndex: index, Message: "Each message must be an object with role and content."}
		}
	}

	var messages []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, &ValidationError{Field: fieldMessages, ItemIndex: index, Message: err.Error()}
	}
	return messages, nil
}

// truthy mirrors JSON truthiness: null, false, "" and 0 are false;
// objects and arrays are true even when empty.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0
	default:
		return true
	}
}

func buildRequest(model string, messages []json.RawMessage, params qwen.GenerationParameters) qwen.GenerationRequest {
	req := qwen.GenerationRequest{
		Model: model,
		Input: qwen.Input{Messages: messages},
	}
	if !params.IsEmpty() {
		req.Parameters = &params
	}
	return req
}

// record stores the outcome. Store failures are logged and never alter results.
func (g *Gateway) record(ctx context.Context, logger *slog.Logger, executionID string, item WorkItem, res ItemResult) {
	if g.store == nil {
		return
	}

	category := item.ModelCategory
	if category == "" {
		category = catalog.DefaultCategory
	}
	rec := &storage.ResultRecord{
		ExecutionID:   executionID,
		ItemIndex:     res.Index,
		ModelCategory: string(category),
		ModelName:     item.ModelName,
	}
	switch r := res.Result.(type) {
	case *Success:
		rec.Success = true
		rec.OutputText = r.OutputText
		rec.RequestID = r.RequestID
		if usage, ok := qwen.ParseUsage(r.Usage); ok {
			rec.InputTokens = usage.InputTokens
			rec.OutputTokens = usage.OutputTokens
			rec.TotalTokens = usage.TotalTokens
		}
	case *Failure:
		rec.ErrorKind = string(r.Kind)
		rec.ErrorMessage = r.Message
	}

	if err := g.store.Insert(ctx, rec); err != nil {
		logger.WarnContext(ctx, "failed to record item result", "item_index", res.Index, "error", err)
	}
}
