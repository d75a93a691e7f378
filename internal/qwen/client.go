package qwen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// DefaultEndpoint is the DashScope text-generation endpoint.
	DefaultEndpoint = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"
	// ClientIdentifier is sent in the X-DashScope-Client header.
	ClientIdentifier = "n8n-node-alibaba-qwen/1.0.7"
	// DefaultTimeout bounds a single generation call.
	DefaultTimeout = 60 * time.Second
)

// Client is a client for the DashScope text-generation API.
// The API key is passed per call because credentials are looked up per work item.
type Client struct {
	Endpoint string
	client   *http.Client
}

// NewClient creates a new DashScope client. An empty endpoint selects
// DefaultEndpoint and a non-positive timeout selects DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTP(endpoint, &http.Client{Timeout: timeout})
}

// NewClientWithHTTP creates a client on top of an existing http.Client.
func NewClientWithHTTP(endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		Endpoint: endpoint,
		client:   httpClient,
	}
}

// Generate sends one generation request. Non-2xx responses and transport
// failures are returned as *APIError; other failures are plain wrapped errors.
func (c *Client) Generate(ctx context.Context, apiKey string, payload GenerationRequest) (*GenerationResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", apiKey))
	req.Header.Set("X-DashScope-Client", ClientIdentifier)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &APIError{
			Code:    transportCode(err),
			Message: err.Error(),
			URL:     c.Endpoint,
			Method:  http.MethodPost,
			Err:     err,
		}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{
			Code:       transportCode(err),
			Message:    fmt.Sprintf("failed to read response: %v", err),
			StatusCode: resp.StatusCode,
			StatusText: http.StatusText(resp.StatusCode),
			URL:        c.Endpoint,
			Method:     http.MethodPost,
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newStatusError(resp.StatusCode, raw, c.Endpoint)
	}

	genResp, err := decodeResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return genResp, nil
}

func newStatusError(status int, raw []byte, url string) *APIError {
	apiErr := &APIError{
		Message:    fmt.Sprintf("request failed with status code %d", status),
		StatusCode: status,
		StatusText: http.StatusText(status),
		Body:       raw,
		URL:        url,
		Method:     http.MethodPost,
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		apiErr.Code = body.Code
		if body.Message != "" {
			apiErr.Message = body.Message
		}
	}
	return apiErr
}
