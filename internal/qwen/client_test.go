package qwen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewClient(t *testing.T) {
	client := NewClient("", 0)
	if client == nil {
		t.Fatal("NewClient() returned nil")
	}
	if client.Endpoint != DefaultEndpoint {
		t.Errorf("NewClient() Endpoint = %v, want %v", client.Endpoint, DefaultEndpoint)
	}
	if client.client == nil {
		t.Fatal("NewClient() client should not be nil")
	}
	if client.client.Timeout != DefaultTimeout {
		t.Errorf("NewClient() timeout = %v, want %v", client.client.Timeout, DefaultTimeout)
	}

	custom := NewClient("http://localhost:9999/gen", 5*time.Second)
	if custom.Endpoint != "http://localhost:9999/gen" {
		t.Errorf("NewClient() Endpoint = %v, want custom endpoint", custom.Endpoint)
	}
	if custom.client.Timeout != 5*time.Second {
		t.Errorf("NewClient() timeout = %v, want 5s", custom.client.Timeout)
	}
}

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name       string
		payload    GenerationRequest
		serverResp func(t *testing.T, w http.ResponseWriter, r *http.Request)
		wantText   string
		wantReqID  string
		wantStatus int
		wantErr    bool
	}{
		{
			name: "output text",
			payload: GenerationRequest{
				Model: "qwen-max",
				Input: Input{Messages: []json.RawMessage{json.RawMessage(`{"role":"user","content":"Hello"}`)}},
			},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
					t.Errorf("Authorization = %q, want Bearer test-key", got)
				}
				if got := r.Header.Get("Content-Type"); got != "application/json" {
					t.Errorf("Content-Type = %q, want application/json", got)
				}
				if got := r.Header.Get("X-DashScope-Client"); got != ClientIdentifier {
					t.Errorf("X-DashScope-Client = %q, want %q", got, ClientIdentifier)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"output":{"text":"hi"},"usage":{"input_tokens":3,"output_tokens":1,"total_tokens":4},"request_id":"req-1"}`))
			},
			wantText:  "hi",
			wantReqID: "req-1",
		},
		{
			name:    "choices content",
			payload: GenerationRequest{Model: "qwen-plus"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"output":{"choices":[{"message":{"role":"assistant","content":"hey"}}]}}`))
			},
			wantText: "hey",
		},
		{
			name:    "neither text nor choices",
			payload: GenerationRequest{Model: "qwen-plus"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"output":{}}`))
			},
			wantText: "",
		},
		{
			name:    "visual model content parts",
			payload: GenerationRequest{Model: "qwen-vl-max"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"output":{"choices":[{"message":{"role":"assistant","content":[{"text":"a cat"}]}}]},"request_id":"req-vl"}`))
			},
			wantText:  "a cat",
			wantReqID: "req-vl",
		},
		{
			name:    "fractional usage",
			payload: GenerationRequest{Model: "qwen-plus"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"output":{"text":"ok"},"usage":{"input_tokens":1.5,"output_tokens":2,"total_tokens":3.5}}`))
			},
			wantText: "ok",
		},
		{
			name:    "unexpected field types",
			payload: GenerationRequest{Model: "qwen-plus"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"output":"odd","usage":"n/a","request_id":42}`))
			},
			wantText: "",
		},
		{
			name:    "server error",
			payload: GenerationRequest{Model: "qwen-plus"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("internal server error"))
			},
			wantStatus: http.StatusInternalServerError,
			wantErr:    true,
		},
		{
			name:    "provider error envelope",
			payload: GenerationRequest{Model: "qwen-plus"},
			serverResp: func(t *testing.T, w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"code":"InvalidApiKey","message":"Invalid API-key provided.","request_id":"r"}`))
			},
			wantStatus: http.StatusUnauthorized,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				tt.serverResp(t, w, r)
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second)
			resp, err := client.Generate(context.Background(), "test-key", tt.payload)

			if tt.wantErr {
				var apiErr *APIError
				if !errors.As(err, &apiErr) {
					t.Fatalf("Generate() error = %v, want *APIError", err)
				}
				if apiErr.StatusCode != tt.wantStatus {
					t.Errorf("APIError.StatusCode = %d, want %d", apiErr.StatusCode, tt.wantStatus)
				}
				if apiErr.Method != http.MethodPost || apiErr.URL != server.URL {
					t.Errorf("APIError request = %s %s, want POST %s", apiErr.Method, apiErr.URL, server.URL)
				}
				return
			}

			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}
			if got := resp.OutputText(); got != tt.wantText {
				t.Errorf("OutputText() = %q, want %q", got, tt.wantText)
			}
			if resp.RequestID != tt.wantReqID {
				t.Errorf("RequestID = %q, want %q", resp.RequestID, tt.wantReqID)
			}
			if len(resp.Raw) == 0 {
				t.Error("Raw should hold the response body")
			}
		})
	}
}

func TestClient_Generate_RequestBody(t *testing.T) {
	tests := []struct {
		name       string
		params     *GenerationParameters
		wantParams string
	}{
		{
			name:       "no parameters",
			params:     nil,
			wantParams: "",
		},
		{
			name:       "temperature only",
			params:     &GenerationParameters{Temperature: json.RawMessage(`0.5`)},
			wantParams: `{"temperature":0.5}`,
		},
		{
			name: "all parameters",
			params: &GenerationParameters{
				Temperature: json.RawMessage(`1.2`),
				TopP:        json.RawMessage(`0.9`),
				MaxTokens:   json.RawMessage(`2048`),
			},
			wantParams: `{"temperature":1.2,"top_p":0.9,"max_tokens":2048}`,
		},
		{
			name:       "values forwarded as written",
			params:     &GenerationParameters{MaxTokens: json.RawMessage(`1e3`), TopP: json.RawMessage(`"0.9"`)},
			wantParams: `{"top_p":"0.9","max_tokens":1e3}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured map[string]json.RawMessage
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				raw, _ := io.ReadAll(r.Body)
				if err := json.Unmarshal(raw, &captured); err != nil {
					t.Errorf("request body is not JSON: %v", err)
				}
				_, _ = w.Write([]byte(`{"output":{"text":"ok"}}`))
			}))
			defer server.Close()

			client := NewClient(server.URL, time.Second)
			_, err := client.Generate(context.Background(), "k", GenerationRequest{
				Model:      "qwen-turbo",
				Input:      Input{Messages: []json.RawMessage{json.RawMessage(`{"role":"user","content":"x"}`)}},
				Parameters: tt.params,
			})
			if err != nil {
				t.Fatalf("Generate() unexpected error: %v", err)
			}

			if string(captured["model"]) != `"qwen-turbo"` {
				t.Errorf("model = %s, want \"qwen-turbo\"", captured["model"])
			}
			if string(captured["input"]) != `{"messages":[{"role":"user","content":"x"}]}` {
				t.Errorf("input = %s", captured["input"])
			}
			got, present := captured["parameters"]
			if tt.wantParams == "" {
				if present {
					t.Errorf("parameters present = %s, want absent", got)
				}
				return
			}
			if string(got) != tt.wantParams {
				t.Errorf("parameters = %s, want %s", got, tt.wantParams)
			}
		})
	}
}

func TestClient_Generate_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, 50*time.Millisecond)
	_, err := client.Generate(context.Background(), "k", GenerationRequest{Model: "qwen-max"})

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Generate() error = %v, want *APIError", err)
	}
	if apiErr.Code != CodeTimeout {
		t.Errorf("APIError.Code = %q, want %q", apiErr.Code, CodeTimeout)
	}
	if apiErr.StatusCode != 0 {
		t.Errorf("APIError.StatusCode = %d, want 0", apiErr.StatusCode)
	}
}

func TestClient_Generate_MalformedSuccessBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, time.Second)
	_, err := client.Generate(context.Background(), "k", GenerationRequest{Model: "qwen-max"})
	if err == nil {
		t.Fatal("Generate() expected error, got nil")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("decode failure should not be an *APIError: %v", err)
	}
	if !strings.Contains(err.Error(), "failed to decode response") {
		t.Errorf("error = %v, want decode failure", err)
	}
}

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *APIError
		want string
	}{
		{
			name: "status only",
			err:  &APIError{StatusCode: 500, Message: "request failed with status code 500"},
			want: "Qwen API Error: Status 500 - request failed with status code 500",
		},
		{
			name: "provider code",
			err:  &APIError{Code: "InvalidApiKey", StatusCode: 401, Message: "Invalid API-key provided."},
			want: "Qwen API Error: InvalidApiKey - Invalid API-key provided.",
		},
		{
			name: "transport code",
			err:  &APIError{Code: CodeTimeout, Message: "deadline exceeded"},
			want: "Qwen API Error: timeout - deadline exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("APIError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerationResponse_OutputText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "text wins over choices", body: `{"output":{"text":"a","choices":[{"message":{"content":"b"}}]}}`, want: "a"},
		{name: "empty text still wins", body: `{"output":{"text":"","choices":[{"message":{"content":"b"}}]}}`, want: ""},
		{name: "first choice", body: `{"output":{"choices":[{"message":{"content":"b"}},{"message":{"content":"c"}}]}}`, want: "b"},
		{name: "choice without message", body: `{"output":{"choices":[{}]}}`, want: ""},
		{name: "no output", body: `{"request_id":"x"}`, want: ""},
		{name: "null text falls through", body: `{"output":{"text":null,"choices":[{"message":{"content":"b"}}]}}`, want: "b"},
		{name: "content parts", body: `{"output":{"choices":[{"message":{"content":[{"image":"x.png"},{"text":"seen"},{"text":"later"}]}}]}}`, want: "seen"},
		{name: "content parts without text", body: `{"output":{"choices":[{"message":{"content":[{"image":"x.png"}]}}]}}`, want: ""},
		{name: "text parts", body: `{"output":{"text":[{"type":"text","text":"t"}]}}`, want: "t"},
		{name: "non-string text", body: `{"output":{"text":42}}`, want: "42"},
		{name: "choices not a list", body: `{"output":{"choices":{"message":{"content":"b"}}}}`, want: ""},
		{name: "body not an object", body: `["a"]`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := decodeResponse([]byte(tt.body))
			if err != nil {
				t.Fatalf("decodeResponse() error = %v", err)
			}
			if string(resp.Raw) != tt.body {
				t.Errorf("Raw = %s, want %s", resp.Raw, tt.body)
			}
			if got := resp.OutputText(); got != tt.want {
				t.Errorf("OutputText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeResponse_Fields(t *testing.T) {
	resp, err := decodeResponse([]byte(`{"output":{"text":"x"},"usage":{"input_tokens":1.5},"request_id":"req-7"}`))
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if resp.RequestID != "req-7" {
		t.Errorf("RequestID = %q, want req-7", resp.RequestID)
	}
	if string(resp.Usage) != `{"input_tokens":1.5}` {
		t.Errorf("Usage = %s, want raw usage object", resp.Usage)
	}

	resp, err = decodeResponse([]byte(`{"usage":null,"request_id":null}`))
	if err != nil {
		t.Fatalf("decodeResponse() error = %v", err)
	}
	if resp.Usage != nil || resp.RequestID != "" || resp.Output != nil {
		t.Errorf("null fields should stay empty: %+v", resp)
	}

	if _, err := decodeResponse([]byte(`{"output":`)); err == nil {
		t.Error("decodeResponse() should reject a body that is not JSON")
	}
}

func TestParseUsage(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   Usage
		wantOK bool
	}{
		{name: "integers", raw: `{"input_tokens":5,"output_tokens":1,"total_tokens":6}`, want: Usage{5, 1, 6}, wantOK: true},
		{name: "fractions truncated", raw: `{"input_tokens":1.5,"output_tokens":2,"total_tokens":3.9}`, want: Usage{1, 2, 3}, wantOK: true},
		{name: "exponent", raw: `{"total_tokens":1e3}`, want: Usage{TotalTokens: 1000}, wantOK: true},
		{name: "numeric strings", raw: `{"input_tokens":"4"}`, want: Usage{InputTokens: 4}, wantOK: true},
		{name: "extra keys", raw: `{"input_tokens":2,"image_tokens":9}`, want: Usage{InputTokens: 2}, wantOK: true},
		{name: "absent", raw: ``},
		{name: "not an object", raw: `"n/a"`},
		{name: "non-numeric count", raw: `{"input_tokens":"many"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseUsage(json.RawMessage(tt.raw))
			if ok != tt.wantOK {
				t.Fatalf("ParseUsage() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("ParseUsage() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseParameters(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "absent", raw: ``, want: `{}`},
		{name: "null", raw: `null`, want: `{}`},
		{name: "empty object", raw: `{}`, want: `{}`},
		{name: "supported keys kept verbatim", raw: `{"max_tokens":1e3,"temperature":0.70,"top_p":"0.9"}`, want: `{"temperature":0.70,"top_p":"0.9","max_tokens":1e3}`},
		{name: "other keys ignored", raw: `{"seed":7,"max_tokens":10.5}`, want: `{"max_tokens":10.5}`},
		{name: "not an object", raw: `"fast"`, wantErr: true},
		{name: "array", raw: `[1,2]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseParameters(json.RawMessage(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrParametersNotObject) {
					t.Fatalf("ParseParameters() error = %v, want ErrParametersNotObject", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseParameters() error = %v", err)
			}
			encoded, err := json.Marshal(got)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(encoded) != tt.want {
				t.Errorf("ParseParameters() = %s, want %s", encoded, tt.want)
			}
			if (tt.want == `{}`) != got.IsEmpty() {
				t.Errorf("IsEmpty() = %v for %s", got.IsEmpty(), encoded)
			}
		})
	}
}
