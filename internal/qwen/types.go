package qwen

import (
	"bytes"
	"encoding/json"
	"errors"
)

// ErrParametersNotObject is returned by ParseParameters for a value that is
// not a JSON object.
var ErrParametersNotObject = errors.New("additional parameters must be a JSON object")

// GenerationRequest is the DashScope text-generation request body.
type GenerationRequest struct {
	Model      string                `json:"model"`
	Input      Input                 `json:"input"`
	Parameters *GenerationParameters `json:"parameters,omitempty"`
}

// Input carries the chat history. Messages are forwarded verbatim so that
// structured (multimodal) content and any extra keys reach the provider intact.
type Input struct {
	Messages []json.RawMessage `json:"messages"`
}

// GenerationParameters holds the optional sampling knobs as the caller
// supplied them. Absent fields are omitted from the request; present values
// are forwarded byte for byte, never clamped or converted.
type GenerationParameters struct {
	Temperature json.RawMessage `json:"temperature,omitempty"`
	TopP        json.RawMessage `json:"top_p,omitempty"`
	MaxTokens   json.RawMessage `json:"max_tokens,omitempty"`
}

// IsEmpty reports whether no parameter was supplied.
func (p *GenerationParameters) IsEmpty() bool {
	return p == nil || (len(p.Temperature) == 0 && len(p.TopP) == 0 && len(p.MaxTokens) == 0)
}

// ParseParameters picks temperature, top_p and max_tokens out of an
// additional-parameters object. Other keys are ignored. An absent or null
// value yields empty parameters.
func ParseParameters(raw json.RawMessage) (GenerationParameters, error) {
	var params GenerationParameters
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return params, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return params, ErrParametersNotObject
	}
	params.Temperature = fields["temperature"]
	params.TopP = fields["top_p"]
	params.MaxTokens = fields["max_tokens"]
	return params, nil
}

// ContentPart is one element of structured message content. Visual models
// use it in requests and may answer with a list of parts as well.
type ContentPart struct {
	Type     string    `json:"type,omitempty"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL points at an image for an image_url content part.
type ImageURL struct {
	URL string `json:"url"`
}

// Output is the generation output. Older models fill Text, chat-format
// responses fill Choices. Both are kept raw because their shape varies by model.
type Output struct {
	Text    json.RawMessage `json:"text,omitempty"`
	Choices json.RawMessage `json:"choices,omitempty"`
}

// Usage is the token accounting of one call, as parsed by ParseUsage.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// ParseUsage extracts token counts from a raw usage object. Counts may be any
// JSON number or a numeric string; fractions are truncated. ok is false when
// raw is absent or not an object of numbers.
func ParseUsage(raw json.RawMessage) (usage Usage, ok bool) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Usage{}, false
	}
	var counts struct {
		InputTokens  json.Number `json:"input_tokens"`
		OutputTokens json.Number `json:"output_tokens"`
		TotalTokens  json.Number `json:"total_tokens"`
	}
	if err := json.Unmarshal(raw, &counts); err != nil {
		return Usage{}, false
	}
	return Usage{
		InputTokens:  numberToInt(counts.InputTokens),
		OutputTokens: numberToInt(counts.OutputTokens),
		TotalTokens:  numberToInt(counts.TotalTokens),
	}, true
}

func numberToInt(n json.Number) int {
	if n == "" {
		return 0
	}
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if f, err := n.Float64(); err == nil {
		return int(f)
	}
	return 0
}

// GenerationResponse is a successful DashScope response.
type GenerationResponse struct {
	Output *Output
	// Usage is the provider's usage object, unmodified.
	Usage     json.RawMessage
	RequestID string

	// Raw is the undecoded response body.
	Raw json.RawMessage
}

// decodeResponse reads a 2xx body. Only a body that is not JSON at all is an
// error; fields of unexpected type are left empty and stay visible in Raw.
func decodeResponse(raw []byte) (*GenerationResponse, error) {
	if !json.Valid(raw) {
		return nil, errors.New("response body is not valid JSON")
	}

	resp := &GenerationResponse{Raw: raw}

	var envelope struct {
		Output    json.RawMessage `json:"output"`
		Usage     json.RawMessage `json:"usage"`
		RequestID json.RawMessage `json:"request_id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return resp, nil
	}

	if present(envelope.Output) {
		var out Output
		if err := json.Unmarshal(envelope.Output, &out); err == nil {
			resp.Output = &out
		}
	}
	if present(envelope.Usage) {
		resp.Usage = envelope.Usage
	}
	if present(envelope.RequestID) {
		_ = json.Unmarshal(envelope.RequestID, &resp.RequestID)
	}
	return resp, nil
}

// OutputText resolves the generated text: output.text first, then the first
// choice's message content, otherwise the empty string. A list of content
// parts resolves to the first part carrying text.
func (r *GenerationResponse) OutputText() string {
	if r == nil || r.Output == nil {
		return ""
	}
	if text, ok := resolveText(r.Output.Text); ok {
		return text
	}
	text, _ := resolveText(firstChoiceContent(r.Output.Choices))
	return text
}

func firstChoiceContent(raw json.RawMessage) json.RawMessage {
	var choices []json.RawMessage
	if err := json.Unmarshal(raw, &choices); err != nil || len(choices) == 0 {
		return nil
	}
	var choice struct {
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(choices[0], &choice); err != nil {
		return nil
	}
	var msg struct {
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(choice.Message, &msg); err != nil {
		return nil
	}
	return msg.Content
}

// resolveText turns a text or content value into a string. ok is false when
// the value is absent or null.
func resolveText(raw json.RawMessage) (text string, ok bool) {
	if !present(raw) {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err == nil {
		for _, p := range parts {
			var part ContentPart
			if err := json.Unmarshal(p, &part); err == nil && part.Text != "" {
				return part.Text, true
			}
		}
		return "", true
	}

	return string(bytes.TrimSpace(raw)), true
}

func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// errorBody is the error envelope DashScope returns on non-2xx responses.
type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}
