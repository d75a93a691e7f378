package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"qwen-gateway/internal/qwen"
)

// ErrorKind tags a Failure with its place in the error taxonomy.
type ErrorKind string

const (
	KindConfiguration ErrorKind = "ConfigurationError"
	KindValidation    ErrorKind = "ValidationError"
	KindProvider      ErrorKind = "ProviderError"
	KindUnknown       ErrorKind = "UnknownError"
)

const configurationMessage = "Alibaba Cloud API credentials (API Key) missing/invalid."

var (
	// ErrMissingAPIKey is the cause when the credential source yields no API key.
	ErrMissingAPIKey = errors.New("api key missing or empty")
)

// ConfigurationError reports missing or unusable credentials.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return configurationMessage
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Fields a ValidationError can refer to.
const (
	fieldMessages   = "messages"
	fieldParameters = "additionalParameters"
)

// ValidationError reports malformed input for one item.
type ValidationError struct {
	Field     string
	ItemIndex int
	Message   string
}

func (e *ValidationError) Error() string {
	if e.Field == fieldParameters {
		return fmt.Sprintf("Invalid Additional Parameters: %s", e.Message)
	}
	return fmt.Sprintf("Invalid JSON for Messages: %s", e.Message)
}

// panicError carries a value recovered from a panic in an item's processing.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic: %v", e.value)
}

// ConfigurationErrorDetails names why the credentials were rejected.
type ConfigurationErrorDetails struct {
	Cause string `json:"cause,omitempty"`
}

// ProviderErrorDetails describes a failed provider call.
type ProviderErrorDetails struct {
	Status        int             `json:"status,omitempty"`
	StatusText    string          `json:"statusText,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
	RequestURL    string          `json:"requestUrl,omitempty"`
	RequestMethod string          `json:"requestMethod,omitempty"`
}

// UnknownErrorDetails describes an unexpected failure.
type UnknownErrorDetails struct {
	Name  string `json:"name"`
	Stack string `json:"stack,omitempty"`
}

// classify converts any item error into a Failure.
func classify(err error) *Failure {
	var cfgErr *ConfigurationError
	if errors.As(err, &cfgErr) {
		return &Failure{
			Kind:    KindConfiguration,
			Message: cfgErr.Error(),
			Details: ConfigurationErrorDetails{Cause: errText(cfgErr.Err)},
		}
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return &Failure{Kind: KindValidation, Message: valErr.Error(), Details: struct{}{}}
	}

	var apiErr *qwen.APIError
	if errors.As(err, &apiErr) {
		return &Failure{
			Kind:    KindProvider,
			Message: apiErr.Error(),
			Details: ProviderErrorDetails{
				Status:        apiErr.StatusCode,
				StatusText:    apiErr.StatusText,
				Data:          bodyData(apiErr.Body),
				RequestURL:    apiErr.URL,
				RequestMethod: apiErr.Method,
			},
		}
	}

	var pErr *panicError
	if errors.As(err, &pErr) {
		return &Failure{
			Kind:    KindUnknown,
			Message: pErr.Error(),
			Details: UnknownErrorDetails{Name: fmt.Sprintf("%T", pErr.value), Stack: string(pErr.stack)},
		}
	}

	return &Failure{
		Kind:    KindUnknown,
		Message: err.Error(),
		Details: UnknownErrorDetails{Name: fmt.Sprintf("%T", err)},
	}
}

// bodyData keeps a JSON body as-is and encodes anything else as a JSON string.
func bodyData(body []byte) json.RawMessage {
	if len(body) == 0 {
		return nil
	}
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	encoded, err := json.Marshal(string(body))
	if err != nil {
		return nil
	}
	return encoded
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
