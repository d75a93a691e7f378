package gateway

import "encoding/json"

// ChatResult is either *Success or *Failure. Callers switch on the concrete type.
type ChatResult interface {
	chatResult()
}

// Success is a completed provider call.
type Success struct {
	RawResponse json.RawMessage
	OutputText  string
	// Usage is the provider's usage object as received, nil when absent.
	Usage     json.RawMessage
	RequestID string
}

// Failure is a classified item error. Details holds one of the *ErrorDetails
// types, depending on Kind.
type Failure struct {
	Kind    ErrorKind
	Message string
	Details any
}

func (*Success) chatResult() {}
func (*Failure) chatResult() {}

// ItemResult pairs a result with the position of the work item that produced it.
type ItemResult struct {
	Index  int
	Result ChatResult
}

// OK reports whether the item succeeded.
func (r ItemResult) OK() bool {
	_, ok := r.Result.(*Success)
	return ok
}

type successJSON struct {
	Index     int             `json:"index"`
	Success   bool            `json:"success"`
	Response  json.RawMessage `json:"response"`
	Output    string          `json:"output"`
	Usage     json.RawMessage `json:"usage,omitempty"`
	RequestID string          `json:"requestId,omitempty"`
}

type failureJSON struct {
	Index   int          `json:"index"`
	Success bool         `json:"success"`
	Error   errorPayload `json:"error"`
}

type errorPayload struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
	Details any       `json:"details"`
}

// MarshalJSON flattens the result into the {index, success, ...} wire shape.
func (r ItemResult) MarshalJSON() ([]byte, error) {
	switch res := r.Result.(type) {
	case *Success:
		raw := res.RawResponse
		if len(raw) == 0 {
			raw = json.RawMessage("null")
		}
		return json.Marshal(successJSON{
			Index:     r.Index,
			Success:   true,
			Response:  raw,
			Output:    res.OutputText,
			Usage:     res.Usage,
			RequestID: res.RequestID,
		})
	case *Failure:
		details := res.Details
		if details == nil {
			details = struct{}{}
		}
		return json.Marshal(failureJSON{
			Index: r.Index,
			Error: errorPayload{Kind: res.Kind, Message: res.Message, Details: details},
		})
	default:
		return json.Marshal(failureJSON{
			Index: r.Index,
			Error: errorPayload{Kind: KindUnknown, Message: "missing result", Details: struct{}{}},
		})
	}
}
