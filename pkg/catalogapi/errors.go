package catalogapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// genericMessage is used when an error body carries nothing readable.
const genericMessage = "API request failed"

// NetworkError is a transport-level failure: no HTTP response was received.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is a non-2xx response (or a 2xx envelope with success:false).
// Message is the server-supplied text, shown to the user verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.Status, e.Message)
}

// ShapeError reports a response envelope that matches none of the accepted forms.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "unrecognized response shape: " + e.Reason
}

// Kind classifies an error returned by this package.
type Kind int

const (
	KindNone Kind = iota
	KindNetwork
	KindAPI
	KindShape
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNetwork:
		return "network"
	case KindAPI:
		return "api"
	case KindShape:
		return "shape"
	default:
		return "other"
	}
}

// KindOf returns the error kind of err, looking through wrapped errors.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var netErr *NetworkError
	var apiErr *APIError
	var shapeErr *ShapeError
	switch {
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.As(err, &apiErr):
		return KindAPI
	case errors.As(err, &shapeErr):
		return KindShape
	default:
		return KindOther
	}
}

// IsStatus reports whether err is an *APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// UserMessage renders err for display: API messages verbatim, network
// failures with a retry hint.
func UserMessage(err error) string {
	var apiErr *APIError
	switch KindOf(err) {
	case KindNone:
		return ""
	case KindNetwork:
		return "Unable to reach the server. Please check your connection and try again."
	case KindAPI:
		errors.As(err, &apiErr)
		return apiErr.Message
	case KindShape:
		return "The server returned an unexpected response."
	default:
		return err.Error()
	}
}

// errorBody is the subset of an error response used for message extraction.
type errorBody struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   json.RawMessage `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// errorMessage picks message, then error, then errors[], then the generic text.
func (b errorBody) errorMessage() string {
	if b.Message != "" {
		return b.Message
	}
	if msg := rawErrorField(b.Error); msg != "" {
		return msg
	}
	var list []string
	if len(b.Errors) > 0 && json.Unmarshal(b.Errors, &list) == nil && len(list) > 0 {
		return strings.Join(list, ", ")
	}
	return genericMessage
}

// rawErrorField accepts either "error": "text" or "error": {"message": "text"}.
func rawErrorField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		return obj.Message
	}
	return ""
}

func peekEnvelope(body []byte) (errorBody, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return errorBody{}, false
	}
	var b errorBody
	if err := json.Unmarshal(trimmed, &b); err != nil {
		return errorBody{}, false
	}
	return b, true
}

func newAPIError(status int, body []byte) *APIError {
	if b, ok := peekEnvelope(body); ok {
		return &APIError{Status: status, Message: b.errorMessage()}
	}
	text := strings.TrimSpace(string(body))
	var quoted string
	if json.Unmarshal([]byte(text), &quoted) == nil {
		text = strings.TrimSpace(quoted)
	} else if json.Valid([]byte(text)) {
		text = ""
	}
	if text == "" {
		text = genericMessage
	}
	return &APIError{Status: status, Message: text}
}
