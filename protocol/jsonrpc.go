package protocol

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrorPayload defines the structure for the 'error' object within a JSON-RPC
// error response.
type ErrorPayload struct {
	Code    ErrorCode   `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Request represents a standard JSON-RPC request object.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`          // MUST be "2.0"
	ID      interface{} `json:"id"`               // string, number, or null
	Method  string      `json:"method"`           // e.g. "initialize", "tools/call"
	Params  interface{} `json:"params,omitempty"` // object or array
}

// Response represents a standard JSON-RPC response object.
type Response struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *ErrorPayload `json:"error,omitempty"`
}

// Notification represents a standard JSON-RPC notification object.
// Notifications MUST NOT carry an 'id' field.
type Notification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// NewRequest creates a new JSON-RPC request object.
func NewRequest(id interface{}, method string, params interface{}) *Request {
	return &Request{JSONRPC: "2.0", ID: id, Method: method, Params: params}
}

// NewNotification creates a new JSON-RPC notification object.
func NewNotification(method string, params interface{}) *Notification {
	return &Notification{JSONRPC: "2.0", Method: method, Params: params}
}

// NewSuccessResponse creates a new JSON-RPC success response object.
func NewSuccessResponse(id interface{}, result interface{}) *Response {
	return &Response{JSONRPC: "2.0", ID: id, Result: result}
}

// NewErrorResponse creates a new JSON-RPC error response object. The id may be
// nil when the error occurred before an id could be recovered.
func NewErrorResponse(id interface{}, code ErrorCode, message string, data interface{}) *Response {
	return &Response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &ErrorPayload{Code: code, Message: message, Data: data},
	}
}

// DecodeParams decodes a generic params value (as produced by the codec) into
// the struct pointed to by target. Wire names are camelCase; fields are matched
// through their json tags.
func DecodeParams(params interface{}, target interface{}) error {
	if params == nil {
		return fmt.Errorf("params missing")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to build params decoder: %w", err)
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("failed to decode params into %T: %w", target, err)
	}
	return nil
}
