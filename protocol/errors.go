package protocol

import "fmt"

// Error wraps ErrorPayload to implement the error interface. Handlers return
// this type to put a specific JSON-RPC error on the wire; any other error is
// reported as an internal error by the dispatcher.
type Error struct {
	ErrorPayload
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error: code=%d message=%s", e.Code, e.Message)
}

// NewError creates an Error with the given code, message and optional data.
func NewError(code ErrorCode, message string, data interface{}) *Error {
	return &Error{ErrorPayload{Code: code, Message: message, Data: data}}
}

// NewInvalidParamsError creates an Invalid Params error.
func NewInvalidParamsError(message string) *Error {
	return NewError(CodeInvalidParams, message, nil)
}

// NewMethodNotFoundError creates a Method Not Found error for the given method.
func NewMethodNotFoundError(method string) *Error {
	return NewError(CodeMethodNotFound, fmt.Sprintf("Method not found: %s", method), nil)
}

// NewInternalError creates an Internal Error carrying the message of err.
func NewInternalError(err error) *Error {
	return NewError(CodeInternalError, err.Error(), nil)
}

// NewResourceNotFoundError creates a Resource Not Found error; data carries the URI.
func NewResourceNotFoundError(uri string) *Error {
	return NewError(CodeResourceNotFound, fmt.Sprintf("Resource %s not found", uri), uri)
}

// ClientError is the failure a server-originated request completes with when
// the client answers with a JSON-RPC error object.
type ClientError struct {
	Code    ErrorCode
	Message string
	Data    interface{}
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("client error: code=%d message=%s", e.Code, e.Message)
}
