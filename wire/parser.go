// Package wire validates decoded JSON-RPC 2.0 envelopes and classifies them
// into the item taxonomy the session core dispatches on. It understands single
// envelopes and batch arrays, and recovers request ids for error reporting
// whenever the envelope carries a usable one.
package wire

import (
	"fmt"

	"github.com/RokLenarcic/mcp-server/codec"
	"github.com/RokLenarcic/mcp-server/protocol"
)

// Item is one parsed element of an incoming transport message.
type Item interface{ isItem() }

// Request is a well-formed envelope carrying a method and an id.
type Request struct {
	Method string
	Params interface{}
	ID     interface{}
}

// Notification is a well-formed envelope carrying a method and no id.
type Notification struct {
	Method string
	Params interface{}
}

// ClientResponse is an envelope answering a server-originated request. It is
// dispatched internally to the client-response pseudo-method.
type ClientResponse struct {
	ID     interface{}
	Result interface{}
	Error  *protocol.ErrorPayload
}

// ParseError is a reported parse or validation failure. It carries the
// envelope's id when one is recoverable and a nil id otherwise. Failures
// without a usable id inside a batch are dropped rather than reported.
type ParseError struct {
	Code    protocol.ErrorCode
	Message string
	Data    interface{}
	ID      interface{}
}

func (Request) isItem()        {}
func (Notification) isItem()   {}
func (ClientResponse) isItem() {}
func (ParseError) isItem()     {}

// Parse classifies a decoded transport message. The returned batch flag is
// true when the top-level value was a non-empty array, in which case responses
// must be collected into a single array as well. An empty array yields a
// single INVALID_REQUEST error with batch false.
func Parse(v interface{}, failure *codec.ParseFailure) (items []Item, batch bool) {
	if failure != nil {
		return []Item{ParseError{
			Code:    protocol.CodeParseError,
			Message: fmt.Sprintf("Parse error: %s", failure.Message),
		}}, false
	}
	if arr, ok := v.([]interface{}); ok {
		if len(arr) == 0 {
			return []Item{ParseError{
				Code:    protocol.CodeInvalidRequest,
				Message: "Invalid Request: empty batch",
			}}, false
		}
		items = make([]Item, 0, len(arr))
		for _, elem := range arr {
			if item := parseEnvelope(elem, true); item != nil {
				items = append(items, item)
			}
		}
		return items, true
	}
	if item := parseEnvelope(v, false); item != nil {
		return []Item{item}, false
	}
	return nil, false
}

// parseEnvelope validates one envelope. Inside a batch, failures that lack a
// usable id return nil (dropped). At top level, shape, id-type and version
// failures are reported (with a null id when none is usable), while method and
// params failures without an id are dropped.
func parseEnvelope(v interface{}, inBatch bool) Item {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return invalid(nil, false, inBatch, "Invalid Request: envelope is not an object")
	}

	id, idPresent := obj["id"]
	idUsable := !idPresent || usableID(id)
	if !idUsable {
		return invalid(nil, false, inBatch, "Invalid Request: id must be a string, number or null")
	}

	if ver, _ := obj["jsonrpc"].(string); ver != "2.0" {
		return invalid(id, idPresent, inBatch, "Invalid Request: jsonrpc must be \"2.0\"")
	}

	result, hasResult := obj["result"]
	errVal, hasError := obj["error"]
	if idPresent && (hasResult || hasError) {
		resp := ClientResponse{ID: id, Result: result}
		if hasError {
			resp.Error = decodeErrorPayload(errVal)
		}
		return resp
	}

	method, methodOK := obj["method"].(string)
	if !methodOK || method == "" {
		return invalidOrDrop(id, idPresent, "Invalid Request: method missing or not a string")
	}

	params, hasParams := obj["params"]
	if hasParams && params != nil {
		switch params.(type) {
		case map[string]interface{}, []interface{}:
		default:
			return invalidOrDrop(id, idPresent, "Invalid Request: params must be an object or array")
		}
	}

	if idPresent && id != nil {
		return Request{Method: method, Params: params, ID: id}
	}
	return Notification{Method: method, Params: params}
}

// invalid builds an INVALID_REQUEST item, or drops it (nil) when no usable id
// exists inside a batch.
func invalid(id interface{}, idPresent bool, inBatch bool, message string) Item {
	if inBatch && (!idPresent || id == nil) {
		return nil
	}
	return ParseError{Code: protocol.CodeInvalidRequest, Message: message, ID: id}
}

// invalidOrDrop reports only when an id is present; without one the malformed
// notification is dropped regardless of batching.
func invalidOrDrop(id interface{}, idPresent bool, message string) Item {
	if !idPresent || id == nil {
		return nil
	}
	return ParseError{Code: protocol.CodeInvalidRequest, Message: message, ID: id}
}

func usableID(id interface{}) bool {
	switch id.(type) {
	case nil, string, float64:
		return true
	default:
		return false
	}
}

func decodeErrorPayload(v interface{}) *protocol.ErrorPayload {
	payload := &protocol.ErrorPayload{Code: protocol.CodeInternalError, Message: "unknown client error"}
	obj, ok := v.(map[string]interface{})
	if !ok {
		return payload
	}
	if code, ok := obj["code"].(float64); ok {
		payload.Code = protocol.ErrorCode(code)
	}
	if msg, ok := obj["message"].(string); ok {
		payload.Message = msg
	}
	payload.Data = obj["data"]
	return payload
}
