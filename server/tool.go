package server

import (
	"encoding/base64"
	"fmt"
	"io"
	"sort"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// ToolHandlerFunc executes one tool call. The returned value is normalized by
// the rules of normalizeContent; returning a *protocol.Error produces a
// JSON-RPC error response, any other error produces a tool error result with
// isError=true. A returned *AsyncResult is awaited and its outcome handled the
// same way.
type ToolHandlerFunc func(exch *Exchange, arguments map[string]interface{}) (interface{}, error)

// Tool is a server-exposed, name-addressed function with a JSON Schema input.
// The schema is advertised verbatim; arguments are not validated against it.
type Tool struct {
	Name        string
	Description string
	InputSchema interface{}
	Handler     ToolHandlerFunc
}

// ToolErrorResponse marks a handler return value as a domain-level tool
// failure: it becomes a successful tools/call response with isError=true.
type ToolErrorResponse struct {
	Content interface{}
}

// NewToolError wraps content into a ToolErrorResponse.
func NewToolError(content interface{}) *ToolErrorResponse {
	return &ToolErrorResponse{Content: content}
}

func (t *Tool) public() protocol.Tool {
	schema := t.InputSchema
	if schema == nil {
		schema = map[string]interface{}{"type": "object"}
	}
	return protocol.Tool{Name: t.Name, Description: t.Description, InputSchema: schema}
}

// handleListTools returns the configured tools' public fields. The cursor is
// accepted but ignored.
func (s *Session) handleListTools(exch *Exchange, params interface{}) (interface{}, error) {
	s.mu.Lock()
	tools := s.tools
	s.mu.Unlock()

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]protocol.Tool, 0, len(names))
	for _, name := range names {
		out = append(out, tools[name].public())
	}
	return protocol.ListToolsResult{Tools: out}, nil
}

// handleCallTool resolves the tool by name and normalizes its result into the
// wire shape {content, isError}.
func (s *Session) handleCallTool(exch *Exchange, params interface{}) (interface{}, error) {
	var p protocol.CallToolParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid tools/call parameters: " + err.Error())
	}
	s.mu.Lock()
	tool := s.tools[p.Name]
	s.mu.Unlock()
	if tool == nil {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("Tool %s not found", p.Name))
	}

	result, err := tool.Handler(exch, p.Arguments)
	if ar, ok := result.(*AsyncResult); ok && err == nil {
		return GoAsync(func() (interface{}, error) { return s.toolCallResult(ar.wait()) }), nil
	}
	return s.toolCallResult(result, err)
}

// toolCallResult normalizes a tool handler's outcome into {content, isError}.
func (s *Session) toolCallResult(result interface{}, err error) (interface{}, error) {
	if err != nil {
		if perr, ok := err.(*protocol.Error); ok {
			return nil, perr
		}
		return protocol.CallToolResult{
			Content: []protocol.Content{protocol.NewTextContent(err.Error())},
			IsError: true,
		}, nil
	}
	if terr, ok := result.(*ToolErrorResponse); ok {
		return protocol.CallToolResult{Content: s.normalizeContentList(terr.Content), IsError: true}, nil
	}
	if perr, ok := result.(*protocol.Error); ok {
		return nil, perr
	}
	return protocol.CallToolResult{Content: s.normalizeContentList(result), IsError: false}, nil
}

// normalizeContentList accepts a single value or a list and converts each
// element into a Content variant: strings become text, bytes and streams
// become embedded octet-stream resources, content values pass through, and
// everything else is stringified as text.
func (s *Session) normalizeContentList(v interface{}) []protocol.Content {
	if v == nil {
		return []protocol.Content{}
	}
	switch list := v.(type) {
	case []protocol.Content:
		return list
	case []interface{}:
		out := make([]protocol.Content, 0, len(list))
		for _, elem := range list {
			out = append(out, s.normalizeContent(elem))
		}
		return out
	default:
		return []protocol.Content{s.normalizeContent(v)}
	}
}

func (s *Session) normalizeContent(v interface{}) protocol.Content {
	switch t := v.(type) {
	case protocol.Content:
		return t
	case string:
		return protocol.NewTextContent(t)
	case []byte:
		return protocol.EmbeddedResource{
			Type: "resource",
			Resource: protocol.ResourceContents{
				MimeType: "application/octet-stream",
				Blob:     base64.StdEncoding.EncodeToString(t),
			},
		}
	case io.Reader:
		data, err := io.ReadAll(t)
		if err != nil {
			s.logger.Warn("reading content stream: %v", err)
			return protocol.NewTextContent(fmt.Sprintf("failed to read stream: %v", err))
		}
		return protocol.EmbeddedResource{
			Type: "resource",
			Resource: protocol.ResourceContents{
				MimeType: "application/octet-stream",
				Blob:     base64.StdEncoding.EncodeToString(data),
			},
		}
	default:
		return protocol.NewTextContent(stringify(s, v))
	}
}

// stringify renders an arbitrary value as text, preferring its serialized
// form over fmt's default formatting.
func stringify(s *Session, v interface{}) string {
	if data, err := s.codec.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}
