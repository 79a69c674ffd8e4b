package server

import (
	"fmt"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// CompletionHandler completes one argument of a specific prompt or resource
// reference. It may return []string or a *protocol.Completion carrying an
// explicit total.
type CompletionHandler func(exch *Exchange, argName, argValue string) (interface{}, error)

// DefaultCompletionHandler is the fallback invoked when no specific handler
// matches the (refType, refName) pair.
type DefaultCompletionHandler func(exch *Exchange, refType, refName, argName, argValue string) (interface{}, error)

type completionKey struct {
	refType string
	refName string
}

// maxCompletionValues caps the values list of a completion response.
const maxCompletionValues = 100

// handleComplete resolves the (refType, refName) pair to a specific handler,
// falling back to the default handler when one is configured.
func (s *Session) handleComplete(exch *Exchange, params interface{}) (interface{}, error) {
	var p protocol.CompleteParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid completion/complete parameters: " + err.Error())
	}
	refName := p.Ref.RefName()

	s.mu.Lock()
	specific := s.completions[completionKey{p.Ref.Type, refName}]
	fallback := s.defaultCompletion
	s.mu.Unlock()

	var result interface{}
	var err error
	switch {
	case specific != nil:
		result, err = specific(exch, p.Argument.Name, p.Argument.Value)
	case fallback != nil:
		result, err = fallback(exch, p.Ref.Type, refName, p.Argument.Name, p.Argument.Value)
	default:
		return nil, protocol.NewInvalidParamsError(
			fmt.Sprintf("Completion %s/%s not found", p.Ref.Type, refName))
	}
	if err != nil {
		return nil, err
	}
	return normalizeCompletion(result)
}

// normalizeCompletion builds the response: values truncated to the first 100
// items; hasMore is true when a bare list carried more than 100 items, or
// when an explicit total exceeds the number of items supplied.
func normalizeCompletion(v interface{}) (*protocol.CompleteResult, error) {
	switch t := v.(type) {
	case *protocol.CompleteResult:
		return &protocol.CompleteResult{Completion: completionOf(t.Completion.Values, t.Completion.Total)}, nil
	case protocol.CompleteResult:
		return &protocol.CompleteResult{Completion: completionOf(t.Completion.Values, t.Completion.Total)}, nil
	case *protocol.Completion:
		return &protocol.CompleteResult{Completion: completionOf(t.Values, t.Total)}, nil
	case protocol.Completion:
		return &protocol.CompleteResult{Completion: completionOf(t.Values, t.Total)}, nil
	case []string:
		return &protocol.CompleteResult{Completion: completionOf(t, nil)}, nil
	case []interface{}:
		values := make([]string, 0, len(t))
		for _, elem := range t {
			str, ok := elem.(string)
			if !ok {
				return nil, fmt.Errorf("completion value %v is not a string", elem)
			}
			values = append(values, str)
		}
		return &protocol.CompleteResult{Completion: completionOf(values, nil)}, nil
	default:
		return nil, fmt.Errorf("completion handler returned unsupported type %T", v)
	}
}

func completionOf(values []string, total *int) protocol.Completion {
	n := len(values)
	truncated := values
	if n > maxCompletionValues {
		truncated = values[:maxCompletionValues]
	}
	if total == nil {
		t := n
		return protocol.Completion{Values: truncated, Total: &t, HasMore: n > maxCompletionValues}
	}
	return protocol.Completion{Values: truncated, Total: total, HasMore: *total > n}
}
