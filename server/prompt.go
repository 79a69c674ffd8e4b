package server

import (
	"fmt"
	"sort"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// PromptHandlerFunc renders one prompt. It may return a
// *protocol.GetPromptResult, a protocol.Message, a bare protocol.Content, or
// a list of either; everything is normalized into {description, messages}.
type PromptHandlerFunc func(exch *Exchange, arguments map[string]string) (interface{}, error)

// PromptArg describes one named prompt argument.
type PromptArg struct {
	Name        string
	Description string
}

// Prompt is a server-exposed message template with named arguments.
type Prompt struct {
	Name         string
	Description  string
	RequiredArgs []PromptArg
	OptionalArgs []PromptArg
	Handler      PromptHandlerFunc
}

// public builds the wire form: required arguments first, then optional, each
// group in insertion order.
func (p *Prompt) public() protocol.Prompt {
	args := make([]protocol.PromptArgument, 0, len(p.RequiredArgs)+len(p.OptionalArgs))
	for _, a := range p.RequiredArgs {
		args = append(args, protocol.PromptArgument{Name: a.Name, Description: a.Description, Required: true})
	}
	for _, a := range p.OptionalArgs {
		args = append(args, protocol.PromptArgument{Name: a.Name, Description: a.Description, Required: false})
	}
	return protocol.Prompt{Name: p.Name, Description: p.Description, Arguments: args}
}

// handleListPrompts returns the configured prompts' public forms. The cursor
// is accepted but ignored.
func (s *Session) handleListPrompts(exch *Exchange, params interface{}) (interface{}, error) {
	s.mu.Lock()
	prompts := s.prompts
	s.mu.Unlock()

	names := make([]string, 0, len(prompts))
	for name := range prompts {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]protocol.Prompt, 0, len(names))
	for _, name := range names {
		out = append(out, prompts[name].public())
	}
	return protocol.ListPromptsResult{Prompts: out}, nil
}

// handleGetPrompt resolves the prompt by name and normalizes the handler's
// return value into a GetPromptResult.
func (s *Session) handleGetPrompt(exch *Exchange, params interface{}) (interface{}, error) {
	var p protocol.GetPromptParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid prompts/get parameters: " + err.Error())
	}
	s.mu.Lock()
	prompt := s.prompts[p.Name]
	s.mu.Unlock()
	if prompt == nil {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("Prompt %s not found", p.Name))
	}

	result, err := prompt.Handler(exch, p.Arguments)
	if err != nil {
		return nil, err
	}
	return s.normalizePromptResult(result)
}

func (s *Session) normalizePromptResult(v interface{}) (*protocol.GetPromptResult, error) {
	switch t := v.(type) {
	case *protocol.GetPromptResult:
		return t, nil
	case protocol.GetPromptResult:
		return &t, nil
	case protocol.Message:
		return &protocol.GetPromptResult{Messages: []protocol.Message{t}}, nil
	case []protocol.Message:
		return &protocol.GetPromptResult{Messages: t}, nil
	case protocol.Content:
		return &protocol.GetPromptResult{Messages: []protocol.Message{{Content: t}}}, nil
	case []interface{}:
		messages := make([]protocol.Message, 0, len(t))
		for _, elem := range t {
			switch m := elem.(type) {
			case protocol.Message:
				messages = append(messages, m)
			case protocol.Content:
				messages = append(messages, protocol.Message{Content: m})
			default:
				return nil, fmt.Errorf("prompt result element %T is neither message nor content", elem)
			}
		}
		return &protocol.GetPromptResult{Messages: messages}, nil
	default:
		return nil, fmt.Errorf("prompt handler returned unsupported type %T", v)
	}
}
