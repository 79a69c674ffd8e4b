package server

import (
	"context"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// SamplingRequest describes a server-initiated LLM completion to be executed
// by the client.
type SamplingRequest struct {
	Messages         []protocol.SamplingMessage
	ModelPreferences *protocol.ModelPreferences
	SystemPrompt     string
	MaxTokens        int
}

// SamplingResponse is the client's sampling/createMessage result.
type SamplingResponse struct {
	Role       string      `json:"role"`
	Content    interface{} `json:"content"`
	Model      string      `json:"model,omitempty"`
	StopReason string      `json:"stopReason,omitempty"`
}

// CreateMessage issues sampling/createMessage to the client. Clients that do
// not advertise the sampling capability yield (nil, nil).
func (e *Exchange) CreateMessage(ctx context.Context, req *SamplingRequest, onProgress ProgressFunc) (*SamplingResponse, error) {
	s := e.sess
	if s.ClientCapabilities().Sampling == nil {
		return nil, nil
	}

	params, err := toParamsMap(s, protocol.CreateMessageParams{
		Messages:         req.Messages,
		ModelPreferences: req.ModelPreferences,
		SystemPrompt:     req.SystemPrompt,
		MaxTokens:        req.MaxTokens,
	})
	if err != nil {
		return nil, err
	}
	pending, err := s.SendRequest(protocol.MethodSamplingCreateMessage, params, onProgress)
	if err != nil {
		return nil, err
	}
	result, err := pending.Await(ctx)
	if err != nil {
		return nil, err
	}
	var out SamplingResponse
	if err := protocol.DecodeParams(result, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// toParamsMap serializes a typed params struct through the codec into the
// generic map shape SendRequest embeds _meta into.
func toParamsMap(s *Session, v interface{}) (map[string]interface{}, error) {
	data, err := s.codec.Marshal(v)
	if err != nil {
		return nil, err
	}
	decoded, failure := s.codec.Unmarshal(data)
	if failure != nil {
		return nil, protocol.NewInternalError(errParams(failure.Message))
	}
	m, _ := decoded.(map[string]interface{})
	return m, nil
}

type errParams string

func (e errParams) Error() string { return string(e) }
