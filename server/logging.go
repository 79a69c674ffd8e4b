package server

import (
	"fmt"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// handleSetLevel stores the client's requested logging level. Only the eight
// MCP level names are accepted.
func (s *Session) handleSetLevel(exch *Exchange, params interface{}) (interface{}, error) {
	var p protocol.SetLevelParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid logging/setLevel parameters: " + err.Error())
	}
	if !protocol.IsValidLoggingLevel(p.Level) {
		return nil, protocol.NewInvalidParamsError(fmt.Sprintf("Unknown logging level %q", p.Level))
	}
	s.mu.Lock()
	s.logLevel = p.Level
	s.mu.Unlock()
	return map[string]interface{}{}, nil
}

// LoggingLevel returns the level set via logging/setLevel, or empty when the
// client never configured one.
func (s *Session) LoggingLevel() protocol.LoggingLevel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logLevel
}
