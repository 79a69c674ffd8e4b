package server

import (
	"github.com/RokLenarcic/mcp-server/protocol"
)

// handleInitialize drives the Fresh -> Initializing transition: version
// negotiation, capability exchange, and recording of the client identity.
func (s *Session) handleInitialize(exch *Exchange, params interface{}) (interface{}, error) {
	var p protocol.InitializeParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid initialize parameters: " + err.Error())
	}

	s.mu.Lock()
	if s.state != stateFresh {
		s.mu.Unlock()
		return nil, protocol.NewInvalidParamsError("Session is initialized already")
	}
	if !protocol.IsSupportedProtocolVersion(p.ProtocolVersion) {
		s.mu.Unlock()
		return nil, protocol.NewError(protocol.CodeInvalidRequest,
			"Unsupported protocol version",
			map[string]interface{}{
				"requested":        p.ProtocolVersion,
				"protocolVersions": protocol.SupportedProtocolVersions,
			})
	}
	s.state = stateInitializing
	s.clientInfo = p.ClientInfo
	s.clientCaps = p.Capabilities
	s.protocolVersion = p.ProtocolVersion
	caps := s.capabilitiesLocked()
	s.mu.Unlock()

	return protocol.InitializeResult{
		ProtocolVersion: p.ProtocolVersion,
		Capabilities:    caps,
		ServerInfo:      s.srv.info,
		Instructions:    s.srv.instructions,
	}, nil
}

// capabilitiesLocked derives the capability advertisement from the configured
// handlers. Caller holds s.mu.
func (s *Session) capabilitiesLocked() protocol.ServerCapabilities {
	caps := protocol.ServerCapabilities{}
	if s.srv.logging {
		caps.Logging = &struct{}{}
	}
	if len(s.completions) > 0 || s.defaultCompletion != nil {
		caps.Completions = &struct{}{}
	}
	if len(s.prompts) > 0 {
		caps.Prompts = &protocol.ListChangedCapability{ListChanged: false}
	}
	if len(s.tools) > 0 {
		caps.Tools = &protocol.ListChangedCapability{ListChanged: true}
	}
	if s.resources != nil {
		caps.Resources = &protocol.ResourcesCapability{
			Subscribe:   s.resources.SupportsSubscriptions(),
			ListChanged: s.resources.SupportsListChanged(),
		}
	}
	return caps
}

// handleInitialized moves the session to Initialized. Idempotent; never
// downgrades.
func (s *Session) handleInitialized(exch *Exchange, params interface{}) (interface{}, error) {
	s.mu.Lock()
	if s.state == stateInitializing {
		s.state = stateInitialized
	}
	s.mu.Unlock()
	return nil, nil
}

// handlePing answers with an empty object in any session state.
func (s *Session) handlePing(exch *Exchange, params interface{}) (interface{}, error) {
	return map[string]interface{}{}, nil
}
