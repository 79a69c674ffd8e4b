// Package server implements the session core of an MCP server: JSON-RPC 2.0
// dispatch with middleware, per-connection session state, bidirectional
// request correlation, and the MCP handler families. Transports adapt a byte
// stream onto Session.HandleMessage and a send callback.
package server

import (
	"sync"
	"time"

	"github.com/RokLenarcic/mcp-server/codec"
	"github.com/RokLenarcic/mcp-server/logx"
	"github.com/RokLenarcic/mcp-server/protocol"
)

// DefaultClientRequestTimeout bounds how long a server-originated request may
// stay outstanding before the sweep completes it with ErrRequestTimeout.
const DefaultClientRequestTimeout = 120 * time.Second

// Server holds the configuration shared by every session: server identity,
// the registered handler families, codec and middleware. Sessions are created
// per connection with Connect and inherit the current registries; registry
// mutations on the server are broadcast to all live sessions.
type Server struct {
	info         protocol.Implementation
	instructions string
	logging      bool
	codec        codec.Codec
	logger       logx.Logger
	timeout      time.Duration
	errorLevel   protocol.LoggingLevel
	async        bool
	middleware   []Middleware

	mu                sync.Mutex
	tools             map[string]*Tool
	prompts           map[string]*Prompt
	resources         Resources
	templates         []protocol.ResourceTemplate
	completions       map[completionKey]CompletionHandler
	defaultCompletion DefaultCompletionHandler
	rootsChanged      RootsChangedFunc
	sessions          map[*Session]struct{}
}

// RootsChangedFunc is invoked when a client announces that its root set
// changed. The cached roots have already been invalidated when it runs.
type RootsChangedFunc func(sess *Session)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the local logger used by the server and its sessions.
func WithLogger(logger logx.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCodec replaces the default encoding/json codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Server) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithInstructions sets the instructions string returned during initialization.
func WithInstructions(instructions string) Option {
	return func(s *Server) { s.instructions = instructions }
}

// WithLoggingCapability advertises the logging capability at initialize time.
func WithLoggingCapability() Option {
	return func(s *Server) { s.logging = true }
}

// WithClientRequestTimeout overrides the outstanding-request timeout.
func WithClientRequestTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithAsyncDispatch installs the async middleware so request handlers run
// concurrently instead of inline on the transport read loop.
func WithAsyncDispatch() Option {
	return func(s *Server) { s.async = true }
}

// WithMiddleware appends middleware to the dispatch stack. The first
// middleware in the list is outermost within the user portion of the stack;
// the error middleware always wraps everything.
func WithMiddleware(mw ...Middleware) Option {
	return func(s *Server) { s.middleware = append(s.middleware, mw...) }
}

// WithErrorLogLevel sets the level internal errors are logged at locally.
func WithErrorLogLevel(level protocol.LoggingLevel) Option {
	return func(s *Server) {
		if protocol.IsValidLoggingLevel(level) {
			s.errorLevel = level
		}
	}
}

// New creates a Server with the given identity and options.
func New(name, version string, opts ...Option) *Server {
	s := &Server{
		info:        protocol.Implementation{Name: name, Version: version},
		codec:       codec.NewJSON(),
		logger:      logx.NewDefaultLogger(),
		timeout:     DefaultClientRequestTimeout,
		errorLevel:  protocol.LogLevelInfo,
		tools:       map[string]*Tool{},
		prompts:     map[string]*Prompt{},
		completions: map[completionKey]CompletionHandler{},
		sessions:    map[*Session]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Info returns the server's advertised name and version.
func (s *Server) Info() protocol.Implementation { return s.info }

// Connect creates a Session for one client connection. The send callback is
// the transport write path; it may be nil and bound later with Session.Bind.
func (s *Server) Connect(send SendFunc) *Session {
	sess := newSession(s, send)
	s.mu.Lock()
	s.sessions[sess] = struct{}{}
	s.mu.Unlock()
	s.logger.Debug("session connected")
	return sess
}

// Disconnect removes a session from the broadcast set and releases its
// outstanding requests.
func (s *Server) Disconnect(sess *Session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
	sess.close()
	s.logger.Debug("session disconnected")
}

func (s *Server) liveSessions() []*Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Session, 0, len(s.sessions))
	for sess := range s.sessions {
		out = append(out, sess)
	}
	return out
}

// AddTool registers a tool on the server and every live session. Initialized
// sessions emit notifications/tools/list_changed.
func (s *Server) AddTool(t *Tool) {
	s.mu.Lock()
	s.tools = withEntry(s.tools, t.Name, t)
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.AddTool(t)
	}
}

// RemoveTool removes a tool from the server and every live session.
func (s *Server) RemoveTool(name string) {
	s.mu.Lock()
	s.tools = withoutEntry(s.tools, name)
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.RemoveTool(name)
	}
}

// AddPrompt registers a prompt on the server and every live session.
func (s *Server) AddPrompt(p *Prompt) {
	s.mu.Lock()
	s.prompts = withEntry(s.prompts, p.Name, p)
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.AddPrompt(p)
	}
}

// RemovePrompt removes a prompt from the server and every live session.
func (s *Server) RemovePrompt(name string) {
	s.mu.Lock()
	s.prompts = withoutEntry(s.prompts, name)
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.RemovePrompt(name)
	}
}

// SetResources configures the resource provider. Sessions created afterwards
// inherit it; live sessions are updated in place.
func (s *Server) SetResources(r Resources) {
	s.mu.Lock()
	s.resources = r
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.setResources(r)
	}
}

// AddResourceTemplate appends a resource template to the advertised list.
func (s *Server) AddResourceTemplate(t protocol.ResourceTemplate) {
	s.mu.Lock()
	s.templates = append(append([]protocol.ResourceTemplate{}, s.templates...), t)
	templates := s.templates
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.setTemplates(templates)
	}
}

// SetCompletion registers a completion handler for a (refType, refName) pair,
// e.g. ("ref/prompt", "code_review").
func (s *Server) SetCompletion(refType, refName string, h CompletionHandler) {
	key := completionKey{refType, refName}
	s.mu.Lock()
	next := make(map[completionKey]CompletionHandler, len(s.completions)+1)
	for k, v := range s.completions {
		next[k] = v
	}
	next[key] = h
	s.completions = next
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.setCompletion(key, h)
	}
}

// SetDefaultCompletion registers the fallback completion handler.
func (s *Server) SetDefaultCompletion(h DefaultCompletionHandler) {
	s.mu.Lock()
	s.defaultCompletion = h
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.setDefaultCompletion(h)
	}
}

// SetRootsChangedCallback registers the callback run when a client announces
// a roots change.
func (s *Server) SetRootsChangedCallback(f RootsChangedFunc) {
	s.mu.Lock()
	s.rootsChanged = f
	s.mu.Unlock()
	for _, sess := range s.liveSessions() {
		sess.setRootsChanged(f)
	}
}

// withEntry copies m and adds k. Sub-maps are replaced wholesale so change
// observation can compare references.
func withEntry[V any](m map[string]V, k string, v V) map[string]V {
	next := make(map[string]V, len(m)+1)
	for key, val := range m {
		next[key] = val
	}
	next[k] = v
	return next
}

func withoutEntry[V any](m map[string]V, k string) map[string]V {
	next := make(map[string]V, len(m))
	for key, val := range m {
		if key != k {
			next[key] = val
		}
	}
	return next
}
