package server

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/RokLenarcic/mcp-server/codec"
	"github.com/RokLenarcic/mcp-server/logx"
	"github.com/RokLenarcic/mcp-server/protocol"
	"github.com/RokLenarcic/mcp-server/wire"
)

// SendFunc is the transport write callback. Each call carries exactly one
// serialized envelope (or batch array); the session holds its write lock for
// the duration of the call.
type SendFunc func(data []byte) error

// Session state machine: Fresh -> Initializing -> Initialized.
const (
	stateFresh = iota
	stateInitializing
	stateInitialized
)

// sweepInterval bounds how often the opportunistic timeout sweep runs.
const sweepInterval = 500 * time.Millisecond

// Session is the per-connection state container: negotiated client info, the
// handler registries, the dispatch table, and the correlation state for both
// message directions.
type Session struct {
	srv    *Server
	codec  codec.Codec
	logger logx.Logger

	mu                sync.Mutex
	state             int
	clientInfo        protocol.Implementation
	clientCaps        protocol.ClientCapabilities
	protocolVersion   string
	tools             map[string]*Tool
	prompts           map[string]*Prompt
	resources         Resources
	templates         []protocol.ResourceTemplate
	completions       map[completionKey]CompletionHandler
	defaultCompletion DefaultCompletionHandler
	rootsChanged      RootsChangedFunc
	logLevel          protocol.LoggingLevel
	subscriptions     map[string]struct{}
	inFlight          map[string]*oneShot
	values            map[string]interface{}

	writeMu sync.Mutex
	send    SendFunc
	closer  io.Closer

	dispatch    map[string]Handler
	outstanding *outstandingTable
	progress    *progressRegistry
	roots       rootsCache
	nextID      atomic.Int64
	lastSweep   atomic.Int64 // unix nanos of the last timeout sweep
}

func newSession(srv *Server, send SendFunc) *Session {
	srv.mu.Lock()
	sess := &Session{
		srv:               srv,
		codec:             srv.codec,
		logger:            srv.logger,
		tools:             srv.tools,
		prompts:           srv.prompts,
		resources:         srv.resources,
		templates:         srv.templates,
		completions:       srv.completions,
		defaultCompletion: srv.defaultCompletion,
		rootsChanged:      srv.rootsChanged,
		subscriptions:     map[string]struct{}{},
		inFlight:          map[string]*oneShot{},
		values:            map[string]interface{}{},
		send:              send,
		outstanding:       newOutstandingTable(),
		progress:          newProgressRegistry(),
	}
	srv.mu.Unlock()
	sess.dispatch = sess.buildDispatch()
	return sess
}

// Server returns the server this session belongs to.
func (s *Session) Server() *Server { return s.srv }

// SetValue stores an opaque user value on the session, available to handlers
// through their exchange.
func (s *Session) SetValue(key string, value interface{}) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Value returns an opaque user value previously stored with SetValue.
func (s *Session) Value(key string) interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

// IsInitialized reports whether the initialized notification has been seen.
func (s *Session) IsInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateInitialized
}

// ClientInfo returns the client identity recorded at initialize time.
func (s *Session) ClientInfo() protocol.Implementation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientInfo
}

// ClientCapabilities returns the capabilities recorded at initialize time.
func (s *Session) ClientCapabilities() protocol.ClientCapabilities {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clientCaps
}

// ProtocolVersion returns the negotiated protocol revision.
func (s *Session) ProtocolVersion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.protocolVersion
}

// Bind attaches the transport write path. Binding a non-nil closer over an
// existing non-nil one closes the previous one; IO errors there are logged and
// swallowed. Binding a nil closer leaves the previous one open.
func (s *Session) Bind(send SendFunc, closer io.Closer) {
	s.writeMu.Lock()
	prev := s.closer
	s.send = send
	s.closer = closer
	s.writeMu.Unlock()
	if prev != nil && closer != nil {
		if err := prev.Close(); err != nil {
			s.logger.Warn("closing replaced output stream: %v", err)
		}
	}
}

// Unbind clears the output slot, e.g. on transport EOF.
func (s *Session) Unbind() {
	s.writeMu.Lock()
	s.send = nil
	s.closer = nil
	s.writeMu.Unlock()
}

// Send writes one serialized envelope atomically through the bound callback.
func (s *Session) Send(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.send == nil {
		return io.ErrClosedPipe
	}
	return s.send(data)
}

// sendNotification marshals and emits a notification. Errors are logged; a
// notification produces no response either way.
func (s *Session) sendNotification(method string, params interface{}) {
	data, err := s.codec.Marshal(protocol.NewNotification(method, params))
	if err != nil {
		s.logger.Error("failed to marshal %s notification: %v", method, err)
		return
	}
	if err := s.Send(data); err != nil {
		s.logger.Warn("failed to send %s notification: %v", method, err)
	}
}

// SendRequest issues a server-originated request. When onProgress is non-nil
// a fresh progress token is registered and embedded into params._meta before
// the envelope is written.
func (s *Session) SendRequest(method string, params map[string]interface{}, onProgress ProgressFunc) (*PendingRequest, error) {
	id := s.nextID.Add(1)
	pending := &PendingRequest{id: id, sess: s, done: make(chan struct{})}

	if onProgress != nil {
		token := uuid.NewString()
		pending.progressToken = token
		s.progress.register(token, onProgress)
		merged := make(map[string]interface{}, len(params)+1)
		for k, v := range params {
			merged[k] = v
		}
		merged["_meta"] = map[string]interface{}{"progressToken": token}
		params = merged
	}

	var body interface{}
	if params != nil {
		body = params
	}
	data, err := s.codec.Marshal(protocol.NewRequest(id, method, body))
	if err != nil {
		pending.complete(nil, err)
		return nil, err
	}
	s.outstanding.add(pending)
	if err := s.Send(data); err != nil {
		s.outstanding.remove(id)
		pending.complete(nil, err)
		return nil, err
	}
	return pending, nil
}

// HandleMessage ingests one transport message and returns the direct response
// bytes: a single envelope, a batch array, or nil when nothing is owed. All
// other outbound traffic goes through the bound send callback. meta is opaque
// transport request metadata (e.g. HTTP headers) passed through to handlers.
func (s *Session) HandleMessage(data []byte, meta map[string]interface{}) []byte {
	s.maybeSweep()

	decoded, failure := s.codec.Unmarshal(data)
	items, batch := wire.Parse(decoded, failure)
	if len(items) == 0 {
		return nil
	}

	var responses []*protocol.Response
	for _, item := range items {
		switch it := item.(type) {
		case wire.ParseError:
			responses = append(responses, protocol.NewErrorResponse(it.ID, it.Code, it.Message, it.Data))
		case wire.ClientResponse:
			s.dispatchNotification(protocol.MethodClientResponse, &clientResponseParams{
				id: it.ID, result: it.Result, errPayload: it.Error,
			}, meta)
		case wire.Notification:
			s.dispatchNotification(it.Method, it.Params, meta)
		case wire.Request:
			if resp := s.dispatchRequest(it, meta, batch); resp != nil {
				responses = append(responses, resp)
			}
		}
	}

	if len(responses) == 0 {
		return nil
	}
	var payload interface{}
	if batch {
		payload = responses
	} else {
		payload = responses[0]
	}
	out, err := s.codec.Marshal(payload)
	if err != nil {
		s.logger.Error("failed to marshal response: %v", err)
		return nil
	}
	return out
}

// Handle is HandleMessage without transport metadata.
func (s *Session) Handle(data []byte) []byte {
	return s.HandleMessage(data, nil)
}

// dispatchNotification invokes the handler for a notification. Async results
// are awaited inline: notification handlers are cheap and their effects must
// be visible to subsequent messages.
func (s *Session) dispatchNotification(method string, params interface{}, meta map[string]interface{}) {
	h, ok := s.dispatch[method]
	if !ok {
		s.logger.Debug("no handler for notification %s", method)
		return
	}
	exch := &Exchange{sess: s, method: method, meta: meta}
	result, err := h(exch, params)
	if ar, ok := result.(*AsyncResult); ok && err == nil {
		_, err = ar.wait()
	}
	if err != nil {
		s.logger.Warn("notification handler %s failed: %v", method, err)
	}
}

// dispatchRequest invokes the handler for a request. Synchronous results are
// returned for collection; async results outside a batch are emitted through
// the send callback when they resolve. Inside a batch everything is awaited
// so the response stays a single array.
func (s *Session) dispatchRequest(req wire.Request, meta map[string]interface{}, inBatch bool) *protocol.Response {
	h, ok := s.dispatch[req.Method]
	if !ok {
		return protocol.NewErrorResponse(req.ID, protocol.CodeMethodNotFound,
			"Method not found: "+req.Method, nil)
	}

	shot := s.enterInFlight(req.ID)
	exch := &Exchange{
		sess:          s,
		method:        req.Method,
		requestID:     req.ID,
		progressToken: progressTokenOf(req.Params),
		cancel:        shot,
		meta:          meta,
	}

	result, err := h(exch, req.Params)
	if ar, ok := result.(*AsyncResult); ok && err == nil {
		if inBatch {
			result, err = ar.wait()
		} else {
			go func() {
				res, werr := ar.wait()
				if resp := s.finishRequest(req.ID, shot, res, werr); resp != nil {
					data, merr := s.codec.Marshal(resp)
					if merr != nil {
						s.logger.Error("failed to marshal response for id %v: %v", req.ID, merr)
						return
					}
					if serr := s.Send(data); serr != nil {
						s.logger.Warn("failed to send response for id %v: %v", req.ID, serr)
					}
				}
			}()
			return nil
		}
	}
	return s.finishRequest(req.ID, shot, result, err)
}

// finishRequest builds the response envelope, removes the in-flight entry and
// suppresses the response if the request was cancelled before emission.
func (s *Session) finishRequest(id interface{}, shot *oneShot, result interface{}, err error) *protocol.Response {
	s.leaveInFlight(id)
	if shot.completed() {
		s.logger.Debug("suppressing response for cancelled request %v", id)
		return nil
	}
	if err != nil {
		if perr, ok := err.(*protocol.Error); ok {
			return protocol.NewErrorResponse(id, perr.Code, perr.Message, perr.Data)
		}
		return protocol.NewErrorResponse(id, protocol.CodeInternalError, err.Error(), nil)
	}
	if result == nil {
		result = map[string]interface{}{}
	}
	return protocol.NewSuccessResponse(id, result)
}

// maybeSweep runs the outstanding-request timeout sweep at most once per
// sweepInterval, driven by transport activity.
func (s *Session) maybeSweep() {
	now := time.Now().UnixNano()
	last := s.lastSweep.Load()
	if now-last < int64(sweepInterval) {
		return
	}
	if !s.lastSweep.CompareAndSwap(last, now) {
		return
	}
	s.outstanding.sweep(s.srv.timeout)
}

// close releases correlation state when the session is disconnected.
func (s *Session) close() {
	s.outstanding.drain(io.ErrClosedPipe)
	s.Unbind()
}

// progressTokenOf extracts params._meta.progressToken when present.
func progressTokenOf(params interface{}) interface{} {
	obj, ok := params.(map[string]interface{})
	if !ok {
		return nil
	}
	m, ok := obj["_meta"].(map[string]interface{})
	if !ok {
		return nil
	}
	return m["progressToken"]
}

// logLocal logs through the session logger at the given MCP level.
func (s *Session) logLocal(level protocol.LoggingLevel, msg string, args ...interface{}) {
	switch {
	case logx.Severity(level) >= logx.Severity(protocol.LogLevelError):
		s.logger.Error(msg, args...)
	case logx.Severity(level) >= logx.Severity(protocol.LogLevelWarning):
		s.logger.Warn(msg, args...)
	case logx.Severity(level) >= logx.Severity(protocol.LogLevelInfo):
		s.logger.Info(msg, args...)
	default:
		s.logger.Debug(msg, args...)
	}
}

// --- registry mutation (change observer) ---

// AddTool registers a tool on this session, replacing the tools sub-map. If
// the session is initialized a notifications/tools/list_changed is emitted.
func (s *Session) AddTool(t *Tool) {
	s.mu.Lock()
	s.tools = withEntry(s.tools, t.Name, t)
	initialized := s.state == stateInitialized
	s.mu.Unlock()
	if initialized {
		s.sendNotification(protocol.MethodNotifyToolsListChanged, map[string]interface{}{})
	}
}

// RemoveTool removes a tool from this session.
func (s *Session) RemoveTool(name string) {
	s.mu.Lock()
	_, present := s.tools[name]
	if present {
		s.tools = withoutEntry(s.tools, name)
	}
	initialized := s.state == stateInitialized
	s.mu.Unlock()
	if present && initialized {
		s.sendNotification(protocol.MethodNotifyToolsListChanged, map[string]interface{}{})
	}
}

// AddPrompt registers a prompt on this session, replacing the prompts sub-map.
func (s *Session) AddPrompt(p *Prompt) {
	s.mu.Lock()
	s.prompts = withEntry(s.prompts, p.Name, p)
	initialized := s.state == stateInitialized
	s.mu.Unlock()
	if initialized {
		s.sendNotification(protocol.MethodNotifyPromptsListChanged, map[string]interface{}{})
	}
}

// RemovePrompt removes a prompt from this session.
func (s *Session) RemovePrompt(name string) {
	s.mu.Lock()
	_, present := s.prompts[name]
	if present {
		s.prompts = withoutEntry(s.prompts, name)
	}
	initialized := s.state == stateInitialized
	s.mu.Unlock()
	if present && initialized {
		s.sendNotification(protocol.MethodNotifyPromptsListChanged, map[string]interface{}{})
	}
}

func (s *Session) setResources(r Resources) {
	s.mu.Lock()
	s.resources = r
	initialized := s.state == stateInitialized
	s.mu.Unlock()
	if initialized && r != nil && r.SupportsListChanged() {
		s.sendNotification(protocol.MethodNotifyResourcesListChanged, map[string]interface{}{})
	}
}

func (s *Session) setTemplates(templates []protocol.ResourceTemplate) {
	s.mu.Lock()
	s.templates = templates
	s.mu.Unlock()
}

func (s *Session) setCompletion(key completionKey, h CompletionHandler) {
	s.mu.Lock()
	next := make(map[completionKey]CompletionHandler, len(s.completions)+1)
	for k, v := range s.completions {
		next[k] = v
	}
	next[key] = h
	s.completions = next
	s.mu.Unlock()
}

func (s *Session) setDefaultCompletion(h DefaultCompletionHandler) {
	s.mu.Lock()
	s.defaultCompletion = h
	s.mu.Unlock()
}

func (s *Session) setRootsChanged(f RootsChangedFunc) {
	s.mu.Lock()
	s.rootsChanged = f
	s.mu.Unlock()
}

// NotifyResourceChanged emits notifications/resources/updated for uri iff the
// session is initialized, the provider supports subscriptions, and the uri is
// currently subscribed.
func (s *Session) NotifyResourceChanged(uri string) {
	s.mu.Lock()
	initialized := s.state == stateInitialized
	provider := s.resources
	_, subscribed := s.subscriptions[uri]
	s.mu.Unlock()
	if !initialized || provider == nil || !provider.SupportsSubscriptions() || !subscribed {
		return
	}
	s.sendNotification(protocol.MethodNotifyResourceUpdated, protocol.ResourceUpdatedParams{URI: uri})
}
