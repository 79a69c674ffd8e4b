package server

import (
	"fmt"
	"math"
	"strconv"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// Handler processes one dispatched method call. The returned value is the
// wire-shaped result; returning a *protocol.Error puts that exact error on
// the wire, any other error becomes an internal error. A handler may return
// an *AsyncResult to defer completion to another goroutine.
type Handler func(exch *Exchange, params interface{}) (interface{}, error)

// Middleware wraps a Handler. The first middleware in a configured stack is
// outermost.
type Middleware func(Handler) Handler

// AsyncResult is a one-shot future a handler may return instead of a value.
// The dispatcher awaits it without blocking the transport read loop (except
// inside batches, where responses must be collected into one array).
type AsyncResult struct {
	done   chan struct{}
	result interface{}
	err    error
}

// NewAsyncResult creates an unresolved AsyncResult.
func NewAsyncResult() *AsyncResult {
	return &AsyncResult{done: make(chan struct{})}
}

// Complete resolves the future. Completing twice panics, matching the
// one-shot contract.
func (a *AsyncResult) Complete(result interface{}, err error) {
	a.result = result
	a.err = err
	close(a.done)
}

// wait blocks until the future resolves, flattening nested futures at any
// depth.
func (a *AsyncResult) wait() (interface{}, error) {
	<-a.done
	if nested, ok := a.result.(*AsyncResult); ok && a.err == nil {
		return nested.wait()
	}
	return a.result, a.err
}

// GoAsync runs fn on its own goroutine and returns its future. Panics inside
// fn resolve the future with an internal error.
func GoAsync(fn func() (interface{}, error)) *AsyncResult {
	a := NewAsyncResult()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				a.Complete(nil, fmt.Errorf("handler panic: %v", r))
			}
		}()
		a.Complete(fn())
	}()
	return a
}

// WithAsync returns middleware that runs the wrapped handler on its own
// goroutine and immediately returns an AsyncResult. Handlers that already
// return an AsyncResult are flattened.
func WithAsync() Middleware {
	return func(next Handler) Handler {
		return func(exch *Exchange, params interface{}) (interface{}, error) {
			return GoAsync(func() (interface{}, error) {
				v, err := next(exch, params)
				if ar, ok := v.(*AsyncResult); ok && err == nil {
					return ar.wait()
				}
				return v, err
			}), nil
		}
	}
}

// WithError returns the middleware that converts handler panics and
// non-protocol errors into INTERNAL_ERROR responses, logging them locally at
// the given level. It is installed outermost by default.
func WithError(level protocol.LoggingLevel) Middleware {
	return func(next Handler) Handler {
		return func(exch *Exchange, params interface{}) (result interface{}, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = exch.sess.convertError(level, exch.method, fmt.Errorf("handler panic: %v", r))
					result = nil
				}
			}()
			result, err = next(exch, params)
			if ar, ok := result.(*AsyncResult); ok && err == nil {
				out := NewAsyncResult()
				go func() {
					v, werr := ar.wait()
					out.Complete(v, exch.sess.convertError(level, exch.method, werr))
				}()
				return out, nil
			}
			return result, exch.sess.convertError(level, exch.method, err)
		}
	}
}

// convertError passes protocol errors through and maps everything else to an
// internal error, logging the original locally.
func (s *Session) convertError(level protocol.LoggingLevel, method string, err error) error {
	if err == nil {
		return nil
	}
	if perr, ok := err.(*protocol.Error); ok {
		return perr
	}
	s.logLocal(level, "handler for %s failed: %v", method, err)
	return protocol.NewInternalError(err)
}

// withInitCheck rejects calls made before the session handshake completed.
// Applied to every handler except initialize, ping, notifications/initialized
// and the client-response pseudo-handler.
func withInitCheck(next Handler) Handler {
	return func(exch *Exchange, params interface{}) (interface{}, error) {
		if !exch.sess.IsInitialized() {
			return nil, protocol.NewInvalidParamsError("Session not initialized.")
		}
		return next(exch, params)
	}
}

// initCheckExempt lists the methods usable before the handshake completes.
var initCheckExempt = map[string]bool{
	protocol.MethodInitialize:        true,
	protocol.MethodPing:              true,
	protocol.MethodNotifyInitialized: true,
	protocol.MethodClientResponse:    true,
}

// buildDispatch composes the session's method table once: for each method the
// stack is error middleware (outermost), user middleware, async middleware,
// init check, base handler.
func (s *Session) buildDispatch() map[string]Handler {
	base := map[string]Handler{
		protocol.MethodInitialize:            s.handleInitialize,
		protocol.MethodPing:                  s.handlePing,
		protocol.MethodListTools:             s.handleListTools,
		protocol.MethodCallTool:              s.handleCallTool,
		protocol.MethodListPrompts:           s.handleListPrompts,
		protocol.MethodGetPrompt:             s.handleGetPrompt,
		protocol.MethodListResources:         s.handleListResources,
		protocol.MethodReadResource:          s.handleReadResource,
		protocol.MethodSubscribeResource:     s.handleSubscribeResource,
		protocol.MethodUnsubscribeResource:   s.handleUnsubscribeResource,
		protocol.MethodResourcesListTemplates: s.handleListResourceTemplates,
		protocol.MethodCompletionComplete:    s.handleComplete,
		protocol.MethodLoggingSetLevel:       s.handleSetLevel,
		protocol.MethodNotifyInitialized:     s.handleInitialized,
		protocol.MethodNotifyCancelled:       s.handleCancelled,
		protocol.MethodNotifyProgress:        s.handleProgress,
		protocol.MethodNotifyRootsListChanged: s.handleRootsListChanged,
		protocol.MethodClientResponse:        s.handleClientResponse,
	}

	stack := []Middleware{WithError(s.srv.errorLevel)}
	stack = append(stack, s.srv.middleware...)
	if s.srv.async {
		stack = append(stack, WithAsync())
	}

	table := make(map[string]Handler, len(base))
	for method, h := range base {
		if !initCheckExempt[method] {
			h = withInitCheck(h)
		}
		for i := len(stack) - 1; i >= 0; i-- {
			h = stack[i](h)
		}
		table[method] = h
	}
	return table
}

// idKey normalizes a JSON-RPC id for map keying. Wire numbers arrive as
// float64 while locally allocated ids are int64; both render to the same key.
func idKey(id interface{}) string {
	switch v := id.(type) {
	case string:
		return "s:" + v
	case float64:
		if v == math.Trunc(v) && !math.IsInf(v, 0) {
			return "n:" + strconv.FormatInt(int64(v), 10)
		}
		return "n:" + strconv.FormatFloat(v, 'g', -1, 64)
	case int64:
		return "n:" + strconv.FormatInt(v, 10)
	case int:
		return "n:" + strconv.Itoa(v)
	default:
		return fmt.Sprintf("v:%v", v)
	}
}
