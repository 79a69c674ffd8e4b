package server

import (
	"github.com/RokLenarcic/mcp-server/protocol"
)

// Exchange is the handler-facing capability object, scoped to one inbound
// message. It is the only legal path for a handler to talk back to the
// client: server-originated requests, notifications, progress and logging all
// go through it.
type Exchange struct {
	sess          *Session
	method        string
	requestID     interface{}
	progressToken interface{}
	cancel        *oneShot
	meta          map[string]interface{}
}

// Session returns the session this exchange belongs to.
func (e *Exchange) Session() *Session { return e.sess }

// Method returns the dispatched method name.
func (e *Exchange) Method() string { return e.method }

// RequestID returns the inbound request id, or nil for notifications.
func (e *Exchange) RequestID() interface{} { return e.requestID }

// Meta returns the opaque transport request metadata (e.g. HTTP headers)
// passed through verbatim by the transport adapter.
func (e *Exchange) Meta() map[string]interface{} { return e.meta }

// Cancelled returns a channel closed when the client cancels this request.
// For notifications it returns nil (never ready).
func (e *Exchange) Cancelled() <-chan struct{} {
	if e.cancel == nil {
		return nil
	}
	return e.cancel.done
}

// CancelReason returns the reason carried by the cancellation, if any.
func (e *Exchange) CancelReason() string {
	if e.cancel == nil {
		return ""
	}
	return e.cancel.cancelReason()
}

// IsCancelled reports whether the client has cancelled this request.
func (e *Exchange) IsCancelled() bool {
	return e.cancel != nil && e.cancel.completed()
}

// ProgressToken returns the progress token the request carried in its _meta,
// or nil.
func (e *Exchange) ProgressToken() interface{} { return e.progressToken }

// ReportProgress emits notifications/progress for the current request.
// Returns true iff the request carried a progress token; without one nothing
// is sent.
func (e *Exchange) ReportProgress(progress, total float64, message string) bool {
	if e.progressToken == nil {
		return false
	}
	e.sess.sendNotification(protocol.MethodNotifyProgress, protocol.ProgressParams{
		ProgressToken: e.progressToken,
		Progress:      progress,
		Total:         total,
		Message:       message,
	})
	return true
}

// Log logs the message locally and, when the client has configured a logging
// level via logging/setLevel, additionally emits notifications/message.
func (e *Exchange) Log(level protocol.LoggingLevel, logger, message string, data interface{}) {
	e.sess.logLocal(level, "[%s] %s", logger, message)
	e.sess.mu.Lock()
	configured := e.sess.logLevel
	e.sess.mu.Unlock()
	if configured == "" {
		return
	}
	e.sess.sendNotification(protocol.MethodNotifyMessage, protocol.LoggingMessageParams{
		Level:  level,
		Logger: logger,
		Data:   map[string]interface{}{"error": message, "details": data},
	})
}

// SendRequest issues a server-originated request through this exchange's
// session. See Session.SendRequest.
func (e *Exchange) SendRequest(method string, params map[string]interface{}, onProgress ProgressFunc) (*PendingRequest, error) {
	return e.sess.SendRequest(method, params, onProgress)
}

// SendNotification emits a server-originated notification.
func (e *Exchange) SendNotification(method string, params interface{}) {
	e.sess.sendNotification(method, params)
}

// Ping issues an outbound ping and returns its pending request; it does not
// wait for the pong.
func (e *Exchange) Ping() (*PendingRequest, error) {
	return e.sess.SendRequest(protocol.MethodPing, nil, nil)
}
