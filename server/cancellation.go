package server

import (
	"sync"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// oneShot is the in-flight completion attached to every inbound request id.
// Completing it marks the request as cancelled; the dispatcher suppresses any
// response produced afterwards.
type oneShot struct {
	mu     sync.Mutex
	done   chan struct{}
	reason string
	closed bool
}

func newOneShot() *oneShot {
	return &oneShot{done: make(chan struct{})}
}

func (o *oneShot) complete(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.closed = true
	o.reason = reason
	close(o.done)
}

func (o *oneShot) completed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

func (o *oneShot) cancelReason() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.reason
}

// enterInFlight registers an inbound request id for cancellation delivery.
func (s *Session) enterInFlight(id interface{}) *oneShot {
	shot := newOneShot()
	s.mu.Lock()
	s.inFlight[idKey(id)] = shot
	s.mu.Unlock()
	return shot
}

// leaveInFlight removes the id once its result was emitted or suppressed.
func (s *Session) leaveInFlight(id interface{}) {
	s.mu.Lock()
	delete(s.inFlight, idKey(id))
	s.mu.Unlock()
}

// handleCancelled processes notifications/cancelled from the client. The
// matching in-flight completion is resolved with the supplied reason; unknown
// ids are ignored.
func (s *Session) handleCancelled(exch *Exchange, params interface{}) (interface{}, error) {
	var p protocol.CancelledParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		s.logger.Debug("ignoring malformed cancelled notification: %v", err)
		return nil, nil
	}
	s.mu.Lock()
	shot, ok := s.inFlight[idKey(p.RequestID)]
	s.mu.Unlock()
	if !ok {
		s.logger.Debug("cancellation for unknown request id %v", p.RequestID)
		return nil, nil
	}
	s.logger.Debug("request %v cancelled by client: %s", p.RequestID, p.Reason)
	shot.complete(p.Reason)
	return nil, nil
}
