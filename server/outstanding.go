package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// ErrRequestTimeout completes an outstanding server-originated request whose
// client response never arrived within the configured timeout.
var ErrRequestTimeout = errors.New("client request timed out")

// ErrRequestCancelled completes an outstanding request cancelled locally.
var ErrRequestCancelled = errors.New("client request cancelled")

// PendingRequest is the awaitable returned for a server-originated request.
type PendingRequest struct {
	id   int64
	sess *Session

	mu     sync.Mutex
	done   chan struct{}
	result interface{}
	err    error
	closed bool

	progressToken string // uuid, empty when no progress callback was supplied
}

// ID returns the allocated JSON-RPC id.
func (p *PendingRequest) ID() int64 { return p.id }

// Done is closed once the request reaches any terminal state.
func (p *PendingRequest) Done() <-chan struct{} { return p.done }

// Await blocks until the request completes or ctx is done.
func (p *PendingRequest) Await(ctx context.Context) (interface{}, error) {
	select {
	case <-p.done:
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.result, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel removes the request from the outstanding table. With interrupt=true
// a notifications/cancelled is sent to the client; otherwise cancellation is
// local only. A response arriving later is dropped either way.
func (p *PendingRequest) Cancel(interrupt bool) {
	if !p.sess.outstanding.remove(p.id) {
		return
	}
	if interrupt {
		p.sess.sendNotification(protocol.MethodNotifyCancelled, protocol.CancelledParams{RequestID: p.id})
	}
	p.complete(nil, ErrRequestCancelled)
}

// complete resolves the future once and releases the progress registration.
func (p *PendingRequest) complete(result interface{}, err error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.result = result
	p.err = err
	p.mu.Unlock()
	if p.progressToken != "" {
		p.sess.progress.deregister(p.progressToken)
	}
	close(p.done)
}

type outstandingEntry struct {
	pending *PendingRequest
	created time.Time
}

// outstandingTable correlates server-originated request ids to their pending
// completions. Safe for concurrent use.
type outstandingTable struct {
	mu      sync.Mutex
	entries map[int64]*outstandingEntry
}

func newOutstandingTable() *outstandingTable {
	return &outstandingTable{entries: map[int64]*outstandingEntry{}}
}

func (t *outstandingTable) add(p *PendingRequest) {
	t.mu.Lock()
	t.entries[p.id] = &outstandingEntry{pending: p, created: time.Now()}
	t.mu.Unlock()
}

// remove takes the entry out of the table, reporting whether it was present.
func (t *outstandingTable) remove(id int64) bool {
	t.mu.Lock()
	_, ok := t.entries[id]
	delete(t.entries, id)
	t.mu.Unlock()
	return ok
}

// take removes and returns the entry for a matching client response. Late
// responses for swept or cancelled ids return nil.
func (t *outstandingTable) take(id int64) *PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if !ok {
		return nil
	}
	delete(t.entries, id)
	return e.pending
}

// sweep completes every entry older than timeout with ErrRequestTimeout.
func (t *outstandingTable) sweep(timeout time.Duration) {
	cutoff := time.Now().Add(-timeout)
	var expired []*PendingRequest
	t.mu.Lock()
	for id, e := range t.entries {
		if e.created.Before(cutoff) {
			expired = append(expired, e.pending)
			delete(t.entries, id)
		}
	}
	t.mu.Unlock()
	for _, p := range expired {
		p.complete(nil, ErrRequestTimeout)
	}
}

// drain completes every entry with err; used on session close.
func (t *outstandingTable) drain(err error) {
	t.mu.Lock()
	pending := make([]*PendingRequest, 0, len(t.entries))
	for id, e := range t.entries {
		pending = append(pending, e.pending)
		delete(t.entries, id)
	}
	t.mu.Unlock()
	for _, p := range pending {
		p.complete(nil, err)
	}
}

// handleClientResponse routes an inbound client response to its outstanding
// request. Error responses complete the future with a *protocol.ClientError.
func (s *Session) handleClientResponse(exch *Exchange, params interface{}) (interface{}, error) {
	resp, ok := params.(*clientResponseParams)
	if !ok {
		return nil, nil
	}
	id, ok := numericID(resp.id)
	if !ok {
		s.logger.Debug("client response with non-numeric id %v dropped", resp.id)
		return nil, nil
	}
	pending := s.outstanding.take(id)
	if pending == nil {
		s.logger.Debug("client response for unknown id %d dropped", id)
		return nil, nil
	}
	if resp.errPayload != nil {
		pending.complete(nil, &protocol.ClientError{
			Code:    resp.errPayload.Code,
			Message: resp.errPayload.Message,
			Data:    resp.errPayload.Data,
		})
		return nil, nil
	}
	pending.complete(resp.result, nil)
	return nil, nil
}

// clientResponseParams is the internal params value handed to the
// client-response pseudo-handler.
type clientResponseParams struct {
	id         interface{}
	result     interface{}
	errPayload *protocol.ErrorPayload
}

func numericID(id interface{}) (int64, bool) {
	switch v := id.(type) {
	case float64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
