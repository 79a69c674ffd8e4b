package server

import (
	"context"
	"sync"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// rootsCache memoizes the client's root list for clients that advertise
// roots.listChanged. A single in-flight request serves concurrent callers;
// notifications/roots/list_changed invalidates the cache.
type rootsCache struct {
	mu      sync.Mutex
	valid   bool
	roots   []protocol.Root
	pending *PendingRequest
}

// ListRoots returns the client's advertised roots. Clients without the roots
// capability yield an empty list immediately. When roots.listChanged is
// advertised the first successful result is cached until invalidated;
// otherwise every call issues a fresh roots/list request.
func (e *Exchange) ListRoots(ctx context.Context, onProgress ProgressFunc) ([]protocol.Root, error) {
	s := e.sess
	caps := s.ClientCapabilities()
	if caps.Roots == nil {
		return []protocol.Root{}, nil
	}
	if !caps.Roots.ListChanged {
		pending, err := s.SendRequest(protocol.MethodListRoots, nil, onProgress)
		if err != nil {
			return nil, err
		}
		return awaitRoots(ctx, pending)
	}

	s.roots.mu.Lock()
	if s.roots.valid {
		roots := s.roots.roots
		s.roots.mu.Unlock()
		return roots, nil
	}
	pending := s.roots.pending
	if pending == nil {
		var err error
		pending, err = s.SendRequest(protocol.MethodListRoots, nil, onProgress)
		if err != nil {
			s.roots.mu.Unlock()
			return nil, err
		}
		s.roots.pending = pending
	}
	s.roots.mu.Unlock()

	roots, err := awaitRoots(ctx, pending)

	s.roots.mu.Lock()
	if s.roots.pending == pending {
		s.roots.pending = nil
		if err == nil {
			s.roots.valid = true
			s.roots.roots = roots
		}
	}
	s.roots.mu.Unlock()
	return roots, err
}

func awaitRoots(ctx context.Context, pending *PendingRequest) ([]protocol.Root, error) {
	result, err := pending.Await(ctx)
	if err != nil {
		return nil, err
	}
	var out protocol.ListRootsResult
	if err := protocol.DecodeParams(result, &out); err != nil {
		return nil, err
	}
	if out.Roots == nil {
		out.Roots = []protocol.Root{}
	}
	return out.Roots, nil
}

// handleRootsListChanged invalidates the roots cache and invokes the
// configured callback.
func (s *Session) handleRootsListChanged(exch *Exchange, params interface{}) (interface{}, error) {
	s.roots.mu.Lock()
	s.roots.valid = false
	s.roots.roots = nil
	s.roots.mu.Unlock()

	s.mu.Lock()
	callback := s.rootsChanged
	s.mu.Unlock()
	if callback != nil {
		callback(s)
	}
	return nil, nil
}
