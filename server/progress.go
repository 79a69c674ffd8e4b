package server

import "sync"

// ProgressFunc receives the entire params map of a notifications/progress
// frame that carried a matching token.
type ProgressFunc func(params map[string]interface{})

// progressRegistry maps outbound progress tokens to callbacks. Tokens are
// random UUIDs, registered before the request is written and removed when the
// request reaches any terminal state.
type progressRegistry struct {
	mu        sync.Mutex
	callbacks map[string]ProgressFunc
}

func newProgressRegistry() *progressRegistry {
	return &progressRegistry{callbacks: map[string]ProgressFunc{}}
}

func (r *progressRegistry) register(token string, fn ProgressFunc) {
	r.mu.Lock()
	r.callbacks[token] = fn
	r.mu.Unlock()
}

func (r *progressRegistry) deregister(token string) {
	r.mu.Lock()
	delete(r.callbacks, token)
	r.mu.Unlock()
}

func (r *progressRegistry) lookup(token string) ProgressFunc {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.callbacks[token]
}

// handleProgress delivers an inbound notifications/progress frame to the
// callback registered for its token. Unknown tokens are silently ignored.
func (s *Session) handleProgress(exch *Exchange, params interface{}) (interface{}, error) {
	obj, ok := params.(map[string]interface{})
	if !ok {
		return nil, nil
	}
	token, ok := obj["progressToken"].(string)
	if !ok {
		return nil, nil
	}
	if fn := s.progress.lookup(token); fn != nil {
		fn(obj)
	}
	return nil, nil
}
