// Package ws provides a WebSocket transport adapter. Each connection carries
// one session; envelopes travel in text frames.
package ws

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/RokLenarcic/mcp-server/logx"
	"github.com/RokLenarcic/mcp-server/server"
)

// Handler upgrades HTTP requests to WebSocket connections and serves the
// session core over them. It implements http.Handler.
type Handler struct {
	core   *server.Server
	logger logx.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the adapter logger.
func WithLogger(logger logx.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandler creates the adapter bound to core.
func NewHandler(core *server.Server, opts ...Option) *Handler {
	h := &Handler{
		core:   core,
		logger: logx.NewDefaultLogger(),
		conns:  map[net.Conn]struct{}{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and runs the connection's read loop until
// the peer disconnects.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		h.logger.Warn("ws: upgrade failed: %v", err)
		return
	}
	h.track(conn, true)
	defer h.track(conn, false)
	defer conn.Close()

	var writeMu sync.Mutex
	send := func(data []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return wsutil.WriteServerMessage(conn, ws.OpText, data)
	}

	sess := h.core.Connect(send)
	sess.Bind(send, conn)
	defer h.core.Disconnect(sess)

	for {
		msg, op, err := wsutil.ReadClientData(conn)
		if err != nil {
			h.logger.Debug("ws: connection closed: %v", err)
			return
		}
		if op != ws.OpText {
			continue
		}
		if resp := sess.Handle(msg); resp != nil {
			if err := sess.Send(resp); err != nil {
				h.logger.Warn("ws: failed to write response: %v", err)
				return
			}
		}
	}
}

func (h *Handler) track(conn net.Conn, add bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if add {
		h.conns[conn] = struct{}{}
	} else {
		delete(h.conns, conn)
	}
}

// Close terminates every live connection.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		_ = conn.Close()
	}
	h.conns = map[net.Conn]struct{}{}
	return nil
}

// Run serves h on addr until ctx is done.
func Run(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		_ = srv.Close()
		_ = h.Close()
		return ctx.Err()
	case err := <-done:
		return err
	}
}
