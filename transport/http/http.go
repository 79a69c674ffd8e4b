// Package http provides the HTTP+SSE transport adapter: POST carries
// client->server envelopes, GET opens a Server-Sent-Events stream for
// server->client traffic, DELETE tears the session down. Sessions are keyed
// by the Mcp-Session-Id header issued at initialize time.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RokLenarcic/mcp-server/logx"
	"github.com/RokLenarcic/mcp-server/server"
)

// SessionHeader carries the session id in both directions.
const SessionHeader = "Mcp-Session-Id"

// backlogSize bounds the per-session queue of server-initiated messages
// buffered while no SSE stream is attached.
const backlogSize = 256

// Handler is the HTTP+SSE adapter. It implements http.Handler and can be
// mounted on any mux.
type Handler struct {
	core           *server.Server
	logger         logx.Logger
	allowedOrigins map[string]bool
	endpoint       string

	mu       sync.Mutex
	sessions map[string]*httpSession
}

// httpSession pairs a core session with its SSE backlog queue.
type httpSession struct {
	id      string
	sess    *server.Session
	created time.Time
	queue   chan []byte
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

// WithAllowedOrigins installs the origin allow-list. Requests bearing an
// Origin header not in the list are rejected with 403. An empty list allows
// every origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) {
		h.allowedOrigins = make(map[string]bool, len(origins))
		for _, o := range origins {
			h.allowedOrigins[o] = true
		}
	}
}

// WithEndpoint configures the optional first SSE frame
// (event: endpoint) announcing the POST URL to the client.
func WithEndpoint(url string) Option {
	return func(h *Handler) { h.endpoint = url }
}

// NewHandler creates the adapter bound to core.
func NewHandler(core *server.Server, opts ...Option) *Handler {
	h := &Handler{
		core:     core,
		logger:   logx.NewDefaultLogger(),
		sessions: map[string]*httpSession{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.originAllowed(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}
	switch r.Method {
	case http.MethodPost:
		h.handlePost(w, r)
	case http.MethodGet:
		h.handleGet(w, r)
	case http.MethodDelete:
		h.handleDelete(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) originAllowed(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return h.allowedOrigins[origin]
}

// handlePost ingests one envelope. Requests without a session id must be
// initialize calls; each one creates a session and returns its id in the
// Mcp-Session-Id header, whether or not the initialize succeeds.
func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	meta := requestMeta(r)

	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		if methodOf(body) != "initialize" {
			http.Error(w, "missing session id", http.StatusBadRequest)
			return
		}
		hs := h.createSession()
		resp := hs.sess.HandleMessage(body, meta)
		w.Header().Set(SessionHeader, hs.id)
		writeJSON(w, http.StatusOK, resp)
		return
	}

	hs := h.lookup(sessionID)
	if hs == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	resp := hs.sess.HandleMessage(body, meta)
	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleGet attaches an SSE stream to the session and drains its backlog.
func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	if sessionID == "" {
		sessionID = r.URL.Query().Get("sessionId")
	}
	hs := h.lookup(sessionID)
	if hs == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if h.endpoint != "" {
		fmt.Fprintf(w, "event: endpoint\ndata: %s\n\n", h.endpoint)
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("http: SSE stream for session %s closed", hs.id)
			return
		case msg := <-hs.queue:
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// handleDelete removes the session.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	sessionID := r.Header.Get(SessionHeader)
	hs := h.takeSession(sessionID)
	if hs == nil {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	h.core.Disconnect(hs.sess)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) createSession() *httpSession {
	hs := &httpSession{
		id:      uuid.NewString(),
		created: time.Now(),
		queue:   make(chan []byte, backlogSize),
	}
	hs.sess = h.core.Connect(hs.enqueue)
	h.mu.Lock()
	h.sessions[hs.id] = hs
	h.mu.Unlock()
	h.logger.Debug("http: session %s created", hs.id)
	return hs
}

func (h *Handler) lookup(id string) *httpSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.sessions[id]
}

func (h *Handler) takeSession(id string) *httpSession {
	h.mu.Lock()
	defer h.mu.Unlock()
	hs := h.sessions[id]
	delete(h.sessions, id)
	return hs
}

// Close disconnects every live session.
func (h *Handler) Close() error {
	h.mu.Lock()
	sessions := make([]*httpSession, 0, len(h.sessions))
	for id, hs := range h.sessions {
		sessions = append(sessions, hs)
		delete(h.sessions, id)
	}
	h.mu.Unlock()
	for _, hs := range sessions {
		h.core.Disconnect(hs.sess)
	}
	return nil
}

// Run serves h on addr until ctx is done.
func Run(ctx context.Context, addr string, h *Handler) error {
	srv := &http.Server{Addr: addr, Handler: h}
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return ctx.Err()
	case err := <-done:
		return err
	}
}

// enqueue buffers a server-initiated message for the SSE stream. A full
// backlog drops the oldest message first.
func (hs *httpSession) enqueue(data []byte) error {
	msg := make([]byte, len(data))
	copy(msg, data)
	for {
		select {
		case hs.queue <- msg:
			return nil
		default:
			select {
			case <-hs.queue:
			default:
			}
		}
	}
}

// methodOf extracts the top-level method of a single envelope; batches and
// malformed bodies yield "".
func methodOf(body []byte) string {
	var probe struct {
		Method string `json:"method"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return ""
	}
	return probe.Method
}

func requestMeta(r *http.Request) map[string]interface{} {
	headers := make(map[string]interface{}, len(r.Header))
	for k, v := range r.Header {
		if len(v) == 1 {
			headers[k] = v[0]
		} else {
			headers[k] = v
		}
	}
	return map[string]interface{}{
		"httpHeaders": headers,
		"remoteAddr":  r.RemoteAddr,
	}
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_, _ = w.Write(body)
	}
}
