package server

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// sentLog collects everything the session writes through its send callback.
type sentLog struct {
	mu   sync.Mutex
	msgs [][]byte
}

func (l *sentLog) send(data []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	msg := make([]byte, len(data))
	copy(msg, data)
	l.msgs = append(l.msgs, msg)
	return nil
}

func (l *sentLog) all() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.msgs))
	copy(out, l.msgs)
	return out
}

func (l *sentLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.msgs)
}

// methods decodes the method field of every collected envelope; responses
// yield "".
func (l *sentLog) methods(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, msg := range l.all() {
		var probe struct {
			Method string `json:"method"`
		}
		require.NoError(t, json.Unmarshal(msg, &probe))
		out = append(out, probe.Method)
	}
	return out
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func testSetup(t *testing.T, opts ...Option) (*Server, *Session, *sentLog) {
	t.Helper()
	log := &sentLog{}
	srv := New("test-server", "1.2.3", opts...)
	sess := srv.Connect(log.send)
	return srv, sess, log
}

// handshake drives initialize + initialized over the wire.
func handshake(t *testing.T, sess *Session, capabilities string) {
	t.Helper()
	if capabilities == "" {
		capabilities = "{}"
	}
	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":"init-1","method":"initialize","params":{` +
		`"protocolVersion":"2025-03-26","capabilities":` + capabilities +
		`,"clientInfo":{"name":"test-client","version":"1"}}}`))
	require.NotNil(t, resp)
	var envelope struct {
		Error *json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resp, &envelope))
	require.Nil(t, envelope.Error, "initialize failed: %s", resp)
	require.Nil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	require.True(t, sess.IsInitialized())
}

// decodeResponse unmarshals a single response envelope.
func decodeResponse(t *testing.T, data []byte) (id interface{}, result map[string]interface{}, errObj map[string]interface{}) {
	t.Helper()
	var envelope struct {
		ID     interface{}            `json:"id"`
		Result map[string]interface{} `json:"result"`
		Error  map[string]interface{} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &envelope))
	return envelope.ID, envelope.Result, envelope.Error
}
