package server

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientCancellationSuppressesResult(t *testing.T) {
	srv, sess, log := testSetup(t, WithAsyncDispatch())

	observed := make(chan string, 1)
	srv.AddTool(&Tool{Name: "wait", Handler: func(exch *Exchange, _ map[string]interface{}) (interface{}, error) {
		<-exch.Cancelled()
		observed <- exch.CancelReason()
		return "too late", nil
	}})
	handshake(t, sess, "")
	log.mu.Lock()
	log.msgs = nil // start from an empty log (registration before the handshake emitted nothing)
	log.mu.Unlock()

	// Async dispatch: the call returns nil immediately, the response would
	// arrive through the send callback later.
	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":"X","method":"tools/call","params":{"name":"wait"}}`))
	require.Nil(t, resp)

	require.Nil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":"X","reason":"stop"}}`)))

	select {
	case reason := <-observed:
		assert.Equal(t, "stop", reason)
	case <-time.After(2 * time.Second):
		t.Fatal("handler never observed the cancellation")
	}

	// The handler result produced after cancellation must never hit the wire.
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, log.all(), "expected zero responses for the cancelled request")
}

func TestCancellationForUnknownRequestIsIgnored(t *testing.T) {
	_, sess, log := testSetup(t)
	handshake(t, sess, "")
	require.Nil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":"nope"}}`)))
	assert.Empty(t, log.all())
}

func TestInFlightEntryRemovedAfterEmission(t *testing.T) {
	_, sess, _ := testSetup(t)
	handshake(t, sess, "")
	require.NotNil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","id":5,"method":"ping"}`)))
	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.Empty(t, sess.inFlight, "in-flight table must be empty after the response is emitted")
}

func TestInFlightEntryRemovedOnHandlerError(t *testing.T) {
	srv, sess, _ := testSetup(t)
	srv.AddTool(&Tool{Name: "panics", Handler: func(*Exchange, map[string]interface{}) (interface{}, error) {
		panic("kaboom")
	}})
	handshake(t, sess, "")
	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"panics"}}`))
	require.NotNil(t, resp)
	_, _, errObj := decodeResponse(t, resp)
	require.NotNil(t, errObj)
	assert.Equal(t, float64(-32603), errObj["code"])

	sess.mu.Lock()
	defer sess.mu.Unlock()
	assert.Empty(t, sess.inFlight)
}
