package server

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCompositionOrder(t *testing.T) {
	var order []string
	var mu sync.Mutex
	tag := func(name string) Middleware {
		return func(next Handler) Handler {
			return func(exch *Exchange, params interface{}) (interface{}, error) {
				mu.Lock()
				order = append(order, name)
				mu.Unlock()
				return next(exch, params)
			}
		}
	}

	srv := New("mw", "1", WithMiddleware(tag("first"), tag("second")))
	log := &sentLog{}
	sess := srv.Connect(log.send)
	require.NotNil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"ping"}`)))

	// The first configured middleware is outermost within the user stack.
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestHandlerPanicBecomesInternalError(t *testing.T) {
	srv, sess, _ := testSetup(t)
	srv.AddTool(&Tool{Name: "boom", Handler: func(*Exchange, map[string]interface{}) (interface{}, error) {
		panic("exploded")
	}})
	handshake(t, sess, "")
	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"boom"}}`))
	_, _, errObj := decodeResponse(t, resp)
	require.NotNil(t, errObj)
	assert.Equal(t, float64(-32603), errObj["code"])
	assert.Contains(t, errObj["message"], "exploded")
}

func TestAsyncHandlerPanicBecomesInternalError(t *testing.T) {
	srv, sess, log := testSetup(t, WithAsyncDispatch())
	srv.AddTool(&Tool{Name: "boom", Handler: func(*Exchange, map[string]interface{}) (interface{}, error) {
		panic("exploded")
	}})
	handshake(t, sess, "")
	log.mu.Lock()
	log.msgs = nil
	log.mu.Unlock()

	require.Nil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"boom"}}`)))
	waitFor(t, func() bool { return log.count() == 1 }, "async error response")
	_, _, errObj := decodeResponse(t, log.all()[0])
	require.NotNil(t, errObj)
	assert.Equal(t, float64(-32603), errObj["code"])
}

func TestAsyncDispatchEmitsThroughSendCallback(t *testing.T) {
	srv, sess, log := testSetup(t, WithAsyncDispatch())
	srv.AddTool(sumTool())
	handshake(t, sess, "")
	log.mu.Lock()
	log.msgs = nil
	log.mu.Unlock()

	require.Nil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","id":"a1","method":"tools/call","params":{"name":"sum","arguments":{"a":2,"b":5}}}`)))
	waitFor(t, func() bool { return log.count() == 1 }, "async response")
	id, result, errObj := decodeResponse(t, log.all()[0])
	require.Nil(t, errObj)
	assert.Equal(t, "a1", id)
	assert.Equal(t, []interface{}{map[string]interface{}{"type": "text", "text": "7"}}, result["content"])
}

func TestHandlerReturningAsyncResultIsAwaited(t *testing.T) {
	srv, sess, _ := testSetup(t)
	srv.AddTool(&Tool{Name: "later", Handler: func(*Exchange, map[string]interface{}) (interface{}, error) {
		return GoAsync(func() (interface{}, error) { return "deferred", nil }), nil
	}})
	handshake(t, sess, "")

	// Without async dispatch the result arrives via the send callback once
	// the future resolves; the direct return is empty.
	log := &sentLog{}
	sess.Bind(log.send, nil)
	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"later"}}`))
	require.Nil(t, resp)
	waitFor(t, func() bool { return log.count() == 1 }, "deferred response")
	_, result, errObj := decodeResponse(t, log.all()[0])
	require.Nil(t, errObj)
	assert.Equal(t, false, result["isError"])
}

func TestReportProgressRequiresToken(t *testing.T) {
	srv, sess, log := testSetup(t)
	reported := make(chan bool, 2)
	srv.AddTool(&Tool{Name: "p", Handler: func(exch *Exchange, _ map[string]interface{}) (interface{}, error) {
		reported <- exch.ReportProgress(50, 100, "halfway")
		return "ok", nil
	}})
	handshake(t, sess, "")
	log.mu.Lock()
	log.msgs = nil
	log.mu.Unlock()

	// Without a token nothing is emitted.
	require.NotNil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"p"}}`)))
	assert.False(t, <-reported)
	assert.Empty(t, log.all())

	// With a token the notification goes out before the response.
	require.NotNil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"p","_meta":{"progressToken":"tok-1"}}}`)))
	assert.True(t, <-reported)
	msgs := log.all()
	require.Len(t, msgs, 1)
	assert.Contains(t, string(msgs[0]), `"notifications/progress"`)
	assert.Contains(t, string(msgs[0]), `"tok-1"`)
}

func TestBatchWithAsyncDispatchStaysAnArray(t *testing.T) {
	srv, sess, _ := testSetup(t, WithAsyncDispatch())
	srv.AddTool(sumTool())
	handshake(t, sess, "")

	var payload string
	for i := 1; i <= 3; i++ {
		if i > 1 {
			payload += ","
		}
		payload += fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"method":"tools/call","params":{"name":"sum","arguments":{"a":%d,"b":1}}}`, i, i)
	}
	resp := sess.Handle([]byte("[" + payload + "]"))
	require.NotNil(t, resp)
	assert.Equal(t, byte('['), resp[0], "batch input must produce a batch array response")
}
