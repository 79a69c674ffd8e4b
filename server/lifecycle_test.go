package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeThenPing(t *testing.T) {
	_, sess, _ := testSetup(t)

	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`))
	require.NotNil(t, resp)
	id, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)
	assert.Equal(t, float64(1), id)
	assert.Equal(t, "2025-03-26", result["protocolVersion"])
	serverInfo := result["serverInfo"].(map[string]interface{})
	assert.Equal(t, "test-server", serverInfo["name"])
	assert.Equal(t, "1.2.3", serverInfo["version"])

	require.Nil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))

	resp = sess.Handle([]byte(`{"jsonrpc":"2.0","id":2,"method":"ping"}`))
	require.NotNil(t, resp)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":2,"result":{}}`, string(resp))
}

func TestInitializeUnsupportedVersion(t *testing.T) {
	_, sess, _ := testSetup(t)

	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2024-11-06","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`))
	require.NotNil(t, resp)
	_, _, errObj := decodeResponse(t, resp)
	require.NotNil(t, errObj)
	assert.Equal(t, float64(-32600), errObj["code"])

	data, err := json.Marshal(errObj["data"])
	require.NoError(t, err)
	assert.Contains(t, string(data), "protocol")
	assert.Contains(t, string(data), "2025-03-26")
	assert.Contains(t, string(data), "2024-11-05")
	assert.Contains(t, string(data), "2025-06-18")

	// A failed initialize leaves the session fresh; a retry succeeds.
	handshake(t, sess, "")
}

func TestInitializeTwiceFails(t *testing.T) {
	_, sess, _ := testSetup(t)
	handshake(t, sess, "")

	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":9,"method":"initialize","params":{` +
		`"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`))
	require.NotNil(t, resp)
	_, _, errObj := decodeResponse(t, resp)
	require.NotNil(t, errObj)
	assert.Equal(t, float64(-32602), errObj["code"])
	assert.Equal(t, "Session is initialized already", errObj["message"])
}

func TestMethodsRejectedBeforeInitialized(t *testing.T) {
	for _, method := range []string{
		"tools/list", "tools/call", "prompts/list", "prompts/get",
		"resources/list", "resources/read", "completion/complete", "logging/setLevel",
	} {
		t.Run(method, func(t *testing.T) {
			_, sess, _ := testSetup(t)
			resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"` + method + `"}`))
			require.NotNil(t, resp)
			_, _, errObj := decodeResponse(t, resp)
			require.NotNil(t, errObj)
			assert.Equal(t, float64(-32602), errObj["code"])
			assert.Equal(t, "Session not initialized.", errObj["message"])
		})
	}
}

func TestPingWorksInAnyState(t *testing.T) {
	_, sess, _ := testSetup(t)
	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":"p","method":"ping"}`))
	require.NotNil(t, resp)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"p","result":{}}`, string(resp))
}

func TestInitializedIsIdempotent(t *testing.T) {
	_, sess, _ := testSetup(t)
	handshake(t, sess, "")
	require.Nil(t, sess.Handle([]byte(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)))
	assert.True(t, sess.IsInitialized())
}

func TestCapabilityAdvertisement(t *testing.T) {
	srv := New("caps", "1", WithLoggingCapability())
	srv.AddTool(&Tool{Name: "t", Handler: func(*Exchange, map[string]interface{}) (interface{}, error) {
		return "ok", nil
	}})
	srv.AddPrompt(&Prompt{Name: "p", Handler: func(*Exchange, map[string]string) (interface{}, error) {
		return nil, nil
	}})
	srv.SetResources(NewLookupResources(true))
	srv.SetCompletion("ref/prompt", "p", func(*Exchange, string, string) (interface{}, error) {
		return []string{}, nil
	})
	log := &sentLog{}
	sess := srv.Connect(log.send)

	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2025-06-18","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`))
	_, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)

	caps := result["capabilities"].(map[string]interface{})
	assert.Contains(t, caps, "logging")
	assert.Contains(t, caps, "completions")
	assert.Equal(t, map[string]interface{}{"listChanged": true}, caps["tools"])
	assert.Equal(t, map[string]interface{}{"listChanged": false}, caps["prompts"])
	assert.Equal(t, map[string]interface{}{"subscribe": true, "listChanged": false}, caps["resources"])
}

func TestCapabilityAdvertisementEmpty(t *testing.T) {
	_, sess, _ := testSetup(t)
	resp := sess.Handle([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{` +
		`"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`))
	_, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)
	caps := result["capabilities"].(map[string]interface{})
	assert.NotContains(t, caps, "tools")
	assert.NotContains(t, caps, "prompts")
	assert.NotContains(t, caps, "resources")
	assert.NotContains(t, caps, "logging")
	assert.NotContains(t, caps, "completions")
}
