package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RokLenarcic/mcp-server/protocol"
)

func completeRequest(refType, name, argName, argValue string) []byte {
	return []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":1,"method":"completion/complete","params":{`+
		`"ref":{"type":"%s","name":"%s"},"argument":{"name":"%s","value":"%s"}}}`,
		refType, name, argName, argValue))
}

func TestCompletionSpecificHandler(t *testing.T) {
	srv, sess, _ := testSetup(t)
	srv.SetCompletion("ref/prompt", "greet", func(exch *Exchange, argName, argValue string) (interface{}, error) {
		assert.Equal(t, "name", argName)
		assert.Equal(t, "al", argValue)
		return []string{"alice", "albert"}, nil
	})
	handshake(t, sess, "")

	resp := sess.Handle(completeRequest("ref/prompt", "greet", "name", "al"))
	_, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)
	completion := result["completion"].(map[string]interface{})
	assert.Equal(t, []interface{}{"alice", "albert"}, completion["values"])
	assert.Equal(t, float64(2), completion["total"])
	assert.Equal(t, false, completion["hasMore"])
}

func TestCompletionDefaultHandler(t *testing.T) {
	srv, sess, _ := testSetup(t)
	srv.SetDefaultCompletion(func(exch *Exchange, refType, refName, argName, argValue string) (interface{}, error) {
		return []string{refType + "/" + refName + "/" + argName}, nil
	})
	handshake(t, sess, "")

	resp := sess.Handle(completeRequest("ref/resource", "db", "table", ""))
	_, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)
	completion := result["completion"].(map[string]interface{})
	assert.Equal(t, []interface{}{"ref/resource/db/table"}, completion["values"])
}

func TestCompletionNotFound(t *testing.T) {
	_, sess, _ := testSetup(t)
	handshake(t, sess, "")
	resp := sess.Handle(completeRequest("ref/prompt", "nope", "x", ""))
	_, _, errObj := decodeResponse(t, resp)
	require.NotNil(t, errObj)
	assert.Equal(t, float64(-32602), errObj["code"])
	assert.Equal(t, "Completion ref/prompt/nope not found", errObj["message"])
}

func TestCompletionTruncation(t *testing.T) {
	srv, sess, _ := testSetup(t)
	many := make([]string, 150)
	for i := range many {
		many[i] = fmt.Sprintf("v%03d", i)
	}
	srv.SetCompletion("ref/prompt", "big", func(*Exchange, string, string) (interface{}, error) {
		return many, nil
	})
	handshake(t, sess, "")

	resp := sess.Handle(completeRequest("ref/prompt", "big", "x", ""))
	_, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)
	completion := result["completion"].(map[string]interface{})
	assert.Len(t, completion["values"], 100)
	assert.Equal(t, float64(150), completion["total"])
	assert.Equal(t, true, completion["hasMore"])
}

func TestCompletionExplicitTotal(t *testing.T) {
	srv, sess, _ := testSetup(t)
	total := 40
	srv.SetCompletion("ref/prompt", "p", func(*Exchange, string, string) (interface{}, error) {
		return &protocol.Completion{Values: []string{"a", "b"}, Total: &total}, nil
	})
	handshake(t, sess, "")

	resp := sess.Handle(completeRequest("ref/prompt", "p", "x", ""))
	_, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)
	completion := result["completion"].(map[string]interface{})
	assert.Equal(t, float64(40), completion["total"])
	// Items below total: more results exist beyond the supplied values.
	assert.Equal(t, true, completion["hasMore"])
}

func TestCompletionExplicitTotalExhausted(t *testing.T) {
	srv, sess, _ := testSetup(t)
	total := 2
	srv.SetCompletion("ref/prompt", "p", func(*Exchange, string, string) (interface{}, error) {
		return &protocol.Completion{Values: []string{"a", "b"}, Total: &total}, nil
	})
	handshake(t, sess, "")

	resp := sess.Handle(completeRequest("ref/prompt", "p", "x", ""))
	_, result, errObj := decodeResponse(t, resp)
	require.Nil(t, errObj)
	completion := result["completion"].(map[string]interface{})
	assert.Equal(t, false, completion["hasMore"])
}
