package server

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RokLenarcic/mcp-server/protocol"
)

func TestCreateMessageWithoutCapabilityReturnsNil(t *testing.T) {
	_, sess, log := testSetup(t)
	handshake(t, sess, "")
	exch := &Exchange{sess: sess}
	resp, err := exch.CreateMessage(context.Background(), &SamplingRequest{}, nil)
	require.NoError(t, err)
	assert.Nil(t, resp)
	assert.Empty(t, log.all())
}

func TestCreateMessageRoundTrip(t *testing.T) {
	_, sess, log := testSetup(t)
	handshake(t, sess, `{"sampling":{}}`)

	intelligence := 0.8
	req := &SamplingRequest{
		Messages: []protocol.SamplingMessage{
			{Role: "user", Content: protocol.NewTextContent("summarize this")},
		},
		ModelPreferences: &protocol.ModelPreferences{
			Hints:                []protocol.ModelHint{{Name: "claude"}},
			IntelligencePriority: &intelligence,
		},
		SystemPrompt: "be terse",
		MaxTokens:    128,
	}

	type outcome struct {
		resp *SamplingResponse
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		exch := &Exchange{sess: sess}
		resp, err := exch.CreateMessage(context.Background(), req, nil)
		done <- outcome{resp, err}
	}()

	waitFor(t, func() bool { return log.count() > 0 }, "outbound sampling request")
	var envelope struct {
		ID     float64                `json:"id"`
		Method string                 `json:"method"`
		Params map[string]interface{} `json:"params"`
	}
	require.NoError(t, json.Unmarshal(log.all()[0], &envelope))
	assert.Equal(t, "sampling/createMessage", envelope.Method)
	assert.Equal(t, "be terse", envelope.Params["systemPrompt"])
	assert.Equal(t, float64(128), envelope.Params["maxTokens"])
	prefs := envelope.Params["modelPreferences"].(map[string]interface{})
	assert.Equal(t, 0.8, prefs["intelligencePriority"])

	frame := fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":{"role":"assistant",`+
		`"content":{"type":"text","text":"short"},"model":"claude-x","stopReason":"endTurn"}}`, int64(envelope.ID))
	require.Nil(t, sess.Handle([]byte(frame)))

	out := <-done
	require.NoError(t, out.err)
	require.NotNil(t, out.resp)
	assert.Equal(t, "assistant", out.resp.Role)
	assert.Equal(t, "claude-x", out.resp.Model)
}
