package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalMalformedReturnsFailure(t *testing.T) {
	c := NewJSON()
	v, failure := c.Unmarshal([]byte(`{broken`))
	assert.Nil(t, v)
	require.NotNil(t, failure)
	assert.NotEmpty(t, failure.Message)
}

func TestRoundTrip(t *testing.T) {
	c := NewJSON()
	in := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      float64(1),
		"method":  "ping",
		"params":  map[string]interface{}{"k": []interface{}{"a", float64(2), true, nil}},
	}
	data, err := c.Marshal(in)
	require.NoError(t, err)
	out, failure := c.Unmarshal(data)
	require.Nil(t, failure)
	assert.Equal(t, in, out)
}

func TestUnmarshalScalars(t *testing.T) {
	c := NewJSON()
	v, failure := c.Unmarshal([]byte(`42`))
	require.Nil(t, failure)
	assert.Equal(t, float64(42), v)

	v, failure = c.Unmarshal([]byte(`[]`))
	require.Nil(t, failure)
	assert.Equal(t, []interface{}{}, v)
}
