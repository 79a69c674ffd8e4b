package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type searchArgs struct {
	Query    string   `json:"query" description:"search terms"`
	Limit    int      `json:"limit,omitempty"`
	Fuzzy    bool     `json:"fuzzy,omitempty"`
	Score    *float64 `json:"score"`
	Tags     []string `json:"tags,omitempty"`
	internal string   //nolint:unused
	Skipped  string   `json:"-"`
}

func TestFromStruct(t *testing.T) {
	s := FromStruct(searchArgs{})
	assert.Equal(t, "object", s.Type)
	assert.Equal(t, []string{"query"}, s.Required)

	require.Contains(t, s.Properties, "query")
	assert.Equal(t, "string", s.Properties["query"].Type)
	assert.Equal(t, "search terms", s.Properties["query"].Description)
	assert.Equal(t, "integer", s.Properties["limit"].Type)
	assert.Equal(t, "boolean", s.Properties["fuzzy"].Type)
	assert.Equal(t, "number", s.Properties["score"].Type)
	assert.Equal(t, "array", s.Properties["tags"].Type)
	assert.NotContains(t, s.Properties, "internal")
	assert.NotContains(t, s.Properties, "Skipped")
}

func TestFromStructUntaggedFieldUsesWireName(t *testing.T) {
	type args struct {
		MimeType string
	}
	s := FromStruct(args{})
	assert.Contains(t, s.Properties, "mimeType")
}

func TestFromStructNonStruct(t *testing.T) {
	s := FromStruct(42)
	assert.Equal(t, "object", s.Type)
	assert.Empty(t, s.Properties)
}

func TestDecodeArguments(t *testing.T) {
	var args searchArgs
	err := DecodeArguments(map[string]interface{}{
		"query": "golang",
		"limit": float64(10),
		"fuzzy": true,
		"tags":  []interface{}{"a", "b"},
	}, &args)
	require.NoError(t, err)
	assert.Equal(t, "golang", args.Query)
	assert.Equal(t, 10, args.Limit)
	assert.True(t, args.Fuzzy)
	assert.Equal(t, []string{"a", "b"}, args.Tags)
}
