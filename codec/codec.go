// Package codec defines the pluggable JSON serializer used by the session
// core. The default implementation is backed by encoding/json; alternative
// codecs only need to produce and consume generic value trees
// (map[string]interface{}, []interface{}, string, float64, bool, nil).
package codec

import "encoding/json"

// ParseFailure is the distinguished value a codec returns for malformed input.
// Decoding never panics and never reports failure through a Go error; the wire
// parser turns a ParseFailure into a JSON-RPC parse error item.
type ParseFailure struct {
	Message string
}

// Codec converts between serialized text and generic value trees.
type Codec interface {
	// Marshal serializes a value tree or a tagged struct to text.
	Marshal(v interface{}) ([]byte, error)

	// Unmarshal deserializes text into a generic value tree. Malformed input
	// yields a non-nil ParseFailure carrying the underlying message.
	Unmarshal(data []byte) (interface{}, *ParseFailure)
}

// JSON is the default codec backed by encoding/json.
type JSON struct{}

// NewJSON returns the default JSON codec.
func NewJSON() JSON { return JSON{} }

// Marshal implements Codec.
func (JSON) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements Codec.
func (JSON) Unmarshal(data []byte) (interface{}, *ParseFailure) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, &ParseFailure{Message: err.Error()}
	}
	return v, nil
}
