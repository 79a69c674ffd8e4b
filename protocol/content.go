package protocol

// --- Content Structures ---

// Content defines the interface for the content variants carried in tool
// results, prompt messages and sampling messages.
type Content interface {
	ContentType() string
}

// Annotations defines optional metadata for content parts.
type Annotations struct {
	Audience []string `json:"audience,omitempty"` // subset of {"user","assistant"}
	Priority *float64 `json:"priority,omitempty"`
}

// TextContent represents textual content.
type TextContent struct {
	Type        string       `json:"type"` // always "text"
	Text        string       `json:"text"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (c TextContent) ContentType() string { return "text" }

// NewTextContent creates a TextContent for the given text.
func NewTextContent(text string) TextContent {
	return TextContent{Type: "text", Text: text}
}

// ImageContent represents base64-encoded image content.
type ImageContent struct {
	Type        string       `json:"type"` // always "image"
	Data        string       `json:"data"`
	MimeType    string       `json:"mimeType"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (c ImageContent) ContentType() string { return "image" }

// AudioContent represents base64-encoded audio content.
type AudioContent struct {
	Type        string       `json:"type"` // always "audio"
	Data        string       `json:"data"`
	MimeType    string       `json:"mimeType"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

func (c AudioContent) ContentType() string { return "audio" }

// EmbeddedResource represents a resource embedded into a content list.
type EmbeddedResource struct {
	Type        string           `json:"type"` // always "resource"
	Resource    ResourceContents `json:"resource"`
	Annotations *Annotations     `json:"annotations,omitempty"`
}

func (c EmbeddedResource) ContentType() string { return "resource" }

// ResourceContents is the body of a read resource or embedded resource. Text
// carries string bodies; Blob carries base64-encoded binary bodies. Exactly one
// of the two is set.
type ResourceContents struct {
	URI      string `json:"uri,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// Message is a role-tagged content item as used in prompt responses.
type Message struct {
	Role    string  `json:"role,omitempty"`
	Content Content `json:"content"`
}
