package protocol

// --- Resource Structures ---

// Resource describes an addressable content item fetched by URI.
type Resource struct {
	URI         string       `json:"uri"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// ResourceTemplate describes a parameterized resource URI.
type ResourceTemplate struct {
	URITemplate string       `json:"uriTemplate"`
	Name        string       `json:"name,omitempty"`
	Description string       `json:"description,omitempty"`
	MimeType    string       `json:"mimeType,omitempty"`
	Annotations *Annotations `json:"annotations,omitempty"`
}

// ListResourcesParams defines the parameters for a 'resources/list' request.
type ListResourcesParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// ListResourcesResult defines the result payload for a 'resources/list' response.
type ListResourcesResult struct {
	Resources  []Resource `json:"resources"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ReadResourceParams defines the parameters for a 'resources/read' request.
type ReadResourceParams struct {
	URI  string       `json:"uri"`
	Meta *RequestMeta `json:"_meta,omitempty"`
}

// ReadResourceResult defines the result payload for a 'resources/read' response.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// SubscribeParams defines the parameters for 'resources/subscribe' and
// 'resources/unsubscribe' requests.
type SubscribeParams struct {
	URI string `json:"uri"`
}

// SubscribeResult echoes the URI after delegating to the provider.
type SubscribeResult struct {
	URI string `json:"uri"`
}

// ListResourceTemplatesResult defines the result payload for a
// 'resources/templates/list' response.
type ListResourceTemplatesResult struct {
	ResourceTemplates []ResourceTemplate `json:"resourceTemplates"`
}

// ResourceUpdatedParams defines parameters for 'notifications/resources/updated'.
type ResourceUpdatedParams struct {
	URI string `json:"uri"`
}
