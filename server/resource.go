package server

import (
	"encoding/base64"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// ResourceHandlerFunc produces the body of one resource. The returned value
// is normalized: strings become text contents, bytes and streams become
// base64 blobs, ResourceContents values pass through.
type ResourceHandlerFunc func(exch *Exchange, uri string) (interface{}, error)

// ResourceEntry is a concrete resource descriptor held by a provider.
type ResourceEntry struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Handler     ResourceHandlerFunc
}

func (r *ResourceEntry) public() protocol.Resource {
	return protocol.Resource{
		URI:         r.URI,
		Name:        r.Name,
		Description: r.Description,
		MimeType:    r.MimeType,
	}
}

// Resources is the pluggable provider behind the resources/* handler family.
type Resources interface {
	// SupportsListChanged reports whether the provider emits
	// notifications/resources/list_changed.
	SupportsListChanged() bool

	// SupportsSubscriptions reports whether resources/subscribe is honored.
	SupportsSubscriptions() bool

	// List returns the resource catalogue. The request's cursor is passed in;
	// LookupResources ignores it and never sets a next cursor.
	List(exch *Exchange, cursor string) (*protocol.ListResourcesResult, error)

	// Get resolves a descriptor by URI; nil means not found.
	Get(exch *Exchange, uri string) (*ResourceEntry, error)

	// Subscribe registers interest in updates for uri.
	Subscribe(exch *Exchange, uri string) error

	// Unsubscribe removes interest in updates for uri.
	Unsubscribe(exch *Exchange, uri string) error

	// IsSubscribed reports whether uri is currently subscribed.
	IsSubscribed(exch *Exchange, uri string) bool
}

var errResourcesUnsupported = protocol.NewInvalidParamsError("Resources are not supported")

func (s *Session) provider() Resources {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resources
}

func (s *Session) handleListResources(exch *Exchange, params interface{}) (interface{}, error) {
	provider := s.provider()
	if provider == nil {
		return nil, errResourcesUnsupported
	}
	var p protocol.ListResourcesParams
	_ = protocol.DecodeParams(params, &p)
	return provider.List(exch, p.Cursor)
}

func (s *Session) handleReadResource(exch *Exchange, params interface{}) (interface{}, error) {
	provider := s.provider()
	if provider == nil {
		return nil, errResourcesUnsupported
	}
	var p protocol.ReadResourceParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid resources/read parameters: " + err.Error())
	}
	entry, err := provider.Get(exch, p.URI)
	if err != nil {
		return nil, err
	}
	if entry == nil {
		return nil, protocol.NewResourceNotFoundError(p.URI)
	}
	body, err := entry.Handler(exch, p.URI)
	if err != nil {
		return nil, err
	}
	contents, err := normalizeResourceContents(body, entry)
	if err != nil {
		return nil, err
	}
	return protocol.ReadResourceResult{Contents: contents}, nil
}

func (s *Session) handleSubscribeResource(exch *Exchange, params interface{}) (interface{}, error) {
	provider := s.provider()
	if provider == nil {
		return nil, errResourcesUnsupported
	}
	var p protocol.SubscribeParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid resources/subscribe parameters: " + err.Error())
	}
	if err := provider.Subscribe(exch, p.URI); err != nil {
		return nil, err
	}
	return protocol.SubscribeResult{URI: p.URI}, nil
}

func (s *Session) handleUnsubscribeResource(exch *Exchange, params interface{}) (interface{}, error) {
	provider := s.provider()
	if provider == nil {
		return nil, errResourcesUnsupported
	}
	var p protocol.SubscribeParams
	if err := protocol.DecodeParams(params, &p); err != nil {
		return nil, protocol.NewInvalidParamsError("Invalid resources/unsubscribe parameters: " + err.Error())
	}
	if err := provider.Unsubscribe(exch, p.URI); err != nil {
		return nil, err
	}
	return protocol.SubscribeResult{URI: p.URI}, nil
}

func (s *Session) handleListResourceTemplates(exch *Exchange, params interface{}) (interface{}, error) {
	if s.provider() == nil {
		return nil, errResourcesUnsupported
	}
	s.mu.Lock()
	templates := s.templates
	s.mu.Unlock()
	if templates == nil {
		templates = []protocol.ResourceTemplate{}
	}
	return protocol.ListResourceTemplatesResult{ResourceTemplates: templates}, nil
}

// normalizeResourceContents converts a resource handler's return value into
// the wire contents list. String bodies become {uri, mimeType, text}; byte
// and stream bodies become {uri, mimeType, blob}.
func normalizeResourceContents(body interface{}, entry *ResourceEntry) ([]protocol.ResourceContents, error) {
	switch t := body.(type) {
	case protocol.ResourceContents:
		fillDefaults(&t, entry)
		return []protocol.ResourceContents{t}, nil
	case []protocol.ResourceContents:
		for i := range t {
			fillDefaults(&t[i], entry)
		}
		return t, nil
	case string:
		mime := entry.MimeType
		if mime == "" {
			mime = "text/plain"
		}
		return []protocol.ResourceContents{{URI: entry.URI, MimeType: mime, Text: t}}, nil
	case []byte:
		return []protocol.ResourceContents{blobContents(entry, t)}, nil
	case io.Reader:
		data, err := io.ReadAll(t)
		if err != nil {
			return nil, fmt.Errorf("reading resource stream for %s: %w", entry.URI, err)
		}
		return []protocol.ResourceContents{blobContents(entry, data)}, nil
	default:
		return nil, fmt.Errorf("resource handler for %s returned unsupported type %T", entry.URI, body)
	}
}

func blobContents(entry *ResourceEntry, data []byte) protocol.ResourceContents {
	mime := entry.MimeType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return protocol.ResourceContents{
		URI:      entry.URI,
		MimeType: mime,
		Blob:     base64.StdEncoding.EncodeToString(data),
	}
}

func fillDefaults(c *protocol.ResourceContents, entry *ResourceEntry) {
	if c.URI == "" {
		c.URI = entry.URI
	}
	if c.MimeType == "" {
		c.MimeType = entry.MimeType
	}
}

// LookupResources is the default in-memory provider: a uri -> descriptor map.
// Subscriptions are recorded on the session of the subscribing exchange.
type LookupResources struct {
	mu          sync.RWMutex
	entries     map[string]*ResourceEntry
	subscribable bool
}

// NewLookupResources creates an empty lookup provider. subscribable controls
// whether the subscribe capability is advertised and honored.
func NewLookupResources(subscribable bool) *LookupResources {
	return &LookupResources{entries: map[string]*ResourceEntry{}, subscribable: subscribable}
}

// Add registers a resource descriptor.
func (l *LookupResources) Add(entry *ResourceEntry) {
	l.mu.Lock()
	l.entries[entry.URI] = entry
	l.mu.Unlock()
}

// Remove deletes a resource descriptor by URI.
func (l *LookupResources) Remove(uri string) {
	l.mu.Lock()
	delete(l.entries, uri)
	l.mu.Unlock()
}

func (l *LookupResources) SupportsListChanged() bool   { return false }
func (l *LookupResources) SupportsSubscriptions() bool { return l.subscribable }

func (l *LookupResources) List(exch *Exchange, cursor string) (*protocol.ListResourcesResult, error) {
	l.mu.RLock()
	uris := make([]string, 0, len(l.entries))
	for uri := range l.entries {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	resources := make([]protocol.Resource, 0, len(uris))
	for _, uri := range uris {
		resources = append(resources, l.entries[uri].public())
	}
	l.mu.RUnlock()
	return &protocol.ListResourcesResult{Resources: resources}, nil
}

func (l *LookupResources) Get(exch *Exchange, uri string) (*ResourceEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries[uri], nil
}

func (l *LookupResources) Subscribe(exch *Exchange, uri string) error {
	sess := exch.Session()
	sess.mu.Lock()
	sess.subscriptions[uri] = struct{}{}
	sess.mu.Unlock()
	return nil
}

func (l *LookupResources) Unsubscribe(exch *Exchange, uri string) error {
	sess := exch.Session()
	sess.mu.Lock()
	delete(sess.subscriptions, uri)
	sess.mu.Unlock()
	return nil
}

func (l *LookupResources) IsSubscribed(exch *Exchange, uri string) bool {
	sess := exch.Session()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	_, ok := sess.subscriptions[uri]
	return ok
}

var _ Resources = (*LookupResources)(nil)
