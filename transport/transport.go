// Package transport defines the Transport contract over the session core.
// stdio.Transport implements it; the HTTP and WebSocket adapters are
// http.Handlers with a Close method, served by their packages' Run functions.
//
// An adapter owns the byte-level framing of one transport kind. For every
// connection it creates a session, binds its write path, feeds inbound frames
// into Session.HandleMessage, and writes the direct responses back out.
package transport

import "context"

// Transport is a running adapter bound to a server.
type Transport interface {
	// Run serves connections until ctx is done or the underlying medium is
	// exhausted (e.g. stdin EOF).
	Run(ctx context.Context) error

	// Close releases the adapter's resources.
	Close() error
}
