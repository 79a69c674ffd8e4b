// Package stdio provides the line-framed transport adapter over two byte
// streams: one envelope or batch array per newline-delimited UTF-8 line.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"sync"

	"github.com/RokLenarcic/mcp-server/logx"
	"github.com/RokLenarcic/mcp-server/server"
)

// maxLineSize bounds a single inbound line.
const maxLineSize = 4 * 1024 * 1024

// Transport reads envelopes from an input stream and writes responses to an
// output stream. EOF on the input stops the loop and clears the session's
// output slot.
type Transport struct {
	core   *server.Server
	in     io.Reader
	out    io.Writer
	logger logx.Logger

	writeMu sync.Mutex
	closed  bool
	closeMu sync.Mutex
}

// Option configures a Transport.
type Option func(*Transport)

// WithStreams replaces os.Stdin/os.Stdout, e.g. for tests or pipes.
func WithStreams(in io.Reader, out io.Writer) Option {
	return func(t *Transport) {
		t.in = in
		t.out = out
	}
}

// WithLogger sets the transport logger.
func WithLogger(logger logx.Logger) Option {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// New creates a stdio transport bound to core.
func New(core *server.Server, opts ...Option) *Transport {
	t := &Transport{
		core:   core,
		in:     os.Stdin,
		out:    os.Stdout,
		logger: logx.NewDefaultLogger(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Run serves the connection until EOF or ctx cancellation. One session spans
// the whole stream.
func (t *Transport) Run(ctx context.Context) error {
	sess := t.core.Connect(t.send)
	if closer, ok := t.out.(io.Closer); ok {
		sess.Bind(t.send, closer)
	}
	defer t.core.Disconnect(sess)

	scanner := bufio.NewScanner(t.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		// Copy: the scanner reuses its buffer on the next Scan.
		msg := make([]byte, len(line))
		copy(msg, line)

		if resp := sess.Handle(msg); resp != nil {
			if err := sess.Send(resp); err != nil {
				t.logger.Warn("stdio: failed to write response: %v", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		t.logger.Error("stdio: read loop failed: %v", err)
		return err
	}
	t.logger.Info("stdio: input reached EOF")
	return nil
}

// send writes one envelope followed by a newline and flushes.
func (t *Transport) send(data []byte) error {
	t.closeMu.Lock()
	if t.closed {
		t.closeMu.Unlock()
		return io.ErrClosedPipe
	}
	t.closeMu.Unlock()

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	data = bytes.TrimRight(data, "\n")
	data = append(data, '\n')
	if _, err := t.out.Write(data); err != nil {
		return err
	}
	if flusher, ok := t.out.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

// Close marks the transport closed; subsequent writes fail.
func (t *Transport) Close() error {
	t.closeMu.Lock()
	defer t.closeMu.Unlock()
	t.closed = true
	return nil
}
