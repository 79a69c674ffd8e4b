// Package logx provides the logger used throughout the library.
package logx

import (
	"log"
	"os"
	"sync"

	"github.com/RokLenarcic/mcp-server/protocol"
)

// Logger defines the interface for logging within the library. It allows for
// different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
}

// DefaultLogger provides a basic logger implementation using the standard log
// package, filtered by an MCP logging level.
type DefaultLogger struct {
	logger *log.Logger
	level  protocol.LoggingLevel
	mu     sync.Mutex
}

// NewDefaultLogger creates a new logger writing to stderr at info level.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "[mcp] ", log.LstdFlags|log.Lmsgprefix),
		level:  protocol.LogLevelInfo,
	}
}

// NewLogger creates a new stderr logger filtered at the given MCP level name.
// Unknown names fall back to info.
func NewLogger(level string) *DefaultLogger {
	l := NewDefaultLogger()
	if protocol.IsValidLoggingLevel(protocol.LoggingLevel(level)) {
		l.level = protocol.LoggingLevel(level)
	}
	return l
}

// SetLevel changes the level the logger filters at.
func (l *DefaultLogger) SetLevel(level protocol.LoggingLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

func (l *DefaultLogger) Debug(msg string, args ...interface{}) {
	l.logf(protocol.LogLevelDebug, "DEBUG: "+msg, args...)
}

func (l *DefaultLogger) Info(msg string, args ...interface{}) {
	l.logf(protocol.LogLevelInfo, "INFO: "+msg, args...)
}

func (l *DefaultLogger) Warn(msg string, args ...interface{}) {
	l.logf(protocol.LogLevelWarning, "WARN: "+msg, args...)
}

func (l *DefaultLogger) Error(msg string, args ...interface{}) {
	l.logf(protocol.LogLevelError, "ERROR: "+msg, args...)
}

func (l *DefaultLogger) logf(level protocol.LoggingLevel, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if Severity(level) < Severity(l.level) {
		return
	}
	l.logger.Printf(msg, args...)
}

// Severity maps an MCP level name to its syslog-style rank; debug is lowest.
func Severity(level protocol.LoggingLevel) int {
	switch level {
	case protocol.LogLevelDebug:
		return 0
	case protocol.LogLevelInfo:
		return 1
	case protocol.LogLevelNotice:
		return 2
	case protocol.LogLevelWarning:
		return 3
	case protocol.LogLevelError:
		return 4
	case protocol.LogLevelCritical:
		return 5
	case protocol.LogLevelAlert:
		return 6
	case protocol.LogLevelEmergency:
		return 7
	default:
		return 1
	}
}

// Nop is a logger that discards everything.
type Nop struct{}

func (Nop) Debug(string, ...interface{}) {}
func (Nop) Info(string, ...interface{})  {}
func (Nop) Warn(string, ...interface{})  {}
func (Nop) Error(string, ...interface{}) {}

var _ Logger = (*DefaultLogger)(nil)
var _ Logger = Nop{}
