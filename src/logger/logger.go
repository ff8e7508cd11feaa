// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package logger

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/gc"
)

// Logger defines the interface for logging operations.
//
// The verifier packages accept any Logger; the CLI passes a [CLILogger] and the
// [MCP] server a [JSONLogger] so tool traffic on stdio stays clean.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type Logger interface {
	// Printf formats and prints a log message.
	Printf(format string, v ...any)
	// Println prints a log message with a newline.
	Println(v ...any)
	// SetOutput sets the output destination for the logger.
	SetOutput(w io.Writer)
}

// CLILogger implements Logger using the standard log package.
// It's designed for command-line interface output with human-readable formatting.
type CLILogger struct{ logger *log.Logger }

// NewCLILogger creates a new CLI logger with timestamps disabled.
// This is suitable for user-facing CLI output.
func NewCLILogger() *CLILogger {
	l := log.New(os.Stdout, "", 0)
	return &CLILogger{logger: l}
}

// Printf formats and prints a log message using fmt.Printf semantics.
func (c *CLILogger) Printf(format string, v ...any) { c.logger.Printf(format, v...) }

// Println prints a log message with a newline.
func (c *CLILogger) Println(v ...any) { c.logger.Println(v...) }

// SetOutput sets the output destination for the CLI logger.
func (c *CLILogger) SetOutput(w io.Writer) { c.logger.SetOutput(w) }

// JSONLogger implements Logger with one JSON object per line.
//
// Each entry carries a level, a UTC timestamp, the component name given at
// construction and the message. Silent loggers drop everything, which is the
// default for the MCP stdio transport.
//
// JSONLogger is safe for concurrent use by multiple goroutines.
type JSONLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	silent    bool
	component string
	now       func() time.Time
}

// NewJSONLogger creates a new JSON line logger.
//
// Parameters:
//   - writer: Destination, io.Discard when nil
//   - component: Value of the "component" field, omitted when empty
//   - silent: Suppress all output
//
// Returns:
//   - *JSONLogger: Configured logger
func NewJSONLogger(writer io.Writer, component string, silent bool) *JSONLogger {
	if writer == nil {
		writer = io.Discard
	}
	return &JSONLogger{
		writer:    writer,
		silent:    silent,
		component: component,
		now:       time.Now,
	}
}

type entry struct {
	Level     string `json:"level"`
	Time      string `json:"time"`
	Component string `json:"component,omitempty"`
	Message   string `json:"message"`
}

func (m *JSONLogger) write(msg string) {
	if m.silent {
		return
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	if err := json.NewEncoder(buf).Encode(entry{
		Level:     "info",
		Time:      m.now().UTC().Format(time.RFC3339Nano),
		Component: m.component,
		Message:   msg,
	}); err != nil {
		return
	}

	m.mu.Lock()
	m.writer.Write(buf.Bytes())
	m.mu.Unlock()
}

// Printf formats and logs a structured message.
// Output is suppressed if silent mode is enabled.
func (m *JSONLogger) Printf(format string, v ...any) { m.write(fmt.Sprintf(format, v...)) }

// Println logs a structured message built with fmt.Sprint semantics.
// Output is suppressed if silent mode is enabled.
func (m *JSONLogger) Println(v ...any) { m.write(fmt.Sprint(v...)) }

// SetOutput sets the output destination for the JSON logger.
//
// SetOutput is safe for concurrent use by multiple goroutines.
func (m *JSONLogger) SetOutput(w io.Writer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if w == nil {
		m.writer = io.Discard
	} else {
		m.writer = w
	}
}

type discard struct{}

func (discard) Printf(string, ...any) {}
func (discard) Println(...any)        {}
func (discard) SetOutput(io.Writer)   {}

// Discard is a Logger that drops every message. Packages use it when the
// caller supplies no logger.
var Discard Logger = discard{}

// OrDiscard returns l, or [Discard] when l is nil.
func OrDiscard(l Logger) Logger {
	if l == nil {
		return Discard
	}
	return l
}
