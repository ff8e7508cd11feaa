// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package logger provides abstraction and implementation for logging operations.
// It defines the Logger interface and provides CLILogger for human-readable
// command-line output, JSONLogger for structured JSON lines in the MCP server
// and Discard for library callers that want no output. JSONLogger is thread-safe
// and encodes through the shared buffer pool.
package logger
