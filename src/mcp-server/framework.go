// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"errors"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/verifier"
)

// ErrNoVerifier is returned by [ServerBuilder.Build] without a verifier.
var ErrNoVerifier = errors.New("mcpserver: verifier is required")

// ServerBuilder assembles an [server.MCPServer] from a verifier.
//
// Example usage:
//
//	s, err := NewServerBuilder().
//		WithVersion(version).
//		WithVerifier(v).
//		Build()
type ServerBuilder struct {
	version  string
	verifier *verifier.Verifier
}

// NewServerBuilder creates an empty builder.
func NewServerBuilder() *ServerBuilder {
	return &ServerBuilder{version: appVersion}
}

// WithVersion sets the version reported to clients.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.version = version
	return b
}

// WithVerifier sets the verifier the tools run against.
func (b *ServerBuilder) WithVerifier(v *verifier.Verifier) *ServerBuilder {
	b.verifier = v
	return b
}

// Build creates the server with every tool and resource registered.
//
// Returns:
//   - *server.MCPServer: Ready server
//   - error: [ErrNoVerifier] when no verifier was set
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	if b.verifier == nil {
		return nil, ErrNoVerifier
	}

	s := server.NewMCPServer(
		serverName,
		b.version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	tools := createTools(&toolHandlers{verifier: b.verifier})
	s.AddTools(tools...)
	s.AddResources(createResources(b.version, tools)...)
	return s, nil
}
