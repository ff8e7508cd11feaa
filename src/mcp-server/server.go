// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/verifier"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/version"
)

const serverName = "X509 Certificate Chain Verifier" // MCP server name

var appVersion = version.Version // default version

// GetVersion returns the current version of the MCP server.
func GetVersion() string {
	return appVersion
}

// Run starts the MCP server on stdio.
//
// Configuration comes from the file named by X509_VERIFIER_CONFIG_FILE, see
// [config.Load]. Logs are written as JSON lines to stderr because stdout
// carries the protocol.
//
// Parameters:
//   - version: Version string to report (e.g., "0.1.0")
//
// Returns:
//   - error: Startup or transport error, or the shutdown cause after SIGINT/SIGTERM
func Run(version string) error {
	appVersion = version
	log := logger.NewJSONLogger(os.Stderr, "mcp-server", false)

	cfg, err := config.Load("")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	store, err := cfg.LoadStore(log)
	if err != nil {
		return fmt.Errorf("failed to load trust store: %w", err)
	}
	v, err := verifier.New(cfg, store, version, log)
	if err != nil {
		return err
	}

	s, err := NewServerBuilder().
		WithVersion(version).
		WithVerifier(v).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("serving %d trusted roots, OCSP cache at %s", store.Len(), v.Cache().Dir())

	stdioServer := server.NewStdioServer(s)
	errChan := make(chan error, 1)
	go func() {
		errChan <- stdioServer.Listen(ctx, os.Stdin, os.Stdout)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	}
}
