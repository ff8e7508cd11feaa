// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver provides the [MCP] server exposing [X509] chain verification
// to AI assistants and automation clients over stdio.
//
// Tools:
//   - verify_cert_chain: Build and verify a chain from a file, base64 data or a TLS endpoint
//   - check_ocsp_cache: Report what the OCSP response cache holds for a chain
//   - build_ocsp_request: Build the OCSP request for a chain element
//
// Resources:
//   - info://version: Version and tool list
//   - config://schema: JSON schema of the configuration file
//
// [X509]: https://grokipedia.com/page/X.509
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
