// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-chain-verifier-mcp is a Model Context Protocol (MCP) server that exposes
// X.509 chain verification to AI assistants and automation clients over stdio.
//
// # Installation
//
//	go install github.com/H0llyW00dzZ/x509-chain-verifier/cmd/x509-chain-verifier-mcp@latest
//
// # Environment Variables
//
//	X509_VERIFIER_CONFIG_FILE  Path to configuration file (JSON or YAML)
//	X509_VERIFIER_OCSP_CACHE   OCSP response cache directory
//
// # MCP Tools
//
//   - verify_cert_chain: Build and verify a chain, optionally with OCSP
//   - check_ocsp_cache: Report cached OCSP statuses for a chain
//   - build_ocsp_request: Build the OCSP request for a chain element
package main
