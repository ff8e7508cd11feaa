// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// x509-chain-verifier is a command-line tool for building and verifying X.509
// certificate chains and checking their revocation status.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/x509-chain-verifier/cmd/x509-chain-verifier@latest
//
// # Usage
//
//	x509-chain-verifier [--config FILE] verify [CERT_FILE] [FLAGS]
//	x509-chain-verifier [--config FILE] ocsp request|status|inspect ...
//
// # Verify Flags
//
//	-r, --remote     Fetch the chain from a TLS server, HOST[:PORT]
//	-u, --untrusted  Additional untrusted intermediates
//	    --hostname   Hostname the leaf must match
//	    --email      Email address the leaf must match
//	    --ip         IP address the leaf must match
//	    --purpose    Required extended key usages (serverAuth, clientAuth, ...)
//	    --at         Verification time (RFC 3339)
//	    --max-depth  Maximum number of intermediates
//	    --ocsp       Check revocation through OCSP
//	-f, --format     tree, table or json
//	-o, --output     Destination file (default: stdout)
//
// # Environment Variables
//
//	X509_VERIFIER_CONFIG_FILE  Path to configuration file (alternative to --config)
//	X509_VERIFIER_OCSP_CACHE   OCSP response cache directory
//
// # Examples
//
// Verify a PEM bundle (leaf first) against the configured roots:
//
//	x509-chain-verifier verify chain.pem --hostname example.com
//
// Verify a live server including OCSP:
//
//	x509-chain-verifier verify --remote example.com:443 --ocsp --format table
//
// Show what the OCSP cache holds for a chain:
//
//	x509-chain-verifier ocsp status chain.pem
package main
