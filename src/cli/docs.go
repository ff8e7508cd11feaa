// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the X.509 chain verifier.
// It implements a Cobra-based CLI with a verify command that builds and checks a
// certificate chain from files or a live TLS endpoint, and an ocsp command group
// that builds OCSP requests and inspects the on-disk response cache. Reports are
// rendered as an ASCII tree, a markdown table or JSON. The package handles file
// I/O, context cancellation, and integrates with the logger package for
// progress output and error reporting.
package cli
