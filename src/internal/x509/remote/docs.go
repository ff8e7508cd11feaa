// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509remote holds the network collaborators of the verifier: issuer
// download through the Authority Information Access extension, OCSP queries
// over HTTP POST and TLS handshakes that capture a server's presented chain and
// stapled OCSP response.
//
// All operations take a [context.Context]; response bodies are read through the
// shared buffer pool and capped at [MaxResponseSize].
package x509remote
