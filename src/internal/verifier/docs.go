// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package verifier drives a complete chain verification for the command-line
// and MCP front ends.
//
// A [Verifier] owns the trust store, the OCSP response cache and the network
// fetcher built from one [config.Config]. Each call to [Verifier.Verify] runs
// the verification context through its whole lifecycle: build and verify,
// download missing issuers through Authority Information Access and rebuild,
// retry along another path after a signature failure, commit the accepted
// path, and finally resolve OCSP status for every certificate below the root
// from the stapled response, the cache or the responder.
//
// See [x509chain.Context] for the state machine itself and [x509ocsp.Cache]
// for the cache semantics.
package verifier
