// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509store holds the trust material a chain verification runs against:
// a [Store] of trusted roots and revocation lists with a [RevocationFlag] policy,
// and [Stack], an ordered, shareable set of untrusted certificates.
//
// Certificates are shared by pointer. Adding a certificate to a store or stack
// never copies it; use [x509certs.Duplicate] when an independent value is needed.
//
// A Store is safe for concurrent use but is intended to be populated once and
// then treated as frozen while verifications run against it.
//
// [x509certs.Duplicate]: https://pkg.go.dev/github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs#Duplicate
package x509store
