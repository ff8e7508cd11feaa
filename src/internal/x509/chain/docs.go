// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain implements [X.509] certificate chain building and validation.
//
// A [Context] is bound to a trust store, a target certificate and a shared stack
// of untrusted certificates. [Context.Verify] builds a path from the target to a
// trusted self-signed root and validates it stage by stage:
//   - trust anchoring
//   - critical extensions, CA markings, key usage, path length and extended key usage
//   - name constraints (DNS, email, IP and URI subtrees)
//   - hostname, email and IP identity of the leaf
//   - [CRL] revocation at the positions selected by the store's revocation flag
//   - signatures and validity windows, top down
//
// Each outcome is a [VerifyStatus] carrying a stable numeric code. A [VerifyCallback]
// sees every failure and may accept it so verification continues.
//
// When a path fails with [StatusCertSignatureFailure], [Context.ResetForSignatureError]
// isolates the failing edge so a rebuild can find an alternate issuer, and
// [Context.CommitToChain] seeds the untrusted stack with a known-good path.
//
// [X.509]: https://grokipedia.com/page/X.509
// [CRL]: https://grokipedia.com/page/Certificate_revocation_list
package x509chain
