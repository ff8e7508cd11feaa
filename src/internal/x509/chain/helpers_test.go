// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/require"

	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
)

// newContext initializes a context over store for leaf with the given untrusted certificates.
func newContext(t *testing.T, store *x509store.Store, leaf *x509.Certificate, untrusted ...*x509.Certificate) *x509chain.Context {
	t.Helper()

	ctx := x509chain.NewContext()
	require.NoError(t, ctx.Init(store, leaf, x509store.NewStack(untrusted...)))
	return ctx
}

// verify runs Verify and fails the test on misuse errors.
func verify(t *testing.T, ctx *x509chain.Context) x509chain.VerifyStatus {
	t.Helper()

	status, err := ctx.Verify()
	require.NoError(t, err)
	return status
}
