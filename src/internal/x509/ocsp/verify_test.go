// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ocsp_test

import (
	"crypto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
)

func TestBuildRequest(t *testing.T) {
	f := newFixture(t)
	leaf, issuer := f.ch.Leaf.Cert, f.ch.Intermediates[0].Cert

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Explicit Pair",
			testFunc: func(t *testing.T) {
				req, err := x509ocsp.BuildRequest(leaf, issuer)
				require.NoError(t, err)

				assert.Same(t, leaf, req.Subject)
				assert.Same(t, issuer, req.Issuer)
				assert.Equal(t, crypto.SHA1, req.Parsed.HashAlgorithm)
				assert.Zero(t, req.Parsed.SerialNumber.Cmp(leaf.SerialNumber))

				parsed, err := ocsp.ParseRequest(req.DER)
				require.NoError(t, err)
				assert.Equal(t, req.Parsed.IssuerNameHash, parsed.IssuerNameHash)
			},
		},
		{
			name: "Chain Position Matches Explicit Pair",
			testFunc: func(t *testing.T) {
				explicit, err := x509ocsp.BuildRequest(leaf, issuer)
				require.NoError(t, err)
				fromChain, err := x509ocsp.BuildChainRequest(f.ctx, 0)
				require.NoError(t, err)

				assert.Equal(t, explicit.DER, fromChain.DER)
			},
		},
		{
			name: "Unresolved Issuer",
			testFunc: func(t *testing.T) {
				_, err := x509ocsp.BuildRequest(leaf, nil)
				assert.ErrorIs(t, err, x509ocsp.ErrIssuerUnresolved)

				_, err = x509ocsp.BuildRequest(nil, issuer)
				assert.ErrorIs(t, err, x509certs.ErrNilCertificate)

				_, err = x509ocsp.BuildChainRequest(f.ctx, 3)
				assert.ErrorIs(t, err, x509ocsp.ErrIssuerUnresolved)

				_, err = x509ocsp.BuildChainRequest(nil, 0)
				assert.ErrorIs(t, err, x509ocsp.ErrNilContext)
			},
		},
		{
			name: "Unbuilt Context",
			testFunc: func(t *testing.T) {
				ctx := x509chain.NewContext()
				require.NoError(t, ctx.Init(x509store.NewTrustOnly(f.ch.Root.Cert), leaf, nil))

				_, err := x509ocsp.BuildChainRequest(ctx, 0)
				assert.ErrorIs(t, err, x509ocsp.ErrIssuerUnresolved)
			},
		},
		{
			name: "Top Of Partial Chain Has No Issuer",
			testFunc: func(t *testing.T) {
				ctx := x509chain.NewContext()
				require.NoError(t, ctx.Init(x509store.NewTrustOnly(), leaf, x509store.NewStack(issuer)))
				status, err := ctx.Verify()
				require.NoError(t, err)
				require.NotEqual(t, x509chain.StatusOK, status)
				require.Len(t, ctx.Chain(), 2)

				_, err = x509ocsp.BuildChainRequest(ctx, 1)
				assert.ErrorIs(t, err, x509ocsp.ErrIssuerUnresolved)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestDecodeToExpiration(t *testing.T) {
	f := newFixture(t)
	leaf, issuer := f.ch.Leaf.Cert, f.ch.Intermediates[0].Cert
	now := time.Now().Truncate(time.Second)

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Good With NextUpdate",
			testFunc: func(t *testing.T) {
				next := now.Add(2 * time.Hour)
				raw := f.leafResponse(t, ocsp.Good, now.Add(-time.Hour), next, nil)

				exp, err := x509ocsp.DecodeToExpiration(raw, f.leafRequest(t), leaf, issuer)
				require.NoError(t, err)
				assert.True(t, next.Equal(exp), "got %s", exp)
			},
		},
		{
			name: "Revoked Is Still Valid Bytes",
			testFunc: func(t *testing.T) {
				next := now.Add(time.Hour)
				raw := f.leafResponse(t, ocsp.Revoked, now.Add(-time.Hour), next, nil)

				exp, err := x509ocsp.DecodeToExpiration(raw, f.leafRequest(t), leaf, issuer)
				require.NoError(t, err)
				assert.True(t, next.Equal(exp))
			},
		},
		{
			name: "No NextUpdate",
			testFunc: func(t *testing.T) {
				raw := f.leafResponse(t, ocsp.Good, now.Add(-time.Hour), time.Time{}, nil)

				exp, err := x509ocsp.DecodeToExpiration(raw, f.leafRequest(t), leaf, issuer)
				require.NoError(t, err)
				assert.True(t, exp.IsZero())
			},
		},
		{
			name: "Nothing Is Cached",
			testFunc: func(t *testing.T) {
				raw := f.leafResponse(t, ocsp.Good, now.Add(-time.Hour), now.Add(time.Hour), nil)
				_, err := x509ocsp.DecodeToExpiration(raw, f.leafRequest(t), leaf, issuer)
				require.NoError(t, err)

				assert.Equal(t, x509ocsp.Miss, f.cache.Lookup(f.ctx, 0).Result)
			},
		},
		{
			name: "Failures",
			testFunc: func(t *testing.T) {
				good := f.leafResponse(t, ocsp.Good, now.Add(-time.Hour), now.Add(time.Hour), nil)
				unknown := f.leafResponse(t, ocsp.Unknown, now.Add(-time.Hour), now.Add(time.Hour), nil)

				_, err := x509ocsp.DecodeToExpiration([]byte{0x30, 0x03, 0x0a, 0x01}, f.leafRequest(t), leaf, issuer)
				assert.ErrorIs(t, err, x509ocsp.ErrMalformedResponse)

				_, err = x509ocsp.DecodeToExpiration(unknown, f.leafRequest(t), leaf, issuer)
				assert.ErrorIs(t, err, x509ocsp.ErrUnknownStatus)

				_, err = x509ocsp.DecodeToExpiration(good, f.leafRequest(t), issuer, f.ch.Root.Cert)
				assert.ErrorIs(t, err, x509ocsp.ErrRequestMismatch)

				_, err = x509ocsp.DecodeToExpiration(good, nil, leaf, issuer)
				assert.ErrorIs(t, err, x509ocsp.ErrInvalidRequest)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestHasStapledOCSP(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	tests := []struct {
		name   string
		staple func(t *testing.T, f *fixture) []byte
		want   bool
	}{
		{
			name:   "No Staple",
			staple: func(t *testing.T, f *fixture) []byte { return nil },
		},
		{
			name: "Good",
			staple: func(t *testing.T, f *fixture) []byte {
				return f.leafResponse(t, ocsp.Good, now.Add(-time.Hour), now.Add(time.Hour), nil)
			},
			want: true,
		},
		{
			name: "Revoked",
			staple: func(t *testing.T, f *fixture) []byte {
				return f.leafResponse(t, ocsp.Revoked, now.Add(-time.Hour), now.Add(time.Hour), nil)
			},
			want: true,
		},
		{
			name: "Unknown",
			staple: func(t *testing.T, f *fixture) []byte {
				return f.leafResponse(t, ocsp.Unknown, now.Add(-time.Hour), now.Add(time.Hour), nil)
			},
		},
		{
			name: "Stale",
			staple: func(t *testing.T, f *fixture) []byte {
				return f.leafResponse(t, ocsp.Good, now.Add(-3*time.Hour), now.Add(-2*time.Hour), nil)
			},
		},
		{
			name: "About The Intermediate",
			staple: func(t *testing.T, f *fixture) []byte {
				raw, err := f.ch.Root.OCSPResponse(f.ch.Intermediates[0].Cert, ocsp.Good, now.Add(-time.Hour), now.Add(time.Hour), nil)
				require.NoError(t, err)
				return raw
			},
		},
		{
			name:   "Garbage",
			staple: func(t *testing.T, f *fixture) []byte { return []byte("stapled") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.ctx.SetStapledOCSP(tt.staple(t, f))
			assert.Equal(t, tt.want, x509ocsp.HasStapledOCSP(f.ctx))
		})
	}

	t.Run("Needs A Built Chain", func(t *testing.T) {
		f := newFixture(t)
		raw := f.leafResponse(t, ocsp.Good, now.Add(-time.Hour), now.Add(time.Hour), nil)

		ctx := x509chain.NewContext()
		require.NoError(t, ctx.Init(x509store.NewTrustOnly(f.ch.Root.Cert), f.ch.Leaf.Cert, x509store.NewStack(f.ch.IntermediateCerts()...)))
		ctx.SetStapledOCSP(raw)
		assert.False(t, x509ocsp.HasStapledOCSP(ctx))

		_, err := ctx.Verify()
		require.NoError(t, err)
		assert.True(t, x509ocsp.HasStapledOCSP(ctx))
		assert.False(t, x509ocsp.HasStapledOCSP(nil))
	})
}
