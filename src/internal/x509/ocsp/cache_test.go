// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ocsp_test

import (
	"crypto/x509"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ocsp"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/testutil"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
)

func TestCacheLookup(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Miss Before Any Response",
			testFunc: func(t *testing.T) {
				f := newFixture(t)

				got := f.cache.Lookup(f.ctx, 0)
				assert.Equal(t, x509ocsp.Miss, got.Result)
				assert.Equal(t, x509chain.StatusUnableToGetCRL, got.Status)
			},
		},
		{
			name: "Good Response Is Cached Until NextUpdate",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				next := f.now.Add(time.Hour)
				raw := f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), next, nil)

				status, err := f.cache.VerifyResponse(f.ctx, f.leafRequest(t), raw, 0)
				require.NoError(t, err)
				assert.Equal(t, x509chain.StatusOK, status)

				name := x509certs.IdentityHash(f.ch.Intermediates[0].Cert) + "." + f.ch.Leaf.Cert.SerialNumber.Text(16) + ".ocsp"
				exists, err := afero.Exists(f.fs, filepath.Join(cacheDir, name))
				require.NoError(t, err)
				assert.True(t, exists, "expected cache file %s", name)

				got := f.cache.Lookup(f.ctx, 0)
				assert.Equal(t, x509ocsp.Hit, got.Result)
				assert.Equal(t, x509chain.StatusOK, got.Status)
				assert.True(t, next.Equal(got.Expires))

				f.now = next.Add(-time.Second)
				assert.Equal(t, x509ocsp.Hit, f.cache.Lookup(f.ctx, 0).Result)

				f.now = next
				assert.Equal(t, x509ocsp.Expired, f.cache.Lookup(f.ctx, 0).Result)

				f.now = next.Add(time.Hour)
				got = f.cache.Lookup(f.ctx, 0)
				assert.Equal(t, x509ocsp.Expired, got.Result)
				assert.Equal(t, x509chain.StatusUnableToGetCRL, got.Status)
			},
		},
		{
			name: "NextUpdate Already Past Is Cached As Expired",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				raw := f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(-time.Minute), nil)

				status, err := f.cache.VerifyResponse(f.ctx, f.leafRequest(t), raw, 0)
				require.NoError(t, err)
				assert.Equal(t, x509chain.StatusOK, status)

				assert.Equal(t, x509ocsp.Expired, f.cache.Lookup(f.ctx, 0).Result)
			},
		},
		{
			name: "Missing NextUpdate Uses Default Lifetime",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				raw := f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), time.Time{}, nil)

				_, err := f.cache.VerifyResponse(f.ctx, f.leafRequest(t), raw, 0)
				require.NoError(t, err)

				got := f.cache.Lookup(f.ctx, 0)
				assert.Equal(t, x509ocsp.Hit, got.Result)
				assert.True(t, f.now.Add(x509ocsp.DefaultLifetime).Equal(got.Expires))

				f.now = f.now.Add(x509ocsp.DefaultLifetime)
				assert.Equal(t, x509ocsp.Expired, f.cache.Lookup(f.ctx, 0).Result)
			},
		},
		{
			name: "Custom Lifetime",
			testFunc: func(t *testing.T) {
				f := newFixture(t, x509ocsp.WithDefaultLifetime(time.Minute))
				raw := f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), time.Time{}, nil)

				_, err := f.cache.VerifyResponse(f.ctx, f.leafRequest(t), raw, 0)
				require.NoError(t, err)
				assert.True(t, f.now.Add(time.Minute).Equal(f.cache.Lookup(f.ctx, 0).Expires))
			},
		},
		{
			name: "Revoked Response Is Cached",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				raw := f.leafResponse(t, ocsp.Revoked, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil)

				status, err := f.cache.VerifyResponse(f.ctx, f.leafRequest(t), raw, 0)
				require.NoError(t, err)
				assert.Equal(t, x509chain.StatusCertRevoked, status)

				got := f.cache.Lookup(f.ctx, 0)
				assert.Equal(t, x509ocsp.Hit, got.Result)
				assert.Equal(t, x509chain.StatusCertRevoked, got.Status)
			},
		},
		{
			name: "Entries Survive Across Cache Instances",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				raw := f.leafResponse(t, ocsp.Revoked, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil)
				_, err := f.cache.VerifyResponse(f.ctx, f.leafRequest(t), raw, 0)
				require.NoError(t, err)

				other := f.newCache(t, x509ocsp.WithMemoryEntries(0))
				got := other.Lookup(f.ctx, 0)
				assert.Equal(t, x509ocsp.Hit, got.Result)
				assert.Equal(t, x509chain.StatusCertRevoked, got.Status)
			},
		},
		{
			name: "Unreadable Entry Is A Miss",
			testFunc: func(t *testing.T) {
				f := newFixture(t, x509ocsp.WithMemoryEntries(0))
				name := x509certs.IdentityHash(f.ch.Intermediates[0].Cert) + "." + f.ch.Leaf.Cert.SerialNumber.Text(16) + ".ocsp"
				require.NoError(t, afero.WriteFile(f.fs, filepath.Join(cacheDir, name), []byte("{not json"), 0o600))

				assert.Equal(t, x509ocsp.Miss, f.cache.Lookup(f.ctx, 0).Result)
			},
		},
		{
			name: "Root Answers For Itself",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				req, err := x509ocsp.BuildChainRequest(f.ctx, 2)
				require.NoError(t, err)
				assert.Same(t, f.ch.Root.Cert, req.Issuer)

				raw, err := f.ch.Root.OCSPResponse(f.ch.Root.Cert, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil)
				require.NoError(t, err)

				status, err := f.cache.VerifyResponse(f.ctx, req, raw, 2)
				require.NoError(t, err)
				assert.Equal(t, x509chain.StatusOK, status)
				assert.Equal(t, x509ocsp.Hit, f.cache.Lookup(f.ctx, 2).Result)
				assert.Equal(t, x509ocsp.Miss, f.cache.Lookup(f.ctx, 1).Result)
			},
		},
		{
			name: "Out Of Range Depth",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				assert.Equal(t, x509ocsp.Miss, f.cache.Lookup(f.ctx, 3).Result)
				assert.Equal(t, x509ocsp.Miss, f.cache.Lookup(f.ctx, -1).Result)
				assert.Equal(t, x509ocsp.Miss, f.cache.Lookup(nil, 0).Result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestVerifyResponseRejects(t *testing.T) {
	tests := []struct {
		name    string
		respond func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int)
		wantErr error
	}{
		{
			name: "Unknown Status",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				return f.leafResponse(t, ocsp.Unknown, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil), f.leafRequest(t), 0
			},
			wantErr: x509ocsp.ErrUnknownStatus,
		},
		{
			name: "Stale Response",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				return f.leafResponse(t, ocsp.Good, f.now.Add(-2*time.Hour), f.now.Add(-time.Hour), nil), f.leafRequest(t), 0
			},
			wantErr: x509ocsp.ErrResponseExpired,
		},
		{
			name: "Response From The Future",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				return f.leafResponse(t, ocsp.Good, f.now.Add(time.Hour), f.now.Add(2*time.Hour), nil), f.leafRequest(t), 0
			},
			wantErr: x509ocsp.ErrResponseNotYetValid,
		},
		{
			name: "Signed By An Impostor",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				impostor, err := testutil.NewRoot(f.ch.Intermediates[0].Cert.Subject.CommonName)
				require.NoError(t, err)
				raw, err := impostor.OCSPResponse(f.ch.Leaf.Cert, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil)
				require.NoError(t, err)
				return raw, f.leafRequest(t), 0
			},
			wantErr: x509ocsp.ErrMalformedResponse,
		},
		{
			name: "Answer About Another Certificate",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				other, err := f.ch.Intermediates[0].Issue("other.example.com", false)
				require.NoError(t, err)
				raw, err := f.ch.Intermediates[0].OCSPResponse(other.Cert, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil)
				require.NoError(t, err)
				return raw, f.leafRequest(t), 0
			},
			wantErr: x509ocsp.ErrMalformedResponse,
		},
		{
			name: "Delegated Responder Without OCSP Signing",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				responder, err := f.ch.Intermediates[0].Issue("OCSP Responder", false, testutil.WithExtKeyUsage(x509.ExtKeyUsageServerAuth))
				require.NoError(t, err)
				return f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Hour), responder), f.leafRequest(t), 0
			},
			wantErr: x509ocsp.ErrUnauthorizedResponder,
		},
		{
			name: "Request Built For Another Depth",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				req, err := x509ocsp.BuildChainRequest(f.ctx, 1)
				require.NoError(t, err)
				return f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil), req, 0
			},
			wantErr: x509ocsp.ErrRequestMismatch,
		},
		{
			name: "Garbage Bytes",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				return []byte("not an ocsp response"), f.leafRequest(t), 0
			},
			wantErr: x509ocsp.ErrMalformedResponse,
		},
		{
			name: "Nil Request",
			respond: func(t *testing.T, f *fixture) ([]byte, *x509ocsp.Request, int) {
				return f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Hour), nil), nil, 0
			},
			wantErr: x509ocsp.ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			raw, req, depth := tt.respond(t, f)

			status, err := f.cache.VerifyResponse(f.ctx, req, raw, depth)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, x509chain.StatusUnableToGetCRL, status)
			assert.Equal(t, x509ocsp.Miss, f.cache.Lookup(f.ctx, 0).Result)
		})
	}

	t.Run("Nil Context", func(t *testing.T) {
		f := newFixture(t)
		status, err := f.cache.VerifyResponse(nil, f.leafRequest(t), nil, 0)
		require.ErrorIs(t, err, x509ocsp.ErrNilContext)
		assert.Equal(t, x509chain.StatusUnableToGetCRL, status)
	})
}

func TestDelegatedResponder(t *testing.T) {
	f := newFixture(t)
	responder, err := f.ch.Intermediates[0].Issue("OCSP Responder", false, testutil.WithExtKeyUsage(x509.ExtKeyUsageOCSPSigning))
	require.NoError(t, err)

	raw := f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Hour), responder)
	status, err := f.cache.VerifyResponse(f.ctx, f.leafRequest(t), raw, 0)
	require.NoError(t, err)
	assert.Equal(t, x509chain.StatusOK, status)
}

func TestNewCache(t *testing.T) {
	_, err := x509ocsp.NewCache("")
	require.ErrorIs(t, err, x509ocsp.ErrEmptyCacheDir)

	fs := afero.NewMemMapFs()
	cache, err := x509ocsp.NewCache("/nested/cache/dir", x509ocsp.WithFs(fs), x509ocsp.WithSkew(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "/nested/cache/dir", cache.Dir())

	isDir, err := afero.IsDir(fs, "/nested/cache/dir")
	require.NoError(t, err)
	assert.True(t, isDir)

	assert.Equal(t, "hit", x509ocsp.Hit.String())
	assert.Equal(t, "expired", x509ocsp.Expired.String())
	assert.Equal(t, "miss", x509ocsp.Miss.String())
}

func TestConcurrentWritersShareDirectory(t *testing.T) {
	f := newFixture(t)
	dir := t.TempDir()
	raw := f.leafResponse(t, ocsp.Good, time.Now().Add(-time.Hour), time.Now().Add(time.Hour), nil)
	req := f.leafRequest(t)

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cache, err := x509ocsp.NewCache(dir)
			if err != nil {
				errs <- err
				return
			}
			if _, err := cache.VerifyResponse(f.ctx, req, raw, 0); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	entries, err := afero.ReadDir(afero.NewOsFs(), dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".ocsp"))

	cache, err := x509ocsp.NewCache(dir, x509ocsp.WithMemoryEntries(0))
	require.NoError(t, err)
	assert.Equal(t, x509ocsp.Hit, cache.Lookup(f.ctx, 0).Result)
}

func TestLookupSeesRefreshByAnotherCache(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "Refreshed Entry Replaces Expired Memory Entry",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				req := f.leafRequest(t)

				short := f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Minute), nil)
				status, err := f.cache.VerifyResponse(f.ctx, req, short, 0)
				require.NoError(t, err)
				require.Equal(t, x509chain.StatusOK, status)
				require.Equal(t, x509ocsp.Hit, f.cache.Lookup(f.ctx, 0).Result)

				f.now = f.now.Add(2 * time.Minute)
				other := f.newCache(t)
				revoked := f.leafResponse(t, ocsp.Revoked, f.now.Add(-time.Minute), f.now.Add(time.Hour), nil)
				status, err = other.VerifyResponse(f.ctx, req, revoked, 0)
				require.NoError(t, err)
				require.Equal(t, x509chain.StatusCertRevoked, status)

				got := f.cache.Lookup(f.ctx, 0)
				assert.Equal(t, x509ocsp.Hit, got.Result)
				assert.Equal(t, x509chain.StatusCertRevoked, got.Status)
				assert.Equal(t, f.now.Add(time.Hour).UTC(), got.Expires.UTC())
			},
		},
		{
			name: "Expired Entry Without Refresh Stays Expired",
			testFunc: func(t *testing.T) {
				f := newFixture(t)
				req := f.leafRequest(t)

				short := f.leafResponse(t, ocsp.Good, f.now.Add(-time.Hour), f.now.Add(time.Minute), nil)
				_, err := f.cache.VerifyResponse(f.ctx, req, short, 0)
				require.NoError(t, err)

				f.now = f.now.Add(2 * time.Minute)
				assert.Equal(t, x509ocsp.Expired, f.cache.Lookup(f.ctx, 0).Result)
				assert.Equal(t, x509ocsp.Expired, f.newCache(t).Lookup(f.ctx, 0).Result)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}
