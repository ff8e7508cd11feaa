// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ocsp_test

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/testutil"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
)

const cacheDir = "/var/cache/x509-chain-verifier/ocsp"

// fixture is a verified leaf → intermediate → root context with a cache on an
// in-memory filesystem whose clock the test controls.
type fixture struct {
	ch    *testutil.Chain
	ctx   *x509chain.Context
	fs    afero.Fs
	now   time.Time
	cache *x509ocsp.Cache
}

func newFixture(t *testing.T, opts ...x509ocsp.Option) *fixture {
	t.Helper()

	ch, err := testutil.NewChain(1)
	require.NoError(t, err)

	ctx := x509chain.NewContext()
	require.NoError(t, ctx.Init(x509store.NewTrustOnly(ch.Root.Cert), ch.Leaf.Cert, x509store.NewStack(ch.IntermediateCerts()...)))
	status, err := ctx.Verify()
	require.NoError(t, err)
	require.Equal(t, x509chain.StatusOK, status)

	f := &fixture{
		ch:  ch,
		ctx: ctx,
		fs:  afero.NewMemMapFs(),
		now: time.Now().Truncate(time.Second),
	}
	f.cache = f.newCache(t, opts...)
	return f
}

// newCache opens another cache over the fixture's filesystem and clock.
func (f *fixture) newCache(t *testing.T, opts ...x509ocsp.Option) *x509ocsp.Cache {
	t.Helper()

	base := []x509ocsp.Option{
		x509ocsp.WithFs(f.fs),
		x509ocsp.WithClock(func() time.Time { return f.now }),
	}
	cache, err := x509ocsp.NewCache(cacheDir, append(base, opts...)...)
	require.NoError(t, err)
	return cache
}

// leafResponse signs a response about the leaf with the intermediate, or with responder when set.
func (f *fixture) leafResponse(t *testing.T, status int, thisUpdate, nextUpdate time.Time, responder *testutil.Authority) []byte {
	t.Helper()

	raw, err := f.ch.Intermediates[0].OCSPResponse(f.ch.Leaf.Cert, status, thisUpdate, nextUpdate, responder)
	require.NoError(t, err)
	return raw
}

func (f *fixture) leafRequest(t *testing.T) *x509ocsp.Request {
	t.Helper()

	req, err := x509ocsp.BuildChainRequest(f.ctx, 0)
	require.NoError(t, err)
	return req
}
