// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package verifier

import (
	"context"
	"crypto/x509"
	"fmt"

	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
)

// CacheStatus is the cached OCSP state of one chain element.
type CacheStatus struct {
	Depth  int
	Cert   *x509.Certificate
	Lookup x509ocsp.Lookup
}

// CacheStatus builds the chain of req.Leaf without network access and reports
// the cache entry of every certificate below the root. Nothing is queried or
// written.
//
// Returns:
//   - []CacheStatus: One element per depth, leaf first
//   - x509chain.VerifyStatus: Outcome of the chain verification
//   - error: Misuse, such as a missing leaf
func (v *Verifier) CacheStatus(_ context.Context, req Request) ([]CacheStatus, x509chain.VerifyStatus, error) {
	vctx, status, err := v.verifyOffline(req)
	if err != nil {
		return nil, status, err
	}

	chain := vctx.Chain()
	out := make([]CacheStatus, 0, len(chain))
	for depth := 0; depth < len(chain)-1; depth++ {
		out = append(out, CacheStatus{
			Depth:  depth,
			Cert:   chain[depth],
			Lookup: v.cache.Lookup(vctx, depth),
		})
	}
	return out, status, nil
}

// BuildRequest builds the OCSP request for the certificate at depth of the
// chain of req.Leaf, built without network access.
func (v *Verifier) BuildRequest(_ context.Context, req Request, depth int) (*x509ocsp.Request, error) {
	vctx, status, err := v.verifyOffline(req)
	if err != nil {
		return nil, err
	}

	ocspReq, err := x509ocsp.BuildChainRequest(vctx, depth)
	if err != nil {
		return nil, fmt.Errorf("%w (chain status: %s)", err, status)
	}
	return ocspReq, nil
}

func (v *Verifier) verifyOffline(req Request) (*x509chain.Context, x509chain.VerifyStatus, error) {
	if req.Leaf == nil {
		return nil, x509chain.StatusOK, ErrNoLeaf
	}

	vctx := x509chain.NewContext()
	if err := vctx.Init(v.store, req.Leaf, x509store.NewStack(req.Intermediates...)); err != nil {
		return nil, x509chain.StatusOK, err
	}
	vctx.SetParams(req.Params)

	status, err := vctx.Verify()
	return vctx, status, err
}
