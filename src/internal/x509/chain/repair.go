// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"fmt"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
)

// CommitToChain replaces the contents of the shared untrusted stack with the
// built chain minus the leaf, so later rebuilds start from the known path.
//
// Returns:
//   - error: [ErrNoChain] when nothing has been built
func (c *Context) CommitToChain() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.built || len(c.chain) == 0 {
		return ErrNoChain
	}

	c.untrusted.Replace(c.chain[1:])
	return nil
}

// ResetForSignatureError prepares a context whose last verification failed with
// [StatusCertSignatureFailure] for a second attempt along a different path.
//
// Every certificate at or below the failing depth is replaced, in the target
// and in the untrusted stack, by an independent duplicate. The failing
// subject/issuer pair is remembered so path building will not choose it again.
// The context is re-bound to a new trust-only store holding duplicates of the
// old roots plus the duplicates made here, and reset.
//
// Returns:
//   - *x509store.Store: the store the context is now bound to
//   - error: [ErrNoChain] or [ErrNotSignatureError] when the context is not in that state
func (c *Context) ResetForSignatureError() (*x509store.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.built || len(c.chain) == 0 {
		return nil, ErrNoChain
	}
	if c.status != StatusCertSignatureFailure {
		return nil, ErrNotSignatureError
	}

	failing := c.depth
	if failing < 0 || failing+1 >= len(c.chain) {
		return nil, fmt.Errorf("%w: error depth %d has no issuer", ErrNotSignatureError, failing)
	}

	dups := make([]*x509.Certificate, 0, failing+1)
	for _, orig := range c.chain[:failing+1] {
		dup, err := x509certs.Duplicate(orig)
		if err != nil {
			return nil, err
		}
		dups = append(dups, dup)
	}

	roots := c.store.Roots()
	trusted := make([]*x509.Certificate, 0, len(roots)+len(dups))
	for _, root := range roots {
		dup, err := x509certs.Duplicate(root)
		if err != nil {
			return nil, err
		}
		trusted = append(trusted, dup)
	}
	trusted = append(trusted, dups...)

	// The context is modified only after every duplicate exists.
	c.rejected[edge{
		subject: x509certs.FingerprintOf(c.chain[failing]),
		issuer:  x509certs.FingerprintOf(c.chain[failing+1]),
	}] = struct{}{}

	c.target = dups[0]
	for i, dup := range dups[1:] {
		if orig := c.chain[i+1]; !c.untrusted.Swap(orig, dup) {
			c.untrusted.Push(dup)
		}
	}

	c.store = x509store.NewTrustOnly(trusted...)
	c.resetLocked()
	return c.store, nil
}
