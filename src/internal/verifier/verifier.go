// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package verifier

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/config"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
	x509remote "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/remote"
	x509store "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
)

// MaxRepairs bounds the alternate paths tried after signature failures.
const MaxRepairs = 3

// Revocation labels used in [Result.Revocation].
const (
	RevocationGood    = "good"
	RevocationRevoked = "revoked"
	RevocationUnknown = "unknown"
)

// ErrNoLeaf is returned when a request carries no leaf certificate.
var ErrNoLeaf = errors.New("verifier: leaf certificate is required")

// Verifier verifies chains against one trust store and OCSP cache.
type Verifier struct {
	cfg     *config.Config
	store   *x509store.Store
	cache   *x509ocsp.Cache
	fetcher *x509remote.Fetcher
	log     logger.Logger
}

// Request describes one verification.
type Request struct {
	Leaf          *x509.Certificate
	Intermediates []*x509.Certificate
	// Stapled is a DER OCSP response for the leaf, as stapled by a TLS server.
	Stapled []byte
	Params  x509chain.Params
	// OCSP enables revocation checking of every certificate below the root.
	OCSP bool
}

// Result is the outcome of [Verifier.Verify].
type Result struct {
	Status     x509chain.VerifyStatus
	ErrorDepth int
	Report     *x509chain.Report
	// Revocation maps decimal serial numbers to good, revoked or unknown.
	Revocation map[string]string
	// Cached counts OCSP statuses answered without a network query.
	Cached int
	// Fetched counts issuers downloaded through AIA.
	Fetched int
	// Repairs counts alternate paths tried after signature failures.
	Repairs int
}

// Accepted reports whether the chain verified and nothing was revoked.
func (r *Result) Accepted() bool { return r.Status == x509chain.StatusOK }

// New creates a Verifier.
//
// Parameters:
//   - cfg: Effective configuration, see [config.Load]
//   - store: Trust store, usually from [config.Config.LoadStore]
//   - version: Application version for the HTTP User-Agent
//   - log: Logger for progress and soft failures, nil for none
//
// Returns:
//   - *Verifier: Ready verifier
//   - error: Error if the OCSP cache directory cannot be created
func New(cfg *config.Config, store *x509store.Store, version string, log logger.Logger) (*Verifier, error) {
	log = logger.OrDiscard(log)

	cache, err := x509ocsp.NewCache(cfg.OCSP.CacheDir, cfg.CacheOptions(log)...)
	if err != nil {
		return nil, fmt.Errorf("verifier: %w", err)
	}

	fetcher := x509remote.NewFetcher(version, log)
	fetcher.HTTP.Timeout = cfg.Timeout()
	fetcher.HTTP.UserAgent = cfg.Network.UserAgent

	return &Verifier{
		cfg:     cfg,
		store:   store,
		cache:   cache,
		fetcher: fetcher,
		log:     log,
	}, nil
}

// Config returns the configuration the verifier was built from.
func (v *Verifier) Config() *config.Config { return v.cfg }

// Store returns the trust store.
func (v *Verifier) Store() *x509store.Store { return v.store }

// Cache returns the OCSP response cache.
func (v *Verifier) Cache() *x509ocsp.Cache { return v.cache }

// Fetcher returns the network fetcher.
func (v *Verifier) Fetcher() *x509remote.Fetcher { return v.fetcher }

// Verify builds and verifies the chain of req.Leaf.
//
// Verification failures are reported in the Result, never as an error.
//
// Parameters:
//   - ctx: Context for downloads
//   - req: What to verify
//
// Returns:
//   - *Result: Outcome, report and revocation statuses
//   - error: Misuse, such as a missing leaf
func (v *Verifier) Verify(ctx context.Context, req Request) (*Result, error) {
	if req.Leaf == nil {
		return nil, ErrNoLeaf
	}

	untrusted := x509store.NewStack(req.Intermediates...)
	vctx := x509chain.NewContext()
	if err := vctx.Init(v.store, req.Leaf, untrusted); err != nil {
		return nil, err
	}
	vctx.SetParams(req.Params)
	if len(req.Stapled) > 0 {
		vctx.SetStapledOCSP(req.Stapled)
	}

	res := &Result{}
	status, err := vctx.Verify()
	if err != nil {
		return nil, err
	}

	if missingIssuer(status) && v.cfg.Network.FetchIssuers {
		status = v.fetchAndRebuild(ctx, vctx, untrusted, res, status)
	}

	for status == x509chain.StatusCertSignatureFailure && res.Repairs < MaxRepairs {
		if _, err := vctx.ResetForSignatureError(); err != nil {
			v.log.Printf("chain repair: %v", err)
			break
		}
		res.Repairs++
		if status, err = vctx.Verify(); err != nil {
			return nil, err
		}
	}

	res.Status = status
	res.ErrorDepth = vctx.ErrorDepth()
	if status == x509chain.StatusOK {
		if err := vctx.CommitToChain(); err != nil {
			v.log.Printf("commit chain: %v", err)
		}
		if req.OCSP {
			v.resolveRevocation(ctx, vctx, res)
		}
	}

	res.Report = vctx.Report(res.Accepted())
	if res.Status == x509chain.StatusCertRevoked {
		res.Report.Status = res.Status
		res.Report.ErrorDepth = res.ErrorDepth
	}
	return res, nil
}

func missingIssuer(status x509chain.VerifyStatus) bool {
	return status == x509chain.StatusUnableToGetIssuerCertLocally ||
		status == x509chain.StatusUnableToVerifyLeafSignature
}

// fetchAndRebuild downloads issuers of the topmost certificate built so far
// into the untrusted stack and verifies again.
func (v *Verifier) fetchAndRebuild(ctx context.Context, vctx *x509chain.Context, untrusted *x509store.Stack, res *Result, status x509chain.VerifyStatus) x509chain.VerifyStatus {
	chain := vctx.Chain()
	if len(chain) == 0 {
		return status
	}

	issuers, err := v.fetcher.FetchIssuers(ctx, chain[len(chain)-1], v.cfg.Network.MaxHops)
	if err != nil {
		v.log.Printf("fetch issuers: %v", err)
	}
	if len(issuers) == 0 {
		return status
	}

	untrusted.Push(issuers...)
	res.Fetched = len(issuers)

	rebuilt, err := vctx.Rebuild()
	if err != nil {
		v.log.Printf("rebuild: %v", err)
		return status
	}
	return rebuilt
}

// resolveRevocation records the OCSP status of every certificate below the
// root. The first revoked certificate fails the result.
func (v *Verifier) resolveRevocation(ctx context.Context, vctx *x509chain.Context, res *Result) {
	chain := vctx.Chain()
	res.Revocation = make(map[string]string, len(chain))

	for depth := 0; depth < len(chain)-1; depth++ {
		status, cached := v.ocspStatus(ctx, vctx, depth)
		if cached {
			res.Cached++
		}

		label := RevocationUnknown
		switch status {
		case x509chain.StatusOK:
			label = RevocationGood
		case x509chain.StatusCertRevoked:
			label = RevocationRevoked
			if res.Status == x509chain.StatusOK {
				res.Status = x509chain.StatusCertRevoked
				res.ErrorDepth = depth
			}
		}
		res.Revocation[chain[depth].SerialNumber.String()] = label
	}
}

// ocspStatus consults, in order, the stapled response for the leaf, the cache
// and, when enabled, the certificate's OCSP responder.
func (v *Verifier) ocspStatus(ctx context.Context, vctx *x509chain.Context, depth int) (x509chain.VerifyStatus, bool) {
	if depth == 0 && x509ocsp.HasStapledOCSP(vctx) {
		req, err := x509ocsp.BuildChainRequest(vctx, 0)
		if err == nil {
			status, err := v.cache.VerifyResponse(vctx, req, vctx.StapledOCSP(), 0)
			if err == nil {
				return status, true
			}
			v.log.Printf("stapled OCSP response: %v", err)
		}
	}

	if !v.cfg.OCSP.Query {
		lookup := v.cache.Lookup(vctx, depth)
		if lookup.Result == x509ocsp.Hit {
			return lookup.Status, true
		}
		return x509chain.StatusUnableToGetCRL, false
	}

	status, cached, err := v.fetcher.ResolveOCSP(ctx, v.cache, vctx, depth)
	if err != nil {
		v.log.Printf("OCSP at depth %d: %v", depth, err)
	}
	return status, cached
}
