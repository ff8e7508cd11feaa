// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509remote

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"net/http"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
	x509ocsp "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/ocsp"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
)

// DefaultMaxHops bounds how many issuers [Fetcher.FetchIssuers] follows.
const DefaultMaxHops = 10

var (
	// ErrHTTPStatus is returned for a non-200 HTTP response.
	ErrHTTPStatus = errors.New("x509remote: unexpected HTTP status")
	// ErrResponseTooLarge is returned when a body exceeds MaxResponseSize.
	ErrResponseTooLarge = errors.New("x509remote: response too large")
	// ErrNoOCSPServer is returned when a certificate names no OCSP responder.
	ErrNoOCSPServer = errors.New("x509remote: certificate has no OCSP server")
	// ErrNoCertificates is returned when a server presents no certificates.
	ErrNoCertificates = errors.New("x509remote: no certificates received")
	// ErrInvalidTarget is returned for a malformed HOST[:PORT] target.
	ErrInvalidTarget = errors.New("x509remote: invalid target")
)

// Fetcher downloads issuers and OCSP responses.
type Fetcher struct {
	HTTP    *HTTPConfig
	Decoder *x509certs.Certificate
	Log     logger.Logger
}

// NewFetcher creates a Fetcher with default HTTP settings.
//
// Parameters:
//   - version: Application version for the User-Agent
//   - log: Logger for download progress, nil for none
//
// Returns:
//   - *Fetcher: Ready fetcher
func NewFetcher(version string, log logger.Logger) *Fetcher {
	return &Fetcher{
		HTTP:    NewHTTPConfig(version),
		Decoder: x509certs.New(),
		Log:     logger.OrDiscard(log),
	}
}

// FetchIssuers follows the Authority Information Access "CA Issuers" URLs
// starting at cert and returns the certificates found, nearest issuer first.
//
// It stops at a self-signed certificate, a certificate without issuer URL, a
// certificate already fetched, or after maxHops downloads. Bundles served as
// PKCS#7 or concatenated PEM contribute every certificate they contain.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - cert: Starting certificate
//   - maxHops: Download limit, DefaultMaxHops when not positive
//
// Returns:
//   - []*x509.Certificate: Downloaded issuers
//   - error: Error if a download or decode fails; issuers fetched so far are returned with it
func (f *Fetcher) FetchIssuers(ctx context.Context, cert *x509.Certificate, maxHops int) ([]*x509.Certificate, error) {
	if cert == nil {
		return nil, x509certs.ErrNilCertificate
	}
	if maxHops <= 0 {
		maxHops = DefaultMaxHops
	}

	seen := map[x509certs.Fingerprint]struct{}{x509certs.FingerprintOf(cert): {}}
	var out []*x509.Certificate

	current := cert
	for hop := 0; hop < maxHops; hop++ {
		if len(current.IssuingCertificateURL) == 0 || isSelfSigned(current) {
			break
		}

		url := current.IssuingCertificateURL[0]
		data, err := f.HTTP.do(ctx, http.MethodGet, url, "", nil)
		if err != nil {
			return out, fmt.Errorf("x509remote: fetch issuer of %q: %w", current.Subject.CommonName, err)
		}

		certs, err := f.Decoder.DecodeMultiple(data)
		if err != nil {
			return out, fmt.Errorf("x509remote: decode issuer from %s: %w", url, err)
		}

		next := pickIssuer(current, certs)
		for _, c := range certs {
			fp := x509certs.FingerprintOf(c)
			if _, dup := seen[fp]; dup {
				continue
			}
			seen[fp] = struct{}{}
			out = append(out, c)
		}
		f.Log.Printf("fetched %d certificate(s) from %s", len(certs), url)

		if next == nil || next == current {
			break
		}
		// Bundles may already carry the rest of the path.
		for up := pickIssuer(next, certs); up != nil && up != next; up = pickIssuer(next, certs) {
			next = up
		}
		current = next
	}
	return out, nil
}

// pickIssuer returns the certificate in certs whose subject names cert's issuer.
func pickIssuer(cert *x509.Certificate, certs []*x509.Certificate) *x509.Certificate {
	for _, c := range certs {
		if bytes.Equal(c.RawSubject, cert.RawIssuer) {
			return c
		}
	}
	return nil
}

func isSelfSigned(cert *x509.Certificate) bool {
	return bytes.Equal(cert.RawSubject, cert.RawIssuer) && cert.CheckSignatureFrom(cert) == nil
}

// QueryOCSP POSTs req to the responder at url and returns the raw response.
func (f *Fetcher) QueryOCSP(ctx context.Context, url string, req *x509ocsp.Request) ([]byte, error) {
	if req == nil {
		return nil, x509ocsp.ErrInvalidRequest
	}

	raw, err := f.HTTP.do(ctx, http.MethodPost, url, "application/ocsp-request", bytes.NewReader(req.DER))
	if err != nil {
		return nil, fmt.Errorf("x509remote: OCSP query to %s: %w", url, err)
	}
	return raw, nil
}

// ResolveOCSP determines the OCSP status of the certificate at depth of vctx's
// chain: a cache hit is returned directly, otherwise the certificate's first
// OCSP server is queried and the answer verified into the cache.
//
// Returns:
//   - x509chain.VerifyStatus: StatusOK, StatusCertRevoked or StatusUnableToGetCRL
//   - bool: The status came from the cache
//   - error: Why no status could be obtained
func (f *Fetcher) ResolveOCSP(ctx context.Context, cache *x509ocsp.Cache, vctx *x509chain.Context, depth int) (x509chain.VerifyStatus, bool, error) {
	if lookup := cache.Lookup(vctx, depth); lookup.Result == x509ocsp.Hit {
		return lookup.Status, true, nil
	}

	req, err := x509ocsp.BuildChainRequest(vctx, depth)
	if err != nil {
		return x509chain.StatusUnableToGetCRL, false, err
	}
	if len(req.Subject.OCSPServer) == 0 {
		return x509chain.StatusUnableToGetCRL, false, ErrNoOCSPServer
	}

	raw, err := f.QueryOCSP(ctx, req.Subject.OCSPServer[0], req)
	if err != nil {
		return x509chain.StatusUnableToGetCRL, false, err
	}

	status, err := cache.VerifyResponse(vctx, req, raw, depth)
	return status, false, err
}
