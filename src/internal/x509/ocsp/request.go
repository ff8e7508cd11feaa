// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ocsp

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"fmt"

	"golang.org/x/crypto/ocsp"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
)

// Request is an OCSP request together with the certificates it was built from.
type Request struct {
	DER     []byte        // encoded request, ready to POST
	Parsed  *ocsp.Request // hash algorithm, issuer hashes and serial
	Subject *x509.Certificate
	Issuer  *x509.Certificate
}

// BuildRequest builds a SHA-1 CertID request for subject as issued by issuer.
//
// Parameters:
//   - subject: Certificate whose status is queried
//   - issuer: Certificate that issued subject
//
// Returns:
//   - *Request: The encoded and parsed request
//   - error: ErrIssuerUnresolved when issuer is nil, or an encoding error
func BuildRequest(subject, issuer *x509.Certificate) (*Request, error) {
	if subject == nil {
		return nil, x509certs.ErrNilCertificate
	}
	if issuer == nil {
		return nil, ErrIssuerUnresolved
	}

	der, err := ocsp.CreateRequest(subject, issuer, &ocsp.RequestOptions{Hash: crypto.SHA1})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildRequest, err)
	}

	parsed, err := ocsp.ParseRequest(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildRequest, err)
	}

	return &Request{
		DER:     der,
		Parsed:  parsed,
		Subject: subject,
		Issuer:  issuer,
	}, nil
}

// BuildChainRequest builds a request for the certificate at depth of ctx's
// chain. The issuer is the next certificate up; a self-signed top of chain is
// its own issuer.
func BuildChainRequest(ctx *x509chain.Context, depth int) (*Request, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}

	subject, issuer := subjectAndIssuer(ctx.Chain(), depth)
	if subject == nil || issuer == nil {
		return nil, fmt.Errorf("%w at depth %d", ErrIssuerUnresolved, depth)
	}
	return BuildRequest(subject, issuer)
}

// subjectAndIssuer resolves the certificate at depth and its issuer within chain.
func subjectAndIssuer(chain []*x509.Certificate, depth int) (subject, issuer *x509.Certificate) {
	if depth < 0 || depth >= len(chain) {
		return nil, nil
	}

	subject = chain[depth]
	switch {
	case depth+1 < len(chain):
		issuer = chain[depth+1]
	case selfSigned(subject):
		issuer = subject
	}
	return subject, issuer
}

func selfSigned(cert *x509.Certificate) bool {
	return bytes.Equal(cert.RawSubject, cert.RawIssuer) &&
		cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
}
