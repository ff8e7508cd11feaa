// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509ocsp

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"time"

	"golang.org/x/crypto/ocsp"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/chain"
)

var (
	// ErrNilContext is returned when a verification context is required but nil.
	ErrNilContext = errors.New("x509ocsp: nil verification context")
	// ErrIssuerUnresolved is returned when no issuer is known for the subject.
	ErrIssuerUnresolved = errors.New("x509ocsp: issuer unresolved")
	// ErrBuildRequest is returned when an OCSP request cannot be encoded.
	ErrBuildRequest = errors.New("x509ocsp: failed to build request")
	// ErrInvalidRequest is returned for a nil or incomplete request.
	ErrInvalidRequest = errors.New("x509ocsp: invalid request")
	// ErrRequestMismatch is returned when a request does not belong to the chain position or certificates given.
	ErrRequestMismatch = errors.New("x509ocsp: request does not match certificate")
	// ErrMalformedResponse is returned when the response cannot be parsed or its signature does not verify.
	ErrMalformedResponse = errors.New("x509ocsp: malformed response")
	// ErrResponseMismatch is returned when the response does not answer the request's CertID.
	ErrResponseMismatch = errors.New("x509ocsp: response does not answer request")
	// ErrUnauthorizedResponder is returned when a delegated responder is not authorized by the issuer.
	ErrUnauthorizedResponder = errors.New("x509ocsp: unauthorized responder")
	// ErrResponseNotYetValid is returned when thisUpdate lies in the future.
	ErrResponseNotYetValid = errors.New("x509ocsp: response not yet valid")
	// ErrResponseExpired is returned when nextUpdate has passed.
	ErrResponseExpired = errors.New("x509ocsp: response expired")
	// ErrUnknownStatus is returned when the responder does not know the certificate.
	ErrUnknownStatus = errors.New("x509ocsp: certificate status unknown")
)

// ASN.1 views of the signed response data. Only the CertID of each single
// response is decoded; trailing fields are ignored by encoding/asn1.
type responseData struct {
	Version     int `asn1:"optional,explicit,tag:0,default:0"`
	ResponderID asn1.RawValue
	ProducedAt  asn1.RawValue
	Responses   []singleResponse
}

type singleResponse struct {
	CertID certID
}

type certID struct {
	HashAlgorithm  pkix.AlgorithmIdentifier
	IssuerNameHash []byte
	IssuerKeyHash  []byte
	SerialNumber   *big.Int
}

type subjectPublicKeyInfo struct {
	Algorithm pkix.AlgorithmIdentifier
	PublicKey asn1.BitString
}

var hashOIDs = map[string]crypto.Hash{
	"1.3.14.3.2.26":          crypto.SHA1,
	"2.16.840.1.101.3.4.2.1": crypto.SHA256,
	"2.16.840.1.101.3.4.2.2": crypto.SHA384,
	"2.16.840.1.101.3.4.2.3": crypto.SHA512,
}

// issuerHashes computes the CertID name and key hashes of issuer under h.
func issuerHashes(issuer *x509.Certificate, h crypto.Hash) (name, key []byte, err error) {
	if !h.Available() {
		return nil, nil, fmt.Errorf("hash %v unavailable", h)
	}

	var spki subjectPublicKeyInfo
	if _, err := asn1.Unmarshal(issuer.RawSubjectPublicKeyInfo, &spki); err != nil {
		return nil, nil, err
	}

	nh := h.New()
	nh.Write(issuer.RawSubject)
	kh := h.New()
	kh.Write(spki.PublicKey.RightAlign())
	return nh.Sum(nil), kh.Sum(nil), nil
}

// matchesRequest reports whether req was built for subject and issuer.
func matchesRequest(req *Request, subject, issuer *x509.Certificate) bool {
	if req.Parsed.SerialNumber == nil || req.Parsed.SerialNumber.Cmp(subject.SerialNumber) != 0 {
		return false
	}

	name, key, err := issuerHashes(issuer, req.Parsed.HashAlgorithm)
	if err != nil {
		return false
	}
	return bytes.Equal(name, req.Parsed.IssuerNameHash) && bytes.Equal(key, req.Parsed.IssuerKeyHash)
}

// answersRequest reports whether the signed response data carries a single
// response for the request's serial and issuer.
func answersRequest(resp *ocsp.Response, req *Request) bool {
	var data responseData
	if _, err := asn1.Unmarshal(resp.TBSResponseData, &data); err != nil {
		return false
	}

	for _, single := range data.Responses {
		id := single.CertID
		if id.SerialNumber == nil || id.SerialNumber.Cmp(req.Subject.SerialNumber) != 0 {
			continue
		}
		h, ok := hashOIDs[id.HashAlgorithm.Algorithm.String()]
		if !ok {
			continue
		}
		name, key, err := issuerHashes(req.Issuer, h)
		if err != nil {
			continue
		}
		if bytes.Equal(name, id.IssuerNameHash) && bytes.Equal(key, id.IssuerKeyHash) {
			return true
		}
	}
	return false
}

// checkSigner accepts responses signed by the issuer itself or by a delegated
// responder the issuer certified for OCSP signing.
func checkSigner(resp *ocsp.Response, issuer *x509.Certificate, now time.Time) error {
	responder := resp.Certificate
	if responder == nil || x509certs.SameContent(responder, issuer) {
		return nil
	}

	if !bytes.Equal(responder.RawIssuer, issuer.RawSubject) {
		return fmt.Errorf("%w: responder not issued by %s", ErrUnauthorizedResponder, issuer.Subject)
	}
	if !slices.Contains(responder.ExtKeyUsage, x509.ExtKeyUsageOCSPSigning) {
		return fmt.Errorf("%w: responder lacks OCSP signing usage", ErrUnauthorizedResponder)
	}
	if now.Before(responder.NotBefore) || now.After(responder.NotAfter) {
		return fmt.Errorf("%w: responder certificate outside its validity period", ErrUnauthorizedResponder)
	}
	return nil
}

// checkResponse parses raw and validates it as an answer to req at now.
func checkResponse(raw []byte, req *Request, now time.Time, skew time.Duration) (*ocsp.Response, error) {
	if req == nil || req.Parsed == nil || req.Subject == nil || req.Issuer == nil {
		return nil, ErrInvalidRequest
	}
	if !matchesRequest(req, req.Subject, req.Issuer) {
		return nil, ErrRequestMismatch
	}

	resp, err := ocsp.ParseResponseForCert(raw, req.Subject, req.Issuer)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if !answersRequest(resp, req) {
		return nil, ErrResponseMismatch
	}
	if err := checkSigner(resp, req.Issuer, now); err != nil {
		return nil, err
	}

	if resp.ThisUpdate.After(now.Add(skew)) {
		return nil, fmt.Errorf("%w: thisUpdate %s", ErrResponseNotYetValid, resp.ThisUpdate.Format(time.RFC3339))
	}
	if !resp.NextUpdate.IsZero() && now.Add(-skew).After(resp.NextUpdate) {
		return nil, fmt.Errorf("%w: nextUpdate %s", ErrResponseExpired, resp.NextUpdate.Format(time.RFC3339))
	}
	return resp, nil
}

// verifyStatus maps a certificate status to the chain status it stands for.
func verifyStatus(status int) (x509chain.VerifyStatus, error) {
	switch status {
	case ocsp.Good:
		return x509chain.StatusOK, nil
	case ocsp.Revoked:
		return x509chain.StatusCertRevoked, nil
	default:
		return x509chain.StatusUnableToGetCRL, ErrUnknownStatus
	}
}

// DecodeToExpiration validates raw as a good or revoked answer to req for
// subject and issuer, without caching it.
//
// Parameters:
//   - raw: DER encoded OCSP response
//   - req: Request previously built for subject and issuer
//   - subject: Certificate the response is about
//   - issuer: Issuer of subject
//
// Returns:
//   - time.Time: The response's nextUpdate, zero when it has none
//   - error: Any validation failure; the expiration is meaningless then
func DecodeToExpiration(raw []byte, req *Request, subject, issuer *x509.Certificate) (time.Time, error) {
	if req == nil || subject == nil || issuer == nil {
		return time.Time{}, ErrInvalidRequest
	}
	if !x509certs.SameContent(req.Subject, subject) || !x509certs.SameContent(req.Issuer, issuer) {
		return time.Time{}, ErrRequestMismatch
	}

	resp, err := checkResponse(raw, req, time.Now(), DefaultSkew)
	if err != nil {
		return time.Time{}, err
	}
	if _, err := verifyStatus(resp.Status); err != nil {
		return time.Time{}, err
	}
	return resp.NextUpdate, nil
}

// HasStapledOCSP reports whether the stapled response set on ctx is a valid
// good or revoked answer for the leaf of its built chain.
func HasStapledOCSP(ctx *x509chain.Context) bool {
	if ctx == nil {
		return false
	}

	raw := ctx.StapledOCSP()
	if len(raw) == 0 {
		return false
	}

	subject, issuer := subjectAndIssuer(ctx.Chain(), 0)
	if subject == nil || issuer == nil {
		return false
	}

	req, err := BuildRequest(subject, issuer)
	if err != nil {
		return false
	}

	now := ctx.Params().Time
	if now.IsZero() {
		now = time.Now()
	}

	resp, err := checkResponse(raw, req, now, DefaultSkew)
	if err != nil {
		return false
	}
	_, err = verifyStatus(resp.Status)
	return err == nil
}
