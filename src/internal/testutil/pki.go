// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package testutil generates throwaway PKI material (CAs, leaves, CRLs and OCSP
// responses) for package tests. Keys are ECDSA P-256 so suites stay fast.
package testutil

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net"
	"net/url"
	"time"

	"golang.org/x/crypto/ocsp"
)

// Authority is a certificate together with the key that can sign on its behalf.
type Authority struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// Option mutates a certificate template before it is signed.
type Option func(*x509.Certificate)

// WithValidity overrides the validity window.
func WithValidity(notBefore, notAfter time.Time) Option {
	return func(t *x509.Certificate) {
		t.NotBefore = notBefore
		t.NotAfter = notAfter
	}
}

// WithKeyUsage overrides the key usage bits. Zero removes the extension.
func WithKeyUsage(ku x509.KeyUsage) Option {
	return func(t *x509.Certificate) { t.KeyUsage = ku }
}

// WithExtKeyUsage sets the extended key usages.
func WithExtKeyUsage(eku ...x509.ExtKeyUsage) Option {
	return func(t *x509.Certificate) { t.ExtKeyUsage = eku }
}

// WithDNSNames sets the DNS subject alternative names.
func WithDNSNames(names ...string) Option {
	return func(t *x509.Certificate) { t.DNSNames = names }
}

// WithEmails sets the email subject alternative names.
func WithEmails(emails ...string) Option {
	return func(t *x509.Certificate) { t.EmailAddresses = emails }
}

// WithIPs sets the IP subject alternative names.
func WithIPs(ips ...net.IP) Option {
	return func(t *x509.Certificate) { t.IPAddresses = ips }
}

// WithURIs sets the URI subject alternative names.
func WithURIs(uris ...*url.URL) Option {
	return func(t *x509.Certificate) { t.URIs = uris }
}

// WithPermittedDNS adds permitted DNS name constraints.
func WithPermittedDNS(domains ...string) Option {
	return func(t *x509.Certificate) { t.PermittedDNSDomains = domains }
}

// WithExcludedDNS adds excluded DNS name constraints.
func WithExcludedDNS(domains ...string) Option {
	return func(t *x509.Certificate) { t.ExcludedDNSDomains = domains }
}

// WithExcludedIPRanges adds excluded IP name constraints.
func WithExcludedIPRanges(ranges ...*net.IPNet) Option {
	return func(t *x509.Certificate) { t.ExcludedIPRanges = ranges }
}

// WithMaxPathLen sets the basic constraints path length. Zero means "zero", not "unset".
func WithMaxPathLen(n int) Option {
	return func(t *x509.Certificate) {
		t.MaxPathLen = n
		t.MaxPathLenZero = n == 0
	}
}

// WithNotCA clears the CA flag while keeping basic constraints present.
func WithNotCA() Option {
	return func(t *x509.Certificate) {
		t.IsCA = false
		t.BasicConstraintsValid = true
	}
}

// WithSerial sets an explicit serial number.
func WithSerial(serial *big.Int) Option {
	return func(t *x509.Certificate) { t.SerialNumber = serial }
}

// WithOCSPServer sets the AIA OCSP responder URLs.
func WithOCSPServer(urls ...string) Option {
	return func(t *x509.Certificate) { t.OCSPServer = urls }
}

// WithIssuingCertificateURL sets the AIA CA issuers URLs.
func WithIssuingCertificateURL(urls ...string) Option {
	return func(t *x509.Certificate) { t.IssuingCertificateURL = urls }
}

// WithExtraExtension appends a raw extension to the certificate.
func WithExtraExtension(ext pkix.Extension) Option {
	return func(t *x509.Certificate) { t.ExtraExtensions = append(t.ExtraExtensions, ext) }
}

// NewKey returns a fresh P-256 key.
func NewKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

func newSerial() (*big.Int, error) {
	limit := new(big.Int).Lsh(big.NewInt(1), 96)
	return rand.Int(rand.Reader, limit)
}

func baseTemplate(cn string, isCA bool) (*x509.Certificate, error) {
	serial, err := newSerial()
	if err != nil {
		return nil, err
	}

	t := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{"Chain Verifier Test"},
		},
		NotBefore:             time.Now().Add(-1 * time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		BasicConstraintsValid: true,
		IsCA:                  isCA,
	}

	if isCA {
		t.KeyUsage = x509.KeyUsageCertSign | x509.KeyUsageCRLSign | x509.KeyUsageDigitalSignature
		t.MaxPathLen = -1
	} else {
		t.KeyUsage = x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment
		t.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth}
	}

	return t, nil
}

func create(template, parent *x509.Certificate, pub crypto.PublicKey, signer crypto.Signer) (*x509.Certificate, error) {
	der, err := x509.CreateCertificate(rand.Reader, template, parent, pub, signer)
	if err != nil {
		return nil, err
	}
	return x509.ParseCertificate(der)
}

// NewRoot creates a self-signed CA.
func NewRoot(cn string, opts ...Option) (*Authority, error) {
	key, err := NewKey()
	if err != nil {
		return nil, err
	}
	return NewRootWithKey(cn, key, opts...)
}

// NewRootWithKey creates a self-signed CA using key.
func NewRootWithKey(cn string, key crypto.Signer, opts ...Option) (*Authority, error) {
	template, err := baseTemplate(cn, true)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(template)
	}

	cert, err := create(template, template, key.Public(), key)
	if err != nil {
		return nil, err
	}
	return &Authority{Cert: cert, Key: key}, nil
}

// NewSelfSignedLeaf creates a self-signed end-entity certificate.
func NewSelfSignedLeaf(cn string, opts ...Option) (*Authority, error) {
	key, err := NewKey()
	if err != nil {
		return nil, err
	}
	template, err := baseTemplate(cn, false)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(template)
	}

	cert, err := create(template, template, key.Public(), key)
	if err != nil {
		return nil, err
	}
	return &Authority{Cert: cert, Key: key}, nil
}

// Issue signs a new certificate for cn with a fresh key.
func (a *Authority) Issue(cn string, isCA bool, opts ...Option) (*Authority, error) {
	key, err := NewKey()
	if err != nil {
		return nil, err
	}
	return a.IssueWithKey(cn, isCA, key, opts...)
}

// IssueWithKey signs a new certificate for cn carrying key's public half.
func (a *Authority) IssueWithKey(cn string, isCA bool, key crypto.Signer, opts ...Option) (*Authority, error) {
	template, err := baseTemplate(cn, isCA)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(template)
	}

	cert, err := create(template, a.Cert, key.Public(), a.Key)
	if err != nil {
		return nil, err
	}
	return &Authority{Cert: cert, Key: key}, nil
}

// IssueForged produces a certificate naming a as its issuer but signed by forger.
// The result carries no authority key identifier, so issuer lookup matches on name alone
// and signature verification against a fails.
func (a *Authority) IssueForged(cn string, isCA bool, forger crypto.Signer, opts ...Option) (*Authority, error) {
	key, err := NewKey()
	if err != nil {
		return nil, err
	}
	template, err := baseTemplate(cn, isCA)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(template)
	}

	parent := &x509.Certificate{
		RawSubject: a.Cert.RawSubject,
		PublicKey:  forger.Public(),
	}

	cert, err := create(template, parent, key.Public(), forger)
	if err != nil {
		return nil, err
	}
	return &Authority{Cert: cert, Key: key}, nil
}

// CRL signs a revocation list listing serials.
func (a *Authority) CRL(thisUpdate, nextUpdate time.Time, serials ...*big.Int) (*x509.RevocationList, error) {
	entries := make([]x509.RevocationListEntry, 0, len(serials))
	for _, s := range serials {
		entries = append(entries, x509.RevocationListEntry{
			SerialNumber:   s,
			RevocationTime: thisUpdate,
		})
	}

	template := &x509.RevocationList{
		Number:                    big.NewInt(time.Now().UnixNano()),
		ThisUpdate:                thisUpdate,
		NextUpdate:                nextUpdate,
		RevokedCertificateEntries: entries,
	}

	der, err := x509.CreateRevocationList(rand.Reader, template, a.Cert, a.Key)
	if err != nil {
		return nil, err
	}
	return x509.ParseRevocationList(der)
}

// OCSPResponse signs an OCSP response for subject. A zero nextUpdate omits the field.
// When responder is non-nil it signs as a delegated responder and is embedded.
func (a *Authority) OCSPResponse(subject *x509.Certificate, status int, thisUpdate, nextUpdate time.Time, responder *Authority) ([]byte, error) {
	template := ocsp.Response{
		Status:       status,
		SerialNumber: subject.SerialNumber,
		ThisUpdate:   thisUpdate,
		NextUpdate:   nextUpdate,
	}
	if status == ocsp.Revoked {
		template.RevokedAt = thisUpdate
		template.RevocationReason = ocsp.KeyCompromise
	}

	if responder != nil {
		template.Certificate = responder.Cert
		return ocsp.CreateResponse(a.Cert, responder.Cert, template, responder.Key)
	}
	return ocsp.CreateResponse(a.Cert, a.Cert, template, a.Key)
}

// Chain is a ready-made leaf → intermediates → root hierarchy.
type Chain struct {
	Root          *Authority
	Intermediates []*Authority // ordered from the leaf's issuer upwards
	Leaf          *Authority
}

// NewChain builds a hierarchy with the given number of intermediates.
func NewChain(intermediates int, leafOpts ...Option) (*Chain, error) {
	root, err := NewRoot("Test Root CA")
	if err != nil {
		return nil, err
	}

	ch := &Chain{Root: root}
	issuer := root
	ints := make([]*Authority, 0, intermediates)
	for i := 0; i < intermediates; i++ {
		ca, err := issuer.Issue("Test Intermediate CA "+string(rune('A'+i)), true)
		if err != nil {
			return nil, err
		}
		ints = append(ints, ca)
		issuer = ca
	}

	leaf, err := issuer.Issue("leaf.example.com", false, append([]Option{WithDNSNames("leaf.example.com")}, leafOpts...)...)
	if err != nil {
		return nil, err
	}
	ch.Leaf = leaf

	// Reverse so index 0 is the leaf's direct issuer.
	for i, j := 0, len(ints)-1; i < j; i, j = i+1, j-1 {
		ints[i], ints[j] = ints[j], ints[i]
	}
	ch.Intermediates = ints
	return ch, nil
}

// IntermediateCerts returns the intermediate certificates, leaf's issuer first.
func (c *Chain) IntermediateCerts() []*x509.Certificate {
	out := make([]*x509.Certificate, 0, len(c.Intermediates))
	for _, a := range c.Intermediates {
		out = append(out, a.Cert)
	}
	return out
}

// Expected returns leaf, intermediates and root in chain order.
func (c *Chain) Expected() []*x509.Certificate {
	out := []*x509.Certificate{c.Leaf.Cert}
	out = append(out, c.IntermediateCerts()...)
	return append(out, c.Root.Cert)
}

// Issuer returns the direct issuer of the leaf.
func (c *Chain) Issuer() *Authority {
	if len(c.Intermediates) == 0 {
		return c.Root
	}
	return c.Intermediates[0]
}
