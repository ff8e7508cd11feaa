// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"encoding/pem"
	"errors"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
	"software.sslmate.com/src/go-pkcs12"
)

var (
	// ErrInvalidPEMBlock indicates that the provided data does not contain a valid PEM block.
	ErrInvalidPEMBlock = errors.New("x509certs: invalid PEM block")

	// ErrInvalidBlockType indicates that the PEM block type is not the expected certificate type.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePKCS7 indicates a failure to parse PKCS7 formatted data.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificatesInPKCS indicates that no certificates were found in the PKCS7 data.
	ErrNoCertificatesInPKCS = errors.New("x509certs: no certificates found in PKCS7 data")

	// ErrParseCRL indicates a failure to parse a certificate revocation list.
	ErrParseCRL = errors.New("x509certs: failed to parse CRL")

	// ErrPKCS12Password indicates that a PKCS#12 file is protected by a non-empty password.
	ErrPKCS12Password = errors.New("x509certs: PKCS12 data requires a password")

	// ErrParsePKCS12 indicates a failure to parse PKCS#12 data.
	ErrParsePKCS12 = errors.New("x509certs: failed to parse PKCS12 data")

	// ErrNilCertificate indicates that a nil certificate was passed where one is required.
	ErrNilCertificate = errors.New("x509certs: nil certificate")
)

// Fingerprint is the SHA-256 digest of a certificate's DER encoding.
// Two certificates with equal fingerprints are the same content.
type Fingerprint [sha256.Size]byte

// String returns the lowercase hex form of the fingerprint.
func (f Fingerprint) String() string { return hex.EncodeToString(f[:]) }

// Certificate provides methods to decode and encode [X.509] certificates.
// It maintains internal configuration such as the certificate block type.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct {
	certBlockType string
	crlBlockType  string
	pkcs7Type     string
}

// New creates a new Certificate with default settings.
func New() *Certificate {
	return &Certificate{
		certBlockType: "CERTIFICATE",
		crlBlockType:  "X509 CRL",
		pkcs7Type:     "PKCS7",
	}
}

// IsPEM checks if the data is in PEM format.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// decodePEMBlock decodes a PEM block and checks its type.
func (c *Certificate) decodePEMBlock(data []byte, want ...string) (*pem.Block, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, ErrInvalidPEMBlock
	}
	for _, t := range want {
		if block.Type == t {
			return block, nil
		}
	}
	return nil, ErrInvalidBlockType
}

// DecodeMultiple decodes one or more certificates from data.
// PEM input may mix CERTIFICATE and PKCS7 blocks; DER input may be a
// concatenation of certificates or a single PKCS#7 bundle.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	if c.IsPEM(data) {
		var certs []*x509.Certificate

		for len(data) > 0 {
			block, rest := pem.Decode(data)
			if block == nil {
				break
			}

			switch block.Type {
			case c.certBlockType:
				cert, err := x509.ParseCertificate(block.Bytes)
				if err != nil {
					return nil, ErrParseCertificate
				}
				certs = append(certs, cert)
			case c.pkcs7Type:
				bundle, err := c.decodePKCS7(block.Bytes)
				if err != nil {
					return nil, err
				}
				certs = append(certs, bundle...)
			default:
				return nil, ErrInvalidBlockType
			}

			data = rest
		}

		return certs, nil
	}

	certs, err := x509.ParseCertificates(data)
	if err == nil {
		return certs, nil
	}

	if bundle, perr := c.decodePKCS7(data); perr == nil {
		return bundle, nil
	}

	return nil, ErrParseCertificate
}

// decodePKCS7 extracts the certificates carried by a PKCS#7 SignedData blob.
func (c *Certificate) decodePKCS7(data []byte) ([]*x509.Certificate, error) {
	p, err := pkcs7.ParsePKCS7(data)
	if err != nil {
		return nil, ErrParsePKCS7
	}
	if p.Content.SignedData.Certificates == nil || len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificatesInPKCS
	}
	return p.Content.SignedData.Certificates, nil
}

// Decode decodes a single certificate from data.
func (c *Certificate) Decode(data []byte) (*x509.Certificate, error) {
	if c.IsPEM(data) {
		block, err := c.decodePEMBlock(data, c.certBlockType, c.pkcs7Type)
		if err != nil {
			return nil, err
		}

		data = block.Bytes
	}

	cert, err := x509.ParseCertificate(data)
	if err == nil {
		return cert, nil
	}

	// Attempt to parse as PKCS7 using Cloudflare's library
	bundle, err := c.decodePKCS7(data)
	if err != nil {
		if errors.Is(err, ErrParsePKCS7) {
			return nil, ErrParseCertificate
		}
		return nil, err
	}

	return bundle[0], nil
}

// DecodeCRL decodes a certificate revocation list from PEM or DER data.
func (c *Certificate) DecodeCRL(data []byte) (*x509.RevocationList, error) {
	if c.IsPEM(data) {
		block, err := c.decodePEMBlock(data, c.crlBlockType)
		if err != nil {
			return nil, err
		}
		data = block.Bytes
	}

	crl, err := x509.ParseRevocationList(data)
	if err != nil {
		return nil, ErrParseCRL
	}
	return crl, nil
}

// DecodePKCS12 extracts every certificate from a PKCS#12 (PFX) file that is
// not protected by a password. Files holding a private key yield the key's
// certificate first followed by the CA certificates; trust-store files yield
// their trusted certificates in file order.
//
// Files that require a password return [ErrPKCS12Password].
func (c *Certificate) DecodePKCS12(data []byte) ([]*x509.Certificate, error) {
	_, leaf, cas, err := pkcs12.DecodeChain(data, "")
	if err == nil {
		return append([]*x509.Certificate{leaf}, cas...), nil
	}
	if errors.Is(err, pkcs12.ErrIncorrectPassword) {
		return nil, ErrPKCS12Password
	}

	certs, err := pkcs12.DecodeTrustStore(data, "")
	switch {
	case err == nil:
		return certs, nil
	case errors.Is(err, pkcs12.ErrIncorrectPassword):
		return nil, ErrPKCS12Password
	default:
		return nil, ErrParsePKCS12
	}
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	block := pem.Block{
		Type:  c.certBlockType,
		Bytes: cert.Raw,
	}
	return pem.EncodeToMemory(&block)
}

// EncodeCRLPEM encodes a revocation list to PEM format.
func (c *Certificate) EncodeCRLPEM(crl *x509.RevocationList) []byte {
	block := pem.Block{
		Type:  c.crlBlockType,
		Bytes: crl.Raw,
	}
	return pem.EncodeToMemory(&block)
}

// EncodeDER encodes a certificate to DER format.
func (c *Certificate) EncodeDER(cert *x509.Certificate) []byte { return cert.Raw }

// EncodeMultiplePEM encodes multiple certificates to PEM format.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodePEM(cert)...)
	}

	return data
}

// EncodeMultipleDER encodes multiple certificates to DER format.
func (c *Certificate) EncodeMultipleDER(certs []*x509.Certificate) []byte {
	var data []byte

	for _, cert := range certs {
		data = append(data, c.EncodeDER(cert)...)
	}

	return data
}

// FingerprintOf returns the SHA-256 fingerprint of cert's DER encoding.
func FingerprintOf(cert *x509.Certificate) Fingerprint {
	return sha256.Sum256(cert.Raw)
}

// Duplicate returns an independent copy of cert, parsed from a private copy of its DER bytes.
// Mutating or discarding the original never affects the duplicate.
func Duplicate(cert *x509.Certificate) (*x509.Certificate, error) {
	if cert == nil {
		return nil, ErrNilCertificate
	}

	dup, err := x509.ParseCertificate(bytes.Clone(cert.Raw))
	if err != nil {
		return nil, ErrParseCertificate
	}
	return dup, nil
}

// SubjectNameHash returns a short hex digest of cert's raw subject name,
// suitable as a stable file-name component for lookups by issuer name.
func SubjectNameHash(cert *x509.Certificate) string {
	sum := sha256.Sum256(cert.RawSubject)
	return hex.EncodeToString(sum[:8])
}

// IdentityHash returns a short hex digest over cert's raw subject and public key.
// Two CA certificates with the same name but different keys hash differently.
func IdentityHash(cert *x509.Certificate) string {
	h := sha256.New()
	h.Write(cert.RawSubject)
	h.Write(cert.RawSubjectPublicKeyInfo)
	return hex.EncodeToString(h.Sum(nil)[:16])
}

// SameContent reports whether a and b carry identical DER encodings.
func SameContent(a, b *x509.Certificate) bool {
	if a == nil || b == nil {
		return a == b
	}
	return bytes.Equal(a.Raw, b.Raw)
}
