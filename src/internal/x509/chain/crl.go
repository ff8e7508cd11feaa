// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"encoding/asn1"
)

var (
	oidCRLNumber              = asn1.ObjectIdentifier{2, 5, 29, 20}
	oidAuthorityKeyIdentifier = asn1.ObjectIdentifier{2, 5, 29, 35}
)

// checkRevocation consults the store's revocation lists for every chain
// position selected by the store's revocation flag.
func (v *verifier) checkRevocation() bool {
	c := v.ctx
	if !c.store.ChecksRevocation() {
		return true
	}

	flag := c.store.RevocationFlag()
	for depth := range c.chain {
		if !flag.Covers(depth, len(c.chain)) {
			continue
		}
		if status := v.crlStatus(depth); status != StatusOK {
			if !v.report(status, depth) {
				return false
			}
		}
	}
	return true
}

// issuerAt returns the issuer of the certificate at depth: the next certificate
// up, or the certificate itself when it is a self-signed top.
func (v *verifier) issuerAt(depth int) *x509.Certificate {
	chain := v.ctx.chain
	if depth+1 < len(chain) {
		return chain[depth+1]
	}
	if v.isSelfSigned(chain[depth]) {
		return chain[depth]
	}
	return nil
}

func (v *verifier) crlStatus(depth int) VerifyStatus {
	cert := v.ctx.chain[depth]

	issuer := v.issuerAt(depth)
	if issuer == nil {
		return StatusUnableToGetCRLIssuer
	}

	crls := v.ctx.store.CRLsFor(issuer)
	if len(crls) == 0 {
		return StatusUnableToGetCRL
	}

	first := StatusOK
	for _, crl := range crls {
		status := v.checkCRL(crl, issuer)
		if status == StatusOK {
			if revoked(crl, cert) {
				return StatusCertRevoked
			}
			return StatusOK
		}
		if first == StatusOK {
			first = status
		}
	}
	return first
}

// checkCRL validates crl's signature, issuer key usage, update window and critical extensions.
func (v *verifier) checkCRL(crl *x509.RevocationList, issuer *x509.Certificate) VerifyStatus {
	if issuer.KeyUsage != 0 && issuer.KeyUsage&x509.KeyUsageCRLSign == 0 {
		return StatusKeyUsageNoCRLSign
	}
	if issuer.PublicKey == nil || issuer.PublicKeyAlgorithm == x509.UnknownPublicKeyAlgorithm {
		return StatusUnableToDecryptCRLSignature
	}
	if err := issuer.CheckSignature(crl.SignatureAlgorithm, crl.RawTBSRevocationList, crl.Signature); err != nil {
		return StatusCRLSignatureFailure
	}

	switch {
	case crl.ThisUpdate.IsZero():
		return StatusErrorInCRLLastUpdateField
	case v.now.Before(crl.ThisUpdate):
		return StatusCRLNotYetValid
	case !crl.NextUpdate.IsZero() && v.now.After(crl.NextUpdate):
		return StatusCRLHasExpired
	}

	for _, ext := range crl.Extensions {
		if ext.Critical && !ext.Id.Equal(oidCRLNumber) && !ext.Id.Equal(oidAuthorityKeyIdentifier) {
			return StatusUnhandledCriticalCRLExtension
		}
	}
	return StatusOK
}

func revoked(crl *x509.RevocationList, cert *x509.Certificate) bool {
	for _, entry := range crl.RevokedCertificateEntries {
		if entry.SerialNumber != nil && entry.SerialNumber.Cmp(cert.SerialNumber) == 0 {
			return true
		}
	}
	return false
}
