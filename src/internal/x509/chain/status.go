// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"fmt"
)

// VerifyStatus is the outcome code of a chain verification step.
// The numeric values are stable and match the widely used X.509 verify-error table.
type VerifyStatus int32

const (
	StatusOK                              VerifyStatus = 0
	StatusUnableToGetIssuerCert           VerifyStatus = 2
	StatusUnableToGetCRL                  VerifyStatus = 3
	StatusUnableToDecryptCRLSignature     VerifyStatus = 5
	StatusUnableToDecodeIssuerPublicKey   VerifyStatus = 6
	StatusCertSignatureFailure            VerifyStatus = 7
	StatusCRLSignatureFailure             VerifyStatus = 8
	StatusCertNotYetValid                 VerifyStatus = 9
	StatusCertHasExpired                  VerifyStatus = 10
	StatusCRLNotYetValid                  VerifyStatus = 11
	StatusCRLHasExpired                   VerifyStatus = 12
	StatusErrorInCertNotBeforeField       VerifyStatus = 13
	StatusErrorInCertNotAfterField        VerifyStatus = 14
	StatusErrorInCRLLastUpdateField       VerifyStatus = 15
	StatusErrorInCRLNextUpdateField       VerifyStatus = 16
	StatusOutOfMem                        VerifyStatus = 17
	StatusDepthZeroSelfSignedCert         VerifyStatus = 18
	StatusSelfSignedCertInChain           VerifyStatus = 19
	StatusUnableToGetIssuerCertLocally    VerifyStatus = 20
	StatusUnableToVerifyLeafSignature     VerifyStatus = 21
	StatusCertChainTooLong                VerifyStatus = 22
	StatusCertRevoked                     VerifyStatus = 23
	StatusInvalidCA                       VerifyStatus = 24
	StatusPathLengthExceeded              VerifyStatus = 25
	StatusInvalidPurpose                  VerifyStatus = 26
	StatusCertUntrusted                   VerifyStatus = 27
	StatusCertRejected                    VerifyStatus = 28
	StatusKeyUsageNoCertSign              VerifyStatus = 32
	StatusUnableToGetCRLIssuer            VerifyStatus = 33
	StatusUnhandledCriticalExtension      VerifyStatus = 34
	StatusKeyUsageNoCRLSign               VerifyStatus = 35
	StatusUnhandledCriticalCRLExtension   VerifyStatus = 36
	StatusInvalidNonCA                    VerifyStatus = 37
	StatusKeyUsageNoDigitalSignature      VerifyStatus = 39
	StatusInvalidExtension                VerifyStatus = 41
	StatusInvalidPolicyExtension          VerifyStatus = 42
	StatusNoExplicitPolicy                VerifyStatus = 43
	StatusDifferentCRLScope               VerifyStatus = 44
	StatusUnsupportedExtensionFeature     VerifyStatus = 45
	StatusUnnestedResource                VerifyStatus = 46
	StatusPermittedViolation              VerifyStatus = 47
	StatusExcludedViolation               VerifyStatus = 48
	StatusSubtreeMinMax                   VerifyStatus = 49
	StatusApplicationVerification         VerifyStatus = 50
	StatusUnsupportedConstraintType       VerifyStatus = 51
	StatusUnsupportedConstraintSyntax     VerifyStatus = 52
	StatusUnsupportedNameSyntax           VerifyStatus = 53
	StatusCRLPathValidationError          VerifyStatus = 54
	StatusSuiteBInvalidVersion            VerifyStatus = 56
	StatusSuiteBInvalidAlgorithm          VerifyStatus = 57
	StatusSuiteBInvalidCurve              VerifyStatus = 58
	StatusSuiteBInvalidSignatureAlgorithm VerifyStatus = 59
	StatusSuiteBLOSNotAllowed             VerifyStatus = 60
	StatusSuiteBCannotSignP384WithP256    VerifyStatus = 61
	StatusHostnameMismatch                VerifyStatus = 62
	StatusEmailMismatch                   VerifyStatus = 63
	StatusIPAddressMismatch               VerifyStatus = 64
)

var statusText = map[VerifyStatus]string{
	StatusOK:                              "ok",
	StatusUnableToGetIssuerCert:           "unable to get issuer certificate",
	StatusUnableToGetCRL:                  "unable to get certificate CRL",
	StatusUnableToDecryptCRLSignature:     "unable to decrypt CRL's signature",
	StatusUnableToDecodeIssuerPublicKey:   "unable to decode issuer public key",
	StatusCertSignatureFailure:            "certificate signature failure",
	StatusCRLSignatureFailure:             "CRL signature failure",
	StatusCertNotYetValid:                 "certificate is not yet valid",
	StatusCertHasExpired:                  "certificate has expired",
	StatusCRLNotYetValid:                  "CRL is not yet valid",
	StatusCRLHasExpired:                   "CRL has expired",
	StatusErrorInCertNotBeforeField:       "format error in certificate's notBefore field",
	StatusErrorInCertNotAfterField:        "format error in certificate's notAfter field",
	StatusErrorInCRLLastUpdateField:       "format error in CRL's lastUpdate field",
	StatusErrorInCRLNextUpdateField:       "format error in CRL's nextUpdate field",
	StatusOutOfMem:                        "out of memory",
	StatusDepthZeroSelfSignedCert:         "self-signed certificate",
	StatusSelfSignedCertInChain:           "self-signed certificate in certificate chain",
	StatusUnableToGetIssuerCertLocally:    "unable to get local issuer certificate",
	StatusUnableToVerifyLeafSignature:     "unable to verify the first certificate",
	StatusCertChainTooLong:                "certificate chain too long",
	StatusCertRevoked:                     "certificate revoked",
	StatusInvalidCA:                       "invalid CA certificate",
	StatusPathLengthExceeded:              "path length constraint exceeded",
	StatusInvalidPurpose:                  "unsupported certificate purpose",
	StatusCertUntrusted:                   "certificate not trusted",
	StatusCertRejected:                    "certificate rejected",
	StatusKeyUsageNoCertSign:              "key usage does not include certificate signing",
	StatusUnableToGetCRLIssuer:            "unable to get CRL issuer certificate",
	StatusUnhandledCriticalExtension:      "unhandled critical extension",
	StatusKeyUsageNoCRLSign:               "key usage does not include CRL signing",
	StatusUnhandledCriticalCRLExtension:   "unhandled critical CRL extension",
	StatusInvalidNonCA:                    "invalid non-CA certificate (has CA markings)",
	StatusKeyUsageNoDigitalSignature:      "key usage does not include digital signature",
	StatusInvalidExtension:                "invalid or inconsistent certificate extension",
	StatusInvalidPolicyExtension:          "invalid or inconsistent certificate policy extension",
	StatusNoExplicitPolicy:                "no explicit policy",
	StatusDifferentCRLScope:               "different CRL scope",
	StatusUnsupportedExtensionFeature:     "unsupported extension feature",
	StatusUnnestedResource:                "RFC 3779 resource not subset of parent's resources",
	StatusPermittedViolation:              "permitted subtree violation",
	StatusExcludedViolation:               "excluded subtree violation",
	StatusSubtreeMinMax:                   "name constraints minimum and maximum not supported",
	StatusApplicationVerification:         "application verification failure",
	StatusUnsupportedConstraintType:       "unsupported name constraint type",
	StatusUnsupportedConstraintSyntax:     "unsupported or invalid name constraint syntax",
	StatusUnsupportedNameSyntax:           "unsupported or invalid name syntax",
	StatusCRLPathValidationError:          "error in CRL path validation",
	StatusSuiteBInvalidVersion:            "Suite B: certificate version invalid",
	StatusSuiteBInvalidAlgorithm:          "Suite B: invalid public key algorithm",
	StatusSuiteBInvalidCurve:              "Suite B: invalid ECC curve",
	StatusSuiteBInvalidSignatureAlgorithm: "Suite B: invalid signature algorithm",
	StatusSuiteBLOSNotAllowed:             "Suite B: curve not allowed for this LOS",
	StatusSuiteBCannotSignP384WithP256:    "Suite B: cannot sign P-384 with P-256",
	StatusHostnameMismatch:                "hostname mismatch",
	StatusEmailMismatch:                   "email address mismatch",
	StatusIPAddressMismatch:               "IP address mismatch",
}

// String returns the human-readable description of the status.
func (s VerifyStatus) String() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	return fmt.Sprintf("unknown verify status %d", int32(s))
}

// Known reports whether s is one of the defined status codes.
func (s VerifyStatus) Known() bool {
	_, ok := statusText[s]
	return ok
}

// VerifyError describes a failed verification: the status, the chain depth
// at which it was raised and the certificate at that depth.
type VerifyError struct {
	Status VerifyStatus
	Depth  int
	Cert   *x509.Certificate
}

// Error implements the error interface.
func (e *VerifyError) Error() string {
	if e.Cert != nil {
		return fmt.Sprintf("x509chain: %s at depth %d (%s)", e.Status, e.Depth, e.Cert.Subject.CommonName)
	}
	return fmt.Sprintf("x509chain: %s at depth %d", e.Status, e.Depth)
}
