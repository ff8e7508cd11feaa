// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"cmp"
	"crypto/x509"
	"slices"
	"strings"
	"time"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
)

// verifier runs one verification over a locked Context.
type verifier struct {
	ctx        *Context
	now        time.Time
	selfSigned map[*x509.Certificate]bool
}

// run executes every stage in order and stops at the first halting outcome.
func (v *verifier) run() VerifyStatus {
	stages := []func() bool{
		v.build,
		v.checkTrust,
		v.checkExtensions,
		v.checkNameConstraints,
		v.checkIdentity,
		v.checkRevocation,
		v.checkSignatures,
	}

	for _, stage := range stages {
		if !stage() {
			return v.ctx.status
		}
	}
	return StatusOK
}

// report records status at depth and asks the verify callback whether to continue.
func (v *verifier) report(status VerifyStatus, depth int) bool {
	c := v.ctx

	var cert *x509.Certificate
	if depth >= 0 && depth < len(c.chain) {
		cert = c.chain[depth]
	}

	c.depth = depth
	c.current = cert
	if status != StatusOK {
		c.status = status
	}

	verdict := status
	if c.callback != nil {
		verdict = c.callback(status, Snapshot{Depth: depth, Cert: cert, Chain: c.chain})
	}
	if verdict != StatusOK {
		c.status = verdict
		return false
	}
	return true
}

// isSelfSigned reports whether cert names itself as issuer and its signature
// verifies with its own key.
func (v *verifier) isSelfSigned(cert *x509.Certificate) bool {
	if ok, seen := v.selfSigned[cert]; seen {
		return ok
	}

	ok := bytes.Equal(cert.RawSubject, cert.RawIssuer) &&
		keyIDsAgree(cert, cert) &&
		cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) == nil
	v.selfSigned[cert] = ok
	return ok
}

// keyIDsAgree reports whether subject's authority key identifier does not contradict
// the candidate issuer's subject key identifier.
func keyIDsAgree(subject, issuer *x509.Certificate) bool {
	if len(subject.AuthorityKeyId) == 0 || len(issuer.SubjectKeyId) == 0 {
		return true
	}
	return bytes.Equal(subject.AuthorityKeyId, issuer.SubjectKeyId)
}

func selfIssued(cert *x509.Certificate) bool {
	return bytes.Equal(cert.RawSubject, cert.RawIssuer)
}

// build assembles the chain from the target upwards. The untrusted stack is
// searched before the store; the build stops at a self-signed certificate.
func (v *verifier) build() bool {
	c := v.ctx
	c.built = true
	c.chain = []*x509.Certificate{c.target}

	inChain := map[x509certs.Fingerprint]struct{}{
		x509certs.FingerprintOf(c.target): {},
	}
	limit := c.params.maxDepth() + 2
	reportedLength := false

	for {
		cur := c.chain[len(c.chain)-1]
		if v.isSelfSigned(cur) {
			return true
		}

		issuer := v.findIssuer(cur, inChain)
		if issuer == nil {
			status := StatusUnableToGetIssuerCertLocally
			if len(c.chain) == 1 {
				status = StatusUnableToVerifyLeafSignature
			}
			return v.report(status, len(c.chain)-1)
		}

		c.chain = append(c.chain, issuer)
		inChain[x509certs.FingerprintOf(issuer)] = struct{}{}

		if len(c.chain) > limit && !reportedLength {
			reportedLength = true
			if !v.report(StatusCertChainTooLong, len(c.chain)-1) {
				return false
			}
		}
	}
}

// findIssuer selects the best issuer candidate for cur.
func (v *verifier) findIssuer(cur *x509.Certificate, inChain map[x509certs.Fingerprint]struct{}) *x509.Certificate {
	c := v.ctx
	curFP := x509certs.FingerprintOf(cur)

	eligible := func(cand *x509.Certificate) bool {
		if !bytes.Equal(cand.RawSubject, cur.RawIssuer) || !keyIDsAgree(cur, cand) {
			return false
		}
		fp := x509certs.FingerprintOf(cand)
		if _, dup := inChain[fp]; dup {
			return false
		}
		_, rejected := c.rejected[edge{subject: curFP, issuer: fp}]
		return !rejected
	}

	var candidates []*x509.Certificate
	for _, cand := range c.untrusted.Certs() {
		if eligible(cand) {
			candidates = append(candidates, cand)
		}
	}
	for _, cand := range c.store.Issuers(cur) {
		if eligible(cand) && !slices.ContainsFunc(candidates, func(have *x509.Certificate) bool {
			return x509certs.SameContent(have, cand)
		}) {
			candidates = append(candidates, cand)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	slices.SortStableFunc(candidates, func(a, b *x509.Certificate) int {
		return cmp.Compare(v.rank(a), v.rank(b))
	})
	return candidates[0]
}

// rank orders issuer candidates: currently valid before not, then key usage
// permitting certificate signing before not.
func (v *verifier) rank(cand *x509.Certificate) int {
	r := 0
	if v.now.Before(cand.NotBefore) || v.now.After(cand.NotAfter) {
		r += 2
	}
	if cand.KeyUsage != 0 && cand.KeyUsage&x509.KeyUsageCertSign == 0 {
		r++
	}
	return r
}

// checkTrust requires the top of the chain to be a trusted self-signed certificate.
// A top without an issuer has already been reported by build.
func (v *verifier) checkTrust() bool {
	c := v.ctx
	last := len(c.chain) - 1
	top := c.chain[last]

	if !v.isSelfSigned(top) || c.store.IsTrusted(top) {
		return true
	}

	status := StatusSelfSignedCertInChain
	if last == 0 {
		status = StatusDepthZeroSelfSignedCert
	}
	return v.report(status, last)
}

// checkExtensions validates critical extensions, CA markings, key usage, path
// length and extended key usage along the chain.
func (v *verifier) checkExtensions() bool {
	c := v.ctx
	want := c.params.KeyUsages

	for i, cert := range c.chain {
		if len(cert.UnhandledCriticalExtensions) > 0 {
			if !v.report(StatusUnhandledCriticalExtension, i) {
				return false
			}
		}

		if i > 0 {
			if !v.isCA(cert) {
				if !v.report(StatusInvalidCA, i) {
					return false
				}
			}
			if cert.KeyUsage != 0 && cert.KeyUsage&x509.KeyUsageCertSign == 0 {
				if !v.report(StatusKeyUsageNoCertSign, i) {
					return false
				}
			}
			if limit, ok := pathLenLimit(cert); ok && v.intermediatesBelow(i) > limit {
				if !v.report(StatusPathLengthExceeded, i) {
					return false
				}
			}
		}

		if len(want) > 0 && !permitsUsages(cert, want) {
			if !v.report(StatusInvalidPurpose, i) {
				return false
			}
		}
	}

	// An absent key usage extension permits every usage.
	if leaf := c.chain[0]; leaf.KeyUsage != 0 && leaf.KeyUsage&x509.KeyUsageDigitalSignature == 0 {
		return v.report(StatusKeyUsageNoDigitalSignature, 0)
	}
	return true
}

// isCA reports whether cert may issue certificates. Version 1 self-signed
// roots predate basic constraints and are accepted as CAs.
func (v *verifier) isCA(cert *x509.Certificate) bool {
	if cert.BasicConstraintsValid {
		return cert.IsCA
	}
	return cert.Version < 3 && v.isSelfSigned(cert)
}

func pathLenLimit(cert *x509.Certificate) (int, bool) {
	if !cert.BasicConstraintsValid {
		return 0, false
	}
	if cert.MaxPathLen > 0 || (cert.MaxPathLen == 0 && cert.MaxPathLenZero) {
		return cert.MaxPathLen, true
	}
	return 0, false
}

// intermediatesBelow counts the non-self-issued CA certificates between the leaf and depth.
func (v *verifier) intermediatesBelow(depth int) int {
	n := 0
	for j := 1; j < depth; j++ {
		if !selfIssued(v.ctx.chain[j]) {
			n++
		}
	}
	return n
}

// permitsUsages reports whether cert's extended key usage allows every wanted usage.
// A certificate without the extension permits everything.
func permitsUsages(cert *x509.Certificate, want []x509.ExtKeyUsage) bool {
	if len(cert.ExtKeyUsage) == 0 && len(cert.UnknownExtKeyUsage) == 0 {
		return true
	}
	if slices.Contains(cert.ExtKeyUsage, x509.ExtKeyUsageAny) {
		return true
	}

	for _, w := range want {
		if w == x509.ExtKeyUsageAny {
			continue
		}
		if !slices.Contains(cert.ExtKeyUsage, w) {
			return false
		}
	}
	return true
}

// checkIdentity matches the leaf against the requested hostname, email and IP address.
func (v *verifier) checkIdentity() bool {
	p := v.ctx.params
	leaf := v.ctx.chain[0]

	if p.Hostname != "" && leaf.VerifyHostname(p.Hostname) != nil {
		if !v.report(StatusHostnameMismatch, 0) {
			return false
		}
	}

	if p.Email != "" && !slices.ContainsFunc(certEmails(leaf), func(addr string) bool {
		return sameMailbox(addr, p.Email)
	}) {
		if !v.report(StatusEmailMismatch, 0) {
			return false
		}
	}

	if p.IPAddress != nil && !slices.ContainsFunc(leaf.IPAddresses, p.IPAddress.Equal) {
		if !v.report(StatusIPAddressMismatch, 0) {
			return false
		}
	}
	return true
}

// sameMailbox compares addresses with a case-sensitive local part and a case-insensitive domain.
func sameMailbox(a, b string) bool {
	ai, bi := strings.LastIndexByte(a, '@'), strings.LastIndexByte(b, '@')
	if ai < 0 || bi < 0 {
		return false
	}
	return a[:ai] == b[:bi] && strings.EqualFold(a[ai+1:], b[bi+1:])
}

// checkSignatures walks the chain from the top down, verifying each signature
// with the issuer above it and each validity window against the verification time.
func (v *verifier) checkSignatures() bool {
	chain := v.ctx.chain
	last := len(chain) - 1

	for i := last; i >= 0; i-- {
		cert := chain[i]

		if i < last {
			issuer := chain[i+1]
			switch {
			case issuer.PublicKey == nil || issuer.PublicKeyAlgorithm == x509.UnknownPublicKeyAlgorithm:
				if !v.report(StatusUnableToDecodeIssuerPublicKey, i) {
					return false
				}
			case issuer.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature) != nil:
				if !v.report(StatusCertSignatureFailure, i) {
					return false
				}
			}
		}

		for _, status := range v.validity(cert) {
			if !v.report(status, i) {
				return false
			}
		}

		if !v.report(StatusOK, i) {
			return false
		}
	}
	return true
}

// validity returns the problems with cert's validity window at verification time.
func (v *verifier) validity(cert *x509.Certificate) []VerifyStatus {
	var out []VerifyStatus

	switch {
	case cert.NotBefore.IsZero():
		out = append(out, StatusErrorInCertNotBeforeField)
	case v.now.Before(cert.NotBefore):
		out = append(out, StatusCertNotYetValid)
	}

	switch {
	case cert.NotAfter.IsZero():
		out = append(out, StatusErrorInCertNotAfterField)
	case v.now.After(cert.NotAfter):
		out = append(out, StatusCertHasExpired)
	}
	return out
}
