// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"bytes"
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"sync"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
)

var (
	// ErrNilStore indicates an operation on a store that does not exist.
	ErrNilStore = errors.New("x509store: nil store")

	// ErrInvalidRevocationFlag indicates a revocation flag outside the known values.
	ErrInvalidRevocationFlag = errors.New("x509store: invalid revocation flag")

	// ErrNilCRL indicates that a nil revocation list was supplied.
	ErrNilCRL = errors.New("x509store: nil CRL")
)

// RevocationFlag selects which chain positions are checked against revocation lists.
type RevocationFlag int

const (
	// EndCertificateOnly checks only the leaf.
	EndCertificateOnly RevocationFlag = iota
	// EntireChain checks every certificate including the trust anchor.
	EntireChain
	// ExcludeRoot checks every certificate except the trust anchor.
	ExcludeRoot
)

// String returns the flag name.
func (f RevocationFlag) String() string {
	switch f {
	case EndCertificateOnly:
		return "EndCertificateOnly"
	case EntireChain:
		return "EntireChain"
	case ExcludeRoot:
		return "ExcludeRoot"
	default:
		return fmt.Sprintf("RevocationFlag(%d)", int(f))
	}
}

// ParseRevocationFlag accepts a flag name as printed by String, case
// insensitively, or its kebab-case spelling ("entire-chain").
func ParseRevocationFlag(name string) (RevocationFlag, error) {
	key := strings.ToLower(strings.ReplaceAll(name, "-", ""))
	for f := EndCertificateOnly; f <= ExcludeRoot; f++ {
		if strings.ToLower(f.String()) == key {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRevocationFlag, name)
}

// Valid reports whether f is one of the defined flags.
func (f RevocationFlag) Valid() bool {
	return f >= EndCertificateOnly && f <= ExcludeRoot
}

// Covers reports whether the certificate at depth in a chain of chainLen
// certificates must be checked for revocation under f.
func (f RevocationFlag) Covers(depth, chainLen int) bool {
	switch f {
	case EndCertificateOnly:
		return depth == 0
	case EntireChain:
		return depth >= 0 && depth < chainLen
	case ExcludeRoot:
		return depth >= 0 && depth < chainLen-1
	default:
		return false
	}
}

// Store is the trust material for chain verification: the trusted roots, the
// revocation lists and the revocation policy.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	mu              sync.RWMutex
	roots           []*x509.Certificate
	seen            map[x509certs.Fingerprint]struct{}
	crls            []*x509.RevocationList
	flag            RevocationFlag
	checkRevocation bool
}

// New builds a store trusting the union of systemTrust and userTrust.
// Certificates present in both are kept once. Either source may be nil.
//
// Revocation checking stays off until [Store.SetRevocationFlag] is called.
func New(systemTrust, userTrust *Stack) *Store {
	s := &Store{seen: make(map[x509certs.Fingerprint]struct{})}

	for _, src := range []*Stack{systemTrust, userTrust} {
		for _, c := range src.Certs() {
			s.AddRoot(c)
		}
	}
	return s
}

// NewTrustOnly builds a minimal store trusting certs: no revocation lists,
// default flag, revocation checking off.
func NewTrustOnly(certs ...*x509.Certificate) *Store {
	s := &Store{seen: make(map[x509certs.Fingerprint]struct{})}
	for _, c := range certs {
		s.AddRoot(c)
	}
	return s
}

// AddRoot trusts cert and reports whether it was new to the store.
func (s *Store) AddRoot(cert *x509.Certificate) bool {
	if s == nil || cert == nil {
		return false
	}

	fp := x509certs.FingerprintOf(cert)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[fp]; ok {
		return false
	}
	s.seen[fp] = struct{}{}
	s.roots = append(s.roots, cert)
	return true
}

// SetRevocationFlag selects the chain positions that are checked against the
// store's revocation lists and enables revocation checking.
//
// Returns:
//   - error: [ErrNilStore] on a nil store, [ErrInvalidRevocationFlag] for an unknown flag
func (s *Store) SetRevocationFlag(flag RevocationFlag) error {
	if s == nil {
		return ErrNilStore
	}
	if !flag.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidRevocationFlag, int(flag))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.flag = flag
	s.checkRevocation = true
	return nil
}

// RevocationFlag returns the configured revocation flag.
func (s *Store) RevocationFlag() RevocationFlag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flag
}

// ChecksRevocation reports whether verifications against this store consult revocation lists.
func (s *Store) ChecksRevocation() bool {
	if s == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.checkRevocation
}

// AddCRL adds a revocation list to the store.
func (s *Store) AddCRL(crl *x509.RevocationList) error {
	if s == nil {
		return ErrNilStore
	}
	if crl == nil {
		return ErrNilCRL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.crls = append(s.crls, crl)
	return nil
}

// CRLs returns a snapshot of the store's revocation lists.
func (s *Store) CRLs() []*x509.RevocationList {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*x509.RevocationList(nil), s.crls...)
}

// CRLsFor returns the revocation lists whose issuer name equals issuer's subject.
func (s *Store) CRLsFor(issuer *x509.Certificate) []*x509.RevocationList {
	if s == nil || issuer == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*x509.RevocationList
	for _, crl := range s.crls {
		if bytes.Equal(crl.RawIssuer, issuer.RawSubject) {
			out = append(out, crl)
		}
	}
	return out
}

// Roots returns a snapshot of the trusted roots.
func (s *Store) Roots() []*x509.Certificate {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*x509.Certificate(nil), s.roots...)
}

// Len returns the number of trusted roots.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.roots)
}

// IsTrusted reports whether a certificate with cert's content is a trusted root.
func (s *Store) IsTrusted(cert *x509.Certificate) bool {
	if s == nil || cert == nil {
		return false
	}

	fp := x509certs.FingerprintOf(cert)

	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[fp]
	return ok
}

// Issuers returns the trusted roots whose subject equals cert's issuer name.
func (s *Store) Issuers(cert *x509.Certificate) []*x509.Certificate {
	if s == nil || cert == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*x509.Certificate
	for _, r := range s.roots {
		if bytes.Equal(r.RawSubject, cert.RawIssuer) {
			out = append(out, r)
		}
	}
	return out
}
