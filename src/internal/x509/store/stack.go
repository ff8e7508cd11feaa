// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509store

import (
	"crypto/x509"
	"sync"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
)

// Stack is an ordered collection of certificates shared between a caller and
// one or more verification contexts.
//
// Stack is safe for concurrent use by multiple goroutines.
type Stack struct {
	mu    sync.RWMutex
	certs []*x509.Certificate
}

// NewStack returns a stack holding certs in order. Nil entries are dropped.
func NewStack(certs ...*x509.Certificate) *Stack {
	s := &Stack{}
	s.Push(certs...)
	return s
}

// Push appends certs to the stack, skipping nil entries.
func (s *Stack) Push(certs ...*x509.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range certs {
		if c != nil {
			s.certs = append(s.certs, c)
		}
	}
}

// Len returns the number of certificates on the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.certs)
}

// At returns the certificate at index i, or nil when i is out of range.
func (s *Stack) At(i int) *x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i < 0 || i >= len(s.certs) {
		return nil
	}
	return s.certs[i]
}

// Certs returns a snapshot of the stack. The slice is a copy; the certificates are shared.
func (s *Stack) Certs() []*x509.Certificate {
	if s == nil {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*x509.Certificate(nil), s.certs...)
}

// Contains reports whether a certificate with the same DER content as cert is on the stack.
func (s *Stack) Contains(cert *x509.Certificate) bool {
	if s == nil || cert == nil {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.certs {
		if c == cert || x509certs.SameContent(c, cert) {
			return true
		}
	}
	return false
}

// Replace discards the current contents and installs certs in their place.
// Every holder of the stack observes the new contents.
func (s *Stack) Replace(certs []*x509.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.certs = s.certs[:0]
	for _, c := range certs {
		if c != nil {
			s.certs = append(s.certs, c)
		}
	}
}

// Swap replaces every occurrence of old (by pointer) with replacement and
// reports whether anything was replaced.
func (s *Stack) Swap(old, replacement *x509.Certificate) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	swapped := false
	for i, c := range s.certs {
		if c == old {
			s.certs[i] = replacement
			swapped = true
		}
	}
	return swapped
}

// AddMultiple appends every certificate of src to dst, sharing the pointers,
// and returns how many were appended. A nil dst or src appends nothing.
func AddMultiple(dst, src *Stack) int {
	if dst == nil || src == nil {
		return 0
	}

	certs := src.Certs()
	dst.Push(certs...)
	return len(certs)
}
