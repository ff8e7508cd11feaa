// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"encoding/asn1"
	"net"
	"net/url"
	"strings"
)

var oidEmailAddress = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 9, 1}

// checkNameConstraints applies every CA's name constraints to the certificates
// below it. Self-issued intermediates are exempt.
func (v *verifier) checkNameConstraints() bool {
	chain := v.ctx.chain

	for i := len(chain) - 1; i >= 1; i-- {
		ca := chain[i]
		if !hasNameConstraints(ca) {
			continue
		}

		for j := i - 1; j >= 0; j-- {
			sub := chain[j]
			if j > 0 && selfIssued(sub) {
				continue
			}
			if status := constrainNames(ca, sub); status != StatusOK {
				if !v.report(status, j) {
					return false
				}
			}
		}
	}
	return true
}

func hasNameConstraints(ca *x509.Certificate) bool {
	return len(ca.PermittedDNSDomains) > 0 || len(ca.ExcludedDNSDomains) > 0 ||
		len(ca.PermittedEmailAddresses) > 0 || len(ca.ExcludedEmailAddresses) > 0 ||
		len(ca.PermittedIPRanges) > 0 || len(ca.ExcludedIPRanges) > 0 ||
		len(ca.PermittedURIDomains) > 0 || len(ca.ExcludedURIDomains) > 0
}

// constrainNames checks every name form of sub against ca's subtrees.
func constrainNames(ca, sub *x509.Certificate) VerifyStatus {
	checks := []func() VerifyStatus{
		func() VerifyStatus {
			return constrain(sub.DNSNames, ca.PermittedDNSDomains, ca.ExcludedDNSDomains, matchDNSConstraint)
		},
		func() VerifyStatus {
			return constrain(certEmails(sub), ca.PermittedEmailAddresses, ca.ExcludedEmailAddresses, matchEmailConstraint)
		},
		func() VerifyStatus {
			return constrain(sub.IPAddresses, ca.PermittedIPRanges, ca.ExcludedIPRanges, matchIPConstraint)
		},
		func() VerifyStatus {
			return constrain(sub.URIs, ca.PermittedURIDomains, ca.ExcludedURIDomains, matchURIConstraint)
		},
	}

	for _, check := range checks {
		if status := check(); status != StatusOK {
			return status
		}
	}
	return StatusOK
}

// constrain applies one permitted/excluded subtree pair to names. Permitted
// subtrees are evaluated first; an empty permitted list permits everything.
func constrain[N, C any](names []N, permitted, excluded []C, match func(N, C) bool) VerifyStatus {
	for _, name := range names {
		if len(permitted) > 0 {
			ok := false
			for _, c := range permitted {
				if match(name, c) {
					ok = true
					break
				}
			}
			if !ok {
				return StatusPermittedViolation
			}
		}

		for _, c := range excluded {
			if match(name, c) {
				return StatusExcludedViolation
			}
		}
	}
	return StatusOK
}

// certEmails returns the rfc822Name SANs followed by any emailAddress attributes of the subject.
func certEmails(cert *x509.Certificate) []string {
	out := append([]string(nil), cert.EmailAddresses...)
	for _, atv := range cert.Subject.Names {
		if !atv.Type.Equal(oidEmailAddress) {
			continue
		}
		if s, ok := atv.Value.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// matchDNSConstraint: "example.com" matches the domain and its subdomains,
// ".example.com" only subdomains.
func matchDNSConstraint(name, constraint string) bool {
	name = strings.ToLower(strings.TrimSuffix(name, "."))
	constraint = strings.ToLower(constraint)

	if constraint == "" {
		return true
	}
	if strings.HasPrefix(constraint, ".") {
		return strings.HasSuffix(name, constraint)
	}
	return name == constraint || strings.HasSuffix(name, "."+constraint)
}

// matchEmailConstraint: "user@host" matches that mailbox, "host" every mailbox
// at host, ".host" every mailbox at a subdomain of host.
func matchEmailConstraint(addr, constraint string) bool {
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return false
	}
	host := strings.ToLower(addr[at+1:])

	if strings.Contains(constraint, "@") {
		return sameMailbox(addr, constraint)
	}

	constraint = strings.ToLower(constraint)
	if strings.HasPrefix(constraint, ".") {
		return strings.HasSuffix(host, constraint)
	}
	return host == constraint
}

func matchIPConstraint(ip net.IP, network *net.IPNet) bool {
	return network.Contains(ip)
}

// matchURIConstraint compares the URI host: "host" exactly, ".host" any subdomain.
func matchURIConstraint(u *url.URL, constraint string) bool {
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	constraint = strings.ToLower(constraint)
	if strings.HasPrefix(constraint, ".") {
		return strings.HasSuffix(host, constraint)
	}
	return host == constraint
}
