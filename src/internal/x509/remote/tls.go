// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509remote

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// PeerChain is what a TLS server presented during the handshake.
type PeerChain struct {
	Leaf          *x509.Certificate
	Intermediates []*x509.Certificate
	Stapled       []byte // stapled OCSP response, nil when none
}

// FetchRemoteChain establishes a TLS connection to the target host and returns
// the certificates and stapled OCSP response presented during the handshake.
// The server's chain is not verified here; that is the caller's job.
func FetchRemoteChain(ctx context.Context, hostname string, port int, timeout time.Duration) (*PeerChain, error) {
	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: timeout},
		// We just want the cert chain, not to verify
		Config: &tls.Config{InsecureSkipVerify: true, ServerName: hostname},
	}

	addr := net.JoinHostPort(hostname, strconv.Itoa(port))
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()

	state := conn.(*tls.Conn).ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return nil, ErrNoCertificates
	}

	return &PeerChain{
		Leaf:          state.PeerCertificates[0],
		Intermediates: state.PeerCertificates[1:],
		Stapled:       state.OCSPResponse,
	}, nil
}

// DefaultTLSPort is the port assumed when a target names none.
const DefaultTLSPort = 443

// ParseTarget splits a HOST[:PORT] target. IPv6 hosts with a port use the
// bracketed form, "[::1]:8443".
func ParseTarget(target string) (host string, port int, err error) {
	if target == "" {
		return "", 0, ErrInvalidTarget
	}

	h, p, err := net.SplitHostPort(target)
	if err != nil {
		// no port
		return strings.Trim(target, "[]"), DefaultTLSPort, nil
	}
	port, err = strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 || h == "" {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidTarget, target)
	}
	return h, port, nil
}
