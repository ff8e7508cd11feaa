// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"crypto/x509"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
)

const (
	// EnvCertFile names a CA bundle that replaces the platform default.
	EnvCertFile = "SSL_CERT_FILE"
	// EnvCertDir lists directories of CA certificates, separated by the OS list separator.
	EnvCertDir = "SSL_CERT_DIR"
)

// bundlePaths are the usual CA bundle locations; the first readable one wins.
var bundlePaths = []string{
	"/etc/ssl/certs/ca-certificates.crt",                // Debian, Ubuntu, Gentoo, Arch
	"/etc/pki/tls/certs/ca-bundle.crt",                  // Fedora, RHEL 6
	"/etc/ssl/ca-bundle.pem",                            // openSUSE
	"/etc/pki/tls/cacert.pem",                           // OpenELEC
	"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem", // CentOS, RHEL 7
	"/etc/ssl/cert.pem",                                 // Alpine, macOS, BSDs
}

// platformFs is where the platform bundle is read from.
var platformFs = afero.NewOsFs()

// platformRoots returns the certificates of the platform CA bundle.
//
// SSL_CERT_FILE replaces the bundle search; SSL_CERT_DIR adds every
// certificate file of its directories. Unreadable files are logged and skipped.
// x509.SystemCertPool cannot be used here because a pool does not expose its
// certificates.
func platformRoots(log logger.Logger) []*x509.Certificate {
	decoder := x509certs.New()

	var roots []*x509.Certificate
	readFile := func(path string, quiet bool) bool {
		data, err := afero.ReadFile(platformFs, path)
		if err != nil {
			if !quiet {
				log.Printf("platform roots: %v", err)
			}
			return false
		}
		certs, err := decoder.DecodeMultiple(data)
		if err != nil || len(certs) == 0 {
			if !quiet {
				log.Printf("platform roots: no certificates in %s", path)
			}
			return false
		}
		roots = append(roots, certs...)
		return true
	}

	if file := os.Getenv(EnvCertFile); file != "" {
		readFile(file, false)
	} else {
		for _, path := range bundlePaths {
			if readFile(path, true) {
				break
			}
		}
	}

	if dirs := os.Getenv(EnvCertDir); dirs != "" {
		for _, dir := range filepath.SplitList(dirs) {
			entries, err := afero.ReadDir(platformFs, dir)
			if err != nil {
				log.Printf("platform roots: %v", err)
				continue
			}
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				readFile(filepath.Join(dir, e.Name()), true)
			}
		}
	}
	return roots
}
