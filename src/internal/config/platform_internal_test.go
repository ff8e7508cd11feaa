// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"crypto/x509"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/testutil"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/logger"
)

// usePlatform points platform root discovery at fs and paths for one test.
func usePlatform(t *testing.T, fs afero.Fs, paths ...string) {
	t.Helper()

	oldFs, oldPaths := platformFs, bundlePaths
	platformFs, bundlePaths = fs, paths
	t.Cleanup(func() { platformFs, bundlePaths = oldFs, oldPaths })
}

func TestPlatformRoots(t *testing.T) {
	first, err := testutil.NewRoot("Bundle Root A")
	require.NoError(t, err)
	second, err := testutil.NewRoot("Bundle Root B")
	require.NoError(t, err)
	extra, err := testutil.NewRoot("Directory Root")
	require.NoError(t, err)

	decoder := x509certs.New()
	write := func(t *testing.T, fs afero.Fs, path string, data []byte) {
		t.Helper()
		require.NoError(t, afero.WriteFile(fs, path, data, 0o644))
	}

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "First Readable Bundle Wins",
			testFunc: func(t *testing.T) {
				fs := afero.NewMemMapFs()
				write(t, fs, "/etc/pki/tls/certs/ca-bundle.crt", decoder.EncodePEM(first.Cert))
				write(t, fs, "/etc/ssl/cert.pem", decoder.EncodePEM(second.Cert))
				usePlatform(t, fs, "/etc/ssl/certs/ca-certificates.crt", "/etc/pki/tls/certs/ca-bundle.crt", "/etc/ssl/cert.pem")
				t.Setenv(EnvCertFile, "")
				t.Setenv(EnvCertDir, "")

				roots := platformRoots(logger.Discard)
				require.Len(t, roots, 1)
				assert.True(t, roots[0].Equal(first.Cert))
			},
		},
		{
			name: "Unusable Bundle Is Skipped",
			testFunc: func(t *testing.T) {
				fs := afero.NewMemMapFs()
				write(t, fs, "/etc/ssl/certs/ca-certificates.crt", []byte("not a bundle"))
				write(t, fs, "/etc/ssl/cert.pem", decoder.EncodePEM(second.Cert))
				usePlatform(t, fs, "/etc/ssl/certs/ca-certificates.crt", "/etc/ssl/cert.pem")
				t.Setenv(EnvCertFile, "")
				t.Setenv(EnvCertDir, "")

				roots := platformRoots(logger.Discard)
				require.Len(t, roots, 1)
				assert.True(t, roots[0].Equal(second.Cert))
			},
		},
		{
			name: "Cert File Replaces Search",
			testFunc: func(t *testing.T) {
				fs := afero.NewMemMapFs()
				write(t, fs, "/etc/ssl/cert.pem", decoder.EncodePEM(first.Cert))
				write(t, fs, "/opt/ca/roots.pem", decoder.EncodePEM(second.Cert))
				usePlatform(t, fs, "/etc/ssl/cert.pem")
				t.Setenv(EnvCertFile, "/opt/ca/roots.pem")
				t.Setenv(EnvCertDir, "")

				roots := platformRoots(logger.Discard)
				require.Len(t, roots, 1)
				assert.True(t, roots[0].Equal(second.Cert))
			},
		},
		{
			name: "Cert Dirs Add Certificates",
			testFunc: func(t *testing.T) {
				fs := afero.NewMemMapFs()
				write(t, fs, "/etc/ssl/cert.pem", decoder.EncodePEM(first.Cert))
				write(t, fs, "/opt/certs/extra.pem", decoder.EncodePEM(extra.Cert))
				write(t, fs, "/opt/certs/second.der", second.Cert.Raw)
				write(t, fs, "/opt/certs/README", []byte("not a certificate"))
				require.NoError(t, fs.MkdirAll("/opt/certs/nested", 0o755))
				usePlatform(t, fs, "/etc/ssl/cert.pem")
				t.Setenv(EnvCertFile, "")
				t.Setenv(EnvCertDir, "/opt/certs"+string(os.PathListSeparator)+"/missing")

				roots := platformRoots(logger.Discard)
				require.Len(t, roots, 3)
				for _, want := range []*x509.Certificate{first.Cert, extra.Cert, second.Cert} {
					assert.True(t, containsCert(roots, want), "missing %s", want.Subject.CommonName)
				}
			},
		},
		{
			name: "Nothing Found",
			testFunc: func(t *testing.T) {
				usePlatform(t, afero.NewMemMapFs(), "/etc/ssl/cert.pem")
				t.Setenv(EnvCertFile, "")
				t.Setenv(EnvCertDir, "")

				assert.Empty(t, platformRoots(logger.Discard))

				cfg := Default()
				store, err := cfg.LoadStore(nil)
				require.NoError(t, err)
				assert.Equal(t, 0, store.Len())
			},
		},
		{
			name: "Store Trusts Bundle",
			testFunc: func(t *testing.T) {
				fs := afero.NewMemMapFs()
				write(t, fs, "/etc/ssl/cert.pem", decoder.EncodeMultiplePEM([]*x509.Certificate{first.Cert, second.Cert}))
				usePlatform(t, fs, "/etc/ssl/cert.pem")
				t.Setenv(EnvCertFile, "")
				t.Setenv(EnvCertDir, "")

				store, err := Default().LoadStore(nil)
				require.NoError(t, err)
				assert.True(t, store.IsTrusted(first.Cert))
				assert.True(t, store.IsTrusted(second.Cert))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func containsCert(certs []*x509.Certificate, want *x509.Certificate) bool {
	for _, c := range certs {
		if c.Equal(want) {
			return true
		}
	}
	return false
}
