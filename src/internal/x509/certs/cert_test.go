// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/testutil"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
)

var (
	oidData       = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}
	oidSignedData = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2}
)

// p7b encodes certs as a certificates-only SignedData bundle, the layout
// openssl crl2pkcs7 -nocrl produces.
func p7b(t *testing.T, certs ...*x509.Certificate) []byte {
	t.Helper()

	var raw []byte
	for _, cert := range certs {
		raw = append(raw, cert.Raw...)
	}

	emptySet := asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagSet, IsCompound: true}
	signed, err := asn1.Marshal(struct {
		Version          int
		DigestAlgorithms asn1.RawValue
		ContentInfo      struct{ ContentType asn1.ObjectIdentifier }
		Certificates     asn1.RawValue
		CRLs             asn1.RawValue
		SignerInfos      asn1.RawValue
	}{
		Version:          1,
		DigestAlgorithms: emptySet,
		ContentInfo:      struct{ ContentType asn1.ObjectIdentifier }{oidData},
		Certificates:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: raw},
		CRLs:             asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 1, IsCompound: true},
		SignerInfos:      emptySet,
	})
	require.NoError(t, err)

	bundle, err := asn1.Marshal(struct {
		ContentType asn1.ObjectIdentifier
		Content     asn1.RawValue
	}{
		ContentType: oidSignedData,
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: signed},
	})
	require.NoError(t, err)
	return bundle
}

func pemBlock(blockType string, data []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: data})
}

func TestDecode(t *testing.T) {
	ch, err := testutil.NewChain(1)
	require.NoError(t, err)
	leaf, inter := ch.Leaf.Cert, ch.Intermediates[0].Cert

	decoder := x509certs.New()

	tests := []struct {
		name     string
		input    func(t *testing.T) []byte
		want     *x509.Certificate
		expected error
	}{
		{
			name:  "PEM Certificate",
			input: func(*testing.T) []byte { return decoder.EncodePEM(leaf) },
			want:  leaf,
		},
		{
			name:  "DER Certificate",
			input: func(*testing.T) []byte { return decoder.EncodeDER(leaf) },
			want:  leaf,
		},
		{
			name:  "PEM PKCS7 Takes First",
			input: func(t *testing.T) []byte { return pemBlock("PKCS7", p7b(t, inter, leaf)) },
			want:  inter,
		},
		{
			name:  "DER PKCS7 Takes First",
			input: func(t *testing.T) []byte { return p7b(t, leaf, inter) },
			want:  leaf,
		},
		{
			name:     "PEM Block Of Other Type",
			input:    func(*testing.T) []byte { return pemBlock("X509 CRL", leaf.Raw) },
			expected: x509certs.ErrInvalidBlockType,
		},
		{
			name:     "PEM Certificate With Garbage Body",
			input:    func(*testing.T) []byte { return pemBlock("CERTIFICATE", []byte("not a certificate")) },
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "Garbage DER",
			input:    func(*testing.T) []byte { return []byte{0x30, 0x03, 0x02, 0x01} },
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "PKCS7 Without Certificates",
			input:    func(t *testing.T) []byte { return p7b(t) },
			expected: x509certs.ErrNoCertificatesInPKCS,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decoder.Decode(tt.input(t))
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "decoded %s", got.Subject.CommonName)
		})
	}
}

func TestDecodeMultiple(t *testing.T) {
	ch, err := testutil.NewChain(2)
	require.NoError(t, err)
	expected := ch.Expected()

	decoder := x509certs.New()

	tests := []struct {
		name     string
		input    func(t *testing.T) []byte
		want     []*x509.Certificate
		expected error
	}{
		{
			name:  "PEM Chain",
			input: func(*testing.T) []byte { return decoder.EncodeMultiplePEM(expected) },
			want:  expected,
		},
		{
			name: "PEM Certificate Then PKCS7",
			input: func(t *testing.T) []byte {
				return append(decoder.EncodePEM(expected[0]), pemBlock("PKCS7", p7b(t, expected[1:]...))...)
			},
			want: expected,
		},
		{
			name: "PEM PKCS7 Then Certificate",
			input: func(t *testing.T) []byte {
				return append(pemBlock("PKCS7", p7b(t, expected[:2]...)), decoder.EncodeMultiplePEM(expected[2:])...)
			},
			want: expected,
		},
		{
			name:  "DER Concatenation",
			input: func(*testing.T) []byte { return decoder.EncodeMultipleDER(expected) },
			want:  expected,
		},
		{
			name:  "DER PKCS7",
			input: func(t *testing.T) []byte { return p7b(t, expected...) },
			want:  expected,
		},
		{
			name: "Unknown Block Between Certificates",
			input: func(*testing.T) []byte {
				var buf bytes.Buffer
				buf.Write(decoder.EncodePEM(expected[0]))
				buf.Write(pemBlock("PRIVATE KEY", []byte{0x01}))
				buf.Write(decoder.EncodePEM(expected[1]))
				return buf.Bytes()
			},
			expected: x509certs.ErrInvalidBlockType,
		},
		{
			name: "Corrupt Certificate Block",
			input: func(*testing.T) []byte {
				return append(decoder.EncodePEM(expected[0]), pemBlock("CERTIFICATE", []byte("garbage"))...)
			},
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "Corrupt PKCS7 Block",
			input:    func(*testing.T) []byte { return pemBlock("PKCS7", []byte("garbage")) },
			expected: x509certs.ErrParsePKCS7,
		},
		{
			name:     "Empty PKCS7 Block",
			input:    func(t *testing.T) []byte { return pemBlock("PKCS7", p7b(t)) },
			expected: x509certs.ErrNoCertificatesInPKCS,
		},
		{
			name:     "Garbage DER",
			input:    func(*testing.T) []byte { return []byte("neither DER nor PEM") },
			expected: x509certs.ErrParseCertificate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decoder.DecodeMultiple(tt.input(t))
			if tt.expected != nil {
				assert.ErrorIs(t, err, tt.expected)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.True(t, x509certs.SameContent(tt.want[i], got[i]), "position %d", i)
			}
		})
	}
}

func TestIsPEM(t *testing.T) {
	root, err := testutil.NewRoot("PEM Root")
	require.NoError(t, err)

	decoder := x509certs.New()

	tests := []struct {
		name  string
		input []byte
		want  bool
	}{
		{name: "Certificate", input: decoder.EncodePEM(root.Cert), want: true},
		{name: "Leading Text", input: append([]byte("subject=PEM Root\n"), decoder.EncodePEM(root.Cert)...), want: true},
		{name: "DER", input: root.Cert.Raw},
		{name: "Empty", input: nil},
		{name: "Bad Base64", input: []byte("-----BEGIN CERTIFICATE-----\n!!!\n-----END CERTIFICATE-----\n")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, decoder.IsPEM(tt.input))
		})
	}
}

func TestEncode(t *testing.T) {
	ch, err := testutil.NewChain(1)
	require.NoError(t, err)
	expected := ch.Expected()

	decoder := x509certs.New()

	tests := []struct {
		name     string
		testFunc func(t *testing.T)
	}{
		{
			name: "PEM Block",
			testFunc: func(t *testing.T) {
				block, rest := pem.Decode(decoder.EncodePEM(ch.Leaf.Cert))
				require.NotNil(t, block)
				assert.Empty(t, rest)
				assert.Equal(t, "CERTIFICATE", block.Type)
				assert.Equal(t, ch.Leaf.Cert.Raw, block.Bytes)
			},
		},
		{
			name: "DER Is Raw",
			testFunc: func(t *testing.T) {
				assert.Equal(t, ch.Leaf.Cert.Raw, decoder.EncodeDER(ch.Leaf.Cert))
			},
		},
		{
			name: "Multiple PEM Keeps Order",
			testFunc: func(t *testing.T) {
				data := decoder.EncodeMultiplePEM(expected)
				for _, cert := range expected {
					block, rest := pem.Decode(data)
					require.NotNil(t, block)
					assert.Equal(t, cert.Raw, block.Bytes)
					data = rest
				}
				assert.Empty(t, data)
			},
		},
		{
			name: "Multiple DER Concatenates",
			testFunc: func(t *testing.T) {
				var want []byte
				for _, cert := range expected {
					want = append(want, cert.Raw...)
				}
				assert.Equal(t, want, decoder.EncodeMultipleDER(expected))
			},
		},
		{
			name: "Empty Lists",
			testFunc: func(t *testing.T) {
				assert.Empty(t, decoder.EncodeMultiplePEM(nil))
				assert.Empty(t, decoder.EncodeMultipleDER(nil))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, tt.testFunc)
	}
}

func TestSameContent(t *testing.T) {
	ch, err := testutil.NewChain(1)
	require.NoError(t, err)

	reparsed, err := x509.ParseCertificate(ch.Leaf.Cert.Raw)
	require.NoError(t, err)

	tests := []struct {
		name string
		a, b *x509.Certificate
		want bool
	}{
		{name: "Same Pointer", a: ch.Leaf.Cert, b: ch.Leaf.Cert, want: true},
		{name: "Reparsed", a: ch.Leaf.Cert, b: reparsed, want: true},
		{name: "Different Certificates", a: ch.Leaf.Cert, b: ch.Root.Cert},
		{name: "One Nil", a: ch.Leaf.Cert},
		{name: "Both Nil", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x509certs.SameContent(tt.a, tt.b))
			assert.Equal(t, tt.want, x509certs.SameContent(tt.b, tt.a))
		})
	}
}
