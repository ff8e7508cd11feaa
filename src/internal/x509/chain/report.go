// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Report is an immutable view of a verification result for display.
type Report struct {
	Chain      []*x509.Certificate
	Status     VerifyStatus
	ErrorDepth int
	Accepted   bool
	Generated  time.Time
}

// Report captures the context's last chain and outcome.
//
// Parameters:
//   - accepted: The status returned by Verify was StatusOK
//
// Returns:
//   - *Report: Snapshot of the chain and status
func (c *Context) Report(accepted bool) *Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	return &Report{
		Chain:      append([]*x509.Certificate(nil), c.chain...),
		Status:     c.status,
		ErrorDepth: c.depth,
		Accepted:   accepted,
		Generated:  time.Now().UTC(),
	}
}

// failedAt reports whether the recorded failure sits at depth.
func (r *Report) failedAt(depth int) bool {
	return r.Status != StatusOK && r.ErrorDepth == depth
}

// RenderASCIITree renders the certificate chain as an ASCII tree diagram.
//
// It displays the certificate hierarchy with visual connectors showing the
// relationship between leaf, intermediate, and root certificates. A certificate
// is marked failed when the verification error sits at its depth or its
// revocation status is anything but good.
//
// Parameters:
//   - revocationStatus: Optional map of certificate serial numbers to revocation status
//
// Returns:
//   - string: ASCII tree representation of the certificate chain
func (r *Report) RenderASCIITree(revocationStatus map[string]string) string {
	if len(r.Chain) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, cert := range r.Chain {
		connector := "├── "
		if i == len(r.Chain)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if r.failedAt(i) {
			statusIcon = "✗"
		}
		if status, exists := revocationStatus[cert.SerialNumber.String()]; exists && !strings.EqualFold(status, "good") {
			statusIcon = "✗"
		}

		certInfo := fmt.Sprintf("[%s] %s (%s)", statusIcon, cert.Subject.CommonName, r.role(i))
		if r.failedAt(i) {
			certInfo += fmt.Sprintf(": %s", r.Status)
		}

		result.WriteString(connector + certInfo + "\n")
	}

	return result.String()
}

// RenderTable renders the certificate chain as a formatted markdown table.
//
// It displays certificate details including depth, role, subject, issuer,
// validity, key size, verification outcome and revocation status.
//
// Parameters:
//   - revocationStatus: Optional map of certificate serial numbers to revocation status
//
// Returns:
//   - string: Markdown table representation of the certificate chain
func (r *Report) RenderTable(revocationStatus map[string]string) string {
	if len(r.Chain) == 0 {
		return "No certificates to display"
	}

	var buf strings.Builder
	table := tablewriter.NewTable(&buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)

	table.Header([]string{"Depth", "Role", "Subject", "Issuer", "Valid Until", "Key", "Verify", "Revocation"})

	var rows [][]string
	for i, cert := range r.Chain {
		verify := "ok"
		if r.failedAt(i) {
			verify = r.Status.String()
		}

		revocation := "unknown"
		if s, exists := revocationStatus[cert.SerialNumber.String()]; exists {
			revocation = s
		}

		rows = append(rows, []string{
			fmt.Sprintf("%d", i),
			r.role(i),
			cert.Subject.CommonName,
			cert.Issuer.CommonName,
			cert.NotAfter.Format("2006-01-02"),
			keyDescription(cert),
			verify,
			revocation,
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ToVisualizationJSON converts the report to structured JSON for external tools.
//
// Parameters:
//   - revocationStatus: Optional map of certificate serial numbers to revocation status
//
// Returns:
//   - []byte: JSON representation of the chain and outcome
//   - error: Error if JSON marshaling fails
func (r *Report) ToVisualizationJSON(revocationStatus map[string]string) ([]byte, error) {
	type certificateData struct {
		Depth              int       `json:"depth"`
		Role               string    `json:"role"`
		Subject            string    `json:"subject"`
		Issuer             string    `json:"issuer"`
		SerialNumber       string    `json:"serialNumber"`
		SignatureAlgorithm string    `json:"signatureAlgorithm"`
		PublicKey          string    `json:"publicKey"`
		NotBefore          time.Time `json:"notBefore"`
		NotAfter           time.Time `json:"notAfter"`
		IsCA               bool      `json:"isCA"`
		VerifyStatus       string    `json:"verifyStatus"`
		RevocationStatus   string    `json:"revocationStatus"`
	}

	type relationship struct {
		FromDepth int    `json:"fromDepth"`
		ToDepth   int    `json:"toDepth"`
		Type      string `json:"type"`
	}

	type reportData struct {
		Timestamp     string            `json:"timestamp"`
		Accepted      bool              `json:"accepted"`
		Status        int32             `json:"status"`
		StatusText    string            `json:"statusText"`
		ErrorDepth    int               `json:"errorDepth"`
		ChainLength   int               `json:"chainLength"`
		Certificates  []certificateData `json:"certificates"`
		Relationships []relationship    `json:"relationships"`
	}

	data := reportData{
		Timestamp:     r.Generated.Format(time.RFC3339),
		Accepted:      r.Accepted,
		Status:        int32(r.Status),
		StatusText:    r.Status.String(),
		ErrorDepth:    r.ErrorDepth,
		ChainLength:   len(r.Chain),
		Certificates:  make([]certificateData, len(r.Chain)),
		Relationships: []relationship{},
	}

	for i, cert := range r.Chain {
		verify := StatusOK
		if r.failedAt(i) {
			verify = r.Status
		}

		revocation := "unknown"
		if s, exists := revocationStatus[cert.SerialNumber.String()]; exists {
			revocation = s
		}

		data.Certificates[i] = certificateData{
			Depth:              i,
			Role:               r.role(i),
			Subject:            cert.Subject.String(),
			Issuer:             cert.Issuer.String(),
			SerialNumber:       cert.SerialNumber.String(),
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			PublicKey:          keyDescription(cert),
			NotBefore:          cert.NotBefore,
			NotAfter:           cert.NotAfter,
			IsCA:               cert.IsCA,
			VerifyStatus:       verify.String(),
			RevocationStatus:   revocation,
		}

		if i+1 < len(r.Chain) {
			data.Relationships = append(data.Relationships, relationship{
				FromDepth: i,
				ToDepth:   i + 1,
				Type:      "signed_by",
			})
		}
	}

	return json.MarshalIndent(data, "", "  ")
}

// role determines the role of the certificate at index within the chain.
func (r *Report) role(index int) string {
	total := len(r.Chain)
	switch {
	case total == 1:
		return "Self-Signed Certificate"
	case index == 0:
		return "End-Entity Certificate"
	case index == total-1:
		return "Root CA Certificate"
	default:
		return "Intermediate CA Certificate"
	}
}

func keyDescription(cert *x509.Certificate) string {
	switch key := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return fmt.Sprintf("%d-bit RSA", key.Size()*8)
	case *ecdsa.PublicKey:
		return fmt.Sprintf("%d-bit ECDSA", key.Curve.Params().BitSize)
	case ed25519.PublicKey:
		return "Ed25519"
	default:
		return "unknown"
	}
}
