// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/config"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/verifier"
	x509certs "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/certs"
	x509remote "github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/x509/remote"
)

// toolHandlers binds tool handlers to one verifier.
type toolHandlers struct {
	verifier *verifier.Verifier
}

// readCertificates decodes certInput, trying it as a file path first and as
// base64-encoded PEM or DER data second.
func readCertificates(certInput string) ([]*x509.Certificate, error) {
	data, err := gc.ReadFile(certInput)
	if err != nil {
		decoded, decErr := base64.StdEncoding.DecodeString(strings.TrimSpace(certInput))
		if decErr != nil {
			return nil, fmt.Errorf("failed to read certificate: not a file (%v) nor base64 (%v)", err, decErr)
		}
		data = decoded
	}

	certs, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode certificate: %w", err)
	}
	if len(certs) == 0 {
		return nil, fmt.Errorf("failed to decode certificate: %w", x509certs.ErrNilCertificate)
	}
	return certs, nil
}

// chainRequest builds a verifier request from the certificate argument.
func chainRequest(request mcp.CallToolRequest) (verifier.Request, error) {
	certInput, err := request.RequireString("certificate")
	if err != nil {
		return verifier.Request{}, fmt.Errorf("certificate parameter required: %w", err)
	}
	certs, err := readCertificates(certInput)
	if err != nil {
		return verifier.Request{}, err
	}
	return verifier.Request{Leaf: certs[0], Intermediates: certs[1:]}, nil
}

// handleVerifyCertChain verifies a chain read from the certificate argument or
// fetched from the remote endpoint and returns the report in the requested
// format. A chain that fails verification is a successful tool call whose
// report says so.
func (h *toolHandlers) handleVerifyCertChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	format := request.GetString("format", "json")
	hostname := request.GetString("hostname", "")

	var req verifier.Request
	if remote := request.GetString("remote", ""); remote != "" {
		host, port, err := x509remote.ParseTarget(remote)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		peer, err := x509remote.FetchRemoteChain(ctx, host, port, h.verifier.Config().Timeout())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to fetch remote chain: %v", err)), nil
		}
		req = verifier.Request{Leaf: peer.Leaf, Intermediates: peer.Intermediates, Stapled: peer.Stapled}
		if hostname == "" && net.ParseIP(host) == nil {
			hostname = host
		}
	} else {
		var err error
		if req, err = chainRequest(request); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	req.OCSP = request.GetBool("ocsp", false)
	req.Params.Hostname = hostname
	if purposes := request.GetString("purposes", ""); purposes != "" {
		names := strings.Split(purposes, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
		}
		usages, err := config.ExtKeyUsages(names)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		req.Params.KeyUsages = usages
	}

	res, err := h.verifier.Verify(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("verification error: %v", err)), nil
	}

	switch format {
	case "tree":
		return mcp.NewToolResultText(res.Report.RenderASCIITree(res.Revocation) + summary(res)), nil
	case "table":
		return mcp.NewToolResultText(res.Report.RenderTable(res.Revocation) + summary(res)), nil
	default:
		out, err := res.Report.ToVisualizationJSON(res.Revocation)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to render report: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}
}

func summary(res *verifier.Result) string {
	if res.Accepted() {
		return "\nVerification: OK\n"
	}
	return fmt.Sprintf("\nVerification failed at depth %d: %s\n", res.ErrorDepth, res.Status)
}

// cacheEntry is one element of the check_ocsp_cache result.
type cacheEntry struct {
	Depth   int    `json:"depth"`
	Subject string `json:"subject"`
	Serial  string `json:"serial"`
	Result  string `json:"result"`
	Status  string `json:"status,omitempty"`
	Expires string `json:"expires,omitempty"`
}

// handleCheckOCSPCache reports the cache state of every certificate below the root.
func (h *toolHandlers) handleCheckOCSPCache(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := chainRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	statuses, chainStatus, err := h.verifier.CacheStatus(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	entries := make([]cacheEntry, 0, len(statuses))
	for _, s := range statuses {
		e := cacheEntry{
			Depth:   s.Depth,
			Subject: s.Cert.Subject.CommonName,
			Serial:  s.Cert.SerialNumber.Text(16),
			Result:  s.Lookup.Result.String(),
		}
		if !s.Lookup.Expires.IsZero() {
			e.Status = s.Lookup.Status.String()
			e.Expires = s.Lookup.Expires.UTC().Format(time.RFC3339)
		}
		entries = append(entries, e)
	}

	out, err := json.MarshalIndent(map[string]any{
		"chainStatus": chainStatus.String(),
		"cacheDir":    h.verifier.Cache().Dir(),
		"entries":     entries,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleBuildOCSPRequest builds the OCSP request for the certificate at depth.
func (h *toolHandlers) handleBuildOCSPRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := chainRequest(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	depth := request.GetInt("depth", 0)
	if depth < 0 {
		return mcp.NewToolResultError("depth must not be negative"), nil
	}

	ocspReq, err := h.verifier.BuildRequest(ctx, req, depth)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to build OCSP request: %v", err)), nil
	}

	out, err := json.MarshalIndent(map[string]any{
		"request":        base64.StdEncoding.EncodeToString(ocspReq.DER),
		"subject":        ocspReq.Subject.Subject.CommonName,
		"serial":         ocspReq.Parsed.SerialNumber.Text(16),
		"hashAlgorithm":  ocspReq.Parsed.HashAlgorithm.String(),
		"issuerNameHash": hex.EncodeToString(ocspReq.Parsed.IssuerNameHash),
		"issuerKeyHash":  hex.EncodeToString(ocspReq.Parsed.IssuerKeyHash),
		"responders":     ocspReq.Subject.OCSPServer,
	}, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
