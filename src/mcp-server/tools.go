// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createTools creates every MCP tool definition bound to h.
func createTools(h *toolHandlers) []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("verify_cert_chain",
				mcp.WithDescription("Build an X509 certificate chain to a trusted root and verify it, optionally checking OCSP revocation"),
				mcp.WithString("certificate",
					mcp.Description("Certificate file path or base64-encoded PEM/DER data, leaf first; required unless remote is set"),
				),
				mcp.WithString("remote",
					mcp.Description("Fetch the chain from a TLS server, HOST[:PORT]"),
				),
				mcp.WithString("hostname",
					mcp.Description("Hostname the leaf must match (defaults to the remote host)"),
				),
				mcp.WithString("purposes",
					mcp.Description("Comma-separated extended key usages the chain must permit, e.g. serverAuth"),
				),
				mcp.WithBoolean("ocsp",
					mcp.Description("Check revocation of every certificate below the root through OCSP (default: false)"),
					mcp.DefaultBool(false),
				),
				mcp.WithString("format",
					mcp.Description("Report format: 'json', 'tree', or 'table' (default: json)"),
					mcp.DefaultString("json"),
					mcp.Enum("json", "tree", "table"),
				),
			),
			Handler: h.handleVerifyCertChain,
		},
		{
			Tool: mcp.NewTool("check_ocsp_cache",
				mcp.WithDescription("Report the cached OCSP status of every certificate below the root of a chain, without network access"),
				mcp.WithString("certificate",
					mcp.Required(),
					mcp.Description("Certificate file path or base64-encoded PEM/DER data, leaf first"),
				),
			),
			Handler: h.handleCheckOCSPCache,
		},
		{
			Tool: mcp.NewTool("build_ocsp_request",
				mcp.WithDescription("Build the DER OCSP request for a certificate of a chain"),
				mcp.WithString("certificate",
					mcp.Required(),
					mcp.Description("Certificate file path or base64-encoded PEM/DER data, leaf first"),
				),
				mcp.WithNumber("depth",
					mcp.Description("Chain depth of the certificate, 0 is the leaf (default: 0)"),
					mcp.DefaultNumber(0),
				),
			),
			Handler: h.handleBuildOCSPRequest,
		},
	}
}
