// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-chain-verifier/src/internal/config"
)

// createResources creates the static resources. The version resource lists
// the names of tools.
func createResources(version string, tools []server.ServerTool) []server.ServerResource {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Tool.Name)
	}

	return []server.ServerResource{
		{
			Resource: mcp.NewResource("info://version", "Version Information",
				mcp.WithResourceDescription("Server version and available tools"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				return handleVersionResource(version, names)
			},
		},
		{
			Resource: mcp.NewResource("config://schema", "Configuration Schema",
				mcp.WithResourceDescription("JSON schema of the configuration file"),
				mcp.WithMIMEType("application/schema+json"),
			),
			Handler: handleSchemaResource,
		},
	}
}

func handleVersionResource(version string, tools []string) ([]mcp.ResourceContents, error) {
	info := map[string]any{
		"name":    serverName,
		"version": version,
		"type":    "mcp-server",
		"tools":   tools,
		"supportedFormats": []string{
			"pem", "der", "pkcs7",
		},
	}

	jsonData, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal version info: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "info://version",
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}

func handleSchemaResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "config://schema",
			MIMEType: "application/schema+json",
			Text:     config.Schema(),
		},
	}, nil
}
