package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kluth/extension-auditter/internal/intel"
	"github.com/kluth/extension-auditter/internal/normalizer"
	"github.com/kluth/extension-auditter/internal/pipeline"
)

func newMcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the Model Context Protocol (MCP) server",
		Long: `Starts a JSON-RPC server implementing the Model Context Protocol (MCP).
This allows AI assistants to run extension analyses as a tool.`,
		RunE: runMcpServer,
	}
}

func runMcpServer(cmd *cobra.Command, args []string) error {
	s := server.NewMCPServer(
		"extension-auditter",
		version,
		server.WithLogging(),
	)

	analyzeTool := mcp.NewTool("analyze_extension",
		mcp.WithDescription("Analyze a browser extension package for security risks"),
		mcp.WithString("path",
			mcp.Description("Absolute path to a .crx, .zip, or unpacked extension directory"),
			mcp.Required(),
		),
		mcp.WithString("container",
			mcp.Description("Container format: auto, dir, zip, or crx (default auto)"),
		),
		mcp.WithString("store_id",
			mcp.Description("Marketplace extension id for the reputation lookup"),
		),
	)
	s.AddTool(analyzeTool, handleAnalyzeExtension)

	listStagesTool := mcp.NewTool("list_stages",
		mcp.WithDescription("List the analysis stages and their dependencies"),
	)
	s.AddTool(listStagesTool, handleListStages)

	if err := server.ServeStdio(s); err != nil {
		return fmt.Errorf("MCP server error: %w", err)
	}
	return nil
}

func handleAnalyzeExtension(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("arguments must be a map"), nil
	}
	path, ok := args["path"].(string)
	if !ok {
		return mcp.NewToolResultError("path must be a string"), nil
	}

	cFormat := normalizer.FormatAuto
	if c, ok := args["container"].(string); ok && c != "" {
		var err error
		cFormat, err = normalizer.ParseFormat(c)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	id, _ := args["store_id"].(string)

	lib, err := resolvePatterns()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var vulns intel.VulnerabilitySource
	if !noVulnLookup {
		vulns = intel.NewOSVSource()
	}

	o, err := pipeline.New(pipeline.Config{
		Workers:  workers,
		WorkRoot: workDir,
		Patterns: lib,
		Vulns:    vulns,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := o.Run(ctx, pipeline.Request{
		RunID:   "mcp-" + time.Now().UTC().Format("20060102-150405"),
		Path:    path,
		Format:  cFormat,
		StoreID: id,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Analysis failed: %v", err)), nil
	}

	jsonBytes, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func handleListStages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var b strings.Builder
	printStageList(&b)
	return mcp.NewToolResultText(b.String()), nil
}
