// Package mcp exposes the debugger as MCP tools.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewServer creates an MCP server with the red-debugger tools registered.
func NewServer(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"red-debugger",
		version,
		server.WithToolCapabilities(true),
	)

	s.AddTool(
		mcp.NewTool("red/replay",
			mcp.WithDescription("Replay a recorded agent event log, resuming at every pause, and list the pauses"),
			mcp.WithString("events", mcp.Required(), mcp.Description("Path to the recorded events (one JSON message per line)")),
			mcp.WithString("model_dir", mcp.Description("Directory with the *.model.yaml suite models")),
			mcp.WithString("breakpoints", mcp.Description("Path to the breakpoints YAML file")),
			mcp.WithBoolean("pause_on_error", mcp.Description("Pause when a frame cannot be located in the models")),
		),
		HandleReplay,
	)

	s.AddTool(
		mcp.NewTool("red/validate",
			mcp.WithDescription("Validate a suite model or breakpoints file"),
			mcp.WithString("path", mcp.Required(), mcp.Description("Path to the YAML file")),
			mcp.WithString("kind", mcp.Description("'model' or 'breakpoints'; guessed from the file name when empty")),
		),
		HandleValidate,
	)

	s.AddTool(
		mcp.NewTool("red/schema",
			mcp.WithDescription("Export a red-debugger JSON Schema"),
			mcp.WithString("type", mcp.Required(), mcp.Description("Schema type: 'model' or 'breakpoints'")),
		),
		HandleSchema,
	)

	return s
}
