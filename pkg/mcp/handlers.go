package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nokia/red-debugger/pkg/breakpoints"
	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/logging"
	"github.com/nokia/red-debugger/pkg/model"
	"github.com/nokia/red-debugger/pkg/session"
)

// HandleReplay implements the red/replay MCP tool.
func HandleReplay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	events, _ := args["events"].(string)
	if events == "" {
		return errorResult("events argument is required"), nil
	}
	modelDir, _ := args["model_dir"].(string)
	bpPath, _ := args["breakpoints"].(string)
	pauseOnError, _ := args["pause_on_error"].(bool)

	f, err := os.Open(events)
	if err != nil {
		return errorResult(fmt.Sprintf("open events: %s", err)), nil
	}
	defer f.Close()

	opts, err := session.Setup{
		ModelDir:    modelDir,
		Breakpoints: bpPath,
		Preferences: debug.Preferences{PauseOnError: func() bool { return pauseOnError }},
		Logger:      logging.Discard(),
	}.Options()
	if err != nil {
		return errorResult(err.Error()), nil
	}

	s, err := session.Replay(ctx, f, io.Discard, opts)
	response := map[string]any{
		"session": s.ID,
		"ended":   s.ExecutionEnded(),
		"pauses":  s.Pauses(),
	}
	if err != nil {
		response["error"] = err.Error()
	}
	data, _ := json.MarshalIndent(response, "", "  ")
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(data))},
		IsError: err != nil,
	}, nil
}

// HandleValidate implements the red/validate MCP tool.
func HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return errorResult("path argument is required"), nil
	}
	kind, _ := args["kind"].(string)
	if kind == "" {
		kind = kindOf(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errorResult(fmt.Sprintf("read %s: %s", path, err)), nil
	}

	switch kind {
	case "model":
		f, errs := model.Validate(data)
		if len(errs) > 0 {
			return errorResult(formatErrors(errs)), nil
		}
		return textResult(fmt.Sprintf("✓ model of %s is valid (%d tests, %d keywords)", f.Source, len(f.TestCases), len(f.Keywords))), nil
	case "breakpoints":
		f, errs := breakpoints.Validate(data)
		if len(errs) > 0 {
			return errorResult(formatErrors(errs)), nil
		}
		return textResult(fmt.Sprintf("✓ %s is valid (%d breakpoints)", path, len(f.Breakpoints))), nil
	}
	return errorResult(fmt.Sprintf("unknown kind %q, use 'model' or 'breakpoints'", kind)), nil
}

// HandleSchema implements the red/schema MCP tool.
func HandleSchema(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	schemaType, _ := args["type"].(string)

	var data []byte
	var err error

	switch schemaType {
	case "model":
		data, err = model.GenerateJSONSchema()
	case "breakpoints":
		data, err = breakpoints.GenerateJSONSchema()
	default:
		return errorResult(fmt.Sprintf("unknown schema type %q, use 'model' or 'breakpoints'", schemaType)), nil
	}

	if err != nil {
		return errorResult(err.Error()), nil
	}
	return textResult(string(data)), nil
}

// kindOf guesses the document kind from the file name.
func kindOf(path string) string {
	if strings.HasSuffix(path, model.ModelSuffix) {
		return "model"
	}
	return "breakpoints"
}

func formatErrors(errs []*model.ValidationError) string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(msg),
		},
		IsError: true,
	}
}
