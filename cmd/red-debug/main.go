// Package main provides the red-debug binary.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/nokia/red-debugger/pkg/breakpoints"
	"github.com/nokia/red-debugger/pkg/config"
	rmcp "github.com/nokia/red-debugger/pkg/mcp"
	"github.com/nokia/red-debugger/pkg/model"
)

// Version is set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "red-debug",
	Short:        "Debugger backend for Robot Framework executions",
	Long:         "red-debug rebuilds the call stack of a Robot Framework execution from agent events and decides where it pauses.",
	SilenceUsage: true,
}

// --- validate ---

var validateKind string

var validateCmd = &cobra.Command{
	Use:   "validate [file.yaml]",
	Short: "Validate a suite model or breakpoints file against its schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	filePath := args[0]
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	kind := validateKind
	if kind == "" {
		kind = "breakpoints"
		if strings.HasSuffix(filePath, model.ModelSuffix) {
			kind = "model"
		}
	}

	var errs []*model.ValidationError
	var summary string
	switch kind {
	case "model":
		var f *model.File
		if f, errs = model.Validate(data); len(errs) == 0 {
			summary = fmt.Sprintf("model of %s is valid (%d tests, %d keywords)", f.Source, len(f.TestCases), len(f.Keywords))
		}
	case "breakpoints":
		var f *breakpoints.File
		if f, errs = breakpoints.Validate(data); len(errs) == 0 {
			summary = fmt.Sprintf("%s is valid (%d breakpoints)", filePath, len(f.Breakpoints))
		}
	default:
		return fmt.Errorf("unknown kind %q (use 'model' or 'breakpoints')", kind)
	}

	if len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "Validation failed: %d error(s)\n\n", len(errs))
		for i, e := range errs {
			fmt.Fprintf(os.Stderr, "  %d. [%s] %s\n", i+1, e.Phase, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, "     at: %s\n", e.Path)
			}
		}
		return fmt.Errorf("validation failed with %d error(s)", len(errs))
	}
	fmt.Printf("✓ %s\n", summary)
	return nil
}

// --- schema ---

var schemaCmd = &cobra.Command{
	Use:       "schema [model|breakpoints]",
	Short:     "Export a JSON Schema",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"model", "breakpoints"},
	RunE:      runSchema,
}

func runSchema(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	switch args[0] {
	case "model":
		data, err = model.GenerateJSONSchema()
	case "breakpoints":
		data, err = breakpoints.GenerateJSONSchema()
	default:
		return fmt.Errorf("unknown schema type %q (use 'model' or 'breakpoints')", args[0])
	}
	if err != nil {
		return fmt.Errorf("generate schema: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// --- mcp ---

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the debugger tools over MCP on stdio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.ServeStdio(rmcp.NewServer(version))
	},
}

// --- version ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("red-debug %s (commit: %s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (default from config)")

	validateCmd.Flags().StringVar(&validateKind, "kind", "", "Document kind: model or breakpoints (guessed from the file name)")

	for _, c := range []*cobra.Command{replayCmd, consoleCmd} {
		c.Flags().StringVar(&sessionFlags.config, "config", "", "Path to the debugger config YAML")
		c.Flags().StringVar(&sessionFlags.modelDir, "model-dir", "", "Directory with the *.model.yaml suite models")
		c.Flags().StringVar(&sessionFlags.breakpoints, "breakpoints", "", "Path to the breakpoints YAML file")
		c.Flags().StringVar(&sessionFlags.responses, "responses", "", "Write the responses sent to the agent to this file (default stdout)")
	}
	replayCmd.Flags().BoolVar(&sessionFlags.pauseOnError, "pause-on-error", false, "Pause when a frame cannot be located in the models")

	rootCmd.AddCommand(replayCmd, consoleCmd, validateCmd, schemaCmd, mcpCmd, versionCmd)
}
