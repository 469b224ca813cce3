package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/nokia/red-debugger/pkg/agent"
	"github.com/nokia/red-debugger/pkg/config"
	"github.com/nokia/red-debugger/pkg/console"
	"github.com/nokia/red-debugger/pkg/logging"
	"github.com/nokia/red-debugger/pkg/session"
)

var sessionFlags struct {
	config       string
	modelDir     string
	breakpoints  string
	responses    string
	pauseOnError bool
}

// --- replay ---

var replayCmd = &cobra.Command{
	Use:   "replay [events.jsonl]",
	Short: "Replay recorded agent events, resuming at every pause",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	d, err := openDebuggee(cmd, args[0], false)
	if err != nil {
		return err
	}
	defer d.close()

	d.opts.OnPause = func(p session.Pause) {
		fmt.Fprintf(os.Stderr, "⏸ %s %s\n", p.Reason, p.Detail)
		for _, f := range p.Stack {
			fmt.Fprintf(os.Stderr, "    #%d %-8s %s (%s:%d)\n", f.Level, f.Category, f.Name, f.Path, f.Line)
		}
	}

	s, err := session.Replay(ctx, d.events, d.responses, d.opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Replay finished: %d pause(s), execution ended: %t\n", len(s.Pauses()), s.ExecutionEnded())
	return nil
}

// --- console ---

var consoleCmd = &cobra.Command{
	Use:   "console [events.jsonl]",
	Short: "Replay recorded agent events under an interactive console",
	Args:  cobra.ExactArgs(1),
	RunE:  runConsole,
}

func runConsole(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d, err := openDebuggee(cmd, args[0], true)
	if err != nil {
		return err
	}
	defer d.close()

	d.opts.OnPause = func(p session.Pause) {
		fmt.Fprintf(os.Stdout, "\n⏸ paused: %s %s\n", p.Reason, p.Detail)
	}
	s := session.New(agent.NewWriterResponder(d.responses), d.opts)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, d.events)
	}()

	if err := console.New(s, d.prefs).Run(ctx); err != nil {
		return err
	}
	cancel()
	if err := <-done; err != nil && ctx.Err() == nil {
		return fmt.Errorf("session: %w", err)
	}
	return nil
}

// debuggee holds what a replayed session reads and writes.
type debuggee struct {
	events    *os.File
	responses io.Writer
	prefs     *config.Preferences
	opts      session.Options
	closers   []io.Closer
}

func (d *debuggee) close() {
	for _, c := range d.closers {
		c.Close()
	}
}

// openDebuggee merges the config file, the environment and the flags, and
// opens the session inputs.
func openDebuggee(cmd *cobra.Command, eventsPath string, interactive bool) (*debuggee, error) {
	cfg, err := config.Load(sessionFlags.config)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("model-dir") {
		cfg.ModelDir = sessionFlags.modelDir
	}
	if cmd.Flags().Changed("breakpoints") {
		cfg.Breakpoints = sessionFlags.breakpoints
	}
	if cmd.Flags().Changed("pause-on-error") {
		cfg.Preferences.PauseOnError = sessionFlags.pauseOnError
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	prefs := config.NewPreferences(cfg.Preferences)
	opts, err := session.Setup{
		ModelDir:    cfg.ModelDir,
		Breakpoints: cfg.Breakpoints,
		Preferences: prefs.Debugger(),
		Interactive: interactive,
		Logger:      logger,
	}.Options()
	if err != nil {
		return nil, err
	}

	d := &debuggee{responses: os.Stdout, prefs: prefs, opts: opts}
	if d.events, err = os.Open(eventsPath); err != nil {
		return nil, fmt.Errorf("open events: %w", err)
	}
	d.closers = append(d.closers, d.events)

	if sessionFlags.responses != "" {
		f, err := os.Create(sessionFlags.responses)
		if err != nil {
			d.close()
			return nil, fmt.Errorf("create responses file: %w", err)
		}
		d.responses = f
		d.closers = append(d.closers, f)
	} else if interactive {
		// The console owns the terminal.
		d.responses = io.Discard
	}
	return d, nil
}

// newLogger builds the stderr logger from the config and the root flags.
func newLogger(cfg *config.Config) (*slog.Logger, error) {
	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	return logging.New(os.Stderr, level, format)
}
