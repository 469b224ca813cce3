// Package console implements the interactive debugger console.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"

	"github.com/nokia/red-debugger/pkg/config"
	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/session"
)

var commands = []string{
	"pause", "continue", "resume", "step", "into", "next", "over", "return", "out",
	"bt", "vars", "set", "pause-on-error on", "pause-on-error off",
	"terminate", "disconnect", "help", "quit",
}

// Console reads user commands and queues them on the session's controller.
// It never touches the agent connection itself.
type Console struct {
	session *session.Session
	prefs   *config.Preferences
	output  io.Writer
}

// New creates a console for s. prefs may be nil, which disables the
// pause-on-error command.
func New(s *session.Session, prefs *config.Preferences) *Console {
	return &Console{session: s, prefs: prefs, output: os.Stdout}
}

// SetOutput redirects the console output.
func (c *Console) SetOutput(w io.Writer) { c.output = w }

// Run starts the REPL. It returns when the user quits, input ends or ctx is
// done.
func (c *Console) Run(ctx context.Context) error {
	completer := readline.NewPrefixCompleter()
	for _, cmd := range commands {
		completer.Children = append(completer.Children, readline.PcItem(cmd))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          c.prompt(),
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
		Stdout:          c.output,
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	go func() {
		<-ctx.Done()
		rl.Close()
	}()

	fmt.Fprintf(c.output, "RED debugger console, session %s\n", c.session.ID)
	fmt.Fprintf(c.output, "Type 'help' for available commands.\n\n")

	for {
		rl.SetPrompt(c.prompt())
		line, err := rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if c.Execute(line) {
			return nil
		}
	}
}

func (c *Console) prompt() string {
	if c.session.ExecutionEnded() {
		return promptStyle.Render("red[ended]>") + " "
	}
	var name string
	c.session.Inspect(func(stack *debug.Stacktrace) {
		if top, ok := stack.Peek(); ok {
			name = top.Name()
		}
	})
	if name != "" {
		return promptStyle.Render(fmt.Sprintf("red[%s]>", name)) + " "
	}
	return promptStyle.Render("red>") + " "
}

// Execute runs one command line. It reports whether the console should quit.
func (c *Console) Execute(line string) bool {
	cmd, args, ok := parse(line)
	if !ok {
		return false
	}
	ctrl := c.session.Controller()
	switch cmd {
	case "pause":
		ctrl.Pause(c.sent("pause"))
	case "continue", "resume", "c":
		ctrl.Resume(c.sent("resume"))
	case "step", "into", "s":
		ctrl.StepInto(c.sent("step into"), nil)
	case "next", "over", "n":
		c.session.Inspect(func(stack *debug.Stacktrace) {
			if top, ok := stack.Peek(); ok {
				ctrl.StepOver(top, c.sent("step over"), nil)
			} else {
				fmt.Fprintf(c.output, "Nothing is running.\n")
			}
		})
	case "return", "out":
		c.session.Inspect(func(stack *debug.Stacktrace) {
			if top, ok := stack.Peek(); ok {
				ctrl.StepReturn(top, c.sent("step return"), nil)
			} else {
				fmt.Fprintf(c.output, "Nothing is running.\n")
			}
		})
	case "bt":
		c.session.Inspect(c.printStack)
	case "vars":
		c.session.Inspect(func(stack *debug.Stacktrace) { c.printVariables(stack, args) })
	case "set":
		c.session.Inspect(func(stack *debug.Stacktrace) { c.changeVariable(stack, args) })
	case "pause-on-error":
		c.switchPauseOnError(args)
	case "terminate":
		ctrl.Terminate(c.sent("terminate"))
	case "disconnect":
		ctrl.Disconnect(c.sent("disconnect"))
	case "help", "?":
		c.printHelp()
	case "quit", "q":
		fmt.Fprintf(c.output, "Exiting console.\n")
		return true
	default:
		fmt.Fprintf(c.output, "Unknown command: %q. Type 'help' for available commands.\n", cmd)
	}
	return false
}

// sent returns the callback run once a request reached the agent.
func (c *Console) sent(what string) func() {
	return func() { fmt.Fprintf(c.output, "%s %s\n", markerStyle.Render("»"), what) }
}

// parse splits a command line into the command and its arguments.
func parse(line string) (string, []string, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil, false
	}
	return strings.ToLower(fields[0]), fields[1:], true
}

func (c *Console) switchPauseOnError(args []string) {
	if c.prefs == nil {
		fmt.Fprintf(c.output, "Preferences cannot be changed in this session.\n")
		return
	}
	if len(args) != 1 || (args[0] != "on" && args[0] != "off") {
		fmt.Fprintf(c.output, "Usage: pause-on-error on|off\n")
		return
	}
	c.prefs.SetPauseOnError(args[0] == "on")
	fmt.Fprintf(c.output, "Pause on error is %s.\n", args[0])
}
