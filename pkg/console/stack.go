package console

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/nokia/red-debugger/pkg/debug"
)

var (
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("51")).Bold(true)
	markerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	changedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

func (c *Console) printStack(stack *debug.Stacktrace) {
	frames := stack.Frames()
	if len(frames) == 0 {
		fmt.Fprintf(c.output, "Stack is empty.\n")
		return
	}
	for i, f := range frames {
		marker := " "
		switch {
		case f.IsErroneous():
			marker = errorStyle.Render("!")
		case f.IsMarkedStepping():
			marker = markerStyle.Render(">")
		}
		location := ""
		if path, ok := f.ContextPath(); ok {
			location = strings.TrimPrefix(path, "file://")
			if r, ok := f.FileRegion(); ok && r.Start.Line > 0 {
				location += ":" + strconv.Itoa(r.Start.Line)
			}
		}
		fmt.Fprintf(c.output, "%s #%d %-8s %s %s\n", marker, i, f.Category(), f.Name(), dimStyle.Render(location))
		if msg, ok := f.ErrorMessage(); ok {
			for _, l := range strings.Split(strings.TrimRight(msg, "\n"), "\n") {
				fmt.Fprintf(c.output, "      %s\n", errorStyle.Render(l))
			}
		}
	}
}

// frameAt returns the frame with the given bt index.
func (c *Console) frameAt(stack *debug.Stacktrace, arg string) (*debug.StackFrame, bool) {
	frames := stack.Frames()
	i, err := strconv.Atoi(arg)
	if err != nil || i < 0 || i >= len(frames) {
		fmt.Fprintf(c.output, "No frame %q; see 'bt'.\n", arg)
		return nil, false
	}
	return frames[i], true
}

func (c *Console) printVariables(stack *debug.Stacktrace, args []string) {
	index := "0"
	if len(args) > 0 {
		index = args[0]
	}
	f, ok := c.frameAt(stack, index)
	if !ok {
		return
	}
	vars := f.Variables()
	if vars == nil || vars.Len() == 0 {
		fmt.Fprintf(c.output, "No variables in frame %s.\n", index)
		return
	}
	delta, hasDelta := f.LastDelta()

	width := 0
	for _, v := range vars.All() {
		width = max(width, runewidth.StringWidth(v.Name))
	}
	for _, v := range vars.All() {
		mark := " "
		if hasDelta {
			switch {
			case delta.IsAdded(v.Name):
				mark = changedStyle.Render("+")
			case delta.IsChanged(v.Name):
				mark = changedStyle.Render("*")
			}
		}
		name := runewidth.FillRight(v.Name, width)
		fmt.Fprintf(c.output, "%s %s = %v %s\n", mark, name, v.Value, dimStyle.Render(v.Scope.String()))
	}
}

func (c *Console) changeVariable(stack *debug.Stacktrace, args []string) {
	if len(args) < 3 {
		fmt.Fprintf(c.output, "Usage: set <frame> <variable> <value...>\n")
		return
	}
	f, ok := c.frameAt(stack, args[0])
	if !ok {
		return
	}
	vars := f.Variables()
	if vars == nil {
		fmt.Fprintf(c.output, "No variables in frame %s.\n", args[0])
		return
	}
	v, ok := vars.Get(args[1])
	if !ok {
		fmt.Fprintf(c.output, "No variable %s in frame %s.\n", args[1], args[0])
		return
	}
	c.session.Controller().ChangeVariable(f, v, args[2:])
	fmt.Fprintf(c.output, "Change of %s queued.\n", v.Name)
}
