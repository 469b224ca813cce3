package console

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

const helpMarkdown = `# Commands

| Command | Action |
|---|---|
| pause | pause at the next keyword |
| continue, resume | resume the execution |
| step, into | step into the next keyword |
| next, over | step over the current keyword |
| return, out | run until the current keyword returns |
| bt | show the stack, top first |
| vars [frame] | show the variables of a frame; + added, * changed |
| set <frame> <var> <value...> | change a variable |
| pause-on-error on/off | pause when a frame cannot be located in the model |
| terminate | stop the execution |
| disconnect | let the execution go on without the debugger |
| help | show this help |
| quit | leave the console |
`

func (c *Console) printHelp() {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err == nil {
		if out, err := r.Render(helpMarkdown); err == nil {
			fmt.Fprint(c.output, out)
			return
		}
	}
	fmt.Fprint(c.output, helpMarkdown)
}
