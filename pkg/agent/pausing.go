// Package agent implements the boundary to the remote execution agent: the
// events it reports, the responses it accepts and the line-oriented JSON
// codec between them.
package agent

import (
	"fmt"
	"strings"
)

// PausingPoint is one of the moments at which the agent synchronously asks
// whether execution should continue.
type PausingPoint int

const (
	PreStartKeyword PausingPoint = iota
	StartKeyword
	PreEndKeyword
	EndKeyword
)

var pausingPointNames = [...]string{
	PreStartKeyword: "PRE_START_KEYWORD",
	StartKeyword:    "START_KEYWORD",
	PreEndKeyword:   "PRE_END_KEYWORD",
	EndKeyword:      "END_KEYWORD",
}

func (p PausingPoint) String() string {
	if p < 0 || int(p) >= len(pausingPointNames) {
		return fmt.Sprintf("PausingPoint(%d)", int(p))
	}
	return pausingPointNames[p]
}

// ParsePausingPoint maps the agent's pausing point name onto a PausingPoint.
func ParsePausingPoint(s string) (PausingPoint, error) {
	for i, name := range pausingPointNames {
		if strings.EqualFold(name, s) {
			return PausingPoint(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pausing point %q: %w", s, ErrMalformedEvent)
}
