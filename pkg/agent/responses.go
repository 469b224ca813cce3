package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Response is a message sent back to the agent. The set of responses is
// closed; see the types below.
type Response interface {
	// Name is the wire name of the response.
	Name() string
	arguments() any
}

// Continue lets execution proceed past a pausing point.
type Continue struct{}

// Pause asks the agent to pause at the current pausing point.
type Pause struct{}

// Resume resumes a paused agent.
type Resume struct{}

// Terminate stops the execution.
type Terminate struct{}

// Disconnect detaches the debugger and lets execution run to the end.
type Disconnect struct{}

// Interrupt asks the agent to stop at the next pausing point.
type Interrupt struct{}

// EvaluateCondition asks the agent to run a keyword and report whether it
// passed. The first element is the keyword name, the rest are arguments.
type EvaluateCondition struct {
	Condition []string
}

// ChangeVariable asks the agent to assign new values to a variable, or to an
// element inside it when Path is not empty.
type ChangeVariable struct {
	Variable string
	Scope    VariableScope
	Level    int
	Path     []any
	Values   []string
}

// ProtocolVersion tells the agent which protocol version the debugger speaks.
type ProtocolVersion struct {
	Version int
}

func (Continue) Name() string { return "continue" }
func (Pause) Name() string { return "pause" }
func (Resume) Name() string { return "resume" }
func (Terminate) Name() string { return "terminate" }
func (Disconnect) Name() string { return "disconnect" }
func (Interrupt) Name() string { return "interrupt" }
func (EvaluateCondition) Name() string { return "evaluate_condition" }
func (ChangeVariable) Name() string { return "change_variable" }
func (ProtocolVersion) Name() string { return "protocol_version" }

func (Continue) arguments() any { return []any{} }
func (Pause) arguments() any { return []any{} }
func (Resume) arguments() any { return []any{} }
func (Terminate) arguments() any { return []any{} }
func (Disconnect) arguments() any { return []any{} }
func (Interrupt) arguments() any { return []any{} }

func (r EvaluateCondition) arguments() any {
	if r.Condition == nil {
		return []string{}
	}
	return r.Condition
}

func (r ChangeVariable) arguments() any {
	path := r.Path
	if path == nil {
		path = []any{}
	}
	values := r.Values
	if values == nil {
		values = []string{}
	}
	return changeVariableArgs{
		Name:   r.Variable,
		Scope:  r.Scope.String(),
		Level:  r.Level,
		Path:   path,
		Values: values,
	}
}

func (r ProtocolVersion) arguments() any { return []int{r.Version} }

type changeVariableArgs struct {
	Name   string   `json:"name"`
	Scope  string   `json:"scope"`
	Level  int      `json:"level"`
	Path   []any    `json:"path"`
	Values []string `json:"values"`
}

// EncodeResponse renders a response as a single JSON object keyed by its name.
func EncodeResponse(r Response) ([]byte, error) {
	data, err := json.Marshal(map[string]any{r.Name(): r.arguments()})
	if err != nil {
		return nil, fmt.Errorf("encode %s response: %w", r.Name(), err)
	}
	return data, nil
}

// DecodeResponse parses one encoded response line.
func DecodeResponse(line []byte) (Response, error) {
	name, raw, err := splitMessage(bytes.TrimSpace(line))
	if err != nil {
		return nil, err
	}
	switch name {
	case "continue":
		return Continue{}, nil
	case "pause":
		return Pause{}, nil
	case "resume":
		return Resume{}, nil
	case "terminate":
		return Terminate{}, nil
	case "disconnect":
		return Disconnect{}, nil
	case "interrupt":
		return Interrupt{}, nil
	case "evaluate_condition":
		var cond []string
		if err := json.Unmarshal(raw, &cond); err != nil {
			return nil, fmt.Errorf("decode evaluate_condition: %w", ErrMalformedEvent)
		}
		return EvaluateCondition{Condition: cond}, nil
	case "change_variable":
		var args changeVariableArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("decode change_variable: %w", ErrMalformedEvent)
		}
		scope, err := ParseVariableScope(args.Scope)
		if err != nil {
			return nil, err
		}
		return ChangeVariable{Variable: args.Name, Scope: scope, Level: args.Level, Path: args.Path, Values: args.Values}, nil
	case "protocol_version":
		var v []int
		if err := json.Unmarshal(raw, &v); err != nil || len(v) != 1 {
			return nil, fmt.Errorf("decode protocol_version: %w", ErrMalformedEvent)
		}
		return ProtocolVersion{Version: v[0]}, nil
	}
	return nil, fmt.Errorf("unknown response %q: %w", name, ErrMalformedEvent)
}
