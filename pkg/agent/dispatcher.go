package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const maxMessageSize = 16 * 1024 * 1024

// Dispatcher decodes agent messages and fans them out to its listeners.
type Dispatcher struct {
	responder Responder
	listeners []EventsListener
}

// NewDispatcher creates a dispatcher. Events that carry a responder get the
// given one.
func NewDispatcher(responder Responder, listeners ...EventsListener) *Dispatcher {
	return &Dispatcher{responder: responder, listeners: listeners}
}

// RunEventsLoop reads one message per line from r until EOF, a close event,
// ctx cancellation, or until no listener handles events any more.
func (d *Dispatcher) RunEventsLoop(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMessageSize)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		closed, err := d.Dispatch(line)
		if err != nil {
			return err
		}
		if closed || !d.anyHandling() {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read agent events: %w", err)
	}
	return nil
}

// Dispatch decodes one message and delivers it. It reports whether the
// message closed the connection. Unknown messages are ignored.
func (d *Dispatcher) Dispatch(line []byte) (closed bool, err error) {
	name, raw, err := splitMessage(line)
	if err != nil {
		return false, err
	}
	deliver, err := d.decode(name, raw)
	if err != nil {
		return false, err
	}
	if deliver == nil {
		return false, nil
	}
	for _, l := range d.listeners {
		if !l.IsHandlingEvents() {
			continue
		}
		if err := deliver(l); err != nil {
			var le *ListenerError
			if errors.As(err, &le) {
				return false, err
			}
			return false, &ListenerError{Event: name, Err: err}
		}
	}
	return name == "close", nil
}

func (d *Dispatcher) anyHandling() bool {
	for _, l := range d.listeners {
		if l.IsHandlingEvents() {
			return true
		}
	}
	return false
}

type delivery func(EventsListener) error

func (d *Dispatcher) decode(name string, raw json.RawMessage) (delivery, error) {
	switch name {
	case "agent_initializing":
		ev := AgentInitializingEvent{Responder: d.responder}
		return func(l EventsListener) error { return l.HandleAgentInitializing(ev) }, nil

	case "ready_to_start":
		ev := ReadyToStartEvent{Responder: d.responder}
		return func(l EventsListener) error { return l.HandleAgentReady(ev) }, nil

	case "version":
		var attrs struct {
			Python   string `json:"python"`
			Robot    string `json:"robot"`
			Protocol int    `json:"protocol"`
			CmdLine  string `json:"cmd_line"`
		}
		if err := decodeArgs(name, raw, &attrs); err != nil {
			return nil, err
		}
		ev := VersionsEvent{
			Responder:       d.responder,
			CmdLine:         attrs.CmdLine,
			PythonVersion:   attrs.Python,
			RobotVersion:    attrs.Robot,
			ProtocolVersion: attrs.Protocol,
		}
		return func(l EventsListener) error { return l.HandleVersions(ev) }, nil

	case "resource_import":
		var attrs struct {
			Source   string `json:"source"`
			Importer string `json:"importer"`
		}
		if _, err := decodeNamed(name, raw, &attrs); err != nil {
			return nil, err
		}
		ev := ResourceImportEvent{Path: ToFileURI(attrs.Source), Importer: ToFileURI(attrs.Importer)}
		return func(l EventsListener) error { return l.HandleResourceImport(ev) }, nil

	case "library_import":
		var attrs struct {
			OriginalName string   `json:"originalname"`
			Importer     string   `json:"importer"`
			Source       string   `json:"source"`
			Args         []string `json:"args"`
		}
		lib, err := decodeNamed(name, raw, &attrs)
		if err != nil {
			return nil, err
		}
		ev := LibraryImportEvent{
			Name:         lib,
			OriginalName: attrs.OriginalName,
			Importer:     ToFileURI(attrs.Importer),
			Source:       ToFileURI(attrs.Source),
			Args:         attrs.Args,
		}
		return func(l EventsListener) error { return l.HandleLibraryImport(ev) }, nil

	case "start_suite":
		var attrs struct {
			Source     string   `json:"source"`
			IsDir      bool     `json:"is_dir"`
			Suites     []string `json:"suites"`
			Tests      []string `json:"tests"`
			TotalTests int      `json:"totaltests"`
		}
		suite, err := decodeNamed(name, raw, &attrs)
		if err != nil {
			return nil, err
		}
		ev := SuiteStartedEvent{
			Name:        suite,
			Path:        ToFileURI(attrs.Source),
			IsDirectory: attrs.IsDir,
			TotalTests:  attrs.TotalTests,
			ChildSuites: attrs.Suites,
			ChildTests:  attrs.Tests,
		}
		return func(l EventsListener) error { return l.HandleSuiteStarted(ev) }, nil

	case "end_suite":
		var attrs endAttributes
		suite, err := decodeNamed(name, raw, &attrs)
		if err != nil {
			return nil, err
		}
		ev := SuiteEndedEvent{Name: suite, ElapsedMs: attrs.ElapsedTime, Status: attrs.Status, Message: attrs.Message}
		return func(l EventsListener) error { return l.HandleSuiteEnded(ev) }, nil

	case "start_test":
		var attrs struct {
			LongName string `json:"longname"`
			Template string `json:"template"`
		}
		test, err := decodeNamed(name, raw, &attrs)
		if err != nil {
			return nil, err
		}
		ev := TestStartedEvent{Name: test, LongName: attrs.LongName, Template: attrs.Template}
		return func(l EventsListener) error { return l.HandleTestStarted(ev) }, nil

	case "end_test":
		var attrs endAttributes
		test, err := decodeNamed(name, raw, &attrs)
		if err != nil {
			return nil, err
		}
		ev := TestEndedEvent{
			Name:      test,
			LongName:  attrs.LongName,
			ElapsedMs: attrs.ElapsedTime,
			Status:    attrs.Status,
			Message:   attrs.Message,
		}
		return func(l EventsListener) error { return l.HandleTestEnded(ev) }, nil

	case "pre_start_keyword", "start_keyword":
		var attrs keywordAttributes
		if _, err := decodeNamed(name, raw, &attrs); err != nil {
			return nil, err
		}
		ev := KeywordStartedEvent{Name: attrs.KwName, KeywordType: attrs.Type, LibraryName: attrs.LibName, Args: attrs.Args}
		if name == "pre_start_keyword" {
			return func(l EventsListener) error { return l.HandleKeywordAboutToStart(ev) }, nil
		}
		return func(l EventsListener) error { return l.HandleKeywordStarted(ev) }, nil

	case "pre_end_keyword", "end_keyword":
		var attrs keywordAttributes
		if _, err := decodeNamed(name, raw, &attrs); err != nil {
			return nil, err
		}
		ev := KeywordEndedEvent{Name: attrs.KwName, KeywordType: attrs.Type, LibraryName: attrs.LibName}
		if name == "pre_end_keyword" {
			return func(l EventsListener) error { return l.HandleKeywordAboutToEnd(ev) }, nil
		}
		return func(l EventsListener) error { return l.HandleKeywordEnded(ev) }, nil

	case "variables":
		ev, err := decodeVariables(raw)
		if err != nil {
			return nil, err
		}
		return func(l EventsListener) error { return l.HandleVariables(ev) }, nil

	case "should_continue":
		var attrs struct {
			PausingPoint string `json:"pausing_point"`
		}
		if err := decodeArgs(name, raw, &attrs); err != nil {
			return nil, err
		}
		point, err := ParsePausingPoint(attrs.PausingPoint)
		if err != nil {
			return nil, err
		}
		ev := ShouldContinueEvent{Responder: d.responder, Point: point}
		return func(l EventsListener) error { return l.HandleShouldContinue(ev) }, nil

	case "condition_result":
		var attrs struct {
			Result *bool   `json:"result"`
			Error  *string `json:"error"`
		}
		if err := decodeArgs(name, raw, &attrs); err != nil {
			return nil, err
		}
		var ev ConditionEvaluatedEvent
		switch {
		case attrs.Error != nil:
			ev.Error = *attrs.Error
			if ev.Error == "" {
				ev.Error = "condition evaluation failed"
			}
		case attrs.Result != nil:
			ev.Result = *attrs.Result
		default:
			return nil, fmt.Errorf("decode %s arguments: neither result nor error: %w", name, ErrMalformedEvent)
		}
		return func(l EventsListener) error { return l.HandleConditionEvaluated(ev) }, nil

	case "paused":
		ev := PausedEvent{Responder: d.responder}
		return func(l EventsListener) error { return l.HandlePaused(ev) }, nil

	case "log_message":
		var attrs struct {
			Message   string `json:"message"`
			Level     string `json:"level"`
			Timestamp string `json:"timestamp"`
		}
		if err := decodeArgs(name, raw, &attrs); err != nil {
			return nil, err
		}
		ev := LogMessageEvent{Message: attrs.Message, Level: attrs.Level, Timestamp: attrs.Timestamp}
		return func(l EventsListener) error { return l.HandleLogMessage(ev) }, nil

	case "message":
		var attrs struct {
			Message string `json:"message"`
			Level   string `json:"level"`
		}
		if err := decodeArgs(name, raw, &attrs); err != nil {
			return nil, err
		}
		ev := MessageEvent{Message: attrs.Message, Level: attrs.Level}
		return func(l EventsListener) error { return l.HandleMessage(ev) }, nil

	case "output_file":
		var path string
		if err := decodeArgs(name, raw, &path); err != nil {
			return nil, err
		}
		ev := OutputFileEvent{Path: ToFileURI(path)}
		return func(l EventsListener) error { return l.HandleOutputFile(ev) }, nil

	case "close":
		return func(l EventsListener) error { return l.HandleClosed() }, nil
	}
	return nil, nil
}

type endAttributes struct {
	LongName    string `json:"longname"`
	ElapsedTime int    `json:"elapsedtime"`
	Status      string `json:"status"`
	Message     string `json:"message"`
}

type keywordAttributes struct {
	Type    string   `json:"type"`
	KwName  string   `json:"kwname"`
	LibName string   `json:"libname"`
	Args    []string `json:"args"`
}

// splitMessage returns the first key of a JSON object and its raw value.
func splitMessage(line []byte) (string, json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("read message start: %w", ErrMalformedEvent)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return "", nil, fmt.Errorf("message is not an object: %w", ErrMalformedEvent)
	}
	tok, err = dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("read message name: %w", ErrMalformedEvent)
	}
	name, ok := tok.(string)
	if !ok {
		return "", nil, fmt.Errorf("message has no name: %w", ErrMalformedEvent)
	}
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return "", nil, fmt.Errorf("read %s arguments: %w", name, ErrMalformedEvent)
	}
	return name, raw, nil
}

// decodeArgs decodes the first element of the argument array into v.
func decodeArgs(name string, raw json.RawMessage, v any) error {
	var args []json.RawMessage
	if err := json.Unmarshal(raw, &args); err != nil || len(args) < 1 {
		return fmt.Errorf("decode %s arguments: %w", name, ErrMalformedEvent)
	}
	if err := json.Unmarshal(args[0], v); err != nil {
		return fmt.Errorf("decode %s arguments: %w", name, ErrMalformedEvent)
	}
	return nil
}

// decodeNamed decodes a [name, {attributes}] argument array.
func decodeNamed(name string, raw json.RawMessage, attrs any) (string, error) {
	var args []json.RawMessage
	if err := json.Unmarshal(raw, &args); err != nil || len(args) < 2 {
		return "", fmt.Errorf("decode %s arguments: %w", name, ErrMalformedEvent)
	}
	var first string
	if err := json.Unmarshal(args[0], &first); err != nil {
		return "", fmt.Errorf("decode %s name: %w", name, ErrMalformedEvent)
	}
	if err := json.Unmarshal(args[1], attrs); err != nil {
		return "", fmt.Errorf("decode %s attributes: %w", name, ErrMalformedEvent)
	}
	return first, nil
}

func decodeVariables(raw json.RawMessage) (VariablesEvent, error) {
	var attrs struct {
		Scopes []map[string][]json.RawMessage `json:"var_scopes"`
		Error  string                         `json:"error"`
	}
	if err := decodeArgs("variables", raw, &attrs); err != nil {
		return VariablesEvent{}, err
	}
	ev := VariablesEvent{Error: attrs.Error, Variables: make([]ScopeMap, 0, len(attrs.Scopes))}
	for _, layer := range attrs.Scopes {
		m := make(ScopeMap, len(layer))
		for varName, triple := range layer {
			if len(triple) != 3 {
				return VariablesEvent{}, fmt.Errorf("decode variable %s: %w", varName, ErrMalformedEvent)
			}
			var typ, scopeName string
			var value any
			if json.Unmarshal(triple[0], &typ) != nil || json.Unmarshal(triple[1], &value) != nil ||
				json.Unmarshal(triple[2], &scopeName) != nil {
				return VariablesEvent{}, fmt.Errorf("decode variable %s: %w", varName, ErrMalformedEvent)
			}
			scope, err := ParseVariableScope(scopeName)
			if err != nil {
				return VariablesEvent{}, err
			}
			m[Variable{Name: varName, Scope: scope}] = TypedValue{Type: typ, Value: value}
		}
		ev.Variables = append(ev.Variables, m)
	}
	return ev, nil
}
