package agent

import (
	"fmt"
	"strings"
)

// VariableScope is the scope a Robot variable is defined in.
type VariableScope int

const (
	ScopeGlobal VariableScope = iota
	ScopeTestSuite
	ScopeTestCase
	ScopeLocal
)

func (s VariableScope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeTestSuite:
		return "suite"
	case ScopeTestCase:
		return "test"
	case ScopeLocal:
		return "local"
	}
	return fmt.Sprintf("VariableScope(%d)", int(s))
}

// ParseVariableScope accepts the scope names used by the agent.
func ParseVariableScope(s string) (VariableScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global":
		return ScopeGlobal, nil
	case "suite", "test_suite":
		return ScopeTestSuite, nil
	case "test", "test_case":
		return ScopeTestCase, nil
	case "local":
		return ScopeLocal, nil
	}
	return 0, fmt.Errorf("unknown variable scope %q: %w", s, ErrMalformedEvent)
}

// Variable identifies a variable inside one scope map.
type Variable struct {
	Name  string
	Scope VariableScope
}

// TypedValue is a variable value together with the Python type name the
// agent reported for it.
type TypedValue struct {
	Type  string
	Value any
}

// ScopeMap is one layer of variables reported by the agent.
type ScopeMap map[Variable]TypedValue

// AgentInitializingEvent is sent once the agent has connected.
type AgentInitializingEvent struct {
	Responder Responder
}

// ReadyToStartEvent is sent when the agent waits for the go-ahead.
type ReadyToStartEvent struct {
	Responder Responder
}

// VersionsEvent carries the versions of the remote runtime.
type VersionsEvent struct {
	Responder       Responder
	CmdLine         string
	PythonVersion   string
	RobotVersion    string
	ProtocolVersion int
}

// ResourceImportEvent reports a resource file imported during execution.
type ResourceImportEvent struct {
	Path     string
	Importer string
}

// LibraryImportEvent reports a library imported during execution.
type LibraryImportEvent struct {
	Name         string
	OriginalName string
	Importer     string
	Source       string
	Args         []string
}

// SuiteStartedEvent reports a suite about to be executed.
type SuiteStartedEvent struct {
	Name        string
	Path        string
	IsDirectory bool
	TotalTests  int
	ChildSuites []string
	ChildTests  []string
}

// SuiteEndedEvent reports a finished suite.
type SuiteEndedEvent struct {
	Name      string
	ElapsedMs int
	Status    string
	Message   string
}

// TestStartedEvent reports a test about to be executed.
type TestStartedEvent struct {
	Name     string
	LongName string
	Template string
}

// TestEndedEvent reports a finished test.
type TestEndedEvent struct {
	Name      string
	LongName  string
	ElapsedMs int
	Status    string
	Message   string
}

// KeywordStartedEvent is reported twice per call: once when the keyword is
// about to start and once when it has started.
type KeywordStartedEvent struct {
	Name        string
	KeywordType string
	LibraryName string
	Args        []string
}

// KeywordEndedEvent is reported twice per call: once when the keyword is
// about to end and once when it has ended.
type KeywordEndedEvent struct {
	Name        string
	KeywordType string
	LibraryName string
}

// VariablesEvent carries the variable layers of the current call stack,
// innermost first. The last layer holds only global variables.
type VariablesEvent struct {
	Variables []ScopeMap
	Error     string
}

// ShouldContinueEvent is the synchronous query asked at each pausing point.
type ShouldContinueEvent struct {
	Responder Responder
	Point     PausingPoint
}

// ConditionEvaluatedEvent carries the result of a remotely evaluated
// breakpoint condition. Error is set when evaluation failed.
type ConditionEvaluatedEvent struct {
	Result bool
	Error  string
}

// Failed reports whether the condition could not be evaluated.
func (e ConditionEvaluatedEvent) Failed() bool { return e.Error != "" }

// PausedEvent is sent when the agent has paused and awaits a response.
type PausedEvent struct {
	Responder Responder
}

// LogMessageEvent is a message logged by a keyword.
type LogMessageEvent struct {
	Message   string
	Level     string
	Timestamp string
}

// MessageEvent is a message from the runtime itself.
type MessageEvent struct {
	Message string
	Level   string
}

// OutputFileEvent names an output file written by the runtime.
type OutputFileEvent struct {
	Path string
}
