package agent

// EventsListener receives the events of one agent connection in the order
// they were reported. A returned error stops the events loop.
type EventsListener interface {
	IsHandlingEvents() bool

	HandleAgentInitializing(AgentInitializingEvent) error
	HandleAgentReady(ReadyToStartEvent) error
	HandleVersions(VersionsEvent) error
	HandleResourceImport(ResourceImportEvent) error
	HandleLibraryImport(LibraryImportEvent) error
	HandleSuiteStarted(SuiteStartedEvent) error
	HandleSuiteEnded(SuiteEndedEvent) error
	HandleTestStarted(TestStartedEvent) error
	HandleTestEnded(TestEndedEvent) error
	HandleKeywordAboutToStart(KeywordStartedEvent) error
	HandleKeywordStarted(KeywordStartedEvent) error
	HandleKeywordAboutToEnd(KeywordEndedEvent) error
	HandleKeywordEnded(KeywordEndedEvent) error
	HandleVariables(VariablesEvent) error
	HandleShouldContinue(ShouldContinueEvent) error
	HandleConditionEvaluated(ConditionEvaluatedEvent) error
	HandlePaused(PausedEvent) error
	HandleLogMessage(LogMessageEvent) error
	HandleMessage(MessageEvent) error
	HandleOutputFile(OutputFileEvent) error
	HandleClosed() error
}

// BaseListener implements every handler as a no-op. Embed it to handle only
// a subset of the events.
type BaseListener struct{}

var _ EventsListener = BaseListener{}

func (BaseListener) IsHandlingEvents() bool { return true }

func (BaseListener) HandleAgentInitializing(AgentInitializingEvent) error { return nil }
func (BaseListener) HandleAgentReady(ReadyToStartEvent) error { return nil }
func (BaseListener) HandleVersions(VersionsEvent) error { return nil }
func (BaseListener) HandleResourceImport(ResourceImportEvent) error { return nil }
func (BaseListener) HandleLibraryImport(LibraryImportEvent) error { return nil }
func (BaseListener) HandleSuiteStarted(SuiteStartedEvent) error { return nil }
func (BaseListener) HandleSuiteEnded(SuiteEndedEvent) error { return nil }
func (BaseListener) HandleTestStarted(TestStartedEvent) error { return nil }
func (BaseListener) HandleTestEnded(TestEndedEvent) error { return nil }
func (BaseListener) HandleKeywordAboutToStart(KeywordStartedEvent) error { return nil }
func (BaseListener) HandleKeywordStarted(KeywordStartedEvent) error { return nil }
func (BaseListener) HandleKeywordAboutToEnd(KeywordEndedEvent) error { return nil }
func (BaseListener) HandleKeywordEnded(KeywordEndedEvent) error { return nil }
func (BaseListener) HandleVariables(VariablesEvent) error { return nil }
func (BaseListener) HandleShouldContinue(ShouldContinueEvent) error { return nil }
func (BaseListener) HandleConditionEvaluated(ConditionEvaluatedEvent) error { return nil }
func (BaseListener) HandlePaused(PausedEvent) error { return nil }
func (BaseListener) HandleLogMessage(LogMessageEvent) error { return nil }
func (BaseListener) HandleMessage(MessageEvent) error { return nil }
func (BaseListener) HandleOutputFile(OutputFileEvent) error { return nil }
func (BaseListener) HandleClosed() error { return nil }
