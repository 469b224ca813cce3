package debug

// fakeContext is a configurable StackFrameContext.
type fakeContext struct {
	path      string
	line      int
	erroneous bool
	errMsg    string
	bp        LineBreakpoint
	library   bool
	remaining int

	next     StackFrameContext
	previous StackFrameContext
	moves    []RunningKeyword
}

func (c *fakeContext) AssociatedPath() (string, bool) { return c.path, c.path != "" }

func (c *fakeContext) FileRegion() (FileRegion, bool) {
	if c.line <= 0 {
		return FileRegion{}, false
	}
	return LineRegion(c.line), true
}

func (c *fakeContext) IsErroneous() bool { return c.erroneous }

func (c *fakeContext) ErrorMessage() (string, bool) { return c.errMsg, c.errMsg != "" }

func (c *fakeContext) LineBreakpoint() (LineBreakpoint, bool) { return c.bp, c.bp != nil }

func (c *fakeContext) IsLibraryKeywordContext() bool { return c.library }

func (c *fakeContext) RemainingExecutables() int { return c.remaining }

func (c *fakeContext) MoveTo(kw RunningKeyword, _ BreakpointSupplier) StackFrameContext {
	c.moves = append(c.moves, kw)
	if c.next != nil {
		return c.next
	}
	return c
}

func (c *fakeContext) PreviousContext() StackFrameContext {
	if c.previous != nil {
		return c.previous
	}
	return c
}

type fakeSuiteContext struct {
	fakeContext
	directory bool
}

func (c *fakeSuiteContext) IsDirectory() bool { return c.directory }

func libContext() *fakeContext { return &fakeContext{library: true} }

func erroneousContext(msg string) *fakeContext {
	return &fakeContext{erroneous: true, errMsg: msg}
}

// fakeBreakpoint fires from the given hit on.
type fakeBreakpoint struct {
	hits      int
	fireFrom  int
	condition string
}

func (b *fakeBreakpoint) EvaluateHitCount() bool {
	b.hits++
	return b.hits >= b.fireFrom
}

func (b *fakeBreakpoint) IsConditionEnabled() bool { return b.condition != "" }

func (b *fakeBreakpoint) Condition() string { return b.condition }

type keywordQuery struct {
	library, keyword, currentPath string
	resources                     []string
}

// fakeLocator hands out prepared contexts and records keyword queries.
type fakeLocator struct {
	suite    StackFrameContext
	test     StackFrameContext
	keywords map[string]StackFrameContext

	suiteCurrentPaths []string
	testTemplates     []string
	keywordQueries    []keywordQuery
}

func (l *fakeLocator) FindContextForSuite(name, path string, isDirectory bool, currentPath string) StackFrameContext {
	l.suiteCurrentPaths = append(l.suiteCurrentPaths, currentPath)
	if l.suite != nil {
		return l.suite
	}
	return &fakeSuiteContext{fakeContext: fakeContext{path: path}, directory: isDirectory}
}

func (l *fakeLocator) FindContextForTestCase(name, currentPath, template string) StackFrameContext {
	l.testTemplates = append(l.testTemplates, template)
	if l.test != nil {
		return l.test
	}
	return &fakeContext{}
}

func (l *fakeLocator) FindContextForKeyword(library, keyword, currentPath string, loadedResources []string) StackFrameContext {
	l.keywordQueries = append(l.keywordQueries, keywordQuery{library, keyword, currentPath, loadedResources})
	if ctx, ok := l.keywords[library+"."+keyword]; ok {
		return ctx
	}
	return &fakeContext{}
}
