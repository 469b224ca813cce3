package debug

// NoModels is a locator without any suite model. Suite and test contexts
// carry only their path; keywords resolve like library keywords.
var NoModels ElementsLocator = pathLocator{}

type pathLocator struct{}

func (pathLocator) FindContextForSuite(_, path string, isDirectory bool, _ string) StackFrameContext {
	return pathSuiteContext{pathContext: pathContext{path: path}, directory: isDirectory}
}

func (pathLocator) FindContextForTestCase(_, currentPath, _ string) StackFrameContext {
	return pathContext{path: currentPath}
}

func (pathLocator) FindContextForKeyword(string, string, string, []string) StackFrameContext {
	return pathContext{library: true}
}

// pathContext knows where it runs but nothing about the calls inside.
type pathContext struct {
	path     string
	library  bool
	previous StackFrameContext
}

func (c pathContext) AssociatedPath() (string, bool) { return c.path, c.path != "" }

func (pathContext) FileRegion() (FileRegion, bool) { return FileRegion{}, false }

func (pathContext) IsErroneous() bool { return false }

func (pathContext) ErrorMessage() (string, bool) { return "", false }

func (pathContext) LineBreakpoint() (LineBreakpoint, bool) { return nil, false }

func (c pathContext) IsLibraryKeywordContext() bool { return c.library }

func (c pathContext) MoveTo(RunningKeyword, BreakpointSupplier) StackFrameContext {
	if c.library {
		return c
	}
	return pathContext{path: c.path, previous: c}
}

func (c pathContext) PreviousContext() StackFrameContext {
	if c.previous == nil {
		return c
	}
	return c.previous
}

type pathSuiteContext struct {
	pathContext
	directory bool
}

func (c pathSuiteContext) IsDirectory() bool { return c.directory }

func (c pathSuiteContext) MoveTo(kw RunningKeyword, _ BreakpointSupplier) StackFrameContext {
	if kw.CallType != Setup && kw.CallType != Teardown {
		IllegalState("Only suite setup or teardown keyword call is possible in current context")
	}
	return pathContext{path: c.path, previous: c}
}

func (c pathSuiteContext) PreviousContext() StackFrameContext { return c }
