// Package locator finds the model elements executed by the agent.
package locator

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/debug/contexts"
	"github.com/nokia/red-debugger/pkg/model"
)

// Workspace resolves suite, test and keyword contexts from a model workspace.
type Workspace struct {
	models *model.Workspace
	logger *slog.Logger
}

var _ debug.ElementsLocator = (*Workspace)(nil)

// New creates a locator over models. A nil logger uses slog.Default().
func New(models *model.Workspace, logger *slog.Logger) *Workspace {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workspace{models: models, logger: logger}
}

// FindContextForSuite returns the context of the suite at path. Directory
// suites are described by their __init__ model.
func (w *Workspace) FindContextForSuite(name, path string, isDirectory bool, currentPath string) debug.StackFrameContext {
	var file *model.File
	if isDirectory {
		file, _ = w.models.InitFile(path)
	} else {
		file, _ = w.models.File(path)
	}
	if file == nil {
		w.logger.Debug("suite model not found", "suite", name, "path", path)
	}
	return contexts.NewSuiteContext(name, path, isDirectory, file, "")
}

// FindContextForTestCase returns the context of the test named name in the
// suite file at currentPath.
func (w *Workspace) FindContextForTestCase(name, currentPath, template string) debug.StackFrameContext {
	chain := w.models.SuiteChain(currentPath)
	file, ok := w.models.File(currentPath)
	if !ok {
		return contexts.NewMissingTestCaseContext(chain, currentPath, -1,
			fmt.Sprintf("The test '%s' is executed but RED couldn't find the model of its suite\n", name))
	}
	test, ok := file.TestCase(name)
	if !ok {
		return contexts.NewMissingTestCaseContext(chain, currentPath, -1,
			fmt.Sprintf("The test '%s' could not be found in suite %s\n", name, currentPath))
	}
	return contexts.NewTestCaseContext(test, currentPath, chain, template)
}

// FindContextForKeyword returns the context of a user keyword defined in the
// file at currentPath or in one of loadedResources. A file named after the
// library wins over the first file defining the keyword. Keywords defined
// nowhere are library keywords.
func (w *Workspace) FindContextForKeyword(library, keyword, currentPath string, loadedResources []string) debug.StackFrameContext {
	var (
		first    *model.Keyword
		firstURI string
	)
	seen := map[string]bool{}
	for _, uri := range append([]string{currentPath}, loadedResources...) {
		if uri == "" || seen[uri] {
			continue
		}
		seen[uri] = true
		file, ok := w.models.File(uri)
		if !ok {
			continue
		}
		kw, ok := file.Keyword(keyword)
		if !ok {
			continue
		}
		if library != "" && model.NamesMatch(libraryName(uri), library) {
			return contexts.NewKeywordOfUserContext(kw, uri, w.models.SuiteChain(uri))
		}
		if first == nil {
			first, firstURI = kw, uri
		}
	}
	if first != nil {
		return contexts.NewKeywordOfUserContext(first, firstURI, w.models.SuiteChain(firstURI))
	}
	return contexts.LibraryKeywordContext{}
}

// libraryName is the name Robot gives to the keywords of a file: its base
// name without extension.
func libraryName(uri string) string {
	base := path.Base(uri)
	return strings.TrimSuffix(base, path.Ext(base))
}
