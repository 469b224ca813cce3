package model

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nokia/red-debugger/pkg/agent"
)

// ModelSuffix is the file name suffix of model files.
const ModelSuffix = ".model.yaml"

// Workspace is the set of model files known to the debugger, keyed by the
// file URI of the described source.
type Workspace struct {
	files map[string]*File
}

// NewWorkspace creates a workspace holding files. Files without a URI get
// one from their source.
func NewWorkspace(files ...*File) *Workspace {
	w := &Workspace{files: make(map[string]*File, len(files))}
	for _, f := range files {
		w.Add(f)
	}
	return w
}

// Add stores f, replacing any file with the same URI.
func (w *Workspace) Add(f *File) {
	if f.URI == "" {
		f.URI = agent.ToFileURI(f.Source)
	}
	w.files[f.URI] = f
}

// LoadWorkspace loads every model file under dir. Relative sources are
// resolved against the directory of their model file.
func LoadWorkspace(dir string) (*Workspace, error) {
	w := NewWorkspace()
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ModelSuffix) {
			return nil
		}
		f, err := LoadFile(p)
		if err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
		if !filepath.IsAbs(f.Source) && !strings.Contains(f.Source, ":") {
			abs, err := filepath.Abs(filepath.Join(filepath.Dir(p), f.Source))
			if err != nil {
				return fmt.Errorf("resolve source of %s: %w", p, err)
			}
			f.Source = abs
		}
		w.Add(f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load workspace: %w", err)
	}
	return w, nil
}

// File returns the model of the source with the given URI.
func (w *Workspace) File(uri string) (*File, bool) {
	f, ok := w.files[uri]
	return f, ok
}

// Len returns the number of files.
func (w *Workspace) Len() int { return len(w.files) }

// URIs returns the known URIs in sorted order.
func (w *Workspace) URIs() []string {
	uris := make([]string, 0, len(w.files))
	for uri := range w.files {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// InitFile returns the __init__ model of the directory with the given URI.
func (w *Workspace) InitFile(dirURI string) (*File, bool) {
	prefix := strings.TrimSuffix(dirURI, "/") + "/"
	for _, uri := range w.URIs() {
		rest, ok := strings.CutPrefix(uri, prefix)
		if !ok || strings.Contains(rest, "/") {
			continue
		}
		if f := w.files[uri]; f.IsInit() {
			return f, true
		}
	}
	return nil, false
}

// SuiteChain returns the model of uri followed by the __init__ models of its
// enclosing directories, nearest first. Missing models are skipped.
func (w *Workspace) SuiteChain(uri string) []*File {
	var chain []*File
	if f, ok := w.files[uri]; ok {
		chain = append(chain, f)
	}
	dir := parentURI(uri)
	for dir != "" {
		if f, ok := w.InitFile(dir); ok && f.URI != uri {
			chain = append(chain, f)
		}
		dir = parentURI(dir)
	}
	return chain
}

func parentURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return ""
	}
	parent := path.Dir(strings.TrimSuffix(rest, "/"))
	if parent == "/" || parent == "." || parent == rest {
		return ""
	}
	return "file://" + parent
}
