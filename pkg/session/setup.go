package session

import (
	"fmt"
	"log/slog"

	"github.com/nokia/red-debugger/pkg/breakpoints"
	"github.com/nokia/red-debugger/pkg/debug"
	"github.com/nokia/red-debugger/pkg/locator"
	"github.com/nokia/red-debugger/pkg/model"
)

// Setup names the inputs a session is built from.
type Setup struct {
	ModelDir    string
	Breakpoints string
	Preferences debug.DebuggerPreferences
	Interactive bool
	Logger      *slog.Logger
}

// Options loads the model workspace and the breakpoints. Empty paths give an
// empty workspace and no breakpoints.
func (s Setup) Options() (Options, error) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ws := model.NewWorkspace()
	if s.ModelDir != "" {
		var err error
		if ws, err = model.LoadWorkspace(s.ModelDir); err != nil {
			return Options{}, fmt.Errorf("load models: %w", err)
		}
	}
	store := breakpoints.NewStore(logger)
	if s.Breakpoints != "" {
		var err error
		if store, err = breakpoints.LoadStore(s.Breakpoints, logger); err != nil {
			return Options{}, fmt.Errorf("load breakpoints: %w", err)
		}
	}
	logger.Debug("session inputs loaded", "models", ws.Len(), "breakpoints", store.Len())

	return Options{
		Locator:     locator.New(ws, logger),
		Breakpoints: store,
		Preferences: s.Preferences,
		Interactive: s.Interactive,
		Logger:      logger,
	}, nil
}
