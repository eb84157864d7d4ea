// Package cmd holds helpers shared by the CLI commands.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/editor"
	"github.com/scan-io-git/scanio-ide/internal/events"
	"github.com/scan-io-git/scanio-ide/internal/extension"
	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

// Mode constants
const (
	ModeSinglePath = "single-path"
	ModeFlags      = "flags"
)

// DetermineMode determines the mode based on the provided arguments.
func DetermineMode(args []string) string {
	if len(args) > 0 {
		return ModeSinglePath
	}
	return ModeFlags
}

// ResolveDocument returns the absolute path of a file that can be analyzed.
func ResolveDocument(path string) (string, error) {
	abs, err := files.AbsPath(path)
	if err != nil {
		return "", err
	}
	if err := files.ValidatePath(abs); err != nil {
		return "", err
	}
	if !editor.IsValidDocument(abs) {
		return "", fmt.Errorf("%q cannot be analyzed: empty, hidden, too large or inside an ignored folder", path)
	}
	return abs, nil
}

// Activate starts the extension with a file-backed view printing highlights to out.
func Activate(ctx context.Context, cfg *config.Config, logger hclog.Logger, out io.Writer, workspaceRoot string) (*extension.Extension, *editor.FileView, error) {
	view := editor.NewFileView(out, logger.Named("view"))
	ext, err := extension.Activate(ctx, cfg, extension.Options{View: view, WorkspaceRoot: workspaceRoot}, logger)
	if err != nil {
		return nil, nil, err
	}
	return ext, view, nil
}

// LogEvents writes every buffered event to logger.
func LogEvents(bus *events.Bus, logger hclog.Logger) {
	for _, ev := range bus.Drain() {
		LogEvent(ev, logger)
	}
}

// LogEvent writes ev to logger.
func LogEvent(ev events.Event, logger hclog.Logger) {
	switch ev.Kind {
	case events.AnalysisError:
		logger.Debug("event", "kind", ev.Kind, "path", ev.Path, "error", ev.Err)
	case events.CurrentProject:
		logger.Debug("event", "kind", ev.Kind, "project", ev.Project)
	default:
		logger.Debug("event", "kind", ev.Kind, "path", ev.Path, "count", ev.Count)
	}
}
