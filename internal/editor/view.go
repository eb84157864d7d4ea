package editor

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-ide/internal/decorations"
)

// View is the editor surface the core talks to.
type View interface {
	// ActiveDocument returns the document the user is looking at.
	ActiveDocument() (*Document, bool)
	// Document returns the current text of path when the editor can provide it.
	Document(path string) (*Document, bool)
	// ApplyDecorations replaces every highlight of path with ranges.
	ApplyDecorations(path string, ranges []decorations.Range) error
	// ShowError displays a one-shot, non-blocking message to the user.
	ShowError(message string)
}

// FileView is a View backed by files on disk. The active document is chosen
// explicitly and applied highlights are written to out.
type FileView struct {
	mu      sync.Mutex
	active  string
	applied map[string][]decorations.Range
	out     io.Writer
	logger  hclog.Logger
}

// NewFileView returns a FileView printing highlights to out. A nil out only records them.
func NewFileView(out io.Writer, logger hclog.Logger) *FileView {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &FileView{
		applied: map[string][]decorations.Range{},
		out:     out,
		logger:  logger,
	}
}

// SetActive focuses path.
func (v *FileView) SetActive(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = cleanPath(path)
}

// ActivePath returns the focused path.
func (v *FileView) ActivePath() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active
}

func (v *FileView) ActiveDocument() (*Document, bool) {
	active := v.ActivePath()
	if active == "" {
		return nil, false
	}
	return v.Document(active)
}

func (v *FileView) Document(path string) (*Document, bool) {
	doc, err := ReadDocument(path)
	if err != nil {
		v.logger.Debug("document is not available", "path", path, "error", err)
		return nil, false
	}
	return doc, true
}

func (v *FileView) ApplyDecorations(path string, ranges []decorations.Range) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	applied := make([]decorations.Range, len(ranges))
	copy(applied, ranges)
	v.applied[path] = applied

	if v.out == nil {
		return nil
	}
	if _, err := fmt.Fprintf(v.out, "%s: %d highlight(s)\n", path, len(ranges)); err != nil {
		return err
	}
	for _, r := range ranges {
		if _, err := fmt.Fprintf(v.out, "  lines %d-%d  %s  %s\n", r.StartLine+1, r.EndLine+1, r.Key, r.Message); err != nil {
			return err
		}
	}
	return nil
}

// Decorations returns the highlights last applied to path.
func (v *FileView) Decorations(path string) []decorations.Range {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.applied[path]
}

func (v *FileView) ShowError(message string) {
	v.logger.Error(message)
}

func cleanPath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
