package editor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

// MaxDocumentSize is the largest file submitted for analysis.
const MaxDocumentSize = 2 << 20

// Document is a snapshot of a file's text as the editor currently holds it.
type Document struct {
	Path  string
	Text  string
	lines []string
}

// NewDocument builds a snapshot of text for path.
func NewDocument(path, text string) *Document {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return &Document{Path: path, Text: text, lines: lines}
}

// ReadDocument reads path from disk.
func ReadDocument(path string) (*Document, error) {
	if err := files.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %q: %w", path, err)
	}
	return NewDocument(path, string(data)), nil
}

// TextRange returns the full text of 0-based lines start..end inclusive.
func (d *Document) TextRange(start, end int) (string, bool) {
	if start < 0 || end < start || end >= len(d.lines) {
		return "", false
	}
	return strings.Join(d.lines[start:end+1], "\n"), true
}

// IsValidDocument reports whether path is a file that can be submitted for analysis.
func IsValidDocument(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if info.Size() == 0 || info.Size() > MaxDocumentSize {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if part == ".git" || part == "node_modules" {
			return false
		}
	}
	return !strings.HasPrefix(filepath.Base(path), ".")
}
