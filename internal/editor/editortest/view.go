// Package editortest provides an in-memory editor.View for tests.
package editortest

import (
	"sync"

	"github.com/scan-io-git/scanio-ide/internal/decorations"
	"github.com/scan-io-git/scanio-ide/internal/editor"
)

// View keeps documents, highlights and messages in memory.
type View struct {
	mu          sync.Mutex
	active      string
	docs        map[string]*editor.Document
	decorations map[string][]decorations.Range
	applies     map[string]int
	errors      []string
}

// NewView returns an empty view with nothing focused.
func NewView() *View {
	return &View{
		docs:        map[string]*editor.Document{},
		decorations: map[string][]decorations.Range{},
		applies:     map[string]int{},
	}
}

// Open adds a document with text and focuses it.
func (v *View) Open(path, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.docs[path] = editor.NewDocument(path, text)
	v.active = path
}

// Edit replaces the text of path without changing focus.
func (v *View) Edit(path, text string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.docs[path] = editor.NewDocument(path, text)
}

// Focus makes path the active document. An empty path clears focus.
func (v *View) Focus(path string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.active = path
}

func (v *View) ActiveDocument() (*editor.Document, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	doc, ok := v.docs[v.active]
	return doc, ok
}

func (v *View) Document(path string) (*editor.Document, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	doc, ok := v.docs[path]
	return doc, ok
}

func (v *View) ApplyDecorations(path string, ranges []decorations.Range) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.decorations[path] = append([]decorations.Range(nil), ranges...)
	v.applies[path]++
	return nil
}

func (v *View) ShowError(message string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, message)
}

// Decorations returns the highlights last applied to path.
func (v *View) Decorations(path string) []decorations.Range {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.decorations[path]
}

// Applies returns how many times highlights were applied to path.
func (v *View) Applies(path string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.applies[path]
}

// Errors returns the messages shown so far.
func (v *View) Errors() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.errors...)
}
