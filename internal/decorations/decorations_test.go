package decorations

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

func entriesOf(fs ...findings.Finding) findings.Entries {
	e := findings.Entries{}
	for _, f := range fs {
		e[f.Key()] = f
	}
	return e
}

func TestRenderActiveFileOnly(t *testing.T) {
	entries := entriesOf(
		findings.Finding{ID: "1", Path: "/a.ts", StartLine: 1, EndLine: 1, Category: "bug", Summary: "null deref"},
		findings.Finding{ID: "2", Path: "/a.ts", StartLine: 3, EndLine: 5},
		findings.Finding{ID: "3", Path: "/b.ts", StartLine: 1, EndLine: 2},
	)

	got := Render(entries, "/a.ts")

	assert.Equal(t, []Range{
		{Key: "/a.ts@@1", StartLine: 0, EndLine: 0, Message: "bug: null deref"},
		{Key: "/a.ts@@2", StartLine: 2, EndLine: 4},
	}, got)
}

func TestRenderExcludesDiscarded(t *testing.T) {
	entries := entriesOf(
		findings.Finding{ID: "1", Path: "/a.ts", StartLine: 1, EndLine: 1, IsDiscarded: true},
		findings.Finding{ID: "2", Path: "/a.ts", StartLine: 2, EndLine: 2, IsEndorsed: true},
		findings.Finding{ID: "3", Path: "/a.ts", StartLine: 4, EndLine: 4, IsDiscarded: true, IsEndorsed: true},
	)

	got := Render(entries, "/a.ts")

	assert.Len(t, got, 1)
	for _, r := range got {
		assert.False(t, entries[r.Key].IsDiscarded)
	}
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render(findings.Entries{}, "/a.ts"))
	assert.NotNil(t, Render(nil, "/a.ts"))
}
