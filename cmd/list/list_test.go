package list

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

func TestValidateListArgs(t *testing.T) {
	tests := []struct {
		name    string
		options RunOptionsList
		args    []string
		wantErr string
	}{
		{name: "Path", args: []string{"/work/a.ts"}},
		{name: "All", options: RunOptionsList{All: true}},
		{name: "Nothing", wantErr: "must be specified"},
		{name: "All with path", options: RunOptionsList{All: true}, args: []string{"/work/a.ts"}, wantErr: "cannot be used"},
		{name: "Two paths", args: []string{"/a", "/b"}, wantErr: "at most one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			options := tt.options
			err := validateListArgs(&options, tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if len(tt.args) == 1 {
				assert.Equal(t, tt.args[0], options.Path)
			}
		})
	}
}

func TestSummarizeAll(t *testing.T) {
	listOptions = RunOptionsList{Detailed: true}
	t.Cleanup(func() { listOptions = RunOptionsList{} })

	exp := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	entries := findings.Entries{}
	for _, f := range []findings.Finding{
		{ID: "1", Path: "/b.ts", StartLine: 1, EndLine: 1, Expiration: exp},
		{ID: "2", Path: "/a.ts", StartLine: 2, EndLine: 2, IsDiscarded: true, Expiration: exp},
		{ID: "3", Path: "/a.ts", StartLine: 3, EndLine: 3, Expiration: exp},
	} {
		entries[f.Key()] = f
	}

	got := summarizeAll(entries, exp.Add(-time.Hour))

	require.Len(t, got, 2)
	assert.Equal(t, "/a.ts", got[0].Path)
	assert.Equal(t, 1, got[0].Visible)
	assert.Equal(t, 1, got[0].Discarded)
	assert.Len(t, got[0].Findings, 2)
	assert.Equal(t, "/b.ts", got[1].Path)
	assert.Equal(t, 1, got[1].Visible)
}

func TestSummarizeCountsStale(t *testing.T) {
	exp := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fs := []findings.Finding{
		{ID: "1", Path: "/a.ts", StartLine: 1, EndLine: 1, Expiration: exp},
		{ID: "2", Path: "/a.ts", StartLine: 2, EndLine: 2, Expiration: exp.Add(48 * time.Hour)},
	}

	got := summarize("/a.ts", fs, exp.Add(time.Hour))

	assert.Equal(t, 2, got.Visible)
	assert.Equal(t, 1, got.Stale)
	assert.Empty(t, got.Findings)
}
