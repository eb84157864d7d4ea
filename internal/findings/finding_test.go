package findings

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeLines(t *testing.T) {
	tests := []struct {
		name      string
		start     int
		end       int
		wantStart int
		wantEnd   int
		wantOK    bool
	}{
		{name: "positive range", start: 1, end: 3, wantStart: 1, wantEnd: 3, wantOK: true},
		{name: "negated valid pair", start: -3, end: -5, wantStart: 3, wantEnd: 5, wantOK: true},
		{name: "negated inverted pair", start: -5, end: -3, wantStart: 5, wantEnd: 3, wantOK: false},
		{name: "zero start", start: 0, end: 2, wantStart: 0, wantEnd: 2, wantOK: false},
		{name: "zero end", start: 1, end: 0, wantStart: 1, wantEnd: 0, wantOK: false},
		{name: "single line", start: 7, end: 7, wantStart: 7, wantEnd: 7, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, ok := NormalizeLines(tt.start, tt.end)
			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestKeyRoundTrip(t *testing.T) {
	k := NewKey("/src/a@@b.ts", "42")
	assert.Equal(t, Key("/src/a@@b.ts@@42"), k)

	path, id, ok := ParseKey(k)
	require.True(t, ok)
	assert.Equal(t, "/src/a@@b.ts", path)
	assert.Equal(t, "42", id)

	_, _, ok = ParseKey(Key("no-separator"))
	assert.False(t, ok)
}

func TestToFinding(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	raw := RawFinding{ID: "1", Path: "/a.ts", StartLine: -2, EndLine: -4, Category: "bug", Discarded: true}

	f := raw.ToFinding(2, 4, "project", now)

	assert.Equal(t, Key("/a.ts@@1"), f.Key())
	assert.Equal(t, 2, f.StartLine)
	assert.Equal(t, 4, f.EndLine)
	assert.True(t, f.IsDiscarded)
	assert.False(t, f.IsEndorsed)
	assert.False(t, f.IsViewed)
	assert.Equal(t, now.Add(24*time.Hour), f.Expiration)
	assert.False(t, f.Expired(now))
	assert.True(t, f.Expired(now.Add(25*time.Hour)))
}

func TestFindingPersistedShape(t *testing.T) {
	f := Finding{
		ID:         "1",
		Path:       "/a.ts",
		StartLine:  1,
		EndLine:    2,
		Category:   "security",
		Expiration: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	}

	data, err := json.Marshal(f)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{"id", "path", "startLine", "endLine", "isDiscarded", "isEndorsed", "isViewed", "expiration"} {
		assert.Contains(t, fields, name)
	}

	var back Finding
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, f, back)
}
