package findings

import (
	"strings"
	"time"
)

// KeySeparator joins a file path and a finding id into a Key.
const KeySeparator = "@@"

// DefaultTTL is the advisory lifetime of a stored finding.
const DefaultTTL = 24 * time.Hour

// Key identifies a finding in the store: path + "@@" + id.
type Key string

// NewKey builds the store key for a finding of path with the given id.
func NewKey(path, id string) Key {
	return Key(path + KeySeparator + id)
}

// ParseKey splits a key into its path and id. The id is everything after the last separator.
func ParseKey(k Key) (path, id string, ok bool) {
	s := string(k)
	i := strings.LastIndex(s, KeySeparator)
	if i < 0 {
		return "", "", false
	}
	return s[:i], s[i+len(KeySeparator):], true
}

func (k Key) String() string {
	return string(k)
}

// Finding is the record kept in the store for a single reported problem.
// The JSON shape is the persisted shape and must round-trip unchanged.
type Finding struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	StartLine   int    `json:"startLine"`
	EndLine     int    `json:"endLine"`
	Category    string `json:"category,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`

	IsDiscarded bool      `json:"isDiscarded"`
	IsEndorsed  bool      `json:"isEndorsed"`
	IsViewed    bool      `json:"isViewed"`
	Workspace   string    `json:"workspace,omitempty"`
	Expiration  time.Time `json:"expiration"`
}

// Key returns the store key of the finding.
func (f Finding) Key() Key {
	return NewKey(f.Path, f.ID)
}

// Expired reports whether the advisory TTL of the finding has passed.
func (f Finding) Expired(now time.Time) bool {
	return !f.Expiration.IsZero() && now.After(f.Expiration)
}

// RawFinding is a finding as returned by the analysis service: line numbers
// may be negated and dispositions use the service's flag names.
type RawFinding struct {
	ID          string `json:"id"`
	Path        string `json:"path"`
	StartLine   int    `json:"startLine"`
	EndLine     int    `json:"endLine"`
	Category    string `json:"category,omitempty"`
	Summary     string `json:"summary,omitempty"`
	Description string `json:"description,omitempty"`
	Severity    string `json:"severity,omitempty"`
	Discarded   bool   `json:"discarded"`
	Endorsed    bool   `json:"endorsed"`
}

// NormalizeLines makes negated line numbers positive and reports whether the
// resulting 1-based range is usable.
func NormalizeLines(startLine, endLine int) (int, int, bool) {
	start, end := abs(startLine), abs(endLine)
	if start-1 < 0 || end-1 < 0 {
		return start, end, false
	}
	if end < start {
		return start, end, false
	}
	return start, end, true
}

// ToFinding converts a raw finding with already-normalized lines into a store record.
func (r RawFinding) ToFinding(startLine, endLine int, workspace string, now time.Time) Finding {
	return Finding{
		ID:          r.ID,
		Path:        r.Path,
		StartLine:   startLine,
		EndLine:     endLine,
		Category:    r.Category,
		Summary:     r.Summary,
		Description: r.Description,
		Severity:    r.Severity,
		IsDiscarded: r.Discarded,
		IsEndorsed:  r.Endorsed,
		IsViewed:    false,
		Workspace:   workspace,
		Expiration:  now.Add(DefaultTTL),
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
