// Package reconcile merges a finished analysis batch for one file into the
// finding store without disturbing what is known about other files.
package reconcile

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/scan-io-git/scanio-ide/internal/editor"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/internal/remote"
)

// OutcomeKind classifies the result of one reconciliation step.
type OutcomeKind int

const (
	// TransportFailure: the call failed or returned nothing usable.
	TransportFailure OutcomeKind = iota
	// RemoteFailure: the service reported the job as failed.
	RemoteFailure
	// InProgress: the job is pending or running, poll again.
	InProgress
	// Completed: the batch was merged into the store.
	Completed
	// Superseded: a newer analysis of the same file replaced this one.
	Superseded
)

func (k OutcomeKind) String() string {
	switch k {
	case TransportFailure:
		return "transport_failure"
	case RemoteFailure:
		return "remote_failure"
	case InProgress:
		return "in_progress"
	case Completed:
		return "completed"
	case Superseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Outcome is the result of reconciling a response.
type Outcome struct {
	Kind OutcomeKind
	// Count is the number of accepted findings for the target file. Only set for Completed.
	Count int
	// Stats describes how the batch was filtered. Only set for Completed.
	Stats Stats
}

func (o Outcome) String() string {
	if o.Kind == Completed {
		return fmt.Sprintf("%s(%d)", o.Kind, o.Count)
	}
	return o.Kind.String()
}

// Stats counts accepted and silently rejected findings of a batch.
type Stats struct {
	Accepted        int
	RejectedLines   int
	RejectedText    int
	RejectedForeign int
	Replaced        int
}

// Rejected returns the total number of dropped findings.
func (s Stats) Rejected() int {
	return s.RejectedLines + s.RejectedText + s.RejectedForeign
}

// Classify inspects the job status of resp without touching any store.
func Classify(resp *remote.JobStatusResponse) Outcome {
	if resp == nil {
		return Outcome{Kind: TransportFailure}
	}
	switch resp.Status {
	case remote.JobFailed:
		return Outcome{Kind: RemoteFailure}
	case remote.JobPending, remote.JobRunning:
		return Outcome{Kind: InProgress}
	case remote.JobComplete:
		// A complete job without a results field is not an empty batch.
		if resp.Results == nil {
			return Outcome{Kind: TransportFailure}
		}
		return Outcome{Kind: Completed}
	default:
		return Outcome{Kind: TransportFailure}
	}
}

// Options carries the optional inputs of Reconcile.
type Options struct {
	// Document is the live text of the target file. Nil skips the text check.
	Document *editor.Document
	// Workspace is recorded on every accepted finding.
	Workspace string
	// Now stamps expirations. Zero means time.Now.
	Now time.Time
}

// Reconcile merges resp into current for targetPath, which must be clean. Unless the job is
// complete, current is returned as is. For a complete job, entries of other
// files are carried over untouched, every entry of targetPath is dropped and
// the accepted findings of the batch take their place.
func Reconcile(resp *remote.JobStatusResponse, targetPath string, current findings.Entries, opts Options) (findings.Entries, Outcome) {
	outcome := Classify(resp)
	if outcome.Kind != Completed {
		return current, outcome
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	next := make(findings.Entries, len(current)+len(resp.Results))
	var stats Stats
	for k, f := range current {
		if f.Path == targetPath {
			stats.Replaced++
			continue
		}
		next[k] = f
	}

	for _, raw := range resp.Results {
		if raw.Path != "" {
			raw.Path = filepath.Clean(raw.Path)
		}
		if raw.Path != targetPath || raw.ID == "" {
			stats.RejectedForeign++
			continue
		}
		start, end, ok := findings.NormalizeLines(raw.StartLine, raw.EndLine)
		if !ok {
			stats.RejectedLines++
			continue
		}
		if opts.Document != nil && !HasContent(opts.Document, start, end) {
			stats.RejectedText++
			continue
		}

		f := raw.ToFinding(start, end, opts.Workspace, now)
		next[f.Key()] = f
	}

	for _, f := range next {
		if f.Path == targetPath {
			stats.Accepted++
		}
	}

	return next, Outcome{Kind: Completed, Count: stats.Accepted, Stats: stats}
}

// HasContent reports whether the 1-based lines start..end exist in doc and
// hold something other than whitespace.
func HasContent(doc *editor.Document, start, end int) bool {
	text, ok := doc.TextRange(start-1, end-1)
	if !ok {
		return false
	}
	return strings.TrimSpace(text) != ""
}
