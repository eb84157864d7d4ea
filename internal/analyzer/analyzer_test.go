package analyzer

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scan-io-git/scanio-ide/internal/editor/editortest"
	"github.com/scan-io-git/scanio-ide/internal/events"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/internal/metrics"
	"github.com/scan-io-git/scanio-ide/internal/reconcile"
	"github.com/scan-io-git/scanio-ide/internal/remote"
	"github.com/scan-io-git/scanio-ide/internal/session"
	"github.com/scan-io-git/scanio-ide/internal/store"
)

type fakeClient struct {
	mu        sync.Mutex
	submits   int
	polls     int
	relatives []string
	submit    func(ctx context.Context, call int) (*remote.JobStatusResponse, error)
	poll      func(ctx context.Context, jobID string, call int) (*remote.JobStatusResponse, error)
}

func (c *fakeClient) Submit(ctx context.Context, relativePath, _, _, _ string) (*remote.JobStatusResponse, error) {
	c.mu.Lock()
	c.submits++
	call := c.submits
	c.relatives = append(c.relatives, relativePath)
	c.mu.Unlock()
	return c.submit(ctx, call)
}

func (c *fakeClient) PollStatus(ctx context.Context, _, jobID string) (*remote.JobStatusResponse, error) {
	c.mu.Lock()
	c.polls++
	call := c.polls
	c.mu.Unlock()
	if c.poll == nil {
		return nil, errors.New("unexpected poll")
	}
	return c.poll(ctx, jobID, call)
}

type staticToken string

func (s staticToken) Token() (string, error) {
	if s == "" {
		return "", session.ErrNoSession
	}
	return string(s), nil
}

type fixture struct {
	dir      string
	path     string
	client   *fakeClient
	store    *store.Store
	view     *editortest.View
	bus      *events.Bus
	metrics  *metrics.Metrics
	analyzer *Analyzer
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, token string, client *fakeClient) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:     dir,
		path:    filepath.Join(dir, "src", "a.ts"),
		client:  client,
		store:   store.New(nil, nil),
		view:    editortest.NewView(),
		bus:     events.NewBus(32),
		metrics: metrics.New(),
	}
	f.analyzer = New(client, staticToken(token), f.store, f.view, f.bus, f.metrics, nil, Options{
		PollInterval:  time.Millisecond,
		Timeout:       time.Second,
		WorkspaceRoot: dir,
		Now:           func() time.Time { return fixedNow },
	})
	return f
}

func (f *fixture) kinds() []events.Kind {
	var kinds []events.Kind
	for _, ev := range f.bus.Drain() {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func pending(jobID string) *remote.JobStatusResponse {
	return &remote.JobStatusResponse{JobID: jobID, Status: remote.JobPending}
}

func completeWith(jobID string, results ...findings.RawFinding) *remote.JobStatusResponse {
	return &remote.JobStatusResponse{JobID: jobID, Status: remote.JobComplete, Results: append([]findings.RawFinding{}, results...)}
}

func raw(path, id string, start, end int) findings.RawFinding {
	return findings.RawFinding{ID: id, Path: path, StartLine: start, EndLine: end, Category: "bug", Summary: "possible bug"}
}

// Submit, poll until complete, store and highlight.
func TestAnalyzeCompletes(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return pending("job-1"), nil
	}
	client.poll = func(_ context.Context, jobID string, call int) (*remote.JobStatusResponse, error) {
		assert.Equal(t, "job-1", jobID)
		if call == 1 {
			return &remote.JobStatusResponse{JobID: jobID, Status: remote.JobRunning}, nil
		}
		return completeWith(jobID, raw(f.path, "1", 1, 1)), nil
	}
	f.view.Open(f.path, "line1\nline2\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)

	assert.Equal(t, reconcile.Completed, outcome.Kind)
	assert.Equal(t, 1, outcome.Count)
	assert.Equal(t, 2, client.polls)
	assert.Equal(t, []string{"src/a.ts"}, client.relatives)

	stored, ok := f.store.Get(findings.NewKey(f.path, "1"))
	require.True(t, ok)
	assert.Equal(t, filepath.Base(f.dir), stored.Workspace)
	assert.Equal(t, fixedNow.Add(findings.DefaultTTL), stored.Expiration)

	ranges := f.view.Decorations(f.path)
	require.Len(t, ranges, 1)
	assert.Equal(t, 0, ranges[0].StartLine)
	assert.Equal(t, 0, ranges[0].EndLine)

	assert.Equal(t, []events.Kind{events.AnalysisCompleted, events.CurrentProject}, f.kinds())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.AnalysesTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.FindingsTotal.WithLabelValues("accepted")))
}

// An empty batch clears the analyzed file only.
func TestAnalyzeEmptyBatch(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	other := findings.Finding{ID: "2", Path: filepath.Join(f.dir, "b.ts"), StartLine: 1, EndLine: 1}
	require.NoError(t, f.store.Set(context.Background(), findings.Finding{ID: "1", Path: f.path, StartLine: 1, EndLine: 1}))
	require.NoError(t, f.store.Set(context.Background(), other))

	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return completeWith("job-1"), nil
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)

	assert.Equal(t, reconcile.Completed, outcome.Kind)
	assert.Equal(t, 0, outcome.Count)
	assert.Equal(t, []findings.Key{other.Key()}, f.store.Snapshot().Keys())
	assert.Empty(t, f.view.Decorations(f.path))
	assert.Equal(t, 1, f.view.Applies(f.path))
	assert.Equal(t, []events.Kind{events.AnalysisCompletedEmptyProblems, events.CurrentProject}, f.kinds())
}

func TestAnalyzeRemoteFailure(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	existing := findings.Finding{ID: "1", Path: f.path, StartLine: 1, EndLine: 1}
	require.NoError(t, f.store.Set(context.Background(), existing))
	before := f.store.Snapshot()

	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return pending("job-1"), nil
	}
	client.poll = func(_ context.Context, jobID string, _ int) (*remote.JobStatusResponse, error) {
		return &remote.JobStatusResponse{JobID: jobID, Status: remote.JobFailed}, nil
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path, Quiet: true})
	require.NoError(t, err)

	assert.Equal(t, reconcile.RemoteFailure, outcome.Kind)
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, []string{errorMessage}, f.view.Errors())
	assert.Equal(t, []events.Kind{events.AnalysisError, events.CurrentProject}, f.kinds())
}

func TestAnalyzeTransportFailure(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return nil, &remote.APIError{StatusCode: 502}
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)

	assert.Equal(t, reconcile.TransportFailure, outcome.Kind)
	assert.Equal(t, []string{timeoutMessage}, f.view.Errors())

	evs := f.bus.Drain()
	require.Len(t, evs, 2)
	assert.Equal(t, events.AnalysisError, evs[0].Kind)
	var apiErr *remote.APIError
	assert.ErrorAs(t, evs[0].Err, &apiErr)
	assert.Equal(t, events.CurrentProject, evs[1].Kind)
}

func TestAnalyzeQuietTransportFailure(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return nil, &remote.APIError{StatusCode: 429}
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path, Quiet: true})
	require.NoError(t, err)

	assert.Equal(t, reconcile.TransportFailure, outcome.Kind)
	assert.Empty(t, f.view.Errors())
	assert.Empty(t, f.bus.Drain())
}

func TestAnalyzeQuietReportsOtherTransportFailures(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return nil, &remote.APIError{StatusCode: 502}
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path, Quiet: true})
	require.NoError(t, err)

	assert.Equal(t, reconcile.TransportFailure, outcome.Kind)
	assert.Equal(t, []string{timeoutMessage}, f.view.Errors())
	assert.Equal(t, []events.Kind{events.AnalysisError, events.CurrentProject}, f.kinds())
}

func TestAnalyzeCompleteWithoutResultsKeepsFindings(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	existing := findings.Finding{ID: "1", Path: f.path, StartLine: 1, EndLine: 1, IsDiscarded: true}
	require.NoError(t, f.store.Set(context.Background(), existing))
	before := f.store.Snapshot()

	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return &remote.JobStatusResponse{JobID: "job-1", Status: remote.JobComplete}, nil
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)

	assert.Equal(t, reconcile.TransportFailure, outcome.Kind)
	assert.Equal(t, before, f.store.Snapshot())
	assert.Equal(t, []string{timeoutMessage}, f.view.Errors())
	assert.Equal(t, []events.Kind{events.AnalysisError, events.CurrentProject}, f.kinds())
}

func TestAnalyzeTimeout(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	f.analyzer.opts.Timeout = 30 * time.Millisecond
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return pending("job-1"), nil
	}
	client.poll = func(_ context.Context, jobID string, _ int) (*remote.JobStatusResponse, error) {
		return pending(jobID), nil
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)

	assert.Equal(t, reconcile.TransportFailure, outcome.Kind)
	evs := f.bus.Drain()
	require.NotEmpty(t, evs)
	assert.ErrorIs(t, evs[0].Err, ErrTimeout)
}

func TestAnalyzeRequiresActiveDocument(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	f.view.Open(filepath.Join(f.dir, "other.ts"), "x\n")

	_, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	assert.ErrorIs(t, err, ErrNotActiveDocument)
	assert.Equal(t, 0, client.submits)
	assert.Equal(t, []events.Kind{events.AnalysisError, events.CurrentProject}, f.kinds())
}

func TestAnalyzeRequiresSession(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "", client)
	f.view.Open(f.path, "line1\n")

	_, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, 0, client.submits)
}

// Highlights are checked against the text at commit time, not submit time.
func TestAnalyzeUsesCurrentDocumentText(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return pending("job-1"), nil
	}
	client.poll = func(_ context.Context, jobID string, _ int) (*remote.JobStatusResponse, error) {
		f.view.Edit(f.path, "\nline2\n")
		return completeWith(jobID, raw(f.path, "1", 1, 1), raw(f.path, "2", 2, 2)), nil
	}
	f.view.Open(f.path, "line1\nline2\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Count)
	assert.Equal(t, 1, outcome.Stats.RejectedText)
	assert.Equal(t, []findings.Key{findings.NewKey(f.path, "2")}, f.store.Snapshot().Keys())
}

func TestAnalyzeSkipsRenderWhenFocusMoved(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	other := filepath.Join(f.dir, "b.ts")
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return pending("job-1"), nil
	}
	client.poll = func(_ context.Context, jobID string, _ int) (*remote.JobStatusResponse, error) {
		f.view.Open(other, "y\n")
		return completeWith(jobID, raw(f.path, "1", 1, 1)), nil
	}
	f.view.Open(f.path, "line1\n")

	outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)

	assert.Equal(t, reconcile.Completed, outcome.Kind)
	assert.Equal(t, 1, f.store.Len())
	assert.Equal(t, 0, f.view.Applies(f.path))
}

// A newer analysis of the same file wins; the older one's result is dropped.
func TestAnalyzeLatestWins(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	polling := make(chan struct{})

	client.submit = func(_ context.Context, call int) (*remote.JobStatusResponse, error) {
		if call == 1 {
			return pending("job-old"), nil
		}
		return completeWith("job-new", raw(f.path, "new", 1, 1)), nil
	}
	client.poll = func(ctx context.Context, jobID string, _ int) (*remote.JobStatusResponse, error) {
		assert.Equal(t, "job-old", jobID)
		close(polling)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	f.view.Open(f.path, "line1\n")

	first := make(chan reconcile.Outcome, 1)
	go func() {
		outcome, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
		assert.NoError(t, err)
		first <- outcome
	}()

	select {
	case <-polling:
	case <-time.After(time.Second):
		t.Fatal("first analysis never polled")
	}

	second, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	require.NoError(t, err)
	assert.Equal(t, reconcile.Completed, second.Kind)

	select {
	case outcome := <-first:
		assert.Equal(t, reconcile.Superseded, outcome.Kind)
	case <-time.After(time.Second):
		t.Fatal("first analysis was not cancelled")
	}

	assert.Equal(t, []findings.Key{findings.NewKey(f.path, "new")}, f.store.Snapshot().Keys())
	assert.Empty(t, f.view.Errors())
}

func TestAnalyzePersistFailure(t *testing.T) {
	client := &fakeClient{}
	f := newFixture(t, "tok", client)
	f.store = store.New(failingPersister{}, nil)
	f.analyzer.store = f.store
	client.submit = func(context.Context, int) (*remote.JobStatusResponse, error) {
		return completeWith("job-1", raw(f.path, "1", 1, 1)), nil
	}
	f.view.Open(f.path, "line1\n")

	_, err := f.analyzer.Analyze(context.Background(), Request{Path: f.path})
	assert.ErrorIs(t, err, store.ErrPersist)
	assert.Equal(t, 0, f.store.Len())
}

type failingPersister struct{}

func (failingPersister) Load(context.Context) (findings.Entries, bool, error) {
	return nil, false, nil
}

func (failingPersister) Save(context.Context, findings.Entries) error {
	return errors.New("disk full")
}
