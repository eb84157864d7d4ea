// Package analyzer runs one analysis of a document end to end: submit, poll,
// reconcile into the store, refresh highlights and announce the result.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/decorations"
	"github.com/scan-io-git/scanio-ide/internal/editor"
	"github.com/scan-io-git/scanio-ide/internal/events"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/internal/git"
	"github.com/scan-io-git/scanio-ide/internal/metrics"
	"github.com/scan-io-git/scanio-ide/internal/reconcile"
	"github.com/scan-io-git/scanio-ide/internal/remote"
	"github.com/scan-io-git/scanio-ide/internal/store"
)

// Client is the part of the analysis service the analyzer needs.
type Client interface {
	Submit(ctx context.Context, relativePath, content, absolutePath, sessionToken string) (*remote.JobStatusResponse, error)
	PollStatus(ctx context.Context, sessionToken, jobID string) (*remote.JobStatusResponse, error)
}

// TokenSource provides the current session token.
type TokenSource interface {
	Token() (string, error)
}

// Options tunes polling.
type Options struct {
	PollInterval time.Duration
	Timeout      time.Duration
	// WorkspaceRoot is used for documents outside any git repository.
	WorkspaceRoot string
	// Now overrides the clock used for expirations.
	Now func() time.Time
}

// OptionsFromConfig reads polling settings from cfg.
func OptionsFromConfig(cfg *config.Config, workspaceRoot string) Options {
	return Options{
		PollInterval:  config.GetPollInterval(cfg),
		Timeout:       config.GetAnalysisTimeout(cfg),
		WorkspaceRoot: workspaceRoot,
	}
}

// Request asks for one analysis.
type Request struct {
	// Path is the absolute path of the document. It must be the active document.
	Path string
	// Quiet suppresses error reporting when the service rate limits the
	// request, as used by analyze-on-save. Other failures are still reported.
	Quiet bool
}

type ticket struct {
	id     string
	cancel context.CancelFunc
}

// Analyzer runs analyses. At most one analysis per file is current: starting
// a new one cancels the previous one and its result is dropped.
type Analyzer struct {
	client   Client
	sessions TokenSource
	store    *store.Store
	view     editor.View
	bus      *events.Bus
	metrics  *metrics.Metrics
	logger   hclog.Logger
	opts     Options

	mu      sync.Mutex
	current map[string]ticket
}

// New wires an analyzer. bus and m may be nil.
func New(client Client, sessions TokenSource, st *store.Store, view editor.View, bus *events.Bus, m *metrics.Metrics, logger hclog.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = config.DefaultPollInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultAnalysisTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{
		client:   client,
		sessions: sessions,
		store:    st,
		view:     view,
		bus:      bus,
		metrics:  m,
		logger:   logger,
		opts:     opts,
		current:  map[string]ticket{},
	}
}

// Analyze runs a full analysis of req.Path. Failures reported by the service
// or the transport are outcomes, not errors; an error means the analysis
// could not be started or its result could not be stored.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (reconcile.Outcome, error) {
	path := filepath.Clean(req.Path)
	logger := a.logger.With("path", path)

	ws, err := git.ResolveWorkspace(path, a.opts.WorkspaceRoot)
	if err != nil {
		return reconcile.Outcome{Kind: reconcile.TransportFailure}, fmt.Errorf("resolve workspace: %w", err)
	}

	doc, ok := a.view.ActiveDocument()
	if !ok || filepath.Clean(doc.Path) != path {
		a.publishError(ws, path, ErrNotActiveDocument)
		return reconcile.Outcome{Kind: reconcile.TransportFailure}, ErrNotActiveDocument
	}

	token, err := a.sessions.Token()
	if err != nil {
		a.publishError(ws, path, err)
		return reconcile.Outcome{Kind: reconcile.TransportFailure}, fmt.Errorf("analyze %s: %w", path, err)
	}

	jobCtx, id := a.register(ctx, path)
	defer a.release(path, id)

	started := time.Now()
	resp, err := a.run(jobCtx, ws, doc, token)

	var outcome reconcile.Outcome
	switch {
	case !a.isCurrent(path, id):
		outcome = reconcile.Outcome{Kind: reconcile.Superseded}
	case err != nil:
		logger.Warn("analysis returned no usable response", "error", err)
		outcome = reconcile.Outcome{Kind: reconcile.TransportFailure}
	default:
		outcome, err = a.commit(jobCtx, path, id, ws, resp)
		if err != nil {
			a.publishError(ws, path, err)
			return outcome, err
		}
	}

	a.metrics.RecordAnalysis(outcome.Kind.String(), time.Since(started))
	logger.Info("analysis finished", "outcome", outcome.String())
	a.report(ws, path, req, outcome, err)
	return outcome, nil
}

// run submits doc and polls until the job leaves the pending states.
func (a *Analyzer) run(ctx context.Context, ws *git.Workspace, doc *editor.Document, token string) (*remote.JobStatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, a.opts.Timeout)
	defer cancel()

	resp, err := a.client.Submit(ctx, ws.RelativePath(doc.Path), doc.Text, doc.Path, token)
	if err != nil {
		return nil, timeoutOr(ctx, err)
	}
	if resp == nil {
		return nil, remote.ErrEmptyResponse
	}

	limiter := rate.NewLimiter(rate.Every(a.opts.PollInterval), 1)
	// the submit call took the first slot
	limiter.Allow()

	for reconcile.Classify(resp).Kind == reconcile.InProgress {
		if resp.JobID == "" {
			return nil, remote.ErrMissingJobID
		}
		if err := limiter.Wait(ctx); err != nil {
			// Wait also fails early when the next slot lies past the deadline.
			if !errors.Is(ctx.Err(), context.Canceled) {
				return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
			}
			return nil, err
		}
		a.logger.Debug("polling analysis job", "job_id", resp.JobID, "status", resp.Status)

		next, err := a.client.PollStatus(ctx, token, resp.JobID)
		if err != nil {
			return nil, timeoutOr(ctx, err)
		}
		if next == nil {
			return nil, remote.ErrEmptyResponse
		}
		resp = next
	}
	return resp, nil
}

// commit reconciles a finished job into the store if id is still the
// current analysis of path.
func (a *Analyzer) commit(ctx context.Context, path, id string, ws *git.Workspace, resp *remote.JobStatusResponse) (reconcile.Outcome, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current[path].id != id {
		return reconcile.Outcome{Kind: reconcile.Superseded}, nil
	}

	outcome := reconcile.Classify(resp)
	if outcome.Kind != reconcile.Completed {
		return outcome, nil
	}

	opts := reconcile.Options{Workspace: ws.Name, Now: a.opts.Now()}
	if doc, ok := a.view.Document(path); ok {
		opts.Document = doc
	}

	err := a.store.Update(ctx, func(current findings.Entries) (findings.Entries, error) {
		var next findings.Entries
		next, outcome = reconcile.Reconcile(resp, path, current, opts)
		return next, nil
	})
	if err != nil {
		return reconcile.Outcome{Kind: reconcile.TransportFailure}, fmt.Errorf("store analysis of %s: %w", path, err)
	}

	a.metrics.RecordFindings("accepted", outcome.Stats.Accepted)
	a.metrics.RecordFindings("rejected_lines", outcome.Stats.RejectedLines)
	a.metrics.RecordFindings("rejected_text", outcome.Stats.RejectedText)
	a.metrics.RecordFindings("rejected_foreign", outcome.Stats.RejectedForeign)
	a.metrics.SetStored(a.store.Len())
	if outcome.Stats.Rejected() > 0 {
		a.logger.Debug("dropped findings", "path", path, "lines", outcome.Stats.RejectedLines,
			"text", outcome.Stats.RejectedText, "foreign", outcome.Stats.RejectedForeign)
	}
	return outcome, nil
}

// report renders highlights and publishes events for a final outcome.
func (a *Analyzer) report(ws *git.Workspace, path string, req Request, outcome reconcile.Outcome, err error) {
	switch outcome.Kind {
	case reconcile.Superseded:
		a.logger.Debug("dropping result of superseded analysis", "path", path)
		return
	case reconcile.TransportFailure:
		if req.Quiet && remote.IsRateLimited(err) {
			a.logger.Debug("analysis rate limited", "path", path)
			return
		}
		if err == nil {
			err = remote.ErrEmptyResponse
		}
		a.publishError(ws, path, err)
		a.view.ShowError(timeoutMessage)
		return
	case reconcile.RemoteFailure:
		a.publishError(ws, path, errors.New("analysis job failed"))
		a.view.ShowError(errorMessage)
		return
	}

	a.render(path)

	visible := visibleFindings(a.store.ForPath(path))
	if len(visible) == 0 {
		a.bus.Publish(events.Event{Kind: events.AnalysisCompletedEmptyProblems, Path: path})
	} else {
		a.bus.Publish(events.Event{Kind: events.AnalysisCompleted, Path: path, Count: len(visible), Findings: visible})
	}
	a.publishProject(ws, path)
}

func (a *Analyzer) render(path string) {
	doc, ok := a.view.ActiveDocument()
	if !ok || filepath.Clean(doc.Path) != path {
		return
	}
	ranges := decorations.Render(a.store.Snapshot(), path)
	if err := a.view.ApplyDecorations(path, ranges); err != nil {
		a.logger.Warn("failed to apply highlights", "path", path, "error", err)
	}
}

func (a *Analyzer) publishError(ws *git.Workspace, path string, err error) {
	a.bus.Publish(events.Event{Kind: events.AnalysisError, Path: path, Err: err})
	a.publishProject(ws, path)
}

func (a *Analyzer) publishProject(ws *git.Workspace, path string) {
	a.bus.Publish(events.Event{Kind: events.CurrentProject, Project: ws.Name, Path: path})
}

// register makes a new analysis of path current and cancels the previous one.
func (a *Analyzer) register(ctx context.Context, path string) (context.Context, string) {
	jobCtx, cancel := context.WithCancel(ctx)
	id := uuid.NewString()

	a.mu.Lock()
	defer a.mu.Unlock()
	if prev, ok := a.current[path]; ok {
		a.logger.Debug("superseding running analysis", "path", path)
		prev.cancel()
	}
	a.current[path] = ticket{id: id, cancel: cancel}
	return jobCtx, id
}

func (a *Analyzer) release(path, id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if t, ok := a.current[path]; ok && t.id == id {
		t.cancel()
		delete(a.current, path)
	}
}

func (a *Analyzer) isCurrent(path, id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current[path].id == id
}

func visibleFindings(fs []findings.Finding) []findings.Finding {
	out := make([]findings.Finding, 0, len(fs))
	for _, f := range fs {
		if !f.IsDiscarded {
			out = append(out, f)
		}
	}
	return out
}

// timeoutOr maps an error caused by the analysis deadline to ErrTimeout.
func timeoutOr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
