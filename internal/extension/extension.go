// Package extension owns the lifetime of everything the editor integration
// needs: the finding store, the service client, the session and the
// background tasks.
package extension

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/scan-io-git/scanio-ide/internal/actions"
	"github.com/scan-io-git/scanio-ide/internal/analyzer"
	"github.com/scan-io-git/scanio-ide/internal/config"
	"github.com/scan-io-git/scanio-ide/internal/editor"
	"github.com/scan-io-git/scanio-ide/internal/events"
	"github.com/scan-io-git/scanio-ide/internal/metrics"
	"github.com/scan-io-git/scanio-ide/internal/remote"
	"github.com/scan-io-git/scanio-ide/internal/session"
	"github.com/scan-io-git/scanio-ide/internal/store"
	"github.com/scan-io-git/scanio-ide/internal/store/badgerstore"
	"github.com/scan-io-git/scanio-ide/internal/watcher"
)

// Options are the host-provided parts of an extension.
type Options struct {
	// View is the editor surface. Required.
	View editor.View
	// WorkspaceRoot is the folder analyses fall back to outside git repositories.
	WorkspaceRoot string
	// Persister overrides the badger-backed store persistence.
	Persister store.Persister
}

// Focuser is implemented by views whose active document can be moved by the
// extension, as needed to analyze files saved outside the editor.
type Focuser interface {
	SetActive(path string)
}

// Extension is the activated core.
type Extension struct {
	cfg    *config.Config
	logger hclog.Logger
	opts   Options

	Store     *store.Store
	Client    *remote.Client
	Sessions  *session.Manager
	Analyzer  *analyzer.Analyzer
	Actions   *actions.Handler
	Bus       *events.Bus
	Metrics   *metrics.Metrics
	persister *badgerstore.Persister

	closeOnce sync.Once
}

// Activate opens the store and wires every component. It does not talk to
// the service; call Connect for that.
func Activate(ctx context.Context, cfg *config.Config, opts Options, logger hclog.Logger) (*Extension, error) {
	if opts.View == nil {
		return nil, errors.New("extension view is not set")
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	ext := &Extension{
		cfg:     cfg,
		logger:  logger,
		opts:    opts,
		Bus:     events.NewBus(events.DefaultBuffer),
		Metrics: metrics.New(),
	}

	persister := opts.Persister
	if persister == nil {
		dbPath, err := storePath(cfg)
		if err != nil {
			return nil, err
		}
		ext.persister, err = badgerstore.Open(badgerstore.Config{
			Path:       dbPath,
			InMemory:   cfg.Store.InMemory,
			SyncWrites: true,
			Logger:     logger.Named("badger"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open finding store: %w", err)
		}
		persister = ext.persister
	}

	st, err := store.Open(ctx, persister, logger.Named("store"))
	if err != nil {
		ext.closePersister()
		return nil, err
	}
	ext.Store = st
	ext.Metrics.SetStored(st.Len())

	ext.Client = remote.New(cfg, logger.Named("remote"))
	ext.Sessions = session.NewManager(ext.Client, cfg.API.APIKey, config.GetSessionRefresh(cfg), logger.Named("session"))
	ext.Analyzer = analyzer.New(ext.Client, ext.Sessions, st, opts.View, ext.Bus, ext.Metrics,
		logger.Named("analyzer"), analyzer.OptionsFromConfig(cfg, opts.WorkspaceRoot))
	ext.Actions = actions.NewHandler(st, ext.Client, ext.Sessions, opts.View, ext.Metrics, logger.Named("actions"))

	logger.Debug("extension activated", "findings", st.Len())
	return ext, nil
}

// Connect obtains the first session token.
func (e *Extension) Connect(ctx context.Context) error {
	if e.cfg.API.APIKey == "" {
		return fmt.Errorf("%w: set api.api_key or SCANIO_API_KEY", remote.ErrMissingAPIKey)
	}
	return e.Sessions.Refresh(ctx)
}

// Run starts the background tasks and blocks until ctx is cancelled or one
// of them fails: session refresh, the metrics endpoint when configured, and
// analyze-on-save below watchRoot when watchRoot is set and enabled.
func (e *Extension) Run(ctx context.Context, watchRoot string) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.Sessions.Run(ctx)
	})

	if addr := e.cfg.Metrics.Address; addr != "" {
		g.Go(func() error {
			return e.Metrics.Serve(ctx, addr, e.logger.Named("metrics"))
		})
	}

	if watchRoot != "" && config.GetBoolValue(e.cfg, "Analysis.AnalyzeOnSave", true) {
		w, err := watcher.New(watchRoot, config.GetDebounce(e.cfg), e.analyzeOnSave, e.logger.Named("watcher"))
		if err != nil {
			return err
		}
		g.Go(func() error {
			return w.Run(ctx)
		})
	}

	return g.Wait()
}

// analyzeOnSave focuses a saved document and runs a quiet analysis of it.
func (e *Extension) analyzeOnSave(ctx context.Context, path string) {
	if f, ok := e.opts.View.(Focuser); ok {
		f.SetActive(path)
	}
	outcome, err := e.Analyzer.Analyze(ctx, analyzer.Request{Path: path, Quiet: true})
	if err != nil {
		e.logger.Warn("analysis on save failed", "path", path, "error", err)
		return
	}
	e.logger.Debug("analysis on save finished", "path", path, "outcome", outcome.String())
}

// Deactivate releases the store and closes the event bus. It is safe to
// call more than once.
func (e *Extension) Deactivate() error {
	var err error
	e.closeOnce.Do(func() {
		e.Bus.Close()
		err = e.closePersister()
	})
	return err
}

func (e *Extension) closePersister() error {
	if e.persister == nil {
		return nil
	}
	if err := e.persister.Close(); err != nil {
		return fmt.Errorf("failed to close finding store: %w", err)
	}
	return nil
}

func storePath(cfg *config.Config) (string, error) {
	if cfg.Store.InMemory {
		return "", nil
	}
	if cfg.Store.Path != "" {
		return cfg.Store.Path, nil
	}
	home, err := config.GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "store"), nil
}
