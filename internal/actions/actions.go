// Package actions implements the user's disposal of findings: discarding a
// false positive or endorsing a true one.
package actions

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-ide/internal/decorations"
	"github.com/scan-io-git/scanio-ide/internal/editor"
	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/internal/metrics"
	"github.com/scan-io-git/scanio-ide/internal/remote"
	"github.com/scan-io-git/scanio-ide/internal/store"
)

// Action names a disposal.
type Action string

const (
	ActionDiscard Action = "discard"
	ActionEndorse Action = "endorse"
)

// Discard returns entries with key marked as discarded. Nothing else changes.
func Discard(entries findings.Entries, key findings.Key) (findings.Entries, error) {
	return apply(entries, key, ActionDiscard)
}

// Endorse returns entries with key marked as endorsed. Endorsing also clears
// a previous discard, matching what is reported to the service.
func Endorse(entries findings.Entries, key findings.Key) (findings.Entries, error) {
	return apply(entries, key, ActionEndorse)
}

func apply(entries findings.Entries, key findings.Key, action Action) (findings.Entries, error) {
	f, ok := entries[key]
	if !ok {
		return nil, &PreconditionError{Action: string(action), Key: key, Err: ErrUnknownFinding}
	}

	next := entries.Clone()
	switch action {
	case ActionDiscard:
		f.IsDiscarded = true
	case ActionEndorse:
		f.IsEndorsed = true
		f.IsDiscarded = false
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
	next[key] = f
	return next, nil
}

// Notifier delivers feedback to the analysis service.
type Notifier interface {
	SendFeedback(ctx context.Context, sessionToken string, payload remote.FeedbackPayload) error
}

// TokenSource provides the current session token.
type TokenSource interface {
	Token() (string, error)
}

// Handler runs discard and endorse requests end to end: notify the service,
// update the store and refresh the highlights of the active document.
type Handler struct {
	store    *store.Store
	notifier Notifier
	sessions TokenSource
	view     editor.View
	metrics  *metrics.Metrics
	logger   hclog.Logger
}

// NewHandler wires a handler. m may be nil.
func NewHandler(st *store.Store, notifier Notifier, sessions TokenSource, view editor.View, m *metrics.Metrics, logger hclog.Logger) *Handler {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Handler{
		store:    st,
		notifier: notifier,
		sessions: sessions,
		view:     view,
		metrics:  m,
		logger:   logger,
	}
}

// Discard discards the finding id of path.
func (h *Handler) Discard(ctx context.Context, path, id string) error {
	return h.run(ctx, ActionDiscard, findings.NewKey(path, id))
}

// Endorse endorses the finding id of path.
func (h *Handler) Endorse(ctx context.Context, path, id string) error {
	return h.run(ctx, ActionEndorse, findings.NewKey(path, id))
}

func (h *Handler) run(ctx context.Context, action Action, key findings.Key) error {
	f, ok := h.store.Get(key)
	if !ok {
		return &PreconditionError{Action: string(action), Key: key, Err: ErrUnknownFinding}
	}

	token, err := h.sessions.Token()
	if err != nil {
		return fmt.Errorf("%s %q: %w", action, key, err)
	}

	payload := remote.NewDiscardFeedback(f.ID)
	mutate := Discard
	if action == ActionEndorse {
		payload = remote.NewEndorseFeedback(f.ID)
		mutate = Endorse
	}

	// Feedback is best effort; the local decision stands either way.
	if err := h.notifier.SendFeedback(ctx, token, payload); err != nil {
		h.logger.Warn("failed to send feedback", "action", action, "key", key, "error", err)
		h.metrics.RecordFeedback(string(action), false)
	} else {
		h.metrics.RecordFeedback(string(action), true)
	}

	if err := h.store.Update(ctx, func(current findings.Entries) (findings.Entries, error) {
		return mutate(current, key)
	}); err != nil {
		return err
	}
	h.logger.Info("finding updated", "action", action, "key", key)

	h.rerender()
	return nil
}

func (h *Handler) rerender() {
	if h.view == nil {
		return
	}
	doc, ok := h.view.ActiveDocument()
	if !ok {
		return
	}
	ranges := decorations.Render(h.store.Snapshot(), doc.Path)
	if err := h.view.ApplyDecorations(doc.Path, ranges); err != nil {
		h.logger.Warn("failed to apply highlights", "path", doc.Path, "error", err)
	}
}
