// Package session keeps the service session token fresh for the lifetime of
// the extension.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// ErrNoSession is returned when no session token has been obtained yet.
var ErrNoSession = errors.New("no active session")

// Creator exchanges an API key for a session token.
type Creator interface {
	CreateSession(ctx context.Context, apiKey, previous string) (string, error)
}

// Manager owns the current session token.
type Manager struct {
	mu       sync.RWMutex
	token    string
	apiKey   string
	creator  Creator
	interval time.Duration
	logger   hclog.Logger
}

// NewManager returns a manager refreshing every interval.
func NewManager(creator Creator, apiKey string, interval time.Duration, logger hclog.Logger) *Manager {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Manager{
		apiKey:   apiKey,
		creator:  creator,
		interval: interval,
		logger:   logger,
	}
}

// Token returns the current token, or ErrNoSession.
func (m *Manager) Token() (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", ErrNoSession
	}
	return m.token, nil
}

// SetToken installs a token obtained elsewhere.
func (m *Manager) SetToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
}

// Refresh obtains a new token. On failure the previous token is kept.
func (m *Manager) Refresh(ctx context.Context) error {
	m.mu.RLock()
	previous := m.token
	m.mu.RUnlock()

	token, err := m.creator.CreateSession(ctx, m.apiKey, previous)
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()
	m.logger.Debug("session refreshed")
	return nil
}

// Run refreshes the token every interval until ctx is cancelled. Failed
// refreshes are logged and retried on the next tick.
func (m *Manager) Run(ctx context.Context) error {
	if m.interval <= 0 {
		return fmt.Errorf("invalid session refresh interval %s", m.interval)
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.Refresh(ctx); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				m.logger.Warn("session refresh failed", "error", err)
			}
		}
	}
}
