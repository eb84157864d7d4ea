// Package store holds the process-wide finding store: the single source of
// truth for which findings are known and how the user disposed of them.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

// Persister is the durable backend of the store.
type Persister interface {
	// Load returns the persisted entries. ok is false when nothing was ever saved.
	Load(ctx context.Context) (entries findings.Entries, ok bool, err error)
	// Save replaces the persisted entries with entries.
	Save(ctx context.Context, entries findings.Entries) error
}

// Store is a mutex-protected map of findings. Every mutation replaces the
// whole map, so readers never observe a half-applied change.
type Store struct {
	mu        sync.RWMutex
	entries   findings.Entries
	persister Persister
	logger    hclog.Logger
}

// New returns an empty store. A nil persister keeps the store in memory only.
func New(persister Persister, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{
		entries:   findings.Entries{},
		persister: persister,
		logger:    logger,
	}
}

// Open returns a store loaded from persister.
func Open(ctx context.Context, persister Persister, logger hclog.Logger) (*Store, error) {
	s := New(persister, logger)
	if persister == nil {
		return s, nil
	}

	entries, ok, err := persister.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	if ok && entries != nil {
		s.entries = entries
	}
	s.logger.Debug("finding store loaded", "entries", len(s.entries), "persisted", ok)
	return s, nil
}

// Get returns the finding stored under key.
func (s *Store) Get(key findings.Key) (findings.Finding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.entries[key]
	return f, ok
}

// Snapshot returns a copy of all entries.
func (s *Store) Snapshot() findings.Entries {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.Clone()
}

// Len returns the number of stored findings.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Update applies fn to a copy of the entries, persists the result and swaps it
// in. If fn or the persister fails the store is left untouched.
func (s *Store) Update(ctx context.Context, fn func(current findings.Entries) (findings.Entries, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.entries.Clone())
	if err != nil {
		return err
	}
	if next == nil {
		next = findings.Entries{}
	}

	if s.persister != nil {
		if err := s.persister.Save(ctx, next); err != nil {
			s.logger.Error("failed to persist finding store", "error", err)
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
	}

	s.entries = next
	return nil
}

// Set stores f under its key, replacing any previous value.
func (s *Store) Set(ctx context.Context, f findings.Finding) error {
	return s.Update(ctx, func(current findings.Entries) (findings.Entries, error) {
		current[f.Key()] = f
		return current, nil
	})
}

// ForPath returns the findings of path ordered by key.
func (s *Store) ForPath(path string) []findings.Finding {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries.ForPath(path)
}

// CountVisible returns the number of findings of path that are not discarded.
func (s *Store) CountVisible(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, f := range s.entries {
		if f.Path == path && !f.IsDiscarded {
			n++
		}
	}
	return n
}

// OtherFilesWithUnviewed lists, in order, the files other than activePath
// that still have findings the user has not looked at.
func (s *Store) OtherFilesWithUnviewed(activePath string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := map[string]struct{}{}
	for _, f := range s.entries {
		if f.Path == activePath || f.IsViewed {
			continue
		}
		seen[f.Path] = struct{}{}
	}

	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// MarkViewed flags every finding of path as viewed and returns how many changed.
func (s *Store) MarkViewed(ctx context.Context, path string) (int, error) {
	changed := 0
	err := s.Update(ctx, func(current findings.Entries) (findings.Entries, error) {
		for k, f := range current {
			if f.Path == path && !f.IsViewed {
				f.IsViewed = true
				current[k] = f
				changed++
			}
		}
		return current, nil
	})
	if err != nil {
		return 0, err
	}
	return changed, nil
}
