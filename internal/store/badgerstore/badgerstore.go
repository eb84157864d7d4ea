// Package badgerstore persists the finding store in an embedded BadgerDB,
// one key per finding.
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/hashicorp/go-hclog"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

const (
	findingPrefix = "finding/"
	// savedMarker distinguishes an empty saved store from one never saved.
	savedMarker = "meta/saved"
)

// Config holds configuration for the BadgerDB instance.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string
	// InMemory disables disk persistence. Used by tests.
	InMemory bool
	// SyncWrites makes every commit durable before returning.
	SyncWrites bool
	// Logger receives BadgerDB's internal logs. Nil disables them.
	Logger hclog.Logger
}

// Persister implements store.Persister on top of BadgerDB.
type Persister struct {
	db *badger.DB
}

// badgerLogger adapts hclog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger hclog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Trace(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

// Open opens the database described by cfg.
func Open(cfg Config) (*Persister, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites).WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Persister{db: db}, nil
}

// Load reads every persisted finding.
func (p *Persister) Load(ctx context.Context) (findings.Entries, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	entries := findings.Entries{}
	saved := false
	err := p.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get([]byte(savedMarker)); err == nil {
			saved = true
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(findingPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := findings.Key(strings.TrimPrefix(string(item.Key()), findingPrefix))
			err := item.Value(func(val []byte) error {
				var f findings.Finding
				if err := json.Unmarshal(val, &f); err != nil {
					return fmt.Errorf("decode finding %q: %w", key, err)
				}
				entries[key] = f
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return entries, saved || len(entries) > 0, nil
}

// Save replaces the persisted findings with entries in a single transaction.
func (p *Persister) Save(ctx context.Context, entries findings.Entries) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return p.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(findingPrefix)
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		for it.Rewind(); it.Valid(); it.Next() {
			key := string(it.Item().Key())
			if _, ok := entries[findings.Key(strings.TrimPrefix(key, findingPrefix))]; !ok {
				stale = append(stale, it.Item().KeyCopy(nil))
			}
		}
		it.Close()

		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("delete finding %q: %w", k, err)
			}
		}

		for k, f := range entries {
			data, err := json.Marshal(f)
			if err != nil {
				return fmt.Errorf("encode finding %q: %w", k, err)
			}
			if err := txn.Set([]byte(findingPrefix+string(k)), data); err != nil {
				return fmt.Errorf("store finding %q: %w", k, err)
			}
		}

		return txn.Set([]byte(savedMarker), []byte{1})
	})
}

// Close releases the database.
func (p *Persister) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}
