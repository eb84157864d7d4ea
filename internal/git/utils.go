package git

import (
	"errors"
	"path/filepath"

	"github.com/go-git/go-git/v5"
)

var (
	ErrEmptyPath     = errors.New("path is not set")
	ErrNotRepository = errors.New("folder is not inside a git repository")
)

// findRepositoryRoot walks up from folder to the first directory git can open.
func findRepositoryRoot(folder string) (string, error) {
	if folder == "" {
		return "", ErrEmptyPath
	}

	for {
		if _, err := git.PlainOpen(folder); err == nil {
			return filepath.Clean(folder), nil
		}

		parent := filepath.Dir(folder)
		if parent == folder {
			break
		}
		folder = parent
	}

	return "", ErrNotRepository
}
