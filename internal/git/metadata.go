package git

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Workspace describes the project a document belongs to.
type Workspace struct {
	// Root is the repository root, or the fallback folder outside a repository.
	Root string
	// Name is the base name of Root, reported as the current project.
	Name string
	// IsRepository is false when no enclosing git repository was found.
	IsRepository bool

	BranchName *string
	CommitHash *string
	RemoteURL  *string
}

// ResolveWorkspace finds the workspace of path. Outside a git repository the
// workspace is fallbackRoot, or the folder of path when fallbackRoot is empty.
func ResolveWorkspace(path, fallbackRoot string) (*Workspace, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}

	root, err := findRepositoryRoot(filepath.Dir(absPath))
	if err != nil {
		if fallbackRoot == "" {
			fallbackRoot = filepath.Dir(absPath)
		}
		if abs, err := filepath.Abs(fallbackRoot); err == nil {
			fallbackRoot = abs
		}
		root = filepath.Clean(fallbackRoot)
		return &Workspace{Root: root, Name: filepath.Base(root)}, nil
	}

	ws := &Workspace{
		Root:         root,
		Name:         filepath.Base(root),
		IsRepository: true,
	}
	collectMetadata(ws)
	return ws, nil
}

// RelativePath returns path relative to the workspace root with forward
// slashes. Paths outside the root are returned as their base name.
func (w *Workspace) RelativePath(path string) string {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = filepath.Clean(path)
	}
	rel, err := filepath.Rel(w.Root, absPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.Base(absPath)
	}
	return filepath.ToSlash(rel)
}

// collectMetadata fills branch, commit and origin of a repository workspace.
// Missing pieces (empty repository, detached HEAD, no origin) stay nil.
func collectMetadata(ws *Workspace) {
	repo, err := git.PlainOpen(ws.Root)
	if err != nil {
		return
	}

	if head, err := repo.Head(); err == nil {
		if head.Name().IsBranch() {
			branchName := head.Name().Short()
			ws.BranchName = &branchName
		}
		hash := head.Hash().String()
		ws.CommitHash = &hash
	}

	if remote, err := repo.Remote("origin"); err == nil {
		if cfg := remote.Config(); cfg != nil && len(cfg.URLs) > 0 {
			url := strings.TrimSuffix(cfg.URLs[0], ".git")
			ws.RemoteURL = &url
		}
	}
}
