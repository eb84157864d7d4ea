package sarif

import (
	"path/filepath"
	"strings"

	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-ide/internal/findings"
)

// levelFromSeverity maps the service severity onto a SARIF level.
func levelFromSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "critical", "high", "error":
		return "error"
	case "medium", "warning", "":
		return "warning"
	case "low", "info", "note":
		return "note"
	default:
		return "none"
	}
}

func resultLevel(result *sarif.Result) string {
	if result.Level == nil {
		return ""
	}
	return *result.Level
}

func resultMessage(f findings.Finding) string {
	switch {
	case f.Summary != "" && f.Description != "":
		return f.Summary + "\n\n" + f.Description
	case f.Summary != "":
		return f.Summary
	case f.Description != "":
		return f.Description
	default:
		return f.Category
	}
}

// artifactURI returns path relative to root with forward slashes, or path
// itself when root is empty or path lies outside it.
func artifactURI(path, root string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
