// Package sarif exports stored findings as a SARIF 2.1.0 report.
package sarif

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
	"github.com/owenrumney/go-sarif/v2/sarif"

	"github.com/scan-io-git/scanio-ide/internal/findings"
	"github.com/scan-io-git/scanio-ide/pkg/shared/files"
)

const (
	defaultToolName = "scanio-ide"
	defaultToolURI  = "https://github.com/scan-io-git/scanio-ide"
	defaultRuleID   = "finding"
)

type Report struct {
	*sarif.Report
	logger hclog.Logger
}

type ToolMetadata struct {
	Name           string
	InformationURI string
	Version        *string
}

// BuildOptions selects what goes into a report.
type BuildOptions struct {
	// IncludeDiscarded keeps discarded findings, marked as externally suppressed.
	IncludeDiscarded bool
	// Root makes artifact URIs relative when set.
	Root string
}

// BuildReport creates a single-run report with one result per finding,
// ordered by level and then by finding key.
func BuildReport(entries findings.Entries, tool ToolMetadata, opts BuildOptions, logger hclog.Logger) (*Report, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if tool.Name == "" {
		tool.Name = defaultToolName
	}
	if tool.InformationURI == "" {
		tool.InformationURI = defaultToolURI
	}

	report, err := sarif.New(sarif.Version210)
	if err != nil {
		return nil, fmt.Errorf("failed to create SARIF report: %w", err)
	}

	run := sarif.NewRunWithInformationURI(tool.Name, tool.InformationURI)
	run.Tool.Driver.SemanticVersion = tool.Version

	rules := map[string]struct{}{}
	for _, key := range entries.Keys() {
		f := entries[key]
		if f.IsDiscarded && !opts.IncludeDiscarded {
			continue
		}

		ruleID := f.Category
		if ruleID == "" {
			ruleID = defaultRuleID
		}
		if _, ok := rules[ruleID]; !ok {
			run.AddRule(ruleID).WithDescription(ruleID)
			rules[ruleID] = struct{}{}
		}

		location := sarif.NewLocation().WithPhysicalLocation(
			sarif.NewPhysicalLocation().
				WithArtifactLocation(sarif.NewArtifactLocation().WithUri(artifactURI(f.Path, opts.Root))).
				WithRegion(sarif.NewRegion().WithStartLine(f.StartLine).WithEndLine(f.EndLine)),
		)

		result := sarif.NewRuleResult(ruleID).
			WithMessage(sarif.NewTextMessage(resultMessage(f))).
			WithLevel(levelFromSeverity(f.Severity)).
			WithLocations([]*sarif.Location{location})
		result.Properties = sarif.Properties{
			"key":       string(key),
			"id":        f.ID,
			"workspace": f.Workspace,
			"endorsed":  f.IsEndorsed,
			"discarded": f.IsDiscarded,
		}
		if f.IsDiscarded {
			result.Suppressions = []*sarif.Suppression{{Kind: "external"}}
		}
		run.AddResult(result)
	}

	report.AddRun(run)
	r := &Report{Report: report, logger: logger}
	r.SortResultsByLevel()
	return r, nil
}

// WriteReport writes r as indented JSON to outputPath, creating parent folders.
func (r *Report) WriteReport(outputPath string) error {
	var buf bytes.Buffer
	if err := r.PrettyWrite(&buf); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	if err := files.WriteFileAtomic(outputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write SARIF report: %w", err)
	}
	r.logger.Debug("SARIF report written", "path", outputPath)
	return nil
}

// CollectSeverityInfo counts results per level bucket: high (error),
// medium (warning), low (everything else) and total.
func (r *Report) CollectSeverityInfo() map[string]int {
	severityInfo := map[string]int{
		"low":    0,
		"medium": 0,
		"high":   0,
		"total":  0,
	}

	for _, run := range r.Runs {
		for _, result := range run.Results {
			switch resultLevel(result) {
			case "error":
				severityInfo["high"]++
			case "warning":
				severityInfo["medium"]++
			default:
				severityInfo["low"]++
			}
			severityInfo["total"]++
		}
	}
	return severityInfo
}

// SortResultsByLevel orders results error, warning, note, none. The sort is
// stable, so results of one level keep their order.
func (r *Report) SortResultsByLevel() {
	levelOrder := map[string]int{
		"error":   0,
		"warning": 1,
		"note":    2,
		"none":    3,
	}

	rank := func(result *sarif.Result) int {
		if order, ok := levelOrder[resultLevel(result)]; ok {
			return order
		}
		return len(levelOrder)
	}

	for _, run := range r.Runs {
		sort.SliceStable(run.Results, func(i, j int) bool {
			return rank(run.Results[i]) < rank(run.Results[j])
		})
	}
}
