// Package autofix applies automated remediation to issues flagged
// auto-fixable. Fix strategies are keyed by issue category; categories
// without a dedicated strategy fall back to annotating the offending line
// with the issue's suggestion.
package autofix

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// Strategy rewrites the file lines for one issue. It receives the full line
// slice and the zero-based index of the offending line, and returns the
// modified slice.
type Strategy func(lines []string, lineIdx int, issue schemas.Issue) ([]string, error)

// Fixer applies category-keyed fix strategies to a project tree.
type Fixer struct {
	logger     *zap.Logger
	root       string
	dryRun     bool
	strategies map[string]Strategy
}

// New creates a Fixer for the given project root. With dryRun set no file is
// written; attempts succeed or fail exactly as they would for real.
func New(root string, dryRun bool, logger *zap.Logger) *Fixer {
	f := &Fixer{
		logger: logger.Named("autofix"),
		root:   root,
		dryRun: dryRun,
	}
	f.strategies = map[string]Strategy{
		"accessibility": fixAccessibility,
		"security":      fixSecurity,
		"performance":   fixPerformance,
	}
	return f
}

// Fix attempts every issue independently. One issue's failure is recorded
// with a human-readable reason and never stops the remaining attempts.
func (f *Fixer) Fix(ctx context.Context, issues []schemas.Issue) *schemas.FixReport {
	report := &schemas.FixReport{
		Fixed:  []schemas.Issue{},
		Failed: []schemas.FixFailure{},
	}

	for _, issue := range issues {
		// Cooperative cancellation between attempts; once a fix starts it
		// runs to completion so no file is left half-written.
		if ctx.Err() != nil {
			report.Failed = append(report.Failed, schemas.FixFailure{
				Issue:  issue,
				Reason: "remediation cancelled before this issue was attempted",
			})
			continue
		}

		if err := f.fixOne(issue); err != nil {
			f.logger.Warn("Fix attempt failed",
				zap.String("issue_id", issue.ID),
				zap.String("rule", issue.RuleID),
				zap.Error(err),
			)
			report.Failed = append(report.Failed, schemas.FixFailure{Issue: issue, Reason: err.Error()})
			continue
		}

		f.logger.Info("Fix applied",
			zap.String("issue_id", issue.ID),
			zap.String("file", issue.Location.File),
			zap.Int("line", issue.Location.Line),
		)
		report.Fixed = append(report.Fixed, issue)
	}

	return report
}

// fixOne applies the category strategy for a single issue.
func (f *Fixer) fixOne(issue schemas.Issue) error {
	if issue.Location.File == "" {
		return fmt.Errorf("issue has no file location")
	}
	if issue.Location.Line < 1 {
		return fmt.Errorf("issue has no line number to anchor a fix")
	}

	path := filepath.Join(f.root, issue.Location.File)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", issue.Location.File, err)
	}

	lines := strings.Split(string(data), "\n")
	lineIdx := issue.Location.Line - 1
	if lineIdx >= len(lines) {
		return fmt.Errorf("line %d is beyond the end of %s", issue.Location.Line, issue.Location.File)
	}

	// Refuse to touch a line that changed since the analysis stamped it.
	if issue.Metadata != nil && issue.Metadata.LineChecksum != "" {
		if schemas.LineChecksum(lines[lineIdx]) != issue.Metadata.LineChecksum {
			return fmt.Errorf("line %d of %s changed since analysis; re-run before fixing", issue.Location.Line, issue.Location.File)
		}
	}

	strategy, ok := f.strategies[strings.ToLower(issue.Category)]
	if !ok {
		strategy = annotateSuggestion
	}

	fixed, err := strategy(lines, lineIdx, issue)
	if err != nil {
		return err
	}

	if f.dryRun {
		return nil
	}
	if err := os.WriteFile(path, []byte(strings.Join(fixed, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", issue.Location.File, err)
	}
	return nil
}
