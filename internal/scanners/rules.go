package scanners

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/batch"
)

// lineRule is one line-level heuristic of a rule scanner.
type lineRule struct {
	id          string
	level       schemas.SeverityLevel
	title       string
	description string
	suggestion  string
	autoFixable bool
	docs        string
	match       func(line string) bool
}

// reMatch adapts a regexp to the rule match signature.
func reMatch(pattern string) func(string) bool {
	re := regexp.MustCompile(pattern)
	return re.MatchString
}

// ruleScanner walks the matching files with bounded concurrency and applies
// its rule set line by line. Per-file results go through the session cache
// when one is injected.
type ruleScanner struct {
	cacheAware
	name     string
	kind     string
	category string
	exts     []string
	rules    []lineRule
	logger   *zap.Logger

	// extra, when set, runs per line after the rule set. Used for checks
	// that need more than a pattern match.
	extra func(line string) []lineFinding
}

// lineFinding is a dynamic finding produced by the extra hook.
type lineFinding struct {
	rule lineRule
}

func (r *ruleScanner) Name() string { return r.name }

// CanRun holds whenever the project root exists; a rule scanner with no
// matching files simply returns no issues.
func (r *ruleScanner) CanRun(cfg schemas.ScanConfig) bool {
	return cfg.ProjectRoot != ""
}

// Run walks the matching files through the parallel batch primitive and
// flattens the per-file issue lists. Unreadable files are skipped; the run
// only fails when the walk itself does.
func (r *ruleScanner) Run(ctx context.Context, cfg schemas.ScanConfig) ([]schemas.Issue, error) {
	files, err := collectFiles(cfg, r.exts)
	if err != nil {
		return nil, fmt.Errorf("failed to walk project tree: %w", err)
	}
	if len(files) == 0 {
		return []schemas.Issue{}, nil
	}

	result, err := batch.ProcessParallel(ctx, files,
		func(ctx context.Context, rel string) ([]schemas.Issue, error) {
			return r.scanFile(cfg.ProjectRoot, rel)
		},
		batch.Options{Concurrency: cfg.Concurrency},
	)
	if err != nil {
		return nil, err
	}

	for _, f := range result.Failures {
		r.logger.Warn("Skipped unreadable file", zap.String("file", f.Item), zap.Error(f.Err))
	}

	issues := []schemas.Issue{}
	for _, fileIssues := range result.Results {
		issues = append(issues, fileIssues...)
	}
	return issues, nil
}

// scanFile applies the rule set to one file, consulting the cache first.
func (r *ruleScanner) scanFile(root, rel string) ([]schemas.Issue, error) {
	if cached, ok := r.cached(rel, r.name); ok {
		return cached, nil
	}

	lines, err := readLines(root, rel)
	if err != nil {
		return nil, err
	}

	issues := []schemas.Issue{}
	for i, line := range lines {
		for _, rule := range r.rules {
			if rule.match(line) {
				issues = append(issues, r.newIssue(rule, rel, i, lines))
			}
		}
		if r.extra != nil {
			for _, finding := range r.extra(line) {
				issues = append(issues, r.newIssue(finding.rule, rel, i, lines))
			}
		}
	}

	r.remember(rel, r.name, issues)
	return issues, nil
}

func (r *ruleScanner) newIssue(rule lineRule, rel string, lineIdx int, lines []string) schemas.Issue {
	return schemas.Issue{
		ID:            schemas.NewIssueID(),
		Kind:          r.kind,
		Severity:      severityFor(rule.level),
		Title:         rule.title,
		Description:   rule.description,
		Location:      schemas.Location{File: rel, Line: lineIdx + 1},
		RuleID:        rule.id,
		Category:      r.category,
		Source:        r.name,
		Suggestion:    rule.suggestion,
		AutoFixable:   rule.autoFixable,
		Documentation: rule.docs,
		Context:       contextAround(lines, lineIdx),
		Metadata:      lineMetadata(lines[lineIdx]),
	}
}
