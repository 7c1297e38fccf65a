package scanners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/batch"
)

// SyntaxScanner parses script sources with tree-sitter and reports every
// ERROR and MISSING node the grammar recovers around.
type SyntaxScanner struct {
	cacheAware
	logger *zap.Logger
}

// NewSyntax returns the syntax scanner.
func NewSyntax(logger *zap.Logger) *SyntaxScanner {
	return &SyntaxScanner{logger: logger.Named("syntax")}
}

func (s *SyntaxScanner) Name() string { return "syntax" }

// CanRun holds whenever the project root exists on disk.
func (s *SyntaxScanner) CanRun(cfg schemas.ScanConfig) bool {
	info, err := os.Stat(cfg.ProjectRoot)
	return err == nil && info.IsDir()
}

// Run parses every script file with bounded concurrency. Each parser
// instance is goroutine-local; tree-sitter parsers are not safe to share.
func (s *SyntaxScanner) Run(ctx context.Context, cfg schemas.ScanConfig) ([]schemas.Issue, error) {
	files, err := collectFiles(cfg, []string{".js", ".jsx", ".mjs", ".cjs"})
	if err != nil {
		return nil, fmt.Errorf("failed to walk project tree: %w", err)
	}
	if len(files) == 0 {
		return []schemas.Issue{}, nil
	}

	result, err := batch.ProcessParallel(ctx, files,
		func(ctx context.Context, rel string) ([]schemas.Issue, error) {
			return s.parseFile(ctx, cfg.ProjectRoot, rel)
		},
		batch.Options{Concurrency: cfg.Concurrency},
	)
	if err != nil {
		return nil, err
	}

	for _, f := range result.Failures {
		s.logger.Warn("Skipped unparseable file", zap.String("file", f.Item), zap.Error(f.Err))
	}

	issues := []schemas.Issue{}
	for _, fileIssues := range result.Results {
		issues = append(issues, fileIssues...)
	}
	return issues, nil
}

func (s *SyntaxScanner) parseFile(ctx context.Context, root, rel string) ([]schemas.Issue, error) {
	if cached, ok := s.cached(rel, s.Name()); ok {
		return cached, nil
	}

	data, err := os.ReadFile(filepath.Join(root, rel))
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, data)
	if err != nil {
		return nil, fmt.Errorf("parse failed: %w", err)
	}
	defer tree.Close()

	issues := []schemas.Issue{}
	collectSyntaxErrors(tree.RootNode(), rel, s.Name(), &issues)

	s.remember(rel, s.Name(), issues)
	return issues, nil
}

// collectSyntaxErrors walks the tree and emits one issue per ERROR or
// MISSING node. Children of an ERROR node are not descended into; one broken
// region yields one issue.
func collectSyntaxErrors(node *sitter.Node, rel, source string, issues *[]schemas.Issue) {
	if node == nil {
		return
	}
	if node.IsError() || node.IsMissing() {
		point := node.StartPoint()
		title := "Syntax error"
		description := "The parser could not make sense of this region."
		if node.IsMissing() {
			title = "Missing token"
			description = fmt.Sprintf("The parser expected a %q here.", node.Type())
		}
		*issues = append(*issues, schemas.Issue{
			ID:          schemas.NewIssueID(),
			Kind:        "syntax",
			Severity:    severityFor(schemas.LevelHigh),
			Title:       title,
			Description: description,
			Location: schemas.Location{
				File:   rel,
				Line:   int(point.Row) + 1,
				Column: int(point.Column) + 1,
			},
			RuleID:   "syntax/parse-error",
			Category: "Syntax",
			Source:   source,
		})
		return
	}
	if !node.HasError() {
		return // No error anywhere below, skip the subtree.
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectSyntaxErrors(node.Child(i), rel, source, issues)
	}
}
