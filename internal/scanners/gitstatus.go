package scanners

import (
	"context"
	"fmt"
	"sort"
	"sync"

	git "github.com/go-git/go-git/v5"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
)

// GitStatusScanner inspects the repository state with go-git and reports
// hygiene issues. It also captures the VCS snapshot the orchestrator
// attaches to the analysis result.
type GitStatusScanner struct {
	logger *zap.Logger

	mu       sync.Mutex
	snapshot *schemas.VCSSnapshot
}

// NewGitStatus returns the version-control status scanner.
func NewGitStatus(logger *zap.Logger) *GitStatusScanner {
	return &GitStatusScanner{logger: logger.Named("gitstatus")}
}

func (g *GitStatusScanner) Name() string { return "gitstatus" }

// CanRun requires the project to be a git work tree.
func (g *GitStatusScanner) CanRun(cfg schemas.ScanConfig) bool {
	_, err := git.PlainOpen(cfg.ProjectRoot)
	return err == nil
}

// Run reads HEAD and the worktree status. Go-git does all the reading; no
// git binary is invoked.
func (g *GitStatusScanner) Run(ctx context.Context, cfg schemas.ScanConfig) ([]schemas.Issue, error) {
	repo, err := git.PlainOpen(cfg.ProjectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}

	snap := &schemas.VCSSnapshot{
		Branch: head.Name().Short(),
		Commit: head.Hash().String(),
		Dirty:  !status.IsClean(),
	}
	for path, st := range status {
		switch {
		case st.Worktree == git.Untracked:
			snap.UntrackedFiles = append(snap.UntrackedFiles, path)
		case st.Worktree != git.Unmodified || st.Staging != git.Unmodified:
			snap.ModifiedFiles = append(snap.ModifiedFiles, path)
		}
	}
	sort.Strings(snap.ModifiedFiles)
	sort.Strings(snap.UntrackedFiles)

	g.mu.Lock()
	g.snapshot = snap
	g.mu.Unlock()

	issues := []schemas.Issue{}
	if len(snap.ModifiedFiles) > 0 {
		issues = append(issues, schemas.Issue{
			ID:          schemas.NewIssueID(),
			Kind:        "vcs",
			Severity:    severityFor(schemas.LevelLow),
			Title:       "Uncommitted changes",
			Description: fmt.Sprintf("%d tracked files carry uncommitted modifications.", len(snap.ModifiedFiles)),
			Location:    schemas.Location{File: snap.ModifiedFiles[0]},
			RuleID:      "vcs/uncommitted",
			Category:    "Version Control",
			Source:      g.Name(),
			Suggestion:  "Commit or stash local modifications before analyzing a release candidate.",
		})
	}
	if len(snap.UntrackedFiles) > 0 {
		issues = append(issues, schemas.Issue{
			ID:          schemas.NewIssueID(),
			Kind:        "vcs",
			Severity:    severityFor(schemas.LevelInfo),
			Title:       "Untracked files",
			Description: fmt.Sprintf("%d files are not under version control.", len(snap.UntrackedFiles)),
			Location:    schemas.Location{File: snap.UntrackedFiles[0]},
			RuleID:      "vcs/untracked",
			Category:    "Version Control",
			Source:      g.Name(),
			Suggestion:  "Track the files or add them to .gitignore.",
		})
	}

	if !head.Name().IsBranch() {
		issues = append(issues, schemas.Issue{
			ID:          schemas.NewIssueID(),
			Kind:        "vcs",
			Severity:    severityFor(schemas.LevelLow),
			Title:       "Detached HEAD",
			Description: "The worktree is not on a branch; new commits would be orphaned.",
			Location:    schemas.Location{File: ".git/HEAD"},
			RuleID:      "vcs/detached-head",
			Category:    "Version Control",
			Source:      g.Name(),
			Suggestion:  "Check out a branch before committing further work.",
		})
	}

	return issues, nil
}

// Snapshot satisfies orchestrator.SnapshotProvider.
func (g *GitStatusScanner) Snapshot() *schemas.VCSSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot
}
