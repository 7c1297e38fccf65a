// internal/orchestrator/orchestrator_test.go
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/config"
)

// -- Mock Implementations for Testing --

// mockScanner is a configurable Scanner for orchestration tests.
type mockScanner struct {
	mu     sync.Mutex
	name   string
	canRun bool
	issues []schemas.Issue
	err    error
	panics bool
	ran    bool
	snap   *schemas.VCSSnapshot
	checks []schemas.DeploymentCheck
}

func (m *mockScanner) Name() string { return m.name }

func (m *mockScanner) CanRun(cfg schemas.ScanConfig) bool { return m.canRun }

func (m *mockScanner) Run(ctx context.Context, cfg schemas.ScanConfig) ([]schemas.Issue, error) {
	m.mu.Lock()
	m.ran = true
	m.mu.Unlock()
	if m.panics {
		panic("scanner exploded")
	}
	return m.issues, m.err
}

func (m *mockScanner) Snapshot() *schemas.VCSSnapshot { return m.snap }

func (m *mockScanner) Checklist() []schemas.DeploymentCheck { return m.checks }

func (m *mockScanner) didRun() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ran
}

// mockFixer records the issues it was asked to fix.
type mockFixer struct {
	mu     sync.Mutex
	fixed  []schemas.Issue
	report *schemas.FixReport
}

func (m *mockFixer) Fix(ctx context.Context, issues []schemas.Issue) *schemas.FixReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fixed = issues
	if m.report != nil {
		return m.report
	}
	return &schemas.FixReport{Fixed: issues}
}

func testConfig() *config.Config {
	return &config.Config{
		Engine: config.EngineConfig{Concurrency: 4, BatchSize: 10},
		Cache:  config.CacheConfig{Enabled: false},
	}
}

func mockIssue(rule string, level schemas.SeverityLevel, autoFixable bool) schemas.Issue {
	return schemas.Issue{
		ID:          schemas.NewIssueID(),
		RuleID:      rule,
		Severity:    schemas.Severity{Level: level},
		Category:    "security",
		AutoFixable: autoFixable,
	}
}

func newTestOrchestrator(t *testing.T, fixer Fixer, scanners ...schemas.Scanner) *Orchestrator {
	t.Helper()
	registry := NewRegistry()
	for _, s := range scanners {
		registry.Register(s)
	}
	orch, err := New(testConfig(), zap.NewNop(), registry, fixer, t.TempDir())
	require.NoError(t, err)
	return orch
}

func TestNewRejectsNilDependencies(t *testing.T) {
	_, err := New(nil, zap.NewNop(), NewRegistry(), nil, ".")
	assert.Error(t, err)

	_, err = New(testConfig(), nil, NewRegistry(), nil, ".")
	assert.Error(t, err)

	_, err = New(testConfig(), zap.NewNop(), nil, nil, ".")
	assert.Error(t, err)
}

func TestAnalyzeRejectsInvalidConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Engine.Concurrency = 0
	scanner := &mockScanner{name: "security", canRun: true}
	registry := NewRegistry()
	registry.Register(scanner)

	orch, err := New(cfg, zap.NewNop(), registry, nil, t.TempDir())
	require.NoError(t, err)

	_, err = orch.Analyze(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.False(t, scanner.didRun())
}

func TestAnalyzeMergesAllScannerIssues(t *testing.T) {
	a := &mockScanner{name: "security", canRun: true, issues: []schemas.Issue{
		mockIssue("security/eval", schemas.LevelCritical, false),
	}}
	b := &mockScanner{name: "performance", canRun: true, issues: []schemas.Issue{
		mockIssue("performance/console-log", schemas.LevelLow, true),
		mockIssue("performance/sync-fs", schemas.LevelMedium, false),
	}}

	orch := newTestOrchestrator(t, nil, a, b)
	result, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Issues, 3)
	assert.ElementsMatch(t, []string{"security", "performance"}, result.Scanners)
	assert.Empty(t, result.Failures)
	assert.NotEmpty(t, result.RunID)
	// 100 - (20 + 1 + 5)
	assert.Equal(t, 74, result.Health.Score)
}

func TestAnalyzeDoesNotDeduplicateAcrossScanners(t *testing.T) {
	// Two scanners reporting the same rule at the same location both land
	// in the merged list.
	shared := schemas.Issue{
		ID:       schemas.NewIssueID(),
		RuleID:   "security/eval",
		Severity: schemas.Severity{Level: schemas.LevelCritical},
		Location: schemas.Location{File: "a.js", Line: 1},
	}
	a := &mockScanner{name: "security", canRun: true, issues: []schemas.Issue{shared}}
	b := &mockScanner{name: "syntax", canRun: true, issues: []schemas.Issue{shared}}

	orch := newTestOrchestrator(t, nil, a, b)
	result, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Issues, 2)
}

func TestAnalyzeContainsScannerFailure(t *testing.T) {
	failing := &mockScanner{name: "typecheck", canRun: true, err: errors.New("compiler missing")}
	healthy := &mockScanner{name: "security", canRun: true, issues: []schemas.Issue{
		mockIssue("security/eval", schemas.LevelHigh, false),
	}}

	orch := newTestOrchestrator(t, nil, failing, healthy)
	result, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	assert.True(t, healthy.didRun())
	assert.Len(t, result.Issues, 1)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "typecheck", result.Failures[0].Scanner)
	assert.Contains(t, result.Failures[0].Reason, "compiler missing")
}

func TestAnalyzeContainsScannerPanic(t *testing.T) {
	panicking := &mockScanner{name: "syntax", canRun: true, panics: true}
	healthy := &mockScanner{name: "security", canRun: true, issues: []schemas.Issue{
		mockIssue("security/eval", schemas.LevelHigh, false),
	}}

	orch := newTestOrchestrator(t, nil, panicking, healthy)
	result, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Issues, 1)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, "syntax", result.Failures[0].Scanner)
}

func TestAnalyzeSkipsInapplicableScanners(t *testing.T) {
	inapplicable := &mockScanner{name: "typecheck", canRun: false}
	orch := newTestOrchestrator(t, nil, inapplicable)

	result, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	assert.False(t, inapplicable.didRun())
	assert.Empty(t, result.Scanners)
	assert.Equal(t, 100, result.Health.Score)
}

func TestAnalyzeHonorsEnabledScannerFilter(t *testing.T) {
	a := &mockScanner{name: "security", canRun: true}
	b := &mockScanner{name: "performance", canRun: true}

	registry := NewRegistry()
	registry.Register(a)
	registry.Register(b)

	cfg := testConfig()
	cfg.Scanners.Enabled = []string{"security"}
	orch, err := New(cfg, zap.NewNop(), registry, nil, t.TempDir())
	require.NoError(t, err)

	_, err = orch.Analyze(context.Background())
	require.NoError(t, err)

	assert.True(t, a.didRun())
	assert.False(t, b.didRun())
}

func TestAnalyzeAttachesProviderExtras(t *testing.T) {
	snap := &schemas.VCSSnapshot{Branch: "main", Commit: "abc1234", Dirty: true}
	checks := []schemas.DeploymentCheck{{Name: "Dockerfile", Passed: true}}
	s := &mockScanner{name: "gitstatus", canRun: true, snap: snap, checks: checks}

	orch := newTestOrchestrator(t, nil, s)
	result, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.VCS)
	assert.Equal(t, "main", result.VCS.Branch)
	assert.Equal(t, checks, result.Deployment)
}

func TestAutoFixRequiresAnalysisFirst(t *testing.T) {
	orch := newTestOrchestrator(t, &mockFixer{}, &mockScanner{name: "security", canRun: true})
	_, err := orch.AutoFix(context.Background(), nil)
	assert.Error(t, err)
}

func TestAutoFixFiltersToFixableIssues(t *testing.T) {
	fixable := mockIssue("performance/console-log", schemas.LevelLow, true)
	unfixable := mockIssue("security/eval", schemas.LevelCritical, false)
	s := &mockScanner{name: "mixed", canRun: true, issues: []schemas.Issue{fixable, unfixable}}

	fixer := &mockFixer{}
	orch := newTestOrchestrator(t, fixer, s)
	_, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	report, err := orch.AutoFix(context.Background(), nil)
	require.NoError(t, err)

	require.Len(t, fixer.fixed, 1)
	assert.Equal(t, fixable.ID, fixer.fixed[0].ID)
	assert.Len(t, report.Fixed, 1)
}

func TestAutoFixHonorsAllowList(t *testing.T) {
	first := mockIssue("performance/console-log", schemas.LevelLow, true)
	second := mockIssue("security/inner-html", schemas.LevelHigh, true)
	s := &mockScanner{name: "mixed", canRun: true, issues: []schemas.Issue{first, second}}

	fixer := &mockFixer{}
	orch := newTestOrchestrator(t, fixer, s)
	_, err := orch.Analyze(context.Background())
	require.NoError(t, err)

	_, err = orch.AutoFix(context.Background(), []string{second.ID})
	require.NoError(t, err)

	require.Len(t, fixer.fixed, 1)
	assert.Equal(t, second.ID, fixer.fixed[0].ID)
}

func TestLastResultReflectsMostRecentRun(t *testing.T) {
	s := &mockScanner{name: "security", canRun: true}
	orch := newTestOrchestrator(t, nil, s)

	assert.Nil(t, orch.LastResult())

	result, err := orch.Analyze(context.Background())
	require.NoError(t, err)
	assert.Equal(t, result.RunID, orch.LastResult().RunID)
}
