// File: internal/orchestrator/orchestrator.go
// Description: Manages the lifecycle of one analysis run: scanner fan-out,
// cache handling, result merging, and health scoring. It is injected with
// fully configured dependencies, making it decoupled and testable.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/cache"
	"github.com/xkilldash9x/triage-cli/internal/config"
)

// CacheAware is implemented by scanners that want the session cache. The
// orchestrator injects the store after its lazy open so the Scanner contract
// itself stays cache-free.
type CacheAware interface {
	SetCache(store *cache.Store)
}

// SnapshotProvider is implemented by scanners that capture a version control
// snapshot alongside their issues.
type SnapshotProvider interface {
	Snapshot() *schemas.VCSSnapshot
}

// ChecklistProvider is implemented by scanners that produce a deployment
// readiness checklist alongside their issues.
type ChecklistProvider interface {
	Checklist() []schemas.DeploymentCheck
}

// Fixer applies automated remediation for a set of issues.
type Fixer interface {
	Fix(ctx context.Context, issues []schemas.Issue) *schemas.FixReport
}

// Orchestrator runs the registered scanners concurrently over one project
// and owns the lifetime of the resulting AnalysisResult. One orchestrator is
// bound to one cache session.
type Orchestrator struct {
	cfg         *config.Config
	logger      *zap.Logger
	registry    *Registry
	fixer       Fixer
	projectRoot string

	mu    sync.Mutex
	store *cache.Store
	last  *schemas.AnalysisResult
}

// New creates an Orchestrator with its dependencies provided explicitly.
func New(cfg *config.Config, logger *zap.Logger, registry *Registry, fixer Fixer, projectRoot string) (*Orchestrator, error) {
	if cfg == nil || logger == nil || registry == nil {
		return nil, fmt.Errorf("cannot initialize orchestrator with nil dependencies")
	}
	return &Orchestrator{
		cfg:         cfg,
		logger:      logger.With(zap.String("component", "orchestrator")),
		registry:    registry,
		fixer:       fixer,
		projectRoot: projectRoot,
	}, nil
}

// scanOutcome is the per-scanner result collected at the fan-in point.
type scanOutcome struct {
	scanner schemas.Scanner
	issues  []schemas.Issue
	err     error
}

// Analyze executes the full orchestration: filter the registry, run every
// applicable scanner concurrently, merge their issues, persist the cache,
// and score health. A scanner failure is contained as a recorded
// ScanError with an empty contribution; only configuration-level problems
// abort the run.
func (o *Orchestrator) Analyze(ctx context.Context) (*schemas.AnalysisResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID))

	// Configuration problems are fatal before any scanner starts.
	if err := o.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("analysis aborted by invalid configuration: %w", err)
	}

	scanCfg := schemas.ScanConfig{
		ProjectRoot:     o.projectRoot,
		Include:         o.cfg.Scanners.Include,
		Exclude:         o.cfg.Scanners.Exclude,
		Concurrency:     o.cfg.Engine.Concurrency,
		EnabledScanners: o.cfg.Scanners.Enabled,
	}

	// Lazy cache open, bound to this orchestrator's session.
	if o.cfg.Cache.Enabled {
		o.mu.Lock()
		if o.store == nil {
			o.store = cache.Open(o.projectRoot, o.cfg.Cache, o.logger)
		}
		store := o.store
		o.mu.Unlock()

		for _, s := range o.registry.Scanners() {
			if aware, ok := s.(CacheAware); ok {
				aware.SetCache(store)
			}
		}
	}

	// Filter the registry down to applicable scanners.
	var applicable []schemas.Scanner
	for _, s := range o.registry.Scanners() {
		if !scanCfg.WantsScanner(s.Name()) {
			continue
		}
		if !s.CanRun(scanCfg) {
			logger.Debug("Scanner not applicable, skipping", zap.String("scanner", s.Name()))
			continue
		}
		applicable = append(applicable, s)
	}
	logger.Info("Starting analysis run",
		zap.Int("scanners", len(applicable)),
		zap.String("project_root", o.projectRoot),
	)

	// Fan out: every scanner runs regardless of the others' failures.
	outcomes := make([]scanOutcome, len(applicable))
	var wg sync.WaitGroup
	for i, s := range applicable {
		wg.Add(1)
		go func(i int, s schemas.Scanner) {
			defer wg.Done()
			outcomes[i] = o.runScanner(ctx, s, scanCfg, logger)
		}(i, s)
	}
	wg.Wait()

	// Merge. No cross-scanner deduplication: overlapping findings are
	// emitted as-is.
	result := &schemas.AnalysisResult{
		RunID:       runID,
		ProjectRoot: o.projectRoot,
		StartedAt:   start,
		Issues:      []schemas.Issue{},
	}
	for _, out := range outcomes {
		result.Scanners = append(result.Scanners, out.scanner.Name())
		if out.err != nil {
			scanErr := &schemas.ScanError{Scanner: out.scanner.Name(), Err: out.err}
			logger.Warn("Scanner failed, contributing no issues", zap.Error(scanErr))
			result.Failures = append(result.Failures, schemas.ScannerFailure{
				Scanner: out.scanner.Name(),
				Reason:  out.err.Error(),
			})
			continue
		}
		result.Issues = append(result.Issues, out.issues...)

		if sp, ok := out.scanner.(SnapshotProvider); ok {
			if snap := sp.Snapshot(); snap != nil {
				result.VCS = snap
			}
		}
		if cp, ok := out.scanner.(ChecklistProvider); ok {
			if checks := cp.Checklist(); len(checks) > 0 {
				result.Deployment = checks
			}
		}
	}

	// Persist the cache once, after every scanner has finished. A save
	// failure costs a rescan next run, nothing more.
	o.mu.Lock()
	if o.store != nil {
		if err := o.store.Save(); err != nil {
			logger.Warn("Failed to persist cache", zap.Error(err))
		}
	}
	o.mu.Unlock()

	result.Health = ComputeHealth(result.Issues)
	result.Duration = time.Since(start).Seconds()

	o.mu.Lock()
	o.last = result
	o.mu.Unlock()

	logger.Info("Analysis run finished",
		zap.Int("issues", len(result.Issues)),
		zap.Int("score", result.Health.Score),
		zap.Int("failed_scanners", len(result.Failures)),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

// runScanner executes one scanner, containing both returned errors and
// panics so a misbehaving scanner can never block or corrupt the others.
func (o *Orchestrator) runScanner(ctx context.Context, s schemas.Scanner, cfg schemas.ScanConfig, logger *zap.Logger) (out scanOutcome) {
	out.scanner = s
	defer func() {
		if r := recover(); r != nil {
			out.issues = nil
			out.err = fmt.Errorf("panic: %v", r)
		}
	}()

	scanStart := time.Now()
	issues, err := s.Run(ctx, cfg)
	if err != nil {
		out.err = err
		return out
	}

	logger.Debug("Scanner finished",
		zap.String("scanner", s.Name()),
		zap.Int("issues", len(issues)),
		zap.Duration("duration", time.Since(scanStart)),
	)
	out.issues = issues
	return out
}

// LastResult returns the most recent analysis, or nil before the first run.
func (o *Orchestrator) LastResult() *schemas.AnalysisResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// AutoFix runs the remediation pass over the last analysis. When allowIDs is
// non-empty only those issues are considered; in every case only issues
// flagged auto-fixable are attempted. Each attempt is independent: a failure
// lands in the report's Failed list and never stops the remaining attempts.
func (o *Orchestrator) AutoFix(ctx context.Context, allowIDs []string) (*schemas.FixReport, error) {
	o.mu.Lock()
	last := o.last
	o.mu.Unlock()

	if last == nil {
		return nil, fmt.Errorf("no analysis result available; run an analysis first")
	}
	if o.fixer == nil {
		return nil, fmt.Errorf("no fixer configured")
	}

	allowed := make(map[string]struct{}, len(allowIDs))
	for _, id := range allowIDs {
		allowed[id] = struct{}{}
	}

	var candidates []schemas.Issue
	for _, issue := range last.Issues {
		if !issue.AutoFixable {
			continue
		}
		if len(allowed) > 0 {
			if _, ok := allowed[issue.ID]; !ok {
				continue
			}
		}
		candidates = append(candidates, issue)
	}

	o.logger.Info("Starting auto-remediation pass",
		zap.Int("candidates", len(candidates)),
		zap.Int("allow_list", len(allowIDs)),
	)
	return o.fixer.Fix(ctx, candidates), nil
}

// InvalidateCache drops the given entries from the session cache, opening it
// first if necessary.
func (o *Orchestrator) InvalidateCache(paths []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.store == nil {
		o.store = cache.Open(o.projectRoot, o.cfg.Cache, o.logger)
	}
	o.store.Invalidate(paths)
}
