package scanners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/batch"
	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/execx"
)

var auditJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// artifactCheck is one deployment readiness probe.
type artifactCheck struct {
	name  string
	paths []string // Any one present passes the check.
	level schemas.SeverityLevel
	hint  string
}

var deploymentChecks = []artifactCheck{
	{
		name:  "container image definition",
		paths: []string{"Dockerfile", "Containerfile"},
		level: schemas.LevelMedium,
		hint:  "Add a Dockerfile so the project builds into a deployable image.",
	},
	{
		name:  "continuous integration workflow",
		paths: []string{".github/workflows", ".gitlab-ci.yml", ".circleci/config.yml"},
		level: schemas.LevelMedium,
		hint:  "Add a CI workflow so every change is built and tested.",
	},
	{
		name:  "dependency lockfile",
		paths: []string{"package-lock.json", "yarn.lock", "pnpm-lock.yaml"},
		level: schemas.LevelHigh,
		hint:  "Commit a lockfile so deployments install reproducible dependency trees.",
	},
	{
		name:  "ignore rules",
		paths: []string{".gitignore"},
		level: schemas.LevelLow,
		hint:  "Add a .gitignore to keep build output out of the repository.",
	},
	{
		name:  "project documentation",
		paths: []string{"README.md", "README"},
		level: schemas.LevelLow,
		hint:  "Add a README describing how to build and deploy the project.",
	},
}

// auditReport is the subset of `npm audit --json` output the scanner reads.
type auditReport struct {
	Metadata struct {
		Vulnerabilities map[string]int `json:"vulnerabilities"`
	} `json:"metadata"`
}

// DeploymentScanner probes the artifacts a deployable project needs and,
// when a package manifest is present, runs the configured audit command. It
// produces the deployment checklist the orchestrator attaches to the result.
type DeploymentScanner struct {
	cmd    config.CommandConfig
	runner execx.Runner
	logger *zap.Logger

	mu        sync.Mutex
	checklist []schemas.DeploymentCheck
}

// NewDeployment returns the deployment readiness scanner.
func NewDeployment(cmd config.CommandConfig, runner execx.Runner, logger *zap.Logger) *DeploymentScanner {
	return &DeploymentScanner{
		cmd:    cmd,
		runner: runner,
		logger: logger.Named("deployment"),
	}
}

func (d *DeploymentScanner) Name() string { return "deployment" }

// CanRun holds for any existing project directory.
func (d *DeploymentScanner) CanRun(cfg schemas.ScanConfig) bool {
	info, err := os.Stat(cfg.ProjectRoot)
	return err == nil && info.IsDir()
}

// Run probes the checklist through a bounded queue and then audits
// dependencies. Probe order in the checklist is fixed regardless of
// completion order.
func (d *DeploymentScanner) Run(ctx context.Context, cfg schemas.ScanConfig) ([]schemas.Issue, error) {
	type probeResult struct {
		index  int
		check  schemas.DeploymentCheck
		failed *artifactCheck // Non-nil when the probe failed and warrants an issue.
	}

	var mu sync.Mutex
	results := make([]probeResult, 0, len(deploymentChecks))

	queue := batch.NewQueue(func(ctx context.Context, idx int) error {
		check := deploymentChecks[idx]
		found := ""
		for _, p := range check.paths {
			if _, err := os.Stat(filepath.Join(cfg.ProjectRoot, p)); err == nil {
				found = p
				break
			}
		}

		r := probeResult{index: idx}
		r.check = schemas.DeploymentCheck{Name: check.name, Passed: found != ""}
		if found != "" {
			r.check.Detail = found
		} else {
			r.check.Detail = check.hint
			r.failed = &deploymentChecks[idx]
		}

		mu.Lock()
		results = append(results, r)
		mu.Unlock()
		return nil
	}, batch.QueueOptions{Concurrency: 2})

	for i := range deploymentChecks {
		queue.Add(ctx, i)
	}
	queue.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].index < results[j].index })

	checklist := make([]schemas.DeploymentCheck, 0, len(results))
	issues := []schemas.Issue{}
	for _, r := range results {
		checklist = append(checklist, r.check)
		if r.failed == nil {
			continue
		}
		issues = append(issues, schemas.Issue{
			ID:          schemas.NewIssueID(),
			Kind:        "deployment",
			Severity:    severityFor(r.failed.level),
			Title:       fmt.Sprintf("Missing %s", r.failed.name),
			Description: fmt.Sprintf("None of the expected artifacts (%v) are present.", r.failed.paths),
			Location:    schemas.Location{File: r.failed.paths[0]},
			RuleID:      "deployment/missing-artifact",
			Category:    "Deployment",
			Source:      d.Name(),
			Suggestion:  r.failed.hint,
		})
	}

	d.mu.Lock()
	d.checklist = checklist
	d.mu.Unlock()

	issues = append(issues, d.auditDependencies(ctx, cfg)...)
	return issues, nil
}

// auditDependencies runs the configured audit command when a package
// manifest exists. Audit failures degrade to a log line; readiness checks
// above still stand on their own.
func (d *DeploymentScanner) auditDependencies(ctx context.Context, cfg schemas.ScanConfig) []schemas.Issue {
	if _, err := os.Stat(filepath.Join(cfg.ProjectRoot, "package.json")); err != nil {
		return nil
	}

	result, err := d.runner.Exec(ctx, execx.Command{
		Line:           d.cmd.Command,
		Dir:            cfg.ProjectRoot,
		Timeout:        d.cmd.Timeout,
		IgnoreExitCode: true, // The audit exits non-zero when it finds anything.
	})
	if err != nil {
		d.logger.Warn("Dependency audit failed, skipping", zap.Error(err))
		return nil
	}

	var report auditReport
	if err := auditJSON.UnmarshalFromString(result.Stdout, &report); err != nil {
		d.logger.Warn("Dependency audit output was not parseable", zap.Error(err))
		return nil
	}

	issues := []schemas.Issue{}
	for _, sevName := range []string{"critical", "high", "moderate", "low"} {
		count := report.Metadata.Vulnerabilities[sevName]
		if count == 0 {
			continue
		}
		level := schemas.SeverityLevel(sevName)
		if sevName == "moderate" {
			level = schemas.LevelMedium
		}
		issues = append(issues, schemas.Issue{
			ID:          schemas.NewIssueID(),
			Kind:        "deployment",
			Severity:    severityFor(level),
			Title:       fmt.Sprintf("Vulnerable dependencies (%s)", sevName),
			Description: fmt.Sprintf("The dependency audit reports %d %s-severity advisories.", count, sevName),
			Location:    schemas.Location{File: "package.json"},
			RuleID:      "deployment/vulnerable-dependencies",
			Category:    "Deployment",
			Source:      d.Name(),
			Suggestion:  "Upgrade the affected packages or apply the audit's suggested resolutions.",
		})
	}
	return issues
}

// Checklist satisfies orchestrator.ChecklistProvider.
func (d *DeploymentScanner) Checklist() []schemas.DeploymentCheck {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.checklist
}
