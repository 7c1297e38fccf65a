// -- cmd/components.go --
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/internal/autofix"
	"github.com/xkilldash9x/triage-cli/internal/batch"
	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/execx"
	"github.com/xkilldash9x/triage-cli/internal/orchestrator"
	"github.com/xkilldash9x/triage-cli/internal/scanners"
)

// resolveProjectRoot turns the optional positional argument into an
// absolute, existing directory.
func resolveProjectRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("cannot resolve project root %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("project root %q is not accessible: %w", abs, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("project root %q is not a directory", abs)
	}
	return abs, nil
}

// initializeComponents wires the full analysis stack: command runner,
// optional rate limiter, the scanner registry, the fixer, and the
// orchestrator on top.
func initializeComponents(cfg *config.Config, projectRoot string, logger *zap.Logger) (*orchestrator.Orchestrator, error) {
	runner := execx.NewLocalRunner(logger)

	var limiter *batch.RateLimiter
	if cfg.Engine.RequestsPerSecond > 0 || cfg.Engine.RequestsPerMinute > 0 {
		var err error
		limiter, err = batch.NewRateLimiter(batch.RateLimitOptions{
			RequestsPerSecond: cfg.Engine.RequestsPerSecond,
			RequestsPerMinute: cfg.Engine.RequestsPerMinute,
			Burst:             cfg.Engine.Burst,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to build rate limiter: %w", err)
		}
	}

	registry := orchestrator.NewRegistry()
	registry.Register(scanners.NewSecurity(logger))
	registry.Register(scanners.NewPerformance(logger))
	registry.Register(scanners.NewAccessibility(logger))
	registry.Register(scanners.NewSyntax(logger))
	registry.Register(scanners.NewGitStatus(logger))
	registry.Register(scanners.NewTypecheck(cfg.Scanners.Typecheck, runner, limiter, logger))
	registry.Register(scanners.NewDeployment(cfg.Scanners.Deployment, runner, logger))

	fixer := autofix.New(projectRoot, cfg.Autofix.DryRun, logger)

	return orchestrator.New(cfg, logger, registry, fixer, projectRoot)
}
