package scanners

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/api/schemas"
	"github.com/xkilldash9x/triage-cli/internal/batch"
	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/execx"
)

// tscDiagnosticRe matches one line of `tsc --pretty false` output:
//
//	src/app.ts(12,5): error TS2322: Type 'string' is not assignable ...
var tscDiagnosticRe = regexp.MustCompile(`^(.+)\((\d+),(\d+)\):\s+(error|warning)\s+(TS\d+):\s+(.+)$`)

// TypecheckScanner shells out to the configured compiler invocation and
// turns its diagnostics into issues. The compiler itself is an opaque
// collaborator; this scanner only understands its line format.
type TypecheckScanner struct {
	cmd     config.CommandConfig
	runner  execx.Runner
	limiter *batch.RateLimiter
	logger  *zap.Logger
}

// NewTypecheck returns the type-diagnostics scanner. The limiter, when
// non-nil, throttles external invocations shared with the other shelling
// scanners.
func NewTypecheck(cmd config.CommandConfig, runner execx.Runner, limiter *batch.RateLimiter, logger *zap.Logger) *TypecheckScanner {
	return &TypecheckScanner{
		cmd:     cmd,
		runner:  runner,
		limiter: limiter,
		logger:  logger.Named("typecheck"),
	}
}

func (t *TypecheckScanner) Name() string { return "typecheck" }

// CanRun requires a TypeScript project configuration to be present.
func (t *TypecheckScanner) CanRun(cfg schemas.ScanConfig) bool {
	_, err := os.Stat(filepath.Join(cfg.ProjectRoot, "tsconfig.json"))
	return err == nil
}

// Run invokes the compiler once for the whole project. Exit codes are
// ignored because the compiler signals found diagnostics through them; a
// failure to launch or a timeout still fails the scanner.
func (t *TypecheckScanner) Run(ctx context.Context, cfg schemas.ScanConfig) ([]schemas.Issue, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	result, err := t.runner.Exec(ctx, execx.Command{
		Line:           t.cmd.Command,
		Dir:            cfg.ProjectRoot,
		Timeout:        t.cmd.Timeout,
		IgnoreExitCode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("compiler invocation failed: %w", err)
	}

	issues := t.parseDiagnostics(result.Stdout)
	t.logger.Debug("Compiler diagnostics parsed",
		zap.Int("issues", len(issues)),
		zap.Int("exit_code", result.ExitCode),
	)
	return issues, nil
}

// parseDiagnostics converts compiler output lines into issues, skipping
// anything that does not match the diagnostic shape.
func (t *TypecheckScanner) parseDiagnostics(output string) []schemas.Issue {
	issues := []schemas.Issue{}
	for _, line := range strings.Split(output, "\n") {
		m := tscDiagnosticRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		lineNo, _ := strconv.Atoi(m[2])
		colNo, _ := strconv.Atoi(m[3])

		level := schemas.LevelHigh
		if m[4] == "warning" {
			level = schemas.LevelMedium
		}

		issues = append(issues, schemas.Issue{
			ID:          schemas.NewIssueID(),
			Kind:        "types",
			Severity:    severityFor(level),
			Title:       fmt.Sprintf("Type error %s", m[5]),
			Description: m[6],
			Location: schemas.Location{
				File:   filepath.ToSlash(m[1]),
				Line:   lineNo,
				Column: colNo,
			},
			RuleID:   "types/" + strings.ToLower(m[5]),
			Category: "Type Safety",
			Source:   t.Name(),
		})
	}
	return issues
}
