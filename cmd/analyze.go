// -- cmd/analyze.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/observability"
	"github.com/xkilldash9x/triage-cli/internal/reporting"
)

// newAnalyzeCmd creates and configures the `analyze` command.
func newAnalyzeCmd() *cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [project-root]",
		Short: "Runs every applicable scanner and reports project health",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			// Bind flags to their corresponding Viper keys. This is the idiomatic way
			// to ensure that command-line flags correctly override values from
			// the config file and environment variables.
			if err := viper.BindPFlag("output.format", cmd.Flags().Lookup("format")); err != nil {
				return err
			}
			if err := viper.BindPFlag("output.path", cmd.Flags().Lookup("output")); err != nil {
				return err
			}
			if err := viper.BindPFlag("engine.concurrency", cmd.Flags().Lookup("concurrency")); err != nil {
				return err
			}
			if err := viper.BindPFlag("scanners.enabled", cmd.Flags().Lookup("scanners")); err != nil {
				return err
			}
			if err := viper.BindPFlag("scanners.include", cmd.Flags().Lookup("include")); err != nil {
				return err
			}
			return viper.BindPFlag("scanners.exclude", cmd.Flags().Lookup("exclude"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			// Re-load the config so the flag bindings from PreRunE apply
			// with the right precedence.
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
				cfg.Cache.Enabled = false
			}

			projectRoot, err := resolveProjectRoot(args)
			if err != nil {
				return err
			}

			logger.Info("Starting analysis",
				zap.String("project_root", projectRoot),
				zap.String("format", cfg.Output.Format),
				zap.Int("concurrency", cfg.Engine.Concurrency),
			)

			orch, err := initializeComponents(cfg, projectRoot, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize analysis components: %w", err)
			}

			result, err := orch.Analyze(ctx)
			if err != nil {
				return err
			}

			renderer, err := reporting.New(cfg.Output.Format, Version)
			if err != nil {
				return err
			}
			report, err := renderer.Render(result)
			if err != nil {
				return fmt.Errorf("failed to render %s report: %w", cfg.Output.Format, err)
			}

			if err := writeReport(report, cfg.Output.Path, logger); err != nil {
				return err
			}

			logger.Info("Analysis complete",
				zap.Int("score", result.Health.Score),
				zap.Int("issues", len(result.Issues)),
				zap.Int("scanner_failures", len(result.Failures)),
			)
			return nil
		},
	}

	analyzeCmd.Flags().StringP("format", "f", "terminal", "report format (terminal, json, markdown, sarif, csv, junit)")
	analyzeCmd.Flags().StringP("output", "o", "", "write the report to this file instead of stdout")
	analyzeCmd.Flags().Int("concurrency", 4, "maximum scanners running at once")
	analyzeCmd.Flags().StringSlice("scanners", nil, "run only these scanners")
	analyzeCmd.Flags().StringSlice("include", nil, "only scan paths matching these patterns")
	analyzeCmd.Flags().StringSlice("exclude", nil, "skip paths matching these patterns")
	analyzeCmd.Flags().Bool("no-cache", false, "bypass the result cache for this run")

	return analyzeCmd
}

// writeReport sends the rendered document to stdout or the configured file.
func writeReport(report, path string, logger *zap.Logger) error {
	if path == "" || path == "stdout" {
		fmt.Fprint(os.Stdout, report)
		return nil
	}
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return fmt.Errorf("failed to write report to %s: %w", path, err)
	}
	logger.Info("Report written", zap.String("path", path))
	return nil
}
