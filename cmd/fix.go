// -- cmd/fix.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/internal/config"
	"github.com/xkilldash9x/triage-cli/internal/observability"
)

// newFixCmd creates and configures the `fix` command. Fixing always starts
// from a fresh analysis so the fixer never edits lines that moved since the
// last run.
func newFixCmd() *cobra.Command {
	fixCmd := &cobra.Command{
		Use:   "fix [project-root]",
		Short: "Analyzes the project and applies automatic fixes",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return viper.BindPFlag("autofix.dry_run", cmd.Flags().Lookup("dry-run"))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			projectRoot, err := resolveProjectRoot(args)
			if err != nil {
				return err
			}
			allowIDs, err := cmd.Flags().GetStringSlice("id")
			if err != nil {
				return err
			}

			orch, err := initializeComponents(cfg, projectRoot, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize analysis components: %w", err)
			}

			result, err := orch.Analyze(ctx)
			if err != nil {
				return err
			}
			logger.Info("Analysis complete, applying fixes",
				zap.Int("issues", len(result.Issues)),
				zap.Bool("dry_run", cfg.Autofix.DryRun),
			)

			report, err := orch.AutoFix(ctx, allowIDs)
			if err != nil {
				return err
			}

			verb := "Fixed"
			if cfg.Autofix.DryRun {
				verb = "Would fix"
			}
			fmt.Fprintf(os.Stdout, "%s %d issue(s), %d failed\n", verb, len(report.Fixed), len(report.Failed))
			for _, fixed := range report.Fixed {
				fmt.Fprintf(os.Stdout, "  ✓ %s %s:%d %s\n", fixed.RuleID, fixed.Location.File, fixed.Location.Line, fixed.Title)
			}
			for _, failed := range report.Failed {
				fmt.Fprintf(os.Stdout, "  ✗ %s %s:%d %s\n", failed.Issue.RuleID, failed.Issue.Location.File, failed.Issue.Location.Line, failed.Reason)
			}

			// Edited files must not serve stale cached results on the next run.
			if !cfg.Autofix.DryRun && len(report.Fixed) > 0 {
				touched := make([]string, 0, len(report.Fixed))
				for _, fixed := range report.Fixed {
					touched = append(touched, fixed.Location.File)
				}
				orch.InvalidateCache(touched)
			}
			return nil
		},
	}

	fixCmd.Flags().StringSlice("id", nil, "only fix issues with these IDs")
	fixCmd.Flags().Bool("dry-run", false, "report what would change without writing files")

	return fixCmd
}
