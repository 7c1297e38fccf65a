// -- cmd/cache.go --
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/triage-cli/internal/cache"
	"github.com/xkilldash9x/triage-cli/internal/observability"
)

// newCacheCmd groups the result-cache maintenance subcommands.
func newCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manages the analysis result cache",
	}
	cacheCmd.PersistentFlags().String("root", ".", "project root whose cache to operate on")

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Removes every cached result for the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, logger, err := openStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Clear(); err != nil {
				return fmt.Errorf("failed to clear cache: %w", err)
			}
			logger.Info("Cache cleared")
			return nil
		},
	})

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "invalidate [paths...]",
		Short: "Drops cached results for the given project-relative paths",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, logger, err := openStore(cmd)
			if err != nil {
				return err
			}
			store.Invalidate(args)
			if err := store.Save(); err != nil {
				return fmt.Errorf("failed to persist cache: %w", err)
			}
			logger.Info("Cache entries invalidated", zap.Strings("paths", args), zap.Int("remaining", store.Len()))
			return nil
		},
	})

	return cacheCmd
}

func openStore(cmd *cobra.Command) (*cache.Store, *zap.Logger, error) {
	logger := observability.GetLogger()
	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return nil, nil, err
	}
	abs, err := resolveProjectRoot([]string{root})
	if err != nil {
		return nil, nil, err
	}
	if !appCfg.Cache.Enabled {
		fmt.Fprintln(os.Stderr, "note: caching is disabled in the configuration")
	}
	return cache.Open(abs, appCfg.Cache, logger), logger, nil
}
