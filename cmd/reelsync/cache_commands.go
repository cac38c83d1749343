package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
	"reelsync/internal/services/letterboxd"
)

func newCacheCommand(cmdCtx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the identity cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(cmdCtx))
	cacheCmd.AddCommand(newCacheClearCommand(cmdCtx))
	cacheCmd.AddCommand(newCachePopulateCommand(cmdCtx))
	return cacheCmd
}

func newCacheShowCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show",
		Short: "List cached reference-to-identity mappings",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			cache := identity.NewCache(cfg.IdentityCachePath(), logging.NewNop())
			entries := cache.Entries()

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Identity cache is empty.")
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for i, entry := range entries {
				if limit > 0 && i >= limit {
					break
				}
				rows = append(rows, []string{entry.Reference, entry.Identity.ProviderID, entry.Identity.Kind.String()})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Reference", "Provider ID", "Kind"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft},
			))
			fmt.Fprintf(out, "%d cached identities\n", cache.Len())
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries (0 = all)")
	return cmd
}

func newCacheClearCommand(cmdCtx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			cache := identity.NewCache(cfg.IdentityCachePath(), logger)
			count := cache.Len()
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached identities.\n", count)
			return nil
		},
	}
}

func newCachePopulateCommand(cmdCtx *commandContext) *cobra.Command {
	var exportFlag string

	cmd := &cobra.Command{
		Use:   "populate",
		Short: "Resolve every export reference into the cache without syncing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}

			records, err := loadRecords(cmd.Context(), cfg, logger, exportFlag, false)
			if err != nil {
				return err
			}

			cache := identity.NewCache(cfg.IdentityCachePath(), logger)
			source, err := letterboxd.New(cfg.Letterboxd.BaseURL, logger)
			if err != nil {
				return err
			}
			resolver := identity.NewResolver(cache, source, logger)

			references := make([]string, 0, len(records))
			for _, record := range records {
				references = append(references, record.Reference)
			}
			misses := resolver.Uncached(references)

			out := cmd.OutOrStdout()
			if len(misses) == 0 {
				fmt.Fprintln(out, "All references already cached.")
				return nil
			}

			resolved, failed := 0, 0
			resolver.ResolveAll(cmd.Context(), misses, cfg.Sync.ResolveWorkers, func(result identity.Result) {
				if result.Err != nil {
					failed++
					return
				}
				cache.Merge(result.Reference, result.Identity)
				resolved++
				if resolved%cfg.Sync.CheckpointInterval == 0 {
					if err := cache.Persist(); err != nil {
						logger.Warn("cache checkpoint failed", logging.Error(err))
					}
				}
			})

			if err := cache.Persist(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Resolved %d references (%d failed).\n", resolved, failed)
			return nil
		},
	}

	cmd.Flags().StringVarP(&exportFlag, "export", "e", "", "Path to the ratings export (csv or zip)")
	return cmd
}
