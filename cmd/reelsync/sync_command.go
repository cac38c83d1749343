package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"reelsync/internal/config"
	"reelsync/internal/export"
	"reelsync/internal/identity"
	"reelsync/internal/logging"
	"reelsync/internal/runlog"
	"reelsync/internal/services/letterboxd"
	"reelsync/internal/services/tmdb"
	"reelsync/internal/services/trakt"
	syncengine "reelsync/internal/sync"
)

func newSyncCommand(cmdCtx *commandContext) *cobra.Command {
	var serviceFlag string
	var exportFlag string
	var download bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Reconcile exported ratings against the remote services",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cmdCtx.ensureLogger()
			if err != nil {
				return err
			}
			logger = logger.With(logging.String(logging.FieldRunID, uuid.NewString()))

			lock := flock.New(cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire sync lock: %w", err)
			}
			if !locked {
				return errors.New("another sync is already running")
			}
			defer lock.Unlock() //nolint:errcheck

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			records, err := loadRecords(ctx, cfg, logger, exportFlag, download)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No usable ratings found in the export.")
				return nil
			}

			cache := identity.NewCache(cfg.IdentityCachePath(), logger)
			source, err := letterboxd.New(cfg.Letterboxd.BaseURL, logger)
			if err != nil {
				return err
			}
			resolver := identity.NewResolver(cache, source, logger)

			services, err := buildServices(ctx, cfg, logger, serviceFlag)
			if err != nil {
				return err
			}

			runner := syncengine.NewRunner(cache, resolver, services, syncengine.Options{
				BatchSize:          cfg.Sync.BatchSize,
				ResolveWorkers:     cfg.Sync.ResolveWorkers,
				CheckpointInterval: cfg.Sync.CheckpointInterval,
				RequestDelay:       time.Duration(cfg.Sync.RequestDelayMS) * time.Millisecond,
			}, logger)

			startedAt := time.Now().UTC()
			allStats, runErr := runner.Run(ctx, records)
			interrupted := runErr != nil && errors.Is(runErr, context.Canceled)

			recordRuns(cfg, logger, allStats, startedAt, interrupted)
			printSummary(cmd, allStats)

			if interrupted {
				fmt.Fprintln(cmd.OutOrStdout(), "Sync interrupted; cache persisted and pending batches drained.")
				return nil
			}
			return runErr
		},
	}

	cmd.Flags().StringVarP(&serviceFlag, "service", "s", "all", "Target service: trakt, tmdb, or all")
	cmd.Flags().StringVarP(&exportFlag, "export", "e", "", "Path to the ratings export (csv or zip)")
	cmd.Flags().BoolVar(&download, "download", false, "Download a fresh export before syncing")
	return cmd
}

func loadRecords(ctx context.Context, cfg *config.Config, logger *slog.Logger, exportFlag string, download bool) ([]export.Record, error) {
	path := exportFlag
	if path == "" {
		path = cfg.Paths.ExportPath
	}

	if download {
		client, err := letterboxd.New(cfg.Letterboxd.BaseURL, logger)
		if err != nil {
			return nil, err
		}
		downloaded, err := client.DownloadExport(ctx, cfg.Letterboxd.Username, cfg.Letterboxd.Password, cfg.Paths.DataDir)
		if err != nil {
			return nil, fmt.Errorf("download export: %w", err)
		}
		path = downloaded
	}

	if path == "" {
		// Fall back to a previously downloaded export.
		candidate := filepath.Join(cfg.Paths.DataDir, letterboxd.ExportFileName)
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path == "" {
		return nil, errors.New("no export file: set paths.export_path, pass --export, or use --download")
	}

	rows, err := export.ReadRows(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	records := make([]export.Record, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		record, ok := export.ParseRow(row)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	if skipped > 0 {
		logger.Warn("skipped unusable export rows", logging.Int("skipped", skipped))
	}
	return records, nil
}

func buildServices(ctx context.Context, cfg *config.Config, logger *slog.Logger, serviceFlag string) ([]syncengine.Service, error) {
	wantTrakt := serviceFlag == "all" || serviceFlag == "trakt"
	wantTMDB := serviceFlag == "all" || serviceFlag == "tmdb"
	if !wantTrakt && !wantTMDB {
		return nil, fmt.Errorf("unknown service %q (expected trakt, tmdb, or all)", serviceFlag)
	}

	delay := time.Duration(cfg.Sync.RequestDelayMS) * time.Millisecond
	var services []syncengine.Service

	if wantTrakt {
		client, err := trakt.New(cfg.Trakt.ClientID, cfg.Trakt.ClientSecret, cfg.Trakt.BaseURL, logger)
		if err != nil {
			return nil, err
		}
		token := trakt.LoadToken(cfg.TraktTokenPath())
		if token == nil {
			return nil, errors.New("no trakt token found; run `reelsync auth trakt` first")
		}
		client.SetToken(token.AccessToken)
		services = append(services, syncengine.NewTraktService(client, delay, logger))
	}

	if wantTMDB {
		client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language, logger)
		if err != nil {
			return nil, err
		}
		session := tmdb.LoadSession(cfg.TMDBSessionPath())
		if session == "" {
			return nil, errors.New("no tmdb session found; run `reelsync auth tmdb` first")
		}
		client.SetSession(session)
		accountID, err := client.Account(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch tmdb account: %w", err)
		}
		services = append(services, syncengine.NewTMDBService(client, accountID, delay, logger))
	}

	return services, nil
}

func recordRuns(cfg *config.Config, logger *slog.Logger, allStats map[string]*syncengine.Stats, startedAt time.Time, interrupted bool) {
	store, err := runlog.Open(cfg.RunLogPath())
	if err != nil {
		logger.Warn("run history unavailable", logging.Error(err))
		return
	}
	defer store.Close()

	for service, stats := range allStats {
		if stats == nil {
			continue
		}
		_, err := store.Record(context.Background(), runlog.Run{
			Service:     service,
			StartedAt:   startedAt,
			FinishedAt:  time.Now().UTC(),
			Stats:       *stats,
			Interrupted: interrupted,
		})
		if err != nil {
			logger.Warn("failed to record run", logging.Error(err))
		}
	}
}

func printSummary(cmd *cobra.Command, allStats map[string]*syncengine.Stats) {
	headers := []string{"Service", "Resolved", "Unresolved", "Skipped", "Created", "Updated", "Rejected"}
	rows := make([][]string, 0, len(allStats))
	for service, stats := range allStats {
		if stats == nil {
			continue
		}
		rows = append(rows, []string{
			service,
			strconv.Itoa(stats.Resolved),
			strconv.Itoa(stats.Unresolved),
			strconv.Itoa(stats.SkippedExisting),
			strconv.Itoa(stats.Created),
			strconv.Itoa(stats.Updated),
			strconv.Itoa(stats.Rejected),
		})
	}

	aligns := []columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
}
