package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"reelsync/internal/runlog"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

func newHistoryCommand(cmdCtx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}

			store, err := runlog.Open(cfg.RunLogPath())
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, "No recorded runs.")
				return nil
			}

			headline := fmt.Sprintf("Last %d sync runs", len(runs))
			if shouldColorize(out) {
				headline = ansiBlue + headline + ansiReset
			}
			fmt.Fprintln(out, headline)

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				status := "ok"
				if run.Interrupted {
					status = "interrupted"
				}
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					run.Service,
					strconv.Itoa(run.Stats.Resolved),
					strconv.Itoa(run.Stats.Unresolved),
					strconv.Itoa(run.Stats.SkippedExisting),
					strconv.Itoa(run.Stats.Created),
					strconv.Itoa(run.Stats.Updated),
					strconv.Itoa(run.Stats.Rejected),
					status,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Started", "Service", "Resolved", "Unresolved", "Skipped", "Created", "Updated", "Rejected", "Status"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
