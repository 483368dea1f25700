package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		historyDB string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent build runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("history-db") && cfg.HistoryDB != "" {
				historyDB = cfg.HistoryDB
			}
			return showHistory(historyDB, limit)
		},
	}

	cmd.Flags().StringVar(&historyDB, "history-db", history.DefaultPath(), "path to the run-history database")
	cmd.Flags().IntVar(&limit, "limit", 20, "number of runs to list")

	return cmd
}

func showHistory(path string, limit int) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.Recent(context.Background(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return nil
	}

	for _, r := range runs {
		status := r.Status
		switch status {
		case history.StatusCompleted:
			status = okStyle.Render(status)
		case history.StatusFailed:
			status = failStyle.Render(status)
		}
		fmt.Printf("#%d  %s  %s  %d rows validated, %d skipped, %d folders\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), status,
			r.RowsValidated, r.RowsSkipped, r.DirsCreated)
		if r.Error != "" {
			fmt.Printf("    %s\n", failStyle.Render(r.Error))
		}
	}
	return nil
}
