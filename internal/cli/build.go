package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/internal/builder"
	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/gitsync"
	"github.com/fieldforge/fieldforge/internal/history"
)

const defaultNodesFile = "NodeSummary.yaml"

func newBuildCmd() *cobra.Command {
	var (
		nodesFile      string
		noGit          bool
		historical     bool
		forceRecompute bool
		noHistory      bool
		historyDB      string
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Validate field-log rows and create their folder hierarchies",
		Long: "Build validates every unprocessed field-log row against project\n" +
			"configuration and creates the sensor/day/run folder tree for each.\n" +
			"A checksum conflict means a row was edited after materialization:\n" +
			"the run aborts unless --force-recompute overwrites the checksum.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("nodes") && cfg.NodesFile != "" {
				nodesFile = cfg.NodesFile
			}
			if !cmd.Flags().Changed("no-git") && cfg.NoGit {
				noGit = cfg.NoGit
			}
			if !cmd.Flags().Changed("historical") && cfg.Historical {
				historical = cfg.Historical
			}
			if !cmd.Flags().Changed("history-db") && cfg.HistoryDB != "" {
				historyDB = cfg.HistoryDB
			}
			return runBuild(nodesFile, noGit, historical, forceRecompute, noHistory, historyDB, cfg)
		},
	}

	cmd.Flags().StringVar(&nodesFile, "nodes", defaultNodesFile, "node topology YAML file")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "disable git pull/stage/commit/push")
	cmd.Flags().BoolVarP(&historical, "historical", "p", false, "allow rows older than the 14-day window")
	cmd.Flags().BoolVar(&forceRecompute, "force-recompute", false, "overwrite mismatched checksums instead of aborting")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not record this run in the history database")
	cmd.Flags().StringVar(&historyDB, "history-db", history.DefaultPath(), "path to the run-history database")

	return cmd
}

func runBuild(nodesFile string, noGit, historical, forceRecompute, noHistory bool, historyDB string, cfg *config.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b, err := newBuilder(nodesFile, noGit, historical)
	if err != nil {
		return err
	}
	b.ForceRecompute = forceRecompute
	b.CommitMessage = cfg.CommitMessage

	var store *history.Store
	var runID int64
	if !noHistory {
		store, err = history.Open(historyDB)
		if err != nil {
			slog.Warn("run history disabled", "error", err)
		} else {
			defer func() { _ = store.Close() }()
			if runID, err = store.RecordStart(ctx); err != nil {
				slog.Warn("run history disabled", "error", err)
				store = nil
			}
		}
	}

	rep, runErr := b.Run(ctx)
	if store != nil {
		rec := history.Run{Status: history.StatusCompleted}
		if runErr != nil {
			rec.Status = history.StatusFailed
			rec.Error = runErr.Error()
		} else {
			rec.Nodes = rep.Nodes
			rec.RowsValidated = rep.RowsValidated
			rec.RowsSkipped = rep.RowsSkipped
			rec.DirsCreated = rep.DirsCreated
			rec.FilesWritten = rep.FilesWritten
		}
		if err := store.RecordFinish(ctx, runID, rec); err != nil {
			slog.Warn("record run history", "error", err)
		}
	}
	if runErr != nil {
		return runErr
	}

	if rep.Changes.Empty() {
		fmt.Println("Build successful. No new files or folders created.")
	} else {
		fmt.Printf("Build successful. %d rows validated, %d folders created, %d files updated.\n",
			rep.RowsValidated, rep.DirsCreated, rep.FilesWritten)
	}
	return nil
}

// newBuilder wires a Builder rooted at the repository top level (or the
// working directory when git is disabled).
func newBuilder(nodesFile string, noGit, historical bool) (*builder.Builder, error) {
	b := &builder.Builder{
		NodesFile:       nodesFile,
		AllowHistorical: historical,
	}
	if noGit {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		b.Root = wd
		b.Tracker = gitsync.Disabled{}
		return b, nil
	}

	repo, err := gitsync.Open(".")
	if err != nil {
		return nil, err
	}
	b.Root = repo.Dir
	b.Tracker = repo
	return b, nil
}
