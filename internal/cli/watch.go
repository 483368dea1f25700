package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var (
		nodesFile  string
		noGit      bool
		historical bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild automatically when ledgers or config records change",
		Long: "Watch builds once, then monitors the nodes file, project records and\n" +
			"field logs, rerunning the build whenever one is edited. A failed\n" +
			"rebuild is reported and watching continues.",
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
			return runWatch(nodesFile, noGit, historical, cfg)
		},
	}

	cmd.Flags().StringVar(&nodesFile, "nodes", defaultNodesFile, "node topology YAML file")
	cmd.Flags().BoolVar(&noGit, "no-git", false, "disable git pull/stage/commit/push")
	cmd.Flags().BoolVarP(&historical, "historical", "p", false, "allow rows older than the 14-day window")

	return cmd
}

func runWatch(nodesFile string, noGit, historical bool, cfg *config.Settings) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b, err := newBuilder(nodesFile, noGit, historical)
	if err != nil {
		return err
	}
	b.CommitMessage = cfg.CommitMessage

	return watcher.Run(ctx, watcher.Config{
		Root:      b.Root,
		NodesFile: nodesFile,
		Build: func(ctx context.Context) error {
			_, err := b.Run(ctx)
			return err
		},
	})
}
