package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/internal/config"
)

func newValidateCmd() *cobra.Command {
	var (
		nodesFile  string
		historical bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check every field-log row without creating anything",
		Long: "Validate walks all nodes, projects and field-log rows, reporting every\n" +
			"problem it finds instead of stopping at the first. Nothing is created\n" +
			"or modified.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("nodes") && cfg.NodesFile != "" {
				nodesFile = cfg.NodesFile
			}
			if !cmd.Flags().Changed("historical") && cfg.Historical {
				historical = cfg.Historical
			}
			return runValidate(nodesFile, historical)
		},
	}

	cmd.Flags().StringVar(&nodesFile, "nodes", defaultNodesFile, "node topology YAML file")
	cmd.Flags().BoolVarP(&historical, "historical", "p", false, "allow rows older than the 14-day window")

	return cmd
}

func runValidate(nodesFile string, historical bool) error {
	// validation never writes, so git state does not matter
	b, err := newBuilder(nodesFile, true, historical)
	if err != nil {
		return err
	}

	rep, err := b.Validate(context.Background())
	if err != nil {
		return err
	}

	for _, p := range rep.Problems {
		fmt.Println(failStyle.Render("✗"), p)
	}
	fmt.Printf("%d nodes, %d projects, %d rows checked: %d materialized, %d pending, %d problems\n",
		rep.Nodes, rep.Projects, rep.Rows, rep.Materialized, rep.Pending, len(rep.Problems))

	if n := len(rep.Problems); n > 0 {
		return fmt.Errorf("%d field log rows failed validation", n)
	}
	return nil
}
