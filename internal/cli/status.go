package cli

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/ledger"
)

func newStatusCmd() *cobra.Command {
	var nodesFile string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the configured nodes, projects, sites and ledger state",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadSettings(configFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cmd.Flags().Changed("nodes") && cfg.NodesFile != "" {
				nodesFile = cfg.NodesFile
			}
			return showStatus(nodesFile)
		},
	}

	cmd.Flags().StringVar(&nodesFile, "nodes", defaultNodesFile, "node topology YAML file")

	return cmd
}

func showStatus(nodesFile string) error {
	nf, err := config.LoadNodes(nodesFile)
	if err != nil {
		return err
	}

	for i := range nf.Nodes {
		node := &nf.Nodes[i]
		if node.Placeholder() {
			fmt.Println(dimStyle.Render("(placeholder node entry, edit the nodes file)"))
			continue
		}
		fmt.Printf("%s %s\n",
			headerStyle.Render(node.Name),
			dimStyle.Render("("+strings.Join(node.SensorPlatforms, ", ")+")"))

		summaryPath := filepath.Join(node.Name, node.Name+"_ProjectsSummary.csv")
		table, err := ledger.LoadTable(summaryPath)
		if err != nil {
			fmt.Printf("  %s\n", dimStyle.Render("no project summary table yet"))
			continue
		}
		summary := &ledger.ProjectSummary{Table: table}
		if len(summary.Rows) == 0 {
			fmt.Printf("  %s\n", dimStyle.Render("no projects defined yet"))
			continue
		}

		for ri, name := range summary.Projects() {
			if name == "" {
				continue
			}
			showProject(node.Name, name, summary, ri)
		}
	}
	return nil
}

func showProject(nodeName, name string, summary *ledger.ProjectSummary, row int) {
	sensors := make([]string, 0)
	for s := range summary.EnabledSensors(row) {
		sensors = append(sensors, s)
	}
	fmt.Printf("  %s %s\n", headerStyle.Render(name),
		dimStyle.Render("["+strings.Join(sensors, ", ")+"]"))

	projDir := filepath.Join(nodeName, name)
	project, err := config.LoadProject(filepath.Join(projDir, "ProjectSummary.yaml"))
	if err == nil {
		for i := range project.Sites {
			s := &project.Sites[i]
			if s.Placeholder() {
				continue
			}
			fmt.Printf("    %s\n", s.FolderName())
		}
	}

	table, err := ledger.LoadTable(filepath.Join(projDir, "FieldLog.csv"))
	if err != nil {
		fmt.Printf("    %s\n", dimStyle.Render("no field log yet"))
		return
	}
	flog := &ledger.FieldLog{Table: table}
	done, pending := 0, 0
	for ri := range flog.Rows {
		v, err := flog.Checksum(ri)
		if err != nil || math.IsNaN(v) {
			pending++
		} else {
			done++
		}
	}
	fmt.Printf("    field log: %d rows, %s, %s\n",
		len(flog.Rows),
		okStyle.Render(fmt.Sprintf("%d materialized", done)),
		pendStyle.Render(fmt.Sprintf("%d pending", pending)))
}
