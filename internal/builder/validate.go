package builder

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fieldforge/fieldforge/internal/checker"
	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/ledger"
)

// ValidateReport summarizes a read-only validation pass.
type ValidateReport struct {
	Nodes        int
	Projects     int
	Rows         int
	Pending      int // rows that would be materialized by a build
	Materialized int // rows whose checksum already matches
	Problems     []error
}

// Validate walks every node, project and field-log row without touching
// the filesystem or the tracker, collecting every row error instead of
// stopping at the first. Missing records are skipped with a warning: the
// build command is what creates them.
func (b *Builder) Validate(ctx context.Context) (*ValidateReport, error) {
	rep := &ValidateReport{}

	nf, err := config.LoadNodes(b.nodesPath())
	if err != nil {
		return nil, err
	}

	for ni := range nf.Nodes {
		node := &nf.Nodes[ni]
		if node.Placeholder() {
			continue
		}
		nodeDir := filepath.Join(b.Root, node.Name)

		summaryPath := filepath.Join(nodeDir, node.Name+"_ProjectsSummary.csv")
		table, err := ledger.LoadTable(summaryPath)
		if err != nil {
			slog.Warn("node summary table not readable, skipping node", "node", node.Name, "error", err)
			continue
		}
		summary := &ledger.ProjectSummary{Table: table}
		// reconcile in memory only, so row checks see the full column set
		ledger.Reconcile(summary.Table, ledger.SummaryColumns(node.SensorPlatforms), "False")
		rep.Nodes++

		for i, name := range summary.Projects() {
			if name == "" {
				continue
			}
			if err := b.validateProject(nodeDir, summary, i, name, rep); err != nil {
				return nil, err
			}
		}
	}

	return rep, nil
}

func (b *Builder) validateProject(nodeDir string, summary *ledger.ProjectSummary, row int, name string, rep *ValidateReport) error {
	projDir := filepath.Join(nodeDir, name)

	project, err := config.LoadProject(filepath.Join(projDir, projectRecordName))
	if err != nil {
		slog.Warn("project record not readable, skipping project", "project", name, "error", err)
		return nil
	}

	table, err := ledger.LoadTable(filepath.Join(projDir, fieldLogName))
	if err != nil {
		slog.Warn("field log not readable, skipping project", "project", name, "error", err)
		return nil
	}
	flog := &ledger.FieldLog{Table: table}
	ledger.Reconcile(flog.Table, ledger.FieldLogColumns, "")

	enabled := summary.EnabledSensors(row)
	opts := checker.Options{
		AllowHistorical: b.AllowHistorical,
		Now:             b.Now,
	}
	for idx := range flog.Rows {
		rep.Rows++
		res, err := checker.Validate(flog, idx, enabled, project, opts)
		if err != nil {
			rep.Problems = append(rep.Problems, err)
			continue
		}
		if res.Checksum == nil {
			rep.Materialized++
		} else {
			rep.Pending++
		}
	}

	rep.Projects++
	return nil
}
