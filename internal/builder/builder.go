// Package builder materializes the standardized folder hierarchy for
// every validated field-log row: node → project → site → sensor → dated
// day folder → numbered runs → processing tiers. Folder creation is
// create-if-absent, so re-running against an unchanged tree writes
// nothing.
package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fieldforge/fieldforge/internal/checker"
	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/gitsync"
	"github.com/fieldforge/fieldforge/internal/ledger"
)

// Fixed names of the materialized tree.
const (
	projectRecordName = "ProjectSummary.yaml"
	fieldLogName      = "FieldLog.csv"
	notesFileName     = "FieldNotes.txt"
)

// runTiers are the processing-stage folders under every run folder.
var runTiers = []string{"Tier0_raw", "Tier1_proc", "Tier2_traits"}

// scaffoldDirs are created at the project and site level.
var scaffoldDirs = []string{"Documentation", "Code"}

// Builder orchestrates the validation-and-materialization pipeline.
type Builder struct {
	// Root is the directory node folders live under, normally the
	// repository top level.
	Root string
	// NodesFile is the node topology document, relative to Root unless
	// absolute.
	NodesFile string
	// Tracker receives every created or modified file; nil disables
	// change tracking.
	Tracker gitsync.Tracker
	// AllowHistorical permits rows older than the historical window.
	AllowHistorical bool
	// ForceRecompute overwrites mismatched checksums instead of aborting.
	ForceRecompute bool
	// CommitMessage overrides the derived closing commit message.
	CommitMessage string
	// Now is the validation clock; nil means time.Now.
	Now func() time.Time
}

// Report summarizes one build run.
type Report struct {
	Nodes         int
	Projects      int
	RowsValidated int // rows newly checksummed this run
	RowsSkipped   int // rows whose checksum already matched
	DirsCreated   int
	FilesWritten  int
	Changes       *ChangeSet
}

// Run executes the whole pipeline. Any validation failure aborts the run
// immediately; folders already created are left in place since creation
// is idempotent.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	rep := &Report{Changes: NewChangeSet()}

	// The checkout must be current before any folder work starts.
	if err := b.tracker().PullLatest(ctx); err != nil {
		return nil, err
	}

	nodesPath := b.nodesPath()
	nf, created, err := config.EnsureNodes(nodesPath)
	if err != nil {
		return nil, err
	}
	if created {
		rep.FilesWritten++
		if err := b.stage(ctx, nodesPath, rep); err != nil {
			return nil, err
		}
	}

	for i := range nf.Nodes {
		if err := b.buildNode(ctx, &nf.Nodes[i], rep); err != nil {
			return nil, err
		}
	}

	if !rep.Changes.Empty() {
		msg := b.CommitMessage
		if msg == "" {
			msg = deriveCommitMessage(rep)
		}
		if err := b.tracker().CommitAndPush(ctx, msg); err != nil {
			return nil, err
		}
	}

	return rep, nil
}

func (b *Builder) buildNode(ctx context.Context, node *config.Node, rep *Report) error {
	if node.Placeholder() {
		slog.Warn("skipping placeholder node entry, edit the nodes file to name it")
		return nil
	}

	nodeDir := filepath.Join(b.Root, node.Name)
	if err := ensureDir(nodeDir, rep); err != nil {
		return err
	}

	summaryPath := filepath.Join(nodeDir, node.Name+"_ProjectsSummary.csv")
	summary, created, err := ledger.EnsureSummary(summaryPath, node.SensorPlatforms)
	if err != nil {
		return err
	}
	if created {
		slog.Info("new node project summary table built", "path", summaryPath)
		rep.FilesWritten++
		if err := b.stage(ctx, summaryPath, rep); err != nil {
			return err
		}
	}
	if ledger.Reconcile(summary.Table, ledger.SummaryColumns(node.SensorPlatforms), "False") {
		if err := summary.Save(); err != nil {
			return err
		}
		rep.FilesWritten++
		if err := b.stage(ctx, summaryPath, rep); err != nil {
			return err
		}
	}
	if err := b.trackFile(ctx, summaryPath, rep); err != nil {
		return err
	}

	rep.Nodes++
	if len(summary.Rows) == 0 {
		slog.Warn("node has no projects yet", "node", node.Name)
		return nil
	}

	for i, name := range summary.Projects() {
		if name == "" {
			continue
		}
		if err := b.buildProject(ctx, nodeDir, summary, i, name, rep); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) buildProject(ctx context.Context, nodeDir string, summary *ledger.ProjectSummary, row int, name string, rep *Report) error {
	projDir := filepath.Join(nodeDir, name)
	for _, d := range scaffoldDirs {
		if err := ensureDir(filepath.Join(projDir, d), rep); err != nil {
			return err
		}
	}

	projPath := filepath.Join(projDir, projectRecordName)
	project, created, err := config.EnsureProject(projPath, name)
	if err != nil {
		return err
	}
	if created {
		rep.FilesWritten++
		if err := b.stage(ctx, projPath, rep); err != nil {
			return err
		}
	}
	if err := b.trackFile(ctx, projPath, rep); err != nil {
		return err
	}

	flogPath := filepath.Join(projDir, fieldLogName)
	flog, created, err := ledger.EnsureFieldLog(flogPath)
	if err != nil {
		return err
	}
	if created {
		rep.FilesWritten++
		if err := b.stage(ctx, flogPath, rep); err != nil {
			return err
		}
	}
	if ledger.Reconcile(flog.Table, ledger.FieldLogColumns, "") {
		if err := flog.Save(); err != nil {
			return err
		}
		rep.FilesWritten++
		if err := b.stage(ctx, flogPath, rep); err != nil {
			return err
		}
	}
	if err := b.trackFile(ctx, flogPath, rep); err != nil {
		return err
	}

	for i := range project.Sites {
		s := &project.Sites[i]
		if s.Placeholder() {
			continue
		}
		siteDir := filepath.Join(projDir, s.FolderName())
		if err := ensureDir(siteDir, rep); err != nil {
			return err
		}
		for _, d := range scaffoldDirs {
			if err := ensureDir(filepath.Join(siteDir, d), rep); err != nil {
				return err
			}
		}
	}

	enabled := summary.EnabledSensors(row)
	opts := checker.Options{
		AllowHistorical: b.AllowHistorical,
		ForceRecompute:  b.ForceRecompute,
		Now:             b.Now,
	}
	for idx := range flog.Rows {
		res, err := checker.Validate(flog, idx, enabled, project, opts)
		if err != nil {
			return err
		}
		if err := b.materializeRow(ctx, projDir, flog, idx, res, rep); err != nil {
			return err
		}
	}

	rep.Projects++
	return nil
}

// materializeRow ensures the sensor/day/run/tier tree for one validated
// row, then writes its checksum back when the row is new.
func (b *Builder) materializeRow(ctx context.Context, projDir string, flog *ledger.FieldLog, idx int, res *checker.Result, rep *Report) error {
	dayDir := filepath.Join(
		projDir,
		res.Site.FolderName(),
		res.Row.Sensor,
		dayFolder(res.Row.Year, res.Row.Month, res.Row.Day),
	)
	for n := 0; n < res.Row.Runs; n++ {
		runDir := filepath.Join(dayDir, fmt.Sprintf("run_%02d", n))
		for _, tier := range runTiers {
			if err := ensureDir(filepath.Join(runDir, tier), rep); err != nil {
				return err
			}
		}
	}

	if res.Row.MakeNotesFile {
		if err := touchFile(filepath.Join(dayDir, notesFileName), rep); err != nil {
			return err
		}
	}

	if res.Checksum == nil {
		rep.RowsSkipped++
		return nil
	}

	flog.SetChecksum(idx, *res.Checksum)
	if err := flog.Save(); err != nil {
		return err
	}
	rep.FilesWritten++
	if err := b.stage(ctx, flog.Path, rep); err != nil {
		return err
	}
	rep.RowsValidated++
	return nil
}

// dayFolder names a field-day folder. Years keep their last two digits
// to match existing on-disk layouts.
func dayFolder(year, month, day int) string {
	y := year % 100
	if y < 0 {
		y = -y
	}
	return fmt.Sprintf("%02d%02d%02d", y, month, day)
}

func (b *Builder) tracker() gitsync.Tracker {
	if b.Tracker == nil {
		return gitsync.Disabled{}
	}
	return b.Tracker
}

func (b *Builder) nodesPath() string {
	if filepath.IsAbs(b.NodesFile) {
		return b.NodesFile
	}
	return filepath.Join(b.Root, b.NodesFile)
}

// stage hands a touched file to the tracker and records it in the
// change set.
func (b *Builder) stage(ctx context.Context, path string, rep *Report) error {
	if err := b.tracker().Stage(ctx, path); err != nil {
		return err
	}
	rep.Changes.Add(path)
	return nil
}

// trackFile makes sure an existing record is known to the tracker:
// untracked files and files with uncommitted edits get staged so human
// changes ride along with the run's commit.
func (b *Builder) trackFile(ctx context.Context, path string, rep *Report) error {
	t := b.tracker()
	tracked, err := t.IsTracked(ctx, path)
	if err != nil {
		return err
	}
	if !tracked {
		staged, err := t.IsStaged(ctx, path)
		if err != nil {
			return err
		}
		if !staged {
			slog.Warn("file is not tracked, staging it", "path", path)
			return b.stage(ctx, path, rep)
		}
		return nil
	}
	modified, err := t.HasUncommittedModification(ctx, path)
	if err != nil {
		return err
	}
	if modified {
		return b.stage(ctx, path, rep)
	}
	return nil
}

func ensureDir(path string, rep *Report) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	slog.Debug("created directory", "path", path)
	rep.DirsCreated++
	return nil
}

func touchFile(path string, rep *Report) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		return fmt.Errorf("touch %s: %w", path, err)
	}
	rep.FilesWritten++
	return nil
}

func deriveCommitMessage(rep *Report) string {
	return fmt.Sprintf("fieldforge: materialize field log entries (%d rows validated, %d folders created)",
		rep.RowsValidated, rep.DirsCreated)
}
