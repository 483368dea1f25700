package builder

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fieldforge/fieldforge/internal/checker"
	"github.com/fieldforge/fieldforge/internal/gitsync"
	"github.com/fieldforge/fieldforge/internal/ledger"
)

// testClock keeps row dates inside the historical window.
func testClock() time.Time {
	return time.Date(2024, 6, 10, 12, 0, 0, 0, time.Local)
}

func write(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// setupTree builds a one-node, one-project repository with the given
// field-log rows.
func setupTree(t *testing.T, rows ...string) string {
	t.Helper()
	root := t.TempDir()

	write(t, filepath.Join(root, "NodeSummary.yaml"), `
nodes:
  - name: Narrabri
    SensorPlatforms: [GOBI, M3M]
`)
	write(t, filepath.Join(root, "Narrabri", "Narrabri_ProjectsSummary.csv"),
		"Project,GOBI,M3M\nP1,True,True\n")
	write(t, filepath.Join(root, "Narrabri", "P1", "ProjectSummary.yaml"), `
project:
  ShortName: P1
  sites:
    - name: Main
      year: 2024
      ControlledEnvironment: false
      sensors: [M3M]
`)
	log := "Year,Month,Day,Sensor,Technician,Runs,Site,MakeNotesFile,CheckSum\n" +
		strings.Join(rows, "\n")
	if len(rows) > 0 {
		log += "\n"
	}
	write(t, filepath.Join(root, "Narrabri", "P1", "FieldLog.csv"), log)

	return root
}

func newTestBuilder(root string) *Builder {
	return &Builder{
		Root:      root,
		NodesFile: "NodeSummary.yaml",
		Tracker:   gitsync.Disabled{},
		Now:       testClock,
	}
}

func mustStat(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
	}
}

func TestRun_MaterializesValidRow(t *testing.T) {
	root := setupTree(t, "2024,6,1,M3M,Tech1,2,Main,False,")
	b := newTestBuilder(root)

	rep, err := b.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	dayDir := filepath.Join(root, "Narrabri", "P1", "2024Main_F", "M3M", "240601")
	for _, run := range []string{"run_00", "run_01"} {
		for _, tier := range []string{"Tier0_raw", "Tier1_proc", "Tier2_traits"} {
			mustStat(t, filepath.Join(dayDir, run, tier))
		}
	}
	if _, err := os.Stat(filepath.Join(dayDir, "run_02")); err == nil {
		t.Error("run_02 should not exist for Runs=2")
	}
	if _, err := os.Stat(filepath.Join(dayDir, "FieldNotes.txt")); err == nil {
		t.Error("no notes file should be created for MakeNotesFile=False")
	}

	// site and project scaffolding
	mustStat(t, filepath.Join(root, "Narrabri", "P1", "Documentation"))
	mustStat(t, filepath.Join(root, "Narrabri", "P1", "2024Main_F", "Code"))

	// ledger got its checksum back
	flog := loadLog(t, root)
	v, err := flog.Checksum(0)
	if err != nil {
		t.Fatal(err)
	}
	if math.IsNaN(v) || v == 0 {
		t.Errorf("checksum not written, got %v", v)
	}

	if rep.RowsValidated != 1 || rep.RowsSkipped != 0 {
		t.Errorf("report: %+v", rep)
	}
	if rep.Changes.Empty() {
		t.Error("change set should record the ledger rewrite")
	}
}

func TestRun_SecondRunIsIdempotent(t *testing.T) {
	root := setupTree(t, "2024,6,1,M3M,Tech1,2,Main,False,")
	b := newTestBuilder(root)

	if _, err := b.Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	rep, err := newTestBuilder(root).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rep.DirsCreated != 0 {
		t.Errorf("second run created %d dirs, want 0", rep.DirsCreated)
	}
	if rep.FilesWritten != 0 {
		t.Errorf("second run wrote %d files, want 0", rep.FilesWritten)
	}
	if rep.RowsSkipped != 1 || rep.RowsValidated != 0 {
		t.Errorf("second run report: %+v", rep)
	}
	if !rep.Changes.Empty() {
		t.Errorf("second run change set: %v", rep.Changes.Paths())
	}
}

func TestRun_UnknownSensorAborts(t *testing.T) {
	root := setupTree(t, "2024,6,1,Thermal,Tech1,2,Main,False,")
	b := newTestBuilder(root)

	_, err := b.Run(context.Background())
	var re *checker.RowError
	if !errors.As(err, &re) {
		t.Fatalf("expected RowError, got %v", err)
	}
	if re.Rule != checker.RuleUnknownSensor {
		t.Fatalf("rule: got %s, want UnknownSensor", re.Rule)
	}

	// no sensor folders, ledger untouched
	if _, err := os.Stat(filepath.Join(root, "Narrabri", "P1", "2024Main_F", "Thermal")); err == nil {
		t.Error("no sensor folder may be created for a rejected row")
	}
	v, err := loadLog(t, root).Checksum(0)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(v) {
		t.Errorf("ledger checksum must stay unset, got %v", v)
	}
}

func TestRun_SiteYearMismatchAborts(t *testing.T) {
	root := setupTree(t, "2024,6,1,M3M,Tech1,1,Main,False,")
	// reconfigure the site to 2023 while the row says 2024
	write(t, filepath.Join(root, "Narrabri", "P1", "ProjectSummary.yaml"), `
project:
  ShortName: P1
  sites:
    - name: Main
      year: 2023
      ControlledEnvironment: false
`)

	_, err := newTestBuilder(root).Run(context.Background())
	var re *checker.RowError
	if !errors.As(err, &re) {
		t.Fatalf("expected RowError, got %v", err)
	}
	if re.Rule != checker.RuleSiteYearMismatch {
		t.Fatalf("rule: got %s, want SiteYearMismatch", re.Rule)
	}
}

func TestRun_NotesFile(t *testing.T) {
	root := setupTree(t, "2024,6,1,M3M,Tech1,1,Main,True,")

	if _, err := newTestBuilder(root).Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	mustStat(t, filepath.Join(root, "Narrabri", "P1", "2024Main_F", "M3M", "240601", "FieldNotes.txt"))
}

func TestRun_CreatesMissingRecords(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "NodeSummary.yaml"), `
nodes:
  - name: Narrabri
    SensorPlatforms: [GOBI, M3M]
`)
	write(t, filepath.Join(root, "Narrabri", "Narrabri_ProjectsSummary.csv"),
		"Project,GOBI,M3M\nP1,True,True\n")

	rep, err := newTestBuilder(root).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	mustStat(t, filepath.Join(root, "Narrabri", "P1", "ProjectSummary.yaml"))
	mustStat(t, filepath.Join(root, "Narrabri", "P1", "FieldLog.csv"))
	if rep.FilesWritten == 0 {
		t.Error("creating templates should count as file writes")
	}
	if rep.Changes.Empty() {
		t.Error("created records should land in the change set")
	}
}

func TestRun_EmptySummarySkipsNode(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "NodeSummary.yaml"), `
nodes:
  - name: Empty
    SensorPlatforms: [GOBI]
  - name: Narrabri
    SensorPlatforms: [GOBI, M3M]
`)
	write(t, filepath.Join(root, "Empty", "Empty_ProjectsSummary.csv"), "Project,GOBI\n")
	write(t, filepath.Join(root, "Narrabri", "Narrabri_ProjectsSummary.csv"),
		"Project,GOBI,M3M\nP1,True,True\n")

	rep, err := newTestBuilder(root).Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	// the empty node must not stop later nodes from processing
	if rep.Projects != 1 {
		t.Errorf("projects processed: got %d, want 1", rep.Projects)
	}
	mustStat(t, filepath.Join(root, "Narrabri", "P1", "FieldLog.csv"))
}

func TestRun_ReconcilesSummaryColumns(t *testing.T) {
	root := setupTree(t)
	// drop the M3M column
	write(t, filepath.Join(root, "Narrabri", "Narrabri_ProjectsSummary.csv"),
		"Project,GOBI\nP1,True\n")

	if _, err := newTestBuilder(root).Run(context.Background()); err != nil {
		t.Fatal(err)
	}

	table, err := ledger.LoadTable(filepath.Join(root, "Narrabri", "Narrabri_ProjectsSummary.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Project", "GOBI", "M3M"}
	for i, col := range want {
		if table.Columns[i] != col {
			t.Fatalf("columns: got %v, want %v", table.Columns, want)
		}
	}
	if got := table.Cell(0, "M3M"); got != "False" {
		t.Errorf("backfilled cell: got %q, want False", got)
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	root := setupTree(t,
		"2024,6,1,Thermal,Tech1,1,Main,False,", // unknown sensor
		"2024,6,1,M3M,Tech1,0,Main,False,",     // bad run count
		"2024,6,1,M3M,Tech1,2,Main,False,",     // fine
	)

	rep, err := newTestBuilder(root).Validate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Problems) != 2 {
		t.Fatalf("problems: got %d, want 2: %v", len(rep.Problems), rep.Problems)
	}
	if rep.Rows != 3 || rep.Pending != 1 {
		t.Errorf("report: %+v", rep)
	}

	// read-only: no folders appear
	if _, err := os.Stat(filepath.Join(root, "Narrabri", "P1", "2024Main_F")); err == nil {
		t.Error("validate must not create folders")
	}
}

func TestDayFolder(t *testing.T) {
	if got := dayFolder(2024, 6, 1); got != "240601" {
		t.Errorf("got %q, want 240601", got)
	}
	if got := dayFolder(2007, 11, 30); got != "071130" {
		t.Errorf("got %q, want 071130", got)
	}
}

func loadLog(t *testing.T, root string) *ledger.FieldLog {
	t.Helper()
	table, err := ledger.LoadTable(filepath.Join(root, "Narrabri", "P1", "FieldLog.csv"))
	if err != nil {
		t.Fatal(err)
	}
	return &ledger.FieldLog{Table: table}
}
