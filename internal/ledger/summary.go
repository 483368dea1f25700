package ledger

import (
	"errors"
	"os"
	"strconv"
)

// ColProject is the key column of every node's project-summary table.
const ColProject = "Project"

// ProjectSummary is a node's project × sensor-platform boolean matrix:
// one row per project, one column per platform, true meaning the project
// may use that sensor.
type ProjectSummary struct {
	*Table
}

// SummaryColumns returns the enforced column set for a node's summary
// table: the key column followed by the node's sensor platforms.
func SummaryColumns(platforms []string) []string {
	return append([]string{ColProject}, platforms...)
}

// EnsureSummary loads a node's project-summary table, creating an empty
// one with the node's platforms as columns if it does not exist.
func EnsureSummary(path string, platforms []string) (*ProjectSummary, bool, error) {
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		t := NewTable(path, SummaryColumns(platforms))
		if err := t.Save(); err != nil {
			return nil, false, err
		}
		created = true
	}

	t, err := LoadTable(path)
	if err != nil {
		return nil, created, err
	}
	return &ProjectSummary{Table: t}, created, nil
}

// Projects lists the project names, in table order.
func (s *ProjectSummary) Projects() []string {
	names := make([]string, 0, len(s.Rows))
	for i := range s.Rows {
		names = append(names, s.Cell(i, ColProject))
	}
	return names
}

// EnabledSensors returns the set of platforms switched on for a project
// row. Cells that do not parse as a bool count as off.
func (s *ProjectSummary) EnabledSensors(row int) map[string]bool {
	enabled := make(map[string]bool)
	for _, col := range s.Columns {
		if col == ColProject {
			continue
		}
		v, err := strconv.ParseBool(s.Cell(row, col))
		if err == nil && v {
			enabled[col] = true
		}
	}
	return enabled
}
