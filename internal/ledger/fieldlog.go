package ledger

import (
	"errors"
	"os"
)

// Field log column names, in ledger order. One row is one field day at
// one site with one sensor.
const (
	ColYear          = "Year"
	ColMonth         = "Month"
	ColDay           = "Day"
	ColSensor        = "Sensor"
	ColTechnician    = "Technician"
	ColRuns          = "Runs"
	ColSite          = "Site"
	ColMakeNotesFile = "MakeNotesFile"
	ColCheckSum      = "CheckSum"
)

// FieldLogColumns is the enforced column set of every FieldLog.csv.
var FieldLogColumns = []string{
	ColYear, ColMonth, ColDay, ColSensor, ColTechnician,
	ColRuns, ColSite, ColMakeNotesFile, ColCheckSum,
}

// FieldLog wraps the per-project ledger of field-day entries.
type FieldLog struct {
	*Table
}

// EnsureFieldLog loads a project's field log, creating an empty one with
// the standard header if it does not exist.
func EnsureFieldLog(path string) (*FieldLog, bool, error) {
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		t := NewTable(path, FieldLogColumns)
		if err := t.Save(); err != nil {
			return nil, false, err
		}
		created = true
	}

	t, err := LoadTable(path)
	if err != nil {
		return nil, created, err
	}
	return &FieldLog{Table: t}, created, nil
}

// Checksum reads a row's stored integrity value; NaN means never computed.
func (f *FieldLog) Checksum(row int) (float64, error) {
	return ParseChecksum(f.Cell(row, ColCheckSum))
}

// SetChecksum writes a row's integrity value after materialization.
func (f *FieldLog) SetChecksum(row int, v float64) {
	f.SetCell(row, ColCheckSum, FormatChecksum(v))
}

// IdentityCells returns the cells that define a row's identity: every
// column except the checksum itself, in ledger order.
func (f *FieldLog) IdentityCells(row int) []string {
	cells := make([]string, 0, len(f.Columns)-1)
	for i, col := range f.Columns {
		if col == ColCheckSum {
			continue
		}
		if row >= 0 && row < len(f.Rows) && i < len(f.Rows[row]) {
			cells = append(cells, f.Rows[row][i])
		}
	}
	return cells
}
