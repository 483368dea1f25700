package ledger

import (
	"log/slog"
	"slices"
)

// Reconcile forces the table to carry exactly the required columns, in
// order. Missing columns are appended to every row with fill; extra
// columns are dropped. Returns true when the table changed, in which case
// the caller persists it and records the path for the change tracker.
// Reconciling an already-conforming table is a no-op.
func Reconcile(t *Table, required []string, fill string) bool {
	if slices.Equal(t.Columns, required) {
		return false
	}

	var missing []string
	for _, col := range required {
		if t.ColumnIndex(col) < 0 {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		slog.Warn("columns missing, backfilling", "table", t.Path, "columns", missing)
	}

	old := map[string]int{}
	for i, c := range t.Columns {
		old[c] = i
	}

	rows := make([][]string, len(t.Rows))
	for ri, row := range t.Rows {
		cells := make([]string, len(required))
		for ci, col := range required {
			if oi, ok := old[col]; ok && oi < len(row) {
				cells[ci] = row[oi]
			} else {
				cells[ci] = fill
			}
		}
		rows[ri] = cells
	}

	t.Columns = append([]string(nil), required...)
	t.Rows = rows
	return true
}
