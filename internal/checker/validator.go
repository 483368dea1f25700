package checker

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fieldforge/fieldforge/internal/config"
	"github.com/fieldforge/fieldforge/internal/ledger"
)

// maxFutureSkew is how far past the wall clock a row date may sit, to
// tolerate entries logged across time zones on the field day itself.
const maxFutureSkew = 12 * time.Hour

// historicalWindow is how far back a row may be dated without the
// allow-historical override.
const historicalWindow = 14 * 24 * time.Hour

// Options controls row validation.
type Options struct {
	// AllowHistorical permits rows older than the historical window.
	AllowHistorical bool
	// ForceRecompute treats checksum conflicts as new rows: the row is
	// re-validated in full and its checksum overwritten.
	ForceRecompute bool
	// Now is the clock; nil means time.Now.
	Now func() time.Time
	// ReferenceTime anchors the historical window; zero means Now.
	ReferenceTime time.Time
}

// Row holds a field-log row's typed values once its cells have passed
// the type checks.
type Row struct {
	Year, Month, Day int
	Sensor           string
	Technician       string
	SiteName         string
	Runs             int
	MakeNotesFile    bool
}

// Result is a successful validation. Checksum is nil when the stored
// value already matched, meaning the row was materialized in an earlier
// run: folders are still ensured, the ledger is not rewritten.
type Result struct {
	Checksum *float64
	Row      Row
	Site     *config.Site
}

// Validate checks one field-log row against the project configuration.
// Checks run in a fixed order and the first failure wins. enabled is the
// project's row from the node summary table.
func Validate(log *ledger.FieldLog, idx int, enabled map[string]bool, project *config.Project, opts Options) (*Result, error) {
	stored, err := log.Checksum(idx)
	if err != nil {
		return nil, rowErr(log, idx, RuleTypeMismatch, err.Error())
	}
	check := Compute(log.IdentityCells(idx))

	switch Compare(stored, check) {
	case StateMatch:
		// Already materialized. Field checks are skipped, but the site
		// must still resolve so the caller can ensure its folders.
		row, err := parseRow(log, idx)
		if err != nil {
			return nil, err
		}
		site, err := resolveSite(log, idx, row, project)
		if err != nil {
			return nil, err
		}
		return &Result{Row: row, Site: site}, nil

	case StateMismatch:
		if !opts.ForceRecompute {
			return nil, &ChecksumConflict{
				File:     log.Path,
				Line:     fileLine(idx),
				Row:      renderRow(log, idx),
				Stored:   stored,
				Computed: check,
			}
		}
		slog.Warn("checksum conflict overridden, recomputing",
			"file", log.Path, "line", fileLine(idx), "stored", stored, "computed", check)
	}

	row, err := parseRow(log, idx)
	if err != nil {
		return nil, err
	}

	date := time.Date(row.Year, time.Month(row.Month), row.Day, 0, 0, 0, 0, time.Local)
	if date.Year() != row.Year || date.Month() != time.Month(row.Month) || date.Day() != row.Day ||
		row.Month < 1 || row.Day < 1 {
		return nil, rowErr(log, idx, RuleInvalidDate,
			fmt.Sprintf("%d-%d-%d is not a real calendar date", row.Year, row.Month, row.Day))
	}

	now := time.Now()
	if opts.Now != nil {
		now = opts.Now()
	}
	ref := opts.ReferenceTime
	if ref.IsZero() {
		ref = now
	}
	if date.After(now.Add(maxFutureSkew)) {
		return nil, rowErr(log, idx, RuleFutureDate,
			fmt.Sprintf("row date %s is past the current time %s, future dates are not allowed",
				date.Format("2006-01-02"), now.Format(time.RFC3339)))
	}
	if date.Before(ref.Add(-historicalWindow)) && !opts.AllowHistorical {
		return nil, rowErr(log, idx, RuleTooHistorical,
			fmt.Sprintf("row date %s is before the historical cutoff %s, rerun with --historical to allow past dates",
				date.Format("2006-01-02"), ref.Add(-historicalWindow).Format("2006-01-02")))
	}

	if !enabled[row.Sensor] {
		valid := make([]string, 0, len(enabled))
		for s := range enabled {
			valid = append(valid, s)
		}
		sort.Strings(valid)
		return nil, rowErr(log, idx, RuleUnknownSensor,
			fmt.Sprintf("sensor %q is not enabled for this project (valid: %s), edit the node projects summary to add it",
				row.Sensor, strings.Join(valid, ", ")))
	}

	if row.Runs < 1 {
		return nil, rowErr(log, idx, RuleInvalidRunCount,
			fmt.Sprintf("number of runs %d must be greater than 0", row.Runs))
	}

	site, err := resolveSite(log, idx, row, project)
	if err != nil {
		return nil, err
	}

	return &Result{Checksum: &check, Row: row, Site: site}, nil
}

// parseRow applies the type checks and extracts the typed values:
// Year, Month, Day and Runs must be integral, Technician, Sensor and
// Site must be textual.
func parseRow(log *ledger.FieldLog, idx int) (Row, error) {
	var row Row

	for _, f := range []struct {
		col string
		dst *int
	}{
		{ledger.ColYear, &row.Year},
		{ledger.ColMonth, &row.Month},
		{ledger.ColDay, &row.Day},
		{ledger.ColRuns, &row.Runs},
	} {
		cell := log.Cell(idx, f.col)
		if k := ledger.KindOf(cell); k != ledger.KindInt {
			return row, rowErr(log, idx, RuleTypeMismatch,
				fmt.Sprintf("dtype for %s must be int, current dtype %s", f.col, k))
		}
		v, err := strconv.Atoi(strings.TrimSpace(cell))
		if err != nil {
			return row, rowErr(log, idx, RuleTypeMismatch,
				fmt.Sprintf("dtype for %s must be int: %v", f.col, err))
		}
		*f.dst = v
	}

	for _, f := range []struct {
		col string
		dst *string
	}{
		{ledger.ColTechnician, &row.Technician},
		{ledger.ColSensor, &row.Sensor},
		{ledger.ColSite, &row.SiteName},
	} {
		cell := log.Cell(idx, f.col)
		if k := ledger.KindOf(cell); k != ledger.KindString {
			return row, rowErr(log, idx, RuleTypeMismatch,
				fmt.Sprintf("dtype for %s must be str, current dtype %s", f.col, k))
		}
		*f.dst = cell
	}

	if v, err := strconv.ParseBool(strings.TrimSpace(log.Cell(idx, ledger.ColMakeNotesFile))); err == nil {
		row.MakeNotesFile = v
	}

	return row, nil
}

// resolveSite locates the configured site a row references. A same-named
// site under a different year is a distinct failure from "not found".
func resolveSite(log *ledger.FieldLog, idx int, row Row, project *config.Project) (*config.Site, error) {
	site, yearMismatch := project.FindSite(row.SiteName, row.Year)
	if site != nil {
		return site, nil
	}
	if yearMismatch != nil {
		return nil, rowErr(log, idx, RuleSiteYearMismatch,
			fmt.Sprintf("site %q has year %d but row has year %d, edit the project record to fix this",
				row.SiteName, yearMismatch.Year, row.Year))
	}

	names := make([]string, 0, len(project.Sites))
	for i := range project.Sites {
		if !project.Sites[i].Placeholder() {
			names = append(names, project.Sites[i].Name)
		}
	}
	return nil, rowErr(log, idx, RuleUnknownSite,
		fmt.Sprintf("site %q is not a configured site for this project (valid: %s), edit the project record to add sites",
			row.SiteName, strings.Join(names, ", ")))
}

// fileLine maps a data row index to its 1-based file line (header is line 1).
func fileLine(idx int) int { return idx + 2 }

func renderRow(log *ledger.FieldLog, idx int) string {
	parts := make([]string, 0, len(log.Columns))
	for _, col := range log.Columns {
		parts = append(parts, fmt.Sprintf("%s=%s", col, log.Cell(idx, col)))
	}
	return strings.Join(parts, " ")
}

func rowErr(log *ledger.FieldLog, idx int, rule Rule, detail string) *RowError {
	return &RowError{
		File:   log.Path,
		Line:   fileLine(idx),
		Row:    renderRow(log, idx),
		Rule:   rule,
		Detail: detail,
	}
}
