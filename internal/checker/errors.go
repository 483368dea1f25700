package checker

import "fmt"

// Rule names the validation rule a ledger row violated.
type Rule string

const (
	RuleTypeMismatch     Rule = "TypeMismatch"
	RuleInvalidDate      Rule = "InvalidDate"
	RuleFutureDate       Rule = "FutureDate"
	RuleTooHistorical    Rule = "TooHistorical"
	RuleUnknownSensor    Rule = "UnknownSensor"
	RuleInvalidRunCount  Rule = "InvalidRunCount"
	RuleUnknownSite      Rule = "UnknownSite"
	RuleSiteYearMismatch Rule = "SiteYearMismatch"
)

// RowError reports a field-log row that failed validation. It names the
// file, the row, and the exact rule violated; the run aborts and an
// operator edits the source record.
type RowError struct {
	File   string
	Line   int // 1-based file line, header included
	Row    string
	Rule   Rule
	Detail string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("problem in field log %s line %d [%s]: %s: %s",
		e.File, e.Line, e.Row, e.Rule, e.Detail)
}

// ChecksumConflict reports a row whose stored checksum no longer matches
// its contents: an unauthorized edit after materialization. It carries
// both values so the operator (or --force-recompute) can resolve it.
type ChecksumConflict struct {
	File     string
	Line     int
	Row      string
	Stored   float64
	Computed float64
}

func (e *ChecksumConflict) Error() string {
	return fmt.Sprintf("checksum conflict in field log %s line %d [%s]: stored %.1f, computed %.1f; row was edited after materialization, fix it or rerun with --force-recompute",
		e.File, e.Line, e.Row, e.Stored, e.Computed)
}
